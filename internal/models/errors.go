package models

import "errors"

var (
	// ErrAuthRequired means the request carries no valid session.
	ErrAuthRequired = errors.New("authentication required")
	// ErrBrandNotFound means the user is authenticated but has no brand.
	ErrBrandNotFound = errors.New("no brand linked to this account")
	// ErrFetchFailure wraps any data store failure while loading dashboard data.
	ErrFetchFailure = errors.New("could not load dashboard data")
	// ErrResolutionFailure wraps a failed attempt to persist a resolution.
	ErrResolutionFailure = errors.New("could not resolve alert")
	ErrAlertNotFound     = errors.New("alert not found")
	// ErrAlertResolved is returned for any action on an already resolved alert.
	ErrAlertResolved   = errors.New("alert is already resolved")
	ErrCommentRequired = errors.New("resolution comment is required")
	ErrProductNotFound = errors.New("product not found")
	// ErrSuperseded means a newer request for the same view replaced this one.
	ErrSuperseded   = errors.New("request superseded by a newer selection")
	ErrInvalidInput = errors.New("invalid input")
)
