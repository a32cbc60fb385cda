package api

import (
	"context"
	"net/http"
	"time"

	"github.com/sentitrack/sentitrack/internal/auth"
	"github.com/sentitrack/sentitrack/internal/models"
	"github.com/sentitrack/sentitrack/internal/session"
	"github.com/sirupsen/logrus"
)

type contextKey int

const (
	userIDKey contextKey = iota
	brandKey
)

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func brandFrom(ctx context.Context) session.BrandContext {
	bc, _ := ctx.Value(brandKey).(session.BrandContext)
	return bc
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Info("HTTP request")
	})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, models.ErrAuthRequired)
			return
		}
		userID, err := s.verifier.Verify(token)
		if err != nil {
			logrus.Debugf("Rejected token: %v", err)
			writeError(w, models.ErrAuthRequired)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

func (s *Server) requireBrand(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bc, err := s.brands.Resolve(r.Context(), userIDFrom(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), brandKey, bc)))
	})
}
