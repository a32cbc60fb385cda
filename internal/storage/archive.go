package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sentitrack/sentitrack/internal/models"
	"github.com/sirupsen/logrus"
)

const digestPrefix = "digests/"

// ErrNotFound is returned when no matching blob exists.
var ErrNotFound = errors.New("blob not found")

// DigestArchive keeps generated digests as JSON blobs named so that lexical
// order is chronological.
type DigestArchive struct {
	store StorageInterface
}

// NewDigestArchive wraps a blob store.
func NewDigestArchive(store StorageInterface) *DigestArchive {
	return &DigestArchive{store: store}
}

// OpenArchive returns an archive on Azure Blob Storage when account is set,
// on the local directory dir otherwise, or nil when neither is configured.
func OpenArchive(ctx context.Context, account, container, dir string) (*DigestArchive, error) {
	switch {
	case account != "":
		blobStore, err := NewAzureStorage(ctx, account, container)
		if err != nil {
			return nil, err
		}
		return NewDigestArchive(blobStore), nil
	case dir != "":
		fileStore, err := NewFileStorage(dir)
		if err != nil {
			return nil, err
		}
		return NewDigestArchive(fileStore), nil
	default:
		return nil, nil
	}
}

// Name returns the blob name of a digest.
func Name(digest *models.Digest) string {
	return fmt.Sprintf("%s%s-%s.json", digestPrefix,
		digest.GeneratedAt.UTC().Format("2006-01-02T15-04-05Z"), digest.Schedule)
}

// Save stores the digest and returns its blob name.
func (a *DigestArchive) Save(ctx context.Context, digest *models.Digest) (string, error) {
	data, err := json.MarshalIndent(digest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal digest: %w", err)
	}

	name := Name(digest)
	if err := a.store.Store(ctx, name, data); err != nil {
		return "", err
	}
	return name, nil
}

// Latest returns the most recent archived digest.
func (a *DigestArchive) Latest(ctx context.Context) (*models.Digest, error) {
	names, err := a.sortedNames(ctx)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, ErrNotFound
	}

	data, err := a.store.Retrieve(ctx, names[len(names)-1])
	if err != nil {
		return nil, err
	}

	var digest models.Digest
	if err := json.Unmarshal(data, &digest); err != nil {
		return nil, fmt.Errorf("failed to parse digest %s: %w", names[len(names)-1], err)
	}
	return &digest, nil
}

// Prune deletes all but the keep most recent digests and returns how many
// were removed. Individual delete failures are logged and skipped; a digest
// another process already removed is not counted.
func (a *DigestArchive) Prune(ctx context.Context, keep int) (int, error) {
	names, err := a.sortedNames(ctx)
	if err != nil {
		return 0, err
	}
	if keep < 0 {
		keep = 0
	}
	if len(names) <= keep {
		return 0, nil
	}

	removed := 0
	for _, name := range names[:len(names)-keep] {
		if err := a.store.Delete(ctx, name); err != nil {
			if errors.Is(err, ErrNotFound) {
				logrus.Debugf("Digest %s was already pruned", name)
			} else {
				logrus.Errorf("Failed to prune digest %s: %v", name, err)
			}
			continue
		}
		removed++
	}
	return removed, nil
}

func (a *DigestArchive) sortedNames(ctx context.Context) ([]string, error) {
	names, err := a.store.List(ctx, digestPrefix)
	if err != nil {
		return nil, err
	}

	filtered := names[:0]
	for _, n := range names {
		if strings.HasSuffix(n, ".json") {
			filtered = append(filtered, n)
		}
	}
	sort.Strings(filtered)
	return filtered, nil
}
