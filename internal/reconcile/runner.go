package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/google/uuid"

	"redbird/internal/bucket"
)

// The bucket is not transactional, so a failed publish or retract can leave
// a blob behind with no metadata row. The runner compares bucket keys
// against the filenames the database knows about and reports, and
// optionally deletes, the strays. Metadata rows without a blob are left
// alone; only the artist can decide whether to re-upload or retract them.

// FilenameSource lists every filename the metadata store tracks.
type FilenameSource interface {
	ListFilenames(ctx context.Context) ([]string, error)
}

type Summary struct {
	RunID      string
	BucketKeys int
	Known      int
	Orphans    []string
	Deleted    int
	Failed     int
	Missing    []string
}

type Runner struct {
	lister        bucket.Lister
	store         bucket.Store
	files         FilenameSource
	deleteOrphans bool
	logger        *log.Logger
}

// NewRunner builds a runner. store may be nil when deleteOrphans is false.
func NewRunner(lister bucket.Lister, store bucket.Store, files FilenameSource, deleteOrphans bool, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Runner{
		lister:        lister,
		store:         store,
		files:         files,
		deleteOrphans: deleteOrphans,
		logger:        logger,
	}
}

func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if r.lister == nil {
		return Summary{}, fmt.Errorf("bucket lister is nil")
	}
	if r.files == nil {
		return Summary{}, fmt.Errorf("filename source is nil")
	}
	if r.deleteOrphans && r.store == nil {
		return Summary{}, fmt.Errorf("orphan deletion requires a bucket store")
	}

	summary := Summary{RunID: uuid.NewString()}
	r.logger.Printf("[reconcile] %s: starting run", summary.RunID)

	keys, err := r.lister.ListKeys(ctx)
	if err != nil {
		r.logger.Printf("[reconcile] %s: failed to list bucket keys: %v", summary.RunID, err)
		return summary, err
	}
	known, err := r.files.ListFilenames(ctx)
	if err != nil {
		r.logger.Printf("[reconcile] %s: failed to list filenames: %v", summary.RunID, err)
		return summary, err
	}

	summary.BucketKeys = len(keys)
	summary.Known = len(known)

	knownSet := make(map[string]struct{}, len(known))
	for _, name := range known {
		knownSet[name] = struct{}{}
	}
	keySet := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		keySet[key] = struct{}{}
		if _, ok := knownSet[key]; !ok {
			summary.Orphans = append(summary.Orphans, key)
		}
	}
	for _, name := range known {
		if _, ok := keySet[name]; !ok {
			summary.Missing = append(summary.Missing, name)
		}
	}

	for _, name := range summary.Missing {
		r.logger.Printf("[reconcile] %s: %s has metadata but no blob", summary.RunID, name)
	}

	var joined error
	for _, key := range summary.Orphans {
		if err := ctx.Err(); err != nil {
			r.logger.Printf("[reconcile] %s: context cancelled, aborting", summary.RunID)
			return summary, err
		}
		if !r.deleteOrphans {
			r.logger.Printf("[reconcile] %s: orphan blob %s (deletion disabled)", summary.RunID, key)
			continue
		}
		if err := r.store.Delete(ctx, key); err != nil {
			summary.Failed++
			joined = errors.Join(joined, fmt.Errorf("%s: %w", key, err))
			r.logger.Printf("[reconcile] %s: failed to delete orphan %s: %v", summary.RunID, key, err)
			continue
		}
		summary.Deleted++
		r.logger.Printf("[reconcile] %s: deleted orphan blob %s", summary.RunID, key)
	}

	r.logger.Printf("[reconcile] %s: run complete: keys=%d known=%d orphans=%d deleted=%d failed=%d missing=%d",
		summary.RunID, summary.BucketKeys, summary.Known, len(summary.Orphans), summary.Deleted, summary.Failed, len(summary.Missing))

	return summary, joined
}
