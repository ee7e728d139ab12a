// Package service coordinates the relational store and the blob bucket
// for one asset at a time. The two systems cannot share a transaction;
// Publish and Retract sequence their writes so that the database's
// unique constraint always arbitrates conflicts before any blob is
// written, and compensate when a later step fails.
package service

import (
	"context"
	"errors"
	"io"
	"log"

	"redbird/internal/bucket"
	"redbird/internal/store"

	"golang.org/x/sync/singleflight"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrMissingField = errors.New("missing required field")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
)

// Batcher executes an ordered statement batch as one transaction.
// *store.Store satisfies it; tests inject fakes.
type Batcher interface {
	ExecBatch(ctx context.Context, queries []*store.Query) error
}

type Service struct {
	db        Batcher
	blobs     bucket.Store
	publicURL string
	logger    *log.Logger

	// listGroup collapses concurrent identical read queries.
	listGroup singleflight.Group
}

// New wires the coordinator. publicURL is the base under which uploaded
// objects become reachable; an asset's bucket URL is derived from it at
// publish time and stored, never recomputed on read.
func New(db Batcher, blobs bucket.Store, publicURL string, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		db:        db,
		blobs:     blobs,
		publicURL: publicURL,
		logger:    logger,
	}
}
