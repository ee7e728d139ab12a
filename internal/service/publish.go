package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"redbird/internal/sanitize"
	"redbird/internal/store"
)

type PublishInput struct {
	Filename    string
	Bytes       []byte
	Description string
	AltText     string
	Tags        []string
}

// Publish writes an asset's metadata row and tag associations in one
// transaction, then uploads the bytes under the same filename. The
// metadata write goes first so the unique constraint on filename decides
// conflicts before anything reaches the bucket; if the upload then fails,
// the row and its associations are deleted again. Requested tags that do
// not exist are dropped and named in the returned message rather than
// failing the publish.
func (s *Service) Publish(ctx context.Context, in PublishInput) (string, error) {
	if strings.TrimSpace(in.Filename) == "" {
		return "", fmt.Errorf("%w: filename", ErrMissingField)
	}
	if len(in.Bytes) == 0 {
		return "", fmt.Errorf("%w: file contents", ErrMissingField)
	}
	if strings.TrimSpace(in.Description) == "" || strings.TrimSpace(in.AltText) == "" {
		return "", fmt.Errorf("%w: description and alt text", ErrMissingField)
	}

	filename, err := sanitize.Filename(in.Filename)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := sanitize.CheckImage(filename, in.Bytes); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	description := sanitize.HTML(in.Description)
	altText := sanitize.HTML(in.AltText)

	confirmed, dropped, err := s.splitKnownTags(ctx, in.Tags)
	if err != nil {
		return "", err
	}

	bucketURL := fmt.Sprintf("%s/%s", strings.TrimSuffix(s.publicURL, "/"), filename)

	insertBatch := make([]*store.Query, 0, 1+len(confirmed))
	insertBatch = append(insertBatch, store.InsertAssetQuery(filename, bucketURL, description, altText))
	for _, tag := range confirmed {
		insertBatch = append(insertBatch, store.InsertAssociationQuery(filename, tag))
	}

	steps := []sagaStep{
		{
			name: "write metadata",
			run: func(ctx context.Context) error {
				err := s.db.ExecBatch(ctx, insertBatch)
				if errors.Is(err, store.ErrConflict) {
					return fmt.Errorf("%w: asset %q already exists; remove it or use a different filename", ErrConflict, filename)
				}
				return err
			},
			compensate: func(ctx context.Context) error {
				return s.db.ExecBatch(ctx, []*store.Query{
					store.DeleteAssociationsByFilenameQuery(filename),
					store.DeleteAssetQuery(filename),
				})
			},
		},
		{
			name: "upload blob",
			run: func(ctx context.Context) error {
				_, err := s.blobs.Upload(ctx, filename, in.Bytes)
				return err
			},
		},
	}

	if err := runSaga(ctx, steps); err != nil {
		var compErr *CompensationError
		if errors.As(err, &compErr) {
			s.logger.Printf(
				"publish %s: upload failed (%v) and metadata cleanup failed (%v); orphan row may remain",
				filename, compErr.Cause, compErr.CompensationErr,
			)
		}
		return "", err
	}

	msg := fmt.Sprintf("Successfully uploaded: %s", bucketURL)
	if len(dropped) > 0 {
		msg += fmt.Sprintf(" (unknown tags dropped: %s)", strings.Join(dropped, ", "))
	}
	return msg, nil
}

// Retract deletes the asset row and its associations in one transaction,
// then deletes the blob. A blob-delete failure after the row is gone is
// surfaced but not reverted: re-inserting the row could resurrect a
// record a concurrent reader already observed as deleted, while a stray
// blob is harmless and gets collected by the reconcile janitor.
func (s *Service) Retract(ctx context.Context, filename string) (string, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return "", fmt.Errorf("%w: filename", ErrMissingField)
	}

	err := s.db.ExecBatch(ctx, []*store.Query{
		store.DeleteAssociationsByFilenameQuery(filename),
		store.DeleteAssetQuery(filename),
	})
	if err != nil {
		return "", err
	}

	if err := s.blobs.Delete(ctx, filename); err != nil {
		s.logger.Printf("retract %s: metadata removed but blob delete failed, blob is orphaned until reconciled: %v", filename, err)
		return "", err
	}

	return fmt.Sprintf("%s removed successfully.", filename), nil
}

// splitKnownTags partitions requested tag names into those present in the
// tag table and those unknown.
func (s *Service) splitKnownTags(ctx context.Context, requested []string) (confirmed, dropped []string, err error) {
	if len(requested) == 0 {
		return nil, nil, nil
	}

	known, err := s.ListTagNames(ctx)
	if err != nil {
		return nil, nil, err
	}
	knownSet := make(map[string]struct{}, len(known))
	for _, tag := range known {
		knownSet[tag] = struct{}{}
	}

	seen := make(map[string]struct{}, len(requested))
	for _, raw := range requested {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		if _, ok := knownSet[tag]; ok {
			confirmed = append(confirmed, tag)
		} else {
			dropped = append(dropped, tag)
		}
	}
	return confirmed, dropped, nil
}
