package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"redbird/internal/bucket"
	"redbird/internal/store"
)

var pngBytes = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

// fakeDB records every batch and scripts per-call errors. Tag-name list
// queries are answered from tags; fill, when set, populates rows for any
// other select.
type fakeDB struct {
	tags    []string
	errs    []error
	fill    func(q *store.Query)
	batches [][]*store.Query
}

func (f *fakeDB) ExecBatch(_ context.Context, queries []*store.Query) error {
	call := len(f.batches)
	f.batches = append(f.batches, queries)
	if call < len(f.errs) && f.errs[call] != nil {
		return f.errs[call]
	}
	for _, q := range queries {
		if len(q.Params) == 0 && strings.Contains(q.Text, "SELECT tags.tag_name") {
			for _, tag := range f.tags {
				q.Rows = append(q.Rows, map[string]any{"tag_name": tag})
			}
			continue
		}
		if f.fill != nil {
			f.fill(q)
		}
	}
	return nil
}

type fakeBucket struct {
	uploads   []string
	deletes   []string
	uploadErr error
	deleteErr error
}

func (f *fakeBucket) Upload(_ context.Context, key string, _ []byte) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads = append(f.uploads, key)
	return "https://bucket.example.com/" + key, nil
}

func (f *fakeBucket) Delete(_ context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletes = append(f.deletes, key)
	return nil
}

func newTestService(db *fakeDB, blobs *fakeBucket) *Service {
	return New(db, blobs, "https://bucket.example.com", nil)
}

func TestPublish_Success(t *testing.T) {
	t.Parallel()

	db := &fakeDB{tags: []string{"animals", "landscape"}}
	blobs := &fakeBucket{}
	svc := newTestService(db, blobs)

	msg, err := svc.Publish(context.Background(), PublishInput{
		Filename:    "cat.png",
		Bytes:       pngBytes,
		Description: "a cat",
		AltText:     "a sleeping cat",
		Tags:        []string{"animals", "ghost-tag"},
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if !strings.Contains(msg, "https://bucket.example.com/cat.png") {
		t.Fatalf("msg = %q, want the bucket URL", msg)
	}
	if !strings.Contains(msg, "ghost-tag") {
		t.Fatalf("msg = %q, want the dropped tag named", msg)
	}

	// Batch 0 reads tag names, batch 1 writes the asset row plus one
	// association for the confirmed tag only.
	if len(db.batches) != 2 {
		t.Fatalf("batches = %d, want 2", len(db.batches))
	}
	insert := db.batches[1]
	if len(insert) != 2 {
		t.Fatalf("insert batch has %d statements, want asset + 1 association", len(insert))
	}
	if !strings.Contains(insert[0].Text, "INSERT INTO portfolio_images") {
		t.Fatalf("first statement = %q", insert[0].Text)
	}
	if !strings.Contains(insert[1].Text, "INSERT INTO portfolio_image_tags_assoc") {
		t.Fatalf("second statement = %q", insert[1].Text)
	}
	if insert[1].Params[1] != "animals" {
		t.Fatalf("association tag = %v, want animals", insert[1].Params[1])
	}

	if len(blobs.uploads) != 1 || blobs.uploads[0] != "cat.png" {
		t.Fatalf("uploads = %v, want [cat.png]", blobs.uploads)
	}
}

func TestPublish_NoTagsSkipsTagLookup(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	blobs := &fakeBucket{}
	svc := newTestService(db, blobs)

	if _, err := svc.Publish(context.Background(), PublishInput{
		Filename:    "cat.png",
		Bytes:       pngBytes,
		Description: "a cat",
		AltText:     "a cat",
	}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(db.batches) != 1 {
		t.Fatalf("batches = %d, want just the insert", len(db.batches))
	}
}

func TestPublish_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      PublishInput
		wantErr error
	}{
		{
			name:    "missing filename",
			in:      PublishInput{Bytes: pngBytes, Description: "d", AltText: "a"},
			wantErr: ErrMissingField,
		},
		{
			name:    "missing bytes",
			in:      PublishInput{Filename: "cat.png", Description: "d", AltText: "a"},
			wantErr: ErrMissingField,
		},
		{
			name:    "missing description",
			in:      PublishInput{Filename: "cat.png", Bytes: pngBytes, AltText: "a"},
			wantErr: ErrMissingField,
		},
		{
			name:    "missing alt text",
			in:      PublishInput{Filename: "cat.png", Bytes: pngBytes, Description: "d"},
			wantErr: ErrMissingField,
		},
		{
			name:    "bad filename",
			in:      PublishInput{Filename: "my cat.png", Bytes: pngBytes, Description: "d", AltText: "a"},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "extension mismatch",
			in:      PublishInput{Filename: "cat.gif", Bytes: pngBytes, Description: "d", AltText: "a"},
			wantErr: ErrInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			db := &fakeDB{}
			blobs := &fakeBucket{}
			svc := newTestService(db, blobs)

			_, err := svc.Publish(context.Background(), tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if len(blobs.uploads) != 0 {
				t.Fatal("nothing may reach the bucket on validation failure")
			}
			if len(db.batches) != 0 {
				t.Fatal("nothing may reach the database on validation failure")
			}
		})
	}
}

func TestPublish_DuplicateFilename(t *testing.T) {
	t.Parallel()

	db := &fakeDB{errs: []error{&store.ConflictError{Constraint: "portfolio_images_pkey"}}}
	blobs := &fakeBucket{}
	svc := newTestService(db, blobs)

	_, err := svc.Publish(context.Background(), PublishInput{
		Filename:    "cat.png",
		Bytes:       pngBytes,
		Description: "a cat",
		AltText:     "a cat",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if len(blobs.uploads) != 0 {
		t.Fatal("the bucket must never be called for a duplicate filename")
	}
	if len(db.batches) != 1 {
		t.Fatalf("batches = %d, want no compensation after a conflict", len(db.batches))
	}
}

func TestPublish_UploadFailureCompensates(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	blobs := &fakeBucket{uploadErr: bucket.ErrUpload}
	svc := newTestService(db, blobs)

	_, err := svc.Publish(context.Background(), PublishInput{
		Filename:    "cat.png",
		Bytes:       pngBytes,
		Description: "a cat",
		AltText:     "a cat",
	})
	if !errors.Is(err, bucket.ErrUpload) {
		t.Fatalf("err = %v, want the upload failure", err)
	}

	if len(db.batches) != 2 {
		t.Fatalf("batches = %d, want insert then compensating delete", len(db.batches))
	}
	comp := db.batches[1]
	if len(comp) != 2 {
		t.Fatalf("compensation batch has %d statements, want 2", len(comp))
	}
	if !strings.Contains(comp[0].Text, "DELETE FROM portfolio_image_tags_assoc") {
		t.Fatalf("first compensation statement = %q", comp[0].Text)
	}
	if !strings.Contains(comp[1].Text, "DELETE FROM portfolio_images") {
		t.Fatalf("second compensation statement = %q", comp[1].Text)
	}
	if comp[1].Params[0] != "cat.png" {
		t.Fatalf("compensation filename = %v", comp[1].Params[0])
	}
}

func TestPublish_CompensationFailure(t *testing.T) {
	t.Parallel()

	cleanupErr := errors.New("db went away")
	db := &fakeDB{errs: []error{nil, cleanupErr}}
	blobs := &fakeBucket{uploadErr: bucket.ErrUpload}
	svc := newTestService(db, blobs)

	_, err := svc.Publish(context.Background(), PublishInput{
		Filename:    "cat.png",
		Bytes:       pngBytes,
		Description: "a cat",
		AltText:     "a cat",
	})
	var compErr *CompensationError
	if !errors.As(err, &compErr) {
		t.Fatalf("err = %v, want *CompensationError", err)
	}
	if !errors.Is(err, bucket.ErrUpload) || !errors.Is(err, cleanupErr) {
		t.Fatalf("err = %v, want both the upload failure and the cleanup failure", err)
	}
}

func TestRetract_Success(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	blobs := &fakeBucket{}
	svc := newTestService(db, blobs)

	msg, err := svc.Retract(context.Background(), "cat.png")
	if err != nil {
		t.Fatalf("Retract() error = %v", err)
	}
	if msg != "cat.png removed successfully." {
		t.Fatalf("msg = %q", msg)
	}
	if len(db.batches) != 1 || len(db.batches[0]) != 2 {
		t.Fatalf("batches = %v, want one batch of 2 deletes", db.batches)
	}
	if len(blobs.deletes) != 1 || blobs.deletes[0] != "cat.png" {
		t.Fatalf("deletes = %v, want [cat.png]", blobs.deletes)
	}
}

func TestRetract_MissingFilename(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeDB{}, &fakeBucket{})
	if _, err := svc.Retract(context.Background(), "  "); !errors.Is(err, ErrMissingField) {
		t.Fatalf("err = %v, want ErrMissingField", err)
	}
}

func TestRetract_DBFailureLeavesBlobAlone(t *testing.T) {
	t.Parallel()

	db := &fakeDB{errs: []error{errors.New("db down")}}
	blobs := &fakeBucket{}
	svc := newTestService(db, blobs)

	if _, err := svc.Retract(context.Background(), "cat.png"); err == nil {
		t.Fatal("Retract() error = nil, want non-nil")
	}
	if len(blobs.deletes) != 0 {
		t.Fatal("blob must not be deleted when the metadata delete fails")
	}
}

func TestRetract_BlobDeleteFailureIsSurfaced(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	blobs := &fakeBucket{deleteErr: bucket.ErrDelete}
	svc := newTestService(db, blobs)

	_, err := svc.Retract(context.Background(), "cat.png")
	if !errors.Is(err, bucket.ErrDelete) {
		t.Fatalf("err = %v, want ErrDelete", err)
	}
	// The metadata delete already happened; it is not reverted.
	if len(db.batches) != 1 {
		t.Fatalf("batches = %d, want exactly the delete batch", len(db.batches))
	}
}
