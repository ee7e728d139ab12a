package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"redbird/internal/sanitize"
	"redbird/internal/store"
)

// Tag lifecycle is independent of assets: tags are created and removed
// on their own, and removing a tag takes its associations with it.
// All mutating operations report success with a message, never a bool.

func (s *Service) AddTag(ctx context.Context, tagName string) (string, error) {
	tag, err := sanitize.TagName(tagName)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	err = s.db.ExecBatch(ctx, []*store.Query{store.InsertTagQuery(tag)})
	if errors.Is(err, store.ErrConflict) {
		return "", fmt.Errorf("%w: tag %q already exists", ErrConflict, tag)
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Tag %q added.", tag), nil
}

// RemoveTag deletes the tag's associations and then the tag itself in one
// transaction, so no association can survive its tag.
func (s *Service) RemoveTag(ctx context.Context, tagName string) (string, error) {
	tag := strings.ToLower(strings.TrimSpace(tagName))
	if tag == "" {
		return "", fmt.Errorf("%w: tag name", ErrMissingField)
	}

	err := s.db.ExecBatch(ctx, []*store.Query{
		store.DeleteAssociationsByTagQuery(tag),
		store.DeleteTagQuery(tag),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Tag %q removed.", tag), nil
}

// AddAssociation links an existing asset to an existing tag. Linking to
// an unknown tag inserts nothing and is reported as such.
func (s *Service) AddAssociation(ctx context.Context, filename, tagName string) (string, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return "", fmt.Errorf("%w: filename", ErrMissingField)
	}
	tag, err := sanitize.TagName(tagName)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	err = s.db.ExecBatch(ctx, []*store.Query{store.InsertAssociationQuery(filename, tag)})
	if errors.Is(err, store.ErrConflict) {
		return "", fmt.Errorf("%w: %s is already tagged %q", ErrConflict, filename, tag)
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Tagged %s with %q.", filename, tag), nil
}

func (s *Service) RemoveAssociation(ctx context.Context, filename, tagName string) (string, error) {
	filename = strings.TrimSpace(filename)
	tag := strings.ToLower(strings.TrimSpace(tagName))
	if filename == "" || tag == "" {
		return "", fmt.Errorf("%w: filename and tag name", ErrMissingField)
	}

	err := s.db.ExecBatch(ctx, []*store.Query{store.DeleteAssociationQuery(filename, tag)})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Removed tag %q from %s.", tag, filename), nil
}
