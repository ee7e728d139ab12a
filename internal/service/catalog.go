package service

import (
	"context"

	"redbird/internal/store"
)

// Read paths bypass the coordinator's saga entirely: each runs one
// statement from the query library through the batch executor.
// Concurrent identical reads are collapsed with singleflight.

func (s *Service) ListAssets(ctx context.Context) ([]store.Asset, error) {
	v, err, _ := s.listGroup.Do("assets", func() (any, error) {
		q := store.AllAssetsQuery()
		if err := s.db.ExecBatch(ctx, []*store.Query{q}); err != nil {
			return nil, err
		}
		return store.AssetsFromRows(q.Rows), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]store.Asset), nil
}

func (s *Service) ListAssetsByTag(ctx context.Context, tagName string) ([]store.Asset, error) {
	v, err, _ := s.listGroup.Do("assets-by-tag:"+tagName, func() (any, error) {
		q := store.AssetsByTagQuery(tagName)
		if err := s.db.ExecBatch(ctx, []*store.Query{q}); err != nil {
			return nil, err
		}
		return store.AssetsFromRows(q.Rows), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]store.Asset), nil
}

func (s *Service) ListTagNames(ctx context.Context) ([]string, error) {
	v, err, _ := s.listGroup.Do("tag-names", func() (any, error) {
		q := store.AllTagNamesQuery()
		if err := s.db.ExecBatch(ctx, []*store.Query{q}); err != nil {
			return nil, err
		}
		return store.StringColumn(q.Rows, "tag_name"), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func (s *Service) ListFilenames(ctx context.Context) ([]string, error) {
	v, err, _ := s.listGroup.Do("filenames", func() (any, error) {
		q := store.AllFilenamesQuery()
		if err := s.db.ExecBatch(ctx, []*store.Query{q}); err != nil {
			return nil, err
		}
		return store.StringColumn(q.Rows, "filename"), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func (s *Service) ListAssociations(ctx context.Context) ([]store.Association, error) {
	v, err, _ := s.listGroup.Do("associations", func() (any, error) {
		q := store.AllAssociationsQuery()
		if err := s.db.ExecBatch(ctx, []*store.Query{q}); err != nil {
			return nil, err
		}
		return store.AssociationsFromRows(q.Rows), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]store.Association), nil
}
