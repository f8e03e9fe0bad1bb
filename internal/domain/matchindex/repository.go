package matchindex

import "context"

type Repository interface {
	// LoadIndex returns the stored index and the shape it was read from, so
	// callers can rewrite a migrated file once.
	LoadIndex(ctx context.Context) (*Index, Shape, error)
	SaveIndex(ctx context.Context, idx *Index) error
}
