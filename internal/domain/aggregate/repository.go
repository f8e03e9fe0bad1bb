package aggregate

import "context"

type Repository interface {
	LoadAggregates(ctx context.Context) (File, error)
	SaveAggregates(ctx context.Context, file File) error
}
