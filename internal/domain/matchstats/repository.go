package matchstats

import "context"

type Repository interface {
	LoadStats(ctx context.Context) (File, error)
	SaveStats(ctx context.Context, file File) error
}
