package schedule

import "context"

type Repository interface {
	LoadSchedule(ctx context.Context) ([]Entry, error)
	SaveSchedule(ctx context.Context, entries []Entry) error
}
