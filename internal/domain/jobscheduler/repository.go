package jobscheduler

import "context"

type Repository interface {
	UpsertEvent(ctx context.Context, event DispatchEvent) error
	ListByFixture(ctx context.Context, fixtureExternalID int64, limit int) ([]DispatchEvent, error)
}
