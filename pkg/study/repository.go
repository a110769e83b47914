package study

import (
	"context"

	"github.com/google/uuid"
	"github.com/klokku/timestudy/pkg/stoppage"
)

type Repository interface {
	Store(ctx context.Context, study Study) (Study, error)
	Get(ctx context.Context, id uuid.UUID) (Study, error)
	// List returns all studies, oldest first.
	List(ctx context.Context) ([]Study, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// AppendStoppage adds the event at the end of the study's list and returns the new list.
	AppendStoppage(ctx context.Context, id uuid.UUID, event stoppage.Event) ([]stoppage.Event, error)
	// AppendStoppages adds all events in order, or none of them, and returns the new list.
	AppendStoppages(ctx context.Context, id uuid.UUID, events []stoppage.Event) ([]stoppage.Event, error)
	// RemoveStoppage removes the event at the zero based index and returns the new list.
	RemoveStoppage(ctx context.Context, id uuid.UUID, index int) ([]stoppage.Event, error)
}
