package study

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/klokku/timestudy/pkg/stoppage"
)

// MemoryRepository keeps studies in process memory. Snapshot and Restore let a caller
// persist the contents elsewhere.
type MemoryRepository struct {
	mu      sync.RWMutex
	studies map[uuid.UUID]Study
	order   []uuid.UUID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{studies: map[uuid.UUID]Study{}}
}

func (r *MemoryRepository) Store(ctx context.Context, study Study) (Study, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	study.Stoppages = cloneStoppages(study.Stoppages)
	if _, exists := r.studies[study.Id]; !exists {
		r.order = append(r.order, study.Id)
	}
	r.studies[study.Id] = study
	return copyStudy(study), nil
}

func (r *MemoryRepository) Get(ctx context.Context, id uuid.UUID) (Study, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	study, ok := r.studies[id]
	if !ok {
		return Study{}, fmt.Errorf("%w: %s", ErrStudyNotFound, id)
	}
	return copyStudy(study), nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]Study, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	studies := make([]Study, 0, len(r.order))
	for _, id := range r.order {
		studies = append(studies, copyStudy(r.studies[id]))
	}
	return studies, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.studies[id]; !ok {
		return fmt.Errorf("%w: %s", ErrStudyNotFound, id)
	}
	delete(r.studies, id)
	r.order = slices.DeleteFunc(r.order, func(other uuid.UUID) bool { return other == id })
	return nil
}

func (r *MemoryRepository) AppendStoppage(ctx context.Context, id uuid.UUID, event stoppage.Event) ([]stoppage.Event, error) {
	return r.AppendStoppages(ctx, id, []stoppage.Event{event})
}

func (r *MemoryRepository) AppendStoppages(ctx context.Context, id uuid.UUID, events []stoppage.Event) ([]stoppage.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	study, ok := r.studies[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStudyNotFound, id)
	}
	study.Stoppages = append(cloneStoppages(study.Stoppages), events...)
	r.studies[id] = study
	return cloneStoppages(study.Stoppages), nil
}

func (r *MemoryRepository) RemoveStoppage(ctx context.Context, id uuid.UUID, index int) ([]stoppage.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	study, ok := r.studies[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStudyNotFound, id)
	}
	if index < 0 || index >= len(study.Stoppages) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrStoppageNotFound, index, len(study.Stoppages))
	}
	study.Stoppages = slices.Delete(cloneStoppages(study.Stoppages), index, index+1)
	r.studies[id] = study
	return cloneStoppages(study.Stoppages), nil
}

// Snapshot returns a copy of all studies, oldest first.
func (r *MemoryRepository) Snapshot() []Study {
	studies, _ := r.List(context.Background())
	return studies
}

// Restore replaces the repository contents.
func (r *MemoryRepository) Restore(studies []Study) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.studies = make(map[uuid.UUID]Study, len(studies))
	r.order = make([]uuid.UUID, 0, len(studies))
	for _, s := range studies {
		if _, exists := r.studies[s.Id]; !exists {
			r.order = append(r.order, s.Id)
		}
		s.Stoppages = cloneStoppages(s.Stoppages)
		r.studies[s.Id] = s
	}
}

func copyStudy(s Study) Study {
	s.Stoppages = cloneStoppages(s.Stoppages)
	return s
}
