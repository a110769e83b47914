package study

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/klokku/timestudy/pkg/session"
	"github.com/klokku/timestudy/pkg/stoppage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStudy() Study {
	return Study{
		Id: uuid.New(),
		Session: session.Session{
			Operator:     "Mehmet Kaya",
			Machine:      "Pres-2",
			Date:         time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
			Shift:        "2. Vardiya",
			StartTime:    session.NewTimeOfDay(16, 0, 0),
			EndTime:      session.NewTimeOfDay(23, 30, 0),
			InitialCount: 1200,
			FinalCount:   1500,
			UnitTime:     1.2,
			BreakTime:    45,
		},
		Stoppages: []stoppage.Event{},
		CreatedAt: time.Date(2025, time.March, 10, 23, 40, 0, 0, time.UTC),
	}
}

func TestMemoryRepository(t *testing.T) {
	t.Run("should list studies in creation order", func(t *testing.T) {
		// given
		repo := NewMemoryRepository()
		first, second := sampleStudy(), sampleStudy()

		// when
		_, err := repo.Store(ctx, first)
		require.NoError(t, err)
		_, err = repo.Store(ctx, second)
		require.NoError(t, err)
		_, err = repo.Store(ctx, first)
		require.NoError(t, err)

		// then
		studies, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, studies, 2)
		assert.Equal(t, first.Id, studies[0].Id)
		assert.Equal(t, second.Id, studies[1].Id)
	})

	t.Run("should not share stoppage slices with callers", func(t *testing.T) {
		// given
		repo := NewMemoryRepository()
		study, _ := repo.Store(ctx, sampleStudy())
		events, err := repo.AppendStoppage(ctx, study.Id, stoppage.Event{Kind: stoppage.Planned, DurationSeconds: 60, Description: "Temizlik"})
		require.NoError(t, err)

		// when
		events[0].Description = "changed"
		got, _ := repo.Get(ctx, study.Id)
		got.Stoppages[0].DurationSeconds = 1

		// then
		stored, _ := repo.Get(ctx, study.Id)
		assert.Equal(t, "Temizlik", stored.Stoppages[0].Description)
		assert.Equal(t, 60.0, stored.Stoppages[0].DurationSeconds)
	})

	t.Run("should reject negative index", func(t *testing.T) {
		repo := NewMemoryRepository()
		study, _ := repo.Store(ctx, sampleStudy())

		_, err := repo.RemoveStoppage(ctx, study.Id, -1)

		assert.ErrorIs(t, err, ErrStoppageNotFound)
	})

	t.Run("should restore snapshot", func(t *testing.T) {
		// given
		repo := NewMemoryRepository()
		study := sampleStudy()
		study.Stoppages = []stoppage.Event{{Kind: stoppage.Unplanned, DurationSeconds: 30, Description: "Arıza"}}
		_, _ = repo.Store(ctx, study)
		snapshot := repo.Snapshot()

		// when
		restored := NewMemoryRepository()
		restored.Restore(snapshot)

		// then
		got, err := restored.Get(ctx, study.Id)
		require.NoError(t, err)
		assert.Equal(t, study, got)
	})

	t.Run("should append a batch after existing stoppages", func(t *testing.T) {
		repo := NewMemoryRepository()
		study, _ := repo.Store(ctx, sampleStudy())
		_, err := repo.AppendStoppage(ctx, study.Id, stoppage.Event{Kind: stoppage.Planned, DurationSeconds: 60, Description: "a"})
		require.NoError(t, err)

		events, err := repo.AppendStoppages(ctx, study.Id, []stoppage.Event{
			{Kind: stoppage.Unplanned, DurationSeconds: 5, Description: "b"},
			{Kind: stoppage.Planned, DurationSeconds: 10, Description: "c"},
		})

		require.NoError(t, err)
		require.Len(t, events, 3)
		assert.Equal(t, "a", events[0].Description)
		assert.Equal(t, "c", events[2].Description)
	})

	t.Run("should serve concurrent appends", func(t *testing.T) {
		repo := NewMemoryRepository()
		study, _ := repo.Store(ctx, sampleStudy())

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.AppendStoppage(ctx, study.Id, stoppage.Event{Kind: stoppage.Planned, DurationSeconds: 1, Description: "x"})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, _ := repo.Get(ctx, study.Id)
		assert.Len(t, got.Stoppages, 50)
	})
}
