package study

import (
	"context"
	"flag"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klokku/timestudy/internal/test_utils"
	"github.com/klokku/timestudy/pkg/stoppage"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	pgOnce      sync.Once
	pgContainer *postgres.PostgresContainer
	openDb      func() (*pgxpool.Pool, error)
	pgErr       error
)

func TestMain(m *testing.M) {
	flag.Parse()
	code := m.Run()
	if pgContainer != nil {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			log.Errorf("failed to terminate container: %s", err)
		}
	}
	os.Exit(code)
}

// The container is started on first use, so -short runs of the package never need Docker.
func setupPostgresRepository(t *testing.T) *PostgresRepository {
	if testing.Short() {
		t.Skip("skipping postgres repository test in short mode")
	}
	pgOnce.Do(func() {
		pgContainer, openDb, pgErr = test_utils.StartPostgres(context.Background())
	})
	require.NoError(t, pgErr)

	db, err := openDb()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
		require.NoError(t, pgContainer.Restore(context.Background()))
	})
	return NewPostgresRepository(db)
}

func TestPostgresRepository_StoreAndGet(t *testing.T) {
	t.Run("should store study with stoppages", func(t *testing.T) {
		// given
		repo := setupPostgresRepository(t)
		study := sampleStudy()
		study.Stoppages = []stoppage.Event{
			{Kind: stoppage.Planned, DurationSeconds: 600, Description: "Kalıp değişimi"},
			{Kind: stoppage.Unplanned, DurationSeconds: 12.5, Description: "Arıza"},
		}

		// when
		_, err := repo.Store(ctx, study)
		require.NoError(t, err)
		got, err := repo.Get(ctx, study.Id)

		// then
		require.NoError(t, err)
		assert.Equal(t, study, got)
	})

	t.Run("should report unknown study", func(t *testing.T) {
		repo := setupPostgresRepository(t)

		_, err := repo.Get(ctx, uuid.New())

		assert.ErrorIs(t, err, ErrStudyNotFound)
	})
}

func TestPostgresRepository_Stoppages(t *testing.T) {
	t.Run("should append and remove stoppages keeping order", func(t *testing.T) {
		// given
		repo := setupPostgresRepository(t)
		study, err := repo.Store(ctx, sampleStudy())
		require.NoError(t, err)
		for _, description := range []string{"a", "b", "c"} {
			_, err := repo.AppendStoppage(ctx, study.Id, stoppage.Event{Kind: stoppage.Planned, DurationSeconds: 60, Description: description})
			require.NoError(t, err)
		}

		// when
		events, err := repo.RemoveStoppage(ctx, study.Id, 1)
		require.NoError(t, err)
		events, err = repo.AppendStoppage(ctx, study.Id, stoppage.Event{Kind: stoppage.Unplanned, DurationSeconds: 5, Description: "d"})

		// then
		require.NoError(t, err)
		descriptions := make([]string, 0, len(events))
		for _, e := range events {
			descriptions = append(descriptions, e.Description)
		}
		assert.Equal(t, []string{"a", "c", "d"}, descriptions)
	})

	t.Run("should report index out of range", func(t *testing.T) {
		repo := setupPostgresRepository(t)
		study, _ := repo.Store(ctx, sampleStudy())

		_, err := repo.RemoveStoppage(ctx, study.Id, 0)

		assert.ErrorIs(t, err, ErrStoppageNotFound)
	})

	t.Run("should store nothing when one event of a batch is rejected", func(t *testing.T) {
		// given
		repo := setupPostgresRepository(t)
		study, err := repo.Store(ctx, sampleStudy())
		require.NoError(t, err)

		// when
		_, err = repo.AppendStoppages(ctx, study.Id, []stoppage.Event{
			{Kind: stoppage.Planned, DurationSeconds: 60, Description: "a"},
			{Kind: stoppage.Unplanned, DurationSeconds: -1, Description: "b"},
		})

		// then
		require.Error(t, err)
		got, err := repo.Get(ctx, study.Id)
		require.NoError(t, err)
		assert.Empty(t, got.Stoppages)
	})

	t.Run("should report unknown study on append", func(t *testing.T) {
		repo := setupPostgresRepository(t)

		_, err := repo.AppendStoppage(ctx, uuid.New(), stoppage.Event{Kind: stoppage.Planned, DurationSeconds: 1, Description: "x"})

		assert.ErrorIs(t, err, ErrStudyNotFound)
	})
}

func TestPostgresRepository_ListAndDelete(t *testing.T) {
	repo := setupPostgresRepository(t)
	first, second := sampleStudy(), sampleStudy()
	second.CreatedAt = first.CreatedAt.Add(time.Minute)
	_, _ = repo.Store(ctx, first)
	_, _ = repo.Store(ctx, second)

	require.NoError(t, repo.Delete(ctx, first.Id))
	studies, err := repo.List(ctx)

	require.NoError(t, err)
	require.Len(t, studies, 1)
	assert.Equal(t, second.Id, studies[0].Id)
	assert.ErrorIs(t, repo.Delete(ctx, first.Id), ErrStudyNotFound)
}
