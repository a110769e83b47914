package study

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klokku/timestudy/pkg/session"
	"github.com/klokku/timestudy/pkg/stoppage"
	log "github.com/sirupsen/logrus"
)

type queryer interface {
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
}

// PostgresRepository stores studies in the study and study_stoppage tables. Stoppage order is
// kept by an increasing position column, gaps left by removals are harmless.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) withTransaction(ctx context.Context, fn func(q queryer) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		// no-op once committed
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Store(ctx context.Context, study Study) (Study, error) {
	err := r.withTransaction(ctx, func(q queryer) error {
		s := study.Session
		query := `INSERT INTO study (
                    id, operator, machine, study_date, shift, start_sec, end_sec,
                    initial_count, final_count, unit_time_min, break_time_min, created_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
				ON CONFLICT (id) DO UPDATE SET
				    operator = EXCLUDED.operator,
				    machine = EXCLUDED.machine,
				    study_date = EXCLUDED.study_date,
				    shift = EXCLUDED.shift,
				    start_sec = EXCLUDED.start_sec,
				    end_sec = EXCLUDED.end_sec,
				    initial_count = EXCLUDED.initial_count,
				    final_count = EXCLUDED.final_count,
				    unit_time_min = EXCLUDED.unit_time_min,
				    break_time_min = EXCLUDED.break_time_min`
		_, err := q.Exec(ctx, query,
			study.Id,
			s.Operator,
			s.Machine,
			s.Date,
			s.Shift,
			int(s.StartTime),
			int(s.EndTime),
			s.InitialCount,
			s.FinalCount,
			s.UnitTime,
			s.BreakTime,
			study.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("could not store study: %w", err)
		}

		if _, err := q.Exec(ctx, `DELETE FROM study_stoppage WHERE study_id = $1`, study.Id); err != nil {
			return fmt.Errorf("could not clear stoppages: %w", err)
		}
		for i, e := range study.Stoppages {
			if err := insertStoppage(ctx, q, study.Id, i+1, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error(err)
		return Study{}, err
	}
	return copyStudy(study), nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (Study, error) {
	query := `SELECT id, operator, machine, study_date, shift, start_sec, end_sec,
                     initial_count, final_count, unit_time_min, break_time_min, created_at
			  FROM study WHERE id = $1`
	study, err := scanStudy(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Study{}, fmt.Errorf("%w: %s", ErrStudyNotFound, id)
		}
		err := fmt.Errorf("could not get study: %w", err)
		log.Error(err)
		return Study{}, err
	}

	study.Stoppages, err = listStoppages(ctx, r.db, id)
	if err != nil {
		log.Error(err)
		return Study{}, err
	}
	return study, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]Study, error) {
	query := `SELECT id, operator, machine, study_date, shift, start_sec, end_sec,
                     initial_count, final_count, unit_time_min, break_time_min, created_at
			  FROM study ORDER BY created_at, id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not query studies: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	studies := make([]Study, 0)
	for rows.Next() {
		study, err := scanStudy(rows)
		if err != nil {
			err := fmt.Errorf("could not scan study: %w", err)
			log.Error(err)
			return nil, err
		}
		studies = append(studies, study)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}

	for i := range studies {
		studies[i].Stoppages, err = listStoppages(ctx, r.db, studies[i].Id)
		if err != nil {
			log.Error(err)
			return nil, err
		}
	}
	return studies, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM study WHERE id = $1`, id)
	if err != nil {
		err := fmt.Errorf("could not delete study: %w", err)
		log.Error(err)
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrStudyNotFound, id)
	}
	return nil
}

func (r *PostgresRepository) AppendStoppage(ctx context.Context, id uuid.UUID, event stoppage.Event) ([]stoppage.Event, error) {
	return r.AppendStoppages(ctx, id, []stoppage.Event{event})
}

// AppendStoppages inserts the events in one transaction, after the highest existing position.
func (r *PostgresRepository) AppendStoppages(ctx context.Context, id uuid.UUID, events []stoppage.Event) ([]stoppage.Event, error) {
	var stored []stoppage.Event
	err := r.withTransaction(ctx, func(q queryer) error {
		if err := lockStudy(ctx, q, id); err != nil {
			return err
		}
		var maxPosition int
		err := q.QueryRow(ctx,
			`SELECT COALESCE(MAX(position), 0) FROM study_stoppage WHERE study_id = $1`, id,
		).Scan(&maxPosition)
		if err != nil {
			return fmt.Errorf("could not find max position: %w", err)
		}
		for i, event := range events {
			if err := insertStoppage(ctx, q, id, maxPosition+1+i, event); err != nil {
				return err
			}
		}
		stored, err = listStoppages(ctx, q, id)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrStudyNotFound) {
			log.Error(err)
		}
		return nil, err
	}
	return stored, nil
}

func (r *PostgresRepository) RemoveStoppage(ctx context.Context, id uuid.UUID, index int) ([]stoppage.Event, error) {
	var events []stoppage.Event
	err := r.withTransaction(ctx, func(q queryer) error {
		if err := lockStudy(ctx, q, id); err != nil {
			return err
		}
		if index < 0 {
			return fmt.Errorf("%w: index %d", ErrStoppageNotFound, index)
		}
		var stoppageId int64
		err := q.QueryRow(ctx,
			`SELECT id FROM study_stoppage WHERE study_id = $1 ORDER BY position OFFSET $2 LIMIT 1`,
			id, index,
		).Scan(&stoppageId)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: index %d", ErrStoppageNotFound, index)
		}
		if err != nil {
			return fmt.Errorf("could not find stoppage: %w", err)
		}
		if _, err := q.Exec(ctx, `DELETE FROM study_stoppage WHERE id = $1`, stoppageId); err != nil {
			return fmt.Errorf("could not delete stoppage: %w", err)
		}
		events, err = listStoppages(ctx, q, id)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrStudyNotFound) && !errors.Is(err, ErrStoppageNotFound) {
			log.Error(err)
		}
		return nil, err
	}
	return events, nil
}

func lockStudy(ctx context.Context, q queryer, id uuid.UUID) error {
	var found uuid.UUID
	err := q.QueryRow(ctx, `SELECT id FROM study WHERE id = $1 FOR UPDATE`, id).Scan(&found)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrStudyNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("could not lock study: %w", err)
	}
	return nil
}

func insertStoppage(ctx context.Context, q queryer, studyId uuid.UUID, position int, e stoppage.Event) error {
	_, err := q.Exec(ctx,
		`INSERT INTO study_stoppage (study_id, position, kind, duration_sec, description) VALUES ($1, $2, $3, $4, $5)`,
		studyId, position, e.Kind.Code(), e.DurationSeconds, e.Description,
	)
	if err != nil {
		return fmt.Errorf("could not insert stoppage: %w", err)
	}
	return nil
}

func listStoppages(ctx context.Context, q queryer, studyId uuid.UUID) ([]stoppage.Event, error) {
	rows, err := q.Query(ctx,
		`SELECT kind, duration_sec, description FROM study_stoppage WHERE study_id = $1 ORDER BY position`,
		studyId,
	)
	if err != nil {
		return nil, fmt.Errorf("could not query stoppages: %w", err)
	}
	defer rows.Close()

	events := make([]stoppage.Event, 0)
	for rows.Next() {
		var kindCode, description string
		var durationSec float64
		if err := rows.Scan(&kindCode, &durationSec, &description); err != nil {
			return nil, fmt.Errorf("could not scan stoppage: %w", err)
		}
		kind, err := stoppage.ParseKind(kindCode)
		if err != nil {
			return nil, err
		}
		events = append(events, stoppage.Event{Kind: kind, DurationSeconds: durationSec, Description: description})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}
	return events, nil
}

func scanStudy(row pgx.Row) (Study, error) {
	var study Study
	var startSec, endSec int
	var date, createdAt time.Time
	if err := row.Scan(
		&study.Id,
		&study.Session.Operator,
		&study.Session.Machine,
		&date,
		&study.Session.Shift,
		&startSec,
		&endSec,
		&study.Session.InitialCount,
		&study.Session.FinalCount,
		&study.Session.UnitTime,
		&study.Session.BreakTime,
		&createdAt,
	); err != nil {
		return Study{}, err
	}
	study.Session.Date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	study.Session.StartTime = session.TimeOfDay(startSec)
	study.Session.EndTime = session.TimeOfDay(endSec)
	study.CreatedAt = createdAt.UTC()
	study.Stoppages = []stoppage.Event{}
	return study, nil
}
