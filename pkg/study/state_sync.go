package study

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klokku/timestudy/internal/event_bus"
	"github.com/klokku/timestudy/pkg/session"
	"github.com/klokku/timestudy/pkg/state"
	"github.com/klokku/timestudy/pkg/stoppage"
	log "github.com/sirupsen/logrus"
)

const studiesStateKey = "studies"

type sessionRecord struct {
	Operator     string            `json:"operator"`
	Machine      string            `json:"machine"`
	Date         string            `json:"date"`
	Shift        string            `json:"shift"`
	StartTime    session.TimeOfDay `json:"startTime"`
	EndTime      session.TimeOfDay `json:"endTime"`
	InitialCount int               `json:"initialCount"`
	FinalCount   int               `json:"finalCount"`
	UnitTime     float64           `json:"unitTime"`
	BreakTime    float64           `json:"breakTime"`
}

type studyRecord struct {
	Id        uuid.UUID        `json:"id"`
	Session   sessionRecord    `json:"session"`
	Stoppages []stoppage.Event `json:"stoppages"`
	CreatedAt time.Time        `json:"createdAt"`
}

// StateSync mirrors a MemoryRepository into the JSON state file, so studies survive a restart
// without a database. Other keys in the file are left untouched.
type StateSync struct {
	// mu keeps snapshot and write together, so an older snapshot never lands last.
	mu    sync.Mutex
	repo  *MemoryRepository
	store *state.Store
}

func NewStateSync(repo *MemoryRepository, store *state.Store) *StateSync {
	return &StateSync{repo: repo, store: store}
}

// Load restores the repository from the state file. Entries that do not decode are skipped.
func (s *StateSync) Load() int {
	var entries []json.RawMessage
	if !s.store.Load().Get(studiesStateKey, &entries) {
		log.Debugf("No studies found in %s", s.store.Path())
		return 0
	}

	studies := make([]Study, 0, len(entries))
	for i, entry := range entries {
		var r studyRecord
		if err := json.Unmarshal(entry, &r); err != nil {
			log.Warnf("Skipping stored study #%d: %v", i, err)
			continue
		}
		study, err := r.toStudy()
		if err != nil {
			log.Warnf("Skipping stored study %s: %v", r.Id, err)
			continue
		}
		studies = append(studies, study)
	}
	s.repo.Restore(studies)
	log.Infof("Restored %d studies from %s", len(studies), s.store.Path())
	return len(studies)
}

func (s *StateSync) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	studies := s.repo.Snapshot()
	records := make([]studyRecord, 0, len(studies))
	for _, study := range studies {
		records = append(records, toRecord(study))
	}

	data := s.store.Load()
	if err := data.Set(studiesStateKey, records); err != nil {
		return err
	}
	if err := s.store.Save(data); err != nil {
		return fmt.Errorf("failed to save studies: %w", err)
	}
	log.Debugf("Saved %d studies to %s", len(records), s.store.Path())
	return nil
}

// Subscribe saves the state file after every study change published on the bus.
func (s *StateSync) Subscribe(bus *event_bus.EventBus) (unsubscribe func()) {
	return event_bus.SubscribeTyped[event_bus.StudyUpdated](
		bus,
		event_bus.StudyUpdatedType,
		func(e event_bus.EventT[event_bus.StudyUpdated]) error {
			log.Tracef("received study updated event: %v", e.Data)
			return s.Save()
		},
	)
}

func toRecord(s Study) studyRecord {
	return studyRecord{
		Id: s.Id,
		Session: sessionRecord{
			Operator:     s.Session.Operator,
			Machine:      s.Session.Machine,
			Date:         s.Session.FormattedDate(),
			Shift:        s.Session.Shift,
			StartTime:    s.Session.StartTime,
			EndTime:      s.Session.EndTime,
			InitialCount: s.Session.InitialCount,
			FinalCount:   s.Session.FinalCount,
			UnitTime:     s.Session.UnitTime,
			BreakTime:    s.Session.BreakTime,
		},
		Stoppages: cloneStoppages(s.Stoppages),
		CreatedAt: s.CreatedAt,
	}
}

func (r studyRecord) toStudy() (Study, error) {
	if r.Id == uuid.Nil {
		return Study{}, fmt.Errorf("missing id")
	}
	date, err := time.Parse(session.DateLayout, r.Session.Date)
	if err != nil {
		return Study{}, fmt.Errorf("invalid date: %w", err)
	}
	if !r.Session.StartTime.Before(r.Session.EndTime) {
		return Study{}, session.ErrInvalidTimeWindow
	}
	return Study{
		Id: r.Id,
		Session: session.Session{
			Operator:     r.Session.Operator,
			Machine:      r.Session.Machine,
			Date:         date,
			Shift:        r.Session.Shift,
			StartTime:    r.Session.StartTime,
			EndTime:      r.Session.EndTime,
			InitialCount: r.Session.InitialCount,
			FinalCount:   r.Session.FinalCount,
			UnitTime:     r.Session.UnitTime,
			BreakTime:    r.Session.BreakTime,
		},
		Stoppages: cloneStoppages(r.Stoppages),
		CreatedAt: r.CreatedAt,
	}, nil
}
