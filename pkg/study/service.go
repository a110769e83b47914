package study

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/klokku/timestudy/internal/event_bus"
	"github.com/klokku/timestudy/internal/utils"
	"github.com/klokku/timestudy/pkg/export"
	"github.com/klokku/timestudy/pkg/report"
	"github.com/klokku/timestudy/pkg/session"
	"github.com/klokku/timestudy/pkg/stoppage"
	"github.com/klokku/timestudy/pkg/summary"
	log "github.com/sirupsen/logrus"
)

// FileExporter writes spreadsheet files and resolves them back for download.
type FileExporter interface {
	WriteTable(table report.Table) (string, error)
	WriteReport(r report.Report) (string, error)
	Locate(name string) (string, error)
}

type SheetsPublisher interface {
	Publish(ctx context.Context, title string, table report.Table) (export.Published, error)
}

// StudySummary is the summary of a study together with the warnings shown next to it.
type StudySummary struct {
	summary.Summary
	CountWarning bool
}

type Charts struct {
	Stoppages  summary.StoppageBreakdown
	Production summary.ProductionComparison
}

type Service interface {
	Shifts() []string
	Create(ctx context.Context, form session.Form) (Study, error)
	Get(ctx context.Context, id uuid.UUID) (Study, error)
	List(ctx context.Context) ([]Study, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddStoppage(ctx context.Context, id uuid.UUID, kind stoppage.Kind, durationSeconds float64, description string) ([]stoppage.Event, error)
	// ImportStoppages appends stoppages given as loose records, including the legacy key names.
	ImportStoppages(ctx context.Context, id uuid.UUID, records []map[string]any) ([]stoppage.Event, error)
	RemoveStoppage(ctx context.Context, id uuid.UUID, index int) ([]stoppage.Event, error)
	Summary(ctx context.Context, id uuid.UUID) (StudySummary, error)
	Charts(ctx context.Context, id uuid.UUID) (Charts, error)
	Table(ctx context.Context, id uuid.UUID) (report.Table, error)
	ExportTable(ctx context.Context, id uuid.UUID) (string, error)
	ExportReport(ctx context.Context, id uuid.UUID) (string, error)
	PublishSheets(ctx context.Context, id uuid.UUID) (export.Published, error)
	LocateExport(name string) (string, error)
}

type ServiceImpl struct {
	repo      Repository
	validator *session.Validator
	exporter  FileExporter
	publisher SheetsPublisher
	layout    report.Layout
	eventBus  *event_bus.EventBus
	clock     utils.Clock
}

// NewService creates the study service. publisher may be nil, Sheets publishing then fails
// with export.ErrMissingDependency.
func NewService(
	repo Repository,
	validator *session.Validator,
	exporter FileExporter,
	publisher SheetsPublisher,
	layout report.Layout,
	eventBus *event_bus.EventBus,
	clock utils.Clock,
) *ServiceImpl {
	return &ServiceImpl{
		repo:      repo,
		validator: validator,
		exporter:  exporter,
		publisher: publisher,
		layout:    layout,
		eventBus:  eventBus,
		clock:     clock,
	}
}

func (s *ServiceImpl) Shifts() []string {
	return s.validator.Shifts()
}

func (s *ServiceImpl) Create(ctx context.Context, form session.Form) (Study, error) {
	sess, err := s.validator.Validate(form)
	if err != nil {
		log.Debugf("rejected study form: %v", err)
		return Study{}, err
	}

	study, err := s.repo.Store(ctx, Study{
		Id:        uuid.New(),
		Session:   sess,
		Stoppages: []stoppage.Event{},
		CreatedAt: s.clock.Now().UTC(),
	})
	if err != nil {
		return Study{}, err
	}
	log.Debugf("created study %s for machine %s", study.Id, sess.Machine)
	s.publishUpdated(ctx, study.Id, event_bus.StudyCreated, 0)
	return study, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id uuid.UUID) (Study, error) {
	return s.repo.Get(ctx, id)
}

func (s *ServiceImpl) List(ctx context.Context) ([]Study, error) {
	return s.repo.List(ctx)
}

func (s *ServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publishUpdated(ctx, id, event_bus.StudyDeleted, 0)
	return nil
}

func (s *ServiceImpl) AddStoppage(ctx context.Context, id uuid.UUID, kind stoppage.Kind, durationSeconds float64, description string) ([]stoppage.Event, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, &session.ValidationError{Field: "description", Reason: "must not be empty"}
	}
	event, err := stoppage.New(kind, durationSeconds, description)
	if err != nil {
		return nil, err
	}

	events, err := s.repo.AppendStoppage(ctx, id, event)
	if err != nil {
		return nil, err
	}
	s.publishUpdated(ctx, id, event_bus.StudyStoppageAdded, len(events))
	return events, nil
}

func (s *ServiceImpl) ImportStoppages(ctx context.Context, id uuid.UUID, records []map[string]any) ([]stoppage.Event, error) {
	imported, err := stoppage.FromRecords(records)
	if err != nil {
		return nil, err
	}
	if len(imported) == 0 {
		study, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return study.Stoppages, nil
	}

	events, err := s.repo.AppendStoppages(ctx, id, imported)
	if err != nil {
		return nil, err
	}
	log.Debugf("imported %d stoppages into study %s", len(imported), id)
	s.publishUpdated(ctx, id, event_bus.StudyStoppageAdded, len(events))
	return events, nil
}

func (s *ServiceImpl) RemoveStoppage(ctx context.Context, id uuid.UUID, index int) ([]stoppage.Event, error) {
	events, err := s.repo.RemoveStoppage(ctx, id, index)
	if err != nil {
		return nil, err
	}
	s.publishUpdated(ctx, id, event_bus.StudyStoppageRemoved, len(events))
	return events, nil
}

func (s *ServiceImpl) Summary(ctx context.Context, id uuid.UUID) (StudySummary, error) {
	study, sum, err := s.summarize(ctx, id)
	if err != nil {
		return StudySummary{}, err
	}
	return StudySummary{Summary: sum, CountWarning: study.Session.CountWarning()}, nil
}

func (s *ServiceImpl) Charts(ctx context.Context, id uuid.UUID) (Charts, error) {
	study, sum, err := s.summarize(ctx, id)
	if err != nil {
		return Charts{}, err
	}
	return Charts{
		Stoppages:  summary.Breakdown(study.Stoppages),
		Production: summary.Production(sum),
	}, nil
}

func (s *ServiceImpl) Table(ctx context.Context, id uuid.UUID) (report.Table, error) {
	study, sum, err := s.summarize(ctx, id)
	if err != nil {
		return report.Table{}, err
	}
	return report.FlatTable(study.Session, study.Stoppages, sum), nil
}

func (s *ServiceImpl) ExportTable(ctx context.Context, id uuid.UUID) (string, error) {
	table, err := s.Table(ctx, id)
	if err != nil {
		return "", err
	}
	path, err := s.exporter.WriteTable(table)
	if err != nil {
		return "", fmt.Errorf("failed to export study table: %w", err)
	}
	s.publishExported(ctx, id, "table", path)
	return path, nil
}

func (s *ServiceImpl) ExportReport(ctx context.Context, id uuid.UUID) (string, error) {
	study, sum, err := s.summarize(ctx, id)
	if err != nil {
		return "", err
	}
	path, err := s.exporter.WriteReport(report.Build(study.Session, study.Stoppages, sum, s.layout))
	if err != nil {
		return "", fmt.Errorf("failed to export study report: %w", err)
	}
	s.publishExported(ctx, id, "report", path)
	return path, nil
}

func (s *ServiceImpl) PublishSheets(ctx context.Context, id uuid.UUID) (export.Published, error) {
	if s.publisher == nil {
		return export.Published{}, fmt.Errorf("%w: Google Sheets publishing is disabled, set sheets.enabled and sheets.credentialsfile",
			export.ErrMissingDependency)
	}
	study, sum, err := s.summarize(ctx, id)
	if err != nil {
		return export.Published{}, err
	}
	table := report.FlatTable(study.Session, study.Stoppages, sum)
	published, err := s.publisher.Publish(ctx, study.Title(), table)
	if err != nil {
		return export.Published{}, err
	}
	s.publishExported(ctx, id, "sheets", published.Url)
	return published, nil
}

func (s *ServiceImpl) LocateExport(name string) (string, error) {
	return s.exporter.Locate(name)
}

// summarize loads the study and computes its summary. An invalid session window stops every
// caller before anything is rendered or written.
func (s *ServiceImpl) summarize(ctx context.Context, id uuid.UUID) (Study, summary.Summary, error) {
	study, err := s.repo.Get(ctx, id)
	if err != nil {
		return Study{}, summary.Summary{}, err
	}
	sum, err := summary.Compute(study.Session, study.Stoppages)
	if err != nil {
		return Study{}, summary.Summary{}, err
	}
	return study, sum, nil
}

// Subscribers only mirror state, a failed publish is logged and the change stands. The change
// is already stored, so a cancelled request must not keep the subscribers from seeing it.
func (s *ServiceImpl) publishUpdated(ctx context.Context, id uuid.UUID, change event_bus.StudyChange, stoppageCount int) {
	if s.eventBus == nil {
		return
	}
	err := s.eventBus.Publish(event_bus.NewEvent(context.WithoutCancel(ctx), event_bus.StudyUpdatedType, event_bus.StudyUpdated{
		StudyId:       id,
		Change:        change,
		StoppageCount: stoppageCount,
	}))
	if err != nil {
		log.Errorf("failed to publish study update event: %v", err)
	}
}

func (s *ServiceImpl) publishExported(ctx context.Context, id uuid.UUID, target, location string) {
	if s.eventBus == nil {
		return
	}
	err := s.eventBus.Publish(event_bus.NewEvent(context.WithoutCancel(ctx), event_bus.StudyExportedType, event_bus.StudyExported{
		StudyId:  id,
		Target:   target,
		Location: location,
	}))
	if err != nil {
		log.Errorf("failed to publish study export event: %v", err)
	}
}
