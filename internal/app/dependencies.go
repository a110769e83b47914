package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klokku/timestudy/internal/config"
	"github.com/klokku/timestudy/internal/database"
	"github.com/klokku/timestudy/internal/event_bus"
	"github.com/klokku/timestudy/internal/utils"
	"github.com/klokku/timestudy/pkg/export"
	"github.com/klokku/timestudy/pkg/report"
	"github.com/klokku/timestudy/pkg/session"
	"github.com/klokku/timestudy/pkg/state"
	"github.com/klokku/timestudy/pkg/study"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus

	// DB is set only with postgres storage.
	DB        *pgxpool.Pool
	StateSync *study.StateSync

	StudyRepo    study.Repository
	Validator    *session.Validator
	Exporter     *export.Exporter
	Publisher    *export.SheetsPublisher
	StudyService *study.ServiceImpl
	StudyHandler *study.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(ctx context.Context, cfg config.Application) (*Dependencies, error) {
	deps := &Dependencies{}

	deps.Clock = &utils.SystemClock{}
	deps.EventBus = event_bus.NewEventBus()

	layout, err := report.NewLayout(
		cfg.Export.Layout.Title,
		cfg.Export.Layout.SheetName,
		cfg.Export.Layout.ColumnWidths,
		cfg.Export.Layout.SectionOrder,
	)
	if err != nil {
		return nil, err
	}

	if err := buildStudyRepo(deps, cfg); err != nil {
		return nil, err
	}

	deps.Validator = session.NewValidator(cfg.Study.Shifts, deps.Clock)
	deps.Exporter = export.NewExporter(cfg.Export.OutputDir, deps.Clock)

	// a nil *SheetsPublisher must not reach the service as a non-nil interface
	var publisher study.SheetsPublisher
	if cfg.Sheets.Enabled {
		deps.Publisher, err = export.NewSheetsPublisherFromFile(ctx, cfg.Sheets.CredentialsFile)
		if err != nil {
			log.Warnf("Google Sheets publishing disabled: %v", err)
		} else {
			publisher = deps.Publisher
		}
	}

	deps.StudyService = study.NewService(
		deps.StudyRepo,
		deps.Validator,
		deps.Exporter,
		publisher,
		layout,
		deps.EventBus,
		deps.Clock,
	)
	deps.StudyHandler = study.NewHandler(deps.StudyService)

	event_bus.SubscribeTyped[event_bus.StudyExported](
		deps.EventBus,
		event_bus.StudyExportedType,
		func(e event_bus.EventT[event_bus.StudyExported]) error {
			log.WithFields(log.Fields{
				"study":    e.Data.StudyId,
				"target":   e.Data.Target,
				"location": e.Data.Location,
			}).Info("Study exported")
			return nil
		},
	)

	return deps, nil
}

func buildStudyRepo(deps *Dependencies, cfg config.Application) error {
	switch cfg.Storage.Type {
	case config.PostgresStorage:
		db, err := database.Open(cfg.Database)
		if err != nil {
			return err
		}
		if err := database.Migrate(cfg.Database); err != nil {
			db.Close()
			return err
		}
		deps.DB = db
		deps.StudyRepo = study.NewPostgresRepository(db)
	case config.JsonStorage:
		repo := study.NewMemoryRepository()
		deps.StateSync = study.NewStateSync(repo, state.NewStore(cfg.Storage.StateFile))
		deps.StateSync.Load()
		deps.StateSync.Subscribe(deps.EventBus)
		deps.StudyRepo = repo
	case config.MemoryStorage, "":
		deps.StudyRepo = study.NewMemoryRepository()
	default:
		return fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
	log.Infof("Using %s study storage", cfg.Storage.Type)
	return nil
}

// Close releases resources held by the dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
