// -----------------------------------------------------------------------
// App - Component wiring and lifecycle
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/agents"
	"github.com/ternarybob/suadeo/internal/common"
	"github.com/ternarybob/suadeo/internal/handlers"
	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/pipeline"
	"github.com/ternarybob/suadeo/internal/quality"
	"github.com/ternarybob/suadeo/internal/services/enrich"
	"github.com/ternarybob/suadeo/internal/services/events"
	jobsvc "github.com/ternarybob/suadeo/internal/services/jobs"
	"github.com/ternarybob/suadeo/internal/services/llm"
	"github.com/ternarybob/suadeo/internal/services/render"
	"github.com/ternarybob/suadeo/internal/services/scheduler"
	"github.com/ternarybob/suadeo/internal/services/search"
	storage "github.com/ternarybob/suadeo/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config    *common.Config
	Logger    arbor.ILogger
	ctx       context.Context
	cancelCtx context.CancelFunc

	// Storage
	DB         *storage.BadgerDB
	JobStorage *storage.JobStorage

	// Core services
	EventService interfaces.EventService
	JobService   *jobsvc.Service

	// Pipeline capabilities
	Structure interfaces.StructureCapability
	Search    interfaces.SearchCapability
	Enricher  interfaces.QuoteEnricher
	Renderer  *render.Service
	Scorer    *quality.Scorer

	// Execution
	Orchestrator     *pipeline.Orchestrator
	Pool             *pipeline.Pool
	SchedulerService *scheduler.Service

	// HTTP handlers
	JobHandler    *handlers.JobHandler
	WSHandler     *handlers.WebSocketHandler
	SystemHandler *handlers.SystemHandler
}

// New creates the application with all components wired
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		Config:    cfg,
		Logger:    logger,
		ctx:       ctx,
		cancelCtx: cancel,
	}

	if err := a.initDatabase(); err != nil {
		cancel()
		return nil, err
	}

	if err := a.initServices(); err != nil {
		cancel()
		a.DB.Close()
		return nil, err
	}

	a.initHandlers()

	return a, nil
}

func (a *App) initDatabase() error {
	db, err := storage.NewBadgerDB(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to open badger database: %w", err)
	}
	a.DB = db
	a.JobStorage = storage.NewJobStorage(db, a.Logger)
	return nil
}

func (a *App) initServices() error {
	a.EventService = events.NewService(a.Logger)
	if err := events.RegisterAuditLog(a.EventService, a.Logger); err != nil {
		return fmt.Errorf("failed to register audit log: %w", err)
	}
	a.JobService = jobsvc.NewService(a.JobStorage, a.EventService, a.Logger)

	structure, err := a.newStructureCapability()
	if err != nil {
		return err
	}
	a.Structure = structure

	searchCap, err := search.NewSearchCapability(a.ctx, a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create search capability: %w", err)
	}
	a.Search = searchCap

	a.Enricher = enrich.NewQuoteExtractor(a.Logger)

	renderer, err := render.NewService(&a.Config.Render, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create render service: %w", err)
	}
	a.Renderer = renderer

	a.Scorer = quality.NewScorer(a.Logger)

	a.Orchestrator = pipeline.NewOrchestrator(
		a.JobService,
		a.Structure,
		a.Search,
		a.Enricher,
		a.Renderer,
		a.Scorer,
		&a.Config.Pipeline,
		a.Logger,
	)
	a.Pool = pipeline.NewPool(a.Orchestrator, a.Config.Pipeline.Workers, a.Config.Pipeline.QueueCapacity, a.Logger)
	a.SchedulerService = scheduler.NewService(&a.Config.Scheduler, a.JobStorage, a.JobService, a.Pool, a.Logger)

	return nil
}

// newStructureCapability selects the storyline provider from configuration.
func (a *App) newStructureCapability() (interfaces.StructureCapability, error) {
	switch a.Config.Providers.Structure {
	case "claude":
		claudeSvc, err := llm.NewClaudeService(&a.Config.Claude, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create claude service: %w", err)
		}
		return agents.NewStorylineAgent(claudeSvc, a.Logger), nil
	case "mock":
		return agents.NewMockStructure(), nil
	default:
		return nil, fmt.Errorf("unknown structure provider: %s", a.Config.Providers.Structure)
	}
}

func (a *App) initHandlers() {
	a.JobHandler = handlers.NewJobHandler(
		a.JobService,
		a.Pool,
		a.Config.Providers.Structure,
		a.Config.Providers.Search,
		a.Logger,
	)
	a.WSHandler = handlers.NewWebSocketHandler(a.JobService, a.Logger)
	a.SystemHandler = handlers.NewSystemHandler(a.Renderer, a.Logger)
}

// Start brings up background execution: startup recovery, worker pool and
// maintenance scheduler.
func (a *App) Start() error {
	a.SchedulerService.RecoverOnStartup(a.ctx)
	a.Pool.Start(a.ctx)
	if err := a.SchedulerService.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	return nil
}

// Close shuts components down in reverse dependency order
func (a *App) Close() error {
	a.Logger.Info().Msg("Shutting down application...")

	a.SchedulerService.Stop()
	a.Pool.Stop()
	a.cancelCtx()

	if a.JobService != nil {
		a.JobService.Close()
	}
	if a.EventService != nil {
		a.EventService.Close()
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("Failed to close database")
			return err
		}
	}

	a.Logger.Info().Msg("Application shutdown complete")
	return nil
}
