package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/futig/docgen-gateway/internal/api"
	generationapi "github.com/futig/docgen-gateway/internal/api/generation"
	workspaceapi "github.com/futig/docgen-gateway/internal/api/workspace"
	"github.com/futig/docgen-gateway/internal/config"
	"github.com/futig/docgen-gateway/internal/entity"
	"github.com/futig/docgen-gateway/internal/generation"
	"github.com/futig/docgen-gateway/internal/integration/backend"
	"github.com/futig/docgen-gateway/internal/integration/callback"
	"github.com/futig/docgen-gateway/internal/integration/telegram"
	"github.com/futig/docgen-gateway/internal/onboarding"
	"github.com/futig/docgen-gateway/internal/pkg/formatter"
	"github.com/futig/docgen-gateway/internal/pkg/validator"
	"github.com/futig/docgen-gateway/internal/realtime"
	generationuc "github.com/futig/docgen-gateway/internal/usecase/generation"
	"github.com/futig/docgen-gateway/internal/usecase/notify"
	workspaceuc "github.com/futig/docgen-gateway/internal/usecase/workspace"
	"github.com/futig/docgen-gateway/internal/workspace"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const mockJobsPrefix = "/mock/jobs"

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
		zap.Bool("mocks", cfg.EnableMocks),
	)

	profiles, db, err := setupProfileStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup profile store: %w", err)
	}

	// Initialize connectors
	callbackConnector := callback.NewConnector(cfg.CallbackConnectorCfg, logger)

	var telegramNotifier notify.TelegramNotifier
	if cfg.TelegramCfg.BotToken != "" {
		n, err := telegram.NewNotifier(cfg.TelegramCfg, logger)
		if err != nil {
			closeDB(db)
			return nil, fmt.Errorf("setup telegram notifier: %w", err)
		}
		telegramNotifier = n
		logger.Info("Telegram notifier enabled")
	}

	specs := generation.DefaultDocumentSpecs(cfg.DocumentsCfg)

	var backendConnector generationuc.BackendConnector
	routerCfg := api.RouterConfig{CORSOrigins: cfg.CORSOrigins}
	if cfg.EnableMocks {
		logger.Info("Using mock backend connector", zap.String("job_url", cfg.RealtimeCfg.MockURL))
		backendConnector = backend.NewMockConnector(cfg.RealtimeCfg.MockURL, logger)
		routerCfg.MockJobs = backend.NewMockJobServer(actionTags(specs), cfg.RealtimeCfg.MockStep, logger)
		routerCfg.MockJobsPrefix = mockJobsPrefix
	} else {
		logger.Info("Using real backend connector")
		backendConnector = backend.NewConnector(cfg.BackendConnectorCfg, logger)
	}

	// Generation sessions
	sink := notify.NewSink(profiles, callbackConnector, telegramNotifier, logger)
	registry := workspace.NewRegistry(cfg.WorkspaceCfg, workspace.Deps{
		Specs:       specs,
		RealtimeCfg: cfg.RealtimeCfg,
		Dialer:      realtime.NewWebsocketDialer(cfg.RealtimeCfg),
		Sink:        sink,
		Logger:      logger,
	}, logger)
	logger.Info("Workspace registry initialized", zap.Int("document_types", len(specs)))

	// Initialize validators
	requestValidator := validator.NewValidator(cfg.FileUploadCfg)

	// Initialize use cases
	tours := onboarding.NewController(onboarding.NewProfileFlags(profiles), logger)
	generationUC := generationuc.NewUsecase(registry, backendConnector, requestValidator, formatter.NewFactory(), logger)
	workspaceUC := workspaceuc.NewUsecase(registry, profiles, tours, logger)
	logger.Info("Use cases initialized")

	// Setup API handlers
	generationHandler := generationapi.NewHandler(generationUC, requestValidator, cfg.FileUploadCfg)
	workspaceHandler := workspaceapi.NewHandler(workspaceUC, requestValidator)

	router := api.SetupRouter(routerCfg, generationHandler, workspaceHandler, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server; no write timeout so mock job sockets can stream
	server := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server:   server,
		db:       db,
		registry: registry,
		sink:     sink,
		logger:   logger,
	}, nil
}

func actionTags(specs []generation.DocumentSpec) map[entity.DocumentType]string {
	tags := make(map[entity.DocumentType]string, len(specs))
	for _, s := range specs {
		tags[s.Type] = s.ActionTag
	}
	return tags
}

func closeDB(db *pgxpool.Pool) {
	if db != nil {
		db.Close()
	}
}
