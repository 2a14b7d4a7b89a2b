package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"velym/backend/internal/api"
	"velym/backend/internal/auth"
	"velym/backend/internal/config"
	"velym/backend/internal/database"
	"velym/backend/internal/llm"
	"velym/backend/internal/realtime"
	"velym/backend/internal/repository"
	"velym/backend/internal/resources"
	"velym/backend/internal/service"
	"velym/backend/internal/storage"
)

// App is the assembled server with the resources it owns.
type App struct {
	Config *config.Config
	DB     *sql.DB
	Hub    *realtime.Hub
	Server *http.Server

	closers []func() error
}

// NewApp opens the database, connects optional backing services and wires
// services, handlers and routes. Background work started here stops when
// ctx is cancelled.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.InitDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("Successfully connected to SQLite database.", "path", cfg.DatabasePath)

	a := &App{Config: cfg, DB: db, Hub: realtime.NewHub(realtime.DefaultBuffer)}
	a.closers = append(a.closers, db.Close)

	if cfg.RedisAddr != "" {
		bus, err := realtime.NewRedisBus(ctx, cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to connect change bus: %w", err)
		}
		if err := a.Hub.UseBus(ctx, bus); err != nil {
			_ = bus.Close()
			_ = a.Close()
			return nil, fmt.Errorf("failed to start change bus: %w", err)
		}
		a.closers = append(a.closers, bus.Close)
		slog.Info("Change notifications fan out through Redis.", "addr", cfg.RedisAddr, "channel", cfg.RedisChannel)
	}

	var avatars storage.AvatarStore
	if cfg.AvatarStorageEnabled() {
		store, err := storage.NewMinIOStore(ctx, cfg)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to connect avatar storage: %w", err)
		}
		avatars = store
		slog.Info("Avatar storage enabled.", "endpoint", cfg.MinIOEndpoint, "bucket", cfg.MinIOBucket)
	} else {
		slog.Warn("Avatar storage is not configured; avatar uploads are disabled.")
	}

	provider, modelName, err := newProvider(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	if closer, ok := provider.(io.Closer); ok {
		a.closers = append(a.closers, closer.Close)
	}

	catalogue, err := resources.Load()
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to load resource catalogue: %w", err)
	}

	zone, err := time.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("invalid default timezone: %w", err)
	}

	repo := repository.NewSQLiteRepository(db)

	resourceService := service.NewResourceService(repo, catalogue)
	if err := resourceService.Seed(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to seed resources: %w", err)
	}

	authService := service.NewAuthService(repo, service.AuthOptions{
		Tokens:    auth.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL),
		Limiter:   auth.NewLimiter(cfg.AuthRatePerMin, cfg.AuthRateBurst),
		Events:    a.Hub,
		ResetTTL:  cfg.ResetTokenTTL,
		PublicURL: cfg.PublicURL,
	})
	assessmentService := service.NewAssessmentService(repo, provider, a.Hub, zone)
	chatService := service.NewChatService(repo, provider, a.Hub)
	profileService := service.NewProfileService(repo, avatars, a.Hub)
	modelService := service.NewModelService(provider, cfg.LLMProvider, modelName)

	handlers := api.Handlers{
		Auth:       api.NewAuthHandler(authService, strings.HasPrefix(cfg.PublicURL, "https://")),
		Assessment: api.NewAssessmentHandler(assessmentService),
		Chat:       api.NewChatHandler(chatService),
		Profile:    api.NewProfileHandler(profileService),
		Resource:   api.NewResourceHandler(resourceService),
		Model:      api.NewModelHandler(modelService),
		Realtime:   api.NewRealtimeHandler(a.Hub, cfg.AllowedOrigin),
	}
	router := api.NewRouter(handlers, authService, cfg.FrontendDir)

	a.Server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      0, // Disabled for streaming endpoints
		IdleTimeout:       120 * time.Second,
	}
	return a, nil
}

func newProvider(ctx context.Context, cfg *config.Config) (llm.Provider, string, error) {
	switch cfg.LLMProvider {
	case config.ProviderOllama:
		p := llm.NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModel)
		waitForProvider(ctx, p, cfg.OllamaURL)
		return p, cfg.OllamaModel, nil
	case config.ProviderGemini:
		p, err := llm.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create Gemini provider: %w", err)
		}
		model := cfg.GeminiModel
		if model == "" {
			model = llm.DefaultGeminiModel
		}
		return p, model, nil
	default:
		return nil, "", fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}

// waitForProvider gives a local model server a moment to come up. The app
// starts regardless; chat reports AI errors until the server answers.
func waitForProvider(ctx context.Context, p llm.Provider, url string) {
	pinger, ok := p.(llm.Pinger)
	if !ok {
		return
	}
	slog.Info("Waiting for Ollama to be ready...", "url", url)
	for attempt := 1; attempt <= 10; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := pinger.Ping(pingCtx)
		cancel()
		if err == nil {
			slog.Info("Ollama is ready.")
			return
		}
		slog.Debug("Ollama not ready yet, retrying in 3 seconds...", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(3 * time.Second):
		}
	}
	slog.Warn("Ollama did not answer; continuing without it.", "url", url)
}

// Close releases everything NewApp opened, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down.
func (a *App) Serve(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Starting server", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down gracefully...")
		a.Hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.Server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func Run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		// slog is not yet configured, so use the default logger for this critical error.
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	closeLog := setupLogger(cfg.LogLevel, cfg.LogFile)
	defer closeLog()

	logConfigSource()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := NewApp(ctx, cfg)
	if err != nil {
		slog.Error("Failed to start application", "error", err)
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("Failed to release resources", "error", err)
		}
	}()

	if err := a.Serve(ctx); err != nil {
		slog.Error("Server failed", "error", err)
		return 1
	}
	slog.Info("Server stopped successfully")
	return 0
}

func logConfigSource() {
	configFileUsed := viper.ConfigFileUsed()
	if configFileUsed != "" {
		slog.Info("Successfully loaded configuration from file.", "file", configFileUsed)
	} else {
		slog.Info("Configuration file not found. Using environment variables and defaults.")
	}
}

func parseLevel(logLevel string) slog.Level {
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupLogger installs a JSON slog logger on stdout. With logFile set, the
// same records also go to a size-rotated file. The returned func closes it.
func setupLogger(logLevel, logFile string) func() {
	var out io.Writer = os.Stdout
	closeFn := func() {}
	if logFile != "" {
		rotating := &lumberjack.Logger{
			Filename: logFile,
			MaxSize:  100,
			MaxAge:   28,
			Compress: true,
		}
		out = io.MultiWriter(os.Stdout, rotating)
		closeFn = func() { _ = rotating.Close() }
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: parseLevel(logLevel),
	}))
	slog.SetDefault(logger)
	return closeFn
}
