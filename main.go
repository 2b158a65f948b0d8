package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/autosave/internal/config"
	"github.com/debemdeboas/autosave/internal/db"
	"github.com/debemdeboas/autosave/internal/draft"
	"github.com/debemdeboas/autosave/internal/editor"
	"github.com/debemdeboas/autosave/internal/logger"
	"github.com/debemdeboas/autosave/internal/model"
	"github.com/debemdeboas/autosave/internal/render"
	"github.com/debemdeboas/autosave/internal/repository"
	"github.com/debemdeboas/autosave/internal/routes"
	"github.com/debemdeboas/autosave/internal/sse"
	"github.com/debemdeboas/autosave/internal/storage"
)

// Documents every installation starts with.
const (
	defaultHomepageID = "main"
	defaultPageID     = "home"
)

type app struct {
	posts    *editor.Handler[model.Post]
	pages    *editor.Handler[model.Page]
	homepage *editor.Handler[model.Homepage]
	preview  *editor.PreviewHandler
	clients  *sse.SSEClients
}

func draftOptions[T any](cfg config.DraftsConfig, l zerolog.Logger) []draft.Option[T] {
	return []draft.Option[T]{
		draft.WithDebounce[T](cfg.Debounce()),
		draft.WithHistoryLimit[T](cfg.HistoryLimit),
		draft.WithStorageTimeout[T](cfg.StorageTimeout()),
		draft.WithLogger[T](l.With().Str("component", "draft").Logger()),
	}
}

func newApp(cfg *config.Config, database db.DB, store draft.Store, l zerolog.Logger) *app {
	clients := sse.NewSSEClients()

	return &app{
		posts: editor.NewHandler[model.Post](model.KindPost, routes.Posts,
			repository.NewDBRepository[model.Post](database, model.KindPost), store, clients,
			draftOptions[model.Post](cfg.Drafts, l)...),
		pages: editor.NewHandler[model.Page](model.KindPage, routes.Pages,
			repository.NewDBRepository[model.Page](database, model.KindPage), store, clients,
			draftOptions[model.Page](cfg.Drafts, l)...),
		homepage: editor.NewHandler[model.Homepage](model.KindHomepage, routes.Homepage,
			repository.NewDBRepository[model.Homepage](database, model.KindHomepage), store, clients,
			draftOptions[model.Homepage](cfg.Drafts, l)...),
		preview: editor.NewPreviewHandler(cfg.Editor.SyntaxTheme),
		clients: clients,
	}
}

func (a *app) router(cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(routes.RobotsPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCType, "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("User-agent: *\nDisallow: /"))
	})

	a.posts.Register(mux)
	a.pages.Register(mux)
	a.homepage.Register(mux)
	if cfg.Editor.LivePreview {
		a.preview.Register(mux, routes.Posts)
	}
	mux.Handle("GET "+routes.SSEPath, a.clients)

	return secureHeaders(mux)
}

// sweep evicts idle sessions of every kind until ctx is done.
func (a *app) sweep(ctx context.Context, interval, idle time.Duration) {
	go a.posts.RunSweeper(ctx, interval, idle)
	go a.pages.RunSweeper(ctx, interval, idle)
	go a.homepage.RunSweeper(ctx, interval, idle)
}

func (a *app) close() {
	a.posts.Close()
	a.pages.Close()
	a.homepage.Close()
}

func secureHeaders(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set(config.HCacheControl, "no-store")

		h.ServeHTTP(w, r)
	})
}

// seed creates the singleton homepage and landing page when missing.
func seed(ctx context.Context, database db.DB) error {
	homes := repository.NewDBRepository[model.Homepage](database, model.KindHomepage)
	if _, err := homes.Load(ctx, defaultHomepageID); errors.Is(err, repository.ErrNotFound) {
		if err := homes.Insert(ctx, defaultHomepageID, model.Homepage{Sections: []model.Section{}}); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	pages := repository.NewDBRepository[model.Page](database, model.KindPage)
	if _, err := pages.Load(ctx, defaultPageID); errors.Is(err, repository.ErrNotFound) {
		return pages.Insert(ctx, defaultPageID, model.Page{Title: "Home", Slug: defaultPageID, Blocks: []model.Block{}})
	} else if err != nil {
		return err
	}
	return nil
}

func setLoggers(l zerolog.Logger) {
	config.SetLogger(l)
	db.SetLogger(l)
	storage.SetLogger(l)
	repository.SetLogger(l)
	editor.SetLogger(l)
	sse.SetLogger(l)
	render.SetLogger(l)
}

// loadSettings reads .env and the YAML config. boot logs until the
// configured logger exists.
func loadSettings(configPath string, boot zerolog.Logger) (*config.Config, error) {
	if err := godotenv.Load(); err != nil {
		boot.Debug().Msg("No .env file loaded")
	}
	config.SetLogger(boot)
	if err := config.LoadConfig(configPath); err != nil {
		return nil, err
	}
	return config.AppConfig, nil
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	boot := logger.New("info", logger.FormatConsole)
	cfg, err := loadSettings(*configPath, boot)
	if err != nil {
		boot.Fatal().Err(err).Msg(config.ErrLoadConfig)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	setLoggers(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database := db.NewSQLite(cfg.Content.DatabasePath)
	if err := database.InitDB(); err != nil {
		log.Fatal().Msgf(config.ErrInitializeDatabaseFmt, err)
	}
	defer database.Close()

	if err := seed(ctx, database); err != nil {
		log.Fatal().Err(err).Msg("Error seeding default documents")
	}

	store, err := storage.Open(ctx, cfg.Storage, database)
	if err != nil {
		log.Fatal().Msgf(config.ErrOpenStorageFmt, err)
	}
	defer store.Close()

	a := newApp(cfg, database, store, log)
	defer a.close()
	if idle := cfg.Editor.SessionIdle(); idle > 0 {
		a.sweep(ctx, time.Minute, idle)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           a.router(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error shutting down server")
		}
	}()

	log.Info().Str("addr", srv.Addr).Str("storage", cfg.Storage.Backend).Msg("Starting server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("Server stopped")
	}
	log.Info().Msg("Server stopped, flushing drafts")
}
