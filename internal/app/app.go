// Package app provides shared application initialization logic used by
// the daemon and the offline CLI commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mediacutlet/nomadachi/internal/config"
	"github.com/mediacutlet/nomadachi/internal/geo"
	"github.com/mediacutlet/nomadachi/internal/gps"
	"github.com/mediacutlet/nomadachi/internal/handlers"
	"github.com/mediacutlet/nomadachi/internal/journal"
	"github.com/mediacutlet/nomadachi/internal/progress"
	"github.com/mediacutlet/nomadachi/internal/scheduler"
	"github.com/mediacutlet/nomadachi/internal/services"
	"github.com/mediacutlet/nomadachi/internal/store"
	"github.com/mediacutlet/nomadachi/internal/title"
	"github.com/mediacutlet/nomadachi/internal/types"
)

// Server wraps the HTTP server and associated resources.
type Server struct {
	HTTP      *http.Server
	Config    *config.Config
	Logger    *zap.Logger
	Journal   *journal.DB // nil when journaling is disabled
	Watcher   *gps.Watcher
	Tracker   *services.Tracker
	Scheduler *scheduler.Scheduler
}

// CreateServer initializes all application components and returns a Server.
// Call Server.Cleanup() when done to release resources; Run does so itself.
func CreateServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	// Progression state
	file := &store.File{Path: cfg.DataPath}
	state, source, err := file.Bootstrap(cfg.LegacyPath, cfg.MigrateFromAge, logger)
	if err != nil {
		if !errors.Is(err, store.ErrCorrupt) {
			return nil, fmt.Errorf("failed to load state: %w", err)
		}
		// The broken file stays on disk untouched until the first award
		// writes a valid replacement
		logger.Warn("state file corrupt; starting fresh (file preserved)",
			zap.String("path", cfg.DataPath),
			zap.Error(err))
		state = progress.NewState()
		source = store.SourceFresh
	}
	logger.Info("progression state ready",
		zap.String("source", string(source)),
		zap.Int("total_xp", state.TotalXP),
		zap.Int("places", len(state.SeenPlaces)))

	progressStore := progress.NewStore(state, progress.Weights{
		ESSID: cfg.XP.ESSID,
		BSSID: cfg.XP.BSSID,
		OUI:   cfg.XP.OUI,
		Band:  cfg.XP.Band,
		Place: cfg.XP.Place,
	})

	// Discovery journal
	var (
		journalDB *journal.DB
		session   *journal.Session
	)
	if cfg.JournalPath != "" {
		journalDB, err = journal.Open(cfg.JournalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
		if err := journalDB.Migrate(); err != nil {
			journalDB.Close()
			return nil, fmt.Errorf("failed to migrate journal: %w", err)
		}
		session, err = journalDB.StartSession()
		if err != nil {
			journalDB.Close()
			return nil, fmt.Errorf("failed to start journal session: %w", err)
		}
		logger.Info("journal ready",
			zap.String("path", cfg.JournalPath),
			zap.String("session", session.ID))
	}

	// GPS with filesystem watching; the tracker reads through the watcher
	gpsSource := gps.NewFileSource(cfg.GPSPaths, time.Duration(cfg.GPSMaxAgeSec)*time.Second)
	watcher := gps.NewWatcher(gpsSource, logger)

	book := title.DefaultBook()
	if len(cfg.Titles) > 0 {
		book = title.NewBook(cfg.Titles)
	}

	tracker := services.NewTracker(services.TrackerConfig{
		Progress:     progressStore,
		File:         file,
		Journal:      journalDB,
		Session:      session,
		GPS:          watcher,
		Resolver:     geo.Resolver{Grid: cfg.TravelGrid, StrictNoGPS: cfg.StrictNoGPSPlaces},
		Book:         book,
		Logger:       logger,
		Format:       cfg.Format,
		Anchor:       types.Anchor{X: cfg.UI.X, Y: cfg.UI.Y},
		BarAnchor:    types.Anchor{X: *cfg.UI.ProgressX, Y: *cfg.UI.ProgressY},
		ShowBar:      cfg.UI.ShowProgress,
		BarCells:     cfg.UI.ProgressCells,
		BarFill:      cfg.FillRune(),
		SaveDebounce: time.Duration(cfg.SaveDebounceMS) * time.Millisecond,
	})

	// Maintenance jobs
	jobs := []scheduler.Job{{
		Name:     "flush",
		Schedule: cfg.FlushSchedule,
		Run: func(ctx context.Context) error {
			tracker.Flush()
			return nil
		},
	}}
	if journalDB != nil {
		retention := cfg.JournalRetentionDays
		jobs = append(jobs, scheduler.Job{
			Name:     "cleanup",
			Schedule: cfg.CleanupSchedule,
			Run: func(ctx context.Context) error {
				return journalDB.CleanupOldData(retention)
			},
		})
	}
	sched, err := scheduler.New(logger, jobs...)
	if err != nil {
		if journalDB != nil {
			journalDB.Close()
		}
		return nil, err
	}

	// HTTP surface
	h := handlers.New(tracker, journalDB, logger)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // No timeout for SSE
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		HTTP:      server,
		Config:    cfg,
		Logger:    logger,
		Journal:   journalDB,
		Watcher:   watcher,
		Tracker:   tracker,
		Scheduler: sched,
	}, nil
}

// Run starts every component and blocks until a signal or a listener
// failure, then tears everything down.
func (s *Server) Run() error {
	if err := s.Watcher.Start(); err != nil {
		return fmt.Errorf("failed to start gps watch: %w", err)
	}
	s.Scheduler.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- s.HTTP.ListenAndServe()
	}()
	s.Logger.Info("listening", zap.String("addr", s.Config.Addr()))

	var runErr error
	select {
	case sig := <-stop:
		s.Logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := s.HTTP.Shutdown(ctx); err != nil {
			s.Logger.Warn("shutdown error", zap.Error(err))
		}
		cancel()
		runErr = <-serverErr
	case runErr = <-serverErr:
	}

	s.Cleanup()
	if runErr != nil && runErr != http.ErrServerClosed {
		return runErr
	}
	return nil
}

// Cleanup releases all resources held by the server. Safe to call more
// than once.
func (s *Server) Cleanup() {
	if s.Scheduler != nil {
		s.Scheduler.Stop()
	}
	if s.Watcher != nil {
		s.Watcher.Stop()
	}
	if s.Tracker != nil {
		s.Tracker.Close()
	}
	if s.Journal != nil {
		if err := s.Journal.Close(); err != nil {
			s.Logger.Warn("journal close failed", zap.Error(err))
		}
	}
}
