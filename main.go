package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mrsarthi/MBM-recommender/api"
	"github.com/mrsarthi/MBM-recommender/config"
	"github.com/mrsarthi/MBM-recommender/handlers"
	"github.com/mrsarthi/MBM-recommender/internal/database"
	"github.com/mrsarthi/MBM-recommender/services/history"
	"github.com/mrsarthi/MBM-recommender/services/metadata"
	"github.com/mrsarthi/MBM-recommender/services/recommend"
	"github.com/mrsarthi/MBM-recommender/services/scoring"
)

func main() {
	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	// Determine config path (env or default)
	configPath := os.Getenv("MBM_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("cache", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			multiWriter := io.MultiWriter(os.Stdout, fileWriter)
			log.SetOutput(multiWriter)
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	// Watch history is the core dataset: refuse to start without it so
	// recommendations can never silently include watched movies.
	historyService, err := history.NewService(afero.NewOsFs(), settings.History.ImportPath, settings.History.LogPath)
	if err != nil {
		log.Fatalf("failed to load watch history: %v", err)
	}
	stats := historyService.Stats()
	log.Printf("[main] watch history loaded: %d imported title(s), %d logged id(s)", stats.ImportedTitles, stats.LoggedIDs)

	// Metadata cache is best effort: a broken database just means every
	// lookup goes to the provider.
	var cache *database.Cache
	if settings.Cache.DatabasePath != "" {
		if err := os.MkdirAll(filepath.Dir(settings.Cache.DatabasePath), 0o755); err != nil {
			log.Printf("warning: could not create cache directory: %v", err)
		}
		db, err := database.Open(settings.Cache.DatabasePath)
		if err != nil {
			log.Printf("warning: metadata cache unavailable: %v", err)
		} else {
			defer db.Close()
			cache = database.NewCache(db, time.Duration(settings.Cache.MetadataTTLHours)*time.Hour)
			if err := cache.Prune(); err != nil {
				log.Printf("warning: cache prune failed: %v", err)
			}
		}
	}

	metadataService := metadata.NewService(settings.Metadata.TMDBAPIKey, settings.Metadata.Language, cache)

	// Scoring model is optional: without one the pipeline ranks by
	// provider popularity.
	var scorer scoring.Scorer
	if settings.Scoring.ModelPath != "" {
		model, err := scoring.LoadLinearModel(settings.Scoring.ModelPath)
		if err != nil {
			log.Printf("warning: scoring model not loaded, ranking by popularity: %v", err)
		} else {
			scorer = model
			log.Printf("[main] scoring model loaded with %d feature column(s)", len(model.Columns))
		}
	}

	recommendService := recommend.NewService(historyService, metadataService, scorer)

	r := mux.NewRouter()
	api.Register(
		r,
		handlers.NewRecommendHandler(recommendService),
		handlers.NewHistoryHandler(historyService),
		handlers.NewSettingsHandler(cfgManager, metadataService, historyService),
	)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-shutdownChan
	fmt.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
