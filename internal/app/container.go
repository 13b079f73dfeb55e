package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/samber/do/v2"

	"github.com/five82/pantry/internal/config"
	"github.com/five82/pantry/internal/favorites"
	"github.com/five82/pantry/internal/logger"
	"github.com/five82/pantry/internal/mealdb"
	"github.com/five82/pantry/internal/search"
	"github.com/five82/pantry/internal/state"
)

// LoggerHandle owns the session logger and the file it writes to.
type LoggerHandle struct {
	*slog.Logger
	file *os.File
}

// Shutdown implements do.Shutdownable.
func (h *LoggerHandle) Shutdown() error {
	if h.file == nil {
		return nil
	}
	return h.file.Close()
}

// NewContainer registers every Pantry service. Nothing is constructed until
// it is first invoked.
func NewContainer(configPath string) *do.RootScope {
	injector := do.New()

	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		return &cfg, nil
	})
	do.Provide(injector, ProvideLogger)
	do.Provide(injector, ProvideMealClient)
	do.Provide(injector, ProvideFavorites)
	do.Provide(injector, ProvideSearchIndex)
	do.Provide(injector, ProvideStateStore)

	return injector
}

// ProvideLogger opens the log file under the data directory.
func ProvideLogger(i do.Injector) (*LoggerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	file, err := logger.OpenFile(cfg.LogPath())
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{
		Writer: file,
		Format: cfg.LogFormat,
		Level:  logger.ParseLevel(cfg.LogLevel),
	})
	log.Info("starting pantry",
		"api_base_url", cfg.APIBaseURL,
		"data_dir", cfg.DataDir,
		"ordering", cfg.Ordering,
	)
	return &LoggerHandle{Logger: log, file: file}, nil
}

// ProvideMealClient provides the rate limited TheMealDB client.
func ProvideMealClient(i do.Injector) (*mealdb.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)

	client, err := mealdb.NewClient(mealdb.Options{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.RequestTimeout,
		RateLimit: cfg.RateLimit,
		Logger:    log.With("component", "mealdb"),
	})
	if err != nil {
		return nil, fmt.Errorf("init meal client: %w", err)
	}
	return client, nil
}

// ProvideFavorites opens the favorites database.
func ProvideFavorites(i do.Injector) (*favorites.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	store, err := favorites.Open(cfg.DatabasePath(), log.With("component", "favorites"))
	if err != nil {
		return nil, err
	}
	return store, nil
}

// ProvideSearchIndex provides the in-memory favorites index.
func ProvideSearchIndex(i do.Injector) (*search.Index, error) {
	log := do.MustInvoke[*LoggerHandle](i)
	return search.New(log.With("component", "search"))
}

// ProvideStateStore provides the screen state shared by the UI and the
// rotation poller.
func ProvideStateStore(i do.Injector) (*state.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)
	client := do.MustInvoke[*mealdb.Client](i)
	favs := do.MustInvoke[*favorites.Store](i)

	return state.New(client, favs, state.Options{
		Ordering:        state.ParseOrdering(cfg.Ordering),
		PopularCategory: cfg.PopularCategory,
		Logger:          log.With("component", "state"),
	}), nil
}
