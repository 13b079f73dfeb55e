package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/do/v2"

	"github.com/five82/pantry/internal/config"
	"github.com/five82/pantry/internal/favorites"
	"github.com/five82/pantry/internal/prefs"
	"github.com/five82/pantry/internal/search"
	"github.com/five82/pantry/internal/state"
	"github.com/five82/pantry/internal/ui"
)

// Options configure the Pantry application.
type Options struct {
	ConfigPath   string
	PrefsPath    string        // empty uses default ~/.config/pantry/prefs.toml
	RefreshEvery time.Duration // overrides refresh_interval when positive
}

// Run boots the Pantry TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	injector := NewContainer(opts.ConfigPath)

	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		return fmt.Errorf("load pantry config: %w", err)
	}
	log, err := do.Invoke[*LoggerHandle](injector)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer func() {
		if report := injector.Shutdown(); report != nil {
			log.Debug("container shutdown", "report", report)
		}
	}()

	favs, err := do.Invoke[*favorites.Store](injector)
	if err != nil {
		return fmt.Errorf("open favorites: %w", err)
	}
	index, err := do.Invoke[*search.Index](injector)
	if err != nil {
		return fmt.Errorf("init search index: %w", err)
	}
	store, err := do.Invoke[*state.Store](injector)
	if err != nil {
		return fmt.Errorf("init state: %w", err)
	}

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		log.Warn("preferences ignored", "error", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	followDone := make(chan struct{})
	go func() {
		defer close(followDone)
		if err := search.Follow(runCtx, index, favs.Observe()); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("favorites index stopped", "error", err)
		}
	}()

	// Prime the home screen before the first frame.
	store.RequestCategories()
	store.RequestPopularItems()
	store.RequestRandomMeal()

	interval := cfg.RefreshInterval
	if opts.RefreshEvery > 0 {
		interval = opts.RefreshEvery
	}
	rotationDone := StartRotation(runCtx, store, interval)

	uiErr := ui.Run(ui.Options{
		Context:      runCtx,
		Store:        store,
		Search:       index,
		Config:       cfg,
		ThemeName:    userPrefs.Theme,
		LastCategory: userPrefs.LastCategory,
		PrefsPath:    opts.PrefsPath,
		Logger:       log.With("component", "ui"),
	})

	cancel()
	<-rotationDone
	<-followDone

	if uiErr != nil {
		return fmt.Errorf("run ui: %w", uiErr)
	}
	log.Info("pantry stopped")
	return nil
}
