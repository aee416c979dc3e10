package app

import (
	"context"
	"fmt"
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/luckyfind/internal/catalog"
	"github.com/five82/luckyfind/internal/config"
	"github.com/five82/luckyfind/internal/discogs"
	"github.com/five82/luckyfind/internal/navigation"
	"github.com/five82/luckyfind/internal/prefs"
	"github.com/five82/luckyfind/internal/requests"
	"github.com/five82/luckyfind/internal/state"
	"github.com/five82/luckyfind/internal/ui"
)

// Options configure the LuckyFind application.
type Options struct {
	ConfigPath string // empty uses ~/.config/luckyfind/config.toml
	PrefsPath  string // empty uses ~/.config/luckyfind/prefs.toml
	DebugLog   string // overrides the config file's debug_log
}

// Run boots the LuckyFind TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	closeLog, err := setupLogging(opts.DebugLog, cfg.DebugLog)
	if err != nil {
		return err
	}
	defer closeLog()

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		log.Printf("load prefs: %v", err)
	}

	store := &state.Store{}
	client, err := discogs.NewClient(discogs.Options{
		BaseURL: cfg.BaseURL,
		Credentials: discogs.Credentials{
			Token:  cfg.DiscogsToken,
			Key:    cfg.DiscogsKey,
			Secret: cfg.DiscogsSecret,
		},
		UserAgent:   cfg.UserAgent,
		OnRateLimit: store.ObserveRateLimit,
	})
	if err != nil {
		return fmt.Errorf("init discogs client: %w", err)
	}
	if !client.Authenticated() {
		log.Printf("no discogs credentials configured; search will be rejected")
	}

	coord := requests.New(requests.Config{
		MaxEntries: cfg.CacheMax,
		DefaultTTL: cfg.CacheTTL,
	})
	defer coord.CancelAll()

	svc, err := catalog.New(catalog.Options{
		Fetcher:     client,
		Coordinator: coord,
		Health:      store,
		PerPage:     cfg.PerPage,
	})
	if err != nil {
		return fmt.Errorf("init catalog: %w", err)
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	swept := StartSweeper(sweepCtx, coord, cfg.SweepInterval)
	defer func() {
		stopSweep()
		<-swept
	}()

	return ui.Run(ui.Options{
		Context:       ctx,
		Catalog:       svc,
		Guard:         navigation.New(navigation.Config{}),
		Health:        store,
		ThemeName:     userPrefs.Theme,
		PrefsPath:     opts.PrefsPath,
		InitialQuery:  userPrefs.LastQuery,
		Authenticated: client.Authenticated(),
	})
}

// setupLogging sends log output to the debug log file, or discards it. The
// terminal belongs to the UI either way.
func setupLogging(flagPath, configPath string) (func(), error) {
	path := flagPath
	if path == "" {
		path = configPath
	}
	if path == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	f, err := tea.LogToFile(path, "luckyfind")
	if err != nil {
		return nil, fmt.Errorf("open debug log: %w", err)
	}
	return func() { _ = f.Close() }, nil
}
