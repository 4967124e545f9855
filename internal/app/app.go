package app

import (
	"context"
	"log/slog"

	"github.com/maelig/identibot/internal/bluesky"
	"github.com/maelig/identibot/internal/config"
	"github.com/maelig/identibot/internal/db"
	"github.com/maelig/identibot/internal/gate"
	"github.com/maelig/identibot/internal/identify"
	"github.com/maelig/identibot/internal/news"
	"github.com/maelig/identibot/internal/plugin"
)

// App is the main application container holding all dependencies.
type App struct {
	Config   *config.Config
	Store    *db.Store
	Client   *bluesky.Client
	Registry *plugin.Registry
	News     *news.Buffer
	Cache    *news.SummaryCache
	Gate     *gate.Gate

	// MentionPlugins lists the plugins the firehose watcher triggers.
	MentionPlugins []string
}

// New creates a new application instance with all dependencies wired up.
// Plugins whose question lists or credentials are missing register as not
// ready instead of failing the whole boot.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := db.NewStore(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	client := bluesky.NewClient(bluesky.Config{
		Handle:      cfg.BlueskyHandle,
		AppPassword: cfg.BlueskyAppPassword,
		PDS:         cfg.BlueskyPDS,
	})

	plantProvider := identify.NewPlantnet(identify.PlantnetConfig{
		APIKey:   cfg.PlantnetAPIKey,
		MinScore: config.PlantMinScore,
	})
	birdProvider := identify.NewBird(identify.BirdConfig{
		APIKey:   cfg.BirdAPIKey,
		BaseURL:  cfg.BirdAPIURL,
		MinScore: config.BirdMinScore,
		Ref:      identify.NewSpeciesRef(""),
	})

	newsBuffer := news.NewBuffer(cfg.NewsBufferSize)
	cache := news.NewSummaryCache(cfg.SummaryCacheTTL)

	registry := plugin.NewRegistry()
	registry.Register(plugin.NewPlantnet(plugin.PlantnetConfig{
		Questions:   loadQuestions(cfg, "plant", cfg.PlantnetAPIKey != ""),
		Platform:    client,
		Provider:    plantProvider,
		MaxHoursOld: cfg.MaxHoursOld,
	}))
	registry.Register(plugin.NewAskPlantnet(plugin.PlantnetConfig{
		Questions:   loadQuestions(cfg, "ask_plant", cfg.PlantnetAPIKey != ""),
		Platform:    client,
		Provider:    plantProvider,
		MaxHoursOld: cfg.MaxHoursOld,
	}))
	registry.Register(plugin.NewBird(plugin.BirdConfig{
		Questions:   loadQuestions(cfg, "bird", cfg.BirdAPIKey != ""),
		Platform:    client,
		Provider:    birdProvider,
		MaxHoursOld: cfg.MaxHoursOld,
	}))
	registry.Register(plugin.NewAskBird(plugin.BirdConfig{
		Questions:   loadQuestions(cfg, "ask_bird", cfg.BirdAPIKey != ""),
		Platform:    client,
		Provider:    birdProvider,
		MaxHoursOld: cfg.MaxHoursOld,
	}))
	registry.Register(plugin.NewDailyPhoto(plugin.DailyPhotoConfig{
		Questions:   loadQuestions(cfg, "photo", true),
		Platform:    client,
		MaxHoursOld: cfg.MaxHoursOld,
	}))
	registry.Register(plugin.NewHousekeeping(plugin.HousekeepingConfig{
		Mutes: client,
		News:  newsBuffer,
		Audit: store,
	}))

	g := gate.New(gate.Config{
		MinInterval: cfg.MinDispatchInterval,
		Registry:    registry,
		News:        newsBuffer,
		Cache:       cache,
		Audit:       store,
	})

	return &App{
		Config:         cfg,
		Store:          store,
		Client:         client,
		Registry:       registry,
		News:           newsBuffer,
		Cache:          cache,
		Gate:           g,
		MentionPlugins: []string{"AskPlantnet", "AskBird"},
	}, nil
}

// Close closes all resources.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// loadQuestions reads a plugin's question list; a missing list or a missing
// upstream credential leaves the plugin not ready (empty list) rather than
// aborting startup.
func loadQuestions(cfg *config.Config, name string, credentialed bool) []string {
	if !credentialed {
		slog.Warn("plugin credential missing, plugin will not be ready", "questions", name)
		return nil
	}
	questions, err := config.LoadQuestions(cfg.QuestionsDir, name)
	if err != nil {
		slog.Warn("question list unavailable, plugin will not be ready", "questions", name, "error", err)
		return nil
	}
	return questions
}
