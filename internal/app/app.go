package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"mealhow/internal/config"
	"mealhow/internal/database"
	"mealhow/internal/dietplan"
	"mealhow/internal/functions"
	"mealhow/internal/llm"
	"mealhow/internal/logger"
	"mealhow/internal/meal"
	"mealhow/internal/metrics"
	"mealhow/internal/planner"
	"mealhow/internal/recipe"
	"mealhow/internal/shopping"
	"mealhow/internal/storage"
	"mealhow/internal/telegram"
	"mealhow/internal/thumbnail"
)

// Agent names under which token usage is recorded.
const (
	AgentPlanner  = "MealPlanner"
	AgentRecipe   = "RecipeWriter"
	AgentShopping = "ShoppingListWriter"
)

// App holds the application's dependencies.
type App struct {
	cfg *config.Config
	log *logger.Logger

	Store   storage.ObjectStore
	Metrics *metrics.Store

	PlanRepo      *planner.PlanRepository
	Meals         *meal.Repository
	RecipeRepo    *recipe.Repository
	ShoppingLists *shopping.Repository

	Plans      *planner.Service
	Recipes    *recipe.Service
	Shopping   *shopping.Service
	Thumbnails *thumbnail.Converter
	Bot        *telegram.Bot

	closers []io.Closer
}

// New wires every service from the configuration. The Telegram bot is only
// created when a bot token is configured.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}
	if err := a.init(ctx); err != nil {
		if closeErr := a.Close(); closeErr != nil {
			log.Warn("Failed to release resources", "error", closeErr)
		}
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg, log := a.cfg, a.log
	httpClient := &http.Client{Timeout: 5 * time.Minute}

	db, err := database.NewDB(cfg.DatabasePath, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a.closers = append(a.closers, db)

	a.Metrics = metrics.NewStore(db.SQL)
	a.PlanRepo = planner.NewPlanRepository(db.SQL)
	a.Meals = meal.NewRepository(db.SQL)
	a.RecipeRepo = recipe.NewRepository(db.SQL)
	a.ShoppingLists = shopping.NewRepository(db.SQL)

	store, err := a.newStore(ctx)
	if err != nil {
		return err
	}
	a.Store = store

	openAI := llm.NewOpenAIClient(cfg, httpClient)
	var base llm.TextGenerator = openAI
	if cfg.LLMProvider == config.ProviderGemini {
		gemini, err := llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, gemini)
		base = gemini
	}

	generator := dietplan.NewGenerator(a.textGenerator(base, AgentPlanner), dietplan.GeneratorOptions{
		Variants:   cfg.PlanVariants,
		PlanLength: cfg.PlanLength,
		Policy:     failurePolicy(cfg.PlanFailurePolicy),
	}, log)
	images := meal.NewImageService(cfg, a.Meals, openAI, store, httpClient, log)

	a.Plans = planner.NewService(a.PlanRepo, generator, images, log)
	a.Recipes = recipe.NewService(a.Meals, a.RecipeRepo, a.textGenerator(base, AgentRecipe), log)
	a.Shopping = shopping.NewService(a.ShoppingLists, a.Meals, a.RecipeRepo, a.textGenerator(base, AgentShopping), log)
	a.Thumbnails = thumbnail.NewConverter(cfg, store, log)

	if cfg.TelegramBotToken != "" {
		bot, err := telegram.NewBot(cfg, telegram.Deps{
			Plans:         a.Plans,
			PlanStore:     a.PlanRepo,
			ShoppingLists: a.ShoppingLists,
			Shopping:      a.Shopping,
			Usage:         a.Metrics,
			DataDir:       a.DataDir(),
		}, log)
		if err != nil {
			return fmt.Errorf("failed to initialize telegram bot: %w", err)
		}
		a.Bot = bot
	}
	return nil
}

func (a *App) newStore(ctx context.Context) (storage.ObjectStore, error) {
	if a.cfg.StorageBackend == config.StorageFS {
		store, err := storage.NewFSStore(a.cfg.StorageFSRoot)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file storage: %w", err)
		}
		return store, nil
	}

	store, err := storage.NewGCSStore(ctx, a.log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloud storage: %w", err)
	}
	a.closers = append(a.closers, store)
	return store, nil
}

// textGenerator records usage of every attempt and retries rejected completions.
func (a *App) textGenerator(base llm.TextGenerator, agent string) llm.TextGenerator {
	recorded := metrics.NewRecordingGenerator(base, a.Metrics, agent, a.log)
	return llm.NewQualityGate(recorded, a.cfg.CompletionTries, a.cfg.CompletionSleep, a.log.With("agent", agent))
}

func failurePolicy(name string) dietplan.FailurePolicy {
	if name == config.FailurePolicyTolerate {
		return dietplan.TolerateFailures
	}
	return dietplan.FailFast
}

// DataDir is the directory holding the document store.
func (a *App) DataDir() string {
	return filepath.Dir(a.cfg.DatabasePath)
}

// Server exposes the services over HTTP.
func (a *App) Server() *functions.Server {
	services := functions.Services{
		Plans:         a.Plans,
		Recipes:       a.Recipes,
		ShoppingLists: a.Shopping,
		Thumbnails:    a.Thumbnails,
		DataDir:       a.DataDir(),
	}
	if a.Bot != nil {
		services.Telegram = a.Bot
	}
	return functions.NewServer(a.cfg, services, a.log)
}

// Close releases resources in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
