package app

import (
	"context"
	"fmt"
	"log"

	"baba-meal-planner/internal/config"
	"baba-meal-planner/internal/database"
	"baba-meal-planner/internal/llm"
	"baba-meal-planner/internal/metrics"
	"baba-meal-planner/internal/planner"
	"baba-meal-planner/internal/prefs"
	"baba-meal-planner/internal/recipe"
	"baba-meal-planner/internal/shopping"
)

// App holds the application's dependencies.
type App struct {
	DB           *database.DB
	Gemini       llm.GeminiClient
	Planner      *planner.Planner
	RecipeRepo   *recipe.Repository
	PlanRepo     *planner.PlanRepository
	ShoppingRepo *shopping.Repository
	PrefsRepo    *prefs.Repository
	MetricsStore *metrics.Store
	Cfg          *config.Config
}

// NewApp opens the database and wires every service the binaries share.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	geminiClient, err := llm.NewGeminiClient(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	consolidatorModel := llm.NewGroqClient(cfg, llm.ModelConsolidator, 0.1)

	recipeRepo := recipe.NewRepository(db.SQL)
	planRepo := planner.NewPlanRepository(db.SQL)
	shoppingRepo := shopping.NewRepository(db.SQL)
	prefsRepo := prefs.NewRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)

	synthesizer := recipe.NewSynthesizer(geminiClient)
	consolidator := shopping.NewConsolidator(consolidatorModel)

	mealPlanner := planner.NewPlanner(
		planRepo,
		recipeRepo,
		synthesizer,
		consolidator,
		shoppingRepo,
		geminiClient,
	)

	return &App{
		DB:           db,
		Gemini:       geminiClient,
		Planner:      mealPlanner,
		RecipeRepo:   recipeRepo,
		PlanRepo:     planRepo,
		ShoppingRepo: shoppingRepo,
		PrefsRepo:    prefsRepo,
		MetricsStore: metricsStore,
		Cfg:          cfg,
	}, nil
}

// Close releases the database and model clients.
func (a *App) Close() {
	if err := a.Gemini.Close(); err != nil {
		log.Printf("Warning: failed to close Gemini client: %v", err)
	}
	if err := a.DB.Close(); err != nil {
		log.Printf("Warning: failed to close database: %v", err)
	}
}

// GenerateAndRecord runs one plan generation and records its model usage.
func (a *App) GenerateAndRecord(ctx context.Context, userID string, req planner.PlanRequest, sink planner.ProgressSink) (*planner.PlanResult, error) {
	result, metas, err := a.Planner.GeneratePlan(ctx, userID, req, sink)
	for _, m := range metas {
		if rerr := a.MetricsStore.RecordMeta(m); rerr != nil {
			log.Printf("Warning: failed to record metric for %s: %v", m.AgentName, rerr)
		}
	}
	return result, err
}
