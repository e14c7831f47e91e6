package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"baba-meal-planner/internal/app"
	"baba-meal-planner/internal/config"
	"baba-meal-planner/internal/planner"
	"baba-meal-planner/internal/prefs"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "plan":
		runPlan(ctx, cfg, os.Args[2:])
	case "prefs":
		runPrefs(ctx, cfg, os.Args[2:])
	case "shopping-list":
		runShoppingList(ctx, cfg, os.Args[2:])
	case "metrics-cleanup":
		runMetricsCleanup(ctx, cfg, os.Args[2:])
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runPlan(ctx context.Context, cfg *config.Config, args []string) {
	planCmd := flag.NewFlagSet("plan", flag.ExitOnError)
	userID := planCmd.String("user", "cli", "User ID to plan for")
	daily := planCmd.Bool("daily", false, "Plan a single day instead of a week")
	variety := planCmd.String("variety", "", "Variety policy (varied, same_every_day, same_every_week, leftovers, meal_prep_sunday)")
	slots := planCmd.String("slots", "", "Comma-separated slots (breakfast,lunch,dinner,snack)")
	shopping := planCmd.Bool("shopping", true, "Include a consolidated shopping list")
	reuse := planCmd.Bool("reuse", false, "Repeat last week's plan")
	planCmd.Parse(args)

	if planCmd.NArg() < 1 {
		fmt.Println("Usage: baba-planner plan [flags] \"<what you want to eat>\"")
		os.Exit(1)
	}

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	req := planner.PlanRequest{
		MealPlanPrompt:      strings.Join(planCmd.Args(), " "),
		Type:                planner.PlanWeekly,
		Variety:             planner.VarietyPolicy(*variety),
		IncludeShoppingList: *shopping,
		ReuseLastWeek:       *reuse,
	}
	if *daily {
		req.Type = planner.PlanDaily
	}
	if *slots != "" {
		for _, s := range strings.Split(*slots, ",") {
			req.Slots = append(req.Slots, planner.TimeSlot(strings.TrimSpace(s)))
		}
	}

	stored, err := application.PrefsRepo.Get(ctx, *userID)
	if err != nil {
		log.Printf("Warning: could not read preferences for user %s: %v", *userID, err)
	}
	req = prefs.Resolve(req, stored)

	result, err := application.GenerateAndRecord(ctx, *userID, req, consoleSink{})
	if err != nil {
		log.Fatalf("Plan generation failed: %v", err)
	}

	fmt.Println()
	fmt.Println(result.PlainText)
	fmt.Printf("Plan saved as %s\n", result.PlanID)
}

// consoleSink prints one line per slot as the plan is cooked up.
type consoleSink struct{}

func (consoleSink) Emit(e planner.ProgressEvent) {
	if e.DayLabel != "" {
		fmt.Printf("[%d/%d] %s %s: %s\n", e.RunningIndex, e.Total, e.DayLabel, e.SlotLabel, e.RecipeName)
		return
	}
	fmt.Printf("[%d/%d] %s: %s\n", e.RunningIndex, e.Total, e.SlotLabel, e.RecipeName)
}

func runPrefs(ctx context.Context, cfg *config.Config, args []string) {
	prefsCmd := flag.NewFlagSet("prefs", flag.ExitOnError)
	userID := prefsCmd.String("user", "cli", "User ID")
	set := prefsCmd.String("set", "", "JSON preferences document to store")
	prefsCmd.Parse(args)

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	if *set != "" {
		var p prefs.UserPreferences
		if err := json.Unmarshal([]byte(*set), &p); err != nil {
			log.Fatalf("Invalid preferences JSON: %v", err)
		}
		p.UserID = *userID
		if err := application.PrefsRepo.Upsert(ctx, &p); err != nil {
			log.Fatalf("Failed to save preferences: %v", err)
		}
		fmt.Printf("Preferences saved for user %s\n", *userID)
		return
	}

	stored, err := application.PrefsRepo.Get(ctx, *userID)
	if err != nil {
		log.Fatalf("Failed to read preferences: %v", err)
	}
	if stored == nil {
		fmt.Printf("No preferences stored for user %s\n", *userID)
		return
	}
	out, _ := json.MarshalIndent(stored, "", "  ")
	fmt.Println(string(out))
}

func runShoppingList(ctx context.Context, cfg *config.Config, args []string) {
	listCmd := flag.NewFlagSet("shopping-list", flag.ExitOnError)
	planID := listCmd.String("plan", "", "Plan ID to show the shopping list for")
	listCmd.Parse(args)

	if *planID == "" {
		fmt.Println("Usage: baba-planner shopping-list -plan <plan-id>")
		os.Exit(1)
	}

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	list, err := application.ShoppingRepo.GetByMealPlanID(ctx, *planID)
	if err != nil {
		log.Fatalf("Failed to read shopping list: %v", err)
	}
	if list == nil {
		fmt.Printf("No shopping list stored for plan %s\n", *planID)
		return
	}
	fmt.Println(list.Rendered)
}

func runMetricsCleanup(ctx context.Context, cfg *config.Config, args []string) {
	cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
	days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
	cleanupCmd.Parse(args)

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	if err := application.MetricsStore.Cleanup(*days); err != nil {
		log.Fatalf("Cleanup failed: %v", err)
	}
	fmt.Printf("Removed metric records older than %d days.\n", *days)
}

func printUsage() {
	fmt.Println("Usage: baba-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  plan               Generate a meal plan from a free-text request")
	fmt.Println("  prefs              Show or set stored user preferences")
	fmt.Println("  shopping-list      Print the stored shopping list for a plan")
	fmt.Println("  metrics-cleanup    Remove old metric records")
}
