package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"mealhow/internal/app"
	"mealhow/internal/config"
	"mealhow/internal/dietplan"
	"mealhow/internal/functions"
	"mealhow/internal/logger"
	"mealhow/internal/planner"
	"mealhow/internal/shopping"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logr, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logr.Sync()

	// Token signing needs no services.
	if os.Args[1] == "sign-token" {
		signToken(cfg, os.Args[2:])
		return
	}

	ctx := context.Background()
	application, err := app.New(ctx, cfg, logr)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer application.Close()

	if err := run(ctx, application, os.Args[1], os.Args[2:]); err != nil {
		application.Close()
		log.Fatalf("%s failed: %v", os.Args[1], err)
	}
}

func run(ctx context.Context, a *app.App, cmd string, args []string) error {
	switch cmd {
	case "generate-plan":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		kcal := fs.Int("kcal", 0, "Daily calories goal")
		user := fs.String("user", "cli", "User id owning the plan")
		protein := fs.Int("protein", 0, "Daily protein goal in grams")
		prep := fs.Int("prep", 0, "Maximum preparation time in minutes")
		cuisines := fs.String("cuisines", "", "Comma separated preferred cuisines")
		avoid := fs.String("avoid", "", "Comma separated ingredients to avoid")
		health := fs.String("health", "", "Comma separated health issues")
		fs.Parse(args)

		input := dietplan.PromptInput{
			CaloriesGoal:       *kcal,
			PreferredCuisines:  splitList(*cuisines),
			IngredientsToAvoid: splitList(*avoid),
			HealthIssues:       splitList(*health),
		}
		if *protein > 0 {
			input.ProteinGoal = protein
		}
		if *prep > 0 {
			input.PreparationTime = prep
		}
		plan, err := a.Plans.Generate(ctx, planner.Request{UserID: *user, Input: input})
		if err != nil {
			return err
		}
		return printJSON(plan)

	case "generate-recipe":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		mealID := fs.String("meal", "", "Meal id, e.g. oats-400")
		fs.Parse(args)
		if *mealID == "" {
			return fmt.Errorf("-meal is required")
		}
		rec, err := a.Recipes.Generate(ctx, *mealID)
		if err != nil {
			return err
		}
		return printJSON(rec)

	case "generate-shopping-list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		listID := fs.String("list", "", "Existing shopping list id; a new list is created when empty")
		user := fs.String("user", "cli", "User id owning a new list")
		meals := fs.String("meals", "", "Comma separated meal ids")
		fs.Parse(args)

		if *listID == "" {
			list := &shopping.ShoppingList{UserID: *user}
			if err := a.ShoppingLists.Create(ctx, list); err != nil {
				return err
			}
			*listID = list.ID
		}
		list, err := a.Shopping.Generate(ctx, *listID, splitList(*meals))
		if err != nil {
			return err
		}
		return printJSON(list)

	case "thumbnails":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		bucket := fs.String("bucket", "", "Bucket of the source image")
		name := fs.String("name", "", "Object name of the source image")
		fs.Parse(args)
		if *bucket == "" || *name == "" {
			return fmt.Errorf("-bucket and -name are required")
		}
		keys, err := a.Thumbnails.Convert(ctx, *bucket, *name)
		if err != nil {
			return err
		}
		return printJSON(keys)

	case "metrics-cleanup":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		days := fs.Int("days", 30, "Keep records for the last N days")
		fs.Parse(args)

		affected, err := a.Metrics.Cleanup(ctx, *days)
		if err != nil {
			return err
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)
		return nil

	case "usage":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		days := fs.Int("days", 7, "Number of days to report")
		fs.Parse(args)

		usage, err := a.Metrics.GetDailyUsage(ctx, *days)
		if err != nil {
			return err
		}
		return printJSON(usage)

	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func signToken(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("sign-token", flag.ExitOnError)
	sub := fs.String("sub", "", "Token subject, used as the default user id")
	ttl := fs.Duration("ttl", time.Hour, "Token lifetime")
	fs.Parse(args)

	if cfg.TriggerSigningKey == "" {
		log.Fatalf("TRIGGER_SIGNING_KEY is not set")
	}
	token, err := functions.SignTriggerToken(cfg.TriggerSigningKey, *sub, *ttl)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printUsage() {
	fmt.Println("Usage: mealhow <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  generate-plan           Generate and store a meal plan (-kcal, -user, -protein, -prep, -cuisines, -avoid, -health)")
	fmt.Println("  generate-recipe         Generate the recipe of a stored meal (-meal)")
	fmt.Println("  generate-shopping-list  Fill a shopping list from meals (-list, -user, -meals)")
	fmt.Println("  thumbnails              Render thumbnails of a stored image (-bucket, -name)")
	fmt.Println("  metrics-cleanup         Remove old execution metrics (-days)")
	fmt.Println("  usage                   Print daily token usage (-days)")
	fmt.Println("  sign-token              Print a bearer token for the HTTP triggers (-sub, -ttl)")
}
