package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"menumaker/internal/app"
	"menumaker/internal/config"
	"menumaker/internal/database"
	"menumaker/internal/ghost"
	"menumaker/internal/llm"
	"menumaker/internal/terminal"

	"go.uber.org/zap"
)

func main() {
	command, args := "build", os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	configPath := fs.String("config", config.DefaultFile, "Settings file")
	var (
		date   *string
		days   *int
		meals  *string
		limit  *int
		keepUp *int
	)
	switch command {
	case "build":
		date = fs.String("date", "", "First day of the menu (YYYY-MM-DD), default next occurrence of the first rule weekday")
		days = fs.Int("days", 7, "Number of days in the menu")
	case "import":
		meals = fs.String("meals", "lunch,dinner", "Comma separated meals the recipe is served at")
	case "history":
		limit = fs.Int("limit", 5, "Number of menus to show")
	case "metrics-cleanup":
		keepUp = fs.Int("days", 30, "Keep records for the last N days")
	case "metrics":
		limit = fs.Int("days", 7, "Number of days to report")
	case "groups":
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	fs.Parse(args)

	var start time.Time
	if command == "build" {
		var err error
		if start, err = parseBuildFlags(*date, *days); err != nil {
			log.Fatalf("Invalid arguments: %v", err)
		}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(cfg.DatabasePath, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	var textGen llm.TextGenerator
	if cfg.Gemini.Enabled() {
		geminiClient, err := llm.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			logger.Fatal("Failed to initialize Gemini client", zap.Error(err))
		}
		defer geminiClient.Close()
		textGen = geminiClient
	}

	var ghostClient ghost.Client
	if cfg.Ghost.Enabled() {
		ghostClient = ghost.NewClient(cfg.Ghost.URL, cfg.Ghost.AdminKey)
	}

	application, err := app.NewApp(cfg, logger, db, textGen, ghostClient)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}

	switch command {
	case "build":
		if err := buildMenu(ctx, application, start, *days); err != nil {
			logger.Fatal("Menu build failed", zap.Error(err))
		}
	case "groups":
		done, err := application.GroupIngredients(ctx, os.Stdin, os.Stdout)
		if err != nil {
			logger.Fatal("Grouping failed", zap.Error(err))
		}
		if !done {
			fmt.Println("Some ingredients are still ungrouped; run the command again to continue.")
		}
	case "import":
		if fs.NArg() != 1 {
			fmt.Println("Usage: menumaker import [-meals lunch,dinner] <url>")
			os.Exit(1)
		}
		r, err := application.ImportRecipe(ctx, fs.Arg(0), strings.Split(*meals, ","))
		if err != nil {
			logger.Fatal("Import failed", zap.Error(err))
		}
		fmt.Printf("Added %q with %d ingredients.\n", r.Name, len(r.Ingredients))
	case "history":
		if err := printHistory(ctx, application, *limit); err != nil {
			logger.Fatal("History failed", zap.Error(err))
		}
	case "metrics":
		if err := printMetrics(ctx, application, *limit); err != nil {
			logger.Fatal("Metrics failed", zap.Error(err))
		}
	case "metrics-cleanup":
		affected, err := application.CleanupMetrics(ctx, *keepUp)
		if err != nil {
			logger.Fatal("Cleanup failed", zap.Error(err))
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)
	}
}

// parseBuildFlags checks the build flags and returns the menu start, zero when
// date is empty.
func parseBuildFlags(date string, days int) (time.Time, error) {
	if days < 1 {
		return time.Time{}, fmt.Errorf("-days must be at least 1, got %d", days)
	}
	if date == "" {
		return time.Time{}, nil
	}
	start, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("-date %q is not YYYY-MM-DD", date)
	}
	return start, nil
}

func buildMenu(ctx context.Context, application *app.App, start time.Time, days int) error {
	run, err := application.StartRun(start, days, "cli")
	if err != nil {
		return err
	}

	accepted, err := application.Review(run, terminal.NewPrompter(os.Stdin, os.Stdout))
	if err != nil {
		return err
	}
	if !accepted {
		fmt.Println("\nMenu discarded.")
		return nil
	}

	out, err := application.Finish(ctx, run)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(terminal.RenderFinal(out.Entries))
	fmt.Println(terminal.RenderShoppingList(out.ShoppingList))
	fmt.Printf("Calendar written to %s\n", out.CalendarPath)
	if out.PostURL != "" {
		fmt.Printf("Posted to %s\n", out.PostURL)
	}
	return nil
}

func printHistory(ctx context.Context, application *app.App, limit int) error {
	menus, err := application.History(ctx, limit)
	if err != nil {
		return err
	}
	if len(menus) == 0 {
		fmt.Println("No menus committed yet.")
		return nil
	}
	for _, m := range menus {
		fmt.Printf("%s  %d days, %d changes (committed %s)\n",
			m.Start.Format(time.DateOnly), m.Days, m.Rejections, m.CreatedAt.Local().Format(time.DateTime))
		for _, s := range m.Slots {
			fmt.Printf("    %s %-10s %s\n", s.ScheduledAt.Format("Mon 15:04"), s.Meal, s.Recipe)
		}
	}
	return nil
}

func printMetrics(ctx context.Context, application *app.App, days int) error {
	usage, err := application.Usage(ctx, days)
	if err != nil {
		return err
	}
	if len(usage) == 0 {
		fmt.Println("No runs recorded.")
	}
	for _, d := range usage {
		fmt.Printf("%s  %d runs, %d slots, %.0f%% rejected, avg %s\n",
			d.Date, d.Runs, d.Slots, d.RejectionRate()*100, d.AverageDuration.Round(time.Second))
	}
	fmt.Println()
	fmt.Println(application.Health())
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = lvl
	zc.DisableStacktrace = true
	return zc.Build()
}

func printUsage() {
	fmt.Println("Usage: menumaker <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  build              Build a menu, review it and commit it (default)")
	fmt.Println("  groups             Assign ungrouped ingredients to categories")
	fmt.Println("  import <url>       Add a recipe from a web page")
	fmt.Println("  history            Show recently committed menus")
	fmt.Println("  metrics            Show recent runs and system health")
	fmt.Println("  metrics-cleanup    Remove old metric records")
	fmt.Println("\nEvery command accepts -config <file> (default " + config.DefaultFile + ").")
}
