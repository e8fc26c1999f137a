// Package app wires the planner core to the files, database and exports around it.
package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"menumaker/internal/apperrors"
	"menumaker/internal/calendar"
	"menumaker/internal/clipper"
	"menumaker/internal/config"
	"menumaker/internal/database"
	"menumaker/internal/ghost"
	"menumaker/internal/groups"
	"menumaker/internal/llm"
	"menumaker/internal/metrics"
	"menumaker/internal/planner"
	"menumaker/internal/recipe"
	"menumaker/internal/shopping"
	"menumaker/internal/storage"
	"menumaker/internal/terminal"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// App holds the application's dependencies.
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	loc    *time.Location

	menuRepo      *planner.MenuRepository
	shoppingRepo  *shopping.Repository
	metricsStore  *metrics.Store
	exporter      *calendar.Exporter
	recipeClipper *clipper.Clipper
	ghostClient   ghost.Client
	textGen       llm.TextGenerator

	runWizard func(context.Context, *groups.Consolidator, groups.SuggestFunc, io.Reader, io.Writer) (bool, error)
	now       func() time.Time
}

// NewApp creates and initializes a new App instance. textGen and ghostClient are
// optional and may be nil.
func NewApp(
	cfg *config.Config,
	logger *zap.Logger,
	db *database.DB,
	textGen llm.TextGenerator,
	ghostClient ghost.Client,
) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &App{
		cfg:           cfg,
		logger:        logger,
		loc:           loc,
		menuRepo:      planner.NewMenuRepository(db.SQL),
		shoppingRepo:  shopping.NewRepository(db.SQL),
		metricsStore:  metrics.NewStore(db.SQL),
		exporter:      calendar.NewExporter(cfg.Path(cfg.MenusDir), loc, cfg.MealDuration),
		recipeClipper: clipper.NewClipper(textGen),
		ghostClient:   ghostClient,
		textGen:       textGen,
		runWizard:     groups.Run,
		now:           time.Now,
	}, nil
}

// Run is one menu being built, reviewed and committed.
type Run struct {
	ID      string
	Source  string
	Started time.Time
	Catalog *recipe.Catalog
	Session *planner.Session
}

// Menu returns the menu under review.
func (r *Run) Menu() *planner.Menu {
	return r.Session.Menu()
}

// Entries resolves the current slots against the catalog.
func (r *Run) Entries() ([]planner.Entry, error) {
	return r.Session.Menu().Entries(r.Catalog)
}

// Outcome is what a committed run produced.
type Outcome struct {
	Entries      []planner.Entry
	ShoppingList *shopping.ShoppingList
	CalendarPath string
	PostURL      string
}

// Today returns the current date in the configured timezone.
func (a *App) Today() time.Time {
	return planner.DateOf(a.now().In(a.loc))
}

// DefaultStart is the first date a menu starts on when none is given: the next
// occurrence of the first weekday the rule declares.
func (a *App) DefaultStart(rule *planner.WeeklyRule) time.Time {
	return planner.NextOccurrence(a.Today(), rule.FirstWeekday())
}

// StartRun loads the data files and builds a menu of days days from start. A zero
// start picks DefaultStart and zero days means planner.DefaultDays.
func (a *App) StartRun(start time.Time, days int, source string) (*Run, error) {
	grp, err := storage.LoadGroups(a.cfg.Path(a.cfg.GroupsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to load groups: %w", err)
	}
	rule, err := storage.LoadRules(a.cfg.Path(a.cfg.RulesFile), grp)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	catalog, err := storage.LoadCatalog(a.cfg.Path(a.cfg.RecipesFile), grp)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}

	if start.IsZero() {
		start = a.DefaultStart(rule)
	}
	switch {
	case days < 0:
		return nil, fmt.Errorf("%w: menu length must be positive, got %d days", apperrors.ErrConfig, days)
	case days == 0:
		days = planner.DefaultDays
	}

	menu, err := planner.Build(rule, start, days, catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to build menu: %w", err)
	}

	run := &Run{
		ID:      uuid.NewString(),
		Source:  source,
		Started: a.now(),
		Catalog: catalog,
		Session: planner.NewSession(menu, catalog, a.cfg.CursorPolicy()),
	}
	a.logger.Info("Menu built",
		zap.String("run_id", run.ID),
		zap.String("start", menu.Start.Format(time.DateOnly)),
		zap.String("end", menu.End().Format(time.DateOnly)),
		zap.Int("days", days),
		zap.Int("slots", len(menu.Slots)),
		zap.Int("recipes", catalog.Len()))
	return run, nil
}

// Prompter is the line-based conversation Review runs over.
type Prompter interface {
	Show(text string)
	ReadCommand() (string, error)
}

// Review runs the revision loop until the menu is accepted. It returns false when the
// input ends first; nothing is persisted in that case.
func (a *App) Review(run *Run, p Prompter) (bool, error) {
	highlight := -1
	for {
		entries, err := run.Entries()
		if err != nil {
			return false, err
		}
		p.Show(terminal.RenderMenu(entries, highlight))

		cmd, err := p.ReadCommand()
		if err != nil {
			if terminal.IsEOF(err) {
				a.logger.Info("Input closed before the menu was accepted", zap.String("run_id", run.ID))
				return false, nil
			}
			return false, err
		}

		res, err := run.Session.Submit(cmd)
		if err != nil {
			return false, err
		}
		switch {
		case res.State == planner.Accepted:
			return true, nil
		case res.Revised:
			highlight = res.Slot
			a.logger.Debug("Slot revised", zap.String("run_id", run.ID), zap.Int("slot", res.Slot),
				zap.Int("cursor", run.Session.Cursor(res.Slot)))
		default:
			highlight = -1
		}
	}
}

// Finish commits an accepted run: the catalog bookkeeping is updated and saved, the
// menu log appended, and the history, shopping list, metrics and calendar written.
// Ghost publishing happens last when a client is configured.
func (a *App) Finish(ctx context.Context, run *Run) (*Outcome, error) {
	if run.Session.State() != planner.Accepted {
		return nil, fmt.Errorf("failed to finish run %s: menu not accepted", run.ID)
	}
	menu := run.Menu()

	if err := planner.Commit(run.Catalog, menu.Slots); err != nil {
		return nil, fmt.Errorf("failed to commit menu: %w", err)
	}
	entries, err := run.Entries()
	if err != nil {
		return nil, err
	}
	if err := storage.SaveCatalog(a.cfg.Path(a.cfg.RecipesFile), run.Catalog); err != nil {
		return nil, err
	}
	if err := storage.AppendMenuLog(a.cfg.Path(a.cfg.MenuLogFile), entries); err != nil {
		return nil, err
	}

	recipes := make([]recipe.Recipe, len(entries))
	for i, e := range entries {
		recipes[i] = e.Recipe
	}
	out := &Outcome{
		Entries:      entries,
		ShoppingList: shopping.FromRecipes(run.ID, recipes, run.Catalog.Groups()),
	}

	stored, err := planner.NewStoredMenu(run.ID, menu, run.Catalog, run.Session.Rejections())
	if err != nil {
		return nil, err
	}
	if err := a.menuRepo.Save(ctx, stored); err != nil {
		a.logger.Warn("Failed to save menu history", zap.String("run_id", run.ID), zap.Error(err))
	}
	if _, err := a.shoppingRepo.Save(ctx, out.ShoppingList); err != nil {
		a.logger.Warn("Failed to save shopping list", zap.String("run_id", run.ID), zap.Error(err))
	}
	if err := a.metricsStore.Record(ctx, metrics.RunMetric{
		RunID:      run.ID,
		Source:     run.Source,
		Slots:      len(menu.Slots),
		Rejections: run.Session.Rejections(),
		Duration:   a.now().Sub(run.Started),
	}); err != nil {
		a.logger.Warn("Failed to record run metrics", zap.String("run_id", run.ID), zap.Error(err))
	}

	if out.CalendarPath, err = a.exporter.Export(menu.Start, entries, out.ShoppingList); err != nil {
		return nil, err
	}

	if a.ghostClient != nil {
		if out.PostURL, err = a.publish(ctx, menu.Start, entries, out.ShoppingList); err != nil {
			a.logger.Warn("Failed to publish menu", zap.String("run_id", run.ID), zap.Error(err))
		}
	}

	a.logger.Info("Menu committed",
		zap.String("run_id", run.ID),
		zap.Int("rejections", run.Session.Rejections()),
		zap.String("calendar", out.CalendarPath))
	return out, nil
}

func (a *App) publish(ctx context.Context, start time.Time, entries []planner.Entry, list *shopping.ShoppingList) (string, error) {
	title, html, err := ghost.MenuPost(start, entries, list)
	if err != nil {
		return "", err
	}
	post, err := a.ghostClient.CreatePost(ctx, title, html, a.cfg.Ghost.Publish)
	if err != nil {
		return "", err
	}
	return post.URL, nil
}

// ImportRecipe clips the recipe at url and appends it to the catalog, served at the
// given meals.
func (a *App) ImportRecipe(ctx context.Context, url string, meals []string) (recipe.Recipe, error) {
	flags := make(map[recipe.Meal]bool, len(meals))
	for _, m := range meals {
		if m = strings.TrimSpace(m); m != "" {
			flags[recipe.Meal(m)] = true
		}
	}
	if len(flags) == 0 {
		return recipe.Recipe{}, fmt.Errorf("failed to import %s: at least one meal is required", url)
	}
	grp, err := storage.LoadGroups(a.cfg.Path(a.cfg.GroupsFile))
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("failed to load groups: %w", err)
	}
	catalogPath := a.cfg.Path(a.cfg.RecipesFile)
	catalog, err := storage.LoadCatalog(catalogPath, grp)
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("failed to load recipes: %w", err)
	}

	clipped, err := a.recipeClipper.ClipURL(ctx, url)
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("failed to clip %s: %w", url, err)
	}

	added, err := catalog.Add(recipe.Recipe{
		Name:        clipped.Title,
		Ingredients: clipped.Ingredients,
		Meals:       flags,
		Notes:       clipped.SourceURL,
	})
	if err != nil {
		return recipe.Recipe{}, err
	}
	if err := storage.SaveCatalog(catalogPath, catalog); err != nil {
		return recipe.Recipe{}, err
	}

	a.logger.Info("Recipe imported",
		zap.String("recipe", added.Name),
		zap.Int("ingredients", len(added.Ingredients)),
		zap.Int("ungrouped", len(catalog.Ungrouped())))
	return added, nil
}

// GroupIngredients runs the grouping wizard over the catalog's ungrouped ingredients.
// It reports whether every ingredient ended up grouped.
func (a *App) GroupIngredients(ctx context.Context, in io.Reader, out io.Writer) (bool, error) {
	groupsPath := a.cfg.Path(a.cfg.GroupsFile)
	catalogPath := a.cfg.Path(a.cfg.RecipesFile)

	grp, err := storage.LoadGroups(groupsPath)
	if err != nil {
		return false, fmt.Errorf("failed to load groups: %w", err)
	}
	catalog, err := storage.LoadCatalog(catalogPath, grp)
	if err != nil {
		return false, fmt.Errorf("failed to load recipes: %w", err)
	}

	c := groups.NewConsolidator(catalog,
		func(g *recipe.Groups) error { return storage.SaveGroups(groupsPath, g) },
		func(c *recipe.Catalog) error { return storage.SaveCatalog(catalogPath, c) },
	)
	if _, pending := c.Current(); !pending {
		a.logger.Info("Every ingredient already has a category")
		return true, nil
	}

	var suggest groups.SuggestFunc
	if a.textGen != nil {
		suggest = groups.NewSuggester(a.textGen, a.logger).Suggest
	}
	return a.runWizard(ctx, c, suggest, in, out)
}

// History returns the most recent committed menus with their slots.
func (a *App) History(ctx context.Context, limit int) ([]planner.StoredMenu, error) {
	menus, err := a.menuRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	for i := range menus {
		if menus[i].Slots, err = a.menuRepo.Slots(ctx, menus[i].ID); err != nil {
			return nil, err
		}
	}
	return menus, nil
}

// ShoppingList returns the shopping list saved for a committed menu, or nil.
func (a *App) ShoppingList(ctx context.Context, menuID string) (*shopping.ShoppingList, error) {
	return a.shoppingRepo.GetByMenuID(ctx, menuID)
}

// Usage summarises the runs of the last days days.
func (a *App) Usage(ctx context.Context, days int) ([]metrics.DailyUsage, error) {
	return a.metricsStore.Recent(ctx, days)
}

// CleanupMetrics removes run metrics older than days days.
func (a *App) CleanupMetrics(ctx context.Context, days int) (int64, error) {
	return a.metricsStore.Cleanup(ctx, days)
}

// Health reports memory and the size of the data files.
func (a *App) Health() metrics.SysHealth {
	return metrics.GetSysHealth(a.cfg.Path(a.cfg.RecipesFile), a.cfg.DatabasePath, a.cfg.Path(a.cfg.MenusDir))
}
