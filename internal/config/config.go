package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"menumaker/internal/apperrors"
	"menumaker/internal/planner"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultFile is the settings file read when present in the working directory.
const DefaultFile = "menumaker.yaml"

// Config holds the configuration for the application.
// Values come from the settings file when one exists, and environment variables
// always override them. Secrets are read from the environment only.
type Config struct {
	// Data files. Relative paths are resolved against DataDir.
	DataDir     string `yaml:"data_dir" env:"MENUMAKER_DATA_DIR" env-default:"."`
	RulesFile   string `yaml:"rules_file" env:"MENUMAKER_RULES_FILE" env-default:"config.yaml"`
	RecipesFile string `yaml:"recipes_file" env:"MENUMAKER_RECIPES_FILE" env-default:"recipes.yaml"`
	GroupsFile  string `yaml:"groups_file" env:"MENUMAKER_GROUPS_FILE" env-default:"groups.yaml"`
	MenuLogFile string `yaml:"menu_log_file" env:"MENUMAKER_MENU_LOG" env-default:"menu.log"`
	MenusDir    string `yaml:"menus_dir" env:"MENUMAKER_MENUS_DIR" env-default:"menus"`

	DatabasePath string `yaml:"database_path" env:"MENUMAKER_DATABASE" env-default:"data/menumaker.db"`

	Timezone   string `yaml:"timezone" env:"MENUMAKER_TIMEZONE" env-default:"Local"`
	CursorMode string `yaml:"cursor_mode" env:"MENUMAKER_CURSOR_MODE" env-default:"per-slot"`
	LogLevel   string `yaml:"log_level" env:"MENUMAKER_LOG_LEVEL" env-default:"info"`

	Calendar CalendarConfig `yaml:"calendar"`
	Ghost    GhostConfig    `yaml:"ghost"`
	Gemini   GeminiConfig   `yaml:"gemini"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// CalendarConfig sets how long each meal lasts in the exported calendar.
type CalendarConfig struct {
	DefaultDuration time.Duration            `yaml:"default_duration" env:"MENUMAKER_MEAL_DURATION" env-default:"60m"`
	MealDurations   map[string]time.Duration `yaml:"meal_durations"`
}

// GhostConfig holds the Ghost blog used to publish accepted menus.
type GhostConfig struct {
	URL      string `yaml:"url" env:"GHOST_API_URL" env-default:""`
	AdminKey string `yaml:"-" env:"GHOST_ADMIN_API_KEY"`
	Publish  bool   `yaml:"publish" env:"GHOST_PUBLISH" env-default:"false"`
}

// Enabled reports whether menus should be posted to Ghost.
func (g GhostConfig) Enabled() bool {
	return g.URL != "" && g.AdminKey != ""
}

// GeminiConfig holds the model used to suggest ingredient categories.
type GeminiConfig struct {
	APIKey string `yaml:"-" env:"GEMINI_API_KEY"`
	Model  string `yaml:"model" env:"GEMINI_MODEL" env-default:"gemini-2.5-flash"`
}

// Enabled reports whether category suggestions are available.
func (g GeminiConfig) Enabled() bool {
	return g.APIKey != ""
}

// TelegramConfig holds the bot front-end settings.
type TelegramConfig struct {
	BotToken       string  `yaml:"-" env:"TELEGRAM_BOT_TOKEN"`
	AllowedUserIDs []int64 `yaml:"allowed_user_ids" env:"TELEGRAM_ALLOWED_USER_IDS" env-separator:","`
	AdminID        int64   `yaml:"admin_id" env:"TELEGRAM_ADMIN_ID" env-default:"0"`
	// WebhookURL switches the bot from long polling to a webhook served on Port.
	WebhookURL string `yaml:"webhook_url" env:"TELEGRAM_WEBHOOK_URL"`
	Port       string `yaml:"port" env:"PORT" env-default:"8080"`
}

// Load reads configuration from path with environment variable overrides. A missing
// file is not an error: the environment and defaults are used alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("%w: failed to read %s: %v", apperrors.ErrConfig, path, err)
		}
	case errors.Is(statErr, fs.ErrNotExist):
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("%w: failed to read environment: %v", apperrors.ErrConfig, err)
		}
	default:
		return nil, fmt.Errorf("failed to stat %s: %w", path, statErr)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := planner.ParseCursorPolicy(c.CursorMode); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", apperrors.ErrConfig, c.LogLevel)
	}
	if c.Calendar.DefaultDuration <= 0 {
		return fmt.Errorf("%w: calendar default duration must be positive", apperrors.ErrConfig)
	}
	return nil
}

// Path resolves a data file name against DataDir.
func (c *Config) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// Location returns the timezone meal times are expressed in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", apperrors.ErrConfig, c.Timezone)
	}
	return loc, nil
}

// CursorPolicy returns the configured rejection cursor policy.
func (c *Config) CursorPolicy() planner.CursorPolicy {
	p, _ := planner.ParseCursorPolicy(c.CursorMode)
	return p
}

// MealDuration returns how long meal lasts in the calendar. Lunch defaults to half an
// hour, every other meal to DefaultDuration.
func (c *Config) MealDuration(meal string) time.Duration {
	if d, ok := c.Calendar.MealDurations[meal]; ok && d > 0 {
		return d
	}
	if meal == "lunch" {
		return 30 * time.Minute
	}
	return c.Calendar.DefaultDuration
}

// IsAllowed reports whether a Telegram user may talk to the bot. An empty list allows
// only the admin.
func (t TelegramConfig) IsAllowed(userID int64) bool {
	if userID == t.AdminID && userID != 0 {
		return true
	}
	for _, id := range t.AllowedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
