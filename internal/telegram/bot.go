package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"menumaker/internal/app"
	"menumaker/internal/config"
	"menumaker/internal/metrics"
	"menumaker/internal/planner"
	"menumaker/internal/recipe"
	"menumaker/internal/shopping"
	"menumaker/internal/terminal"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const helpText = `🍽 *Menu maker*

/menu [YYYY-MM-DD] [days] - build a menu to review
/cancel - drop the menu under review
/import <url> [meal,meal] - add a recipe from a web page
/history - recent menus
/metrics - usage and health (admin)`

// Sender delivers messages to Telegram. *tgbotapi.BotAPI implements it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Planner is the part of the application the bot drives.
type Planner interface {
	StartRun(start time.Time, days int, source string) (*app.Run, error)
	Finish(ctx context.Context, run *app.Run) (*app.Outcome, error)
	ImportRecipe(ctx context.Context, url string, meals []string) (recipe.Recipe, error)
	History(ctx context.Context, limit int) ([]planner.StoredMenu, error)
	Usage(ctx context.Context, days int) ([]metrics.DailyUsage, error)
	Health() metrics.SysHealth
}

// review is the menu a chat is working on.
type review struct {
	chatID int64
	run    *app.Run
}

// Bot runs the menu review conversation over Telegram. Updates are handled one at a
// time and only one menu is under review at once, so a single catalog is never
// edited by two conversations.
type Bot struct {
	api     Sender
	planner Planner
	cfg     config.TelegramConfig
	logger  *zap.Logger
	active  *review
}

// NewBot creates a bot answering through api.
func NewBot(api Sender, p Planner, cfg config.TelegramConfig, logger *zap.Logger) *Bot {
	return &Bot{api: api, planner: p, cfg: cfg, logger: logger}
}

// Run handles updates until ctx is done or the channel closes.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes a single update.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}
	if !b.cfg.IsAllowed(msg.From.ID) {
		b.logger.Warn("Unauthorized access attempt",
			zap.Int64("user_id", msg.From.ID),
			zap.String("username", msg.From.UserName))
		return
	}

	switch msg.Command() {
	case "start", "help":
		b.reply(msg.Chat.ID, helpText)
	case "menu":
		b.handleMenu(msg)
	case "cancel":
		b.handleCancel(msg.Chat.ID)
	case "import":
		b.handleImport(ctx, msg)
	case "history":
		b.handleHistory(ctx, msg.Chat.ID)
	case "metrics":
		if msg.From.ID != b.cfg.AdminID {
			b.reply(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
			return
		}
		b.handleMetrics(ctx, msg.Chat.ID)
	case "":
		b.handleCommand(ctx, msg.Chat.ID, msg.Text)
	default:
		b.reply(msg.Chat.ID, helpText)
	}
}

func (b *Bot) handleMenu(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if b.active != nil {
		if b.active.chatID == chatID {
			b.reply(chatID, "A menu is already under review. Send /cancel to drop it.")
		} else {
			b.reply(chatID, "⏳ Another menu is under review, try again later.")
		}
		return
	}

	start, days, err := parseMenuArgs(msg.CommandArguments())
	if err != nil {
		b.reply(chatID, "❌ "+tgbotapi.EscapeText(tgbotapi.ModeMarkdown, err.Error()))
		return
	}

	run, err := b.planner.StartRun(start, days, "telegram")
	if err != nil {
		b.logger.Error("Failed to build menu", zap.Error(err))
		b.replyError(chatID, "Error building menu", err)
		return
	}
	b.active = &review{chatID: chatID, run: run}
	b.sendMenu(chatID, run, -1)
}

func (b *Bot) handleCancel(chatID int64) {
	if b.active == nil || b.active.chatID != chatID {
		b.reply(chatID, "Nothing to cancel.")
		return
	}
	b.logger.Info("Menu review cancelled", zap.String("run_id", b.active.run.ID))
	b.active = nil
	b.reply(chatID, "🗑 Menu dropped, nothing was saved.")
}

// handleCommand feeds plain text to the menu under review.
func (b *Bot) handleCommand(ctx context.Context, chatID int64, text string) {
	if b.active == nil || b.active.chatID != chatID {
		b.reply(chatID, helpText)
		return
	}
	run := b.active.run

	res, err := run.Session.Submit(text)
	if err != nil {
		b.active = nil
		b.logger.Error("Menu revision failed", zap.String("run_id", run.ID), zap.Error(err))
		b.replyError(chatID, "Error revising menu", err)
		return
	}

	switch {
	case res.State == planner.Accepted:
		b.active = nil
		b.finish(ctx, chatID, run)
	case res.Revised:
		b.sendMenu(chatID, run, res.Slot)
	default:
		b.reply(chatID, tgbotapi.EscapeText(tgbotapi.ModeMarkdown, terminal.Prompt))
	}
}

func (b *Bot) finish(ctx context.Context, chatID int64, run *app.Run) {
	out, err := b.planner.Finish(ctx, run)
	if err != nil {
		b.logger.Error("Failed to commit menu", zap.String("run_id", run.ID), zap.Error(err))
		b.replyError(chatID, "Error saving menu", err)
		return
	}

	var sb strings.Builder
	sb.WriteString("✅ *Menu saved!*\n\n")
	sb.WriteString(formatMenu(out.Entries, -1))
	if out.PostURL != "" {
		fmt.Fprintf(&sb, "\n%s\n", out.PostURL)
	}
	b.reply(chatID, sb.String())
	if out.ShoppingList != nil {
		b.reply(chatID, formatShoppingList(out.ShoppingList.Sections))
	}
}

func (b *Bot) handleImport(ctx context.Context, msg *tgbotapi.Message) {
	// Finish rewrites recipes.yaml from the run's catalog, which would drop the import.
	if b.active != nil {
		b.reply(msg.Chat.ID, "⏳ Finish or /cancel the menu under review first.")
		return
	}
	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		b.reply(msg.Chat.ID, "Usage: /import <url> [meal,meal]")
		return
	}
	meals := []string{"lunch", "dinner"}
	if len(args) > 1 {
		meals = strings.Split(args[1], ",")
	}

	r, err := b.planner.ImportRecipe(ctx, args[0], meals)
	if err != nil {
		b.logger.Error("Failed to import recipe", zap.String("url", args[0]), zap.Error(err))
		b.replyError(msg.Chat.ID, "Error importing recipe", err)
		return
	}
	served := make([]string, 0, len(r.Meals))
	for _, m := range r.MealList() {
		served = append(served, string(m))
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("✅ *Recipe Saved!*\n\n*Title:* %s\n*Ingredients:* %d\n*Meals:* %s",
		tgbotapi.EscapeText(tgbotapi.ModeMarkdown, r.Name), len(r.Ingredients),
		tgbotapi.EscapeText(tgbotapi.ModeMarkdown, strings.Join(served, ", "))))
}

func (b *Bot) handleHistory(ctx context.Context, chatID int64) {
	menus, err := b.planner.History(ctx, 5)
	if err != nil {
		b.replyError(chatID, "Error fetching history", err)
		return
	}
	if len(menus) == 0 {
		b.reply(chatID, "_No menus yet_")
		return
	}
	var sb strings.Builder
	sb.WriteString("🗓 *Recent menus*\n")
	for _, m := range menus {
		fmt.Fprintf(&sb, "\n*%s* (%d days, %d changes)\n", m.Start.Format("Mon 02 Jan"), m.Days, m.Rejections)
		for _, s := range m.Slots {
			fmt.Fprintf(&sb, "• %s %s: %s\n", s.ScheduledAt.Format("Mon"), s.Meal, tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s.Recipe))
		}
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) handleMetrics(ctx context.Context, chatID int64) {
	usage, err := b.planner.Usage(ctx, 7)
	if err != nil {
		b.reply(chatID, "❌ Error fetching metrics.")
		return
	}
	health := b.planner.Health()

	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent Menus*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d runs, %d slots, %.0f%% rejected (avg %s)\n",
			d.Date, d.Runs, d.Slots, d.RejectionRate()*100, d.AverageDuration.Round(time.Second))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Disk Data: %s\n", health.DataDiskSize)
	b.reply(chatID, sb.String())
}

func (b *Bot) sendMenu(chatID int64, run *app.Run, highlight int) {
	entries, err := run.Entries()
	if err != nil {
		b.replyError(chatID, "Error showing menu", err)
		return
	}
	b.reply(chatID, formatMenu(entries, highlight)+"\n"+tgbotapi.EscapeText(tgbotapi.ModeMarkdown, terminal.Prompt))
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) replyError(chatID int64, title string, err error) {
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	b.reply(chatID, fmt.Sprintf("❌ *%s:*\n```\n%v\n```", title, safeErr))
}

// parseMenuArgs reads the optional start date and day count of /menu.
func parseMenuArgs(args string) (time.Time, int, error) {
	var (
		start time.Time
		days  int
	)
	for _, f := range strings.Fields(args) {
		if n, err := strconv.Atoi(f); err == nil {
			if n <= 0 {
				return time.Time{}, 0, errors.New("days must be a positive number")
			}
			days = n
			continue
		}
		t, err := time.Parse(time.DateOnly, f)
		if err != nil {
			return time.Time{}, 0, fmt.Errorf("cannot read %q as a date (YYYY-MM-DD) or a number of days", f)
		}
		start = t
	}
	return start, days, nil
}

func formatMenu(entries []planner.Entry, highlight int) string {
	var sb strings.Builder
	sb.WriteString("📅 *Menu*\n")

	var day time.Time
	for _, e := range entries {
		if !e.Date.Equal(day) {
			day = e.Date
			fmt.Fprintf(&sb, "\n*%s*\n", e.Date.Format("Monday 02 Jan"))
		}
		name := tgbotapi.EscapeText(tgbotapi.ModeMarkdown, e.Recipe.Name)
		if e.Index == highlight {
			name = "*" + name + "* 🔄"
		}
		fmt.Fprintf(&sb, "`%d` %s %s: %s\n", e.Index, e.ScheduledAt.Format("15:04"), e.Meal, name)
	}
	return sb.String()
}

func formatShoppingList(sections []shopping.Section) string {
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n")
	for _, s := range sections {
		fmt.Fprintf(&sb, "\n*%s*\n", tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s.Category))
		for _, item := range s.Items {
			fmt.Fprintf(&sb, "• %s\n", tgbotapi.EscapeText(tgbotapi.ModeMarkdown, item))
		}
	}
	return sb.String()
}
