// Package calendar exports accepted menus as iCalendar files.
package calendar

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"menumaker/internal/planner"
	"menumaker/internal/recipe"
	"menumaker/internal/shopping"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
)

const productID = "-//menumaker//Menu Export//EN"

// DurationFunc returns how long a meal lasts.
type DurationFunc func(meal string) time.Duration

// Exporter writes one .ics file per menu into a directory.
type Exporter struct {
	dir      string
	loc      *time.Location
	duration DurationFunc
	now      func() time.Time
}

// NewExporter creates an exporter writing into dir. Meal times are wall clock times in
// loc.
func NewExporter(dir string, loc *time.Location, duration DurationFunc) *Exporter {
	if loc == nil {
		loc = time.Local
	}
	return &Exporter{dir: dir, loc: loc, duration: duration, now: time.Now}
}

// FileName returns the name of the file a menu starting on start is exported to.
func FileName(start time.Time) string {
	return fmt.Sprintf("menu_%s.ics", start.Format(time.DateOnly))
}

// Build creates the calendar: one event per slot and an all-day shopping list event
// on the first day.
func (e *Exporter) Build(start time.Time, entries []planner.Entry, list *shopping.ShoppingList) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	stamp := e.now()

	for _, entry := range entries {
		ev := cal.AddEvent(eventID(start, fmt.Sprintf("slot-%d", entry.Index)))
		begin := e.wallClock(entry.ScheduledAt)
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(begin)
		ev.SetEndAt(begin.Add(e.duration(string(entry.Meal))))
		ev.SetSummary(Summary(entry.Meal, entry.Recipe.Name))
		ev.SetDescription(description(entry.Recipe))
	}

	if list != nil {
		ev := cal.AddEvent(eventID(start, "shopping-list"))
		ev.SetDtStampTime(stamp)
		ev.SetAllDayStartAt(start)
		ev.SetAllDayEndAt(start.AddDate(0, 0, 1))
		ev.SetSummary("Shopping List")
		ev.SetDescription(strings.Join(list.Items(), "\n"))
	}
	return cal
}

// Export builds the calendar and writes it, returning the file path.
func (e *Exporter) Export(start time.Time, entries []planner.Entry, list *shopping.ShoppingList) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create menus directory: %w", err)
	}
	path := filepath.Join(e.dir, FileName(start))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create calendar file: %w", err)
	}
	defer f.Close()

	if err := e.Build(start, entries, list).SerializeTo(f); err != nil {
		return "", fmt.Errorf("failed to write calendar file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write calendar file: %w", err)
	}
	return path, nil
}

// Summary is the event title of a meal, e.g. "[Dinner] Leek pie".
func Summary(meal recipe.Meal, name string) string {
	m := string(meal)
	if r, size := utf8.DecodeRuneInString(m); size > 0 {
		m = string(unicode.ToUpper(r)) + m[size:]
	}
	return fmt.Sprintf("[%s] %s", m, name)
}

func description(r recipe.Recipe) string {
	desc := strings.Join(r.Ingredients, "\n")
	if r.Notes != "" {
		desc += "\n\n" + r.Notes
	}
	return desc
}

// wallClock places a zone-less menu time in the exporter's location.
func (e *Exporter) wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, e.loc)
}

// eventID is stable for a given menu and slot so re-exporting updates events instead
// of duplicating them.
func eventID(start time.Time, key string) string {
	name := start.Format(time.DateOnly) + "/" + key
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("menumaker:"+name)).String()
}
