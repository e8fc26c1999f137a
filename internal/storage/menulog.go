package storage

import (
	"encoding/csv"
	"fmt"
	"os"

	"menumaker/internal/planner"
)

// AppendMenuLog appends one "scheduled_at,recipe" line per entry to the menu log.
func AppendMenuLog(path string, entries []planner.Entry) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open menu log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, e := range entries {
		if err := w.Write([]string{e.ScheduledAt.Format(DateLayout), e.Recipe.Name}); err != nil {
			return fmt.Errorf("failed to append to menu log: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to append to menu log: %w", err)
	}
	return f.Close()
}
