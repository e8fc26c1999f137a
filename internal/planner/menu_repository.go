package planner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"menumaker/internal/apperrors"
	"menumaker/internal/database"
	"menumaker/internal/recipe"
)

// StoredMenu is a committed menu as kept in the history database.
type StoredMenu struct {
	ID         string
	Start      time.Time
	Days       int
	Rejections int
	CreatedAt  time.Time
	Slots      []StoredSlot
}

// StoredSlot is one committed slot. The recipe is kept by name since catalog ids are
// positions in a file the user may edit.
type StoredSlot struct {
	Position    int
	ScheduledAt time.Time
	Weekday     time.Weekday
	Meal        recipe.Meal
	Recipe      string
}

// NewStoredMenu snapshots an accepted menu for the history.
func NewStoredMenu(id string, menu *Menu, catalog *recipe.Catalog, rejections int) (StoredMenu, error) {
	entries, err := menu.Entries(catalog)
	if err != nil {
		return StoredMenu{}, err
	}
	out := StoredMenu{
		ID:         id,
		Start:      menu.Start,
		Days:       menu.Days,
		Rejections: rejections,
		CreatedAt:  time.Now().UTC(),
	}
	for _, e := range entries {
		out.Slots = append(out.Slots, StoredSlot{
			Position:    e.Index,
			ScheduledAt: e.ScheduledAt,
			Weekday:     e.Weekday,
			Meal:        e.Meal,
			Recipe:      e.Recipe.Name,
		})
	}
	return out, nil
}

// MenuRepository is a database-backed history of committed menus.
type MenuRepository struct {
	db *sql.DB
}

// NewMenuRepository creates a new MenuRepository.
func NewMenuRepository(d *sql.DB) *MenuRepository {
	return &MenuRepository{db: d}
}

// Save inserts a menu and its slots in one transaction.
func (r *MenuRepository) Save(ctx context.Context, m StoredMenu) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	created := m.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO menus (id, start_date, days, rejections, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.Start.Format(time.DateOnly), m.Days, m.Rejections, database.FormatTime(created))
	if err != nil {
		return fmt.Errorf("failed to insert menu %s: %w", m.ID, err)
	}

	for _, s := range m.Slots {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO menu_slots (menu_id, position, scheduled_at, weekday, meal, recipe_name) VALUES (?, ?, ?, ?, ?, ?)`,
			m.ID, s.Position, database.FormatTime(s.ScheduledAt), s.Weekday.String(), string(s.Meal), s.Recipe)
		if err != nil {
			return fmt.Errorf("failed to insert slot %d of menu %s: %w", s.Position, m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit menu %s: %w", m.ID, err)
	}
	return nil
}

// ListRecent returns the most recently committed menus, newest first, without slots.
func (r *MenuRepository) ListRecent(ctx context.Context, limit int) ([]StoredMenu, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, start_date, days, rejections, created_at FROM menus ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent menus: %w", err)
	}
	defer rows.Close()

	var menus []StoredMenu
	for rows.Next() {
		var (
			m              StoredMenu
			start, created string
		)
		if err := rows.Scan(&m.ID, &start, &m.Days, &m.Rejections, &created); err != nil {
			return nil, fmt.Errorf("failed to scan menu: %w", err)
		}
		if m.Start, err = time.Parse(time.DateOnly, start); err != nil {
			return nil, fmt.Errorf("failed to parse start date of menu %s: %w", m.ID, err)
		}
		if m.CreatedAt, err = database.ParseTime(created); err != nil {
			return nil, err
		}
		menus = append(menus, m)
	}
	return menus, rows.Err()
}

// Slots returns the slots of a stored menu in menu order.
func (r *MenuRepository) Slots(ctx context.Context, menuID string) ([]StoredSlot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT position, scheduled_at, weekday, meal, recipe_name FROM menu_slots WHERE menu_id = ? ORDER BY position`, menuID)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots of menu %s: %w", menuID, err)
	}
	defer rows.Close()

	var slots []StoredSlot
	for rows.Next() {
		var (
			s                    StoredSlot
			scheduled, wd, meal string
		)
		if err := rows.Scan(&s.Position, &scheduled, &wd, &meal, &s.Recipe); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		if s.ScheduledAt, err = database.ParseTime(scheduled); err != nil {
			return nil, err
		}
		if s.Weekday, err = ParseWeekday(wd); err != nil {
			return nil, err
		}
		s.Meal = recipe.Meal(meal)
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		var exists int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM menus WHERE id = ?`, menuID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("menu %s: %w", menuID, apperrors.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to look up menu %s: %w", menuID, err)
		}
	}
	return slots, nil
}
