package shopping

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"menumaker/internal/database"
)

// Repository handles persistence of shopping lists.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new shopping list repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save creates a new shopping list in the database.
func (r *Repository) Save(ctx context.Context, list *ShoppingList) (int64, error) {
	sectionsJSON, err := json.Marshal(list.Sections)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal shopping list sections: %w", err)
	}

	created := list.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO shopping_lists (menu_id, items, created_at) VALUES (?, ?, ?)`,
		list.MenuID, string(sectionsJSON), database.FormatTime(created))
	if err != nil {
		return 0, fmt.Errorf("failed to insert shopping list: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read shopping list id: %w", err)
	}
	list.ID = id
	return id, nil
}

// GetByMenuID retrieves the shopping list of a menu. It returns nil when the menu has
// none.
func (r *Repository) GetByMenuID(ctx context.Context, menuID string) (*ShoppingList, error) {
	var (
		list           ShoppingList
		items, created string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, menu_id, items, created_at FROM shopping_lists WHERE menu_id = ?`, menuID).
		Scan(&list.ID, &list.MenuID, &items, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get shopping list by menu ID: %w", err)
	}

	if err := json.Unmarshal([]byte(items), &list.Sections); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shopping list sections: %w", err)
	}
	if list.CreatedAt, err = database.ParseTime(created); err != nil {
		return nil, err
	}
	return &list, nil
}

// DeleteByMenuID deletes the shopping list of a menu.
func (r *Repository) DeleteByMenuID(ctx context.Context, menuID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM shopping_lists WHERE menu_id = ?`, menuID); err != nil {
		return fmt.Errorf("failed to delete shopping list of menu %s: %w", menuID, err)
	}
	return nil
}
