package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"menumaker/internal/apperrors"
	"menumaker/internal/planner"
	"menumaker/internal/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const groupsYAML = `veg:
    - leek
    - carrot
meat:
    - chicken
fish:
`

const rulesYAML = `- weekdays:
    Monday:
      lunch: veg
      dinner: meat, veg
    Tuesday:
      dinner: Grandma's Soup
    Wednesday:
  lunch: "13:00"
  dinner: "20:30"
`

const recipesYAML = `- recipe: Leek pie
  ingredients:
    - leek
    - chicken
  date: 2023-01-05 20:30:00
  count: 2
  notes: use puff pastry
  lunch: false
  dinner: true
- recipe: Grandma's Soup
  ingredients: [carrot, salt]
  count: 0
  lunch: true
  dinner: true
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGroups(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "groups.yaml", groupsYAML)

	groups, err := LoadGroups(path)
	require.NoError(t, err)
	assert.Equal(t, []recipe.Category{"veg", "meat", "fish"}, groups.Categories())

	require.NoError(t, groups.Assign("cod", "fish"))
	require.NoError(t, SaveGroups(path, groups))

	backup, err := os.ReadFile(BackupPath(path))
	require.NoError(t, err)
	assert.Equal(t, groupsYAML, string(backup))

	again, err := LoadGroups(path)
	require.NoError(t, err)
	assert.Equal(t, groups.Entries(), again.Entries())

	t.Run("IngredientInTwoCategories", func(t *testing.T) {
		bad := writeFile(t, dir, "bad.yaml", "veg: [leek]\nmeat: [leek]\n")
		_, err := LoadGroups(bad)
		require.ErrorIs(t, err, apperrors.ErrConfig)
	})
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	groups, err := LoadGroups(writeFile(t, dir, "groups.yaml", groupsYAML))
	require.NoError(t, err)

	t.Run("LegacyWrapper", func(t *testing.T) {
		rule, err := LoadRules(writeFile(t, dir, "config.yaml", rulesYAML), groups)
		require.NoError(t, err)

		assert.Equal(t, []time.Weekday{time.Monday, time.Tuesday, time.Wednesday}, rule.Order)
		require.Len(t, rule.Days[time.Monday], 2)
		assert.Equal(t, recipe.Meal("lunch"), rule.Days[time.Monday][0].Meal)
		assert.Equal(t, recipe.NewCategorySet("meat", "veg"), rule.Days[time.Monday][1].Filter.Categories)
		assert.Equal(t, "Grandma's Soup", rule.Days[time.Tuesday][0].Filter.Recipe)
		assert.Empty(t, rule.Days[time.Wednesday])
		assert.Equal(t, planner.TimeOfDay{Hour: 20, Minute: 30}, rule.MealTimes["dinner"])
	})

	t.Run("PlainMapping", func(t *testing.T) {
		path := writeFile(t, dir, "plain.yaml", "weekdays:\n  Fri:\n    dinner: fish\ndinner: '19:00'\n")
		rule, err := LoadRules(path, groups)
		require.NoError(t, err)
		assert.Equal(t, time.Friday, rule.FirstWeekday())
	})

	t.Run("Errors", func(t *testing.T) {
		cases := map[string]string{
			"missing weekdays": "dinner: '19:00'\n",
			"bad weekday":      "weekdays:\n  Funday:\n    dinner: veg\ndinner: '19:00'\n",
			"meal without time": "weekdays:\n  Monday:\n    brunch: veg\ndinner: '19:00'\n",
			"bad time":          "weekdays:\n  Monday:\n    dinner: veg\ndinner: late\n",
			"not yaml":          "weekdays: [\n",
		}
		for name, content := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := LoadRules(writeFile(t, t.TempDir(), "config.yaml", content), groups)
				require.ErrorIs(t, err, apperrors.ErrConfig)
			})
		}
	})
}

func TestCatalogFile(t *testing.T) {
	dir := t.TempDir()
	groups, err := LoadGroups(writeFile(t, dir, "groups.yaml", groupsYAML))
	require.NoError(t, err)
	path := writeFile(t, dir, "recipes.yaml", recipesYAML)

	catalog, err := LoadCatalog(path, groups)
	require.NoError(t, err)
	require.Equal(t, 2, catalog.Len())

	pie, ok := catalog.Lookup("Leek pie")
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 1, 5, 20, 30, 0, 0, time.UTC), pie.LastUsed)
	assert.Equal(t, 2, pie.Count)
	assert.Equal(t, "use puff pastry", pie.Notes)
	assert.True(t, pie.ServesMeal("dinner"))
	assert.False(t, pie.ServesMeal("lunch"))
	assert.Equal(t, recipe.NewCategorySet("veg", "meat"), pie.Categories)

	soup, ok := catalog.Lookup("Grandma's Soup")
	require.True(t, ok)
	assert.True(t, soup.LastUsed.IsZero())

	t.Run("SaveKeepsBackup", func(t *testing.T) {
		require.NoError(t, catalog.IncrementCount(soup.ID))
		require.NoError(t, SaveCatalog(path, catalog))

		backup, err := os.ReadFile(BackupPath(path))
		require.NoError(t, err)
		assert.Equal(t, recipesYAML, string(backup))

		again, err := LoadCatalog(path, groups)
		require.NoError(t, err)
		assert.Equal(t, catalog.Recipes(), again.Recipes())
	})

	t.Run("WriteFailureNamesBackup", func(t *testing.T) {
		missingDir := filepath.Join(dir, "gone", "recipes.yaml")
		err := SaveCatalog(missingDir, catalog)
		require.Error(t, err)
		assert.Contains(t, err.Error(), BackupPath(missingDir))
	})

	t.Run("BadDate", func(t *testing.T) {
		bad := writeFile(t, dir, "bad.yaml", "- recipe: X\n  date: yesterday\n  dinner: true\n")
		_, err := LoadCatalog(bad, groups)
		require.ErrorIs(t, err, apperrors.ErrConfig)
	})

	t.Run("DuplicateName", func(t *testing.T) {
		bad := writeFile(t, dir, "dup.yaml", "- recipe: X\n- recipe: X\n")
		_, err := LoadCatalog(bad, groups)
		require.ErrorIs(t, err, apperrors.ErrConfig)
	})
}

func TestAppendMenuLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menu.log")
	entries := []planner.Entry{
		{Slot: planner.Slot{ScheduledAt: time.Date(2024, 3, 4, 13, 0, 0, 0, time.UTC)}, Recipe: recipe.Recipe{Name: "Leek pie"}},
		{Slot: planner.Slot{ScheduledAt: time.Date(2024, 3, 4, 20, 30, 0, 0, time.UTC)}, Recipe: recipe.Recipe{Name: "Soup, thick"}},
	}
	require.NoError(t, AppendMenuLog(path, entries))
	require.NoError(t, AppendMenuLog(path, entries[:1]))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04 13:00:00,Leek pie\n2024-03-04 20:30:00,\"Soup, thick\"\n2024-03-04 13:00:00,Leek pie\n", string(data))
}
