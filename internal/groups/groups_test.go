package groups

import (
	"context"
	"errors"
	"testing"

	"menumaker/internal/apperrors"
	"menumaker/internal/llm"
	"menumaker/internal/recipe"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorder struct {
	groupSaves   int
	catalogSaves int
	groupsErr    error
}

func (r *recorder) saveGroups(*recipe.Groups) error {
	if r.groupsErr != nil {
		return r.groupsErr
	}
	r.groupSaves++
	return nil
}

func (r *recorder) saveCatalog(*recipe.Catalog) error { r.catalogSaves++; return nil }

func newSession(t *testing.T) (*Consolidator, *recipe.Catalog, *recorder) {
	t.Helper()
	g, err := recipe.NewGroups([]recipe.GroupEntry{
		{Category: "veg", Ingredients: []string{"leek"}},
		{Category: "dairy", Ingredients: []string{"cream"}},
	})
	require.NoError(t, err)
	c, err := recipe.NewCatalog([]recipe.Recipe{
		{Name: "Leek soup", Ingredients: []string{"leek", "cream", "salt"}},
		{Name: "Carrot cake", Ingredients: []string{"carrots", "cream", "flour"}},
	}, g)
	require.NoError(t, err)
	rec := &recorder{}
	return NewConsolidator(c, rec.saveGroups, rec.saveCatalog), c, rec
}

func TestConsolidator(t *testing.T) {
	t.Run("AssignInOrder", func(t *testing.T) {
		c, catalog, rec := newSession(t)
		ing, ok := c.Current()
		require.True(t, ok)
		assert.Equal(t, "carrots", ing)

		require.NoError(t, c.Assign("carrots", "veg"))
		ing, _ = c.Current()
		assert.Equal(t, "flour", ing)
		assert.Equal(t, 1, rec.groupSaves)

		cake, _ := catalog.Lookup("Carrot cake")
		assert.True(t, cake.Categories.Has("veg"))

		done, total := c.Progress()
		assert.Equal(t, 1, done)
		assert.Equal(t, 3, total)
	})

	t.Run("AssignUnknownCategory", func(t *testing.T) {
		c, _, rec := newSession(t)
		require.Error(t, c.Assign("salt", "spices"))
		assert.Zero(t, rec.groupSaves)
	})

	t.Run("AssignSaveFails", func(t *testing.T) {
		c, catalog, rec := newSession(t)
		rec.groupsErr = errors.New("disk full")

		require.ErrorContains(t, c.Assign("carrots", "veg"), "disk full")
		ing, _ := c.Current()
		assert.Equal(t, "carrots", ing, "unsaved assignment must stay pending")
		_, grouped := catalog.Groups().CategoryOf("carrots")
		assert.False(t, grouped)
		done, _ := c.Progress()
		assert.Zero(t, done)

		rec.groupsErr = nil
		require.NoError(t, c.Assign("flour", "dairy"))
		_, grouped = catalog.Groups().CategoryOf("carrots")
		assert.False(t, grouped, "a later save must not carry the failed assignment")
	})

	t.Run("RewriteToGroupedName", func(t *testing.T) {
		c, catalog, rec := newSession(t)
		require.NoError(t, c.Rewrite("carrots", "leek"))
		assert.Equal(t, 1, rec.catalogSaves)

		cake, _ := catalog.Lookup("Carrot cake")
		assert.Equal(t, []string{"leek", "cream", "flour"}, cake.Ingredients)
		ing, _ := c.Current()
		assert.Equal(t, "flour", ing)
		done, _ := c.Progress()
		assert.Equal(t, 1, done)
	})

	t.Run("RewriteErrors", func(t *testing.T) {
		c, _, rec := newSession(t)
		require.Error(t, c.Rewrite("carrots", "  "))
		require.Error(t, c.Rewrite("pepper", "salt"))
		assert.Zero(t, rec.catalogSaves)
	})

	t.Run("Finished", func(t *testing.T) {
		c, _, _ := newSession(t)
		for _, ing := range []string{"carrots", "flour", "salt"} {
			require.NoError(t, c.Assign(ing, "veg"))
		}
		_, ok := c.Current()
		assert.False(t, ok)
	})
}

type fakeGenerator struct {
	answer string
	err    error
	prompt string
}

func (f *fakeGenerator) GenerateContent(_ context.Context, prompt string) (llm.ContentResponse, error) {
	f.prompt = prompt
	return llm.ContentResponse{Content: f.answer}, f.err
}

func TestSuggester(t *testing.T) {
	cats := []recipe.Category{"veg", "Dairy"}

	t.Run("MatchesLoosely", func(t *testing.T) {
		gen := &fakeGenerator{answer: " dairy.\n"}
		got, err := NewSuggester(gen, zap.NewNop()).Suggest(context.Background(), "butter", cats)
		require.NoError(t, err)
		assert.Equal(t, recipe.Category("Dairy"), got)
		assert.Contains(t, gen.prompt, `"butter"`)
		assert.Contains(t, gen.prompt, "veg, Dairy")
	})

	t.Run("UnknownAnswer", func(t *testing.T) {
		gen := &fakeGenerator{answer: "fats"}
		_, err := NewSuggester(gen, zap.NewNop()).Suggest(context.Background(), "butter", cats)
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("GeneratorError", func(t *testing.T) {
		gen := &fakeGenerator{err: errors.New("quota")}
		_, err := NewSuggester(gen, zap.NewNop()).Suggest(context.Background(), "butter", cats)
		require.ErrorContains(t, err, "quota")
	})
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func TestWizard(t *testing.T) {
	t.Run("AssignSelectedCategory", func(t *testing.T) {
		c, _, rec := newSession(t)
		w := NewWizard(c, nil)
		assert.Nil(t, w.Init())
		assert.Equal(t, "carrots", w.current)

		w.list.Select(1) // veg
		_, _ = w.Update(key(tea.KeyEnter))
		assert.Equal(t, 1, rec.groupSaves)
		assert.Equal(t, "flour", w.current)
		assert.Contains(t, w.View(), "[1/3]")
	})

	t.Run("Rewrite", func(t *testing.T) {
		c, catalog, rec := newSession(t)
		w := NewWizard(c, nil)
		w.Init()

		_, _ = w.Update(key(tea.KeyEnter)) // REWRITE INGREDIENT
		require.True(t, w.rewriting)
		assert.Equal(t, "carrots", w.input.Value())

		w.input.SetValue("carrot")
		_, _ = w.Update(key(tea.KeyEnter))
		assert.False(t, w.rewriting)
		assert.Equal(t, 1, rec.catalogSaves)
		assert.Equal(t, "carrot", w.current)
		_, ok := catalog.Lookup("Carrot cake")
		assert.True(t, ok)
	})

	t.Run("Suggestion", func(t *testing.T) {
		c, _, _ := newSession(t)
		suggest := func(context.Context, string, []recipe.Category) (recipe.Category, error) {
			return "dairy", nil
		}
		w := NewWizard(c, suggest)
		cmd := w.Init()
		require.NotNil(t, cmd)

		_, _ = w.Update(cmd())
		assert.Equal(t, recipe.Category("dairy"), w.suggested)
		assert.Equal(t, 2, w.list.Index())

		stale := suggestionMsg{ingredient: "other", category: "veg"}
		_, _ = w.Update(stale)
		assert.Equal(t, 2, w.list.Index())
	})

	t.Run("QuitsWhenDone", func(t *testing.T) {
		c, _, _ := newSession(t)
		for _, ing := range []string{"carrots", "flour", "salt"} {
			require.NoError(t, c.Assign(ing, "veg"))
		}
		w := NewWizard(c, nil)
		cmd := w.Init()
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
		assert.True(t, w.Done())
	})
}
