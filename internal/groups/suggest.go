package groups

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"menumaker/internal/apperrors"
	"menumaker/internal/llm"
	"menumaker/internal/recipe"

	"go.uber.org/zap"
)

// SuggestFunc proposes a category for an ingredient.
type SuggestFunc func(ctx context.Context, ingredient string, categories []recipe.Category) (recipe.Category, error)

// Suggester asks a language model which category an ingredient belongs to.
type Suggester struct {
	gen    llm.TextGenerator
	logger *zap.Logger
}

// NewSuggester creates a Suggester backed by gen.
func NewSuggester(gen llm.TextGenerator, logger *zap.Logger) *Suggester {
	return &Suggester{gen: gen, logger: logger}
}

// Suggest returns one of categories, or apperrors.ErrNotFound when the model answers
// with something else.
func (s *Suggester) Suggest(ctx context.Context, ingredient string, categories []recipe.Category) (recipe.Category, error) {
	if len(categories) == 0 {
		return "", fmt.Errorf("no categories to choose from: %w", apperrors.ErrNotFound)
	}
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	prompt := fmt.Sprintf(
		"You sort cooking ingredients into food groups for a shopping list.\n"+
			"Food groups: %s.\n"+
			"Which food group does the ingredient %q belong to? Answer with the food group name only.",
		strings.Join(names, ", "), ingredient)

	resp, err := s.gen.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to suggest a category for %q: %w", ingredient, err)
	}
	s.logger.Debug("category suggested",
		zap.String("ingredient", ingredient),
		zap.String("answer", resp.Content),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	answer := normalize(resp.Content)
	for _, c := range categories {
		if normalize(string(c)) == answer {
			return c, nil
		}
	}
	return "", fmt.Errorf("answer %q is not a category: %w", resp.Content, apperrors.ErrNotFound)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}))
}
