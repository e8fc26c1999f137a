package clipper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"menumaker/internal/llm"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoRecipe is returned when a page holds no recognisable recipe.
var ErrNoRecipe = errors.New("no recipe found on page")

// Clipper handles fetching and extracting recipes from URLs.
type Clipper struct {
	httpClient *http.Client
	textGen    llm.TextGenerator
}

// ClippedRecipe is a recipe read from a web page.
type ClippedRecipe struct {
	Title       string   `json:"title"`
	Ingredients []string `json:"ingredients"`
	SourceURL   string   `json:"-"`
}

// NewClipper creates a new Clipper instance. textGen is only used for pages without
// structured recipe data and may be nil.
func NewClipper(textGen llm.TextGenerator) *Clipper {
	return &Clipper{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		textGen:    textGen,
	}
}

// ClipURL fetches the URL and extracts its recipe: schema.org JSON-LD first, then
// microdata, then the text generator when one is configured.
func (c *Clipper) ClipURL(ctx context.Context, url string) (*ClippedRecipe, error) {
	doc, err := c.fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}

	r := fromJSONLD(doc)
	if r == nil {
		r = fromMicrodata(doc)
	}
	if r == nil && c.textGen != nil {
		if r, err = c.extractWithAI(ctx, doc); err != nil {
			return nil, err
		}
	}
	if r == nil || r.Title == "" {
		return nil, ErrNoRecipe
	}
	r.SourceURL = url
	r.Ingredients = cleanIngredients(r.Ingredients)
	return r, nil
}

func (c *Clipper) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "menumaker/1.0")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

func fromJSONLD(doc *goquery.Document) *ClippedRecipe {
	var found *ClippedRecipe
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		found = findRecipe(data)
		return found == nil
	})
	return found
}

// findRecipe walks a JSON-LD value looking for a node typed Recipe. Pages put it at
// the top level, in an array or inside "@graph".
func findRecipe(v any) *ClippedRecipe {
	switch node := v.(type) {
	case []any:
		for _, item := range node {
			if r := findRecipe(item); r != nil {
				return r
			}
		}
	case map[string]any:
		if isRecipeType(node["@type"]) {
			r := &ClippedRecipe{Title: stringValue(node["name"])}
			r.Ingredients = stringList(node["recipeIngredient"])
			if len(r.Ingredients) == 0 {
				r.Ingredients = stringList(node["ingredients"])
			}
			return r
		}
		if graph, ok := node["@graph"]; ok {
			return findRecipe(graph)
		}
	}
	return nil
}

func isRecipeType(t any) bool {
	switch t := t.(type) {
	case string:
		return t == "Recipe"
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s == "Recipe" {
				return true
			}
		}
	}
	return false
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func stringList(v any) []string {
	switch v := v.(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func fromMicrodata(doc *goquery.Document) *ClippedRecipe {
	scope := doc.Find(`[itemtype*="schema.org/Recipe"]`).First()
	if scope.Length() == 0 {
		return nil
	}
	r := &ClippedRecipe{Title: strings.TrimSpace(scope.Find(`[itemprop="name"]`).First().Text())}
	scope.Find(`[itemprop="recipeIngredient"], [itemprop="ingredients"]`).Each(func(_ int, s *goquery.Selection) {
		r.Ingredients = append(r.Ingredients, s.Text())
	})
	return r
}

func (c *Clipper) extractWithAI(ctx context.Context, doc *goquery.Document) (*ClippedRecipe, error) {
	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, .ads, #ads").Remove()
	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")

	prompt := fmt.Sprintf(`
You are a recipe extraction expert. Extract the recipe from the following page text.
Return the result strictly as a JSON object with this structure:
{
  "title": "Recipe Title",
  "ingredients": ["ingredient 1", "ingredient 2", ...]
}

Page text:
%s
`, text)

	resp, err := c.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("ai extraction failed: %w", err)
	}

	var r ClippedRecipe
	content := strings.TrimSpace(resp.Content)
	content = strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(content, "```json"), "```"), "```")
	if err := json.Unmarshal([]byte(content), &r); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}
	return &r, nil
}

func cleanIngredients(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool)
	for _, ing := range in {
		ing = strings.ToLower(strings.Join(strings.Fields(ing), " "))
		if ing == "" || seen[ing] {
			continue
		}
		seen[ing] = true
		out = append(out, ing)
	}
	return out
}
