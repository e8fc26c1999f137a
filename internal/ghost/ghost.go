package ghost

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"menumaker/internal/planner"
	"menumaker/internal/shopping"

	"github.com/golang-jwt/jwt/v5"
)

// Post represents a single post from the Ghost Admin API.
type Post struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	HTML   string `json:"html"`
	Status string `json:"status"`
	URL    string `json:"url"`
}

// PostsResponse is the top-level structure of the Ghost API response for posts.
type PostsResponse struct {
	Posts []Post `json:"posts"`
}

// Client is an interface for a Ghost Admin API client.
type Client interface {
	CreatePost(ctx context.Context, title, html string, publish bool) (*Post, error)
}

// ghostClient is the concrete implementation of the Ghost API client.
type ghostClient struct {
	httpClient *http.Client
	baseURL    string
	adminKey   string
	now        func() time.Time
}

// NewClient creates a new Ghost API client. adminKey is the "id:secret" pair from a
// Ghost custom integration.
func NewClient(baseURL, adminKey string) Client {
	return &ghostClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		adminKey:   adminKey,
		now:        time.Now,
	}
}

// CreatePost creates a new post using the Ghost Admin API. Posts are drafts unless
// publish is set.
func (c *ghostClient) CreatePost(ctx context.Context, title, html string, publish bool) (*Post, error) {
	token, err := c.createAdminToken()
	if err != nil {
		return nil, fmt.Errorf("failed to create admin token: %w", err)
	}

	status := "draft"
	if publish {
		status = "published"
	}

	body, err := json.Marshal(PostsResponse{Posts: []Post{{Title: title, HTML: html, Status: status}}})
	if err != nil {
		return nil, fmt.Errorf("failed to encode post: %w", err)
	}
	url := c.baseURL + "/ghost/api/v3/admin/posts/?source=html"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Ghost "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		var errResp any
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, fmt.Errorf("admin api error: status %d, body: %v", resp.StatusCode, errResp)
	}

	var response PostsResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(response.Posts) == 0 {
		return nil, fmt.Errorf("no post returned from api")
	}
	return &response.Posts[0], nil
}

// createAdminToken generates a short-lived JWT for the Admin API.
func (c *ghostClient) createAdminToken() (string, error) {
	id, secretHex, ok := strings.Cut(c.adminKey, ":")
	if !ok || id == "" {
		return "", fmt.Errorf("invalid admin key format: expected id:secret")
	}

	secret, err := hex.DecodeString(secretHex)
	if err != nil {
		return "", fmt.Errorf("failed to decode secret hex: %w", err)
	}

	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(5 * time.Minute).Unix(),
		"aud": "/v3/admin/",
	})
	token.Header["kid"] = id

	return token.SignedString(secret)
}

var menuTemplate = template.Must(template.New("menu").Parse(`<table>
<tr><th>Day</th><th>Meal</th><th>Recipe</th></tr>
{{- range .Entries}}
<tr><td>{{.Slot.Date.Format "Mon 02 Jan"}}</td><td>{{.Slot.Meal}}</td><td>{{.Recipe.Name}}</td></tr>
{{- end}}
</table>
{{- with .List}}
<h2>Shopping list</h2>
{{- range .Sections}}
<h3>{{.Category}}</h3>
<ul>
{{- range .Items}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}
{{- end}}
`))

// MenuPost renders the title and HTML body of the post announcing a menu.
func MenuPost(start time.Time, entries []planner.Entry, list *shopping.ShoppingList) (string, string, error) {
	var b bytes.Buffer
	data := struct {
		Entries []planner.Entry
		List    *shopping.ShoppingList
	}{entries, list}
	if err := menuTemplate.Execute(&b, data); err != nil {
		return "", "", fmt.Errorf("failed to render menu post: %w", err)
	}
	return "Menu for the week of " + start.Format("2 January 2006"), b.String(), nil
}
