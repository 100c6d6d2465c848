package shopify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	RoleMain        = "main"
	RoleUnpublished = "unpublished"
)

// ErrNoMainTheme means the store has no published theme. This is a fatal
// precondition for every lifecycle operation and is never retried.
var ErrNoMainTheme = errors.New("main theme not found")

type Theme struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

func (c *Client) ListThemes(ctx context.Context) ([]Theme, error) {
	var out struct {
		Themes []Theme `json:"themes"`
	}
	if err := c.do(ctx, http.MethodGet, "/themes.json", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Themes, nil
}

func (c *Client) GetMainTheme(ctx context.Context) (Theme, error) {
	themes, err := c.ListThemes(ctx)
	if err != nil {
		return Theme{}, err
	}
	for _, theme := range themes {
		if theme.Role == RoleMain {
			return theme, nil
		}
	}
	return Theme{}, ErrNoMainTheme
}

// CreateDraftFromMain duplicates the current main theme into a brand-new
// unpublished theme. Every call creates a new theme; callers own the
// at-most-once rule (the lifecycle reuses a bound draft instead of calling
// this again).
func (c *Client) CreateDraftFromMain(ctx context.Context, draftName string) (Theme, error) {
	main, err := c.GetMainTheme(ctx)
	if err != nil {
		return Theme{}, err
	}
	if draftName == "" {
		draftName = "AI Draft - " + time.Now().UTC().Format(time.RFC3339)
	}

	body := map[string]any{
		"theme": map[string]any{
			"name": draftName,
			"role": RoleUnpublished,
			"src":  c.themeArchiveURL(main.ID),
		},
	}
	var out struct {
		Theme Theme `json:"theme"`
	}
	if err := c.do(ctx, http.MethodPost, "/themes.json", nil, body, &out); err != nil {
		return Theme{}, err
	}
	return out.Theme, nil
}

// PublishTheme promotes a theme to main. The remote demotes the previous main
// theme; this client does not verify the result.
func (c *Client) PublishTheme(ctx context.Context, themeID int64) (Theme, error) {
	body := map[string]any{
		"theme": map[string]any{
			"id":   themeID,
			"role": RoleMain,
		},
	}
	var out struct {
		Theme Theme `json:"theme"`
	}
	path := fmt.Sprintf("/themes/%d.json", themeID)
	if err := c.do(ctx, http.MethodPut, path, nil, body, &out); err != nil {
		return Theme{}, err
	}
	return out.Theme, nil
}

func (c *Client) themeArchiveURL(themeID int64) string {
	domain := c.shopDomain
	if domain == "" {
		return fmt.Sprintf("%s/themes/%d/export", c.baseURL, themeID)
	}
	return fmt.Sprintf("https://%s/admin/themes/%d/export", domain, themeID)
}
