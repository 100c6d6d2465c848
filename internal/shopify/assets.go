package shopify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

type Asset struct {
	Key         string `json:"key"`
	Value       string `json:"value,omitempty"`
	Attachment  string `json:"attachment,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// AssetPut describes one asset write. Exactly one content source goes out:
// Attachment, Src, or SourceKey when set (each suppresses Value), otherwise
// Value. HasValue marks an intentionally empty Value, so blanking an asset
// is distinguishable from a write with no content source at all.
type AssetPut struct {
	Key        string `json:"key"`
	Value      string `json:"value,omitempty"`
	HasValue   bool   `json:"-"`
	Attachment string `json:"attachment,omitempty"`
	Src        string `json:"src,omitempty"`
	SourceKey  string `json:"source_key,omitempty"`
}

func (p AssetPut) outgoing() (map[string]any, error) {
	if p.Key == "" {
		return nil, errors.New("asset key is required")
	}
	payload := map[string]any{"key": p.Key}
	switch {
	case p.Attachment != "":
		payload["attachment"] = p.Attachment
	case p.Src != "":
		payload["src"] = p.Src
	case p.SourceKey != "":
		payload["source_key"] = p.SourceKey
	case p.Value != "" || p.HasValue:
		payload["value"] = p.Value
	default:
		return nil, fmt.Errorf("asset %s: one of value, attachment, src, or source_key is required", p.Key)
	}
	return payload, nil
}

func (c *Client) ListAssets(ctx context.Context, themeID int64) ([]Asset, error) {
	var out struct {
		Assets []Asset `json:"assets"`
	}
	path := fmt.Sprintf("/themes/%d/assets.json", themeID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Assets, nil
}

// GetAsset fetches a single asset by exact key. An absent key is not an
// error: the remote's 404 comes back as (nil, nil).
func (c *Client) GetAsset(ctx context.Context, themeID int64, key string) (*Asset, error) {
	var out struct {
		Asset Asset `json:"asset"`
	}
	path := fmt.Sprintf("/themes/%d/assets.json", themeID)
	query := url.Values{"asset[key]": {key}}
	if err := c.do(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &out.Asset, nil
}

// PutAsset upserts the asset at put.Key, overwriting any existing content.
func (c *Client) PutAsset(ctx context.Context, themeID int64, put AssetPut) (Asset, error) {
	payload, err := put.outgoing()
	if err != nil {
		return Asset{}, err
	}
	var out struct {
		Asset Asset `json:"asset"`
	}
	path := fmt.Sprintf("/themes/%d/assets.json", themeID)
	body := map[string]any{"asset": payload}
	if err := c.do(ctx, http.MethodPut, path, nil, body, &out); err != nil {
		return Asset{}, err
	}
	return out.Asset, nil
}

// DeleteAsset removes the asset at key. Deleting an absent key succeeds.
func (c *Client) DeleteAsset(ctx context.Context, themeID int64, key string) error {
	path := fmt.Sprintf("/themes/%d/assets.json", themeID)
	query := url.Values{"asset[key]": {key}}
	if err := c.do(ctx, http.MethodDelete, path, query, nil, nil); err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}
	return nil
}
