package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestGetMainTheme(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/themes.json" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Shopify-Access-Token"); got != "token-1" {
			t.Fatalf("unexpected access token header %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"themes": []map[string]any{
				{"id": 11, "name": "Dawn Copy", "role": "unpublished"},
				{"id": 42, "name": "Dawn", "role": "main"},
			},
		})
	}))
	defer server.Close()

	client := NewWithBaseURL(server.URL, "token-1")
	theme, err := client.GetMainTheme(context.Background())
	if err != nil {
		t.Fatalf("GetMainTheme() error = %v", err)
	}
	if theme.ID != 42 || theme.Role != RoleMain {
		t.Fatalf("unexpected main theme %+v", theme)
	}
}

func TestGetMainThemeMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"themes": []map[string]any{{"id": 11, "name": "Draft", "role": "unpublished"}},
		})
	}))
	defer server.Close()

	client := NewWithBaseURL(server.URL, "t")
	if _, err := client.GetMainTheme(context.Background()); !errors.Is(err, ErrNoMainTheme) {
		t.Fatalf("expected ErrNoMainTheme, got %v", err)
	}
}

func TestCreateDraftFromMain(t *testing.T) {
	var created map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/themes.json":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"themes": []map[string]any{{"id": 42, "name": "Dawn", "role": "main"}},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/themes.json":
			var body map[string]map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			created = body["theme"]
			_ = json.NewEncoder(w).Encode(map[string]any{
				"theme": map[string]any{"id": 77, "name": created["name"], "role": "unpublished"},
			})
		default:
			t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewWithBaseURL(server.URL, "t")
	theme, err := client.CreateDraftFromMain(context.Background(), "")
	if err != nil {
		t.Fatalf("CreateDraftFromMain() error = %v", err)
	}
	if theme.ID != 77 {
		t.Fatalf("unexpected draft theme %+v", theme)
	}
	if created["role"] != "unpublished" {
		t.Fatalf("expected unpublished role, got %v", created["role"])
	}
	name, _ := created["name"].(string)
	if !strings.HasPrefix(name, "AI Draft - ") {
		t.Fatalf("expected generated default name, got %q", name)
	}
	src, _ := created["src"].(string)
	if !strings.Contains(src, "/themes/42/export") {
		t.Fatalf("expected duplicate-from-main src, got %q", src)
	}
}

func TestPublishTheme(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/themes/77.json" {
			t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var body map[string]map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["theme"]["role"] != "main" {
			t.Fatalf("expected role main, got %v", body["theme"]["role"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"theme": map[string]any{"id": 77, "name": "Draft", "role": "main"},
		})
	}))
	defer server.Close()

	client := NewWithBaseURL(server.URL, "t")
	theme, err := client.PublishTheme(context.Background(), 77)
	if err != nil {
		t.Fatalf("PublishTheme() error = %v", err)
	}
	if theme.Role != RoleMain {
		t.Fatalf("expected main role, got %q", theme.Role)
	}
}

func TestGetAssetAbsentIsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("asset[key]"); got != "sections/missing.liquid" {
			t.Fatalf("unexpected asset key filter %q", got)
		}
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"errors": "Not Found"})
	}))
	defer server.Close()

	client := NewWithBaseURL(server.URL, "t")
	asset, err := client.GetAsset(context.Background(), 77, "sections/missing.liquid")
	if err != nil {
		t.Fatalf("GetAsset() error = %v", err)
	}
	if asset != nil {
		t.Fatalf("expected nil asset, got %+v", asset)
	}
}

func TestPutAssetFieldExclusivity(t *testing.T) {
	var received AssetPut
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Asset AssetPut `json:"asset"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		received = body.Asset
		_ = json.NewEncoder(w).Encode(map[string]any{
			"asset": map[string]any{"key": body.Asset.Key},
		})
	}))
	defer server.Close()

	client := NewWithBaseURL(server.URL, "t")
	ctx := context.Background()

	_, err := client.PutAsset(ctx, 77, AssetPut{
		Key:        "assets/logo.png",
		Value:      "should be dropped",
		Attachment: "aGVsbG8=",
	})
	if err != nil {
		t.Fatalf("PutAsset() error = %v", err)
	}
	if received.Value != "" {
		t.Fatalf("attachment should suppress value, got %q", received.Value)
	}
	if received.Attachment != "aGVsbG8=" {
		t.Fatalf("expected attachment to pass through, got %q", received.Attachment)
	}

	if _, err := client.PutAsset(ctx, 77, AssetPut{Key: "assets/empty.css"}); err == nil {
		t.Fatal("expected error when no content source is supplied")
	}
}

func TestPutAssetEmptyValue(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Asset map[string]any `json:"asset"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		received = body.Asset
		_ = json.NewEncoder(w).Encode(map[string]any{
			"asset": map[string]any{"key": body.Asset["key"]},
		})
	}))
	defer server.Close()

	client := NewWithBaseURL(server.URL, "t")
	if _, err := client.PutAsset(context.Background(), 77, AssetPut{
		Key:      "assets/empty.css",
		Value:    "",
		HasValue: true,
	}); err != nil {
		t.Fatalf("PutAsset() with explicit empty value should succeed, got %v", err)
	}
	value, ok := received["value"]
	if !ok {
		t.Fatalf("expected value field on the wire, got %v", received)
	}
	if value != "" {
		t.Fatalf("expected empty value, got %q", value)
	}
}

func TestDeleteAssetToleratesAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"errors": "Not Found"})
	}))
	defer server.Close()

	client := NewWithBaseURL(server.URL, "t")
	if err := client.DeleteAsset(context.Background(), 77, "assets/gone.css"); err != nil {
		t.Fatalf("DeleteAsset() on absent key should succeed, got %v", err)
	}
}

func TestRemoteErrorPassthrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"errors": map[string]any{"asset": []string{"is too large"}},
		})
	}))
	defer server.Close()

	client := NewWithBaseURL(server.URL, "t")
	_, err := client.PutAsset(context.Background(), 77, AssetPut{Key: "assets/big.js", Value: "x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected remote status passthrough, got %d", apiErr.StatusCode)
	}
	if !strings.Contains(apiErr.Message, "too large") {
		t.Fatalf("expected remote message passthrough, got %q", apiErr.Message)
	}
}

func TestRemoteMessageTruncatesOnRuneBoundary(t *testing.T) {
	// A non-JSON body of multi-byte runes whose byte length crosses the
	// ceiling mid-rune.
	raw := []byte(strings.Repeat("é", 200))
	message := remoteMessage(raw)
	if len(message) >= len(raw) {
		t.Fatalf("expected truncation, got %d bytes", len(message))
	}
	if !utf8.ValidString(message) {
		t.Fatalf("truncated message is not valid UTF-8: %q", message)
	}
	if !strings.HasSuffix(message, "é") {
		t.Fatalf("expected whole-rune suffix, got %q", message[len(message)-2:])
	}
}

func TestGetProduct(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/graphql.json" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			Variables map[string]string `json:"variables"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Variables["id"] != "gid://shopify/Product/1" {
			t.Fatalf("expected gid normalization, got %q", body.Variables["id"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"product": map[string]any{"id": "gid://shopify/Product/1", "title": "Foo"},
			},
		})
	}))
	defer server.Close()

	client := NewWithBaseURL(server.URL, "t")
	product, err := client.GetProduct(context.Background(), "1")
	if err != nil {
		t.Fatalf("GetProduct() error = %v", err)
	}
	if product == nil || product.Title != "Foo" {
		t.Fatalf("unexpected product %+v", product)
	}
}
