package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"trendstage/api/internal/config"
	"trendstage/api/internal/history"
	"trendstage/api/internal/liquid"
	"trendstage/api/internal/search"
	"trendstage/api/internal/shopify"
	"trendstage/api/internal/store"
	"trendstage/api/internal/util"
)

const (
	StrategyPublishDraft = "publish-draft"
	StrategyCopyAssets   = "copy-assets"
)

type ApplyDraftOptions struct {
	DraftName   string `json:"draftName"`
	PreviewPath string `json:"previewPath"`
}

type ApplyDraftResult struct {
	DraftThemeID int64  `json:"draftThemeId"`
	PreviewURL   string `json:"previewUrl"`
}

type ApplyMainOptions struct {
	Strategy  string `json:"strategy"`
	DraftName string `json:"draftName"`
}

type ApplyMainResult struct {
	Strategy    string `json:"strategy"`
	MainThemeID int64  `json:"mainThemeId"`
}

type SuggestionInput struct {
	ProductID    string          `json:"product_id"`
	ProductTitle string          `json:"product_title"`
	TrendName    string          `json:"trend_name"`
	Summary      string          `json:"summary"`
	Score        float64         `json:"score"`
	Payload      json.RawMessage `json:"payload"`
}

type ProposalStore interface {
	CreateProposal(context.Context, store.Proposal) error
	GetProposal(context.Context, string) (store.Proposal, error)
	UpdateProposal(context.Context, string, store.ProposalPatch) (store.Proposal, error)
	Ping(context.Context) error
}

type suggestionStore interface {
	InsertSuggestion(context.Context, store.Suggestion) error
	ListSuggestions(context.Context, int) ([]store.Suggestion, error)
	Ping(context.Context) error
}

type shopAPI interface {
	ListThemes(context.Context) ([]shopify.Theme, error)
	GetMainTheme(context.Context) (shopify.Theme, error)
	CreateDraftFromMain(context.Context, string) (shopify.Theme, error)
	PublishTheme(context.Context, int64) (shopify.Theme, error)
	ListAssets(context.Context, int64) ([]shopify.Asset, error)
	GetAsset(context.Context, int64, string) (*shopify.Asset, error)
	PutAsset(context.Context, int64, shopify.AssetPut) (shopify.Asset, error)
	DeleteAsset(context.Context, int64, string) error
	GetProduct(context.Context, string) (*shopify.Product, error)
	Ping(context.Context) error
}

type historyService interface {
	RecordApply(proposalID string, themeID int64, stage string, files map[string]string) (history.Entry, error)
	History(proposalID string, limit int) ([]history.Entry, error)
}

type searchService interface {
	Search(ctx context.Context, q string, limit int) search.Response
	IndexSuggestion(store.Suggestion)
}

type screenshotService interface {
	Capture(ctx context.Context, url string) ([]byte, error)
}

type Service struct {
	cfg         config.Config
	proposals   ProposalStore
	suggestions suggestionStore
	shop        shopAPI
	history     historyService
	search      searchService
	shots       screenshotService
	lockMu      sync.Mutex
	locks       map[string]*sync.Mutex
}

// New wires the proposal lifecycle. suggestions may be nil (no database
// configured), history and shots may be nil to disable the audit trail and
// screenshots.
func New(cfg config.Config, proposals ProposalStore, shop shopAPI, suggestions suggestionStore, historySvc historyService, searchSvc searchService, shots screenshotService) *Service {
	return &Service{
		cfg:         cfg,
		proposals:   proposals,
		suggestions: suggestions,
		shop:        shop,
		history:     historySvc,
		search:      searchSvc,
		shots:       shots,
		locks:       make(map[string]*sync.Mutex),
	}
}

// proposalLock serializes mutating operations per proposal id, so two racing
// apply calls cannot each create a draft theme.
func (s *Service) proposalLock(id string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.locks[id]
	if ok {
		return lock
	}
	lock = &sync.Mutex{}
	s.locks[id] = lock
	return lock
}

func (s *Service) Readiness(ctx context.Context) (bool, map[string]any) {
	ok := true
	checks := map[string]any{}

	if err := s.proposals.Ping(ctx); err != nil {
		ok = false
		checks["proposals"] = map[string]any{"status": "error", "error": err.Error()}
	} else {
		checks["proposals"] = map[string]any{"status": "ok"}
	}

	if err := s.shop.Ping(ctx); err != nil {
		ok = false
		checks["shopify"] = map[string]any{"status": "error", "error": err.Error()}
	} else {
		checks["shopify"] = map[string]any{"status": "ok"}
	}

	if s.suggestions != nil {
		if err := s.suggestions.Ping(ctx); err != nil {
			ok = false
			checks["suggestions"] = map[string]any{"status": "error", "error": err.Error()}
		} else {
			checks["suggestions"] = map[string]any{"status": "ok"}
		}
	}

	return ok, checks
}

func (s *Service) CreateProposal(ctx context.Context, input ProposalInput) (store.Proposal, error) {
	proposal, err := normalizeProposal(input, s.cfg.MaxAssetBytes)
	if err != nil {
		return store.Proposal{}, err
	}

	now := time.Now().UTC()
	proposal.ID = util.NewID("prop")
	proposal.Status = store.StatusPending
	proposal.CreatedAt = now
	proposal.UpdatedAt = now

	if err := s.proposals.CreateProposal(ctx, proposal); err != nil {
		return store.Proposal{}, fmt.Errorf("create proposal: %w", err)
	}
	return proposal, nil
}

func (s *Service) GetProposal(ctx context.Context, id string) (store.Proposal, error) {
	return s.proposals.GetProposal(ctx, id)
}

// ensureDraftTheme binds a draft theme to the proposal on first use and
// reuses the stored binding forever after; a proposal never gets a second
// draft.
func (s *Service) ensureDraftTheme(ctx context.Context, proposal store.Proposal, draftName string) (store.Proposal, error) {
	if proposal.DraftThemeID != 0 {
		return proposal, nil
	}

	theme, err := s.shop.CreateDraftFromMain(ctx, draftName)
	if err != nil {
		return proposal, err
	}

	updated, err := s.proposals.UpdateProposal(ctx, proposal.ID, store.ProposalPatch{
		DraftThemeID:   &theme.ID,
		DraftThemeName: &theme.Name,
	})
	if err != nil {
		return proposal, fmt.Errorf("bind draft theme: %w", err)
	}
	return updated, nil
}

// applyWrites performs the proposal's writes against the given theme and
// returns exactly what was written, keyed by asset key. Content is identical
// whichever theme it targets, which is what makes the copy-assets and
// publish-draft strategies equivalent on content.
func (s *Service) applyWrites(ctx context.Context, proposal store.Proposal, themeID int64) (map[string]string, error) {
	switch proposal.Type {
	case store.TypeThemeAssets:
		return s.applyThemeAssets(ctx, proposal, themeID)
	case store.TypeProductCopy:
		return s.applyProductCopy(ctx, proposal, themeID)
	default:
		return nil, domainError(http.StatusUnprocessableEntity, "UNSUPPORTED_FORMAT",
			fmt.Sprintf("unknown proposal type %q", proposal.Type), nil)
	}
}

func (s *Service) applyThemeAssets(ctx context.Context, proposal store.Proposal, themeID int64) (map[string]string, error) {
	keys := make([]string, 0, len(proposal.Files))
	for key := range proposal.Files {
		keys = append(keys, key)
	}
	// Sequential writes in sorted key order: deterministic and reproducible,
	// and a mid-batch failure leaves a well-defined prefix applied.
	sort.Strings(keys)

	written := make(map[string]string, len(keys))
	for _, key := range keys {
		value := proposal.Files[key]
		// HasValue lets a validated empty file blank the remote asset.
		if _, err := s.shop.PutAsset(ctx, themeID, shopify.AssetPut{Key: key, Value: value, HasValue: true}); err != nil {
			return nil, err
		}
		written[key] = value
	}
	return written, nil
}

func (s *Service) applyProductCopy(ctx context.Context, proposal store.Proposal, themeID int64) (map[string]string, error) {
	section, err := s.shop.GetAsset(ctx, themeID, proposal.SectionKey)
	if err != nil {
		return nil, err
	}
	if section == nil || section.Value == "" {
		return nil, domainError(http.StatusNotFound, "MISSING_ASSET",
			fmt.Sprintf("section asset %s not found on theme %d", proposal.SectionKey, themeID), nil)
	}

	// The marker keeps re-applies from stacking duplicate render calls; the
	// section is written either way, and the snippet is always rewritten.
	sectionBody, _ := liquid.EnsureRenderBlock(section.Value, proposal.SnippetKey)
	if _, err := s.shop.PutAsset(ctx, themeID, shopify.AssetPut{Key: proposal.SectionKey, Value: sectionBody}); err != nil {
		return nil, err
	}

	snippetBody := liquid.Compose(proposal)
	if _, err := s.shop.PutAsset(ctx, themeID, shopify.AssetPut{Key: proposal.SnippetKey, Value: snippetBody}); err != nil {
		return nil, err
	}

	return map[string]string{
		proposal.SectionKey: sectionBody,
		proposal.SnippetKey: snippetBody,
	}, nil
}

func (s *Service) ApplyToDraft(ctx context.Context, id string, opts ApplyDraftOptions) (ApplyDraftResult, error) {
	lock := s.proposalLock(id)
	lock.Lock()
	defer lock.Unlock()

	proposal, err := s.proposals.GetProposal(ctx, id)
	if err != nil {
		return ApplyDraftResult{}, err
	}

	proposal, err = s.ensureDraftTheme(ctx, proposal, opts.DraftName)
	if err != nil {
		return ApplyDraftResult{}, err
	}

	written, err := s.applyWrites(ctx, proposal, proposal.DraftThemeID)
	if err != nil {
		return ApplyDraftResult{}, err
	}

	status := store.StatusDraftApplied
	proposal, err = s.proposals.UpdateProposal(ctx, id, store.ProposalPatch{Status: &status})
	if err != nil {
		return ApplyDraftResult{}, fmt.Errorf("mark draft-applied: %w", err)
	}

	s.recordApply(proposal.ID, proposal.DraftThemeID, "draft", written)

	previewURL, err := s.previewURL(proposal, opts.PreviewPath)
	if err != nil {
		return ApplyDraftResult{}, err
	}
	return ApplyDraftResult{DraftThemeID: proposal.DraftThemeID, PreviewURL: previewURL}, nil
}

func (s *Service) ApplyToMain(ctx context.Context, id string, opts ApplyMainOptions) (ApplyMainResult, error) {
	strategy := opts.Strategy
	if strategy == "" {
		strategy = StrategyPublishDraft
	}
	if strategy != StrategyPublishDraft && strategy != StrategyCopyAssets {
		return ApplyMainResult{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			fmt.Sprintf("unknown strategy %q", strategy), nil)
	}

	lock := s.proposalLock(id)
	lock.Lock()
	defer lock.Unlock()

	proposal, err := s.proposals.GetProposal(ctx, id)
	if err != nil {
		return ApplyMainResult{}, err
	}

	if strategy == StrategyCopyAssets {
		return s.applyToMainCopy(ctx, proposal)
	}
	return s.applyToMainPublish(ctx, proposal, opts.DraftName)
}

// applyToMainCopy writes the proposal's content straight onto the main theme
// without touching any draft.
func (s *Service) applyToMainCopy(ctx context.Context, proposal store.Proposal) (ApplyMainResult, error) {
	main, err := s.shop.GetMainTheme(ctx)
	if err != nil {
		return ApplyMainResult{}, err
	}

	written, err := s.applyWrites(ctx, proposal, main.ID)
	if err != nil {
		return ApplyMainResult{}, err
	}

	status := store.StatusMainUpdated
	if _, err := s.proposals.UpdateProposal(ctx, proposal.ID, store.ProposalPatch{
		Status:      &status,
		MainThemeID: &main.ID,
	}); err != nil {
		return ApplyMainResult{}, fmt.Errorf("mark main-updated: %w", err)
	}

	s.recordApply(proposal.ID, main.ID, "main", written)
	return ApplyMainResult{Strategy: StrategyCopyAssets, MainThemeID: main.ID}, nil
}

// applyToMainPublish promotes the proposal's draft to main. If apply-to-draft
// was skipped, the draft is created and written first, so publishing always
// promotes a theme that reflects the proposal.
func (s *Service) applyToMainPublish(ctx context.Context, proposal store.Proposal, draftName string) (ApplyMainResult, error) {
	proposal, err := s.ensureDraftTheme(ctx, proposal, draftName)
	if err != nil {
		return ApplyMainResult{}, err
	}

	if proposal.Status != store.StatusDraftApplied {
		written, err := s.applyWrites(ctx, proposal, proposal.DraftThemeID)
		if err != nil {
			return ApplyMainResult{}, err
		}
		s.recordApply(proposal.ID, proposal.DraftThemeID, "draft", written)
	}

	published, err := s.shop.PublishTheme(ctx, proposal.DraftThemeID)
	if err != nil {
		return ApplyMainResult{}, err
	}

	status := store.StatusPublished
	if _, err := s.proposals.UpdateProposal(ctx, proposal.ID, store.ProposalPatch{
		Status:      &status,
		MainThemeID: &published.ID,
	}); err != nil {
		return ApplyMainResult{}, fmt.Errorf("mark published: %w", err)
	}

	s.recordApply(proposal.ID, published.ID, "publish", map[string]string{})
	return ApplyMainResult{Strategy: StrategyPublishDraft, MainThemeID: published.ID}, nil
}

// recordApply commits the written content to the audit trail. Best effort:
// a history failure never fails the apply that already hit the remote.
func (s *Service) recordApply(proposalID string, themeID int64, stage string, files map[string]string) {
	if s.history == nil {
		return
	}
	if _, err := s.history.RecordApply(proposalID, themeID, stage, files); err != nil {
		log.Printf("history: record %s apply for %s: %v", stage, proposalID, err)
	}
}

func (s *Service) PreviewURL(ctx context.Context, id, path string) (string, error) {
	proposal, err := s.proposals.GetProposal(ctx, id)
	if err != nil {
		return "", err
	}
	return s.previewURL(proposal, path)
}

func (s *Service) previewURL(proposal store.Proposal, path string) (string, error) {
	if proposal.DraftThemeID == 0 {
		return "", domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			"no draft theme bound to this proposal", nil)
	}

	path = strings.TrimSpace(path)
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	base := strings.TrimRight(s.cfg.StorefrontURL, "/")
	parsed, err := url.Parse(base + path)
	if err != nil {
		return "", domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			fmt.Sprintf("invalid preview path %q", path), nil)
	}

	query := parsed.Query()
	query.Set("preview_theme_id", strconv.FormatInt(proposal.DraftThemeID, 10))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (s *Service) ProposalHistory(ctx context.Context, id string, limit int) ([]history.Entry, error) {
	if _, err := s.proposals.GetProposal(ctx, id); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []history.Entry{}, nil
	}
	return s.history.History(id, limit)
}

func (s *Service) PreviewScreenshot(ctx context.Context, id, path string) ([]byte, error) {
	if s.shots == nil {
		return nil, domainError(http.StatusServiceUnavailable, "SCREENSHOTS_DISABLED",
			"screenshot capture is not configured", nil)
	}
	previewURL, err := s.PreviewURL(ctx, id, path)
	if err != nil {
		return nil, err
	}
	return s.shots.Capture(ctx, previewURL)
}

func (s *Service) ListThemes(ctx context.Context) ([]shopify.Theme, error) {
	return s.shop.ListThemes(ctx)
}

func (s *Service) ListThemeAssets(ctx context.Context, themeID int64) ([]shopify.Asset, error) {
	return s.shop.ListAssets(ctx, themeID)
}

func (s *Service) DeleteThemeAsset(ctx context.Context, themeID int64, key string) error {
	if strings.TrimSpace(key) == "" {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "asset key is required", nil)
	}
	return s.shop.DeleteAsset(ctx, themeID, key)
}

func (s *Service) CreateSuggestion(ctx context.Context, input SuggestionInput) (store.Suggestion, error) {
	if s.suggestions == nil {
		return store.Suggestion{}, domainError(http.StatusServiceUnavailable, "SUGGESTIONS_DISABLED",
			"no suggestion database configured", nil)
	}

	var missing []string
	if strings.TrimSpace(input.ProductID) == "" {
		missing = append(missing, "product_id")
	}
	if strings.TrimSpace(input.TrendName) == "" {
		missing = append(missing, "trend_name")
	}
	if len(missing) > 0 {
		return store.Suggestion{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			"suggestion requires product_id and trend_name", missing)
	}

	title := input.ProductTitle
	if title == "" {
		// Best effort - a suggestion without a resolvable title still counts.
		if product, err := s.shop.GetProduct(ctx, input.ProductID); err == nil && product != nil {
			title = product.Title
		}
	}

	suggestion := store.Suggestion{
		ID:           util.NewID("sug"),
		ProductID:    input.ProductID,
		ProductTitle: title,
		TrendName:    input.TrendName,
		Summary:      input.Summary,
		Score:        input.Score,
		Payload:      input.Payload,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.suggestions.InsertSuggestion(ctx, suggestion); err != nil {
		return store.Suggestion{}, err
	}

	if s.search != nil {
		s.search.IndexSuggestion(suggestion)
	}
	return suggestion, nil
}

func (s *Service) ListSuggestions(ctx context.Context, limit int) ([]store.Suggestion, error) {
	if s.suggestions == nil {
		return nil, domainError(http.StatusServiceUnavailable, "SUGGESTIONS_DISABLED",
			"no suggestion database configured", nil)
	}
	items, err := s.suggestions.ListSuggestions(ctx, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []store.Suggestion{}
	}
	return items, nil
}

func (s *Service) SearchSuggestions(ctx context.Context, q string, limit int) (search.Response, error) {
	if strings.TrimSpace(q) == "" {
		return search.Response{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			"query parameter q is required", nil)
	}
	if s.search == nil {
		return search.Response{Results: []search.Record{}, Query: q}, nil
	}
	return s.search.Search(ctx, q, limit), nil
}
