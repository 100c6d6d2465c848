// Package liquid generates the injectable storefront markup for product-copy
// proposals: the snippet body itself and the marker-guarded render call that
// hooks the snippet into a section template. Everything here is pure -
// deterministic output for a given input, no I/O - so apply flows may call it
// unconditionally on every run.
package liquid

import (
	"fmt"
	"html"
	"path"
	"strings"

	"trendstage/api/internal/store"
	"trendstage/api/internal/util"
)

const (
	defaultLayoutStyle = "standard"
	defaultColorScheme = "neutral"
)

// Marker is the unique comment token that makes render injection idempotent.
// Uniqueness holds because snippet keys are unique per trend+product slug.
func Marker(snippetKey string) string {
	return "ai-proposal:" + snippetKey
}

// RenderName strips the snippets/ prefix and .liquid suffix, yielding the
// name Liquid's render tag expects.
func RenderName(snippetKey string) string {
	return strings.TrimSuffix(path.Base(snippetKey), ".liquid")
}

func renderBlock(snippetKey string) string {
	marker := Marker(snippetKey)
	return fmt.Sprintf(
		"{%% comment %%} %s {%% endcomment %%}\n{%% render '%s' %%}\n{%% comment %%} /%s {%% endcomment %%}",
		marker, RenderName(snippetKey), marker,
	)
}

// EnsureRenderBlock appends the render block for snippetKey to the section
// body unless its marker is already present. The bool reports whether the
// body changed.
func EnsureRenderBlock(sectionBody, snippetKey string) (string, bool) {
	if strings.Contains(sectionBody, Marker(snippetKey)) {
		return sectionBody, false
	}
	body := sectionBody
	if !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	return body + renderBlock(snippetKey) + "\n", true
}

// Compose builds the snippet markup for a product-copy proposal. A fully
// pre-rendered generated.description_html wins outright; otherwise a minimal
// block is assembled from the generated copy with the original as fallback.
func Compose(p store.Proposal) string {
	if p.Generated.DescriptionHTML != "" {
		return ensureTrailingNewline(p.Generated.DescriptionHTML)
	}

	title := firstNonEmpty(p.Generated.Title, p.Original.Title)
	description := firstNonEmpty(p.Generated.Description, p.Original.Description)
	angle := p.Generated.MarketingAngle

	classes := fmt.Sprintf("ai-trend-block trend--%s layout--%s scheme--%s",
		util.Slug(p.TrendName, "trend"),
		util.Slug(firstNonEmpty(p.Generated.LayoutStyle, defaultLayoutStyle), defaultLayoutStyle),
		util.Slug(firstNonEmpty(p.Generated.ColorScheme, defaultColorScheme), defaultColorScheme),
	)

	var b strings.Builder
	fmt.Fprintf(&b, "<div class=\"%s\">\n", classes)
	if title != "" {
		fmt.Fprintf(&b, "  <h3>%s</h3>\n", html.EscapeString(title))
	}
	if description != "" {
		fmt.Fprintf(&b, "  <p>%s</p>\n", html.EscapeString(description))
	}
	if angle != "" {
		fmt.Fprintf(&b, "  <p class=\"ai-marketing-angle\">%s</p>\n", html.EscapeString(angle))
	}
	b.WriteString("</div>\n")
	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func ensureTrailingNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
