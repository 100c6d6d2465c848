package liquid

import (
	"strings"
	"testing"

	"trendstage/api/internal/store"
)

func TestEnsureRenderBlockIdempotent(t *testing.T) {
	section := "<section>\n  {{ product.title }}\n</section>"
	key := "snippets/ai_aura_1.liquid"

	once, changed := EnsureRenderBlock(section, key)
	if !changed {
		t.Fatal("first injection should change the body")
	}
	if count := strings.Count(once, Marker(key)); count != 2 {
		t.Fatalf("expected open and close marker comments, found %d occurrences", count)
	}
	if !strings.Contains(once, "{% render 'ai_aura_1' %}") {
		t.Fatalf("missing render call in:\n%s", once)
	}

	twice, changed := EnsureRenderBlock(once, key)
	if changed {
		t.Fatal("second injection should be a no-op")
	}
	if twice != once {
		t.Fatal("no-op injection must leave the body byte-identical")
	}
	if count := strings.Count(twice, "{% render 'ai_aura_1' %}"); count != 1 {
		t.Fatalf("expected exactly one render call, found %d", count)
	}
}

func TestEnsureRenderBlockDistinctKeys(t *testing.T) {
	section := "<section></section>\n"
	first, _ := EnsureRenderBlock(section, "snippets/ai_aura_1.liquid")
	second, changed := EnsureRenderBlock(first, "snippets/ai_aura_2.liquid")
	if !changed {
		t.Fatal("a different snippet key must inject its own block")
	}
	if !strings.Contains(second, "{% render 'ai_aura_1' %}") || !strings.Contains(second, "{% render 'ai_aura_2' %}") {
		t.Fatalf("expected both render calls in:\n%s", second)
	}
}

func TestComposePrefersPreRenderedHTML(t *testing.T) {
	p := store.Proposal{
		TrendName: "Aura",
		Generated: store.ContentBlock{
			Title:           "Ignored",
			DescriptionHTML: "<section>custom</section>",
		},
	}
	got := Compose(p)
	if got != "<section>custom</section>\n" {
		t.Fatalf("expected pre-rendered html passthrough, got %q", got)
	}
}

func TestComposeAssemblesFromParts(t *testing.T) {
	p := store.Proposal{
		TrendName: "Quiet Luxury",
		Original:  store.ContentBlock{Description: "Old description"},
		Generated: store.ContentBlock{
			Title:          "Cashmere & Co.",
			MarketingAngle: "Understated everyday luxury",
			ColorScheme:    "Warm Sand",
		},
	}
	got := Compose(p)

	if !strings.Contains(got, `class="ai-trend-block trend--quiet_luxury layout--standard scheme--warm_sand"`) {
		t.Fatalf("unexpected class encoding in:\n%s", got)
	}
	if !strings.Contains(got, "<h3>Cashmere &amp; Co.</h3>") {
		t.Fatalf("title not escaped in:\n%s", got)
	}
	if !strings.Contains(got, "<p>Old description</p>") {
		t.Fatalf("missing original-description fallback in:\n%s", got)
	}
	if !strings.Contains(got, `<p class="ai-marketing-angle">Understated everyday luxury</p>`) {
		t.Fatalf("missing marketing angle in:\n%s", got)
	}
}

func TestComposeDeterministic(t *testing.T) {
	p := store.Proposal{
		TrendName: "Aura",
		Generated: store.ContentBlock{Title: "Foo", Description: "Bar"},
	}
	if Compose(p) != Compose(p) {
		t.Fatal("compose must be deterministic for identical input")
	}
}
