package source

import (
	"strings"
	"testing"
)

func TestFirstParagraphText_SkipsShortParagraphs(t *testing.T) {
	page := `<html><body>
		<nav><p>This navigation paragraph is long enough to qualify but must be skipped anyway because nav is boilerplate.</p></nav>
		<p>Jump to content</p>
		<p>Entropy is a scientific concept that is most commonly associated with a state of disorder, randomness, or uncertainty in a system.</p>
		</body></html>`

	got := firstParagraphText([]byte(page))
	if !strings.HasPrefix(got, "Entropy is a scientific concept") {
		t.Errorf("unexpected extract: %q", got)
	}
}

func TestFirstParagraphText_StripsCitationsAndScripts(t *testing.T) {
	page := `<html><body>
		<p>Entropy is a measure of the unavailable energy in a closed thermodynamic system<sup>[1]</sup> that is also usually considered a measure of disorder.<script>evil()</script></p>
		</body></html>`

	got := firstParagraphText([]byte(page))
	if strings.Contains(got, "[1]") {
		t.Errorf("citation marker should be stripped: %q", got)
	}
	if strings.Contains(got, "evil") {
		t.Errorf("script content leaked: %q", got)
	}
}

func TestFirstParagraphText_NoParagraph(t *testing.T) {
	if got := firstParagraphText([]byte("<html><body><div>short</div></body></html>")); got != "" {
		t.Errorf("expected empty extract, got %q", got)
	}
}

func TestFirstParagraphText_Bounded(t *testing.T) {
	long := strings.Repeat("entropy measures disorder in systems ", 40)
	page := "<html><body><p>" + long + "</p></body></html>"

	got := firstParagraphText([]byte(page))
	if len([]rune(got)) > maxExtractRunes+3 {
		t.Errorf("extract exceeds bound: %d runes", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated extract should carry an ellipsis: %q", got)
	}
}

func TestTruncateRunes_WordBoundary(t *testing.T) {
	got := truncateRunes("alpha beta gamma", 12)
	if got != "alpha beta..." {
		t.Errorf("expected cut at word boundary, got %q", got)
	}

	if got := truncateRunes("short", 10); got != "short" {
		t.Errorf("short input should pass through, got %q", got)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	if got := collapseWhitespace("  a \n\t b   c "); got != "a b c" {
		t.Errorf("got %q", got)
	}
}

func TestHyphenSlugAndUnderscoreTitle(t *testing.T) {
	if got := hyphenSlug("Heat Death"); got != "heat-death" {
		t.Errorf("hyphenSlug: got %q", got)
	}
	if got := underscoreTitle(" heat death "); got != "heat_death" {
		t.Errorf("underscoreTitle: got %q", got)
	}
}
