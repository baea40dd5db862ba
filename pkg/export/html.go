package export

import (
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/livetemplate/stepdoc"
	"github.com/livetemplate/stepdoc/internal/assets"
	"github.com/livetemplate/stepdoc/internal/security"
)

// CopyMarker flags a text paragraph that gets its own copy button.
const CopyMarker = "[COPY]"

// paragraphSplit matches blank-line paragraph boundaries.
var paragraphSplit = regexp.MustCompile(`\n\s*\n`)

// HTMLOptions controls the HTML export.
type HTMLOptions struct {
	// Theme defaults to ThemeLight when zero.
	Theme Theme

	// Password, when set, hides the content behind a prompt that compares the typed
	// value with this string inside the page. The string is readable by anyone who
	// opens the file source; it only keeps casual viewers out.
	Password string
}

// HTML renders a self-contained page: groups first, each collapsible and numbered
// from 1, then the ungrouped steps numbered after all grouped steps.
func HTML(doc stepdoc.Document, opts HTMLOptions) string {
	theme := opts.Theme
	if theme.Name == "" {
		theme = ThemeLight
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("<meta charset=\"UTF-8\">\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(doc.Title))
	writeStyle(&b, theme)
	b.WriteString("</head>\n<body>\n")

	locked := opts.Password != ""
	if locked {
		writePasswordGate(&b)
		b.WriteString("<div id=\"content\" style=\"display:none\">\n")
	} else {
		b.WriteString("<div id=\"content\">\n")
	}

	b.WriteString("<header>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(doc.Title))
	if strings.TrimSpace(doc.Description) != "" {
		fmt.Fprintf(&b, "<p class=\"description\">%s</p>\n", html.EscapeString(doc.Description))
	}
	b.WriteString("</header>\n<main>\n")

	for _, g := range doc.Groups {
		writeGroup(&b, g, theme)
	}
	for i, s := range doc.Steps {
		writeStep(&b, s, UngroupedStepNumber(doc, i), theme)
	}

	b.WriteString("</main>\n</div>\n")
	writeScript(&b, opts.Password)
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

func writeGroup(b *strings.Builder, g stepdoc.StepGroup, theme Theme) {
	class := "group variant-" + variantName(g.Style.Variant)
	if g.IsCollapsed {
		class += " collapsed"
	}
	fmt.Fprintf(b, "<section class=\"%s\" id=\"group-%s\" style=\"border-left-color:%s\">\n",
		class, html.EscapeString(g.ID), variantAccent(g.Style.Variant, theme))
	b.WriteString("<div class=\"group-header\" onclick=\"toggleGroup(this)\">\n")
	if g.Style.Icon != "" {
		fmt.Fprintf(b, "<span class=\"group-icon\">%s</span>\n", html.EscapeString(g.Style.Icon))
	}
	fmt.Fprintf(b, "<h2>%s</h2>\n", html.EscapeString(g.Title))
	fmt.Fprintf(b, "<span class=\"group-count\">%s</span>\n", stepCountLabel(len(g.Steps)))
	b.WriteString("<span class=\"chevron\">&#9662;</span>\n</div>\n")
	b.WriteString("<div class=\"group-body\">\n")
	for i, s := range g.Steps {
		writeStep(b, s, GroupStepNumber(i), theme)
	}
	b.WriteString("</div>\n</section>\n")
}

func writeStep(b *strings.Builder, s stepdoc.Step, number int, theme Theme) {
	variant := stepdoc.VariantDefault
	icon := ""
	if s.Style != nil {
		variant = s.Style.Variant
		icon = s.Style.Icon
	}

	fmt.Fprintf(b, "<article class=\"step step-%s variant-%s\" id=\"step-%s\" style=\"border-left-color:%s\">\n",
		html.EscapeString(string(s.Type)), variantName(variant), html.EscapeString(s.ID), variantAccent(variant, theme))
	b.WriteString("<div class=\"step-header\">\n")
	fmt.Fprintf(b, "<span class=\"step-number\">%d</span>\n", number)
	if icon != "" {
		fmt.Fprintf(b, "<span class=\"step-icon\">%s</span>\n", html.EscapeString(icon))
	}
	title := s.Title
	if title == "" {
		title = fmt.Sprintf("Step %d", number)
	}
	fmt.Fprintf(b, "<h3 class=\"step-title\">%s</h3>\n", html.EscapeString(title))
	b.WriteString("</div>\n<div class=\"step-body\">\n")

	switch s.Type {
	case stepdoc.StepCode:
		writeCode(b, s)
	case stepdoc.StepImage:
		b.WriteString("<figure class=\"image\">\n")
		fmt.Fprintf(b, "<img src=\"%s\" alt=\"%s\">\n", html.EscapeString(security.SafeLinkURL(s.ImageURL)), html.EscapeString(title))
		if s.Content != "" {
			fmt.Fprintf(b, "<figcaption>%s</figcaption>\n", html.EscapeString(s.Content))
		}
		b.WriteString("</figure>\n")
	case stepdoc.StepHTML:
		// Raw markup is the point of an html step.
		fmt.Fprintf(b, "<div class=\"html-content\">%s</div>\n", s.Content)
	case stepdoc.StepFile:
		b.WriteString("<div class=\"file\">\n")
		fmt.Fprintf(b, "<a class=\"file-link\" href=\"%s\" download=\"%s\">&#128206; %s</a>\n",
			html.EscapeString(security.SafeLinkURL(s.FileData)), html.EscapeString(s.FileName), html.EscapeString(s.FileName))
		if s.Content != "" {
			fmt.Fprintf(b, "<p class=\"caption\">%s</p>\n", html.EscapeString(s.Content))
		}
		b.WriteString("</div>\n")
	default:
		writeText(b, s.Content)
	}

	b.WriteString("</div>\n</article>\n")
}

func writeCode(b *strings.Builder, s stepdoc.Step) {
	b.WriteString("<div class=\"code-block\">\n<div class=\"code-header\">\n")
	if s.Language != "" {
		fmt.Fprintf(b, "<span class=\"code-lang\">%s</span>\n", html.EscapeString(s.Language))
	}
	b.WriteString("<button class=\"copy-btn\" onclick=\"copyCode(this)\">Copy</button>\n</div>\n")
	if s.Language != "" {
		fmt.Fprintf(b, "<pre><code class=\"language-%s\">%s</code></pre>\n",
			html.EscapeString(s.Language), html.EscapeString(s.Content))
	} else {
		fmt.Fprintf(b, "<pre><code>%s</code></pre>\n", html.EscapeString(s.Content))
	}
	b.WriteString("</div>\n")
}

// Paragraph is one blank-line separated block of a text step.
type Paragraph struct {
	Text     string
	Copyable bool
}

// SplitParagraphs splits text step content on blank lines. Paragraphs starting with
// CopyMarker come back with the marker stripped and Copyable set.
func SplitParagraphs(content string) []Paragraph {
	var out []Paragraph
	for _, part := range paragraphSplit.Split(content, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(part, CopyMarker); ok {
			out = append(out, Paragraph{Text: strings.TrimSpace(rest), Copyable: true})
			continue
		}
		out = append(out, Paragraph{Text: part})
	}
	return out
}

func writeText(b *strings.Builder, content string) {
	for _, p := range SplitParagraphs(content) {
		text := html.EscapeString(p.Text)
		if p.Copyable {
			b.WriteString("<div class=\"copy-paragraph\">\n")
			fmt.Fprintf(b, "<p class=\"text\">%s</p>\n", text)
			fmt.Fprintf(b, "<button class=\"copy-btn\" data-copy=\"%s\" onclick=\"copyText(this)\">Copy</button>\n", text)
			b.WriteString("</div>\n")
			continue
		}
		fmt.Fprintf(b, "<p class=\"text\">%s</p>\n", text)
	}
}

func writePasswordGate(b *strings.Builder) {
	b.WriteString("<div id=\"password-gate\" class=\"gate\">\n<div class=\"gate-box\">\n")
	b.WriteString("<h2>This document is locked</h2>\n")
	b.WriteString("<input type=\"password\" id=\"gate-input\" placeholder=\"Password\" onkeydown=\"if(event.key==='Enter')unlock()\">\n")
	b.WriteString("<button onclick=\"unlock()\">Open</button>\n")
	b.WriteString("<p id=\"gate-error\" class=\"gate-error\"></p>\n")
	b.WriteString("</div>\n</div>\n")
}

func writeStyle(b *strings.Builder, t Theme) {
	b.WriteString("<style>\n")
	fmt.Fprintf(b, ":root{--bg:%s;--text:%s;--secondary:%s;--card-bg:%s;--border:%s}\n",
		t.Background, t.Text, t.Secondary, t.CardBackground, t.Border)
	b.WriteString(assets.PageCSS())
	b.WriteString("</style>\n")
}

func writeScript(b *strings.Builder, password string) {
	b.WriteString("<script>\n")
	b.WriteString(assets.PageJS())
	if password != "" {
		// json.Marshal yields a valid JS string literal with <, > and & escaped.
		literal, _ := json.Marshal(password)
		fmt.Fprintf(b, "var gatePassword = %s;\n", literal)
		b.WriteString(assets.GateJS())
	}
	b.WriteString("</script>\n")
}

func variantName(v stepdoc.StyleVariant) string {
	if v == "" || !v.Valid() {
		return string(stepdoc.VariantDefault)
	}
	return string(v)
}

func stepCountLabel(n int) string {
	if n == 1 {
		return "1 step"
	}
	return fmt.Sprintf("%d steps", n)
}
