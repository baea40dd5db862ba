package export

import (
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livetemplate/stepdoc"
)

var stepNumberPattern = regexp.MustCompile(`id="step-([^"]+)"[^>]*>\s*<div class="step-header">\s*<span class="step-number">(\d+)</span>`)

// renderedNumbers maps step ids to the number shown in the HTML.
func renderedNumbers(t *testing.T, out string) map[string]int {
	t.Helper()
	numbers := map[string]int{}
	for _, m := range stepNumberPattern.FindAllStringSubmatch(out, -1) {
		n, err := strconv.Atoi(m[2])
		require.NoError(t, err)
		numbers[m[1]] = n
	}
	return numbers
}

func TestHTMLNumbering(t *testing.T) {
	out := HTML(numberingDocument(t), HTMLOptions{})

	assert.Equal(t, map[string]int{
		"a1": 1, "a2": 2, "a3": 3,
		"b1": 1, "b2": 2,
		"u1": 6,
	}, renderedNumbers(t, out))
}

func TestHTMLEscapesCodeButNotHTMLSteps(t *testing.T) {
	const payload = "<script>alert(1)</script>"
	doc := stepdoc.NewDocument("XSS", "")
	var err error
	doc, _, err = doc.AddStep(mustStep(t, "code", stepdoc.StepCode, stepdoc.StepInit{Content: payload, Language: "html"}), stepdoc.Ungrouped)
	require.NoError(t, err)

	out := HTML(doc, HTMLOptions{})
	assert.Contains(t, out, `<code class="language-html">&lt;script&gt;alert(1)&lt;/script&gt;</code>`)
	assert.NotContains(t, out, payload)

	doc, _, err = doc.AddStep(mustStep(t, "raw", stepdoc.StepHTML, stepdoc.StepInit{Content: payload}), stepdoc.Ungrouped)
	require.NoError(t, err)

	out = HTML(doc, HTMLOptions{})
	assert.Contains(t, out, `<div class="html-content">`+payload+`</div>`)
	assert.Equal(t, 1, strings.Count(out, payload))
}

func TestHTMLEscapesText(t *testing.T) {
	doc := stepdoc.NewDocument("<b>Title</b>", "a & b")
	var err error
	doc, _, err = doc.AddStep(mustStep(t, "t", stepdoc.StepText, stepdoc.StepInit{Title: "<i>", Content: "1 < 2"}), stepdoc.Ungrouped)
	require.NoError(t, err)

	out := HTML(doc, HTMLOptions{})
	assert.Contains(t, out, "<h1>&lt;b&gt;Title&lt;/b&gt;</h1>")
	assert.Contains(t, out, `<p class="description">a &amp; b</p>`)
	assert.Contains(t, out, `<h3 class="step-title">&lt;i&gt;</h3>`)
	assert.Contains(t, out, `<p class="text">1 &lt; 2</p>`)
}

func TestHTMLCopyParagraph(t *testing.T) {
	doc := stepdoc.NewDocument("Copy", "")
	var err error
	doc, _, err = doc.AddStep(mustStep(t, "t", stepdoc.StepText, stepdoc.StepInit{Content: "Hello\n\n[COPY]World"}), stepdoc.Ungrouped)
	require.NoError(t, err)

	out := HTML(doc, HTMLOptions{})
	assert.Contains(t, out, `<p class="text">Hello</p>`)
	assert.Contains(t, out, `<div class="copy-paragraph">`+"\n"+`<p class="text">World</p>`)
	assert.Contains(t, out, `data-copy="World"`)
	assert.NotContains(t, out, CopyMarker)
	assert.Equal(t, 1, strings.Count(out, "data-copy="))
}

func TestSplitParagraphs(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []Paragraph
	}{
		{"empty", "", nil},
		{"single", "Hello", []Paragraph{{Text: "Hello"}}},
		{"copy", "Hello\n\n[COPY]World", []Paragraph{{Text: "Hello"}, {Text: "World", Copyable: true}}},
		{"whitespace blank line", "a\n   \nb", []Paragraph{{Text: "a"}, {Text: "b"}}},
		{"marker with space", "[COPY] npm install", []Paragraph{{Text: "npm install", Copyable: true}}},
		{"marker mid paragraph", "see [COPY] here", []Paragraph{{Text: "see [COPY] here"}}},
		{"single newline kept", "line1\nline2", []Paragraph{{Text: "line1\nline2"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitParagraphs(tt.content))
		})
	}
}

func TestHTMLPasswordPrompt(t *testing.T) {
	doc := numberingDocument(t)

	open := HTML(doc, HTMLOptions{})
	assert.NotContains(t, open, "password-gate")
	assert.NotContains(t, open, "gatePassword")
	assert.Contains(t, open, `<div id="content">`)

	locked := HTML(doc, HTMLOptions{Password: "s3cret"})
	assert.Contains(t, locked, `<div id="password-gate"`)
	assert.Contains(t, locked, `<div id="content" style="display:none">`)
	assert.Contains(t, locked, `var gatePassword = "s3cret";`)
}

func TestHTMLPasswordCannotBreakOutOfScript(t *testing.T) {
	out := HTML(numberingDocument(t), HTMLOptions{Password: `"</script><script>alert(1)//`})
	assert.NotContains(t, out, "<script>alert(1)")
	assert.Contains(t, out, `</script>`)
}

func TestHTMLThemes(t *testing.T) {
	doc := numberingDocument(t)

	for _, theme := range Themes() {
		t.Run(theme.Name, func(t *testing.T) {
			out := HTML(doc, HTMLOptions{Theme: theme})
			assert.Contains(t, out, "--bg:"+theme.Background)
			assert.Contains(t, out, "--card-bg:"+theme.CardBackground)
		})
	}

	// Zero theme renders light
	assert.Contains(t, HTML(doc, HTMLOptions{}), "--bg:"+ThemeLight.Background)
}

func TestThemeByName(t *testing.T) {
	theme, ok := ThemeByName(" DARK ")
	assert.True(t, ok)
	assert.Equal(t, ThemeDark, theme)

	theme, ok = ThemeByName("neon")
	assert.False(t, ok)
	assert.Equal(t, ThemeLight, theme)
}

func TestHTMLGroups(t *testing.T) {
	doc := numberingDocument(t)
	collapsed := true
	doc, err := doc.UpdateGroup("g2", stepdoc.GroupPatch{
		IsCollapsed: &collapsed,
		Style:       &stepdoc.Style{Variant: stepdoc.VariantWarning, Icon: "!"},
	})
	require.NoError(t, err)

	out := HTML(doc, HTMLOptions{})
	assert.Contains(t, out, `<section class="group variant-default" id="group-g1"`)
	assert.Contains(t, out, `<section class="group variant-warning collapsed" id="group-g2"`)
	assert.Contains(t, out, `<span class="group-count">3 steps</span>`)
	assert.Contains(t, out, `<span class="group-icon">!</span>`)
	assert.Less(t, strings.Index(out, `id="group-g1"`), strings.Index(out, `id="group-g2"`))
	assert.Less(t, strings.Index(out, `id="group-g2"`), strings.Index(out, `id="step-u1"`))
}

func TestHTMLMediaSteps(t *testing.T) {
	doc := stepdoc.NewDocument("Media", "")
	var err error
	doc, _, err = doc.AddStep(mustStep(t, "img", stepdoc.StepImage, stepdoc.StepInit{ImageURL: "https://example.com/a.png", Content: "The dashboard"}), stepdoc.Ungrouped)
	require.NoError(t, err)
	doc, _, err = doc.AddStep(mustStep(t, "f", stepdoc.StepFile, stepdoc.StepInit{FileData: "data:text/plain;base64,aGk=", FileName: "notes.txt"}), stepdoc.Ungrouped)
	require.NoError(t, err)

	out := HTML(doc, HTMLOptions{})
	assert.Contains(t, out, `<img src="https://example.com/a.png" alt="Step 1">`)
	assert.Contains(t, out, `<figcaption>The dashboard</figcaption>`)
	assert.Contains(t, out, `href="data:text/plain;base64,aGk=" download="notes.txt"`)
	assert.Contains(t, out, `<p class="caption">📎 notes.txt</p>`)
}

func TestHTMLDeterministic(t *testing.T) {
	doc := numberingDocument(t)
	opts := HTMLOptions{Theme: ThemeGray, Password: "x"}
	assert.Equal(t, HTML(doc, opts), HTML(doc, opts))
}

func TestHTMLNeutralizesScriptURLs(t *testing.T) {
	doc := stepdoc.NewDocument("Links", "")
	var err error
	doc, _, err = doc.AddStep(mustStep(t, "img", stepdoc.StepImage, stepdoc.StepInit{ImageURL: "javascript:alert(1)"}), stepdoc.Ungrouped)
	require.NoError(t, err)
	doc, _, err = doc.AddStep(mustStep(t, "f", stepdoc.StepFile, stepdoc.StepInit{FileData: "data:text/html,<b>x</b>", FileName: "x.html"}), stepdoc.Ungrouped)
	require.NoError(t, err)

	out := HTML(doc, HTMLOptions{})
	assert.NotContains(t, out, "javascript:")
	assert.Contains(t, out, `<img src="#"`)
	assert.Contains(t, out, `href="#" download="x.html"`)
}
