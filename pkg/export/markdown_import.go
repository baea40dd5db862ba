package export

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/livetemplate/stepdoc"
)

// Frontmatter is the optional YAML header of an imported Markdown file.
type Frontmatter struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// stepHeading strips the "Step N:" / "N." numbering from exported step headings.
var stepHeading = regexp.MustCompile(`^(?:[Ss]tep\s+\d+\s*[.:)]?|\d+[.:)])\s*`)

// ImportMarkdown builds an ungrouped document from Markdown. The "#" heading becomes
// the title, text before the first "##" heading the description, and every "##"
// heading starts a step:
//   - a body that is a single fenced block becomes a code step, or an html step when
//     the block is tagged html; untagged blocks get a detected language
//   - a body starting with an image becomes an image step, the rest its caption
//   - a body starting with a "📎" link becomes a file step
//   - anything else becomes a text step holding the raw Markdown
//
// Markdown carries no groups, so a grouped document does not survive a round trip.
func ImportMarkdown(data []byte, ids stepdoc.IDFunc) (stepdoc.Document, error) {
	if ids == nil {
		ids = stepdoc.UUIDs
	}
	fm, src, err := extractFrontmatter(data)
	if err != nil {
		return stepdoc.Document{}, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	root := md.Parser().Parse(text.NewReader(src))

	doc := stepdoc.NewDocument(fm.Title, fm.Description)

	var headings []*ast.Heading
	var title *ast.Heading
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok {
			continue
		}
		switch {
		case h.Level == 1 && title == nil && len(headings) == 0:
			title = h
		case h.Level == 2:
			headings = append(headings, h)
		}
	}

	spans := blockSpans(src, root)

	preambleStart := 0
	if title != nil {
		doc.Title = headingText(title, src)
		preambleStart = spans[title].end
	}
	preambleEnd := len(src)
	if len(headings) > 0 {
		preambleEnd = spans[headings[0]].start
	}
	if desc := strings.TrimSpace(slice(src, preambleStart, preambleEnd)); desc != "" {
		doc.Description = desc
	}

	for i, h := range headings {
		bodyEnd := len(src)
		if i+1 < len(headings) {
			bodyEnd = spans[headings[i+1]].start
		}
		step, err := buildStep(ids(), h, src, spans, spans[h].end, bodyEnd)
		if err != nil {
			return stepdoc.Document{}, &stepdoc.SerializationError{Field: "steps", Reason: "build step", Err: err}
		}
		var addErr error
		doc, _, addErr = doc.AddStep(step, stepdoc.Ungrouped)
		if addErr != nil {
			return stepdoc.Document{}, &stepdoc.SerializationError{Field: "steps", Reason: "add step", Err: addErr}
		}
	}

	return doc, nil
}

// buildStep classifies the blocks between a step heading and the next one.
func buildStep(id string, h *ast.Heading, src []byte, spans map[ast.Node]span, start, end int) (stepdoc.Step, error) {
	init := stepdoc.StepInit{Title: stepHeading.ReplaceAllString(headingText(h, src), "")}

	var blocks []ast.Node
	for n := h.NextSibling(); n != nil; n = n.NextSibling() {
		if next, ok := n.(*ast.Heading); ok && next.Level <= 2 {
			break
		}
		blocks = append(blocks, n)
	}

	body := strings.Trim(slice(src, start, end), "\n")
	if len(blocks) == 0 {
		init.Content = body
		return stepdoc.NewStep(id, stepdoc.StepText, init)
	}

	if fc, ok := blocks[0].(*ast.FencedCodeBlock); ok && len(blocks) == 1 {
		lang := string(fc.Language(src))
		init.Content = strings.TrimSuffix(string(fc.Lines().Value(src)), "\n")
		if lang == "html" {
			return stepdoc.NewStep(id, stepdoc.StepHTML, init)
		}
		if lang == "" {
			lang = DetectLanguage(init.Content)
		}
		init.Language = lang
		return stepdoc.NewStep(id, stepdoc.StepCode, init)
	}

	if p, ok := blocks[0].(*ast.Paragraph); ok && p.ChildCount() == 1 {
		caption := ""
		if len(blocks) > 1 {
			caption = strings.Trim(slice(src, spans[blocks[1]].start, end), "\n")
		}
		switch child := p.FirstChild().(type) {
		case *ast.Image:
			init.ImageURL = string(child.Destination)
			init.Content = caption
			return stepdoc.NewStep(id, stepdoc.StepImage, init)
		case *ast.Link:
			if name, ok := strings.CutPrefix(inlineText(child, src), "📎"); ok {
				init.FileName = strings.TrimSpace(name)
				init.FileData = string(child.Destination)
				init.FileType = mediaType(init.FileData)
				init.Content = caption
				if init.Content == "" {
					init.Content = stepdoc.FileCaption(init.FileName)
				}
				return stepdoc.NewStep(id, stepdoc.StepFile, init)
			}
		}
	}

	init.Content = body
	return stepdoc.NewStep(id, stepdoc.StepText, init)
}

// DetectLanguage guesses the language of a code snippet. It returns "" when no
// lexer recognizes it.
func DetectLanguage(code string) string {
	lexer := lexers.Analyse(code)
	if lexer == nil {
		return ""
	}
	return strings.ToLower(lexer.Config().Name)
}

// extractFrontmatter splits an optional YAML header from the Markdown body.
func extractFrontmatter(content []byte) (Frontmatter, []byte, error) {
	var fm Frontmatter
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return fm, content, nil
	}

	endIdx := bytes.Index(content[4:], []byte("\n---\n"))
	if endIdx == -1 {
		return fm, nil, &stepdoc.SerializationError{Field: "frontmatter", Reason: "unclosed frontmatter"}
	}

	if err := yaml.Unmarshal(content[4:4+endIdx], &fm); err != nil {
		return fm, nil, &stepdoc.SerializationError{Field: "frontmatter", Reason: "invalid YAML", Err: err}
	}
	return fm, content[4+endIdx+5:], nil
}

func headingText(h *ast.Heading, src []byte) string {
	return strings.TrimSpace(string(h.Lines().Value(src)))
}

func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(src))
			continue
		}
		b.WriteString(inlineText(c, src))
	}
	return b.String()
}

// mediaType extracts the MIME type of a data URI.
func mediaType(uri string) string {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return ""
	}
	end := strings.IndexAny(rest, ";,")
	if end < 0 {
		return ""
	}
	return rest[:end]
}

// span is the byte range of the source lines a top-level block occupies.
type span struct{ start, end int }

// blockSpans locates every top-level block of root. A block without source
// segments (an empty heading, a thematic break, an empty fence) starts on the first
// non-blank line after the previous block.
func blockSpans(src []byte, root ast.Node) map[ast.Node]span {
	spans := make(map[ast.Node]span)
	cursor := 0
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		start := nextNonBlank(src, cursor)
		if fc, ok := n.(*ast.FencedCodeBlock); ok {
			// The opening fence line holds the info string, or sits right above
			// the first content line.
			switch {
			case fc.Info != nil:
				start = lineBegin(src, fc.Info.Segment.Start)
			case fc.Lines().Len() > 0:
				start = lineBegin(src, max(lineBegin(src, fc.Lines().At(0).Start)-1, 0))
			}
		} else if pos, ok := firstSegmentStart(n); ok {
			start = lineBegin(src, pos)
		}
		start = min(max(start, cursor), len(src))

		end := lineEndAt(src, start)
		if stop, ok := lastSegmentStop(n); ok && stop > start {
			end = max(end, lineEndAt(src, stop-1))
		}
		switch n.(type) {
		case *ast.FencedCodeBlock:
			if end < len(src) && hasFencePrefix(src[end:]) {
				end = lineEndAt(src, end)
			}
		case *ast.Heading:
			// A setext underline follows the heading text.
			if !isATXHeading(src[start:]) && end < len(src) {
				end = lineEndAt(src, end)
			}
		}

		spans[n] = span{start: start, end: end}
		cursor = end
	}
	return spans
}

// firstSegmentStart returns the offset of the first source line of n or of its
// first descendant that has lines.
func firstSegmentStart(n ast.Node) (int, bool) {
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		return n.Lines().At(0).Start, true
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if start, ok := firstSegmentStart(c); ok {
			return start, true
		}
	}
	return 0, false
}

// lastSegmentStop returns the end offset of the last source line of n or of its
// last descendant that has lines.
func lastSegmentStop(n ast.Node) (int, bool) {
	for c := n.LastChild(); c != nil; c = c.PreviousSibling() {
		if stop, ok := lastSegmentStop(c); ok {
			return stop, true
		}
	}
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		return n.Lines().At(n.Lines().Len() - 1).Stop, true
	}
	return 0, false
}

// lineBegin returns the offset of the beginning of the line holding pos.
func lineBegin(src []byte, pos int) int {
	pos = min(pos, len(src))
	for pos > 0 && src[pos-1] != '\n' {
		pos--
	}
	return pos
}

// lineEndAt returns the offset just past the line holding pos.
func lineEndAt(src []byte, pos int) int {
	if pos >= len(src) {
		return len(src)
	}
	if i := bytes.IndexByte(src[pos:], '\n'); i >= 0 {
		return pos + i + 1
	}
	return len(src)
}

// nextNonBlank returns the start of the first non-blank line at or after from.
func nextNonBlank(src []byte, from int) int {
	for from < len(src) {
		end := lineEndAt(src, from)
		if len(bytes.TrimSpace(src[from:end])) > 0 {
			return from
		}
		from = end
	}
	return len(src)
}

func isATXHeading(line []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(line, " "), []byte("#"))
}

func hasFencePrefix(line []byte) bool {
	line = bytes.TrimLeft(line, " ")
	return bytes.HasPrefix(line, []byte("```")) || bytes.HasPrefix(line, []byte("~~~"))
}

// slice returns src[start:end] as a string, or "" when the range is empty.
func slice(src []byte, start, end int) string {
	end = min(end, len(src))
	if start >= end {
		return ""
	}
	return string(src[start:end])
}
