package export

import (
	"fmt"
	"strings"

	"github.com/livetemplate/stepdoc"
)

// Markdown renders a title, an optional description and one "## Step N" section per
// step, numbered 1..N in the given order. Groups are not represented; use
// MarkdownDocument or Flatten to export a grouped document.
func Markdown(title, description string, steps []stepdoc.Step) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if strings.TrimSpace(description) != "" {
		b.WriteString(strings.TrimSpace(description))
		b.WriteString("\n\n")
	}

	for i, s := range steps {
		n := i + 1
		if s.Title != "" {
			fmt.Fprintf(&b, "## Step %d: %s\n\n", n, s.Title)
		} else {
			fmt.Fprintf(&b, "## Step %d\n\n", n)
		}

		switch s.Type {
		case stepdoc.StepCode:
			writeFence(&b, s.Language, s.Content)
		case stepdoc.StepImage:
			alt := s.Title
			if alt == "" {
				alt = fmt.Sprintf("Step %d", n)
			}
			fmt.Fprintf(&b, "![%s](%s)\n\n", alt, s.ImageURL)
			writeBlock(&b, s.Content)
		case stepdoc.StepHTML:
			writeFence(&b, "html", s.Content)
		case stepdoc.StepFile:
			fmt.Fprintf(&b, "[📎 %s](%s)\n\n", s.FileName, s.FileData)
			writeBlock(&b, s.Content)
		default:
			writeBlock(&b, s.Content)
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeBlock(b *strings.Builder, content string) {
	content = strings.Trim(content, "\n")
	if content == "" {
		return
	}
	b.WriteString(content)
	b.WriteString("\n\n")
}

// writeFence emits a fenced block long enough not to be closed by backticks inside
// the content.
func writeFence(b *strings.Builder, lang, content string) {
	fence := strings.Repeat("`", max(3, longestRun(content, '`')+1))
	fmt.Fprintf(b, "%s%s\n", fence, lang)
	b.WriteString(strings.TrimSuffix(content, "\n"))
	fmt.Fprintf(b, "\n%s\n\n", fence)
}

func longestRun(s string, c byte) int {
	longest, run := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	return longest
}
