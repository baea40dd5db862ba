// Package export converts step documents to HTML, Markdown and JSON, and imports
// them back from JSON and Markdown.
//
// Converters are pure: they never modify the document and produce byte-identical
// output for identical input. They do not validate business rules and render
// whatever they are given on a best-effort basis.
//
// # Numbering
//
// HTML numbers steps per group, restarting at 1 in every group, while ungrouped
// steps continue after the total number of grouped steps. Markdown has no groups:
// callers pass Flatten(doc) and steps are numbered 1..N in that order.
package export

import "github.com/livetemplate/stepdoc"

// GroupedStepCount returns the number of steps held by all groups.
func GroupedStepCount(doc stepdoc.Document) int {
	n := 0
	for _, g := range doc.Groups {
		n += len(g.Steps)
	}
	return n
}

// GroupStepNumber is the display number of the step at index i inside a group.
func GroupStepNumber(i int) int {
	return i + 1
}

// UngroupedStepNumber is the display number of the ungrouped step at index i.
func UngroupedStepNumber(doc stepdoc.Document, i int) int {
	return GroupedStepCount(doc) + i + 1
}

// Flatten lists the steps of every group in group order, followed by the
// ungrouped pool. This is the order used by the Markdown converter.
func Flatten(doc stepdoc.Document) []stepdoc.Step {
	steps := make([]stepdoc.Step, 0, doc.StepCount())
	for _, g := range doc.Groups {
		steps = append(steps, g.Steps...)
	}
	return append(steps, doc.Steps...)
}

// MarkdownDocument exports a whole document to Markdown, flattening its groups.
func MarkdownDocument(doc stepdoc.Document) string {
	return Markdown(doc.Title, doc.Description, Flatten(doc))
}
