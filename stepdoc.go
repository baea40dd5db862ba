// Package stepdoc provides the document model for step-by-step guides: an ordered
// collection of typed steps, optionally organized into collapsible groups.
//
// A Document is an immutable value. Every command (AddStep, Move, DeleteGroup, ...)
// returns the next Document and leaves the receiver untouched, so snapshots can be
// shared freely between a UI layer, exporters and persistence adapters. Store wraps a
// Document behind a single lock for callers that want a mutable handle.
package stepdoc

// StepType identifies the kind of content a step carries.
type StepType string

const (
	StepText  StepType = "text"
	StepImage StepType = "image"
	StepCode  StepType = "code"
	StepHTML  StepType = "html"
	StepFile  StepType = "file"
)

// Valid reports whether t is one of the known step types.
func (t StepType) Valid() bool {
	switch t {
	case StepText, StepImage, StepCode, StepHTML, StepFile:
		return true
	}
	return false
}

// StyleVariant selects the visual treatment of a step or group.
type StyleVariant string

const (
	VariantDefault StyleVariant = "default"
	VariantInfo    StyleVariant = "info"
	VariantWarning StyleVariant = "warning"
	VariantSuccess StyleVariant = "success"
	VariantError   StyleVariant = "error"
)

// Valid reports whether v is a known variant. The empty variant is treated as default.
func (v StyleVariant) Valid() bool {
	switch v {
	case "", VariantDefault, VariantInfo, VariantWarning, VariantSuccess, VariantError:
		return true
	}
	return false
}

// Style is the display style of a step or group.
type Style struct {
	Variant StyleVariant `json:"variant"`
	Icon    string       `json:"icon,omitempty"`
}

// DefaultStyle returns the style applied to new groups.
func DefaultStyle() Style {
	return Style{Variant: VariantDefault}
}

// Step is a single content unit of a document.
type Step struct {
	ID      string   `json:"id"`
	Type    StepType `json:"type"`
	Content string   `json:"content"`
	Title   string   `json:"title,omitempty"`
	Style   *Style   `json:"style,omitempty"`
	GroupID string   `json:"groupId,omitempty"` // Set iff the step lives inside a group

	ImageURL string `json:"imageUrl,omitempty"` // image
	Language string `json:"language,omitempty"` // code
	FileData string `json:"fileData,omitempty"` // file: data URI
	FileName string `json:"fileName,omitempty"` // file
	FileType string `json:"fileType,omitempty"` // file: MIME type
}

// StepGroup is a named, collapsible container owning an ordered sequence of steps.
type StepGroup struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	IsCollapsed bool   `json:"isCollapsed"`
	Style       Style  `json:"style"`
	Steps       []Step `json:"steps"`
}

// Document is a complete step document: the ungrouped pool plus the ordered groups.
type Document struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Steps       []Step      `json:"steps"`
	Groups      []StepGroup `json:"groups"`
}

// NewDocument creates an empty document.
func NewDocument(title, description string) Document {
	return Document{
		Title:       title,
		Description: description,
		Steps:       []Step{},
		Groups:      []StepGroup{},
	}
}
