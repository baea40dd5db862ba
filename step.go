package stepdoc

import "strings"

// Placeholder content for freshly created steps.
const (
	DefaultCodeContent = "// Write your code here"
	DefaultHTMLContent = "<p>Your HTML content here</p>"
)

// StepInit carries optional initial values for a new step. File steps require
// FileData and FileName, which are normally the resolved result of a file read.
type StepInit struct {
	Title    string
	Content  string
	Style    *Style
	ImageURL string
	Language string
	FileData string
	FileName string
	FileType string
}

// NewStep builds a step of the given type with type-appropriate defaults.
// The returned step is not yet part of any document.
func NewStep(id string, typ StepType, init StepInit) (Step, error) {
	if strings.TrimSpace(id) == "" {
		return Step{}, &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if !typ.Valid() {
		return Step{}, &ValidationError{Field: "type", Reason: "unknown step type " + string(typ)}
	}
	if init.Style != nil && !init.Style.Variant.Valid() {
		return Step{}, &ValidationError{Field: "style", Reason: "unknown variant " + string(init.Style.Variant)}
	}

	step := Step{
		ID:      id,
		Type:    typ,
		Title:   strings.TrimSpace(init.Title),
		Content: init.Content,
		Style:   cloneStyle(init.Style),
	}

	switch typ {
	case StepImage:
		step.ImageURL = init.ImageURL
	case StepCode:
		step.Language = init.Language
		if step.Content == "" {
			step.Content = DefaultCodeContent
		}
	case StepHTML:
		if step.Content == "" {
			step.Content = DefaultHTMLContent
		}
	case StepFile:
		if init.FileData == "" {
			return Step{}, &ValidationError{Field: "fileData", Reason: "file steps need file contents"}
		}
		if strings.TrimSpace(init.FileName) == "" {
			return Step{}, &ValidationError{Field: "fileName", Reason: "file steps need a file name"}
		}
		step.FileData = init.FileData
		step.FileName = init.FileName
		step.FileType = init.FileType
		if step.Content == "" {
			step.Content = FileCaption(init.FileName)
		}
	}

	return step, nil
}

// FileCaption is the content synthesized for a new file step.
func FileCaption(fileName string) string {
	return "📎 " + fileName
}

// CopyTitle decorates a title for a copied step. Untitled steps stay untitled.
func CopyTitle(title string) string {
	if title == "" {
		return ""
	}
	return title + " (copy)"
}

func cloneStyle(s *Style) *Style {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// clone returns a copy of the step that shares no pointers with s.
func (s Step) clone() Step {
	s.Style = cloneStyle(s.Style)
	return s
}
