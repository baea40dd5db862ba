package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/livetemplate/stepdoc"
)

// SchemaVersion tags the JSON wire format.
const SchemaVersion = "1.0"

// Envelope is the JSON wire format of an exported document.
type Envelope struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Steps       []stepdoc.Step      `json:"steps"`
	Groups      []stepdoc.StepGroup `json:"groups"`
	ExportedAt  time.Time           `json:"exportedAt"`
	Version     string              `json:"version"`
}

// requiredFields must be present in every import.
var requiredFields = []string{"version", "steps", "groups"}

// JSON serializes doc with full fidelity. exportedAt is passed in so that identical
// input always yields identical output.
func JSON(doc stepdoc.Document, exportedAt time.Time) (string, error) {
	doc = doc.Normalized()
	env := Envelope{
		Title:       doc.Title,
		Description: doc.Description,
		Steps:       doc.Steps,
		Groups:      doc.Groups,
		ExportedAt:  exportedAt.UTC(),
		Version:     SchemaVersion,
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", &stepdoc.SerializationError{Reason: "encode document", Err: err}
	}
	return string(data), nil
}

// ImportJSON decodes a JSON export. The whole import is rejected with a
// SerializationError when the input is malformed, carries unknown fields, lacks
// version, steps or groups, has an unsupported version, or breaks the document
// invariants. A partial document is never returned.
func ImportJSON(data []byte) (stepdoc.Document, error) {
	env, err := DecodeEnvelope(data)
	if err != nil {
		return stepdoc.Document{}, err
	}

	doc := stepdoc.Document{
		Title:       env.Title,
		Description: env.Description,
		Steps:       env.Steps,
		Groups:      env.Groups,
	}.Normalized()

	if err := doc.Validate(); err != nil {
		return stepdoc.Document{}, &stepdoc.SerializationError{Reason: "document is inconsistent", Err: err}
	}
	return doc, nil
}

// DecodeEnvelope checks the schema of a JSON export and decodes it without
// validating the document invariants.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Envelope{}, &stepdoc.SerializationError{Reason: "malformed JSON", Err: err}
	}

	for _, field := range requiredFields {
		value, ok := raw[field]
		if !ok || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			return Envelope{}, &stepdoc.SerializationError{Field: field, Reason: "missing"}
		}
	}

	var version string
	if err := json.Unmarshal(raw["version"], &version); err != nil {
		return Envelope{}, &stepdoc.SerializationError{Field: "version", Reason: "must be a string", Err: err}
	}
	if version != SchemaVersion {
		return Envelope{}, &stepdoc.SerializationError{
			Field:  "version",
			Reason: fmt.Sprintf("unsupported version %q (want %q)", version, SchemaVersion),
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var env Envelope
	if err := dec.Decode(&env); err != nil {
		return Envelope{}, &stepdoc.SerializationError{Reason: "does not match schema", Err: err}
	}
	return env, nil
}
