// Package flowdoc converts flows to and from portable YAML/JSON documents.
// Steps inside a document reference each other by key instead of database id.
package flowdoc

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/apperr"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/models"
	"github.com/Plugtour/plugconversa-pro-sub000/internal/store"
)

// CodeInvalid is reported for every document that cannot be imported.
const CodeInvalid = "invalid_flow_document"

// Version is the document format written by Marshal.
const Version = 1

// Supported encodings.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Document is a flow with its steps.
type Document struct {
	Version int    `yaml:"version" json:"version"`
	Name    string `yaml:"name" json:"name"`
	Steps   []Step `yaml:"steps" json:"steps"`
}

// Step is one flow step. Next, True and False name other steps by Key.
type Step struct {
	Key     string `yaml:"key" json:"key"`
	Title   string `yaml:"title,omitempty" json:"title,omitempty"`
	Message string `yaml:"message,omitempty" json:"message,omitempty"`
	Type    string `yaml:"type,omitempty" json:"type,omitempty"`
	Next    string `yaml:"next,omitempty" json:"next,omitempty"`
	True    string `yaml:"on_true,omitempty" json:"on_true,omitempty"`
	False   string `yaml:"on_false,omitempty" json:"on_false,omitempty"`
}

// Validate implements validation.Validatable.
func (s Step) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Key, validation.Required, validation.Length(1, 64)),
		validation.Field(&s.Type, validation.In(models.StepTypes...)),
	)
}

// Validate checks field rules, key uniqueness and that every reference
// names a step of the document.
func (d *Document) Validate() error {
	if err := validation.ValidateStruct(d,
		validation.Field(&d.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&d.Steps),
	); err != nil {
		return invalid(err.Error(), err)
	}

	keys := make(map[string]struct{}, len(d.Steps))
	for _, st := range d.Steps {
		if _, dup := keys[st.Key]; dup {
			return invalid(fmt.Sprintf("duplicate step key %q", st.Key), nil)
		}
		keys[st.Key] = struct{}{}
	}
	for _, st := range d.Steps {
		for _, ref := range []string{st.Next, st.True, st.False} {
			if ref == "" {
				continue
			}
			if _, ok := keys[ref]; !ok {
				return invalid(fmt.Sprintf("step %q references unknown step %q", st.Key, ref), nil)
			}
		}
	}
	return nil
}

func invalid(msg string, details error) error {
	return &apperr.Error{Kind: apperr.ErrValidation, Code: CodeInvalid, Message: msg, Details: details}
}

// Parse decodes a YAML or JSON document and validates it. Steps without a
// type become message steps.
func Parse(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, invalid("empty document", nil)
	}
	var d Document
	// JSON documents are valid YAML.
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, invalid("malformed document: "+err.Error(), nil)
	}
	for i := range d.Steps {
		if d.Steps[i].Type == "" {
			d.Steps[i].Type = models.StepMessage
		}
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// FromFlow builds a document from a flow and its steps. Keys are assigned
// in step order ("step-1", "step-2", ...); references to steps outside the
// flow are dropped.
func FromFlow(f *models.Flow) *Document {
	keys := make(map[int64]string, len(f.Steps))
	for i, st := range f.Steps {
		keys[st.ID] = "step-" + strconv.Itoa(i+1)
	}
	ref := func(id *int64) string {
		if id == nil {
			return ""
		}
		return keys[*id]
	}

	d := &Document{Version: Version, Name: f.Name, Steps: make([]Step, len(f.Steps))}
	for i, st := range f.Steps {
		d.Steps[i] = Step{
			Key:     keys[st.ID],
			Title:   st.Title,
			Message: st.Message,
			Type:    st.Type,
			Next:    ref(st.NextStepID),
			True:    ref(st.ConditionTrueID),
			False:   ref(st.ConditionFalseID),
		}
	}
	return d
}

// Graph returns the steps as store graph nodes positioned in document order.
func (d *Document) Graph() []store.GraphNode {
	nodes := make([]store.GraphNode, len(d.Steps))
	for i, st := range d.Steps {
		nodes[i] = store.GraphNode{
			Key:      st.Key,
			Title:    st.Title,
			Message:  st.Message,
			Type:     st.Type,
			Position: i,
			Next:     st.Next,
			True:     st.True,
			False:    st.False,
		}
	}
	return nodes
}

// Marshal encodes d as YAML (the default) or JSON.
func (d *Document) Marshal(format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(d, "", "  ")
	case FormatYAML, "":
		return yaml.Marshal(d)
	default:
		return nil, apperr.Invalid("invalid_format", fmt.Sprintf("unsupported format %q", format))
	}
}

// ContentType returns the media type for format.
func ContentType(format string) string {
	if format == FormatJSON {
		return "application/json"
	}
	return "application/yaml"
}

// Checksum returns the hex-encoded SHA-256 digest of data.
func Checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
