// ABOUTME: Citation tagged union covering bare-string and structured source references
// ABOUTME: Normalizes both shapes to a display label without discarding the raw JSON

package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// unknownSource is the label for a structured citation with no source field.
const unknownSource = "unknown"

// CitationKind tells which shape a citation arrived in.
type CitationKind int

// Citation kinds
const (
	CitationLabel CitationKind = iota
	CitationStructured
)

// Citation is a reference to supporting material returned with an answer.
// It is either a bare text label or a structured record with at least a
// "source" field; any other fields of the record are kept in Raw.
type Citation struct {
	kind   CitationKind
	source string
	raw    json.RawMessage
}

// LabelCitation builds a bare text citation.
func LabelCitation(label string) Citation {
	raw, _ := json.Marshal(label)
	return Citation{kind: CitationLabel, source: label, raw: raw}
}

// StructuredCitation builds a record citation with the given source and extra fields.
func StructuredCitation(source string, fields map[string]any) Citation {
	rec := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		rec[k] = v
	}
	rec["source"] = source
	raw, _ := json.Marshal(rec)
	return Citation{kind: CitationStructured, source: source, raw: raw}
}

// Kind reports the shape the citation arrived in.
func (c Citation) Kind() CitationKind {
	return c.kind
}

// Label normalizes the citation to a display string.
func (c Citation) Label() string {
	if c.kind == CitationStructured && c.source == "" {
		return unknownSource
	}
	return c.source
}

// Raw returns the citation exactly as it was received.
func (c Citation) Raw() json.RawMessage {
	return c.raw
}

// Fields decodes a structured citation's record. It returns nil for label citations.
func (c Citation) Fields() map[string]any {
	if c.kind != CitationStructured {
		return nil
	}
	var rec map[string]any
	if err := json.Unmarshal(c.raw, &rec); err != nil {
		return nil
	}
	return rec
}

// UnmarshalJSON accepts either a JSON string or a JSON object.
func (c *Citation) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty citation")
	}

	switch trimmed[0] {
	case '"':
		var label string
		if err := json.Unmarshal(trimmed, &label); err != nil {
			return fmt.Errorf("decoding citation label: %w", err)
		}
		c.kind = CitationLabel
		c.source = label
	case '{':
		var rec struct {
			Source any `json:"source"`
		}
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return fmt.Errorf("decoding citation record: %w", err)
		}
		c.kind = CitationStructured
		switch v := rec.Source.(type) {
		case nil:
			c.source = ""
		case string:
			c.source = v
		default:
			c.source = fmt.Sprint(v)
		}
	default:
		return fmt.Errorf("citation must be a string or an object, got %s", string(trimmed))
	}

	c.raw = append(json.RawMessage(nil), trimmed...)
	return nil
}

// MarshalJSON writes the citation back in its original shape.
func (c Citation) MarshalJSON() ([]byte, error) {
	if len(c.raw) > 0 {
		return c.raw, nil
	}
	if c.kind == CitationStructured {
		return json.Marshal(map[string]string{"source": c.source})
	}
	return json.Marshal(c.source)
}

// String returns the display label.
func (c Citation) String() string {
	return c.Label()
}
