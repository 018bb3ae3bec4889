package model

import (
	"bytes"
	"encoding/json"
)

// Body is one record in a content collection. Attribute values are strings
// end to end: the forms submit strings and the backend stores them verbatim.
// Identity is the backend-assigned ID; zero means not yet created.
type Body struct {
	ID    int64
	Attrs map[string]string
}

// Attr returns the named attribute, or "" if absent.
func (b Body) Attr(key string) string {
	return b.Attrs[key]
}

// Clone returns a deep copy of the record.
func (b Body) Clone() Body {
	attrs := make(map[string]string, len(b.Attrs))
	for k, v := range b.Attrs {
		attrs[k] = v
	}
	return Body{ID: b.ID, Attrs: attrs}
}

// MarshalJSON flattens the record into a single JSON object with the id
// alongside the attributes, the shape the REST endpoints exchange.
func (b Body) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(b.Attrs)+1)
	for k, v := range b.Attrs {
		m[k] = v
	}
	if b.ID != 0 {
		m["id"] = b.ID
	}
	return json.Marshal(m)
}

// UnmarshalJSON accepts a flat record object, tolerating numeric attribute
// values by rendering them as strings.
func (b *Body) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	b.ID = 0
	b.Attrs = make(map[string]string, len(raw))
	for k, v := range raw {
		if k == "id" {
			if n, ok := v.(json.Number); ok {
				id, err := n.Int64()
				if err != nil {
					return err
				}
				b.ID = id
			}
			continue
		}
		switch t := v.(type) {
		case string:
			b.Attrs[k] = t
		case json.Number:
			b.Attrs[k] = t.String()
		case nil:
			b.Attrs[k] = ""
		default:
			enc, err := json.Marshal(t)
			if err != nil {
				return err
			}
			b.Attrs[k] = string(enc)
		}
	}
	return nil
}
