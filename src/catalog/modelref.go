// Package catalog merges the installed, pullable and full model listings of
// the inference backend into one canonical snapshot.
package catalog

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Kind tags where a model sits relative to the local install.
type Kind int

const (
	KindCatalogOnly Kind = iota
	KindInstalled
	KindPullable
)

func (k Kind) String() string {
	switch k {
	case KindInstalled:
		return "installed"
	case KindPullable:
		return "pullable"
	default:
		return "catalog"
	}
}

// ModelRef identifies one model. CanonicalID is the only equality key.
type ModelRef struct {
	RawID       string `json:"raw_id"`
	CanonicalID string `json:"id"`
	DisplayName string `json:"name"`
	Kind        Kind   `json:"-"`

	Description string `json:"description,omitempty"`
	Device      string `json:"device,omitempty"`
	FileSize    string `json:"file_size,omitempty"`
}

// CanonicalID normalizes a raw identifier: every ':' becomes '-'.
func CanonicalID(raw string) string {
	return strings.ReplaceAll(raw, ":", "-")
}

// NewModelRef builds a ref from a raw identifier.
func NewModelRef(raw string) ModelRef {
	return ModelRef{
		RawID:       raw,
		CanonicalID: CanonicalID(raw),
		DisplayName: raw,
	}
}

// ParseModelRef normalizes one list entry. Entries arrive either as bare
// strings or as objects carrying "id" and/or "name". ok is false when no
// identifier can be derived.
func ParseModelRef(entry json.RawMessage) (ref ModelRef, ok bool) {
	entry = bytes.TrimSpace(entry)
	if len(entry) == 0 {
		return ModelRef{}, false
	}

	switch entry[0] {
	case '"':
		var s string
		if err := json.Unmarshal(entry, &s); err != nil {
			return ModelRef{}, false
		}
		return refFromRaw(s)
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(entry, &obj); err != nil {
			return ModelRef{}, false
		}
		raw := scalarText(obj["id"])
		if raw == "" {
			raw = scalarText(obj["name"])
		}
		ref, ok := refFromRaw(raw)
		if !ok {
			return ModelRef{}, false
		}
		if name := scalarText(obj["name"]); name != "" {
			ref.DisplayName = name
		}
		ref.Description = scalarText(obj["description"])
		ref.Device = scalarText(obj["device"])
		ref.FileSize = scalarText(obj["file_size"])
		return ref, true
	case '[', 'n', 't', 'f':
		// arrays, null and booleans never name a model
		return ModelRef{}, false
	default:
		return refFromRaw(scalarText(entry))
	}
}

// ParseModelList decodes a `{success, models}` envelope. Any malformed or
// unsuccessful payload yields an empty list.
func ParseModelList(body []byte) []ModelRef {
	var envelope struct {
		Success bool            `json:"success"`
		Models  json.RawMessage `json:"models"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || !envelope.Success {
		return nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(envelope.Models, &entries); err != nil {
		return nil
	}

	refs := make([]ModelRef, 0, len(entries))
	for _, entry := range entries {
		if ref, ok := ParseModelRef(entry); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

func refFromRaw(raw string) (ModelRef, bool) {
	if strings.TrimSpace(raw) == "" {
		return ModelRef{}, false
	}
	return NewModelRef(raw), true
}

// scalarText renders a JSON string or number as text; anything else is "".
func scalarText(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return ""
	}
	if v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return ""
		}
		return s
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil {
		return ""
	}
	return n.String()
}
