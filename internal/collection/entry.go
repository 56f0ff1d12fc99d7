package collection

import (
	"encoding/json"
	"maps"
	"strings"
)

// Entry is one saved book. CatalogKey is unique within a user's collection.
// Extra holds any other fields the client sent at save time; they are stored
// and returned as-is, flattened beside the named fields.
type Entry struct {
	CatalogKey string         `json:"catalogKey" bson:"catalogKey"`
	Title      string         `json:"title,omitempty" bson:"title,omitempty"`
	Author     string         `json:"author,omitempty" bson:"author,omitempty"`
	Extra      map[string]any `json:"-" bson:",inline"`
}

// fields set by name; a client cannot smuggle them in through Extra
var reservedFields = map[string]bool{
	"catalogKey": true,
	"key":        true,
	"title":      true,
	"author":     true,
	"_id":        true,
}

func (e Entry) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Extra)+3)
	maps.Copy(out, e.Extra)
	out["catalogKey"] = e.CatalogKey
	if e.Title != "" {
		out["title"] = e.Title
	}
	if e.Author != "" {
		out["author"] = e.Author
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the catalog key as "catalogKey" or the older "key".
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*e = Entry{
		CatalogKey: stringField(raw, "catalogKey"),
		Title:      stringField(raw, "title"),
		Author:     stringField(raw, "author"),
	}
	if e.CatalogKey == "" {
		e.CatalogKey = stringField(raw, "key")
	}

	for k, v := range raw {
		if reservedFields[k] {
			continue
		}
		if e.Extra == nil {
			e.Extra = make(map[string]any)
		}
		e.Extra[k] = v
	}
	return nil
}

func stringField(raw map[string]any, name string) string {
	s, _ := raw[name].(string)
	return strings.TrimSpace(s)
}

// withDetails returns a copy of e with the live catalog fields merged over
// the stored ones. e itself is not modified.
func (e Entry) withDetails(cover *string, description string) Entry {
	out := e
	out.Extra = make(map[string]any, len(e.Extra)+2)
	maps.Copy(out.Extra, e.Extra)
	if cover != nil {
		out.Extra["cover"] = *cover
	} else {
		out.Extra["cover"] = nil
	}
	out.Extra["description"] = description
	return out
}
