package extract

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/company-finder/internal/llm"
	"github.com/sells-group/company-finder/internal/model"
)

// rawExtraction mirrors the model's JSON with every scalar left untyped.
type rawExtraction struct {
	Companies          []map[string]any `json:"companies"`
	NextPageURL        any              `json:"next_page_url"`
	PaginationSelector any              `json:"pagination_selector"`
}

// decode parses model output leniently. Wrong-typed fields are stringified
// and records without a name are dropped; only output that is not a JSON
// object is an error. SourceURL is left for the caller, which knows the
// page the records came from.
func decode(text string) (Extraction, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(llm.ExtractJSON(text, '{', '}'))))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return Extraction{}, eris.Wrap(err, "decode extraction")
	}
	if raw == nil {
		return Extraction{}, eris.New("decode extraction: null document")
	}

	out := Extraction{
		Companies:          []model.Company{},
		NextPageURL:        stringify(raw["next_page_url"]),
		PaginationSelector: stringify(raw["pagination_selector"]),
	}

	list, _ := raw["companies"].([]any)
	for _, item := range list {
		rec, ok := item.(map[string]any)
		if !ok {
			continue
		}
		c := model.Company{
			Name:        stringify(rec["name"]),
			Website:     stringify(rec["website"]),
			Description: stringify(rec["description"]),
			Email:       stringify(rec["email"]),
			Phone:       stringify(rec["phone"]),
			Address:     stringify(rec["address"]),
		}.Normalize()
		if !c.Valid() {
			continue
		}
		out.Companies = append(out.Companies, c)
	}
	return out, nil
}

// stringify renders a decoded JSON value as text. Lists are joined with ", "
// and objects are re-encoded.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s := strings.TrimSpace(t)
		if strings.EqualFold(s, "null") || strings.EqualFold(s, "none") || s == "N/A" {
			return ""
		}
		return s
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := stringify(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
