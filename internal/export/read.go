package export

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/company-finder/internal/model"
)

// ReadCompanies decodes a company list. JSON and YAML accept either a bare
// list or an object with a "results" or "companies" list, so the output of
// Write can be fed back in. XLSX reads the Companies sheet (or the first
// sheet) and maps columns by header name.
func ReadCompanies(r io.Reader, format string) ([]model.Company, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "export: read input")
	}

	switch strings.ToLower(format) {
	case "", FormatJSON:
		return decodeList(data, json.Unmarshal)
	case FormatYAML, "yml":
		return decodeList(data, yaml.Unmarshal)
	case FormatXLSX:
		return readXLSX(data)
	default:
		return nil, eris.Errorf("export: unsupported format %q", format)
	}
}

type listDoc struct {
	Results   []model.Company `json:"results" yaml:"results"`
	Companies []model.Company `json:"companies" yaml:"companies"`
}

func decodeList(data []byte, unmarshal func([]byte, any) error) ([]model.Company, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, eris.New("export: empty input")
	}

	var list []model.Company
	if err := unmarshal(trimmed, &list); err == nil {
		return list, nil
	}

	var doc listDoc
	if err := unmarshal(trimmed, &doc); err != nil {
		return nil, eris.Wrap(err, "export: decode companies")
	}
	if len(doc.Companies) > 0 {
		return doc.Companies, nil
	}
	return doc.Results, nil
}

func readXLSX(data []byte) ([]model.Company, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "export: open xlsx")
	}

	sheet, ok := f.Sheet[SheetName]
	if !ok {
		if len(f.Sheets) == 0 {
			return nil, eris.New("export: xlsx has no sheets")
		}
		sheet = f.Sheets[0]
	}
	if len(sheet.Rows) == 0 {
		return []model.Company{}, nil
	}

	index := headerIndex(sheet.Rows[0])
	if _, ok := index["name"]; !ok {
		return nil, eris.New(`export: xlsx header has no "Name" column`)
	}

	out := make([]model.Company, 0, len(sheet.Rows)-1)
	for _, row := range sheet.Rows[1:] {
		cell := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(row.Cells) {
				return ""
			}
			return strings.TrimSpace(row.Cells[i].String())
		}
		c := model.Company{
			Name:        cell("name"),
			Website:     cell("website"),
			Description: cell("description"),
			Email:       cell("email"),
			Phone:       cell("phone"),
			Address:     cell("address"),
			SourceURL:   cell("source url"),
		}
		if c == (model.Company{}) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// headerIndex maps lowercased header labels to cell positions.
func headerIndex(row *xlsx.Row) map[string]int {
	index := make(map[string]int, len(row.Cells))
	for i, c := range row.Cells {
		key := strings.ToLower(strings.TrimSpace(c.String()))
		key = strings.ReplaceAll(key, "_", " ")
		if key != "" {
			if _, dup := index[key]; !dup {
				index[key] = i
			}
		}
	}
	return index
}
