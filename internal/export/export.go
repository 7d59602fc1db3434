// Package export writes discovery results as JSON, YAML or XLSX and reads
// company lists back for enrichment.
package export

import (
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/company-finder/internal/model"
)

// Supported formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatXLSX = "xlsx"
)

// SheetName is the worksheet holding companies in XLSX files.
const SheetName = "Companies"

// columns is the XLSX header row, in cell order.
var columns = []string{"Name", "Website", "Description", "Email", "Phone", "Address", "Source URL"}

// FormatFromPath infers a format from a file extension, defaulting to JSON.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".xlsx":
		return FormatXLSX
	default:
		return FormatJSON
	}
}

// Write encodes resp to w in the given format.
func Write(w io.Writer, format string, resp model.SearchResponse) error {
	switch strings.ToLower(format) {
	case "", FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(resp), "export: encode json")
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(resp); err != nil {
			return eris.Wrap(err, "export: encode yaml")
		}
		return eris.Wrap(enc.Close(), "export: close yaml encoder")
	case FormatXLSX:
		return writeXLSX(w, resp.Results)
	default:
		return eris.Errorf("export: unsupported format %q", format)
	}
}

func writeXLSX(w io.Writer, companies []model.Company) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, c := range columns {
		header.AddCell().SetString(c)
	}
	for _, c := range companies {
		row := sheet.AddRow()
		for _, v := range companyCells(c) {
			row.AddCell().SetString(v)
		}
	}
	return eris.Wrap(f.Write(w), "export: write xlsx")
}

func companyCells(c model.Company) []string {
	return []string{c.Name, c.Website, c.Description, c.Email, c.Phone, c.Address, c.SourceURL}
}
