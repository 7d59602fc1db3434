package main

import (
	"bytes"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/company-finder/internal/export"
	"github.com/sells-group/company-finder/internal/model"
)

// resolveFormat picks the output format: an explicit flag wins, then the
// output file's extension, then JSON.
func resolveFormat(flag, path string) string {
	if flag != "" {
		return flag
	}
	return export.FormatFromPath(path)
}

// writeResponse renders resp to path, or to stdout when path is empty. The
// file is only created once rendering succeeded.
func writeResponse(stdout io.Writer, path, format string, resp model.SearchResponse) error {
	var buf bytes.Buffer
	if err := export.Write(&buf, format, resp); err != nil {
		return err
	}
	if path == "" {
		_, err := stdout.Write(buf.Bytes())
		return eris.Wrap(err, "write output")
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return eris.Wrapf(err, "write %s", path)
	}
	return nil
}

// readCompanies loads an enrichment batch from path.
func readCompanies(path string) ([]model.Company, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close() //nolint:errcheck

	return export.ReadCompanies(f, export.FormatFromPath(path))
}
