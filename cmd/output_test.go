package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/company-finder/internal/model"
)

func sampleResponse() model.SearchResponse {
	return model.NewSearchResponse([]model.Company{
		{Name: "Acme Plumbing", Website: "https://acme.example", Phone: "+1 512 555 0100"},
		{Name: "Beta Pipes", Address: "1 Main St, Austin"},
	})
}

func TestResolveFormat(t *testing.T) {
	assert.Equal(t, "json", resolveFormat("", ""))
	assert.Equal(t, "yaml", resolveFormat("", "out.yml"))
	assert.Equal(t, "xlsx", resolveFormat("", "out.xlsx"))
	assert.Equal(t, "json", resolveFormat("json", "out.xlsx"))
}

func TestWriteResponse_Stdout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResponse(&buf, "", "json", sampleResponse()))

	var got model.SearchResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 2, got.TotalCompanies)
	assert.Equal(t, "Acme Plumbing", got.Results[0].Name)
}

func TestWriteResponse_FileRoundTripsThroughReadCompanies(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"out.json", "out.yaml", "out.xlsx"} {
		path := filepath.Join(dir, name)
		require.NoError(t, writeResponse(nil, path, resolveFormat("", path), sampleResponse()), name)

		companies, err := readCompanies(path)
		require.NoError(t, err, name)
		require.Len(t, companies, 2, name)
		assert.Equal(t, "Acme Plumbing", companies[0].Name, name)
		assert.Equal(t, "https://acme.example", companies[0].Website, name)
		assert.Equal(t, "1 Main St, Austin", companies[1].Address, name)
	}
}

func TestWriteResponse_BadFormatCreatesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	err := writeResponse(nil, path, "csv", sampleResponse())
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestReadCompanies_MissingFile(t *testing.T) {
	_, err := readCompanies(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open")
}
