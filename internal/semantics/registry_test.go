package semantics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/TerraMA2/terrama2-sub002/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := Load(filepath.Join("testdata", "semantics"), nil)
	require.NoError(t, err)
	return r
}

func TestLoad_FlattensDocumentsInFileOrder(t *testing.T) {
	r := loadTestRegistry(t)

	codes := make([]string, 0, r.Len())
	for _, d := range r.List() {
		codes = append(codes, d.Code)
	}
	assert.Equal(t, []string{
		"DCP-generic",
		"OCCURRENCE-wfp",
		"GRID-gdal",
		"ANALYSIS_MONITORED_OBJECT-postgis",
		"DCP-generic",
	}, codes)
}

func TestLoad_DropsDescriptorsWithoutGUI(t *testing.T) {
	r := loadTestRegistry(t)

	_, err := r.Lookup("DCP-inpe")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSemanticsNotFound))
}

func TestLookup_FirstMatchWins(t *testing.T) {
	r := loadTestRegistry(t)

	d, err := r.Lookup("DCP-generic")
	require.NoError(t, err)
	assert.Equal(t, "DCP-generic", d.Driver)
	assert.Equal(t, TypeDCP, d.DataSeriesType)
	assert.True(t, d.AllowStorage)
	assert.True(t, d.CustomFormat)
	assert.Equal(t, []string{"FILE", "FTP", "HTTP"}, d.ProviderTypes())
}

func TestLookup_Idempotent(t *testing.T) {
	r := loadTestRegistry(t)

	first, err := r.Lookup("GRID-gdal")
	require.NoError(t, err)
	second, err := r.Lookup("GRID-gdal")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first.Object(), second.Object())
}

func TestLookup_NotFoundIsValidationError(t *testing.T) {
	r := NewRegistry()

	_, err := r.Lookup("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSemanticsNotFound))
	assert.True(t, errors.Is(err, common.ErrValidation))
	assert.Contains(t, err.Error(), `"nope"`)
}

func TestLoad_NormalizesTemporality(t *testing.T) {
	r := loadTestRegistry(t)

	occ, err := r.Lookup("OCCURRENCE-wfp")
	require.NoError(t, err)
	assert.Equal(t, TemporalityDynamic, occ.Temporality)

	mo, err := r.Lookup("ANALYSIS_MONITORED_OBJECT-postgis")
	require.NoError(t, err)
	assert.True(t, mo.IsStatic())
}

func TestLoad_YAMLDemandFallback(t *testing.T) {
	d := Descriptor{Code: "X", GUI: &GUI{Demand: []string{"FILE"}}}
	assert.Equal(t, []string{"FILE"}, d.ProviderTypes())
}

func TestLoad_MissingDirectory(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)
}

func TestLoad_InvalidDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`[{"code": 1`), 0o644))

	_, err := Load(dir, nil)
	assert.Error(t, err)
}

func TestList_ReturnsCopy(t *testing.T) {
	r := loadTestRegistry(t)

	list := r.List()
	list[0].Code = "mutated"

	d, err := r.Lookup("DCP-generic")
	require.NoError(t, err)
	assert.Equal(t, "DCP-generic", d.Code)
}

func TestValidateFormat(t *testing.T) {
	r := loadTestRegistry(t)

	tests := []struct {
		name    string
		code    string
		format  map[string]interface{}
		wantErr bool
	}{
		{"valid", "DCP-generic", map[string]interface{}{"mask": "file.txt", "timezone": "-03"}, false},
		{"missing required", "DCP-generic", map[string]interface{}{"mask": "file.txt"}, true},
		{"wrong type", "DCP-generic", map[string]interface{}{"mask": 1, "timezone": "0"}, true},
		{"nil format against required", "GRID-gdal", nil, true},
		{"no schema accepts anything", "ANALYSIS_MONITORED_OBJECT-postgis", map[string]interface{}{"x": 1}, false},
		{"unknown code", "missing", map[string]interface{}{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.ValidateFormat(tt.code, tt.format)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, common.ErrValidation))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateFormat_FieldErrors(t *testing.T) {
	r := loadTestRegistry(t)

	err := r.ValidateFormat("DCP-generic", map[string]interface{}{"mask": "m"})
	var verr *common.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Errors, 1)
	assert.Contains(t, verr.Errors[0].Message, "timezone")
}

func TestDescriptorObject(t *testing.T) {
	r := loadTestRegistry(t)
	d, err := r.Lookup("DCP-generic")
	require.NoError(t, err)

	obj := d.Object()
	assert.Equal(t, "DCP-generic", obj["code"])
	assert.Equal(t, "DYNAMIC", obj["temporality"])
	gui, ok := obj["gui"].(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, gui["form"], 3)

	// the projection must not alias registry state
	obj["metadata"].(map[string]interface{})["timestamp_property"] = "changed"
	again, _ := r.Lookup("DCP-generic")
	assert.Equal(t, "DateTime", again.Metadata["timestamp_property"])
}
