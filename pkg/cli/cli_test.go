package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semcube/internal/domain"
)

// captureStdout redirects os.Stdout to a pipe and returns a function that
// restores stdout and returns the captured output.
func captureStdout(t *testing.T) func() string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w

	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		_, _ = buf.ReadFrom(r)
		close(done)
	}()

	return func() string {
		_ = w.Close()
		<-done
		os.Stdout = old
		return buf.String()
	}
}

const auditsCubeYAML = `apiVersion: semantics/v1
kind: Cube
metadata:
  name: RadiologyAudits
spec:
  sql: SELECT * FROM radiology_audits
  measures:
    count:
      type: count
      drillMembers: [caseId, modality]
    cat5Count:
      type: count
      filters:
        - sql: "${CUBE}.final_output = 'CAT5'"
  dimensions:
    caseId:
      type: string
      sql: ${CUBE}.case_id
    modality:
      type: string
      sql: ${CUBE}.modality
    reportDate:
      type: time
      sql: ${CUBE}.report_date
  segments:
    ctScans:
      sql: "${CUBE}.modality = 'CT'"
`

// writeSchemaDir materializes a schema directory for CLI tests.
func writeSchemaDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "radiology_audits.yaml")
	require.NoError(t, os.WriteFile(path, []byte(auditsCubeYAML), 0o644))
	return dir
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	restore := captureStdout(t)
	cmd := newRootCmd()
	cmd.SetArgs(args)
	err := cmd.Execute()
	return restore(), err
}

func TestSchemaValidate(t *testing.T) {
	dir := writeSchemaDir(t)

	out, err := runCLI(t, "schema", "validate", "--schema-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "ok    RadiologyAudits")
}

func TestSchemaValidateReportsFailures(t *testing.T) {
	dir := writeSchemaDir(t)
	broken := `apiVersion: semantics/v1
kind: Cube
metadata:
  name: Broken
spec:
  sql: SELECT * FROM broken
  measures:
    total:
      type: exotic
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(broken), 0o644))

	out, err := runCLI(t, "schema", "validate", "--schema-dir", dir)
	require.Error(t, err)
	assert.Contains(t, out, "ok    RadiologyAudits")
	assert.Contains(t, out, "error Broken")
}

func TestSchemaListJSON(t *testing.T) {
	dir := writeSchemaDir(t)

	out, err := runCLI(t, "schema", "list", "--schema-dir", dir, "-o", "json")
	require.NoError(t, err)

	var cubes map[string]struct {
		Measures   []string `json:"measures"`
		Dimensions []string `json:"dimensions"`
		Segments   []string `json:"segments"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &cubes))
	require.Contains(t, cubes, "RadiologyAudits")
	assert.Equal(t, []string{"cat5Count", "count"}, cubes["RadiologyAudits"].Measures)
	assert.Equal(t, []string{"caseId", "modality", "reportDate"}, cubes["RadiologyAudits"].Dimensions)
	assert.Equal(t, []string{"ctScans"}, cubes["RadiologyAudits"].Segments)
}

func TestQueryCompileJSON(t *testing.T) {
	dir := writeSchemaDir(t)

	out, err := runCLI(t, "query", "compile",
		"--schema-dir", dir, "-o", "json",
		"--cube", "RadiologyAudits",
		"--measures", "count,cat5Count",
		"--dimensions", "modality",
		"--segments", "ctScans")
	require.NoError(t, err)

	var compiled struct {
		SQL      string        `json:"sql"`
		Args     []interface{} `json:"args"`
		Manifest []struct {
			Alias string `json:"alias"`
		} `json:"manifest"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &compiled))
	assert.Contains(t, compiled.SQL, `COUNT(*) AS "count"`)
	assert.Contains(t, compiled.SQL, "WHERE (RadiologyAudits.modality = 'CT')")
	assert.Contains(t, compiled.SQL, "GROUP BY 1")
	require.Len(t, compiled.Manifest, 3)
	assert.Equal(t, "modality", compiled.Manifest[0].Alias)
}

func TestQueryCompileUnknownCube(t *testing.T) {
	dir := writeSchemaDir(t)

	_, err := runCLI(t, "query", "compile", "--schema-dir", dir, "--cube", "Nope", "--measures", "count")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not loaded")
}

func TestQueryDrill(t *testing.T) {
	dir := writeSchemaDir(t)

	out, err := runCLI(t, "query", "drill",
		"--schema-dir", dir, "-o", "json",
		"--cube", "RadiologyAudits",
		"--measure", "count",
		"--at", "modality=CT")
	require.NoError(t, err)

	var req domain.QueryRequest
	require.NoError(t, json.Unmarshal([]byte(out), &req))
	assert.Equal(t, []string{"caseId", "modality"}, req.Dimensions)
	require.Len(t, req.Filters, 1)
	assert.Equal(t, "modality", req.Filters[0].Field)
	assert.Equal(t, domain.OpEquals, req.Filters[0].Operator)
}

func TestParseFilterFlag(t *testing.T) {
	f, err := parseFilterFlag("modality:equals:CT,MRI")
	require.NoError(t, err)
	assert.Equal(t, domain.Filter{
		Field:    "modality",
		Operator: domain.OpEquals,
		Values:   []interface{}{"CT", "MRI"},
	}, f)

	f, err = parseFilterFlag("comments:notSet")
	require.NoError(t, err)
	assert.Equal(t, domain.Filter{Field: "comments", Operator: domain.OpNotSet}, f)

	_, err = parseFilterFlag("modality")
	require.Error(t, err)
}

func TestParseDateRange(t *testing.T) {
	from, to, err := parseDateRange("2024-01-01,2024-02-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *from)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), *to)

	from, to, err = parseDateRange("2024-01-01T08:30:00Z,")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 8, 30, 0, 0, time.UTC), *from)
	assert.Nil(t, to)

	_, _, err = parseDateRange("2024-01-01")
	require.Error(t, err)

	_, _, err = parseDateRange("yesterday,today")
	require.Error(t, err)
}
