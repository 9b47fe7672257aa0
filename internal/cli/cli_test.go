package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const archivePage = `<html><body>
<table class="arhiva">
<tr><th>Data</th><th>Numere</th></tr>
<tr><td>15.05.2024 14:05</td><td>1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20</td></tr>
<tr><td>15.05.2024 14:00</td><td>21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32, 33, 34, 35, 36, 37, 38, 39</td></tr>
</table>
</body></html>`

func newArchiveServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, archivePage)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// execute runs the root command with args and returns stdout and stderr
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("KINO_DB_URL", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("KINO_SOURCE_MODE", "")

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRun_DryRunText(t *testing.T) {
	srv := newArchiveServer(t)

	stdout, stderr, err := execute(t, "run", "--url", srv.URL, "--dry-run", "--mode", "archive")
	require.NoError(t, err)

	assert.Contains(t, stdout, "#1715781900 15.05.2024 14:05")
	assert.Contains(t, stdout, "Total: 2 found, 1 valid, 1 dropped, 1 new")
	assert.Contains(t, stderr, `"id":1715781900`)
	assert.Contains(t, stderr, "Dropping row")
}

func TestRun_DefaultCommandIsRun(t *testing.T) {
	srv := newArchiveServer(t)

	stdout, _, err := execute(t, "--url", srv.URL, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Total: 1 found, 1 valid, 0 dropped, 1 new")
}

func TestRun_DryRunJSON(t *testing.T) {
	srv := newArchiveServer(t)

	stdout, _, err := execute(t, "run", "--url", srv.URL, "--dry-run", "--mode", "archive", "--format", "json")
	require.NoError(t, err)

	var out struct {
		Mode     string `json:"mode"`
		Found    int    `json:"found"`
		Inserted int    `json:"inserted"`
		Draws    []struct {
			ID int64 `json:"id"`
		} `json:"draws"`
		Rejected []struct {
			Reason string `json:"reason"`
		} `json:"rejected"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "archive", out.Mode)
	assert.Equal(t, 2, out.Found)
	assert.Equal(t, 1, out.Inserted)
	require.Len(t, out.Draws, 1)
	assert.Equal(t, int64(1715781900), out.Draws[0].ID)
	require.Len(t, out.Rejected, 1)
	assert.Equal(t, "incomplete", out.Rejected[0].Reason)
}

func TestRun_ExitCode(t *testing.T) {
	srv := newArchiveServer(t)

	_, _, err := execute(t, "run", "--url", srv.URL, "--dry-run", "--exit-code")
	var exitErr *exitCodeError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, ExitNewDraws, exitErr.code)
}

func TestRun_NoTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>Maintenance</p></body></html>")
	}))
	defer srv.Close()

	stdout, _, err := execute(t, "run", "--url", srv.URL, "--dry-run", "--exit-code")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No draws found")
}

func TestRun_Errors(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "missing database url",
			args:    []string{"run", "--url", failing.URL},
			wantErr: "database URL is required",
		},
		{
			name:    "invalid format",
			args:    []string{"run", "--url", failing.URL, "--dry-run", "--format", "xml"},
			wantErr: "invalid format",
		},
		{
			name:    "invalid mode",
			args:    []string{"run", "--url", failing.URL, "--dry-run", "--mode", "all"},
			wantErr: "invalid mode",
		},
		{
			name:    "invalid log level",
			args:    []string{"run", "--url", failing.URL, "--dry-run", "--log-level", "loud"},
			wantErr: "loud",
		},
		{
			name:    "server error",
			args:    []string{"run", "--url", failing.URL, "--dry-run"},
			wantErr: "500",
		},
		{
			name:    "migrate down bad steps",
			args:    []string{"migrate", "down", "zero"},
			wantErr: "invalid steps",
		},
		{
			name:    "watch bad schedule",
			args:    []string{"watch", "--dry-run", "--schedule", "every tuesday"},
			wantErr: "invalid schedule",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestKVFields(t *testing.T) {
	fields := kvFields([]interface{}{"now", 1, "entry", 2, "dangling"})
	assert.Equal(t, 1, fields["now"])
	assert.Equal(t, 2, fields["entry"])
	assert.Len(t, fields, 2)

	assert.Nil(t, kvFields(nil))
}

func TestParseFormat(t *testing.T) {
	got, err := parseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, got)

	_, err = parseFormat("yaml")
	assert.True(t, err != nil && strings.Contains(err.Error(), "yaml"))
}
