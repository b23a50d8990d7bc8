package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/webforge/internal/model"
)

type fakeFetcher struct {
	body string
	err  error
	got  string
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string, w io.Writer) (int64, error) {
	f.got = rawURL
	if f.err != nil {
		_, _ = io.WriteString(w, "partial")
		return 0, f.err
	}
	n, err := io.WriteString(w, f.body)
	return int64(n), err
}

func TestHandoffPrintsURL(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	h := &downloadHandoff{client: &fakeFetcher{}, stdout: &out}
	require.NoError(t, h.Open(context.Background(), "http://svc/projects/p1/download?token=t"))
	require.Equal(t, "http://svc/projects/p1/download?token=t\n", out.String())
}

func TestHandoffSavesArchive(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	f := &fakeFetcher{body: "PK\x03\x04"}
	path := filepath.Join(t.TempDir(), "sub", "p1.zip")
	h := &downloadHandoff{client: f, stdout: &out, out: path}

	require.NoError(t, h.Open(context.Background(), "http://svc/x"))
	require.Equal(t, "http://svc/x", f.got)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "PK\x03\x04", string(data))
	require.True(t, strings.HasPrefix(out.String(), "saved "))
}

func TestHandoffFailureLeavesNoFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "p1.zip")
	h := &downloadHandoff{client: &fakeFetcher{err: errors.New("reset by peer")}, stdout: io.Discard, out: path}

	require.ErrorContains(t, h.Open(context.Background(), "http://svc/x"), "reset by peer")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{model.Invalid("prompt is required"), 2},
		{fmt.Errorf("generate: %w", model.ErrUnauthenticated), 3},
		{model.ErrNotEntitled, 4},
		{model.ErrNoActiveProject, 5},
		{&model.RemoteError{Op: "deploy", Status: 500}, 6},
		{errors.New("other"), 1},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, exitCode(tt.err), tt.err.Error())
	}
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	cfg := fmt.Sprintf(`
[backend]
url = "http://127.0.0.1:1"
timeout = "1s"

[database]
path = %q

[session]
dir = %q

[log]
file = %q
`, filepath.Join(dir, "webforge.db"), filepath.Join(dir, "session"), filepath.Join(dir, "webforge.log"))
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	t.Setenv("HOME", dir)
	t.Setenv("WEBFORGE_CONFIG", path)
	return dir
}

func TestGenerateLoggedOutReportsSessionFirst(t *testing.T) {
	writeTestConfig(t)

	var stderr bytes.Buffer
	code := run(context.Background(), []string{"generate", "--framework", "vue", "   "}, &stderr)
	require.Equal(t, 3, code)
	require.Contains(t, stderr.String(), "unauthenticated")
	require.Nil(t, rt, "runtime closed after a failed command")
}

func TestRunClosesRuntimeOnSuccess(t *testing.T) {
	writeTestConfig(t)

	var stderr bytes.Buffer
	require.Equal(t, 0, run(context.Background(), []string{"reset"}, &stderr))
	require.Empty(t, stderr.String())
	require.Nil(t, rt)
}
