package osrelease

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRunner answers Query from a canned table and records calls.
type stubRunner struct {
	queries map[string]string
	calls   []string
}

func (s *stubRunner) Run(ctx context.Context, name string, args ...string) error {
	return fmt.Errorf("unexpected mutating command: %s", name)
}

func (s *stubRunner) Query(ctx context.Context, name string, args ...string) (string, error) {
	key := name
	for _, a := range args {
		key += " " + a
	}
	s.calls = append(s.calls, key)

	out, ok := s.queries[key]
	if !ok {
		return "", errors.New("command not found")
	}
	return out, nil
}

func writeOSRelease(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "os-release")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDetectUbuntu(t *testing.T) {
	t.Parallel()

	path := writeOSRelease(t, `NAME="Ubuntu"
ID=ubuntu
VERSION_CODENAME=noble
PRETTY_NAME="Ubuntu 24.04 LTS"
`)

	runner := &stubRunner{queries: map[string]string{
		"dpkg --print-architecture": "amd64",
	}}

	info, err := detect(context.Background(), path, runner)
	require.NoError(t, err)

	assert.Equal(t, "ubuntu", info.ID)
	assert.Equal(t, "noble", info.Codename)
	assert.Equal(t, "amd64", info.Arch)
}

func TestDetectSupportedDistros(t *testing.T) {
	t.Parallel()

	for _, id := range []string{"ubuntu", "debian", "raspbian"} {
		id := id
		t.Run(id, func(t *testing.T) {
			t.Parallel()

			path := writeOSRelease(t, fmt.Sprintf("ID=%s\nVERSION_CODENAME=bookworm\n", id))
			runner := &stubRunner{queries: map[string]string{
				"dpkg --print-architecture": "arm64",
			}}

			info, err := detect(context.Background(), path, runner)
			require.NoError(t, err)
			assert.Equal(t, id, info.ID)
		})
	}
}

func TestDetectRejectsUnsupportedDistro(t *testing.T) {
	t.Parallel()

	path := writeOSRelease(t, "ID=fedora\nVERSION_CODENAME=rawhide\n")
	runner := &stubRunner{queries: map[string]string{}}

	_, err := detect(context.Background(), path, runner)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported distribution")
	assert.Contains(t, err.Error(), "fedora")
}

func TestDetectCodenameFallback(t *testing.T) {
	t.Parallel()

	// No VERSION_CODENAME, as on older releases.
	path := writeOSRelease(t, "ID=debian\nVERSION_ID=\"10\"\n")
	runner := &stubRunner{queries: map[string]string{
		"lsb_release -cs":           "buster",
		"dpkg --print-architecture": "amd64",
	}}

	info, err := detect(context.Background(), path, runner)
	require.NoError(t, err)
	assert.Equal(t, "buster", info.Codename)
	assert.Contains(t, runner.calls, "lsb_release -cs")
}

func TestDetectFailsWithoutCodename(t *testing.T) {
	t.Parallel()

	path := writeOSRelease(t, "ID=debian\n")
	runner := &stubRunner{queries: map[string]string{}}

	_, err := detect(context.Background(), path, runner)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "codename")
}

func TestDetectFailsWithoutID(t *testing.T) {
	t.Parallel()

	path := writeOSRelease(t, "NAME=\"Some Linux\"\n")
	runner := &stubRunner{queries: map[string]string{}}

	_, err := detect(context.Background(), path, runner)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "distribution ID")
}

func TestDetectMissingFile(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{queries: map[string]string{}}
	_, err := detect(context.Background(), filepath.Join(t.TempDir(), "absent"), runner)
	assert.Error(t, err)
}

func TestDetectArchFallsBackWithoutDpkg(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{queries: map[string]string{}}
	arch := detectArch(context.Background(), runner)
	assert.NotEmpty(t, arch)
}

func TestParse(t *testing.T) {
	t.Parallel()

	fields := parse(`# comment
NAME="Debian GNU/Linux"
ID=debian
VERSION_CODENAME='bookworm'

BROKEN LINE
`)

	assert.Equal(t, "Debian GNU/Linux", fields["NAME"])
	assert.Equal(t, "debian", fields["ID"])
	assert.Equal(t, "bookworm", fields["VERSION_CODENAME"])
	_, ok := fields["BROKEN LINE"]
	assert.False(t, ok)
}
