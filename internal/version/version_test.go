package version

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw      string
		epoch    int
		upstream string
		revision string
	}{
		{"5:28.3.3-1~ubuntu.24.04~noble", 5, "28.3.3", "1~ubuntu.24.04~noble"},
		{"5:28.3.3-1~debian.12~bookworm", 5, "28.3.3", "1~debian.12~bookworm"},
		{"28.3.3", 0, "28.3.3", ""},
		{"1.5-2", 0, "1.5", "2"},
		{"5:27.0.1-1", 5, "27.0.1", "1"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()

			v := Parse(tt.raw)
			assert.Equal(t, tt.epoch, v.Epoch)
			assert.Equal(t, tt.upstream, v.Upstream)
			assert.Equal(t, tt.revision, v.Revision)
			assert.Equal(t, tt.raw, v.Raw)
		})
	}
}

func TestValidatePin(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidatePin("28.3"))
	assert.NoError(t, ValidatePin("28.3.3"))
	assert.NoError(t, ValidatePin("28.3.3-1"))

	assert.Error(t, ValidatePin(""))
	assert.Error(t, ValidatePin("28.3a"))
	assert.Error(t, ValidatePin("28.3;rm"))
	assert.Error(t, ValidatePin("latest"))
	assert.Error(t, ValidatePin("28.3 "))
}

func TestMatchesPin(t *testing.T) {
	t.Parallel()

	v := Parse("5:28.3.3-1~ubuntu.24.04~noble")

	assert.True(t, v.MatchesPin("28.3.3"))
	assert.True(t, v.MatchesPin("28.3"))
	assert.True(t, v.MatchesPin("28"))

	assert.False(t, v.MatchesPin("28.3.30"))
	assert.False(t, v.MatchesPin("8.3"))
	assert.False(t, Parse("5:28.33.0-1").MatchesPin("28.3"))

	// Hyphenated pins match against upstream-revision.
	assert.True(t, v.MatchesPin("28.3.3-1"))
	assert.False(t, v.MatchesPin("28.3.3-2"))
}

func TestCompare(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, Compare(Parse("5:28.3.3-1"), Parse("5:28.3.3-1")))
	assert.Equal(t, -1, Compare(Parse("5:28.3.2-1"), Parse("5:28.3.3-1")))
	assert.Equal(t, 1, Compare(Parse("5:28.10.0-1"), Parse("5:28.9.0-1")))
	assert.Equal(t, -1, Compare(Parse("4:99.0.0-1"), Parse("5:1.0.0-1")))
	assert.Equal(t, 1, Compare(Parse("5:28.3.3-2"), Parse("5:28.3.3-1")))
}

func TestResolvePin(t *testing.T) {
	t.Parallel()

	engine := []string{
		"5:28.3.3-1~ubuntu.24.04~noble",
		"5:28.3.2-1~ubuntu.24.04~noble",
		"5:28.2.0-1~ubuntu.24.04~noble",
	}
	cli := []string{
		"5:28.3.3-1~ubuntu.24.04~noble",
		"5:28.2.0-1~ubuntu.24.04~noble",
	}

	t.Run("prefix pin selects highest match", func(t *testing.T) {
		t.Parallel()

		res, err := ResolvePin("28.3", engine, cli)
		require.NoError(t, err)
		assert.Equal(t, "5:28.3.3-1~ubuntu.24.04~noble", res.Engine)
		assert.Equal(t, "5:28.3.3-1~ubuntu.24.04~noble", res.CLI)
	})

	t.Run("listing order does not matter", func(t *testing.T) {
		t.Parallel()

		unsorted := []string{
			"5:28.3.1-1~ubuntu.24.04~noble",
			"5:28.2.0-1~ubuntu.24.04~noble",
			"5:28.3.3-1~ubuntu.24.04~noble",
			"5:28.3.2-1~ubuntu.24.04~noble",
		}

		res, err := ResolvePin("28.3", unsorted, unsorted)
		require.NoError(t, err)
		assert.Equal(t, "5:28.3.3-1~ubuntu.24.04~noble", res.Engine)
		assert.Equal(t, "5:28.3.3-1~ubuntu.24.04~noble", res.CLI)
	})

	t.Run("higher epoch wins", func(t *testing.T) {
		t.Parallel()

		mixed := []string{
			"5:28.3.2-1~ubuntu.24.04~noble",
			"6:28.3.1-1~ubuntu.24.04~noble",
		}

		res, err := ResolvePin("28.3", mixed, nil)
		require.NoError(t, err)
		assert.Equal(t, "6:28.3.1-1~ubuntu.24.04~noble", res.Engine)
	})

	t.Run("exact pin", func(t *testing.T) {
		t.Parallel()

		res, err := ResolvePin("28.3.2", engine, cli)
		require.NoError(t, err)
		assert.Equal(t, "5:28.3.2-1~ubuntu.24.04~noble", res.Engine)
		// No 28.3.2 CLI candidate: falls back to unpinned.
		assert.Empty(t, res.CLI)
	})

	t.Run("no engine match is fatal", func(t *testing.T) {
		t.Parallel()

		_, err := ResolvePin("27.9", engine, cli)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "docker-ce")
	})

	t.Run("invalid pin rejected before lookup", func(t *testing.T) {
		t.Parallel()

		_, err := ResolvePin("28.3a", nil, nil)
		assert.Error(t, err)
	})
}

// stubRunner answers docker --version queries.
type stubRunner struct {
	out string
	err error
}

func (s *stubRunner) Run(ctx context.Context, name string, args ...string) error {
	return errors.New("unexpected mutating command")
}

func (s *stubRunner) Query(ctx context.Context, name string, args ...string) (string, error) {
	return s.out, s.err
}

func TestInstalledEngine(t *testing.T) {
	t.Parallel()

	t.Run("parses version token", func(t *testing.T) {
		t.Parallel()

		runner := &stubRunner{out: "Docker version 28.3.3, build 980b856"}
		assert.Equal(t, "28.3.3", InstalledEngine(context.Background(), runner))
	})

	t.Run("absent binary yields empty", func(t *testing.T) {
		t.Parallel()

		runner := &stubRunner{err: errors.New("executable file not found")}
		assert.Empty(t, InstalledEngine(context.Background(), runner))
	})

	t.Run("garbage output yields empty", func(t *testing.T) {
		t.Parallel()

		runner := &stubRunner{out: "nope"}
		assert.Empty(t, InstalledEngine(context.Background(), runner))
	})
}

func TestSatisfied(t *testing.T) {
	t.Parallel()

	assert.True(t, Satisfied("28.3.3", "28.3.3"))
	assert.True(t, Satisfied("28.3.3", "28.3"))

	assert.False(t, Satisfied("28.3.3", "latest"))
	assert.False(t, Satisfied("", "28.3.3"))
	assert.False(t, Satisfied("28.2.0", "28.3"))
	assert.False(t, Satisfied("28.33.0", "28.3"))
}
