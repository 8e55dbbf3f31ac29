package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleYAML = `
status-filter: Success
burst-threshold: 2m
users:
  Silver_Bui:
    output-name: Bui Duc Toan
    output-id: TPL0001
shifts:
  - code: A
    check-in:
      search-range: "05:30-06:35"
      shift-start: "06:00"
    check-out:
      search-range: "13:30-14:35"
    break:
      search-range: "09:50-10:35"
      checkpoint: "10:00"
      midpoint: "10:15"
      minimum-gap: 5
      break-end: "10:30"
  - code: C
    display-name: Graveyard
    crosses-midnight: true
    check-in:
      search-range: "21:30-22:35"
      shift-start: "22:00"
    check-out:
      search-range: "05:30-06:35"
    break:
      search-range: "01:50-02:50"
      midpoint: "02:15"
      minimum-gap: 5m
      break-end: "02:30"
`

func TestParseYAML(t *testing.T) {
	src, err := ParseYAML([]byte(sampleYAML))
	require.NoError(t, err)

	cfg, err := src.Build()
	require.NoError(t, err)

	require.Len(t, cfg.Shifts, 2)
	a, c := cfg.Shifts[0], cfg.Shifts[1]

	assert.Equal(t, "Morning", a.DisplayName)
	assert.Equal(t, "06:04:59", a.CheckInOnTimeCutoff.String())
	assert.Equal(t, "06:05:00", a.CheckInLateThreshold.String())
	assert.Equal(t, "10:34:59", a.BreakInCutoff.String())

	assert.Equal(t, "Graveyard", c.DisplayName)
	assert.True(t, c.CrossesMidnight)
	assert.Equal(t, "01:50:00", c.BreakOutCheckpoint.String())
}

func TestParseYAMLRejectsUnknownFields(t *testing.T) {
	_, err := ParseYAML([]byte("status-filter: Success\nbogus: 1\n"))
	assert.Error(t, err)
}

func TestYAMLProviderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rule.yaml")
	require.NoError(t, WriteDefault(path))

	p, err := NewProvider(BackendYAML, path)
	require.NoError(t, err)
	defer p.Close()
	assert.True(t, p.IsReadOnly())

	got, err := p.LoadRules()
	require.NoError(t, err)

	want, err := DefaultSource().Build()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestYAMLProviderMissingFile(t *testing.T) {
	_, err := Load(BackendYAML, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSQLiteProviderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.db")

	p, err := NewSQLiteProvider(path)
	require.NoError(t, err)
	defer p.Close()
	assert.False(t, p.IsReadOnly())

	require.NoError(t, p.Migrate(zap.NewNop().Sugar()))

	// Empty database has no settings row yet.
	_, err = p.LoadSource()
	assert.True(t, errors.Is(err, ErrInvalidRules))

	src := DefaultSource()
	yes := true
	src.Shifts[2].CrossesMidnight = &yes
	require.NoError(t, p.SaveSource(src))

	loaded, err := p.LoadSource()
	require.NoError(t, err)
	assert.Equal(t, src, loaded)

	// Saving twice replaces rather than duplicates.
	require.NoError(t, p.SaveSource(src))
	got, err := Load(BackendSQLite, path)
	require.NoError(t, err)
	want, err := src.Build()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestNewProviderUnknownBackend(t *testing.T) {
	_, err := NewProvider("toml", "rules.toml")
	assert.Error(t, err)
}

func TestCache(t *testing.T) {
	calls := 0
	cfg, err := DefaultSource().Build()
	require.NoError(t, err)

	cache := NewCache(func(path string) (*RuleConfig, error) {
		calls++
		if path == "broken.yaml" {
			return nil, ErrInvalidRules
		}
		return cfg, nil
	})

	got, err := cache.Get("rule.yaml")
	require.NoError(t, err)
	assert.Same(t, cfg, got)

	_, err = cache.Get("./rule.yaml")
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "equivalent paths share an entry")

	_, err = cache.Get("broken.yaml")
	assert.Error(t, err)
	assert.Equal(t, 1, cache.Len(), "failed loads are not cached")

	cache.Invalidate("rule.yaml")
	assert.Equal(t, 0, cache.Len())
	_, err = cache.Get("rule.yaml")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
}

func TestBackendCacheLoadsFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rule.yaml")
	require.NoError(t, WriteDefault(path))

	cache := NewBackendCache(BackendYAML)
	first, err := cache.Get(path)
	require.NoError(t, err)

	// The cached value survives the file changing until invalidated.
	require.NoError(t, os.WriteFile(path, []byte("not: [valid"), 0o644))
	second, err := cache.Get(path)
	require.NoError(t, err)
	assert.Same(t, first, second)

	cache.Invalidate(path)
	_, err = cache.Get(path)
	assert.Error(t, err)
}
