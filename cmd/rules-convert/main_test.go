package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chrissnell/attendance/pkg/rules"
)

func TestConvertRoundTrip(t *testing.T) {
	dir := t.TempDir()
	yamlFile := filepath.Join(dir, "rule.yaml")
	dbFile := filepath.Join(dir, "rules.db")
	backFile := filepath.Join(dir, "back.yaml")
	require.NoError(t, rules.WriteDefault(yamlFile))

	var out bytes.Buffer
	err := convert(&out, options{yamlFile: yamlFile, sqliteFile: dbFile}, zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Shifts (3)")

	err = convert(&out, options{yamlFile: backFile, sqliteFile: dbFile, reverse: true}, zap.NewNop().Sugar())
	require.NoError(t, err)

	want, err := rules.NewYAMLProvider(yamlFile).LoadRules()
	require.NoError(t, err)
	got, err := rules.NewYAMLProvider(backFile).LoadRules()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestConvertRefusesExistingTarget(t *testing.T) {
	dir := t.TempDir()
	yamlFile := filepath.Join(dir, "rule.yaml")
	dbFile := filepath.Join(dir, "rules.db")
	require.NoError(t, rules.WriteDefault(yamlFile))

	opts := options{yamlFile: yamlFile, sqliteFile: dbFile}
	require.NoError(t, convert(&bytes.Buffer{}, opts, zap.NewNop().Sugar()))

	err := convert(&bytes.Buffer{}, opts, zap.NewNop().Sugar())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	opts.force = true
	assert.NoError(t, convert(&bytes.Buffer{}, opts, zap.NewNop().Sugar()))
}

func TestConvertDryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	yamlFile := filepath.Join(dir, "rule.yaml")
	dbFile := filepath.Join(dir, "rules.db")
	require.NoError(t, rules.WriteDefault(yamlFile))

	var out bytes.Buffer
	require.NoError(t, convert(&out, options{yamlFile: yamlFile, sqliteFile: dbFile, dryRun: true}, zap.NewNop().Sugar()))
	assert.Contains(t, out.String(), "DRY RUN")
	assert.NoFileExists(t, dbFile)
}
