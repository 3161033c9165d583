package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		output string
		format string
		multi  bool
		want   string
	}{
		{"next to input", filepath.Join("in", "jan.pdf"), "", "csv", false, filepath.Join("in", "jan.csv")},
		{"explicit file", "jan.pdf", "out.json", "json", false, "out.json"},
		{"directory for batch", filepath.Join("in", "feb.PDF"), "out", "csv", true, filepath.Join("out", "feb.csv")},
		{"trailing separator", "mar.pdf", "out" + string(os.PathSeparator), "json", false, filepath.Join("out", "mar.json")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, outputPath(tt.input, tt.output, tt.format, tt.multi))
		})
	}
}

func TestExtractCommandContinuesAfterFailures(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.pdf")
	require.NoError(t, os.WriteFile(bad, []byte("not a pdf"), 0o600))
	missing := filepath.Join(dir, "missing.pdf")

	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"extract", bad, missing})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 2 file(s) failed")
	assert.Contains(t, stderr.String(), "Error processing "+bad)
	assert.Contains(t, stderr.String(), "Error processing "+missing)
	assert.Contains(t, stderr.String(), "document is unreadable")
}

func TestExtractCommandRejectsBadFlags(t *testing.T) {
	for _, args := range [][]string{
		{"extract", "--format", "xml", "a.pdf"},
		{"extract", "--pages", "4-2", "a.pdf"},
		{"extract"},
	} {
		cmd := newRootCommand()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		assert.Error(t, cmd.Execute(), "args %v", args)
	}
}
