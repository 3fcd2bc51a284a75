package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/regwalk/internal/testutil/hivegen"
)

func sampleHive() *hivegen.Builder {
	b := hivegen.New("ROOT")
	b.Root().DWORD("Ver", 7).String("", "x")
	b.Root().Key("Software").String("Vendor", "Contoso").Key("Empty")
	return b
}

func TestWalkCommand(t *testing.T) {
	tests := []struct {
		name        string
		hive        *hivegen.Builder
		maxDepth    int
		wantContain []string
	}{
		{
			name:        "clean hive",
			hive:        sampleHive(),
			wantContain: []string{"Keys:   3", "Values: 3", "No issues"},
		},
		{
			name:        "depth limited",
			hive:        sampleHive(),
			maxDepth:    1,
			wantContain: []string{"Keys:   2", "Issues: 1 (tree incomplete)", `depth limit at ROOT\Software\Empty`},
		},
		{
			name: "corrupt subkey list",
			hive: func() *hivegen.Builder {
				b := sampleHive()
				b.Root().BogusSubkey()
				return b
			}(),
			wantContain: []string{"Keys:   3", "enumeration failure at ROOT"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			walkMaxDepth = tt.maxDepth
			path := writeHive(t, "SOFTWARE", tt.hive)

			output, err := captureOutput(t, func() error {
				return runWalk([]string{path})
			})
			require.NoError(t, err)
			assertContains(t, output, tt.wantContain)
		})
	}
}

func TestWalkCommandJSON(t *testing.T) {
	resetFlags()
	jsonOut = true
	b := sampleHive()
	b.Root().Add(hivegen.Value{Name: "blob", Type: 3, Data: []byte{1, 2, 3, 4, 5, 6}})
	path := writeHive(t, "NTUSER.DAT", b)

	output, err := captureOutput(t, func() error {
		return runWalk([]string{path})
	})
	require.NoError(t, err)

	var got walkJSON
	decodeJSON(t, output, &got)
	assert.Equal(t, path, got.File)
	assert.Equal(t, 3, got.Keys)
	assert.Equal(t, 4, got.Values)
	assert.False(t, got.Truncated)
	require.Len(t, got.Issues, 1)
	assert.Equal(t, "value decode failure", got.Issues[0].Kind)
	assert.Equal(t, "blob", got.Issues[0].Value)
	assert.Empty(t, got.Snapshot)
}

func TestWalkCommandErrors(t *testing.T) {
	resetFlags()
	_, err := captureOutput(t, func() error {
		return runWalk([]string{"/nonexistent/SYSTEM"})
	})
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "junk")
	require.NoError(t, os.WriteFile(path, make([]byte, 8192), 0o644))
	_, err = captureOutput(t, func() error {
		return runWalk([]string{path})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a registry hive")
}
