package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/regwalk/snapshot"
)

func TestWalkStoreAndList(t *testing.T) {
	resetFlags()
	store := filepath.Join(t.TempDir(), "snapshots")
	path := writeHive(t, "SYSTEM", sampleHive())

	jsonOut = true
	walkStore = store
	output, err := captureOutput(t, func() error {
		return runWalk([]string{path})
	})
	require.NoError(t, err)
	var walked walkJSON
	decodeJSON(t, output, &walked)
	require.NotEmpty(t, walked.Snapshot)

	output, err = captureOutput(t, func() error {
		return runSnapshots([]string{store})
	})
	require.NoError(t, err)
	var list []snapshotJSON
	decodeJSON(t, output, &list)
	require.Len(t, list, 1)
	assert.Equal(t, walked.Snapshot, list[0].ID)
	assert.Equal(t, "SYSTEM", list[0].Root)
	assert.Equal(t, 1+3+3, list[0].Nodes, "file node, keys, values")

	jsonOut = false
	output, err = captureOutput(t, func() error {
		return runSnapshots([]string{store})
	})
	require.NoError(t, err)
	assertContains(t, output, []string{walked.Snapshot, "SYSTEM", "7 nodes"})
}

func TestSnapshotsEmpty(t *testing.T) {
	resetFlags()
	store := filepath.Join(t.TempDir(), "empty")
	s, err := snapshot.Open(store)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	output, err := captureOutput(t, func() error {
		return runSnapshots([]string{store})
	})
	require.NoError(t, err)
	assertContains(t, output, []string{"No snapshots"})
}

func TestSnapshotsMissingStore(t *testing.T) {
	resetFlags()
	store := filepath.Join(t.TempDir(), "missing")
	_, err := captureOutput(t, func() error {
		return runSnapshots([]string{store})
	})
	require.ErrorIs(t, err, snapshot.ErrNoStore)

	_, statErr := os.Stat(store)
	assert.True(t, os.IsNotExist(statErr), "listing must not create a store")
}
