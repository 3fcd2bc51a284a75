package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joshuapare/regwalk/snapshot"
)

func init() {
	rootCmd.AddCommand(newSnapshotsCmd())
}

func newSnapshotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshots <dir>",
		Short: "List snapshots saved by walk --store",
		Long: `The snapshots command lists the trees stored in a snapshot directory,
oldest first.

Example:
  regwalk snapshots ./snapshots
  regwalk snapshots ./snapshots --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshots(args)
		},
	}
}

type snapshotJSON struct {
	ID    string    `json:"id"`
	Root  string    `json:"root"`
	Nodes int       `json:"nodes"`
	Saved time.Time `json:"saved"`
}

func runSnapshots(args []string) error {
	s, err := snapshot.OpenExisting(args[0])
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer s.Close()

	list, err := s.List()
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	if jsonOut {
		out := make([]snapshotJSON, 0, len(list))
		for _, info := range list {
			out = append(out, snapshotJSON{ID: info.ID.String(), Root: info.Root, Nodes: info.Nodes, Saved: info.Saved})
		}
		return printJSON(out)
	}

	if len(list) == 0 {
		printInfo("No snapshots in %s\n", args[0])
		return nil
	}
	for _, info := range list {
		printInfo("%s  %s  %-20s %s nodes  (%s)\n", info.ID, info.Saved.Format(time.RFC3339), info.Root,
			humanize.Comma(int64(info.Nodes)), humanize.Time(info.Saved))
	}
	return nil
}
