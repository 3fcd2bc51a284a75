package main

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joshuapare/regwalk/internal/logger"
	"github.com/joshuapare/regwalk/registry"
	"github.com/joshuapare/regwalk/snapshot"
	"github.com/joshuapare/regwalk/tree"
	"github.com/joshuapare/regwalk/vfile"
)

var (
	walkMaxDepth     int
	walkMaxNodes     int
	walkMaxValueSize int64
	walkStore        string
)

func init() {
	rootCmd.AddCommand(newWalkCmd())
}

func newWalkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "walk <hive>",
		Short: "Walk a hive and report what was recovered",
		Long: `The walk command builds the key/value tree of a hive file and prints how
many keys and values were recovered along with every problem met on the way.

Example:
  regwalk walk SOFTWARE
  regwalk walk NTUSER.DAT --max-depth 64 --json
  regwalk walk SYSTEM --store ./snapshots`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWalk(args)
		},
	}
	cmd.Flags().IntVar(&walkMaxDepth, "max-depth", registry.DefaultMaxDepth, "Deepest key level to enter")
	cmd.Flags().IntVar(&walkMaxNodes, "max-nodes", registry.DefaultMaxNodes, "Stop after inserting this many nodes")
	cmd.Flags().Int64Var(&walkMaxValueSize, "max-value-size", registry.DefaultMaxValueSize, "Skip values declaring more bytes than this")
	cmd.Flags().StringVar(&walkStore, "store", "", "Save the walked tree to the snapshot store in this directory")
	return cmd
}

type issueJSON struct {
	Kind  string `json:"kind"`
	Path  string `json:"path"`
	Value string `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

type walkJSON struct {
	File      string      `json:"file"`
	Keys      int         `json:"keys"`
	Values    int         `json:"values"`
	Truncated bool        `json:"truncated"`
	Issues    []issueJSON `json:"issues"`
	Snapshot  string      `json:"snapshot,omitempty"`
}

func runWalk(args []string) error {
	hivePath := args[0]

	printVerbose("Opening hive: %s\n", hivePath)
	f, err := vfile.NewFile(hivePath)
	if err != nil {
		return fmt.Errorf("failed to open hive: %w", err)
	}
	defer f.Close()

	t := tree.New()
	fileID, err := t.Insert(t.Root(), tree.NewNode(filepath.Base(hivePath)).
		AddAttribute(registry.AttrData, tree.Stream(f), hivePath))
	if err != nil {
		return err
	}

	opts := registry.DefaultOptions()
	opts.MaxDepth = walkMaxDepth
	opts.MaxNodes = walkMaxNodes
	opts.MaxValueSize = walkMaxValueSize
	opts.Logger = logger.L

	res, err := registry.Run(t, fileID, opts)
	if err != nil {
		return fmt.Errorf("failed to walk hive: %w", err)
	}

	out := walkJSON{
		File:      hivePath,
		Keys:      res.Keys,
		Values:    res.Values,
		Truncated: res.Truncated(),
		Issues:    make([]issueJSON, 0, len(res.Issues)),
	}
	for _, is := range res.Issues {
		ij := issueJSON{Kind: is.Kind.String(), Path: is.Path, Value: is.Value}
		if is.Err != nil {
			ij.Error = is.Err.Error()
		}
		out.Issues = append(out.Issues, ij)
	}

	if walkStore != "" {
		id, err := saveSnapshot(walkStore, t, fileID)
		if err != nil {
			return err
		}
		out.Snapshot = id
	}

	if jsonOut {
		return printJSON(out)
	}

	printInfo("\nHive: %s (%s)\n", hivePath, humanize.Bytes(uint64(f.Size())))
	printInfo("  Keys:   %s\n", humanize.Comma(int64(out.Keys)))
	printInfo("  Values: %s\n", humanize.Comma(int64(out.Values)))
	if len(res.Issues) == 0 {
		printInfo("  No issues\n")
	} else {
		printInfo("  Issues: %d", len(res.Issues))
		if out.Truncated {
			printInfo(" (tree incomplete)")
		}
		printInfo("\n")
		for _, is := range res.Issues {
			printInfo("    - %s\n", is)
		}
	}
	if out.Snapshot != "" {
		printInfo("  Snapshot: %s\n", out.Snapshot)
	}
	return nil
}

func saveSnapshot(dir string, t *tree.Tree, id tree.NodeID) (string, error) {
	s, err := snapshot.Open(dir)
	if err != nil {
		return "", fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer s.Close()
	sid, err := s.Save(t, id)
	if err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}
	printVerbose("Saved snapshot %s to %s\n", sid, dir)
	return sid.String(), nil
}
