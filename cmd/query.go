package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	mf "test-manifest/core/manifest"

	"github.com/spf13/cobra"
)

// queryCmd groups the read-only manifest queries. Results are printed as JSON.
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the stored test manifest",
}

var queryTypesCmd = &cobra.Command{
	Use:   "types [kind...]",
	Short: "List entries of the given kinds, or of all kinds",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(false, nil)
		if err != nil {
			return err
		}
		entries, err := rt.manifest.Types(cmd.Context(), kindArgs(args)...)
		if err != nil {
			return err
		}
		return printJSON(entries)
	},
}

var queryPathsCmd = &cobra.Command{
	Use:   "paths [kind...]",
	Short: "List indexed paths of the given kinds",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(false, nil)
		if err != nil {
			return err
		}
		paths, err := rt.manifest.Paths(cmd.Context(), kindArgs(args)...)
		if err != nil {
			return err
		}
		return printJSON(paths)
	},
}

var queryPathCmd = &cobra.Command{
	Use:   "path <path>",
	Short: "Show the items recorded for a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(false, nil)
		if err != nil {
			return err
		}
		items, err := rt.manifest.ItemsAt(cmd.Context(), mf.ParsePath(args[0]))
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("%s: path not in manifest", args[0])
		}
		return printJSON(items)
	},
}

var queryDirCmd = &cobra.Command{
	Use:   "dir <dir>",
	Short: "List entries below a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(false, nil)
		if err != nil {
			return err
		}
		entries, err := rt.manifest.Dir(cmd.Context(), mf.ParsePath(args[0]))
		if err != nil {
			return err
		}
		return printJSON(entries)
	},
}

var queryReferenceCmd = &cobra.Command{
	Use:   "reference <url>",
	Short: "Resolve a comparison URL to its reftest item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(false, nil)
		if err != nil {
			return err
		}
		item, found, err := rt.manifest.Reference(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%s: reference not in manifest", args[0])
		}
		return printJSON(item)
	},
}

func kindArgs(args []string) []mf.Kind {
	var kinds []mf.Kind
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if part = strings.TrimSpace(part); part != "" {
				kinds = append(kinds, mf.Kind(part))
			}
		}
	}
	return kinds
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func init() {
	RootCmd.AddCommand(queryCmd)
	queryCmd.AddCommand(queryTypesCmd, queryPathsCmd, queryPathCmd, queryDirCmd, queryReferenceCmd)
}
