package cmd

import (
	"fmt"

	manifestfeature "test-manifest/feature/manifest"

	"github.com/spf13/cobra"
)

var (
	skipItemFlag   bool
	skipEntireFlag bool
)

// skipCmd represents the skip command
var skipCmd = &cobra.Command{
	Use:   "skip <path|url>...",
	Short: "Check a path or test URL against the skip file",
	Long: `Evaluates the configured skip file (manifest.skip_file). By default the
arguments are paths relative to the tests root; with --item they are test URLs.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(false, nil)
		if err != nil {
			return err
		}

		for _, arg := range args {
			var verdict manifestfeature.SkipVerdict
			if skipItemFlag {
				verdict, err = rt.manifest.IsSkippedURL(arg)
			} else {
				verdict, err = rt.manifest.IsSkippedPath(arg, skipEntireFlag)
			}
			if err != nil {
				return err
			}

			if verdict.Skipped {
				fmt.Printf("%s: skipped\n", verdict.Target)
			} else {
				fmt.Printf("%s: included\n", verdict.Target)
			}
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(skipCmd)

	skipCmd.Flags().BoolVar(&skipItemFlag, "item", false, "Treat the argument as a test URL")
	skipCmd.Flags().BoolVar(&skipEntireFlag, "entire", false, "Require the whole directory to be skipped")
}
