package cmd

import (
	"fmt"

	mf "test-manifest/core/manifest"
	manifestfeature "test-manifest/feature/manifest"

	"github.com/spf13/cobra"
)

var (
	rebuildFlag   bool
	noWriteFlag   bool
	testsRootFlag string
	urlBaseFlag   string
)

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the test manifest",
	Long: `Walks the tests root, reconciles the stored manifest with the files found
and persists the result when anything changed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(false, manifestOverrides(cmd))
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		_, result, err := rt.manifest.LoadAndUpdate(cmd.Context(), manifestfeature.UpdateOptions{
			Rebuild: rebuildFlag,
			NoWrite: noWriteFlag,
		})
		if err != nil {
			return err
		}

		fmt.Println("\n=== Manifest Update ===")
		fmt.Printf("Location: %s\n", result.Location)
		fmt.Printf("Files: %d\n", result.Files)
		fmt.Printf("Changed: %t\n", result.Changed)
		fmt.Printf("Written: %t\n", result.Written)
		fmt.Printf("Execution Time: %s\n", result.Duration.String())
		return nil
	},
}

// manifestOverrides applies the tests-root and url-base flags when they were
// set on cmd.
func manifestOverrides(cmd *cobra.Command) func(*mf.Config) {
	return func(c *mf.Config) {
		if cmd.Flags().Changed("tests-root") {
			c.TestsRoot = testsRootFlag
		}
		if cmd.Flags().Changed("url-base") {
			c.URLBase = urlBaseFlag
		}
	}
}

func init() {
	RootCmd.AddCommand(updateCmd)

	updateCmd.Flags().BoolVar(&rebuildFlag, "rebuild", false, "Ignore the stored manifest and rebuild from scratch")
	updateCmd.Flags().BoolVar(&noWriteFlag, "no-write", false, "Do not persist the updated manifest")
	updateCmd.Flags().StringVar(&testsRootFlag, "tests-root", ".", "Directory the manifest describes")
	updateCmd.Flags().StringVar(&urlBaseFlag, "url-base", "/", "Prefix for every test URL")
}
