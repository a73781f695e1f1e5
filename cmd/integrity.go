package cmd

import (
	"context"
	"fmt"

	"test-manifest/feature/integrity"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fixFlag bool

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Perform integrity checks on the manifest and its storage",
	Long:  `Verifies the stored manifest, the storage bucket and the manifest table schema.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), true, true, true)
	},
}

// manifestCheckCmd represents the integrity manifest command
var manifestCheckCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Check the stored manifest for index and record inconsistencies",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), true, false, false)
	},
}

// storageCheckCmd represents the integrity storage command
var storageCheckCmd = &cobra.Command{
	Use:   "storage",
	Short: "Check and fix the storage bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), false, true, false)
	},
}

// schemaCheckCmd represents the integrity schema command
var schemaCheckCmd = &cobra.Command{
	Use:   "schema",
	Short: "Check the manifest documents table schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), false, false, true)
	},
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.AddCommand(manifestCheckCmd, storageCheckCmd, schemaCheckCmd)

	storageCheckCmd.Flags().BoolVar(&fixFlag, "fix", false, "Create the bucket when it is missing")
}

func runIntegrityChecks(ctx context.Context, runManifest, runStorage, runSchema bool) error {
	rt, err := newRuntime(runSchema, nil)
	if err != nil {
		return err
	}
	logg := rt.logger
	defer logg.Sync()

	svc := integrity.NewService(integrity.Options{
		Verifier: rt.manifest,
		Location: rt.manifest.Location(),
		Client:   rt.client,
		Bucket:   rt.cfg.Storage.Bucket,
		Object:   objectName(rt),
		DB:       rt.db,
		Logger:   logg,
	})

	failed := false

	if runManifest {
		logg.Info("Checking manifest...", zap.String("location", rt.manifest.Location()))
		report, err := svc.CheckManifest(ctx)
		if err != nil {
			return fmt.Errorf("manifest check failed: %w", err)
		}
		if report.Matched {
			logg.Info("Manifest is consistent.")
		} else {
			failed = true
			for _, p := range report.Problems {
				logg.Warn("Manifest problem",
					zap.String("path", p.Path.String()),
					zap.String("kind", string(p.Kind)),
					zap.String("message", p.Message),
				)
			}
		}
	}

	if runStorage {
		logg.Info("Checking storage...", zap.String("bucket", rt.cfg.Storage.Bucket))
		report, err := svc.CheckStorage(ctx)
		if err != nil {
			return fmt.Errorf("storage check failed: %w", err)
		}
		switch {
		case !report.BucketExists && fixFlag:
			logg.Info("Creating missing bucket...")
			if err := svc.FixStorage(ctx); err != nil {
				return fmt.Errorf("failed to fix storage: %w", err)
			}
			logg.Info("Bucket created.")
		case !report.BucketExists:
			failed = true
			logg.Warn("Bucket does not exist. Run with --fix to create it.")
		case len(report.Missing) > 0:
			failed = true
			logg.Warn("Missing objects detected", zap.Strings("missing", report.Missing))
		default:
			logg.Info("Storage is intact.", zap.Int("objects", len(report.Objects)))
		}
	}

	if runSchema {
		if rt.db == nil {
			logg.Warn("Skipping schema check, no database connection")
		} else {
			logg.Info("Checking manifest table schema...")
			report, err := svc.CheckSchema()
			if err != nil {
				return fmt.Errorf("schema check failed: %w", err)
			}
			if report.Matched {
				logg.Info("Schema matches expected definition.")
			} else {
				failed = true
				for table, tbl := range report.Tables {
					if len(tbl.MissingColumns) > 0 {
						logg.Warn("Missing Columns", zap.String("table", table), zap.Strings("columns", tbl.MissingColumns))
					}
					if len(tbl.TypeMismatches) > 0 {
						logg.Warn("Type Mismatches", zap.String("table", table), zap.Strings("mismatches", tbl.TypeMismatches))
					}
				}
				for _, e := range report.Errors {
					logg.Error("Inspection Error", zap.String("error", e))
				}
			}
		}
	}

	if failed {
		return fmt.Errorf("integrity checks reported problems")
	}
	return nil
}
