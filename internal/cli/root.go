// Package cli implements partnernoticectl, the operator tool for the
// extension registry and the partner notice.
package cli

import (
	"context"
	"fmt"

	"github.com/Fimeg/partnernotice/internal/config"
	"github.com/Fimeg/partnernotice/internal/database"
	"github.com/Fimeg/partnernotice/internal/logging"
	"github.com/spf13/cobra"
)

var (
	buildVersion string

	cfg      *config.Config
	closeLog func() error
)

var rootCmd = &cobra.Command{
	Use:   "partnernoticectl",
	Short: "Manage the extension registry and partner notice",
	Long: `partnernoticectl runs registry and notice operations against the same
database and configuration as the server: list extensions, install the
companion extension, and inspect or set dismissal flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		closeLog, err = logging.Setup(cfg.Log)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if closeLog != nil {
			return closeLog()
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "partnernoticectl %s\n", buildVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command
func Execute(version string) error {
	buildVersion = version
	return rootCmd.Execute()
}

// openDatabase connects and migrates so commands work on a fresh database
func openDatabase(ctx context.Context) (*database.DB, error) {
	db, err := database.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
