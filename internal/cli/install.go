package cli

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/Fimeg/partnernotice/internal/authz"
	"github.com/Fimeg/partnernotice/internal/database/queries"
	"github.com/Fimeg/partnernotice/internal/installer"
	"github.com/spf13/cobra"
)

var installUser string

var installCmd = &cobra.Command{
	Use:   "install [slug]",
	Short: "Install and activate an extension",
	Long: `Install and activate an extension from the download host, acting as the
given user. Without a slug the companion extension is installed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().StringVar(&installUser, "user", "admin", "Username whose capabilities apply")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	slug := cfg.Partner.CompanionSlug
	if len(args) == 1 {
		slug = args[0]
	}

	db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := queries.NewUserQueries(db.DB).GetUserByUsername(ctx, installUser)
	if err != nil {
		return fmt.Errorf("unknown user %q: %w", installUser, err)
	}

	if err := os.MkdirAll(cfg.Partner.PluginDir, 0o755); err != nil {
		return fmt.Errorf("failed to create extension directory: %w", err)
	}
	extensions := queries.NewExtensionQueries(db.DB)
	coordinator := installer.NewCoordinator(
		extensions,
		installer.NewPluginUpgrader(cfg.Partner.PluginDir, extensions,
			installer.WithHTTPClient(&http.Client{Timeout: cfg.Partner.DownloadTimeout})),
		installer.NewRegistryActivator(extensions, cfg.Partner.PluginDir),
		authz.NewRoleAuthorizer(),
		installer.WithMultisite(cfg.Partner.Multisite),
		installer.WithDownloadHost(cfg.Partner.DownloadHost),
	)

	outcome := coordinator.InstallAndActivate(ctx, *user, slug)
	return printOutcome(cmd.OutOrStdout(), slug, outcome)
}

func printOutcome(w io.Writer, slug string, outcome installer.Outcome) error {
	for _, msg := range outcome.Messages {
		fmt.Fprintln(w, msg)
	}
	if !outcome.OK() {
		return fmt.Errorf("installing %s failed: %w", slug, outcome.Err())
	}
	fmt.Fprintf(w, "%s is installed and active.\n", slug)
	return nil
}
