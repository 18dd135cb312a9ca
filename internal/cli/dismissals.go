package cli

import (
	"fmt"
	"time"

	"github.com/Fimeg/partnernotice/internal/database/queries"
	"github.com/Fimeg/partnernotice/internal/notice"
	"github.com/Fimeg/partnernotice/internal/userflags"
	"github.com/spf13/cobra"
)

var (
	noticeUser string
	noticeSet  bool
)

var noticeCmd = &cobra.Command{
	Use:   "notice",
	Short: "Show or set a user's dismissal of the partner notice",
	RunE:  runNotice,
}

func init() {
	noticeCmd.Flags().StringVar(&noticeUser, "user", "admin", "Username to inspect")
	noticeCmd.Flags().BoolVar(&noticeSet, "dismiss", false, "Dismiss the notice for the user")
	rootCmd.AddCommand(noticeCmd)
}

func runNotice(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := queries.NewUserQueries(db.DB).GetUserByUsername(ctx, noticeUser)
	if err != nil {
		return fmt.Errorf("unknown user %q: %w", noticeUser, err)
	}

	flags, closeFlags, err := userflags.Open(ctx, cfg.Database.RedisURL, queries.NewUserOptionQueries(db.DB))
	if err != nil {
		return err
	}
	defer closeFlags()

	key := notice.Key(cfg.Partner.Project)
	if noticeSet {
		if err := flags.Set(ctx, user.ID, key, time.Now()); err != nil {
			return err
		}
	}

	at, ok, err := flags.Get(ctx, user.ID, key)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !ok {
		fmt.Fprintf(out, "%s: %s not dismissed\n", user.Username, key)
		return nil
	}
	fmt.Fprintf(out, "%s: %s dismissed at %s\n", user.Username, key, at.Format(time.RFC3339))
	return nil
}
