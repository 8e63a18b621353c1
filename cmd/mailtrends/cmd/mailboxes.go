package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var mailboxesSourceFlags sourceFlags

var mailboxesCmd = &cobra.Command{
	Use:   "mailboxes",
	Short: "List the mailboxes of the configured source",
	Long: `List the mailboxes of the configured source, one per line. Use the
names with --mailbox or in a --filter-labels spec.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mailboxesSourceFlags.apply(cmd, cfg)
		if err := prepareConfig(cfg); err != nil {
			return err
		}
		cfg.Report.Record = ""

		src, err := openSource(cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := src.Logout(); err != nil {
				logger.Warn("logout failed", "error", err)
			}
		}()

		names, err := src.ListMailboxes(cmd.Context())
		if err != nil {
			return fmt.Errorf("list mailboxes: %w", err)
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	mailboxesSourceFlags.register(mailboxesCmd)
	rootCmd.AddCommand(mailboxesCmd)
}
