package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	imapclient "github.com/wesm/mailtrends/internal/imap"
)

var (
	imapHost     string
	imapPort     int
	imapUsername string
	imapNoTLS    bool
	imapSTARTTLS bool
	imapGmail    bool
)

var addIMAPCmd = &cobra.Command{
	Use:   "add-imap",
	Short: "Store IMAP credentials",
	Long: `Store the password of an IMAP account so reports can run unattended.

By default, connects using implicit TLS (IMAPS, port 993).
Use --starttls for STARTTLS upgrade on port 143.
Use --no-tls for a plain unencrypted connection (not recommended).

You will be prompted to enter your password interactively. The connection
is tested before anything is stored.

Examples:
  mailtrends add-imap --host imap.example.com --username user@example.com
  mailtrends add-imap --gmail --username user@gmail.com
  mailtrends add-imap --host mail.example.com --username user@example.com --starttls`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		imapCfg := &imapclient.Config{
			Host:     imapHost,
			Port:     imapPort,
			TLS:      !imapNoTLS && !imapSTARTTLS,
			STARTTLS: imapSTARTTLS,
			Username: imapUsername,
		}
		if imapGmail {
			imapCfg.ApplyGmail()
		}
		if imapCfg.Host == "" {
			return fmt.Errorf("--host is required")
		}
		if imapCfg.Username == "" {
			return fmt.Errorf("--username is required")
		}

		password, err := promptPassword(imapCfg.Username, imapCfg.Host)
		if err != nil {
			return err
		}

		fmt.Printf("Testing connection to %s...\n", imapCfg.Addr())
		client := imapclient.NewClient(imapCfg, password, imapclient.WithLogger(logger))
		names, err := client.ListMailboxes(cmd.Context())
		_ = client.Logout()
		if err != nil {
			return fmt.Errorf("connection test failed: %w", err)
		}
		fmt.Printf("Connected successfully (%d mailboxes)\n", len(names))

		identifier := imapCfg.Identifier()
		verb := "stored"
		if imapclient.HasCredentials(cfg.TokensDir(), identifier) {
			verb = "updated"
		}
		if err := imapclient.SaveCredentials(cfg.TokensDir(), identifier, password); err != nil {
			return fmt.Errorf("save credentials: %w", err)
		}

		fmt.Printf("\nCredentials %s for %s\n", verb, identifier)
		fmt.Println()
		fmt.Println("You can now run:")
		if imapGmail {
			fmt.Printf("  mailtrends report --gmail --username %s\n", imapCfg.Username)
		} else {
			fmt.Printf("  mailtrends report --server %s --username %s\n", imapCfg.Host, imapCfg.Username)
		}
		return nil
	},
}

func init() {
	addIMAPCmd.Flags().StringVar(&imapHost, "host", "", "IMAP server hostname (required unless --gmail)")
	addIMAPCmd.Flags().IntVar(&imapPort, "port", 0, "IMAP server port (default: 993 for TLS, 143 otherwise)")
	addIMAPCmd.Flags().StringVar(&imapUsername, "username", "", "IMAP username / email address (required)")
	addIMAPCmd.Flags().BoolVar(&imapNoTLS, "no-tls", false, "Disable TLS (plain connection, not recommended)")
	addIMAPCmd.Flags().BoolVar(&imapSTARTTLS, "starttls", false, "Use STARTTLS instead of implicit TLS")
	addIMAPCmd.Flags().BoolVar(&imapGmail, "gmail", false, "Use the Gmail IMAP server")
	rootCmd.AddCommand(addIMAPCmd)
}
