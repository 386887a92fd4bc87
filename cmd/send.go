package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davefn/mailburst/internal/gmail"
	"github.com/davefn/mailburst/internal/google"
	"github.com/davefn/mailburst/internal/logging"
)

func newSendCmd() *cobra.Command {
	var (
		debugMode    bool
		jsonLogs     bool
		clientSecret string
		tokenFile    string
		to           string
		subject      string
		body         string
		html         bool
		attachment   string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a single email from the command line",
		Long: `Send one email through the Gmail API using stored credentials.

If no valid token exists yet, the command prints the Google consent URL
and waits for the authorization code on standard input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				return fmt.Errorf("--to is required")
			}

			ctx := cmd.Context()
			logger := logging.Setup(debugMode, jsonLogs)

			conf, err := google.LoadOAuthConfig(clientSecret, "urn:ietf:wg:oauth:2.0:oob")
			if err != nil {
				return fmt.Errorf("failed to load OAuth client configuration: %w", err)
			}

			store := google.NewCredentialStore(tokenFile, logger)
			if tok, ok := store.Load(); !ok || !google.Usable(tok) {
				fmt.Printf("Open the following URL in your browser and paste the authorization code:\n\n%s\n\nCode: ", google.AuthCodeURL(conf))

				var code string
				if _, err := fmt.Scanln(&code); err != nil {
					return fmt.Errorf("failed to read authorization code: %w", err)
				}

				tok, err := google.Exchange(ctx, conf, code)
				if err != nil {
					return fmt.Errorf("authorization failed: %w", err)
				}
				if err := store.Save(tok); err != nil {
					return err
				}
			}

			ts, err := store.TokenSource(ctx, conf)
			if err != nil {
				return err
			}

			client, err := gmail.NewClient(ctx, ts, logger)
			if err != nil {
				return err
			}

			id, err := client.SendMail(to, subject, body, html, attachment)
			if err != nil {
				return fmt.Errorf("send failed: %w", err)
			}

			fmt.Printf("Message sent (ID: %s)\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&jsonLogs, "json-logs", false, "Emit logs as JSON instead of text")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "uploads/client_secret.json", "Path to the OAuth client secret file")
	cmd.Flags().StringVar(&tokenFile, "token-file", "uploads/token.json", "Path to the stored OAuth token")
	cmd.Flags().StringVar(&to, "to", "", "Recipient address")
	cmd.Flags().StringVar(&subject, "subject", "", "Message subject")
	cmd.Flags().StringVar(&body, "body", "", "Message body")
	cmd.Flags().BoolVar(&html, "html", false, "Send the body as HTML")
	cmd.Flags().StringVar(&attachment, "attachment", "", "Path to a file to attach")

	return cmd
}
