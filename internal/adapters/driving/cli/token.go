package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa-cli/internal/adapters/driving/httpapi"
)

var tokenSubject string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the HTTP API",
	Long: `Issue a bearer token signed with the configured JWT secret.

Send it as "Authorization: Bearer <token>" to the routes under /api/v1.`,
	Annotations: noServices(),
	RunE:        runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "sub", httpapi.DemoSubject, "token subject")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	token, expires, err := httpapi.NewAuthenticator(settings.Server).Issue(tokenSubject)
	if err != nil {
		return err
	}

	cmd.Println(token)
	cmd.Printf("Expires: %s\n", expires.Format(time.RFC3339))
	return nil
}
