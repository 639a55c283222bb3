package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa-cli/internal/adapters/driving/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API.

Every route under /api/v1 except /api/v1/token requires a bearer token signed
with the configured JWT secret. Set DOCQA_JWT_SECRET or server.jwt_secret in
the config file before starting the server.

Routes:
  GET    /health
  GET    /metrics
  GET    /api/v1/token
  POST   /api/v1/run
  POST   /api/v1/documents
  GET    /api/v1/documents
  DELETE /api/v1/documents/{name}
  POST   /api/v1/query
  POST   /api/v1/explain
  POST   /api/v1/search`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8000", "address to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	auth := httpapi.NewAuthenticator(settings.Server)
	if !auth.Enabled() {
		return errors.New("no JWT secret configured: set DOCQA_JWT_SECRET or server.jwt_secret")
	}

	server, err := httpapi.NewServer(&httpapi.Ports{
		Answer:   answerService,
		Search:   searchService,
		Document: documentService,
		Decision: decisionService,
	}, auth,
		httpapi.WithMaxUpload(settings.Documents.MaxFileSize),
		httpapi.WithDefaultTopK(settings.Retrieval.TopK),
	)
	if err != nil {
		return err
	}

	cmd.Printf("HTTP API listening on %s\n", serveAddr)
	return server.ListenAndServe(commandContext(cmd), serveAddr)
}
