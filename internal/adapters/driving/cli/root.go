// Package cli provides the docqa command line interface.
// It implements a driving adapter following hexagonal architecture principles.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docqa-cli/internal/logger"
)

// version is set at build time.
var version = "dev"

// Services configured by the entry point.
var (
	answerService    driving.AnswerService
	searchService    driving.SearchService
	documentService  driving.DocumentService
	decisionService  driving.DecisionService
	analyzerService  driving.AnalyzerService
	extractorService driving.ExtractorService
	settingsService  driving.SettingsService
)

// serviceLoader builds the pipeline services on first use.
var serviceLoader Loader

var verbose bool

// annotationNoServices marks commands that run without the pipeline services.
const annotationNoServices = "docqa/no-services"

// Services aggregates the pipeline services the commands drive.
type Services struct {
	Answer    driving.AnswerService
	Search    driving.SearchService
	Document  driving.DocumentService
	Decision  driving.DecisionService
	Analyzer  driving.AnalyzerService
	Extractor driving.ExtractorService
}

// Loader builds the pipeline services. It runs once, before the first
// command that needs them.
type Loader func(ctx context.Context) (*Services, error)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Answer questions about policy documents",
	Long: `docqa indexes insurance policies, contracts and other documents and
answers natural-language questions about them.

Answers come from the first of these that succeeds: the configured LLM over
retrieved clauses, keyword extraction, a library of policy rules, a structural
analysis of the document, and finally a generic reply. Without an LLM or a
vector index every command still works on the remaining tiers.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logging to stderr")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetSettingsService sets the settings service used by settings, token and serve.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetServices sets the pipeline services directly.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	answerService = s.Answer
	searchService = s.Search
	documentService = s.Document
	decisionService = s.Decision
	analyzerService = s.Analyzer
	extractorService = s.Extractor
}

// SetLoader defers building the pipeline services until a command needs them.
func SetLoader(l Loader) {
	serviceLoader = l
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func prepare(cmd *cobra.Command, _ []string) error {
	if verbose {
		logger.SetVerbose(true)
	}
	if !needsServices(cmd) || serviceLoader == nil || answerService != nil {
		return nil
	}

	services, err := serviceLoader(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("initialising services: %w", err)
	}
	SetServices(services)
	return nil
}

func needsServices(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[annotationNoServices]; ok {
			return false
		}
	}
	return true
}

func noServices() map[string]string {
	return map[string]string{annotationNoServices: "true"}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func errNotConfigured(name string) error {
	return errors.New(name + " service not configured")
}
