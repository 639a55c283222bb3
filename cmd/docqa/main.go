// Command docqa indexes documents and answers questions about them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/docqa-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/docqa-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa-cli/internal/adapters/driven/downloader"
	"github.com/custodia-labs/docqa-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docqa-cli/internal/core/services"
	"github.com/custodia-labs/docqa-cli/internal/logger"
	"github.com/custodia-labs/docqa-cli/internal/normalisers"
	"github.com/custodia-labs/docqa-cli/internal/postprocessors/chunker"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// A missing .env is not an error; real environment variables still apply.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configStore, err := file.NewConfigStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	var initResult *ai.InitResult
	defer func() {
		if initResult != nil {
			initResult.Close()
		}
	}()

	cli.SetVersion(version)
	cli.SetSettingsService(settingsService)
	cli.SetLoader(func(context.Context) (*cli.Services, error) {
		svc, result, buildErr := buildServices(settingsService)
		initResult = result
		return svc, buildErr
	})

	if err := cli.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

// buildServices wires the pipeline from the current settings.
func buildServices(settingsService driving.SettingsService) (*cli.Services, *ai.InitResult, error) {
	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("loading settings: %w", err)
	}

	prompts, err := file.NewPromptStore("")
	if err != nil {
		return nil, nil, fmt.Errorf("loading prompts: %w", err)
	}

	initResult := ai.Init(*settings)

	chunks := chunker.FromSettings(settings.Chunking, chunker.DefaultTokenizer())
	fetcher := downloader.New(downloader.Config{
		Timeout:  settings.Retrieval.Timeout,
		MaxBytes: settings.Documents.MaxFileSize,
	})

	extractor := services.NewExtractorService(initResult.LLMService, prompts, settings.Retrieval.Timeout)
	search := services.NewSearchService(initResult.VectorIndex, extractor)
	analyzer := services.NewAnalyzerService()
	documents := services.NewDocumentService(
		initResult.VectorIndex, normalisers.Default(), chunks, fetcher, settings.Documents,
	)
	answer := services.NewAnswerService(search, documents, analyzer, initResult.LLMService, prompts, *settings)
	decision := services.NewDecisionService(extractor, search, initResult.LLMService, prompts, *settings)

	logger.Debug("Pipeline ready: embedder %s, llm configured %t",
		initResult.EmbeddingService.ModelName(), initResult.LLMService != nil)

	return &cli.Services{
		Answer:    answer,
		Search:    search,
		Document:  documents,
		Decision:  decision,
		Analyzer:  analyzer,
		Extractor: extractor,
	}, initResult, nil
}
