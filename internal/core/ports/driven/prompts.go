package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptAnswer asks for a context-grounded answer.
	// The template expects %s placeholders for the context and the question.
	PromptAnswer = "answer"

	// PromptEntityExtraction asks for entities as a fixed JSON object.
	// The template expects a %s placeholder for the query.
	PromptEntityExtraction = "entity_extraction"

	// PromptDecision asks for a coverage decision as a JSON object.
	// The template expects %s placeholders for the query, the entity block and the context.
	PromptDecision = "decision"
)
