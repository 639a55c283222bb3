package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk,
// falling back to the embedded defaults.
//
// Files are only created on first Load, not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts are written to disk on first use and serve as fallbacks.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptAnswer: `You are an expert document analyst. Answer the question based ONLY on the document context below.

DOCUMENT CONTEXT:
%s

QUESTION: %s

INSTRUCTIONS:
- You MUST provide an answer based on the context provided.
- Extract and synthesize the most relevant information from the context.
- If exact information isn't explicitly stated, provide the closest relevant information.
- NEVER say the information is unavailable or not in the document.
- Be concise but informative.

ANSWER:`,

	driven.PromptEntityExtraction: `Extract structured information from this insurance/medical query. Return only a JSON object with the following fields (use null for missing information):
{
    "age": number or null,
    "gender": "male" or "female" or null,
    "procedure": string or null,
    "location": string or null,
    "policy_duration": string or null,
    "policy_type": string or null,
    "amount": number or null,
    "date": string or null
}

Query: "%s"

Examples:
- "46-year-old male, knee surgery in Pune, 3-month-old policy" -> {"age": 46, "gender": "male", "procedure": "knee surgery", "location": "Pune", "policy_duration": "3 months"}
- "Female patient, 35, cardiac procedure, Mumbai, new policy" -> {"age": 35, "gender": "female", "procedure": "cardiac procedure", "location": "Mumbai", "policy_duration": "new"}

Return only valid JSON:`,

	driven.PromptDecision: `You are an insurance policy analyzer. Based on the provided policy documents and user query, make a decision about coverage.

QUERY: %s

EXTRACTED ENTITIES:
%s

POLICY CONTEXT:
%s

INSTRUCTIONS:
1. Analyze the policy context to determine if the requested procedure/claim is covered
2. Consider waiting periods, exclusions, age limits, and other policy terms
3. If coverage is approved, determine the payout amount based on policy terms
4. Provide clear justification referencing specific policy clauses

Return ONLY a JSON object with this exact structure:
{
    "decision": "approved" | "rejected" | "needs_review",
    "amount": number or null,
    "justification": "detailed explanation with specific policy references",
    "key_factors": ["list", "of", "key", "decision", "factors"],
    "referenced_sections": ["list", "of", "document", "sections", "used"]
}

JSON Response:`,
}

// DefaultPrompt returns the embedded template for name.
func DefaultPrompt(name string) (string, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.docqa/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// A missing or unreadable file falls back to the embedded default.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	prompt, err := s.loadFromFile(name)
	if err != nil {
		if fallback, ok := defaultPrompts[name]; ok {
			return fallback, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("prompt %q is empty", name)
	}
	return prompt, nil
}

func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# docqa prompts

These templates drive the model-backed steps of docqa.

## Files

- ` + "`answer.txt`" + ` - answers a question from retrieved context (placeholders: context, question)
- ` + "`entity_extraction.txt`" + ` - pulls age, gender, procedure and other fields out of a query (placeholder: query)
- ` + "`decision.txt`" + ` - produces an approve/reject/review decision as JSON (placeholders: query, entities, context)

## Customisation

Edit a file to change the prompt. Changes apply to the next command.
Keep every ` + "`%s`" + ` placeholder, in the same order. Delete a file to restore its default.
`
	return os.WriteFile(path, []byte(content), 0600)
}
