// Package embedding holds helpers shared by the embedding adapters.
// Adapters live in subpackages: hash (built-in), ollama and openai.
package embedding
