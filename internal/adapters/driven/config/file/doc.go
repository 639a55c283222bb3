// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under ~/.docqa.
//
// Adapters:
//   - ConfigStore: TOML configuration, read and written as tables
//   - PromptStore: user-editable prompt templates with embedded defaults
package file
