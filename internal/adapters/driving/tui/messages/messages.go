// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import "time"

// QuestionSubmitted is sent when the user submits a question.
type QuestionSubmitted struct {
	Question string
}

// AnswerReceived carries an answer back to the model.
type AnswerReceived struct {
	Question string
	Answer   string
	Elapsed  time.Duration
}

// IndexStatusLoaded carries the vector index status shown in the status bar.
type IndexStatusLoaded struct {
	Status string
	Count  int
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}
