package tui

import "errors"

// ErrMissingAnswerService is returned when the answer service is not provided.
var ErrMissingAnswerService = errors.New("tui: answer service is required")

// ErrEmptyCorpus is returned when neither a document nor text is given to chat about.
var ErrEmptyCorpus = errors.New("tui: a document name or document text is required")
