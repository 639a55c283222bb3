// Package normalisers provides implementations of the Normaliser interface
// for the supported document formats. Each normaliser extracts plain text
// and provenance metadata from one file type.
//
// Normalisers are registered with a Loader at startup. The Loader is the
// DocumentLoader the core services consume.
package normalisers
