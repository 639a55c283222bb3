// Package sqlite provides a persistent vector store on SQLite.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.docqa/data/vectors.db
//
// # Search
//
// Embeddings are stored as little-endian float32 blobs. Similarity is computed
// in Go over the rows that match the filter, so search cost grows linearly
// with the number of stored chunks.
package sqlite
