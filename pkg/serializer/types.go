// Package serializer provides utilities for serializing data to various formats.
//
// The package supports three output formats:
//   - JSON: Machine-readable structured data with proper indentation
//   - YAML: Human-readable configuration format
//   - Table: Human-readable tabular output
//
// Usage:
//
//	writer := serializer.NewFileWriterOrStdout(serializer.FormatJSON, path)
//	defer writer.Close()
//	if err := writer.Serialize(ctx, data); err != nil {
//		return err
//	}
//
// Artifacts that downstream tooling reads are written with WriteFileAtomic so a
// reader never observes a partially written file.
package serializer

import "context"

// Serializer writes a value in some format to some destination.
type Serializer interface {
	Serialize(ctx context.Context, v any) error
}

// Closer is an optional interface that Serializers can implement
// if they need to release resources (e.g., close file handles).
type Closer interface {
	Close() error
}

// TableData is implemented by values that know how to present themselves as
// rows and columns. Values that do not implement it are flattened to
// FIELD/VALUE pairs.
type TableData interface {
	TableHeader() []string
	TableRows() [][]string
}
