// Package textutil provides text processing helpers shared across the
// repository: tokenization for keyword scoring, filesystem-safe names,
// slugs for artifact files, and display title casing.
package textutil
