// Package llm routes completion requests between configured language
// model providers and decodes the JSON payloads they return.
package llm
