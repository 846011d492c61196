// Package content builds prompts for the three artifact kinds, parses the
// model's JSON responses, and validates the results. It owns the deck plan,
// question set, and lab manual schemas along with content analysis.
package content
