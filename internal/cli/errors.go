// Package cli implements the command parser: decoding a line of JSON into a
// CliInput per the dispatch table, and — on any validation failure — a
// dotted field path alongside a ParserError from the fixed taxonomy. Ported
// from command_parser.c / mode_parser.c, generalized from an lwjson token
// walk to encoding/json over map[string]json.RawMessage so path-building
// stays under direct control the way the original's explicit token lookups
// did.
package cli

import "fmt"

// ParserError is the fixed validation-failure taxonomy.
type ParserError string

const (
	ParserOK         ParserError = ""
	MissingField     ParserError = "MISSING_FIELD"
	StringTooShort   ParserError = "STRING_TOO_SHORT"
	StringTooLong    ParserError = "STRING_TOO_LONG"
	ValueTooSmall    ParserError = "VALUE_TOO_SMALL"
	ValueTooLarge    ParserError = "VALUE_TOO_LARGE"
	ArrayTooShort    ParserError = "ARRAY_TOO_SHORT"
	InvalidVariant   ParserError = "INVALID_VARIANT"
	ValidationFailed ParserError = "VALIDATION_FAILED"
)

// ErrorContext pairs a ParserError with the dotted path of the field that
// triggered it, e.g. "mode.front.pattern.changeAt[2].output.type".
type ErrorContext struct {
	Error ParserError
	Path  string
}

// ParseError is the error type returned by every decode helper in this
// package; it carries an ErrorContext rather than a bare message so the USB
// manager can render the exact `{"error":...,"path":...}` response §4.10
// requires.
type ParseError struct {
	Context ErrorContext
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at %s", e.Context.Error, e.Context.Path)
}

func fail(path string, err ParserError) error {
	return &ParseError{Context: ErrorContext{Error: err, Path: path}}
}

func joinPath(base, field string) string {
	if base == "" {
		return field
	}
	return base + "." + field
}

func indexedPath(base, field string, index int) string {
	return fmt.Sprintf("%s[%d]", joinPath(base, field), index)
}
