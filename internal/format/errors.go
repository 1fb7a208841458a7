package format

import "errors"

// Parse errors shared across codecs.
var (
	// ErrInvalidJSON is returned when a document is not syntactically valid JSON.
	ErrInvalidJSON = errors.New("format: invalid json")

	// ErrJSONTopLevel is returned when a JSON document's top-level value is a
	// bare scalar; only objects and arrays carry children to merge.
	ErrJSONTopLevel = errors.New("format: top-level json value must be an object or array")

	// ErrUnexpectedBrace is returned when an INFO document opens a child
	// block with no key to attach it to.
	ErrUnexpectedBrace = errors.New("format: unexpected '{'")

	// ErrUnbalancedBrace is returned when an INFO document closes a child
	// block that was never opened, or ends with blocks still open.
	ErrUnbalancedBrace = errors.New("format: unbalanced braces")

	// ErrUnterminatedString is returned when an INFO quoted string is missing
	// its closing quote.
	ErrUnterminatedString = errors.New("format: unterminated string")
)
