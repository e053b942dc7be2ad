package collector

import "fmt"

// ParseError reports counter text that could not be interpreted at all.
// Parsers resolve the defined malformed cases (missing page-size phrase,
// garbled counter lines, absent "used" token) to documented defaults on
// their own; a ParseError is returned only for values outside those cases,
// and the sampling loop resolves it to the counter's zero default rather
// than aborting the cycle.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %s", e.Input, e.Reason)
}
