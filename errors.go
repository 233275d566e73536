package sfdc

import "errors"

// ErrEmptyInput is returned by the constructors when given a zero-length
// symbol sequence. There is no recoverable path around it: a codec needs at
// least one symbol to build a tree.
var ErrEmptyInput = errors.New("sfdc: empty input")
