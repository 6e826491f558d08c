package osdesc

import "errors"

// ErrParse is returned when a description document cannot be parsed or has
// no recognized root element.
var ErrParse = errors.New("osdesc: malformed description document")

// ErrRead is returned when a description file cannot be read.
var ErrRead = errors.New("osdesc: description file unreadable")

// ErrInvalidInput is returned when input fails validation.
var ErrInvalidInput = errors.New("osdesc: invalid input")

// ErrNoSuggestions is returned when the description declares no
// application/x-suggestions+json URL.
var ErrNoSuggestions = errors.New("osdesc: no suggestions URL declared")

// ErrNoSuchURL is returned when the description declares no URL of the
// requested type.
var ErrNoSuchURL = errors.New("osdesc: no URL of requested type declared")

// ErrUnsupportedMethod is returned when a URL declares an HTTP method the
// dispatcher does not implement.
var ErrUnsupportedMethod = errors.New("osdesc: unsupported request method")

// ErrRequest is returned when the remote endpoint answers outside the 2xx
// range.
var ErrRequest = errors.New("osdesc: request failed")

// ErrTemplate is returned at expansion time for URL templates whose syntax
// the template engine rejected at compile time.
var ErrTemplate = errors.New("osdesc: invalid URL template")
