// Package simerr simulates software errors in code built on top of the
// crusher, so that its error handling can be exercised and audited.
//
// Client code asks Hit whether a function runs into an error. The chance
// grows with the square of the function's length (lines² · 1e-6). Every
// handled error is recorded with Fix and Close appends a summary:
//
//	Hit error 1 in function lookup.
//	Error fix [1/1]: retried lookup
//
//
//	Summary: Fixed 1/1
package simerr
