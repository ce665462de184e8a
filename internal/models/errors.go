package models

import (
	"fmt"
	"strings"
)

// ParseError reports an unreadable, wrong-password, or structurally
// unrecognized statement PDF. Row-level problems do not produce a
// ParseError; they are collected in ParseResult.ParsingErrors instead.
type ParseError struct {
	Path string // source file, may be empty for byte-stream input
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("parse %s: %s", e.Path, e.Msg)
	}
	return "parse: " + e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsPasswordError reports whether the failure was a missing or wrong
// PDF password, so callers can distinguish it from corruption.
func (e *ParseError) IsPasswordError() bool {
	return strings.Contains(strings.ToLower(e.Msg), "password")
}

// NewPasswordError builds a ParseError whose message explicitly flags
// the password so IsPasswordError holds.
func NewPasswordError(path string, err error) *ParseError {
	return &ParseError{Path: path, Msg: "PDF is password-protected and the password is missing or wrong", Err: err}
}

// ValidationError reports a field that fails a basic sanity check.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// DuplicateError reports an invalid duplicate resolution attempt.
type DuplicateError struct {
	Msg string
}

func (e *DuplicateError) Error() string { return "duplicate resolution: " + e.Msg }

// ConfigError reports a malformed configuration value, such as a
// categorization threshold outside [0,1].
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Msg)
}
