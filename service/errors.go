package service

import "fmt"

// Code identifies an analysis failure class. Every code is recovered
// locally: the user sees Message, the log gets the wrapped detail, and the
// process keeps serving requests.
type Code string

const (
	CodeMissingCredential   Code = "missing_credential"
	CodeProviderBlocked     Code = "provider_blocked"
	CodeProviderInterrupted Code = "provider_interrupted"
	CodeProviderOther       Code = "provider_other"
	CodeEmptyInput          Code = "empty_input"
	CodeEmptyResult         Code = "empty_result"
)

// Error carries an analysis failure code, a user-presentable message and the
// underlying cause for logging.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}
