package domain

import "errors"

// RPCError is the terminal error delivered to the caller's completion.
type RPCError struct {
	Code    RPCErrorCode
	Message string
}

// NewRPCError creates an RPCError.
func NewRPCError(msg string, code RPCErrorCode) *RPCError {
	return &RPCError{Code: code, Message: msg}
}

func (e *RPCError) Error() string {
	return e.Message
}

// RPCCodeOf extracts the taxonomy code from err. Errors produced by failover
// exhaustion or failfast carry no code.
func RPCCodeOf(err error) (RPCErrorCode, bool) {
	var re *RPCError
	if errors.As(err, &re) {
		return re.Code, true
	}
	return "", false
}
