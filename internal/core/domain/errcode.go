package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a failed attempt as reported by the transport layer.
type ErrorCode int

const (
	ErrUnknown ErrorCode = iota
	ErrServerNotStarted
	ErrNoTargetServer
	ErrFailConnectServer
	ErrFailFindMailbox
	ErrFailSendMessage
	ErrFilterError
)

var errorCodeNames = map[ErrorCode]string{
	ErrUnknown:           "Unknown",
	ErrServerNotStarted:  "ServerNotStarted",
	ErrNoTargetServer:    "NoTargetServer",
	ErrFailConnectServer: "FailConnectServer",
	ErrFailFindMailbox:   "FailFindMailbox",
	ErrFailSendMessage:   "FailSendMessage",
	ErrFilterError:       "FilterError",
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// ParseErrorCode resolves a code by the name returned from String.
func ParseErrorCode(name string) (ErrorCode, error) {
	for code, n := range errorCodeNames {
		if n == name {
			return code, nil
		}
	}
	return ErrUnknown, fmt.Errorf("unknown error code %q", name)
}

// RPCErrorCode is the machine-readable code delivered to callers.
type RPCErrorCode string

const (
	RPCServerNotStarted  RPCErrorCode = "SERVER_NOT_STARTED"
	RPCNoTargetServer    RPCErrorCode = "NO_TARGET_SERVER"
	RPCFailConnectServer RPCErrorCode = "FAIL_CONNECT_SERVER"
	RPCFailFindMailbox   RPCErrorCode = "FAIL_FIND_MAILBOX"
	RPCFailSendMessage   RPCErrorCode = "FAIL_SEND_MESSAGE"
	RPCFilterError       RPCErrorCode = "FILTER_ERROR"
	RPCUnknown           RPCErrorCode = "UNKNOWN"
)

// RPCCode maps a transport code onto the caller-facing taxonomy.
func (c ErrorCode) RPCCode() RPCErrorCode {
	switch c {
	case ErrServerNotStarted:
		return RPCServerNotStarted
	case ErrNoTargetServer:
		return RPCNoTargetServer
	case ErrFailConnectServer:
		return RPCFailConnectServer
	case ErrFailFindMailbox:
		return RPCFailFindMailbox
	case ErrFailSendMessage:
		return RPCFailSendMessage
	case ErrFilterError:
		return RPCFilterError
	default:
		return RPCUnknown
	}
}

// TransportError is returned by transports to report a classified failure.
type TransportError struct {
	Code ErrorCode
	Err  error
}

// NewTransportError wraps err with a failure classification.
func NewTransportError(code ErrorCode, err error) *TransportError {
	return &TransportError{Code: code, Err: err}
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// CodeOf returns the classification carried by err, or ErrUnknown.
func CodeOf(err error) ErrorCode {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Code
	}
	return ErrUnknown
}
