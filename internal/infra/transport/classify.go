// Package transport holds transport-side helpers for the RPC client: failure
// classification of transport errors and a scripted transport used for
// simulations.
package transport

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vietddude/rpcfail/internal/core/domain"
)

// CodeOf classifies a transport error. An explicit domain.TransportError wins;
// gRPC status errors are mapped by status code; anything else is unknown.
func CodeOf(err error) domain.ErrorCode {
	if err == nil {
		return domain.ErrUnknown
	}

	var te *domain.TransportError
	if errors.As(err, &te) {
		return te.Code
	}

	st, ok := status.FromError(err)
	if !ok {
		return domain.ErrUnknown
	}
	return codeFromStatus(st.Code())
}

func codeFromStatus(c codes.Code) domain.ErrorCode {
	switch c {
	case codes.Unavailable:
		return domain.ErrFailConnectServer
	case codes.NotFound:
		return domain.ErrNoTargetServer
	case codes.FailedPrecondition:
		return domain.ErrServerNotStarted
	case codes.ResourceExhausted, codes.Aborted, codes.DeadlineExceeded:
		return domain.ErrFailSendMessage
	case codes.Unimplemented:
		return domain.ErrFailFindMailbox
	case codes.PermissionDenied, codes.InvalidArgument:
		return domain.ErrFilterError
	default:
		return domain.ErrUnknown
	}
}
