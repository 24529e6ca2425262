package failure

import (
	"fmt"

	"github.com/vietddude/rpcfail/internal/core/domain"
)

const labelUnsupported = "UNSUPPORTED"

// failback would buffer the message for later redelivery. No durable queue
// exists for it, so the call fails with ErrUnsupportedFailMode instead of
// silently falling back to another mode.
// TODO: replace with a durable redelivery queue once its delivery guarantees are defined.
func (e *Engine) failback(code domain.ErrorCode, tr *Tracer, serverID string, msg *domain.Message) {
	e.logger.Warn("Fail mode not supported",
		"tracer", tr.ID, "mode", domain.FailModeFailback, "server", serverID, "code", code)
	e.terminate(tr, domain.FailModeFailback, labelUnsupported,
		fmt.Errorf("%w: %s", ErrUnsupportedFailMode, domain.FailModeFailback))
}
