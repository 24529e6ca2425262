package failure

import (
	"fmt"

	"github.com/vietddude/rpcfail/internal/core/domain"
)

// failfast reports the failure right away without retrying.
func (e *Engine) failfast(code domain.ErrorCode, tr *Tracer, serverID string, msg *domain.Message) {
	e.logger.Error("rpc failed with error",
		"tracer", tr.ID, "server", serverID, "msg", msg, "code", code)
	e.terminate(tr, domain.FailModeFailfast, string(code.RPCCode()),
		fmt.Errorf("%w: %d", ErrFailFast, int(code)))
}
