package external

import (
	"context"

	"github.com/google/uuid"
)

// AsyncSOPExecutor is the default SOPExecutor. It does not actually touch
// any cloud resource: it hands back an execution handle immediately, as the
// contract requires, and logs nothing else — a real deployment wires this
// interface to whatever runs SOPs (a runbook engine, a Lambda, a ticket).
type AsyncSOPExecutor struct{}

// NewAsyncSOPExecutor builds the default executor.
func NewAsyncSOPExecutor() *AsyncSOPExecutor {
	return &AsyncSOPExecutor{}
}

// Start returns immediately with a freshly minted execution ID; it never
// errors for the default implementation.
func (e *AsyncSOPExecutor) Start(ctx context.Context, sopID string, execContext map[string]any) (ExecutionHandle, error) {
	return ExecutionHandle{ExecutionID: uuid.NewString()}, nil
}
