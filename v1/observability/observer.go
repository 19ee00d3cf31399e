// Package observability defines the hook clients use to report the
// operations they perform. Implementations turn these reports into metrics,
// audit logs or anything else; clients only depend on the interface.
package observability

import "time"

// Observer receives one OperationContext per completed operation.
// Implementations must be safe for concurrent use and should return quickly,
// since they run on the caller's goroutine.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}

// OperationContext describes a completed operation.
type OperationContext struct {
	// Component names the client that performed the operation, e.g. "milvus".
	Component string

	// Operation is the logical operation, e.g. "search" or "insert".
	Operation string

	// Resource is the primary target, e.g. a collection name.
	Resource string

	// SubResource narrows the target, e.g. a field name. May be empty.
	SubResource string

	Duration time.Duration

	// Error is nil on success.
	Error error

	// Size is an operation-specific magnitude such as affected rows or hits.
	Size int64

	Metadata map[string]interface{}
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx OperationContext)

// ObserveOperation calls f(ctx).
func (f ObserverFunc) ObserveOperation(ctx OperationContext) { f(ctx) }
