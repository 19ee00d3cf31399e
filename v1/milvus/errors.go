package milvus

import (
	"errors"
	"fmt"

	"github.com/milvus-io/milvus-proto/go-api/v2/commonpb"
)

// Adapter errors. Every error returned by the readers and adapters wraps
// exactly one of these, so callers can match them with errors.Is.
var (
	// ErrSchema is returned when a described collection violates a schema
	// invariant (no or several primary keys, no vector field to search).
	ErrSchema = errors.New("milvus: schema error")

	// ErrMetadata is returned when a described index carries no index description.
	ErrMetadata = errors.New("milvus: metadata error")

	// ErrIndexNotConfigured is returned when a search field has no metric type.
	ErrIndexNotConfigured = errors.New("milvus: index not configured")

	// ErrInvalidRequest is returned when a logical request cannot be adapted.
	ErrInvalidRequest = errors.New("milvus: invalid request")

	// ErrProtocolDecode is returned when a wire response is malformed.
	ErrProtocolDecode = errors.New("milvus: protocol decode error")

	// ErrCollectionNotFound is returned when the target collection does not exist.
	ErrCollectionNotFound = errors.New("milvus: collection not found")

	// ErrClosed is returned when the client is used after Close.
	ErrClosed = errors.New("milvus: client is closed")
)

// IsSchemaError checks if the error is a schema invariant violation.
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchema)
}

// IsMetadataError checks if the error is an index metadata error.
func IsMetadataError(err error) bool {
	return errors.Is(err, ErrMetadata)
}

// IsIndexNotConfiguredError checks if the error reports a missing metric type.
func IsIndexNotConfiguredError(err error) bool {
	return errors.Is(err, ErrIndexNotConfigured)
}

// IsInvalidRequestError checks if the error reports a malformed logical request.
func IsInvalidRequestError(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}

// IsProtocolDecodeError checks if the error reports a malformed wire response.
func IsProtocolDecodeError(err error) bool {
	return errors.Is(err, ErrProtocolDecode)
}

// IsCollectionNotFoundError checks if the error reports a missing collection.
func IsCollectionNotFoundError(err error) bool {
	return errors.Is(err, ErrCollectionNotFound)
}

// IsStatusError checks if the error carries a non-success server status.
func IsStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

func schemaErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrSchema}, args...)...)
}

func metadataErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrMetadata}, args...)...)
}

func indexNotConfiguredf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrIndexNotConfigured}, args...)...)
}

func invalidRequestf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidRequest}, args...)...)
}

func decodeErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrProtocolDecode}, args...)...)
}

// StatusError is returned when the server answers with a non-success status.
type StatusError struct {
	Operation  string
	Collection string
	ErrorCode  commonpb.ErrorCode
	Code       int32
	Reason     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("[Milvus] %s on collection '%s' failed (error_code=%s, code=%d): %s",
		e.Operation, e.Collection, e.ErrorCode.String(), e.Code, e.Reason)
}

// checkStatus converts a wire status into an error. A nil status is the
// proto default and counts as success.
func checkStatus(operation, collection string, status *commonpb.Status) error {
	if status == nil {
		return nil
	}
	if status.GetErrorCode() == commonpb.ErrorCode_Success && status.GetCode() == 0 {
		return nil
	}
	return &StatusError{
		Operation:  operation,
		Collection: collection,
		ErrorCode:  status.GetErrorCode(),
		Code:       status.GetCode(),
		Reason:     status.GetReason(),
	}
}
