package models

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the API boundary can map it to a status code.
type Kind string

const (
	KindUnsupportedFormat      Kind = "unsupported_format"
	KindExtractionFailed       Kind = "extraction_failed"
	KindInvalidArgument        Kind = "invalid_argument"
	KindEmbeddingFailed        Kind = "embedding_failed"
	KindStoreWriteFailed       Kind = "store_write_failed"
	KindStoreQueryFailed       Kind = "store_query_failed"
	KindStoreResponseMalformed Kind = "store_response_malformed"
	KindDimensionMismatch      Kind = "dimension_mismatch"
	KindInternal               Kind = "internal"
)

// Error is the typed failure used across the pipelines.
type Error struct {
	Kind      Kind
	Message   string
	Extension string // set for KindUnsupportedFormat
	Err       error
}

// Sentinels for errors.Is matching. Only the Kind is compared.
var (
	ErrUnsupportedFormat      = &Error{Kind: KindUnsupportedFormat}
	ErrExtractionFailed       = &Error{Kind: KindExtractionFailed}
	ErrInvalidArgument        = &Error{Kind: KindInvalidArgument}
	ErrEmbeddingFailed        = &Error{Kind: KindEmbeddingFailed}
	ErrStoreWriteFailed       = &Error{Kind: KindStoreWriteFailed}
	ErrStoreQueryFailed       = &Error{Kind: KindStoreQueryFailed}
	ErrStoreResponseMalformed = &Error{Kind: KindStoreResponseMalformed}
	ErrDimensionMismatch      = &Error{Kind: KindDimensionMismatch}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// UnsupportedFormat reports a filename extension no extractor handles.
func UnsupportedFormat(ext string) error {
	shown := ext
	if shown == "" {
		shown = "(none)"
	}
	return &Error{
		Kind:      KindUnsupportedFormat,
		Message:   fmt.Sprintf("unsupported file type %s", shown),
		Extension: ext,
	}
}

// ExtractionFailed wraps a decode or parse failure.
func ExtractionFailed(format string, cause error) error {
	return &Error{Kind: KindExtractionFailed, Message: "extract " + format + " text", Err: cause}
}

// InvalidArgument reports malformed caller input.
func InvalidArgument(format string, args ...any) error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// EmbeddingFailed wraps an embedding provider failure.
func EmbeddingFailed(cause error) error {
	return &Error{Kind: KindEmbeddingFailed, Message: "generate embedding", Err: cause}
}

// StoreWriteFailed wraps a document store write failure.
func StoreWriteFailed(cause error) error {
	return &Error{Kind: KindStoreWriteFailed, Message: "store document", Err: cause}
}

// StoreQueryFailed wraps a document store query failure.
func StoreQueryFailed(cause error) error {
	return &Error{Kind: KindStoreQueryFailed, Message: "query document store", Err: cause}
}

// StoreResponseMalformed reports a structurally invalid store response.
func StoreResponseMalformed(format string, args ...any) error {
	return &Error{Kind: KindStoreResponseMalformed, Message: "malformed store response: " + fmt.Sprintf(format, args...)}
}

// DimensionMismatch reports a vector whose length disagrees with the store.
func DimensionMismatch(got, want int) error {
	return &Error{
		Kind:    KindDimensionMismatch,
		Message: fmt.Sprintf("embedding dimension mismatch: got %d, want %d", got, want),
	}
}
