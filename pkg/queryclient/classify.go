package queryclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// httpStatusError wraps a non-2xx REST response so classify can route it
// through classifyHTTPStatus regardless of which operation produced it.
type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

// classify inspects an attempt error and returns the retry class to apply,
// dispatching on whichever transport produced it.
func classify(err error) class {
	if err == nil {
		return classSuccess
	}
	var httpErr *httpStatusError
	if errors.As(err, &httpErr) {
		return classifyHTTPStatus(httpErr.StatusCode)
	}
	if _, ok := status.FromError(err); ok {
		return classifyGRPCError(err)
	}
	return classifyTransportError(err)
}

// class is the outcome of one transport attempt, driving the retry engine
// in client.go.
type class int

const (
	// classSuccess means the attempt produced a usable response.
	classSuccess class = iota
	// classNoRetryRotate means this endpoint must not be retried (501/502);
	// rotate to the next endpoint immediately.
	classNoRetryRotate
	// classRetryBackoff means retry the same endpoint after exponential
	// backoff (429/503, decode failure, or network error).
	classRetryBackoff
	// classFailFast means abort the whole operation without trying
	// further endpoints or transports (4xx other than 429).
	classFailFast
)

// classifyHTTPStatus maps a REST response status code to a retry class
// per spec.md §4.2's retry policy.
func classifyHTTPStatus(statusCode int) class {
	switch statusCode {
	case http.StatusOK:
		return classSuccess
	case http.StatusNotImplemented, http.StatusBadGateway:
		return classNoRetryRotate
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return classRetryBackoff
	default:
		if statusCode >= 400 && statusCode < 500 {
			return classFailFast
		}
		// Unexpected 5xx other than 502/503: treat as a retryable
		// network-equivalent failure rather than fail fast.
		return classRetryBackoff
	}
}

// classifyTransportError maps a low-level transport error (connection
// refused, timeout, DNS failure) to a retry class. These are always
// treated as retryable network failures.
func classifyTransportError(err error) class {
	if err == nil {
		return classSuccess
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return classRetryBackoff
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return classRetryBackoff
	}
	return classRetryBackoff
}

// classifyGRPCError maps a gRPC status code to a retry class, mirroring
// the HTTP policy: Unimplemented/Internal behave like 501/502 (rotate
// without retry), Unavailable/ResourceExhausted behave like 429/503
// (retry with backoff), InvalidArgument/NotFound/PermissionDenied behave
// like a non-429 4xx (fail fast).
func classifyGRPCError(err error) class {
	if err == nil {
		return classSuccess
	}
	st, ok := status.FromError(err)
	if !ok {
		return classRetryBackoff
	}
	switch st.Code() {
	case codes.OK:
		return classSuccess
	case codes.Unimplemented, codes.Internal:
		return classNoRetryRotate
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded, codes.Aborted:
		return classRetryBackoff
	case codes.InvalidArgument, codes.NotFound, codes.PermissionDenied, codes.Unauthenticated, codes.FailedPrecondition:
		return classFailFast
	default:
		return classRetryBackoff
	}
}
