package resilience

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/sells-group/enrich-cli/pkg/apierr"
)

// Kind is the failure taxonomy applied to every provider call.
type Kind string

const (
	KindNone          Kind = ""
	KindConfiguration Kind = "configuration"
	KindRateLimited   Kind = "rate_limited"
	KindNetwork       Kind = "network"
	KindParse         Kind = "parse"
	KindHTTP          Kind = "http"
	KindCanceled      Kind = "canceled"
	KindUnknown       Kind = "unknown"
)

// Classify maps err onto the failure taxonomy.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case apierr.IsNotConfigured(err):
		return KindConfiguration
	case apierr.IsRateLimited(err):
		return KindRateLimited
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case IsConnectionError(err):
		return KindNetwork
	case apierr.IsParse(err):
		return KindParse
	case apierr.StatusCode(err) != 0:
		return KindHTTP
	}
	return KindUnknown
}

// IsRetryable reports whether err should be retried: too-many-requests
// responses and connection-level failures only.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return apierr.IsRateLimited(err) || IsConnectionError(err)
}

// IsConnectionError returns true if err (or any error in its chain) is a
// network timeout, connection reset/refused/aborted, or a DNS failure.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// String-based heuristics for errors flattened by HTTP clients.
	msg := strings.ToLower(err.Error())
	patterns := []string{
		"connection reset by peer",
		"connection refused",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
		"client.timeout exceeded",
	}
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
