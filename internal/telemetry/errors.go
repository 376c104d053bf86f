package telemetry

import "errors"

var (
	// ErrTransport covers network faults, timeouts and non-2xx responses.
	ErrTransport = errors.New("transport error")
	// ErrFormat covers bodies that are not a JSON array of station objects.
	ErrFormat = errors.New("format error")
	// ErrPersistence covers failures writing the persisted table.
	ErrPersistence = errors.New("persistence error")
)

// ErrorType classifies err for logging and metrics labels.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrFormat):
		return "format"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	default:
		return "unknown"
	}
}
