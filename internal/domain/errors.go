package domain

import "errors"

// DetailError is implemented by transport errors that carry a
// server-supplied rejection message suitable for showing to the operator.
type DetailError interface {
	error
	Detail() string
}

// ErrorDetail extracts the server-supplied detail message from err, or ""
// when none is present anywhere in the chain.
func ErrorDetail(err error) string {
	var d DetailError
	if errors.As(err, &d) {
		return d.Detail()
	}
	return ""
}

var (
	ErrNotFound             = errors.New("not found")
	ErrBusy                 = errors.New("server busy")
	ErrActionPending        = errors.New("action already pending")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrUnknownEvent         = errors.New("unknown event type")
	ErrWSDisconnect         = errors.New("websocket disconnected")
	ErrTornDown             = errors.New("component torn down")
)
