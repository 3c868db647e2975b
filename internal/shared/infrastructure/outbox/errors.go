package outbox

import "errors"

// ErrMessageNotFound is returned when marking an unknown message.
var ErrMessageNotFound = errors.New("outbox message not found")
