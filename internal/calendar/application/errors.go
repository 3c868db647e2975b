package application

import "errors"

// ErrPushDisabled is returned when no CalDAV calendar is configured.
var ErrPushDisabled = errors.New("calendar push is not configured")
