package dedupe

import "errors"

// ErrInFlight is returned when a token is reused while the request first
// recorded under it has not completed.
var ErrInFlight = errors.New("request with this token is in progress")
