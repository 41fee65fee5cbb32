package mockdata

import "errors"

// ErrUnknownResourceType is returned for resource types without telemetry.
var ErrUnknownResourceType = errors.New("unknown resource type")
