package history

import "errors"

// ErrPointNotFound is returned when a point id does not belong to the helper.
var ErrPointNotFound = errors.New("history: point not found")
