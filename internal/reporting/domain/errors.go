package reporting

import "errors"

// ErrDataUnavailable is returned when transactions or reference data could
// not be fetched. An empty report is not an error.
var ErrDataUnavailable = errors.New("reporting: data unavailable")
