package marketdata

import "errors"

// ErrDataUnavailable marks transient feed outages. The orchestrator
// treats a wrapped ErrDataUnavailable as a skipped cycle, not a fault.
var ErrDataUnavailable = errors.New("market data unavailable")
