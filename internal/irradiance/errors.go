package irradiance

import (
	"errors"
	"fmt"
)

// ErrExternalAPIFailure wraps every failure of the live irradiance lookup.
// Provider never returns it; it is logged and the fallback value is served.
var ErrExternalAPIFailure = errors.New("irradiance api failure")

var (
	ErrAPIUnreachable   = fmt.Errorf("%w: unreachable", ErrExternalAPIFailure)
	ErrAPITimeout       = fmt.Errorf("%w: timeout", ErrExternalAPIFailure)
	ErrAPICancelled     = fmt.Errorf("%w: request cancelled", ErrExternalAPIFailure)
	ErrAPIStatus        = fmt.Errorf("%w: unexpected status", ErrExternalAPIFailure)
	ErrMalformedPayload = fmt.Errorf("%w: malformed payload", ErrExternalAPIFailure)
	ErrMissingAPIKey    = fmt.Errorf("%w: missing or invalid api key", ErrExternalAPIFailure)
	ErrClientDisabled   = fmt.Errorf("%w: client disabled", ErrExternalAPIFailure)
)
