package solar

import "errors"

var (
	ErrInvalidObservation = errors.New("invalid rooftop observation")
	ErrInvalidIrradiance  = errors.New("invalid irradiance")
	ErrDivisionGuard      = errors.New("annual savings must be positive to compute payback")
)
