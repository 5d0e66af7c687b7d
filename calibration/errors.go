package calibration

import "github.com/pkg/errors"

var (
	// ErrInsufficientPoints is returned when a calibration set holds fewer than
	// the three correspondence pairs a similarity solve requires.
	ErrInsufficientPoints = errors.New("calibration requires at least 3 correspondence pairs")

	// ErrDegenerateConfiguration is returned when the correspondence points are
	// collinear (or coincident) and no unique rotation exists.
	ErrDegenerateConfiguration = errors.New("correspondence points are collinear or coincident")

	// ErrNonFinite is returned when a correspondence point carries a NaN or Inf component.
	ErrNonFinite = errors.New("correspondence point has a non-finite component")
)
