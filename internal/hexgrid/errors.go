package hexgrid

import "errors"

var (
	ErrInvalidResolution  = errors.New("invalid resolution")
	ErrInvalidCoordinate  = errors.New("invalid coordinate")
	ErrInvalidRadius      = errors.New("invalid radius")
	ErrInvalidCell        = errors.New("invalid cell")
	ErrResolutionMismatch = errors.New("resolution mismatch")
	ErrNotReachable       = errors.New("cell not reachable within distance bound")
)

// Kind maps an error to a stable label used in API bodies and metric labels.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidResolution):
		return "invalid_resolution"
	case errors.Is(err, ErrInvalidCoordinate):
		return "invalid_coordinate"
	case errors.Is(err, ErrInvalidRadius):
		return "invalid_radius"
	case errors.Is(err, ErrInvalidCell):
		return "invalid_cell"
	case errors.Is(err, ErrResolutionMismatch):
		return "resolution_mismatch"
	case errors.Is(err, ErrNotReachable):
		return "not_reachable"
	case errors.Is(err, ErrTooManyCells):
		return "too_many_cells"
	default:
		return "internal"
	}
}

// IsInputError reports whether err was caused by a bad caller input.
func IsInputError(err error) bool {
	switch Kind(err) {
	case "", "internal":
		return false
	default:
		return true
	}
}
