package geometry

import "errors"

// Error taxonomy shared by builders, the octree bridge and the carver.
// Operations wrap one of these with fmt.Errorf("%w: ...") so callers can
// branch with errors.Is.
var (
	// ErrInvalidParameter reports a non-positive voxel size, inverted bounds,
	// a bad camera or an image whose size disagrees with its camera.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrEmptyInput reports a builder given no points, or an empty grid where
	// a populated one is required.
	ErrEmptyInput = errors.New("empty input")

	// ErrIndexOutOfRange reports a collection index outside the voxel slice.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrPrecisionOverflow reports an octree that cannot be mapped onto the
	// target grid without index collisions or integer overflow.
	ErrPrecisionOverflow = errors.New("precision overflow")
)
