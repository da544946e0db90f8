package deflate

import "errors"

// Sentinel errors for the two recoverable failure kinds spec.md's error
// table names. Callers compare with errors.Is; each call site wraps with
// fmt.Errorf("%w: ...") to add the offending value, the same convention
// internal/zip uses for ErrFormat/ErrAlgorithm in the teacher repo.
var (
	// ErrInvalidArgument is returned when a caller passes an out-of-range
	// offset, length, or level. The engine's state is left unchanged.
	ErrInvalidArgument = errors.New("deflate: invalid argument")

	// ErrInvalidState is returned when an operation is attempted while the
	// engine is in a state that forbids it: SetInput before the previous
	// input slice has been fully consumed, or SetDictionary after the
	// engine has already compressed data.
	ErrInvalidState = errors.New("deflate: invalid state")
)

// invariantPanic reports a condition that should be unreachable absent
// memory corruption or a bug in this package: an unrecognized compression
// function tag. Spec.md's error table classifies this kind as
// unrecoverable, so unlike ErrInvalidArgument/ErrInvalidState it is raised
// as a panic rather than returned, mirroring the teacher's own decoder
// (internal/flate), which panics on a corrupt bitstream instead of
// returning a value a caller could inspect and ignore.
func invariantPanic(msg string) {
	panic("deflate: internal invariant violated: " + msg)
}
