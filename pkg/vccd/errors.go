package vccd

import "errors"

var (
	ErrInvalidMagic       = errors.New("invalid VCCD magic")
	ErrUnsupportedVersion = errors.New("unsupported VCCD version")
	ErrCorruptFile        = errors.New("corrupt VCCD file")

	// ErrEntryTooLarge is returned when a single encoded caption exceeds BlockSize.
	ErrEntryTooLarge = errors.New("vccd: entry too large for a block")

	// ErrHashCollision is returned when two distinct caption names share a CRC-32.
	ErrHashCollision = errors.New("vccd: caption name hash collision")
)
