package capture

import (
	"bytes"
	"fmt"
)

var (
	pngSignature  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	jpegSignature = []byte{0xff, 0xd8, 0xff}
)

// DefaultMinBytes is the smallest buffer accepted as a real capture. A
// screenshot of an actual map compresses far above this; a captured black
// frame or tiny error page lands below it.
const DefaultMinBytes = 4096

// Validate checks that the buffer starts with the signature of the
// configured format and exceeds the minimum byte size.
func Validate(buf []byte, format string, minBytes int) error {
	if minBytes <= 0 {
		minBytes = DefaultMinBytes
	}

	var sig []byte
	switch format {
	case "jpeg", "jpg":
		sig = jpegSignature
	default:
		sig = pngSignature
	}

	if !bytes.HasPrefix(buf, sig) {
		return fmt.Errorf("%w: bad %s signature (%d bytes)", ErrInvalidCapture, format, len(buf))
	}
	if len(buf) < minBytes {
		return fmt.Errorf("%w: %d bytes below minimum %d", ErrInvalidCapture, len(buf), minBytes)
	}
	return nil
}
