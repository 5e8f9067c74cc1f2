package capture

import (
	"fmt"
	"os"
)

// placeholderPNG is a pre-built 1×1 transparent PNG. It is written verbatim
// when a target exhausts its retry budget so downstream consumers always
// find a file at every configured output path.
var placeholderPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52, // IHDR
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89,
	0x00, 0x00, 0x00, 0x0a, 0x49, 0x44, 0x41, 0x54, // IDAT
	0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00, 0x05,
	0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4,
	0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, // IEND
	0xae, 0x42, 0x60, 0x82,
}

// WritePlaceholder emits the placeholder image at path. A failure here is
// environment-level (unwritable output) and does propagate.
func WritePlaceholder(path string) error {
	if err := os.WriteFile(path, placeholderPNG, 0o644); err != nil {
		return fmt.Errorf("capture: write placeholder %s: %w", path, err)
	}
	return nil
}
