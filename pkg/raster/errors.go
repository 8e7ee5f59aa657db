package raster

import (
	"errors"
	"fmt"
)

// Errors returned by the operations in this package. They are wrapped with
// call-site context, so match them with errors.Is.
var (
	ErrInvalidChannelCount      = errors.New("invalid channel count")
	ErrInvalidParameter         = errors.New("invalid parameter")
	ErrInvalidKernelSize        = fmt.Errorf("%w: kernel size must be odd and positive", ErrInvalidParameter)
	ErrInvalidThresholds        = errors.New("low threshold exceeds high threshold")
	ErrUnsupportedConversion    = errors.New("unsupported color conversion")
	ErrDegenerateCorrespondence = errors.New("degenerate point correspondence")
	ErrChannelSizeMismatch      = errors.New("buffer size mismatch")
)

func checkKernelSize(k int) error {
	if k <= 0 || k%2 == 0 {
		return fmt.Errorf("kernel size %d: %w", k, ErrInvalidKernelSize)
	}
	return nil
}

func checkSingleChannel(b *Buffer) error {
	if b.Channels != 1 {
		return fmt.Errorf("expected 1 channel, got %d: %w", b.Channels, ErrInvalidChannelCount)
	}
	return nil
}

// checkSameShape reports whether a and b can be combined sample by sample.
func checkSameShape(a, b *Buffer) error {
	if !a.SameSize(b) || a.Channels != b.Channels {
		return fmt.Errorf("%dx%dx%d vs %dx%dx%d: %w",
			a.Width, a.Height, a.Channels, b.Width, b.Height, b.Channels, ErrChannelSizeMismatch)
	}
	return nil
}
