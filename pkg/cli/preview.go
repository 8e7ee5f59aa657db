package cli

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"io"
	"math"
	"os"
	"os/exec"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/Fepozopo/rasterops/pkg/raster"
)

// Terminal preview of the current buffer. Backends, in order of preference:
// iTerm2-style inline images (OSC 1337), the kitty graphics protocol, an
// external sixel renderer (img2sixel) and chafa block art. RASTEROPS_PREVIEW_BACKEND
// forces one of "inline", "kitty", "sixel" or "chafa".

func isKitty() bool {
	if os.Getenv("KITTY_WINDOW_ID") != "" {
		return true
	}
	// ghostty speaks the kitty protocol
	term := strings.ToLower(os.Getenv("TERM"))
	return strings.Contains(term, "kitty") || strings.Contains(term, "ghostty")
}

func isInlineImageCapable() bool {
	switch os.Getenv("TERM_PROGRAM") {
	case "iTerm.app", "WezTerm", "Warp", "Hyper", "vscode", "Tabby", "Bobcat":
		return true
	}
	if os.Getenv("ITERM_SESSION_ID") != "" {
		return true
	}
	term := strings.ToLower(os.Getenv("TERM"))
	return strings.Contains(term, "wezterm") || strings.Contains(term, "vscode")
}

func isSixelCapable() bool {
	term := strings.ToLower(os.Getenv("TERM"))
	return strings.Contains(term, "foot") || os.Getenv("WT_SESSION") != ""
}

func hasChafa() bool {
	_, err := exec.LookPath("chafa")
	return err == nil
}

// PreviewSupported reports whether some preview backend is likely to work.
func PreviewSupported() bool {
	return isKitty() || isInlineImageCapable() || isSixelCapable() || hasChafa()
}

// PreviewSize is the character-cell area a preview occupies.
type PreviewSize struct {
	Cols, Rows int
}

const (
	cellW, cellH     = 8, 16
	maxCols, maxRows = 80, 40
)

// computePreviewSize fits a w x h image into at most maxCols x maxRows cells,
// preserving aspect ratio and never scaling up.
func computePreviewSize(w, h int) PreviewSize {
	scale := math.Min(1, math.Min(float64(maxCols*cellW)/float64(w), float64(maxRows*cellH)/float64(h)))
	cols := int(math.Round(float64(w) * scale / cellW))
	rows := int(math.Round(float64(h) * scale / cellH))
	return PreviewSize{Cols: min(max(cols, 6), maxCols), Rows: min(max(rows, 3), maxRows)}
}

// PreviewImage renders buf to stdout with the best available backend.
func PreviewImage(buf *raster.Buffer) error {
	return previewTo(os.Stdout, buf)
}

func previewTo(w io.Writer, buf *raster.Buffer) error {
	if buf == nil {
		return fmt.Errorf("nil image")
	}
	img := toImage(buf)
	// large frames are downsampled first so the escape sequence stays small
	if buf.Width > maxCols*cellW || buf.Height > maxRows*cellH {
		img = imaging.Fit(img, maxCols*cellW, maxRows*cellH, imaging.Box)
	}
	var blob bytes.Buffer
	if err := png.Encode(&blob, img); err != nil {
		return fmt.Errorf("png encode failed: %w", err)
	}
	size := computePreviewSize(buf.Width, buf.Height)

	backend := strings.ToLower(os.Getenv("RASTEROPS_PREVIEW_BACKEND"))
	switch {
	case backend == "inline" || backend == "" && isInlineImageCapable():
		return sendInlineImage(w, blob.Bytes(), size)
	case backend == "kitty" || backend == "" && isKitty():
		return sendKittyImage(w, blob.Bytes(), size)
	case backend == "sixel" || backend == "" && isSixelCapable():
		if err := runRenderer(w, blob.Bytes(), "img2sixel", "-"); err == nil {
			return nil
		}
		return sendChafaImage(w, blob.Bytes(), size)
	case backend == "chafa" || backend == "" && hasChafa():
		return sendChafaImage(w, blob.Bytes(), size)
	}
	return fmt.Errorf("no preview backend available")
}

// sendInlineImage emits the iTerm2 OSC 1337 inline file sequence.
func sendInlineImage(w io.Writer, data []byte, size PreviewSize) error {
	enc := base64.StdEncoding.EncodeToString(data)
	_, err := fmt.Fprintf(w, "\x1b]1337;File=name=preview.png;inline=1;size=%d;width=%dpx;height=%dpx:%s\a\n",
		len(data), size.Cols*cellW, size.Rows*cellH, enc)
	return err
}

// sendKittyImage transmits PNG data with the kitty graphics protocol in
// base64 chunks of at most 4096 bytes. Only the first chunk carries the
// control keys; q=2 suppresses terminal replies.
func sendKittyImage(w io.Writer, data []byte, size PreviewSize) error {
	enc := base64.StdEncoding.EncodeToString(data)
	const chunkSize = 4096
	for pos := 0; pos < len(enc); pos += chunkSize {
		end := min(pos+chunkSize, len(enc))
		more := 0
		if end < len(enc) {
			more = 1
		}
		var err error
		if pos == 0 {
			_, err = fmt.Fprintf(w, "\x1b_Ga=T,f=100,t=d,q=2,c=%d,r=%d,m=%d;%s\x1b\\", size.Cols, size.Rows, more, enc[pos:end])
		} else {
			_, err = fmt.Fprintf(w, "\x1b_Gm=%d;%s\x1b\\", more, enc[pos:end])
		}
		if err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

func sendChafaImage(w io.Writer, data []byte, size PreviewSize) error {
	return runRenderer(w, data, "chafa", "--fill=block", "--symbols=block", "-s", fmt.Sprintf("%dx%d", size.Cols, size.Rows), "-")
}

// runRenderer pipes data through an external renderer into w.
func runRenderer(w io.Writer, data []byte, name string, args ...string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("%s not found in PATH: %w", name, err)
	}
	cmd := exec.Command(name, args...)
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = w
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}
