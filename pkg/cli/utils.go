package cli

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/Fepozopo/rasterops/pkg/raster"
)

// stdin is shared by every prompt so that no input is lost to a second
// buffered reader.
var stdin = bufio.NewReader(os.Stdin)

// PromptLine displays a prompt and reads a full line of input from the user.
// The returned string is trimmed of surrounding whitespace (including the newline).
func PromptLine(prompt string) (string, error) {
	return promptFrom(stdin, prompt)
}

func promptFrom(r *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// PromptLineOrFzf reads a full line and treats a lone "/" as a request to
// pick a file with fzf. When fzf is unavailable or cancelled the prompt is
// repeated as plain text. Whole lines are read so paths may contain spaces.
func PromptLineOrFzf(prompt string, useFzf bool) (string, error) {
	input, err := PromptLine(prompt)
	if err != nil {
		return "", err
	}
	if input == "/" {
		if useFzf {
			if sel, selErr := SelectFileWithFzf("."); selErr == nil && sel != "" {
				fmt.Printf(" [fzf] %s\n", sel)
				return sel, nil
			}
		}
		return PromptLine(prompt)
	}
	return input, nil
}

// LoadImage reads an image file (PNG, JPEG, GIF, BMP or TIFF) into a raster
// buffer. Gray images load as one channel, everything else as BGR with any
// alpha dropped. JPEG EXIF orientation is applied. The detected format name
// is returned alongside.
func LoadImage(path string) (*raster.Buffer, string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", path, err)
	}
	img, err := imaging.Decode(bytes.NewReader(b), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", path, err)
	}
	return toBuffer(img), format, nil
}

// toBuffer converts a decoded image into a Gray or BGR buffer.
func toBuffer(img image.Image) *raster.Buffer {
	switch g := img.(type) {
	case *image.Gray:
		return grayToBuffer(g)
	case *image.Gray16:
		b := g.Bounds()
		gray := image.NewGray(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				gray.SetGray(x, y, color.GrayModel.Convert(g.Gray16At(x, y)).(color.Gray))
			}
		}
		return grayToBuffer(gray)
	}
	return nrgbaToBuffer(imaging.Clone(img), 3)
}

func grayToBuffer(g *image.Gray) *raster.Buffer {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	buf, _ := raster.New(w, h, 1)
	for y := 0; y < h; y++ {
		copy(buf.Pix[y*w:(y+1)*w], g.Pix[y*g.Stride:y*g.Stride+w])
	}
	return buf
}

// nrgbaToBuffer copies n into a buffer with the given channel count. One
// channel keeps the red samples, which is exact for images that were gray.
func nrgbaToBuffer(n *image.NRGBA, channels int) *raster.Buffer {
	b := n.Bounds()
	w, h := b.Dx(), b.Dy()
	buf, _ := raster.New(w, h, channels)
	for y := 0; y < h; y++ {
		row := n.Pix[y*n.Stride:]
		for x := 0; x < w; x++ {
			s := row[x*4 : x*4+4]
			o := buf.Offset(x, y)
			if channels == 1 {
				buf.Pix[o] = s[0]
				continue
			}
			buf.Pix[o+0], buf.Pix[o+1], buf.Pix[o+2] = s[2], s[1], s[0]
		}
	}
	return buf
}

// toImage wraps buf as a standard image: Gray for one channel, opaque NRGBA
// (from BGR) otherwise.
func toImage(buf *raster.Buffer) image.Image {
	if buf.Channels == 1 {
		g := image.NewGray(image.Rect(0, 0, buf.Width, buf.Height))
		copy(g.Pix, buf.Pix)
		return g
	}
	n := image.NewNRGBA(image.Rect(0, 0, buf.Width, buf.Height))
	for i, j := 0, 0; i < len(buf.Pix); i, j = i+3, j+4 {
		n.Pix[j+0] = buf.Pix[i+2]
		n.Pix[j+1] = buf.Pix[i+1]
		n.Pix[j+2] = buf.Pix[i+0]
		n.Pix[j+3] = 0xff
	}
	return n
}

// SaveImage writes buf to path in the format implied by its extension:
// .png, .jpg/.jpeg, .gif, .bmp, .tif/.tiff. Unknown extensions get PNG.
// quality applies to JPEG only. A file that fails to encode is removed.
func SaveImage(path string, buf *raster.Buffer, quality int) error {
	if buf == nil {
		return fmt.Errorf("no image to save")
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	img := toImage(buf)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: quality})
	case ".gif":
		err = gif.Encode(f, img, nil)
	case ".bmp":
		err = bmp.Encode(f, img)
	case ".tif", ".tiff":
		err = tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	default:
		err = png.Encode(f, img)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// Resize resamples buf to w x h with the Catmull-Rom cubic filter, keeping
// its channel count.
func Resize(buf *raster.Buffer, w, h int) (*raster.Buffer, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("resize to %dx%d: %w", w, h, raster.ErrInvalidParameter)
	}
	out := imaging.Resize(toImage(buf), w, h, imaging.CatmullRom)
	return nrgbaToBuffer(out, buf.Channels), nil
}

// GetImageInfo returns a short info string for the current buffer.
func GetImageInfo(buf *raster.Buffer, format string) (string, error) {
	if buf == nil {
		return "", fmt.Errorf("nil image")
	}
	if format == "" {
		format = "unknown"
	}
	layout := "BGR"
	if buf.Channels == 1 {
		layout = "Gray"
	}
	return fmt.Sprintf("Format: %s, Width: %d, Height: %d, Channels: %d (%s)",
		strings.ToUpper(format), buf.Width, buf.Height, buf.Channels, layout), nil
}
