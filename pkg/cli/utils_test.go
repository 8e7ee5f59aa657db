package cli

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Fepozopo/rasterops/pkg/raster"
)

func makeGradient(t *testing.T, w, h, ch int) *raster.Buffer {
	t.Helper()
	buf, err := raster.New(w, h, ch)
	if err != nil {
		t.Fatalf("raster.New: %v", err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for c := 0; c < ch; c++ {
				buf.Set(x, y, c, uint8(x*20+y*7+c*60))
			}
		}
	}
	return buf
}

func TestSaveLoadLosslessFormats(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		file   string
		ch     int
		wantCh int
		format string
	}{
		{"bgr.png", 3, 3, "png"},
		{"gray.png", 1, 1, "png"},
		{"bgr.bmp", 3, 3, "bmp"},
		{"bgr.tif", 3, 3, "tiff"},
		{"gray.tiff", 1, 1, "tiff"},
	}
	for _, tt := range tests {
		src := makeGradient(t, 9, 5, tt.ch)
		path := filepath.Join(dir, tt.file)
		if err := SaveImage(path, src, 92); err != nil {
			t.Fatalf("SaveImage(%s): %v", tt.file, err)
		}
		got, format, err := LoadImage(path)
		if err != nil {
			t.Fatalf("LoadImage(%s): %v", tt.file, err)
		}
		if format != tt.format {
			t.Errorf("%s: format = %q, want %q", tt.file, format, tt.format)
		}
		if got.Channels != tt.wantCh {
			t.Fatalf("%s: channels = %d, want %d", tt.file, got.Channels, tt.wantCh)
		}
		if !got.Equal(src) {
			t.Fatalf("%s: pixels changed in round trip", tt.file)
		}
	}
}

func TestSavePreservesChannelOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blue.png")
	blue := raster.Buffer{Width: 1, Height: 1, Channels: 3, Pix: []uint8{255, 0, 0}}
	if err := SaveImage(path, &blue, 92); err != nil {
		t.Fatalf("SaveImage: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r, g, b, _ := img.At(0, 0).RGBA()
	if r != 0 || g != 0 || b != 0xffff {
		t.Fatalf("BGR (255,0,0) saved as rgb(%d,%d,%d), want blue", r>>8, g>>8, b>>8)
	}
}

func TestSaveJPEGQuality(t *testing.T) {
	dir := t.TempDir()
	src := makeGradient(t, 64, 64, 3)
	low, high := filepath.Join(dir, "low.jpg"), filepath.Join(dir, "high.JPEG")
	if err := SaveImage(low, src, 10); err != nil {
		t.Fatalf("SaveImage: %v", err)
	}
	if err := SaveImage(high, src, 95); err != nil {
		t.Fatalf("SaveImage: %v", err)
	}
	li, _ := os.Stat(low)
	hi, _ := os.Stat(high)
	if li.Size() >= hi.Size() {
		t.Fatalf("quality 10 (%d bytes) not smaller than quality 95 (%d bytes)", li.Size(), hi.Size())
	}
	if _, format, err := LoadImage(high); err != nil || format != "jpeg" {
		t.Fatalf("LoadImage(jpeg) = %q, %v", format, err)
	}
}

func TestSaveImageRemovesFileOnEncodeError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wide.jpg")
	// JPEG cannot encode a side longer than 65535
	wide, err := raster.New(1<<16, 1, 1)
	if err != nil {
		t.Fatalf("raster.New: %v", err)
	}
	if err := SaveImage(path, wide, 92); err == nil {
		t.Fatalf("oversized JPEG accepted")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("partial file left behind: %v", err)
	}
}

// exifOrientation builds an APP1 segment holding only an Orientation tag.
func exifOrientation(orientation uint16) []byte {
	payload := &bytes.Buffer{}
	payload.WriteString("Exif\x00\x00")
	payload.Write([]byte{'I', 'I'})
	_ = binary.Write(payload, binary.LittleEndian, uint16(0x2A))
	_ = binary.Write(payload, binary.LittleEndian, uint32(8))
	_ = binary.Write(payload, binary.LittleEndian, uint16(1))
	_ = binary.Write(payload, binary.LittleEndian, uint16(0x0112))
	_ = binary.Write(payload, binary.LittleEndian, uint16(3))
	_ = binary.Write(payload, binary.LittleEndian, uint32(1))
	_ = binary.Write(payload, binary.LittleEndian, orientation)
	_ = binary.Write(payload, binary.LittleEndian, uint16(0))
	_ = binary.Write(payload, binary.LittleEndian, uint32(0))

	seg := &bytes.Buffer{}
	seg.Write([]byte{0xFF, 0xE1})
	_ = binary.Write(seg, binary.BigEndian, uint16(payload.Len()+2))
	seg.Write(payload.Bytes())
	return seg.Bytes()
}

func TestLoadImageAppliesEXIFOrientation(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 10), uint8(y * 10), 128, 255})
		}
	}
	var enc bytes.Buffer
	if err := jpeg.Encode(&enc, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("jpeg encode: %v", err)
	}
	raw := enc.Bytes()
	withExif := append([]byte{}, raw[:2]...)
	withExif = append(withExif, exifOrientation(6)...)
	withExif = append(withExif, raw[2:]...)

	path := filepath.Join(t.TempDir(), "rotated.jpg")
	if err := os.WriteFile(path, withExif, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf, _, err := LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if buf.Width != 8 || buf.Height != 16 {
		t.Fatalf("orientation 6 not applied: %dx%d", buf.Width, buf.Height)
	}
}

func TestLoadImageErrors(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := LoadImage(filepath.Join(dir, "missing.png")); !os.IsNotExist(err) {
		t.Fatalf("missing file error = %v", err)
	}
	junk := filepath.Join(dir, "junk.png")
	os.WriteFile(junk, []byte("not an image"), 0o644)
	if _, _, err := LoadImage(junk); err == nil || !strings.Contains(err.Error(), "decode") {
		t.Fatalf("junk file error = %v", err)
	}
}

func TestResize(t *testing.T) {
	flat, _ := raster.NewFilled(10, 6, 3, 120)
	out, err := Resize(flat, 25, 4)
	if err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if out.Width != 25 || out.Height != 4 || out.Channels != 3 {
		t.Fatalf("resized shape %v", out)
	}
	for _, v := range out.Pix {
		if v != 120 {
			t.Fatalf("constant image changed by resize: %d", v)
		}
	}
	gray := makeGradient(t, 8, 8, 1)
	out, err = Resize(gray, 4, 4)
	if err != nil || out.Channels != 1 {
		t.Fatalf("gray resize: %v, %v", out, err)
	}
	if _, err := Resize(gray, 0, 4); err == nil {
		t.Fatalf("zero width accepted")
	}
}

func TestGetImageInfo(t *testing.T) {
	buf := makeGradient(t, 3, 2, 1)
	info, err := GetImageInfo(buf, "png")
	if err != nil {
		t.Fatalf("GetImageInfo: %v", err)
	}
	if info != "Format: PNG, Width: 3, Height: 2, Channels: 1 (Gray)" {
		t.Fatalf("info = %q", info)
	}
	if _, err := GetImageInfo(nil, ""); err == nil {
		t.Fatalf("nil buffer accepted")
	}
}
