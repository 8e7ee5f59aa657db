package cli

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/Fepozopo/rasterops/pkg/raster"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

func TestComputePreviewSize(t *testing.T) {
	tests := []struct {
		w, h int
		want PreviewSize
	}{
		{16, 8, PreviewSize{Cols: 6, Rows: 3}},
		{640, 320, PreviewSize{Cols: 80, Rows: 20}},
		{1600, 1600, PreviewSize{Cols: 80, Rows: 40}},
		{4000, 100, PreviewSize{Cols: 80, Rows: 3}},
	}
	for _, tt := range tests {
		if got := computePreviewSize(tt.w, tt.h); got != tt.want {
			t.Errorf("computePreviewSize(%d, %d) = %+v, want %+v", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestPreviewInline(t *testing.T) {
	t.Setenv("RASTEROPS_PREVIEW_BACKEND", "inline")
	var out bytes.Buffer
	if err := previewTo(&out, makeGradient(t, 16, 8, 3)); err != nil {
		t.Fatalf("previewTo: %v", err)
	}
	s := out.String()
	if !strings.HasPrefix(s, "\x1b]1337;File=name=preview.png;inline=1;") {
		t.Fatalf("not an OSC 1337 sequence: %q", s[:min(len(s), 40)])
	}
	if !strings.Contains(s, "width=48px;height=48px:") {
		t.Errorf("unexpected size keys in %q", s[:min(len(s), 80)])
	}
	_, payload, _ := strings.Cut(s, ":")
	payload = strings.TrimSuffix(payload, "\a\n")
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("payload is not base64: %v", err)
	}
	if !bytes.HasPrefix(data, pngSignature) {
		t.Fatalf("payload is not a PNG")
	}
}

func TestPreviewKittyChunks(t *testing.T) {
	t.Setenv("RASTEROPS_PREVIEW_BACKEND", "kitty")
	noisy, _ := raster.New(300, 200, 3)
	seed := uint32(1)
	for i := range noisy.Pix {
		seed = seed*1664525 + 1013904223
		noisy.Pix[i] = uint8(seed >> 24)
	}
	var out bytes.Buffer
	if err := previewTo(&out, noisy); err != nil {
		t.Fatalf("previewTo: %v", err)
	}

	chunks := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\x1b\\")
	chunks = chunks[:len(chunks)-1]
	if len(chunks) < 2 {
		t.Fatalf("expected a chunked transfer, got %d chunk(s)", len(chunks))
	}
	var enc strings.Builder
	for i, c := range chunks {
		ctrl, data, ok := strings.Cut(strings.TrimPrefix(c, "\x1b_G"), ";")
		if !ok {
			t.Fatalf("chunk %d has no payload", i)
		}
		if len(data) > 4096 {
			t.Errorf("chunk %d carries %d bytes", i, len(data))
		}
		last := i == len(chunks)-1
		switch {
		case i == 0 && !strings.HasPrefix(ctrl, "a=T,f=100,"):
			t.Errorf("first chunk control = %q", ctrl)
		case i > 0 && strings.Contains(ctrl, "a=T"):
			t.Errorf("chunk %d repeats control keys", i)
		case last && !strings.HasSuffix(ctrl, "m=0"):
			t.Errorf("last chunk control = %q", ctrl)
		case !last && !strings.HasSuffix(ctrl, "m=1"):
			t.Errorf("chunk %d control = %q", i, ctrl)
		}
		enc.WriteString(data)
	}
	data, err := base64.StdEncoding.DecodeString(enc.String())
	if err != nil {
		t.Fatalf("joined payload is not base64: %v", err)
	}
	if !bytes.HasPrefix(data, pngSignature) {
		t.Fatalf("joined payload is not a PNG")
	}
}

func TestPreviewNilImage(t *testing.T) {
	if err := previewTo(&bytes.Buffer{}, nil); err == nil {
		t.Fatalf("nil image accepted")
	}
}
