package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestZerologWritesComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.DebugLevel)
	log.Debug("engine", "applied", map[string]interface{}{"command": "erode", "width": 4})

	var rec map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v: %q", err, buf.String())
	}
	if rec["component"] != "engine" || rec["message"] != "applied" || rec["command"] != "erode" {
		t.Fatalf("unexpected record %v", rec)
	}
	if rec["level"] != "debug" {
		t.Fatalf("level = %v", rec["level"])
	}
}

func TestZerologRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.WarnLevel)
	log.Info("cli", "hidden", nil)
	log.Debug("cli", "hidden", nil)
	if buf.Len() != 0 {
		t.Fatalf("below-level records written: %q", buf.String())
	}
	log.Error("cli", errors.New("boom"), map[string]interface{}{"path": "a.png"})
	if !bytes.Contains(buf.Bytes(), []byte("boom")) || !bytes.Contains(buf.Bytes(), []byte("a.png")) {
		t.Fatalf("error record missing fields: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
		ok   bool
	}{
		{"", zerolog.InfoLevel, true},
		{"debug", zerolog.DebugLevel, true},
		{" WARNING ", zerolog.WarnLevel, true},
		{"error", zerolog.ErrorLevel, true},
		{"chatty", zerolog.InfoLevel, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNopDiscards(t *testing.T) {
	var l Logger = Nop()
	l.Info("x", "y", nil)
	l.Error("x", errors.New("z"), nil)
}
