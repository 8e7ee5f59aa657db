package cli

import (
	"strings"
	"testing"

	"github.com/Fepozopo/rasterops/pkg/engine"
)

func TestCommandMenuRoundTrip(t *testing.T) {
	menu := commandMenu(engine.Commands)
	lines := strings.Split(strings.TrimSuffix(menu, "\n"), "\n")
	if len(lines) != len(engine.Commands) {
		t.Fatalf("menu has %d lines, want %d", len(lines), len(engine.Commands))
	}
	for i, l := range lines {
		name, err := parseMenuSelection(l + "\n")
		if err != nil || name != engine.Commands[i].Name {
			t.Errorf("parseMenuSelection(%q) = %q, %v", l, name, err)
		}
	}
}

func TestParseMenuSelection(t *testing.T) {
	if name, err := parseMenuSelection("  blend  "); err != nil || name != "blend" {
		t.Errorf("bare name = %q, %v", name, err)
	}
	for _, s := range []string{"", "\n", ": description only"} {
		if _, err := parseMenuSelection(s); err == nil {
			t.Errorf("parseMenuSelection(%q) accepted", s)
		}
	}
}
