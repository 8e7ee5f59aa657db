package cli

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Fepozopo/rasterops/pkg/engine"
)

// fzfAvailable reports whether fzf is on PATH.
func fzfAvailable() bool {
	_, err := exec.LookPath("fzf")
	return err == nil
}

// commandMenu renders one "name: description" line per command.
func commandMenu(commands []engine.CommandSpec) string {
	var b strings.Builder
	for _, c := range commands {
		fmt.Fprintf(&b, "%s: %s\n", c.Name, c.Description)
	}
	return b.String()
}

// parseMenuSelection extracts the command name from a selected menu line.
func parseMenuSelection(selection string) (string, error) {
	name, _, _ := strings.Cut(strings.TrimSpace(selection), ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("no command selected")
	}
	return name, nil
}

// SelectCommandWithFzf displays the commands in fzf and returns the selected name.
func SelectCommandWithFzf(commands []engine.CommandSpec) (string, error) {
	cmd := exec.Command("fzf", "--prompt=Command> ", "--height=40%", "--border")
	cmd.Stdin = strings.NewReader(commandMenu(commands))
	cmd.Stderr = os.Stderr

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("error running fzf: %w", err)
	}
	return parseMenuSelection(out.String())
}

// filePreviewCommand picks an fzf --preview command for the current terminal.
// fzf substitutes {} with the highlighted path.
func filePreviewCommand() string {
	const chafa = "chafa --fill=block --symbols=block -s 80x40 {} 2>/dev/null"
	switch {
	case isKitty():
		return "kitty +kitten icat --clear --transfer-mode=memory --stdin=no {} 2>/dev/null || " + chafa
	case isInlineImageCapable():
		return "imgcat {} 2>/dev/null || " + chafa
	case isSixelCapable():
		return "img2sixel {} 2>/dev/null || " + chafa
	default:
		return chafa
	}
}

// SelectFileWithFzf lists the image files under startDir in fzf and returns
// the selected path. It shells out to find and fzf, so both must be on PATH.
func SelectFileWithFzf(startDir string) (string, error) {
	cmdStr := fmt.Sprintf(
		"find %s -type f \\( -iname '*.jpg' -o -iname '*.jpeg' -o -iname '*.png' -o -iname '*.gif' -o -iname '*.bmp' -o -iname '*.tif' -o -iname '*.tiff' \\) | fzf --height 100%% --border --prompt='Files> ' --preview=%q --preview-window='right:60%%'",
		strconv.Quote(startDir),
		filePreviewCommand(),
	)
	cmd := exec.Command("bash", "-c", cmdStr)
	cmd.Stderr = os.Stderr

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("error running fzf for files: %w", err)
	}
	selection := strings.TrimSpace(out.String())
	if selection == "" {
		return "", fmt.Errorf("no file selected")
	}
	return selection, nil
}
