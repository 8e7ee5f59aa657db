package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/Fepozopo/rasterops/pkg/engine"
	"github.com/Fepozopo/rasterops/pkg/logger"
	"github.com/Fepozopo/rasterops/pkg/raster"
)

func usage() {
	fmt.Println("Commands available:")
	fmt.Println("  /  - select and apply command")
	fmt.Println("  o  - open another image at runtime")
	fmt.Println("  s  - save current image")
	fmt.Println("  i  - show image info and channel statistics")
	fmt.Println("  u  - check for updates")
	fmt.Println("  h  - show this help message")
	fmt.Println("  q  - quit")
}

func batchUsage(w io.Writer) {
	fmt.Fprintln(w, "usage:")
	fmt.Fprintln(w, "  rasterops [image]                                   interactive editor")
	fmt.Fprintln(w, "  rasterops apply <in> <out> <command> [args...] [+ <command> [args...]]...")
	fmt.Fprintln(w, "  rasterops commands                                  list commands")
	fmt.Fprintln(w, "  rasterops version")
	fmt.Fprintln(w, "  rasterops update")
}

// App holds one editing session: the current image and the collaborators
// used to transform, load and save it.
type App struct {
	cfg   Config
	log   logger.Logger
	eng   *engine.Engine
	store *MetaStore

	cur    *raster.Buffer
	path   string
	format string
}

// NewApp wires an engine whose second-image commands load through LoadImage
// and whose resizes go through Resize.
func NewApp(cfg Config, log logger.Logger) *App {
	eng := engine.New(
		engine.WithLogger(log),
		engine.WithResizer(Resize),
		engine.WithLoader(func(path string) (*raster.Buffer, error) {
			buf, _, err := LoadImage(path)
			return buf, err
		}),
	)
	return &App{cfg: cfg, log: log, eng: eng, store: NewMetaStore(engine.Commands)}
}

// Run is the program entry point. It returns the process exit code.
func Run(args []string) int {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 2
	}
	log := logger.NewConsoleLogger(cfg.LogLevel)
	if cfg.Workers > 0 {
		runtime.GOMAXPROCS(cfg.Workers)
	}
	app := NewApp(cfg, log)

	if len(args) > 0 {
		switch args[0] {
		case "apply":
			if err := app.RunBatch(args[1:]); err != nil {
				fmt.Fprintf(os.Stderr, "apply: %v\n", err)
				return 1
			}
			return 0
		case "commands":
			for _, c := range engine.Commands {
				fmt.Printf("%-12s %s\n  %s\n", c.Name, c.Description, c.Usage)
			}
			return 0
		case "version", "-v", "--version":
			fmt.Println(Version)
			return 0
		case "update":
			if err := CheckForUpdates(cfg.UpdateRepo); err != nil {
				fmt.Fprintf(os.Stderr, "update check error: %v\n", err)
				return 1
			}
			return 0
		case "help", "-h", "--help":
			batchUsage(os.Stdout)
			return 0
		}
	}
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	if err := app.RunREPL(path); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return 0
}

// step is one command of a batch pipeline.
type step struct {
	name string
	args []string
}

// splitPipeline splits "cmd a b + cmd2 c" into steps.
func splitPipeline(tokens []string) ([]step, error) {
	var steps []step
	cur := []string{}
	flush := func() error {
		if len(cur) == 0 {
			return fmt.Errorf("empty command in pipeline")
		}
		steps = append(steps, step{name: cur[0], args: cur[1:]})
		cur = []string{}
		return nil
	}
	for _, t := range tokens {
		if t == "+" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		cur = append(cur, t)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return steps, nil
}

// RunBatch loads <in>, applies each command of the pipeline in order and
// writes <out>. Nothing is written when any step fails.
func (a *App) RunBatch(args []string) error {
	if len(args) < 3 {
		batchUsage(os.Stderr)
		return fmt.Errorf("need <in> <out> <command>")
	}
	in, out := args[0], args[1]
	steps, err := splitPipeline(args[2:])
	if err != nil {
		return err
	}
	if err := a.open(in); err != nil {
		return err
	}
	for _, s := range steps {
		if err := a.apply(s.name, s.args); err != nil {
			return err
		}
	}
	return a.save(out)
}

func (a *App) open(path string) error {
	buf, format, err := LoadImage(path)
	if err != nil {
		a.log.Error("cli", err, map[string]interface{}{"path": path})
		return fmt.Errorf("failed to read image %s: %w", path, err)
	}
	a.cur, a.path, a.format = buf, path, format
	a.log.Info("cli", "image loaded", map[string]interface{}{"path": path, "format": format, "size": buf.String()})
	return nil
}

func (a *App) save(path string) error {
	if err := SaveImage(path, a.cur, a.cfg.JPEGQuality); err != nil {
		a.log.Error("cli", err, map[string]interface{}{"path": path})
		return fmt.Errorf("failed to write image: %w", err)
	}
	a.log.Info("cli", "image saved", map[string]interface{}{"path": path})
	return nil
}

func (a *App) apply(name string, rawArgs []string) error {
	if a.cur == nil {
		return fmt.Errorf("no image loaded")
	}
	resolved, err := a.store.Resolve(name)
	if err != nil {
		return err
	}
	normArgs, err := NormalizeArgs(a.store, resolved, rawArgs)
	if err != nil {
		return fmt.Errorf("input validation error: %w", err)
	}
	start := time.Now()
	out, err := a.eng.Apply(a.cur, resolved, normArgs)
	if err != nil {
		a.log.Error("cli", err, map[string]interface{}{"command": resolved})
		return err
	}
	a.cur = out
	a.log.Info("cli", "command applied", map[string]interface{}{"command": resolved, "elapsed": time.Since(start)})
	return nil
}

// channelStats summarizes each channel's range and mean from its histogram.
func channelStats(buf *raster.Buffer) []string {
	lines := make([]string, 0, buf.Channels)
	for c := 0; c < buf.Channels; c++ {
		h, err := raster.ComputeHistogram(buf, c)
		if err != nil {
			continue
		}
		lo, hi, sum := -1, 0, 0
		for v, n := range h {
			if n == 0 {
				continue
			}
			if lo < 0 {
				lo = v
			}
			hi = v
			sum += v * n
		}
		lines = append(lines, fmt.Sprintf("  channel %d: min %d, max %d, mean %.2f", c, lo, hi, float64(sum)/float64(h.Total())))
	}
	return lines
}

func (a *App) showInfo() {
	if info, err := GetImageInfo(a.cur, a.format); err == nil {
		fmt.Println(info)
	}
}

func (a *App) preview() {
	if !a.cfg.Preview || !PreviewSupported() {
		return
	}
	if err := PreviewImage(a.cur); err != nil {
		a.log.Debug("cli", "preview failed", map[string]interface{}{"error": err.Error()})
	}
}

// selectCommand asks for a command with fzf, or from a numbered list when
// fzf is disabled, missing or cancelled.
func (a *App) selectCommand() (string, error) {
	if !a.cfg.NoFzf && fzfAvailable() {
		if name, err := SelectCommandWithFzf(a.store.Commands); err == nil {
			return name, nil
		}
	}
	fmt.Println("Command selection:")
	for i, c := range a.store.Commands {
		fmt.Printf("  %d) %s - %s\n", i+1, c.Name, c.Description)
	}
	selection, err := PromptLine("Enter number or command name (leave empty to cancel): ")
	if err != nil {
		return "", err
	}
	if selection == "" {
		return "", nil
	}
	return a.store.Resolve(selection)
}

// promptArgs asks for each parameter of the command. Empty answers keep the
// default of optional parameters.
func (a *App) promptArgs(c engine.CommandSpec) []string {
	rawArgs := make([]string, len(c.Args))
	useFzf := !a.cfg.NoFzf && fzfAvailable()
	for i, p := range c.Args {
		label := typeLabel(p)
		if p.Default != "" {
			label += ", default " + p.Default
		}
		var val string
		var err error
		if p.Type == "path" {
			val, err = PromptLineOrFzf(fmt.Sprintf("%s (%s) [enter image path, or '/' to use fzf]: ", p.Name, label), useFzf)
		} else {
			val, err = PromptLine(fmt.Sprintf("%s (%s): ", p.Name, label))
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "input error: %v\n", err)
			val = ""
		}
		rawArgs[i] = val
	}
	return rawArgs
}

// RunREPL runs the interactive editor, opening path first when non-empty.
func (a *App) RunREPL(path string) error {
	if path != "" {
		if err := a.open(path); err != nil {
			return err
		}
		a.preview()
		a.showInfo()
	}

	fmt.Println("rasterops image editor")
	usage()

	for {
		line, err := PromptLine("> ")
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return nil
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "read input error: %v\n", err)
			continue
		}
		if line == "" {
			continue
		}

		switch line[0] {
		case '/':
			if a.cur == nil {
				fmt.Println("No image loaded. Press 'o' to open an image first, or provide an image path as the first argument.")
				continue
			}
			name, err := a.selectCommand()
			if err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
				continue
			}
			if name == "" {
				fmt.Println("selection cancelled")
				continue
			}
			c, _ := a.store.Lookup(name)
			tooltip, _, _ := a.store.GetCommandHelp(name)
			fmt.Println("\n" + tooltip + "\n")
			if err := a.apply(name, a.promptArgs(c)); err != nil {
				fmt.Fprintf(os.Stderr, "apply command error: %v\n", err)
				continue
			}
			fmt.Printf("Applied %s\n", name)
			a.preview()
			a.showInfo()

		case 's':
			if a.cur == nil {
				fmt.Println("No image loaded.")
				continue
			}
			out, _ := PromptLine("Enter output filename: ")
			if out == "" {
				fmt.Println("no filename provided")
				continue
			}
			if err := a.save(out); err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
				continue
			}
			fmt.Printf("Saved to %s\n", out)

		case 'o':
			var newPath string
			if !a.cfg.NoFzf && fzfAvailable() {
				newPath, _ = SelectFileWithFzf(".")
			}
			if newPath == "" {
				newPath, _ = PromptLine("Enter path to image to open (leave empty to cancel): ")
				if newPath == "" {
					fmt.Println("open cancelled")
					continue
				}
			}
			if err := a.open(newPath); err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
				continue
			}
			fmt.Printf("Opened %s\n", newPath)
			a.preview()
			a.showInfo()

		case 'i':
			if a.cur == nil {
				fmt.Println("No image loaded.")
				continue
			}
			a.showInfo()
			for _, l := range channelStats(a.cur) {
				fmt.Println(l)
			}

		case 'u':
			if err := CheckForUpdates(a.cfg.UpdateRepo); err != nil {
				fmt.Fprintf(os.Stderr, "update check error: %v\n", err)
			}

		case 'h':
			usage()

		case 'q':
			fmt.Println("Exiting...")
			return nil

		default:
			fmt.Printf("unknown key %q, press h for help\n", strings.TrimSpace(line))
		}
	}
}
