package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Fepozopo/rasterops/pkg/logger"
	"github.com/Fepozopo/rasterops/pkg/raster"
)

var (
	// ErrUnknownCommand is returned for names missing from Commands.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrArgCount is returned when too few or too many arguments are given.
	ErrArgCount = errors.New("wrong number of arguments")
	// ErrUnavailable is returned when a command needs a collaborator
	// (loader or resizer) that the Engine was built without.
	ErrUnavailable = errors.New("command unavailable")
)

// LoadFunc decodes the image file at path.
type LoadFunc func(path string) (*raster.Buffer, error)

// ResizeFunc resamples buf to w x h.
type ResizeFunc func(buf *raster.Buffer, w, h int) (*raster.Buffer, error)

// Engine applies named commands to raster buffers.
type Engine struct {
	log    logger.Logger
	load   LoadFunc
	resize ResizeFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithLoader enables the commands that read a second image.
func WithLoader(fn LoadFunc) Option {
	return func(e *Engine) { e.load = fn }
}

// WithResizer enables resize and scale, and lets two-image commands match sizes.
func WithResizer(fn ResizeFunc) Option {
	return func(e *Engine) { e.resize = fn }
}

// New returns an Engine configured by opts.
func New(opts ...Option) *Engine {
	e := &Engine{log: logger.Nop()}
	for _, o := range opts {
		o(e)
	}
	return e
}

type handler func(e *Engine, buf *raster.Buffer, a args) (*raster.Buffer, error)

var handlers = map[string]handler{
	"convert":     applyConvert,
	"grayscale":   applyGrayscale,
	"threshold":   applyThreshold,
	"erode":       morph(raster.Erode),
	"dilate":      morph(raster.Dilate),
	"open":        morph(raster.Open),
	"close":       morph(raster.Close),
	"mean":        applyMean,
	"gaussian":    applyGaussian,
	"median":      applyMedian,
	"bilateral":   applyBilateral,
	"sobel":       applySobel,
	"laplacian":   applyLaplacian,
	"sharpen":     applySharpen,
	"canny":       applyCanny,
	"rotate":      applyRotate,
	"translate":   applyTranslate,
	"perspective": applyPerspective,
	"resize":      applyResize,
	"scale":       applyScale,
	"histogram":   applyHistogram,
	"equalize":    applyEqualize,
	"normalize":   applyNormalize,
	"colorize":    applyColorize,
	"brighten":    applyBrighten,
	"channel":     applyChannel,
	"shuffle":     applyShuffle,
	"add":         pair(raster.Add),
	"subtract":    pair(raster.Subtract),
	"blend":       applyBlend,
}

// Apply runs the command name on buf with textual args and returns a new
// buffer. Omitted optional arguments take their registered defaults.
func (e *Engine) Apply(buf *raster.Buffer, name string, rawArgs []string) (*raster.Buffer, error) {
	if buf == nil {
		return nil, fmt.Errorf("source image is nil")
	}
	spec, ok := Lookup(name)
	h := handlers[name]
	if !ok || h == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	a, err := bindArgs(spec, rawArgs)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	out, err := h(e, buf, a)
	if err != nil {
		e.log.Debug("engine", "command failed", map[string]interface{}{
			"command": name,
			"args":    strings.Join(rawArgs, " "),
			"error":   err.Error(),
		})
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	e.log.Debug("engine", "command applied", map[string]interface{}{
		"command":  name,
		"args":     strings.Join(rawArgs, " "),
		"input":    buf.String(),
		"output":   out.String(),
		"duration": time.Since(start),
	})
	return out, nil
}

// args holds the bound textual arguments of one call, defaults filled in.
type args struct {
	spec CommandSpec
	vals []string
}

func bindArgs(spec CommandSpec, raw []string) (args, error) {
	if len(raw) > len(spec.Args) {
		return args{}, fmt.Errorf("%w: %s takes at most %d, got %d (usage: %s)", ErrArgCount, spec.Name, len(spec.Args), len(raw), spec.Usage)
	}
	vals := make([]string, len(spec.Args))
	for i, as := range spec.Args {
		v := ""
		if i < len(raw) {
			v = strings.TrimSpace(raw[i])
		}
		if v == "" {
			if as.Required {
				return args{}, fmt.Errorf("%w: %s requires %s (usage: %s)", ErrArgCount, spec.Name, as.Name, spec.Usage)
			}
			v = as.Default
		}
		vals[i] = v
	}
	return args{spec: spec, vals: vals}, nil
}

func (a args) strAt(i int) string { return a.vals[i] }

func (a args) intAt(i int) (int, error) {
	v, err := strconv.Atoi(a.vals[i])
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", a.spec.Args[i].Name, err)
	}
	return v, nil
}

func (a args) floatAt(i int) (float64, error) {
	v, err := strconv.ParseFloat(a.vals[i], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", a.spec.Args[i].Name, err)
	}
	return v, nil
}

// ints parses every argument as an int.
func (a args) ints() ([]int, error) {
	out := make([]int, len(a.vals))
	for i := range a.vals {
		v, err := a.intAt(i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (a args) enumAt(i int) (string, error) {
	v := strings.ToLower(a.vals[i])
	for _, o := range a.spec.Args[i].Options {
		if v == o {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid %s %q (want one of %s)", a.spec.Args[i].Name, a.vals[i], strings.Join(a.spec.Args[i].Options, ", "))
}

func (a args) interpAt(i int) (raster.Interpolation, error) {
	v, err := a.enumAt(i)
	if err != nil {
		return 0, err
	}
	if v == "bilinear" {
		return raster.Bilinear, nil
	}
	return raster.Nearest, nil
}

func applyConvert(_ *Engine, buf *raster.Buffer, a args) (*raster.Buffer, error) {
	from, err := raster.ParseSpace(a.strAt(0))
	if err != nil {
		return nil, fmt.Errorf("invalid from: %w", err)
	}
	to, err := raster.ParseSpace(a.strAt(1))
	if err != nil {
		return nil, fmt.Errorf("invalid to: %w", err)
	}
	return raster.Convert(buf, from, to)
}

func applyGrayscale(_ *Engine, buf *raster.Buffer, _ args) (*raster.Buffer, error) {
	if buf.Channels == 1 {
		return buf.Clone(), nil
	}
	return raster.Convert(buf, raster.BGR, raster.Gray)
}

func applyThreshold(_ *Engine, buf *raster.Buffer, a args) (*raster.Buffer, error) {
	v, err := a.ints()
	if err != nil {
		return nil, err
	}
	return raster.Threshold(buf, v[0], v[1])
}

func morph(op func(*raster.Buffer, *raster.StructuringElement, int) (*raster.Buffer, error)) handler {
	return func(_ *Engine, buf *raster.Buffer, a args) (*raster.Buffer, error) {
		size, err := a.intAt(0)
		if err != nil {
			return nil, err
		}
		iterations, err := a.intAt(1)
		if err != nil {
			return nil, err
		}
		shape, err := a.enumAt(2)
		if err != nil {
			return nil, err
		}
		var se *raster.StructuringElement
		switch shape {
		case "rect":
			se, err = raster.NewRect(size, size)
		case "cross":
			se, err = raster.NewCross(size, size)
		default:
			se, err = raster.NewEllipse(size, size)
		}
		if err != nil {
			return nil, err
		}
		return op(buf, se, iterations)
	}
}

func applyMean(_ *Engine, buf *raster.Buffer, a args) (*raster.Buffer, error) {
	k, err := a.intAt(0)
	if err != nil {
		return nil, err
	}
	return raster.Mean(buf, k)
}

func applyGaussian(_ *Engine, buf *raster.Buffer, a args) (*raster.Buffer, error) {
	k, err := a.intAt(0)
	if err != nil {
		return nil, err
	}
	sigma, err := a.floatAt(1)
	if err != nil {
		return nil, err
	}
	return raster.Gaussian(buf, k, sigma)
}

func applyMedian(_ *Engine, buf *raster.Buffer, a args) (*raster.Buffer, error) {
	k, err := a.intAt(0)
	if err != nil {
		return nil, err
	}
	return raster.Median(buf, k)
}

func applyBilateral(_ *Engine, buf *raster.Buffer, a args) (*raster.Buffer, error) {
	k, err := a.intAt(0)
	if err != nil {
		return nil, err
	}
	sigmaColor, err := a.floatAt(1)
	if err != nil {
		return nil, err
	}
	sigmaSpace, err := a.floatAt(2)
	if err != nil {
		return nil, err
	}
	return raster.Bilateral(buf, k, sigmaColor, sigmaSpace)
}

func applySobel(_ *Engine, buf *raster.Buffer, a args) (*raster.Buffer, error) {
	v, err := a.ints()
	if err != nil {
		return nil, err
	}
	return raster.Sobel(buf, v[0], v[1], v[2])
}

func applyLaplacian(_ *Engine, buf *raster.Buffer, a args) (*raster.Buffer, error) {
	k, err := a.intAt(0)
	if err != nil {
		return nil, err
	}
	return raster.Laplacian(buf, k)
}

func applySharpen(_ *Engine, buf *raster.Buffer, _ args) (*raster.Buffer, error) {
	return raster.Sharpen(buf)
}

func applyCanny(_ *Engine, buf *raster.Buffer, a args) (*raster.Buffer, error) {
	low, err := a.floatAt(0)
	if err != nil {
		return nil, err
	}
	high, err := a.floatAt(1)
	if err != nil {
		return nil, err
	}
	return raster.Canny(buf, low, high)
}

func applyRotate(_ *Engine, buf *raster.Buffer, a args) (*raster.Buffer, error) {
	deg, err := a.floatAt(0)
	if err != nil {
		return nil, err
	}
	scale, err := a.floatAt(1)
	if err != nil {
		return nil, err
	}
	interp, err := a.interpAt(2)
	if err != nil {
		return nil, err
	}
	m := raster.RotationMatrix(float64(buf.Width)/2, float64(buf.Height)/2, deg, scale)
	return raster.WarpAffine(buf, m, raster.Size{W: buf.Width, H: buf.Height}, interp)
}

func applyTranslate(_ *Engine, buf *raster.Buffer, a args) (*raster.Buffer, error) {
	tx, err := a.floatAt(0)
	if err != nil {
		return nil, err
	}
	ty, err := a.floatAt(1)
	if err != nil {
		return nil, err
	}
	return raster.WarpAffine(buf, raster.TranslationMatrix(tx, ty), raster.Size{W: buf.Width, H: buf.Height}, raster.Nearest)
}

func applyPerspective(_ *Engine, buf *raster.Buffer, a args) (*raster.Buffer, error) {
	var src [4]raster.Point
	for i := range src {
		x, err := a.floatAt(2 * i)
		if err != nil {
			return nil, err
		}
		y, err := a.floatAt(2*i + 1)
		if err != nil {
			return nil, err
		}
		src[i] = raster.Point{X: x, Y: y}
	}
	w, err := a.intAt(8)
	if err != nil {
		return nil, err
	}
	h, err := a.intAt(9)
	if err != nil {
		return nil, err
	}
	interp, err := a.interpAt(10)
	if err != nil {
		return nil, err
	}
	fw, fh := float64(w), float64(h)
	dst := [4]raster.Point{{X: 0, Y: 0}, {X: fw, Y: 0}, {X: 0, Y: fh}, {X: fw, Y: fh}}
	hm, err := raster.PerspectiveTransform(src, dst)
	if err != nil {
		return nil, err
	}
	return raster.WarpPerspective(buf, hm, raster.Size{W: w, H: h}, interp)
}

func (e *Engine) resizeTo(buf *raster.Buffer, w, h int) (*raster.Buffer, error) {
	if e.resize == nil {
		return nil, fmt.Errorf("%w: no resizer configured", ErrUnavailable)
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("resize to %dx%d: %w", w, h, raster.ErrInvalidParameter)
	}
	return e.resize(buf, w, h)
}

func applyResize(e *Engine, buf *raster.Buffer, a args) (*raster.Buffer, error) {
	v, err := a.ints()
	if err != nil {
		return nil, err
	}
	return e.resizeTo(buf, v[0], v[1])
}

func applyScale(e *Engine, buf *raster.Buffer, a args) (*raster.Buffer, error) {
	fx, err := a.floatAt(0)
	if err != nil {
		return nil, err
	}
	fy := fx
	if a.strAt(1) != "" {
		if fy, err = a.floatAt(1); err != nil {
			return nil, err
		}
	}
	w := int(float64(buf.Width)*fx + 0.5)
	h := int(float64(buf.Height)*fy + 0.5)
	return e.resizeTo(buf, w, h)
}

func applyHistogram(_ *Engine, buf *raster.Buffer, a args) (*raster.Buffer, error) {
	v, err := a.ints()
	if err != nil {
		return nil, err
	}
	hists := make([]raster.Histogram, buf.Channels)
	for c := range hists {
		if hists[c], err = raster.ComputeHistogram(buf, c); err != nil {
			return nil, err
		}
	}
	return raster.RenderHistogram(hists, v[0], v[1])
}

func applyEqualize(_ *Engine, buf *raster.Buffer, _ args) (*raster.Buffer, error) {
	return raster.Equalize(buf)
}

func applyNormalize(_ *Engine, buf *raster.Buffer, a args) (*raster.Buffer, error) {
	v, err := a.ints()
	if err != nil {
		return nil, err
	}
	return raster.NormalizeMinMax(buf, v[0], v[1])
}

// applyColorize equalizes the luminance and uses it as V, a min-max stretch
// of it as S and a constant H, then converts HSV back to BGR.
func applyColorize(_ *Engine, buf *raster.Buffer, a args) (*raster.Buffer, error) {
	v, err := a.ints()
	if err != nil {
		return nil, err
	}
	hue, sMin, sMax := v[0], v[1], v[2]
	if hue < 0 || hue > 179 {
		return nil, fmt.Errorf("hue %d (want 0-179): %w", hue, raster.ErrInvalidParameter)
	}
	gray := buf
	if buf.Channels == 3 {
		if gray, err = raster.Convert(buf, raster.BGR, raster.Gray); err != nil {
			return nil, err
		}
	}
	eq, err := raster.Equalize(gray)
	if err != nil {
		return nil, err
	}
	h, err := raster.NewFilled(eq.Width, eq.Height, 1, uint8(hue))
	if err != nil {
		return nil, err
	}
	s, err := raster.NormalizeMinMax(eq, sMin, sMax)
	if err != nil {
		return nil, err
	}
	hsv, err := raster.Merge([]*raster.Buffer{h, s, eq})
	if err != nil {
		return nil, err
	}
	return raster.Convert(hsv, raster.HSV, raster.BGR)
}

func applyBrighten(_ *Engine, buf *raster.Buffer, a args) (*raster.Buffer, error) {
	k, err := a.intAt(0)
	if err != nil {
		return nil, err
	}
	return raster.AddScalar(buf, k), nil
}

func applyChannel(_ *Engine, buf *raster.Buffer, a args) (*raster.Buffer, error) {
	idx, err := a.intAt(0)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= buf.Channels {
		return nil, fmt.Errorf("channel %d of %d: %w", idx, buf.Channels, raster.ErrInvalidParameter)
	}
	return raster.Split(buf)[idx], nil
}

func applyShuffle(_ *Engine, buf *raster.Buffer, a args) (*raster.Buffer, error) {
	order, err := a.ints()
	if err != nil {
		return nil, err
	}
	planes := raster.Split(buf)
	picked := make([]*raster.Buffer, len(order))
	for i, c := range order {
		if c < 0 || c >= len(planes) {
			return nil, fmt.Errorf("channel %d of %d: %w", c, len(planes), raster.ErrInvalidParameter)
		}
		picked[i] = planes[c]
	}
	return raster.Merge(picked)
}

// second loads the image at path and conforms it to buf: same size (via the
// resizer) and same channel count.
func (e *Engine) second(buf *raster.Buffer, path string) (*raster.Buffer, error) {
	if e.load == nil {
		return nil, fmt.Errorf("%w: no loader configured", ErrUnavailable)
	}
	other, err := e.load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if other.Width != buf.Width || other.Height != buf.Height {
		if other, err = e.resizeTo(other, buf.Width, buf.Height); err != nil {
			return nil, err
		}
	}
	switch {
	case other.Channels == buf.Channels:
	case buf.Channels == 1:
		return raster.Convert(other, raster.BGR, raster.Gray)
	default:
		return raster.Convert(other, raster.Gray, raster.BGR)
	}
	return other, nil
}

func pair(op func(a, b *raster.Buffer) (*raster.Buffer, error)) handler {
	return func(e *Engine, buf *raster.Buffer, a args) (*raster.Buffer, error) {
		other, err := e.second(buf, a.strAt(0))
		if err != nil {
			return nil, err
		}
		return op(buf, other)
	}
}

func applyBlend(e *Engine, buf *raster.Buffer, a args) (*raster.Buffer, error) {
	other, err := e.second(buf, a.strAt(0))
	if err != nil {
		return nil, err
	}
	alpha, err := a.floatAt(1)
	if err != nil {
		return nil, err
	}
	beta, err := a.floatAt(2)
	if err != nil {
		return nil, err
	}
	gamma, err := a.floatAt(3)
	if err != nil {
		return nil, err
	}
	return raster.Blend(buf, other, alpha, beta, gamma)
}
