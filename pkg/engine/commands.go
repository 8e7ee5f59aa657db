// Package engine: registry of the commands that Apply understands.
//
// Every entry here has a handler in engine.go. The CLI reads this list for
// help text, fzf menus and argument validation, so keep the two in sync.

package engine

// ArgSpec describes a single positional argument of a command.
type ArgSpec struct {
	Name        string // human name
	Type        string // "int", "float", "enum" or "path"
	Required    bool
	Default     string   // used when an optional argument is omitted
	Options     []string // accepted values when Type is "enum"
	Description string
}

// CommandSpec defines a single command and its expected arguments.
type CommandSpec struct {
	Name        string
	Args        []ArgSpec
	Usage       string // short usage string
	Description string // brief description
}

func req(name, typ, desc string) ArgSpec {
	return ArgSpec{Name: name, Type: typ, Required: true, Description: desc}
}

func opt(name, typ, def, desc string) ArgSpec {
	return ArgSpec{Name: name, Type: typ, Default: def, Description: desc}
}

func enum(name, def string, options []string, desc string) ArgSpec {
	return ArgSpec{Name: name, Type: "enum", Required: def == "", Default: def, Options: options, Description: desc}
}

var (
	spaceNames  = []string{"gray", "bgr", "rgb", "hsv"}
	shapeNames  = []string{"ellipse", "rect", "cross"}
	interpNames = []string{"nearest", "bilinear"}
)

func morphArgs() []ArgSpec {
	return []ArgSpec{
		req("size", "int", "structuring element width and height (odd)"),
		opt("iterations", "int", "1", "number of passes"),
		enum("shape", "ellipse", shapeNames, "structuring element shape"),
	}
}

// Commands is the authoritative list of commands implemented by Engine.Apply.
var Commands = []CommandSpec{
	{
		Name:        "convert",
		Args:        []ArgSpec{enum("from", "", spaceNames, "source color space"), enum("to", "", spaceNames, "target color space")},
		Usage:       "convert <from> <to>",
		Description: "Convert between gray, BGR, RGB and HSV.",
	},
	{
		Name:        "grayscale",
		Args:        []ArgSpec{},
		Usage:       "grayscale",
		Description: "Convert a BGR image to one luminance channel.",
	},
	{
		Name:        "threshold",
		Args:        []ArgSpec{req("limit", "int", "samples above this become maxValue"), opt("maxValue", "int", "255", "value for samples above limit")},
		Usage:       "threshold <limit> [maxValue]",
		Description: "Binary threshold of a single-channel image.",
	},
	{
		Name:        "erode",
		Args:        morphArgs(),
		Usage:       "erode <size> [iterations] [shape]",
		Description: "Minimum over the structuring element; outside pixels count as 0.",
	},
	{
		Name:        "dilate",
		Args:        morphArgs(),
		Usage:       "dilate <size> [iterations] [shape]",
		Description: "Maximum over the structuring element.",
	},
	{
		Name:        "open",
		Args:        morphArgs(),
		Usage:       "open <size> [iterations] [shape]",
		Description: "Erosion followed by dilation; removes small bright specks.",
	},
	{
		Name:        "close",
		Args:        morphArgs(),
		Usage:       "close <size> [iterations] [shape]",
		Description: "Dilation followed by erosion; fills small dark holes.",
	},
	{
		Name:        "mean",
		Args:        []ArgSpec{req("ksize", "int", "odd window size")},
		Usage:       "mean <ksize>",
		Description: "Box (average) filter.",
	},
	{
		Name:        "gaussian",
		Args:        []ArgSpec{req("ksize", "int", "odd window size"), opt("sigma", "float", "0", "standard deviation; 0 derives it from ksize")},
		Usage:       "gaussian <ksize> [sigma]",
		Description: "Separable Gaussian blur.",
	},
	{
		Name:        "median",
		Args:        []ArgSpec{req("ksize", "int", "odd window size")},
		Usage:       "median <ksize>",
		Description: "Per-channel median filter.",
	},
	{
		Name:        "bilateral",
		Args:        []ArgSpec{opt("ksize", "int", "9", "odd window size"), opt("sigmaColor", "float", "75", "range sigma"), opt("sigmaSpace", "float", "75", "spatial sigma")},
		Usage:       "bilateral [ksize] [sigmaColor] [sigmaSpace]",
		Description: "Edge-preserving bilateral filter.",
	},
	{
		Name:        "sobel",
		Args:        []ArgSpec{req("dx", "int", "x derivative order (0 or 1)"), req("dy", "int", "y derivative order (0 or 1)"), opt("ksize", "int", "3", "aperture: 1, 3, 5 or 7")},
		Usage:       "sobel <dx> <dy> [ksize]",
		Description: "Absolute Sobel derivative.",
	},
	{
		Name:        "laplacian",
		Args:        []ArgSpec{opt("ksize", "int", "1", "aperture: 1, 3, 5 or 7")},
		Usage:       "laplacian [ksize]",
		Description: "Absolute Laplacian.",
	},
	{
		Name:        "sharpen",
		Args:        []ArgSpec{},
		Usage:       "sharpen",
		Description: "Subtract the Laplacian response from the image.",
	},
	{
		Name:        "canny",
		Args:        []ArgSpec{req("low", "float", "hysteresis low threshold"), req("high", "float", "hysteresis high threshold")},
		Usage:       "canny <low> <high>",
		Description: "Canny edge map (0/255, one channel).",
	},
	{
		Name:        "rotate",
		Args:        []ArgSpec{req("degrees", "float", "counter-clockwise angle"), opt("scale", "float", "1", "isotropic scale"), enum("interp", "nearest", interpNames, "sampling")},
		Usage:       "rotate <degrees> [scale] [interp]",
		Description: "Rotate about the image center, keeping the canvas size.",
	},
	{
		Name:        "translate",
		Args:        []ArgSpec{req("tx", "float", "shift right"), req("ty", "float", "shift down")},
		Usage:       "translate <tx> <ty>",
		Description: "Shift the image; uncovered pixels become 0.",
	},
	{
		Name: "perspective",
		Args: []ArgSpec{
			req("x0", "float", "top-left x"), req("y0", "float", "top-left y"),
			req("x1", "float", "top-right x"), req("y1", "float", "top-right y"),
			req("x2", "float", "bottom-left x"), req("y2", "float", "bottom-left y"),
			req("x3", "float", "bottom-right x"), req("y3", "float", "bottom-right y"),
			req("width", "int", "output width"), req("height", "int", "output height"),
			enum("interp", "nearest", interpNames, "sampling"),
		},
		Usage:       "perspective <x0> <y0> <x1> <y1> <x2> <y2> <x3> <y3> <width> <height> [interp]",
		Description: "Map a source quadrilateral onto a width x height rectangle.",
	},
	{
		Name:        "resize",
		Args:        []ArgSpec{req("width", "int", "output width"), req("height", "int", "output height")},
		Usage:       "resize <width> <height>",
		Description: "Resize with Catmull-Rom (cubic) resampling.",
	},
	{
		Name:        "scale",
		Args:        []ArgSpec{req("fx", "float", "horizontal factor"), opt("fy", "float", "", "vertical factor (defaults to fx)")},
		Usage:       "scale <fx> [fy]",
		Description: "Resize by factors with cubic resampling.",
	},
	{
		Name:        "histogram",
		Args:        []ArgSpec{opt("width", "int", "512", "plot width"), opt("height", "int", "400", "plot height")},
		Usage:       "histogram [width] [height]",
		Description: "Replace the image with a plot of its per-channel histograms.",
	},
	{
		Name:        "equalize",
		Args:        []ArgSpec{},
		Usage:       "equalize",
		Description: "Histogram equalization of a single-channel image.",
	},
	{
		Name:        "normalize",
		Args:        []ArgSpec{opt("low", "int", "0", "new minimum"), opt("high", "int", "255", "new maximum")},
		Usage:       "normalize [low] [high]",
		Description: "Stretch the sample range linearly to [low, high].",
	},
	{
		Name:        "colorize",
		Args:        []ArgSpec{req("hue", "int", "constant hue, 0-179 (degrees/2)"), opt("sMin", "int", "100", "saturation of the darkest pixels"), opt("sMax", "int", "255", "saturation of the brightest pixels")},
		Usage:       "colorize <hue> [sMin] [sMax]",
		Description: "Tint an equalized gray image: constant hue, saturation stretched to [sMin, sMax], value from the equalized image.",
	},
	{
		Name:        "brighten",
		Args:        []ArgSpec{req("amount", "int", "value added to every sample; negative darkens")},
		Usage:       "brighten <amount>",
		Description: "Saturating scalar addition.",
	},
	{
		Name:        "channel",
		Args:        []ArgSpec{req("index", "int", "channel to extract")},
		Usage:       "channel <index>",
		Description: "Extract one channel as a gray image.",
	},
	{
		Name:        "shuffle",
		Args:        []ArgSpec{req("c0", "int", "source of channel 0"), req("c1", "int", "source of channel 1"), req("c2", "int", "source of channel 2")},
		Usage:       "shuffle <c0> <c1> <c2>",
		Description: "Reorder or duplicate channels by splitting and merging.",
	},
	{
		Name:        "add",
		Args:        []ArgSpec{req("path", "path", "image to add")},
		Usage:       "add <path>",
		Description: "Saturating sum with another image (resized to match).",
	},
	{
		Name:        "subtract",
		Args:        []ArgSpec{req("path", "path", "image to subtract")},
		Usage:       "subtract <path>",
		Description: "Saturating difference with another image (resized to match).",
	},
	{
		Name:        "blend",
		Args:        []ArgSpec{req("path", "path", "second image"), opt("alpha", "float", "0.5", "weight of this image"), opt("beta", "float", "0.5", "weight of the second image"), opt("gamma", "float", "0", "added offset")},
		Usage:       "blend <path> [alpha] [beta] [gamma]",
		Description: "Weighted sum alpha*a + beta*b + gamma.",
	},
}

// Lookup returns the spec registered under name.
func Lookup(name string) (CommandSpec, bool) {
	for _, c := range Commands {
		if c.Name == name {
			return c, true
		}
	}
	return CommandSpec{}, false
}
