package receipt

import (
	"math"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Theme holds the CSS colours of a receipt. Values may use any CSS colour
// syntax; SanitizeTheme reduces them to sRGB hex.
type Theme struct {
	Text       string `json:"text"`
	Background string `json:"background"`
	Muted      string `json:"muted"`
	Border     string `json:"border"`
}

func DefaultTheme() Theme {
	return Theme{
		Text:       "#000000",
		Background: "#ffffff",
		Muted:      "#f3f4f6",
		Border:     "#cccccc",
	}
}

// SanitizeTheme converts every colour to a "#rrggbb" value the PDF writer
// understands. Colours outside sRGB are clamped; unreadable colours fall
// back to the default for their role.
func SanitizeTheme(t Theme) Theme {
	d := DefaultTheme()
	return Theme{
		Text:       SanitizeColor(t.Text, d.Text),
		Background: SanitizeColor(t.Background, d.Background),
		Muted:      SanitizeColor(t.Muted, d.Muted),
		Border:     SanitizeColor(t.Border, d.Border),
	}
}

// SanitizeColor returns value as sRGB hex, or fallback when it cannot be read.
func SanitizeColor(value, fallback string) string {
	c, ok := parseColor(value)
	if !ok {
		return fallback
	}
	return c.Clamped().Hex()
}

var named = map[string]string{
	"black": "#000000",
	"white": "#ffffff",
	"gray":  "#808080",
	"grey":  "#808080",
	"red":   "#ff0000",
	"green": "#008000",
	"blue":  "#0000ff",
}

func parseColor(value string) (colorful.Color, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return colorful.Color{}, false
	}
	if hex, ok := named[v]; ok {
		v = hex
	}
	if strings.HasPrefix(v, "#") {
		return parseHex(v)
	}

	name, args, ok := splitFunc(v)
	if !ok {
		return colorful.Color{}, false
	}
	switch name {
	case "rgb", "rgba":
		r, ok1 := channel(args[0], 255)
		g, ok2 := channel(args[1], 255)
		b, ok3 := channel(args[2], 255)
		if !(ok1 && ok2 && ok3) {
			return colorful.Color{}, false
		}
		return colorful.Color{R: r / 255, G: g / 255, B: b / 255}, true
	case "oklch":
		l, ok1 := channel(args[0], 1)
		c, ok2 := channel(args[1], 0.4)
		h, ok3 := hue(args[2])
		if !(ok1 && ok2 && ok3) {
			return colorful.Color{}, false
		}
		return colorful.OkLch(l, c, h), true
	case "oklab":
		l, ok1 := channel(args[0], 1)
		a, ok2 := channel(args[1], 0.4)
		b, ok3 := channel(args[2], 0.4)
		if !(ok1 && ok2 && ok3) {
			return colorful.Color{}, false
		}
		return colorful.OkLab(l, a, b), true
	case "lab":
		l, ok1 := channel(args[0], 100)
		a, ok2 := channel(args[1], 125)
		b, ok3 := channel(args[2], 125)
		if !(ok1 && ok2 && ok3) {
			return colorful.Color{}, false
		}
		return colorful.LabWhiteRef(l/100, a/100, b/100, colorful.D50), true
	case "lch":
		l, ok1 := channel(args[0], 100)
		c, ok2 := channel(args[1], 150)
		h, ok3 := hue(args[2])
		if !(ok1 && ok2 && ok3) {
			return colorful.Color{}, false
		}
		return colorful.HclWhiteRef(h, c/100, l/100, colorful.D50), true
	}
	return colorful.Color{}, false
}

func parseHex(v string) (colorful.Color, bool) {
	switch len(v) {
	case 5: // #rgba
		v = v[:4]
	case 9: // #rrggbbaa
		v = v[:7]
	}
	c, err := colorful.Hex(v)
	if err != nil {
		return colorful.Color{}, false
	}
	return c, true
}

// splitFunc splits "name(a b c / alpha)" or "name(a, b, c, alpha)" into the
// function name and its first three arguments.
func splitFunc(v string) (string, []string, bool) {
	open := strings.IndexByte(v, '(')
	if open <= 0 || !strings.HasSuffix(v, ")") {
		return "", nil, false
	}
	name := strings.TrimSpace(v[:open])
	body := v[open+1 : len(v)-1]
	if i := strings.IndexByte(body, '/'); i >= 0 {
		body = body[:i]
	}
	args := strings.FieldsFunc(body, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(args) < 3 {
		return "", nil, false
	}
	return name, args[:3], true
}

// channel parses a number or percentage; a percentage is relative to full.
func channel(s string, full float64) (float64, bool) {
	if s == "none" {
		return 0, true
	}
	if strings.HasSuffix(s, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f / 100 * full, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func hue(s string) (float64, bool) {
	s = strings.TrimSuffix(s, "deg")
	h, ok := channel(s, 360)
	if !ok {
		return 0, false
	}
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h, true
}
