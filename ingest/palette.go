package ingest

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/TFMV/hapviz/models"
)

// Palette holds the non-cluster colors of a visualization
type Palette struct {
	Background string
	Fallback   string // used where a cluster hue cannot be drawn
	Text       string
}

// DefaultPalette returns the light palette
func DefaultPalette() *Palette {
	return &Palette{
		Background: "#ffffff",
		Fallback:   "#808080",
		Text:       "#333333",
	}
}

// DarkPalette returns a palette for dark backgrounds
func DarkPalette() *Palette {
	return &Palette{
		Background: "#212121",
		Fallback:   "#9e9e9e",
		Text:       "#eeeeee",
	}
}

// ColorHSL maps a cluster id to a CSS color, using the id as hue degrees.
// Ids outside [0,360) are not normalized.
func ColorHSL(id float64) string {
	return "hsl(" + strconv.FormatFloat(id, 'f', -1, 64) + ",100%,50%)"
}

// Hue reads a cluster id the way a browser coerces a string to a number:
// blank is 0, 0x/0o/0b prefixes are integers, "Infinity" is signed infinity,
// anything else that is not a decimal literal is NaN.
func Hue(clusterID string) float64 {
	s := strings.TrimSpace(clusterID)
	if s == "" {
		return 0
	}

	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			digits := s[2:]
			if strings.ContainsRune(digits, '_') {
				return math.NaN()
			}
			v, err := strconv.ParseUint(digits, base, 64)
			if err != nil {
				if errors.Is(err, strconv.ErrRange) {
					// Too wide for uint64; accumulate as float like the browser does.
					return bigInt(digits, base)
				}
				return math.NaN()
			}
			return float64(v)
		}
	}

	if !decimal(s) {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return v
}

// decimal reports whether s only holds characters of a signed decimal literal
// with optional exponent. ParseFloat validates the shape; this rejects the
// inf/nan words, hex floats and underscores it would otherwise accept.
func decimal(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c == '.', c == '+', c == '-', c == 'e', c == 'E':
		default:
			return false
		}
	}
	return true
}

func bigInt(digits string, base int) float64 {
	v := 0.0
	for _, c := range digits {
		d, err := strconv.ParseUint(string(c), base, 8)
		if err != nil {
			return math.NaN()
		}
		v = v*float64(base) + float64(d)
	}
	return v
}

// ClusterHue returns the hue for a row. A row without a clusterId field gets
// NaN; an empty cell counts as 0.
func ClusterHue(row models.Row) float64 {
	if row.ClusterID == "" && !row.ClusterIDSet {
		return math.NaN()
	}
	return Hue(row.ClusterID)
}
