package htmldom

import (
	"strconv"
	"strings"
)

var namedColors = map[string][3]int{
	"black": {0, 0, 0}, "white": {255, 255, 255}, "red": {255, 0, 0}, "green": {0, 128, 0},
	"blue": {0, 0, 255}, "yellow": {255, 255, 0}, "cyan": {0, 255, 255}, "aqua": {0, 255, 255},
	"magenta": {255, 0, 255}, "fuchsia": {255, 0, 255}, "gray": {128, 128, 128}, "grey": {128, 128, 128},
	"silver": {192, 192, 192}, "maroon": {128, 0, 0}, "olive": {128, 128, 0}, "lime": {0, 255, 0},
	"navy": {0, 0, 128}, "purple": {128, 0, 128}, "teal": {0, 128, 128}, "orange": {255, 165, 0},
	"lightgray": {211, 211, 211}, "lightgrey": {211, 211, 211}, "darkgray": {169, 169, 169},
}

// ParseColor parses #rgb, #rrggbb, rgb(r, g, b) and the basic colour
// names.
func ParseColor(s string) (r, g, b int, ok bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, found := namedColors[s]; found {
		return c[0], c[1], c[2], true
	}
	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) != 6 {
			return 0, 0, 0, false
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return 0, 0, 0, false
		}
		return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF), true
	}
	if inner, found := strings.CutPrefix(s, "rgb("); found {
		parts := strings.Split(strings.TrimSuffix(inner, ")"), ",")
		if len(parts) != 3 {
			return 0, 0, 0, false
		}
		var c [3]int
		for i, p := range parts {
			p = strings.TrimSpace(p)
			if pct, isPct := strings.CutSuffix(p, "%"); isPct {
				f, err := strconv.ParseFloat(pct, 64)
				if err != nil {
					return 0, 0, 0, false
				}
				c[i] = int(f * 255 / 100)
				continue
			}
			n, err := strconv.Atoi(p)
			if err != nil {
				return 0, 0, 0, false
			}
			c[i] = min(max(n, 0), 255)
		}
		return c[0], c[1], c[2], true
	}
	return 0, 0, 0, false
}

var keywordSizes = map[string]float64{
	"xx-small": 0.6, "x-small": 0.75, "small": 0.89, "medium": 1,
	"large": 1.2, "x-large": 1.5, "xx-large": 2, "xxx-large": 3,
}

// FontSize resolves a CSS font size to points given the inherited size.
func FontSize(v string, base float64) (float64, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if f, ok := keywordSizes[v]; ok {
		return base * f, true
	}
	switch v {
	case "smaller":
		return base / 1.2, true
	case "larger":
		return base * 1.2, true
	}
	return Length(v, base, base)
}

// Length resolves a CSS length to points. Percentages are relative to
// ref, em to the font size em.
func Length(v string, ref, em float64) (float64, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	units := []struct {
		suffix string
		scale  float64
	}{
		{"pt", 1}, {"px", 0.75}, {"mm", 72 / 25.4}, {"cm", 72 / 2.54}, {"in", 72},
		{"em", em}, {"%", ref / 100},
	}
	for _, u := range units {
		if num, ok := strings.CutSuffix(v, u.suffix); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
			if err != nil {
				return 0, false
			}
			return f * u.scale, true
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f * 0.75, true
}
