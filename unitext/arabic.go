package unitext

import "golang.org/x/text/unicode/bidi"

// ShapeOptions configures Arabic shaping.
type ShapeOptions struct {
	// Allah enables the U+FDF2 ligature for a word that is exactly
	// alef-lam-lam-heh. The ligature glyph includes the alef, so lam-lam-heh
	// without a leading alef (as in lillah) is shaped letter by letter.
	Allah bool
	// HasGlyph reports whether the font has a glyph for r. Combined
	// Shadda forms are used only when it returns true.
	HasGlyph func(r rune) bool
}

type joining int

const (
	joinNone joining = iota
	joinRight
	joinDual
	joinCausing
)

// forms holds the isolated, final, initial and medial presentation forms.
type forms [4]rune

const (
	formIsolated = iota
	formFinal
	formInitial
	formMedial
)

func right(iso, fin rune) forms          { return forms{iso, fin, 0, 0} }
func dual(iso, fin, ini, med rune) forms { return forms{iso, fin, ini, med} }

var arabicForms = map[rune]forms{
	0x0621: {0xFE80, 0, 0, 0},
	0x0622: right(0xFE81, 0xFE82),
	0x0623: right(0xFE83, 0xFE84),
	0x0624: right(0xFE85, 0xFE86),
	0x0625: right(0xFE87, 0xFE88),
	0x0626: dual(0xFE89, 0xFE8A, 0xFE8B, 0xFE8C),
	0x0627: right(0xFE8D, 0xFE8E),
	0x0628: dual(0xFE8F, 0xFE90, 0xFE91, 0xFE92),
	0x0629: right(0xFE93, 0xFE94),
	0x062A: dual(0xFE95, 0xFE96, 0xFE97, 0xFE98),
	0x062B: dual(0xFE99, 0xFE9A, 0xFE9B, 0xFE9C),
	0x062C: dual(0xFE9D, 0xFE9E, 0xFE9F, 0xFEA0),
	0x062D: dual(0xFEA1, 0xFEA2, 0xFEA3, 0xFEA4),
	0x062E: dual(0xFEA5, 0xFEA6, 0xFEA7, 0xFEA8),
	0x062F: right(0xFEA9, 0xFEAA),
	0x0630: right(0xFEAB, 0xFEAC),
	0x0631: right(0xFEAD, 0xFEAE),
	0x0632: right(0xFEAF, 0xFEB0),
	0x0633: dual(0xFEB1, 0xFEB2, 0xFEB3, 0xFEB4),
	0x0634: dual(0xFEB5, 0xFEB6, 0xFEB7, 0xFEB8),
	0x0635: dual(0xFEB9, 0xFEBA, 0xFEBB, 0xFEBC),
	0x0636: dual(0xFEBD, 0xFEBE, 0xFEBF, 0xFEC0),
	0x0637: dual(0xFEC1, 0xFEC2, 0xFEC3, 0xFEC4),
	0x0638: dual(0xFEC5, 0xFEC6, 0xFEC7, 0xFEC8),
	0x0639: dual(0xFEC9, 0xFECA, 0xFECB, 0xFECC),
	0x063A: dual(0xFECD, 0xFECE, 0xFECF, 0xFED0),
	0x0641: dual(0xFED1, 0xFED2, 0xFED3, 0xFED4),
	0x0642: dual(0xFED5, 0xFED6, 0xFED7, 0xFED8),
	0x0643: dual(0xFED9, 0xFEDA, 0xFEDB, 0xFEDC),
	0x0644: dual(0xFEDD, 0xFEDE, 0xFEDF, 0xFEE0),
	0x0645: dual(0xFEE1, 0xFEE2, 0xFEE3, 0xFEE4),
	0x0646: dual(0xFEE5, 0xFEE6, 0xFEE7, 0xFEE8),
	0x0647: dual(0xFEE9, 0xFEEA, 0xFEEB, 0xFEEC),
	0x0648: right(0xFEED, 0xFEEE),
	0x0649: right(0xFEEF, 0xFEF0),
	0x064A: dual(0xFEF1, 0xFEF2, 0xFEF3, 0xFEF4),
	0x0671: right(0xFB50, 0xFB51),
	0x0679: dual(0xFB66, 0xFB67, 0xFB68, 0xFB69),
	0x067E: dual(0xFB56, 0xFB57, 0xFB58, 0xFB59),
	0x0686: dual(0xFB7A, 0xFB7B, 0xFB7C, 0xFB7D),
	0x0688: right(0xFB88, 0xFB89),
	0x0691: right(0xFB8C, 0xFB8D),
	0x0698: right(0xFB8A, 0xFB8B),
	0x06A9: dual(0xFB8E, 0xFB8F, 0xFB90, 0xFB91),
	0x06AF: dual(0xFB92, 0xFB93, 0xFB94, 0xFB95),
	0x06BA: right(0xFB9E, 0xFB9F),
	0x06BE: dual(0xFBAA, 0xFBAB, 0xFBAC, 0xFBAD),
	0x06C0: right(0xFBA4, 0xFBA5),
	0x06C1: dual(0xFBA6, 0xFBA7, 0xFBA8, 0xFBA9),
	0x06CC: dual(0xFBFC, 0xFBFD, 0xFBFE, 0xFBFF),
	0x06D2: right(0xFBAE, 0xFBAF),
	0x06D3: right(0xFBB0, 0xFBB1),
}

const (
	lam     = 0x0644
	alef    = 0x0627
	heh     = 0x0647
	tatweel = 0x0640
	shadda  = 0x0651
	allah   = 0xFDF2
)

// lamAlef maps the alef following a lam to the isolated ligature; the final
// form is the next code point.
var lamAlef = map[rune]rune{
	0x0622: 0xFEF5,
	0x0623: 0xFEF7,
	0x0625: 0xFEF9,
	0x0627: 0xFEFB,
}

// shaddaCombos maps a harakat to its combination with Shadda.
var shaddaCombos = map[rune]rune{
	0x064C: 0xFC5E,
	0x064D: 0xFC5F,
	0x064E: 0xFC60,
	0x064F: 0xFC61,
	0x0650: 0xFC62,
}

func joiningOf(r rune) joining {
	if r == tatweel {
		return joinCausing
	}
	f, ok := arabicForms[r]
	switch {
	case !ok || f[formFinal] == 0:
		return joinNone
	case f[formInitial] == 0:
		return joinRight
	}
	return joinDual
}

// joinsNext reports whether r connects to the character after it.
func joinsNext(r rune) bool {
	j := joiningOf(r)
	return j == joinDual || j == joinCausing
}

// joinsPrev reports whether r connects to the character before it.
func joinsPrev(r rune) bool {
	return joiningOf(r) != joinNone
}

// IsArabic reports whether r is in the Arabic blocks handled by shaping.
func IsArabic(r rune) bool {
	return (r >= 0x0600 && r <= 0x06FF) || (r >= 0xFB50 && r <= 0xFDFF) || (r >= 0xFE70 && r <= 0xFEFF)
}

func transparent(c Char) bool { return c.Orig == bidi.NSM }

// ShapeArabic replaces Arabic letters in chars (logical order) with their
// contextual presentation forms and applies the lam-alef, Allah and Shadda
// ligatures. Characters of different embedding levels never join.
func ShapeArabic(chars []Char, opts ShapeOptions) []Char {
	in := chars
	out := make([]Char, 0, len(in))

	neighbor := func(i, step int) (Char, bool) {
		for j := i + step; j >= 0 && j < len(in); j += step {
			if transparent(in[j]) {
				continue
			}
			if in[j].Level != in[i].Level {
				return Char{}, false
			}
			return in[j], true
		}
		return Char{}, false
	}
	// nextIndex returns the index of the next non-transparent char.
	nextIndex := func(i int) int {
		for j := i + 1; j < len(in); j++ {
			if !transparent(in[j]) {
				return j
			}
		}
		return -1
	}

	skip := make([]bool, len(in))
	for i := 0; i < len(in); i++ {
		if skip[i] {
			continue
		}
		c := in[i]
		if transparent(c) {
			if comb, ok := combineShadda(in, i, opts); ok {
				c.R = comb
				skip[i+1] = true
			}
			out = append(out, c)
			continue
		}
		if _, ok := arabicForms[c.R]; !ok {
			out = append(out, c)
			continue
		}
		prev, hasPrev := neighbor(i, -1)
		prevJoins := hasPrev && joinsNext(prev.R)

		if opts.Allah && c.R == alef && !prevJoins {
			if end, ok := matchAllah(in, i, nextIndex); ok {
				c.R = allah
				for k := i + 1; k <= end; k++ {
					skip[k] = true
				}
				out = append(out, c)
				continue
			}
		}

		if c.R == lam {
			if j := nextIndex(i); j >= 0 && in[j].Level == c.Level {
				if lig, ok := lamAlef[in[j].R]; ok {
					if prevJoins {
						lig++
					}
					c.R = lig
					skip[j] = true
					out = append(out, c)
					continue
				}
			}
		}

		next, hasNext := neighbor(i, 1)
		nextJoins := hasNext && joinsNext(c.R) && joinsPrev(next.R)
		if !joinsPrev(c.R) {
			prevJoins = false
		}
		f := arabicForms[c.R]
		form := formIsolated
		switch {
		case prevJoins && nextJoins:
			form = formMedial
		case prevJoins:
			form = formFinal
		case nextJoins:
			form = formInitial
		}
		if f[form] == 0 {
			if prevJoins && f[formFinal] != 0 {
				form = formFinal
			} else {
				form = formIsolated
			}
		}
		c.R = f[form]
		out = append(out, c)
	}
	return out
}

// matchAllah reports whether alef at i starts alef-lam-lam-heh and returns
// the index of the heh. Marks between the letters are absorbed.
func matchAllah(in []Char, i int, nextIndex func(int) int) (int, bool) {
	want := [...]rune{lam, lam, heh}
	pos := i
	for _, r := range want {
		pos = nextIndex(pos)
		if pos < 0 || in[pos].R != r || in[pos].Level != in[i].Level {
			return 0, false
		}
	}
	// the word must end after heh
	if n := nextIndex(pos); n >= 0 && in[n].Level == in[i].Level && IsArabic(in[n].R) {
		return 0, false
	}
	return pos, true
}

// combineShadda merges a Shadda with an adjacent harakat at i, i+1 when the
// font supports the combined glyph.
func combineShadda(in []Char, i int, opts ShapeOptions) (rune, bool) {
	if opts.HasGlyph == nil || i+1 >= len(in) {
		return 0, false
	}
	a, b := in[i].R, in[i+1].R
	var mark rune
	switch {
	case a == shadda:
		mark = b
	case b == shadda:
		mark = a
	default:
		return 0, false
	}
	comb, ok := shaddaCombos[mark]
	if !ok || !opts.HasGlyph(comb) {
		return 0, false
	}
	return comb, true
}
