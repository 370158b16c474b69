package unitext

import (
	"github.com/go-text/typesetting/unicodedata"
	"golang.org/x/text/unicode/bidi"
)

// Direction selects the paragraph direction.
type Direction int

const (
	// Auto takes the direction of the first strong character.
	Auto Direction = iota
	LTR
	RTL
)

// MaxLevel is the deepest embedding level; explicit embeddings beyond it
// are ignored.
const MaxLevel = 61

// Char is one code point during bidi resolution.
type Char struct {
	R     rune
	Level int
	// Class is the working class; it changes as the W and N rules run.
	Class bidi.Class
	// Orig is the class from the character database.
	Orig bidi.Class
}

// Options configures ResolveBidi.
type Options struct {
	Direction Direction
	// Shape enables Arabic contextual shaping.
	Shape   bool
	Shaping ShapeOptions
}

// ClassOf returns the bidi class of r.
func ClassOf(r rune) bidi.Class {
	p, _ := bidi.LookupRune(r)
	return p.Class()
}

// HasRTL reports whether cps contains a right-to-left signal: a strong RTL
// letter, an Arabic number or an RTL embedding, override or isolate.
func HasRTL(cps []rune) bool {
	for _, r := range cps {
		switch ClassOf(r) {
		case bidi.R, bidi.AL, bidi.AN, bidi.RLE, bidi.RLO, bidi.RLI:
			return true
		}
	}
	return false
}

// ResolveBidi returns cps in visual order. Input without any RTL signal is
// returned unchanged unless RTL is forced.
func ResolveBidi(cps []rune, opts Options) []rune {
	if len(cps) == 0 {
		return []rune{}
	}
	if opts.Direction != RTL && !HasRTL(cps) {
		return append([]rune(nil), cps...)
	}
	chars, _ := Levels(cps, opts.Direction)
	if opts.Shape && hasArabic(chars) {
		chars = ShapeArabic(chars, opts.Shaping)
	}
	return Reorder(chars)
}

// Levels runs the explicit, weak, neutral and implicit rules and L1. It
// returns the resolved characters (explicit formatting codes removed) and
// the paragraph level.
func Levels(cps []rune, dir Direction) ([]Char, int) {
	para := paragraphLevel(cps, dir)
	chars := explicitLevels(cps, para)
	for _, run := range levelRuns(chars, para) {
		resolveWeak(run.chars, run.sor)
		resolveNeutral(run.chars, run.sor, run.eor)
		resolveImplicit(run.chars)
	}
	resetWhitespace(chars, para)
	return chars, para
}

// Reorder applies L2 reversal and L4 mirroring and returns the code points.
func Reorder(chars []Char) []rune {
	if len(chars) == 0 {
		return []rune{}
	}
	maxLevel, minOdd := 0, chars[0].Level
	for _, c := range chars {
		maxLevel = max(maxLevel, c.Level)
		minOdd = min(minOdd, c.Level)
	}
	if minOdd%2 == 0 {
		minOdd++
	}
	for lvl := maxLevel; lvl >= minOdd; lvl-- {
		for i := 0; i < len(chars); {
			if chars[i].Level < lvl {
				i++
				continue
			}
			j := i
			for j < len(chars) && chars[j].Level >= lvl {
				j++
			}
			for a, b := i, j-1; a < b; a, b = a+1, b-1 {
				chars[a], chars[b] = chars[b], chars[a]
			}
			i = j
		}
	}
	out := make([]rune, len(chars))
	for i, c := range chars {
		r := c.R
		if c.Level%2 == 1 {
			if m, ok := unicodedata.LookupMirrorChar(r); ok {
				r = m
			}
		}
		out[i] = r
	}
	return out
}

// paragraphLevel applies P2 and P3.
func paragraphLevel(cps []rune, dir Direction) int {
	switch dir {
	case LTR:
		return 0
	case RTL:
		return 1
	}
	if firstStrong(cps) == bidi.R {
		return 1
	}
	return 0
}

// firstStrong returns L or R for the first strong character of cps outside
// isolates, stopping at an unmatched PDI. It returns L when none is found.
func firstStrong(cps []rune) bidi.Class {
	isolate := 0
	for _, r := range cps {
		switch ClassOf(r) {
		case bidi.L:
			if isolate == 0 {
				return bidi.L
			}
		case bidi.R, bidi.AL:
			if isolate == 0 {
				return bidi.R
			}
		case bidi.LRI, bidi.RLI, bidi.FSI:
			isolate++
		case bidi.PDI:
			if isolate == 0 {
				return bidi.L
			}
			isolate--
		case bidi.B:
			return bidi.L
		}
	}
	return bidi.L
}

type embedding struct {
	level    int
	override int // 0 none, 1 L, 2 R
}

func nextLevel(cur int, rtl bool) int {
	if rtl {
		return cur + 1 + cur%2
	}
	return cur + 2 - cur%2
}

// explicitLevels applies X1 to X9. Isolate initiators are treated as the
// matching embeddings and PDI as PDF.
func explicitLevels(cps []rune, para int) []Char {
	stack := []embedding{{level: para}}
	overflow := 0
	out := make([]Char, 0, len(cps))
	for i, r := range cps {
		cls := ClassOf(r)
		top := stack[len(stack)-1]
		switch cls {
		case bidi.RLE, bidi.LRE, bidi.RLO, bidi.LRO, bidi.RLI, bidi.LRI, bidi.FSI:
			rtl := cls == bidi.RLE || cls == bidi.RLO || cls == bidi.RLI
			if cls == bidi.FSI {
				rtl = firstStrong(cps[i+1:]) == bidi.R
			}
			lvl := nextLevel(top.level, rtl)
			if lvl > MaxLevel || overflow > 0 {
				overflow++
				continue
			}
			e := embedding{level: lvl}
			switch cls {
			case bidi.LRO:
				e.override = 1
			case bidi.RLO:
				e.override = 2
			}
			stack = append(stack, e)
			continue
		case bidi.PDF, bidi.PDI:
			if overflow > 0 {
				overflow--
			} else if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
			continue
		case bidi.BN:
			continue
		case bidi.B:
			stack = stack[:1]
			overflow = 0
			out = append(out, Char{R: r, Level: para, Class: cls, Orig: cls})
			continue
		}
		c := Char{R: r, Level: top.level, Class: cls, Orig: cls}
		switch top.override {
		case 1:
			c.Class = bidi.L
		case 2:
			c.Class = bidi.R
		}
		out = append(out, c)
	}
	return out
}

type levelRun struct {
	chars    []Char
	sor, eor bidi.Class
}

func dirOf(level int) bidi.Class {
	if level%2 == 1 {
		return bidi.R
	}
	return bidi.L
}

// levelRuns splits chars into maximal same-level runs (X10).
func levelRuns(chars []Char, para int) []levelRun {
	var runs []levelRun
	prev := para
	for i := 0; i < len(chars); {
		j := i
		for j < len(chars) && chars[j].Level == chars[i].Level {
			j++
		}
		next := para
		if j < len(chars) {
			next = chars[j].Level
		}
		lvl := chars[i].Level
		runs = append(runs, levelRun{
			chars: chars[i:j],
			sor:   dirOf(max(lvl, prev)),
			eor:   dirOf(max(lvl, next)),
		})
		prev = lvl
		i = j
	}
	return runs
}

// resolveWeak applies W1 to W7.
func resolveWeak(cs []Char, sor bidi.Class) {
	n := len(cs)
	prev := sor
	for i := range cs {
		if cs[i].Class == bidi.NSM {
			cs[i].Class = prev
		}
		prev = cs[i].Class
	}
	last := sor
	for i := range cs {
		switch cs[i].Class {
		case bidi.L, bidi.R, bidi.AL:
			last = cs[i].Class
		case bidi.EN:
			if last == bidi.AL {
				cs[i].Class = bidi.AN
			}
		}
	}
	for i := range cs {
		if cs[i].Class == bidi.AL {
			cs[i].Class = bidi.R
		}
	}
	for i := 1; i+1 < n; i++ {
		p, c, nx := cs[i-1].Class, cs[i].Class, cs[i+1].Class
		switch {
		case c == bidi.ES && p == bidi.EN && nx == bidi.EN:
			cs[i].Class = bidi.EN
		case c == bidi.CS && p == bidi.EN && nx == bidi.EN:
			cs[i].Class = bidi.EN
		case c == bidi.CS && p == bidi.AN && nx == bidi.AN:
			cs[i].Class = bidi.AN
		}
	}
	for i := 0; i < n; {
		if cs[i].Class != bidi.ET {
			i++
			continue
		}
		j := i
		for j < n && cs[j].Class == bidi.ET {
			j++
		}
		if (i > 0 && cs[i-1].Class == bidi.EN) || (j < n && cs[j].Class == bidi.EN) {
			for k := i; k < j; k++ {
				cs[k].Class = bidi.EN
			}
		}
		i = j
	}
	for i := range cs {
		switch cs[i].Class {
		case bidi.ES, bidi.ET, bidi.CS:
			cs[i].Class = bidi.ON
		}
	}
	last = sor
	for i := range cs {
		switch cs[i].Class {
		case bidi.L, bidi.R:
			last = cs[i].Class
		case bidi.EN:
			if last == bidi.L {
				cs[i].Class = bidi.L
			}
		}
	}
}

func isNeutral(c bidi.Class) bool {
	switch c {
	case bidi.B, bidi.S, bidi.WS, bidi.ON:
		return true
	}
	return false
}

// strongFor maps a resolved class to the direction it exerts on neutrals.
func strongFor(c bidi.Class) bidi.Class {
	if c == bidi.L {
		return bidi.L
	}
	return bidi.R
}

// resolveNeutral applies N1 and N2.
func resolveNeutral(cs []Char, sor, eor bidi.Class) {
	n := len(cs)
	for i := 0; i < n; {
		if !isNeutral(cs[i].Class) {
			i++
			continue
		}
		j := i
		for j < n && isNeutral(cs[j].Class) {
			j++
		}
		before, after := sor, eor
		if i > 0 {
			before = strongFor(cs[i-1].Class)
		}
		if j < n {
			after = strongFor(cs[j].Class)
		}
		dir := dirOf(cs[i].Level)
		if before == after {
			dir = before
		}
		for k := i; k < j; k++ {
			cs[k].Class = dir
		}
		i = j
	}
}

// resolveImplicit applies I1 and I2.
func resolveImplicit(cs []Char) {
	for i := range cs {
		c := &cs[i]
		if c.Level%2 == 0 {
			switch c.Class {
			case bidi.R:
				c.Level++
			case bidi.AN, bidi.EN:
				c.Level += 2
			}
			continue
		}
		switch c.Class {
		case bidi.L, bidi.EN, bidi.AN:
			c.Level++
		}
	}
}

// resetWhitespace applies L1 to the whole text as one line.
func resetWhitespace(chars []Char, para int) {
	trailing := true
	for i := len(chars) - 1; i >= 0; i-- {
		switch chars[i].Orig {
		case bidi.S, bidi.B:
			chars[i].Level = para
			trailing = true
		case bidi.WS:
			if trailing {
				chars[i].Level = para
			}
		default:
			trailing = false
		}
	}
}

func hasArabic(chars []Char) bool {
	for _, c := range chars {
		if c.Orig == bidi.AL {
			return true
		}
	}
	return false
}
