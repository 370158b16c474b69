package fonts

import (
	"bytes"

	"github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/font/opentype/tables"

	"github.com/wudi/pdfflow/recovery"
)

// glyphSet is a set of glyph IDs.
type glyphSet map[uint16]bool

func (s glyphSet) add(g uint16) bool {
	if s[g] {
		return false
	}
	s[g] = true
	return true
}

func (s glyphSet) list() []uint16 {
	out := make([]uint16, 0, len(s))
	for g := range s {
		out = append(out, g)
	}
	return out
}

// gsubClosure extends glyphs with every glyph a GSUB substitution can
// produce from them, so that a subset font still shapes.
type gsubClosure struct {
	lookups [][]tables.GSUBLookup
	glyphs  glyphSet
	active  map[int]bool
}

// closeOverGSUB adds to glyphs the glyphs reachable through the GSUB
// table of font. Fonts without GSUB leave glyphs unchanged.
func closeOverGSUB(font []byte, glyphs glyphSet) error {
	ld, err := opentype.NewLoader(bytes.NewReader(font))
	if err != nil {
		return recovery.Wrap(recovery.InvalidFormat, "fonts.Subset", err)
	}
	tag := opentype.NewTag('G', 'S', 'U', 'B')
	if !ld.HasTable(tag) {
		return nil
	}
	raw, err := ld.RawTable(tag)
	if err != nil {
		return recovery.Wrap(recovery.InvalidFormat, "fonts.Subset", err)
	}
	layout, _, err := tables.ParseLayout(raw)
	if err != nil {
		return recovery.Wrap(recovery.InvalidFormat, "fonts.Subset", err)
	}
	c := &gsubClosure{glyphs: glyphs, active: map[int]bool{}}
	c.lookups = make([][]tables.GSUBLookup, len(layout.LookupList.Lookups))
	for i, l := range layout.LookupList.Lookups {
		if subs, err := l.AsGSUBLookups(); err == nil {
			c.lookups[i] = subs
		}
	}
	for grew := true; grew; {
		grew = false
		current := glyphs.list()
		for i := range c.lookups {
			grew = c.lookup(i, current) || grew
		}
	}
	return nil
}

// lookup applies lookup i to in; nested lookups of contextual rules run
// once per chain.
func (c *gsubClosure) lookup(i int, in []uint16) bool {
	if i < 0 || i >= len(c.lookups) || c.active[i] {
		return false
	}
	c.active[i] = true
	defer delete(c.active, i)
	grew := false
	for _, sub := range c.lookups[i] {
		grew = c.subtable(sub, in) || grew
	}
	return grew
}

func (c *gsubClosure) subtable(sub tables.GSUBLookup, in []uint16) bool {
	grew := false
	cov := sub.Cov()
	for _, g := range in {
		idx, ok := cov.Index(tables.GlyphID(g))
		if !ok {
			continue
		}
		switch t := sub.(type) {
		case tables.SingleSubs:
			switch d := t.Data.(type) {
			case tables.SingleSubstData1:
				grew = c.glyphs.add(uint16(int(g)+int(d.DeltaGlyphID))) || grew
			case tables.SingleSubstData2:
				if idx < len(d.SubstituteGlyphIDs) {
					grew = c.glyphs.add(uint16(d.SubstituteGlyphIDs[idx])) || grew
				}
			}
		case tables.MultipleSubs:
			if idx < len(t.Sequences) {
				for _, out := range t.Sequences[idx].SubstituteGlyphIDs {
					grew = c.glyphs.add(uint16(out)) || grew
				}
			}
		case tables.AlternateSubs:
			if idx < len(t.AlternateSets) {
				for _, out := range t.AlternateSets[idx].AlternateGlyphIDs {
					grew = c.glyphs.add(uint16(out)) || grew
				}
			}
		case tables.LigatureSubs:
			if idx < len(t.LigatureSets) {
				for _, lig := range t.LigatureSets[idx].Ligatures {
					if hasAll(c.glyphs, lig.ComponentGlyphIDs) {
						grew = c.glyphs.add(uint16(lig.LigatureGlyph)) || grew
					}
				}
			}
		case tables.ReverseChainSingleSubs:
			if idx < len(t.SubstituteGlyphIDs) {
				grew = c.glyphs.add(uint16(t.SubstituteGlyphIDs[idx])) || grew
			}
		case tables.ExtensionSubs:
			if inner := extensionSubtable(tables.Extension(t)); inner != nil {
				grew = c.subtable(inner, []uint16{g}) || grew
			}
		case tables.ContextualSubs:
			grew = c.contextual(t.Data, idx, in) || grew
		case tables.ChainedContextualSubs:
			grew = c.chained(t.Data, idx, in) || grew
		}
	}
	return grew
}

func hasAll[T ~uint16](s glyphSet, ids []T) bool {
	for _, id := range ids {
		if !s[uint16(id)] {
			return false
		}
	}
	return true
}

// extensionSubtable decodes the wrapped lookup of an extension subtable.
// Contextual lookups inside extensions are not followed.
func extensionSubtable(ext tables.Extension) tables.GSUBLookup {
	if int(ext.ExtensionOffset) >= len(ext.RawData) {
		return nil
	}
	data := ext.RawData[ext.ExtensionOffset:]
	var (
		sub tables.GSUBLookup
		err error
	)
	switch ext.ExtensionLookupType {
	case 1:
		var s tables.SingleSubs
		s, _, err = tables.ParseSingleSubs(data)
		sub = s
	case 2:
		var s tables.MultipleSubs
		s, _, err = tables.ParseMultipleSubs(data)
		sub = s
	case 3:
		var s tables.AlternateSubs
		s, _, err = tables.ParseAlternateSubs(data)
		sub = s
	case 4:
		var s tables.LigatureSubs
		s, _, err = tables.ParseLigatureSubs(data)
		sub = s
	default:
		return nil
	}
	if err != nil {
		return nil
	}
	return sub
}

func (c *gsubClosure) records(recs []tables.SequenceLookupRecord, in []uint16) bool {
	grew := false
	for _, r := range recs {
		grew = c.lookup(int(r.LookupListIndex), in) || grew
	}
	return grew
}

func (c *gsubClosure) contextual(data tables.ContextualSubsITF, idx int, in []uint16) bool {
	grew := false
	switch t := data.(type) {
	case tables.ContextualSubs1:
		sets := tables.SequenceContextFormat1(t).SeqRuleSet
		if idx >= 0 && idx < len(sets) {
			for _, rule := range sets[idx].SeqRule {
				grew = c.records(rule.SeqLookupRecords, in) || grew
			}
		}
	case tables.ContextualSubs2:
		for _, set := range tables.SequenceContextFormat2(t).ClassSeqRuleSet {
			for _, rule := range set.SeqRule {
				grew = c.records(rule.SeqLookupRecords, in) || grew
			}
		}
	case tables.ContextualSubs3:
		grew = c.records(tables.SequenceContextFormat3(t).SeqLookupRecords, in)
	}
	return grew
}

func (c *gsubClosure) chained(data tables.ChainedContextualSubsITF, idx int, in []uint16) bool {
	grew := false
	switch t := data.(type) {
	case tables.ChainedContextualSubs1:
		sets := tables.ChainedSequenceContextFormat1(t).ChainedSeqRuleSet
		if idx >= 0 && idx < len(sets) {
			for _, rule := range sets[idx].ChainedSeqRules {
				grew = c.records(rule.SeqLookupRecords, in) || grew
			}
		}
	case tables.ChainedContextualSubs2:
		for _, set := range tables.ChainedSequenceContextFormat2(t).ChainedClassSeqRuleSet {
			for _, rule := range set.ChainedSeqRules {
				grew = c.records(rule.SeqLookupRecords, in) || grew
			}
		}
	case tables.ChainedContextualSubs3:
		grew = c.records(tables.ChainedSequenceContextFormat3(t).SeqLookupRecords, in)
	}
	return grew
}
