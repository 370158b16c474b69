package writer

import (
	"strconv"

	"github.com/wudi/pdfflow/document"
	"github.com/wudi/pdfflow/ir/raw"
)

// pageAliases returns the replacements for page n.
func (s *session) pageAliases(p *document.Page) []Alias {
	total := s.doc.NumPages()
	groupTotal, groupPage := total, p.Number
	if p.Group > 0 {
		groupTotal, groupPage = s.doc.GroupSize(p.Group), p.GroupPage
	}
	return []Alias{
		{Marker: document.AliasTotalPages, Value: strconv.Itoa(total)},
		{Marker: document.AliasPageNumber, Value: strconv.Itoa(p.Number)},
		{Marker: document.AliasGroupTotalPages, Value: strconv.Itoa(groupTotal)},
		{Marker: document.AliasGroupPageNumber, Value: strconv.Itoa(groupPage)},
	}
}

// putPages writes each page object followed by its content stream.
// Annotation numbers are reserved here and written later.
func (s *session) putPages() error {
	for _, p := range s.doc.Pages() {
		content, err := s.doc.Content(p.Number)
		if err != nil {
			return err
		}
		content = SubstituteAliases(append([]byte(nil), content...), s.pageAliases(p))

		n := s.ow.NewObject()
		s.pages = append(s.pages, n)
		page := raw.Dict()
		page.Set("Type", raw.NameLiteral("Page"))
		page.Set("Parent", raw.Ref(PageTreeObject, 0))
		for _, name := range document.BoxNames {
			if b, ok := p.Boxes[name]; ok {
				page.Set(name, boxArray(b))
			}
		}
		if _, ok := p.Boxes[document.MediaBox]; !ok {
			page.Set(document.MediaBox, raw.Floats(0, 0, p.WPt, p.HPt))
		}
		if rot := normalizeRotation(p.Rotation); rot != 0 {
			page.Set("Rotate", raw.Int(rot))
		}
		page.Set("Resources", raw.Ref(ResourcesObject, 0))
		page.Set("Contents", raw.Ref(n+1, 0))
		var annots []int
		if len(p.Annotations) > 0 {
			arr := raw.NewArray()
			for range p.Annotations {
				a := s.ow.Reserve(Annotations)
				annots = append(annots, a)
				arr.Add(raw.Ref(a, 0))
			}
			page.Set("Annots", arr)
		}
		s.annots = append(s.annots, annots)
		if t := p.Transition; t != nil {
			page.Set("Trans", transition(t))
			if t.Display > 0 {
				page.Set("Dur", raw.NumberFloat(t.Display))
			}
		}
		if len(s.doc.ExtGStates()) > 0 {
			group := raw.Dict()
			group.Set("Type", raw.NameLiteral("Group"))
			group.Set("S", raw.NameLiteral("Transparency"))
			group.Set("CS", raw.NameLiteral("DeviceRGB"))
			page.Set("Group", group)
		}
		s.ow.End(page)

		if _, err := s.stream(nil, content); err != nil {
			return err
		}
	}
	return s.putPageTree()
}

func transition(t *document.Transition) *raw.DictObj {
	d := raw.Dict()
	d.Set("Type", raw.NameLiteral("Trans"))
	d.Set("S", raw.NameLiteral(t.Style))
	d.Set("D", raw.NumberFloat(t.Duration))
	return d
}

func (s *session) putPageTree() error {
	kids := raw.NewArray()
	for _, n := range s.pages {
		kids.Add(raw.Ref(n, 0))
	}
	tree := raw.Dict()
	tree.Set("Type", raw.NameLiteral("Pages"))
	tree.Set("Kids", kids)
	tree.Set("Count", raw.Int(len(s.pages)))
	s.ow.PutAt(PageTreeObject, tree)
	return nil
}

func (s *session) putExtGStates() error {
	for _, gs := range s.doc.ExtGStates() {
		d := raw.Dict()
		d.Set("Type", raw.NameLiteral("ExtGState"))
		d.Set("CA", raw.NumberFloat(gs.StrokeAlpha))
		d.Set("ca", raw.NumberFloat(gs.FillAlpha))
		d.Set("BM", raw.NameLiteral(gs.BlendMode))
		d.Set("AIS", raw.Bool(false))
		s.gstates = append(s.gstates, s.ow.Put(d))
	}
	return nil
}

// putOCGs writes the print-only and screen-only groups SetVisibility used.
func (s *session) putOCGs() error {
	printOnly, screenOnly := s.doc.OCGs()
	put := func(name, label string, print, view bool) {
		state := func(on bool) raw.NameObj {
			if on {
				return raw.NameLiteral("ON")
			}
			return raw.NameLiteral("OFF")
		}
		n := s.ow.NewObject()
		usage := raw.Dict()
		ps, vs := raw.Dict(), raw.Dict()
		ps.Set("PrintState", state(print))
		vs.Set("ViewState", state(view))
		usage.Set("Print", ps)
		usage.Set("View", vs)
		d := raw.Dict()
		d.Set("Type", raw.NameLiteral("OCG"))
		d.Set("Name", s.ow.TextString(label))
		d.Set("Usage", usage)
		s.ow.End(d)
		s.ocgs[name] = n
	}
	if printOnly {
		put(document.OCGPrint, "print", true, false)
	}
	if screenOnly {
		put(document.OCGScreen, "view", false, true)
	}
	return nil
}

// putResources writes the dictionary every page shares.
func (s *session) putResources() error {
	res := raw.Dict()
	res.Set("ProcSet", raw.Names("PDF", "Text", "ImageB", "ImageC", "ImageI"))
	named := func(key string, refs map[string]int) {
		if len(refs) == 0 {
			return
		}
		d := raw.Dict()
		for name, n := range refs {
			d.Set(name, raw.Ref(n, 0))
		}
		res.Set(key, d)
	}
	named("Font", s.fonts)
	named("XObject", s.images)
	gs := map[string]int{}
	for i, n := range s.gstates {
		gs["GS"+strconv.Itoa(i+1)] = n
	}
	named("ExtGState", gs)
	named("Properties", s.ocgs)
	s.ow.PutAt(ResourcesObject, res)
	return nil
}
