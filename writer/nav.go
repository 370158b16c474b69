package writer

import (
	"sort"

	"github.com/wudi/pdfflow/document"
	"github.com/wudi/pdfflow/ir/raw"
	"github.com/wudi/pdfflow/recovery"
)

// dest is an /XYZ destination at y user units from the top of page.
func (s *session) dest(page int, y float64) (*raw.ArrayObj, error) {
	p := s.doc.Page(page)
	if p == nil || page > len(s.pages) {
		return nil, recovery.Errorf(recovery.InvalidFormat, "writer.dest", "destination page %d does not exist", page)
	}
	return raw.NewArray(
		raw.Ref(s.pages[page-1], 0), raw.NameLiteral("XYZ"),
		raw.Int(0), raw.NumberFloat(p.HPt-y*s.doc.K), raw.NullObj{}), nil
}

func colorArray(c []float64) *raw.ArrayObj {
	if len(c) == 0 {
		return nil
	}
	return raw.Floats(c...)
}

// putAnnotations writes the annotations under the numbers reserved for
// them with their pages.
func (s *session) putAnnotations() error {
	links := s.doc.Links()
	for i, p := range s.doc.Pages() {
		for j, a := range p.Annotations {
			num := s.annots[i][j]
			s.ow.Begin(num)
			d := raw.Dict()
			d.Set("Type", raw.NameLiteral("Annot"))
			d.Set("Subtype", raw.NameLiteral(a.Subtype))
			d.Set("Rect", boxArray(a.Rect))
			d.Set("P", raw.Ref(s.pages[i], 0))
			if c := colorArray(a.Color); c != nil {
				d.Set("C", c)
			}
			switch a.Subtype {
			case "Link":
				d.Set("Border", raw.NewArray(raw.Int(0), raw.Int(0), raw.Int(0)))
				if a.URI != "" {
					action := raw.Dict()
					action.Set("S", raw.NameLiteral("URI"))
					action.Set("URI", raw.Str([]byte(a.URI)))
					d.Set("A", action)
				} else {
					if a.Link <= 0 || a.Link > len(links) {
						return recovery.Errorf(recovery.InvalidFormat, "writer.putAnnotations", "unknown link %d", a.Link)
					}
					t := links[a.Link-1]
					dst, err := s.dest(t.Page, t.Y)
					if err != nil {
						return err
					}
					d.Set("Dest", dst)
				}
			case "Text":
				d.Set("Contents", s.ow.TextString(a.Contents))
				if a.Title != "" {
					d.Set("T", s.ow.TextString(a.Title))
				}
				d.Set("Name", raw.NameLiteral(a.Icon))
				d.Set("Open", raw.Bool(a.Open))
			}
			s.ow.End(d)
		}
	}
	return nil
}

// putJavaScript writes the document-level script action and the name
// tree pointing at it.
func (s *session) putJavaScript() error {
	script := s.doc.JavaScript()
	if script == "" {
		return nil
	}
	n := s.ow.NewObject()
	action := raw.Dict()
	action.Set("S", raw.NameLiteral("JavaScript"))
	action.Set("JS", s.ow.TextString(script))
	s.ow.End(action)

	tree := raw.Dict()
	tree.Set("Names", raw.NewArray(raw.Str([]byte("EmbeddedJS")), raw.Ref(n, 0)))
	s.js = s.ow.Put(tree)
	return nil
}

type outlineNode struct {
	document.Outline
	parent, prev, next, first, last int
	count                           int
}

// sortedOutlines orders bookmarks by page, keeping insertion order within
// a page, and limits each level to one more than the previous entry.
func sortedOutlines(in []document.Outline) []outlineNode {
	out := make([]outlineNode, len(in))
	for i, o := range in {
		out[i] = outlineNode{Outline: o, parent: -1, prev: -1, next: -1, first: -1, last: -1}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Page < out[j].Page })
	prev := -1
	for i := range out {
		if out[i].Level > prev+1 {
			out[i].Level = prev + 1
		}
		prev = out[i].Level
	}
	return out
}

// linkOutlines fills the tree links of a flat, level-annotated list. The
// root has index len(nodes).
func linkOutlines(nodes []outlineNode) {
	root := len(nodes)
	lru := map[int]int{}
	level := 0
	for i := range nodes {
		l := nodes[i].Level
		if l > 0 {
			parent := lru[l-1]
			nodes[i].parent = parent
			nodes[parent].last = i
			if l > level {
				nodes[parent].first = i
			}
		} else {
			nodes[i].parent = root
		}
		if l <= level && i > 0 {
			p := lru[l]
			nodes[p].next = i
			nodes[i].prev = p
		}
		lru[l] = i
		level = l
	}
	for i := range nodes {
		for p := nodes[i].parent; p != root; p = nodes[p].parent {
			nodes[p].count++
		}
	}
}

func (s *session) putOutlines() error {
	if len(s.doc.Outlines()) == 0 {
		return nil
	}
	nodes := sortedOutlines(s.doc.Outlines())
	linkOutlines(nodes)
	first := s.ow.Last() + 1
	ref := func(i int) raw.RefObj { return raw.Ref(first+i, 0) }
	root := len(nodes)
	for i, o := range nodes {
		n := s.ow.NewObject()
		if n != first+i {
			return recovery.Errorf(recovery.InvalidFormat, "writer.putOutlines", "outline object %d out of sequence", n)
		}
		d := raw.Dict()
		d.Set("Title", s.ow.TextString(o.Title))
		d.Set("Parent", ref(o.parent))
		for key, v := range map[string]int{"Prev": o.prev, "Next": o.next, "First": o.first, "Last": o.last} {
			if v >= 0 {
				d.Set(key, ref(v))
			}
		}
		if o.first >= 0 {
			d.Set("Count", raw.Int(o.count))
		}
		dst, err := s.dest(o.Page, o.Y)
		if err != nil {
			return err
		}
		d.Set("Dest", dst)
		flags := 0
		for _, c := range o.Style {
			switch c {
			case 'I', 'i':
				flags |= 1
			case 'B', 'b':
				flags |= 2
			}
		}
		if flags != 0 {
			d.Set("F", raw.Int(flags))
		}
		if c := colorArray(o.Color); c != nil {
			d.Set("C", c)
		}
		s.ow.End(d)
	}
	s.outlines = s.ow.NewObject()
	d := raw.Dict()
	d.Set("Type", raw.NameLiteral("Outlines"))
	d.Set("First", ref(0))
	last := 0
	for i, o := range nodes {
		if o.parent == root {
			last = i
		}
	}
	d.Set("Last", ref(last))
	d.Set("Count", raw.Int(len(nodes)))
	s.ow.End(d)
	return nil
}

func (s *session) putInfo() int {
	n := s.ow.NewObject()
	info := s.doc.Info
	d := raw.Dict()
	for key, v := range map[string]string{
		"Title": info.Title, "Subject": info.Subject, "Author": info.Author,
		"Keywords": info.Keywords, "Creator": info.Creator,
	} {
		if v != "" {
			d.Set(key, s.ow.TextString(v))
		}
	}
	d.Set("Producer", s.ow.TextString(s.cfg.Producer))
	date := raw.Str([]byte(pdfDate(s.cfg.Now())))
	d.Set("CreationDate", date)
	d.Set("ModDate", date)
	s.ow.End(d)
	return n
}

func (s *session) openAction() raw.Object {
	v := s.doc.Viewer
	if len(s.pages) == 0 {
		return nil
	}
	page := raw.Ref(s.pages[0], 0)
	switch v.Zoom {
	case "fullpage":
		return raw.NewArray(page, raw.NameLiteral("Fit"))
	case "fullwidth":
		return raw.NewArray(page, raw.NameLiteral("FitH"), raw.NullObj{})
	case "real":
		return raw.NewArray(page, raw.NameLiteral("XYZ"), raw.NullObj{}, raw.NullObj{}, raw.Int(1))
	case "factor":
		return raw.NewArray(page, raw.NameLiteral("XYZ"), raw.NullObj{}, raw.NullObj{}, raw.NumberFloat(v.ZoomFactor/100))
	}
	return nil
}

func viewerPreferences(p document.ViewerPreferences) *raw.DictObj {
	d := raw.Dict()
	for key, on := range map[string]bool{
		"HideToolbar": p.HideToolbar, "HideMenubar": p.HideMenubar, "HideWindowUI": p.HideWindowUI,
		"FitWindow": p.FitWindow, "CenterWindow": p.CenterWindow, "DisplayDocTitle": p.DisplayDocTitle,
	} {
		if on {
			d.Set(key, raw.Bool(true))
		}
	}
	if p.Direction == "R2L" || p.Direction == "L2R" {
		d.Set("Direction", raw.NameLiteral(p.Direction))
	}
	if p.PrintScaling == "None" || p.PrintScaling == "AppDefault" {
		d.Set("PrintScaling", raw.NameLiteral(p.PrintScaling))
	}
	switch p.Duplex {
	case "Simplex", "DuplexFlipShortEdge", "DuplexFlipLongEdge":
		d.Set("Duplex", raw.NameLiteral(p.Duplex))
	}
	if p.NumCopies > 0 {
		d.Set("NumCopies", raw.Int(p.NumCopies))
	}
	return d
}

func (s *session) ocProperties() *raw.DictObj {
	if len(s.ocgs) == 0 {
		return nil
	}
	all := raw.NewArray()
	usage := raw.NewArray()
	for _, name := range []string{document.OCGPrint, document.OCGScreen} {
		n, ok := s.ocgs[name]
		if !ok {
			continue
		}
		all.Add(raw.Ref(n, 0))
	}
	for _, ev := range []string{"Print", "View"} {
		app := raw.Dict()
		app.Set("Event", raw.NameLiteral(ev))
		app.Set("OCGs", all)
		app.Set("Category", raw.Names(ev))
		usage.Add(app)
	}
	def := raw.Dict()
	def.Set("ON", all)
	def.Set("OFF", raw.NewArray())
	def.Set("AS", usage)
	d := raw.Dict()
	d.Set("OCGs", all)
	d.Set("D", def)
	return d
}

func (s *session) putCatalog() int {
	n := s.ow.NewObject()
	v := s.doc.Viewer
	d := raw.Dict()
	d.Set("Type", raw.NameLiteral("Catalog"))
	d.Set("Pages", raw.Ref(PageTreeObject, 0))
	d.Set("PageLayout", raw.NameLiteral(v.Layout))
	mode := v.Mode
	if mode == "UseNone" && s.outlines > 0 {
		mode = "UseOutlines"
	}
	d.Set("PageMode", raw.NameLiteral(mode))
	if a := s.openAction(); a != nil {
		d.Set("OpenAction", a)
	}
	if vp := viewerPreferences(v.Prefs); vp.Len() > 0 {
		d.Set("ViewerPreferences", vp)
	}
	if s.js > 0 {
		names := raw.Dict()
		names.Set("JavaScript", raw.Ref(s.js, 0))
		d.Set("Names", names)
	}
	if s.outlines > 0 {
		d.Set("Outlines", raw.Ref(s.outlines, 0))
	}
	if oc := s.ocProperties(); oc != nil {
		d.Set("OCProperties", oc)
	}
	if s.doc.Lang != "" {
		d.Set("Lang", s.ow.TextString(s.doc.Lang))
	}
	s.ow.End(d)
	return n
}
