package document

import (
	"maps"
	"slices"

	"github.com/wudi/pdfflow/fonts"
	"github.com/wudi/pdfflow/observability"
)

type snapshot struct {
	st state
}

func (s *state) clone() state {
	c := *s
	c.pages = make([]*Page, len(s.pages))
	for i, p := range s.pages {
		c.pages[i] = p.clone()
	}
	c.Fonts = s.Fonts.Clone()
	c.Images = s.Images.Clone()
	if s.CurrentFont != nil {
		c.CurrentFont, _ = c.Fonts.Get(s.CurrentFont.Key)
	}
	c.ctm = slices.Clone(s.ctm)
	c.extGStates = slices.Clone(s.extGStates)
	c.newGroups = maps.Clone(s.newGroups)
	c.groupSizes = slices.Clone(s.groupSizes)
	c.links = slices.Clone(s.links)
	c.outlines = slices.Clone(s.outlines)
	return c
}

// StartTransaction records the document so RollbackTransaction can return
// to it. An open transaction is committed first.
func (d *Document) StartTransaction() {
	if d.tx != nil {
		d.CommitTransaction()
	}
	d.tx = &snapshot{st: d.state.clone()}
	d.store.Checkpoint()
}

// CommitTransaction keeps everything written since StartTransaction.
func (d *Document) CommitTransaction() {
	if d.tx == nil {
		return
	}
	d.tx = nil
	d.store.Commit()
}

// RollbackTransaction restores the document to StartTransaction, page
// content and page count included. It reports whether a transaction was
// open.
func (d *Document) RollbackTransaction() (bool, error) {
	if d.tx == nil {
		return false, d.err
	}
	st := d.tx.st
	d.tx = nil
	if err := d.store.Rollback(); err != nil {
		return true, d.fail(err)
	}
	d.state = st
	if d.CurrentFont != nil {
		if f, ok := d.Fonts.Get(fonts.Key(d.FontFamily, d.FontStyle)); ok {
			d.CurrentFont = f
		}
	}
	d.log.Debug("transaction rolled back", observability.Int("pages", len(d.pages)))
	return true, nil
}

// InTransaction reports whether a transaction is open.
func (d *Document) InTransaction() bool { return d.tx != nil }

// Atomic runs fn so that its output does not start on one page and end on
// another. When fn crosses a page break it is rolled back and run again on
// a fresh page; a block that already started at the top of a page is kept
// as written.
func (d *Document) Atomic(fn func() error) error {
	if d.err != nil {
		return d.err
	}
	if d.tx != nil {
		return fn()
	}
	startPage, startY := d.cur, d.Y
	d.StartTransaction()
	if err := fn(); err != nil {
		d.CommitTransaction()
		return err
	}
	if d.cur == startPage || startY <= d.TMargin {
		d.CommitTransaction()
		return d.err
	}
	if _, err := d.RollbackTransaction(); err != nil {
		return err
	}
	x := d.X
	if err := d.nextPage(); err != nil {
		return err
	}
	d.X = x
	return fn()
}
