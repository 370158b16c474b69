package layout

import (
	"github.com/wudi/pdfflow/contentstream"
	"github.com/wudi/pdfflow/images"
)

// ImageOptions places an image. Zero W and H take the pixel size; one
// zero side keeps the aspect ratio.
type ImageOptions struct {
	// X and Y default to the current position, in which case the image
	// flows: the page breaks when it does not fit and Y moves below it.
	X, Y *float64
	W, H float64
	// Data holds the encoded image when it does not come from a file; the
	// path is then only the registry key.
	Data   []byte
	Link   string
	LinkID int
	// Ln moves to the start of the line below the image.
	Ln bool
}

// Image places the image at path and returns its registry entry.
func (e *Engine) Image(path string, o ImageOptions) (*images.Info, error) {
	d := e.doc
	if d.Err() != nil {
		return nil, d.Err()
	}
	var info *images.Info
	var err error
	if o.Data != nil {
		info, err = d.Images.LoadBytes(path, o.Data)
	} else {
		info, err = d.Images.Load(path)
	}
	if err != nil {
		return nil, d.Fail(err)
	}
	w, h := o.W, o.H
	if w == 0 && h == 0 {
		w = float64(info.Width) / (e.ImageScale * d.K)
		h = float64(info.Height) / (e.ImageScale * d.K)
	}
	if w == 0 {
		w = h * float64(info.Width) / float64(info.Height)
	}
	if h == 0 {
		h = w * float64(info.Height) / float64(info.Width)
	}
	var y float64
	if o.Y == nil {
		d.CheckPageBreak(h, -1, true)
		y = d.Y
	} else {
		y = *o.Y
	}
	var x float64
	if o.X == nil {
		x = d.X
		if d.RTL {
			x -= w
		}
	} else {
		x = *o.X
	}

	k := d.K
	var f contentstream.Fragment
	f.Op("q").
		Num("cm", w*k, 0, 0, h*k, x*k, (d.H-(y+h))*k).
		Op("Do", contentstream.Name(info.ResourceName())).
		Op("Q")
	if err := d.OutFragment(&f); err != nil {
		return nil, err
	}
	switch {
	case o.Link != "":
		err = d.LinkURL(x, y, w, h, o.Link)
	case o.LinkID > 0:
		err = d.LinkInternal(x, y, w, h, o.LinkID)
	}
	if err != nil {
		return nil, err
	}
	if o.Ln {
		d.Y = y + h
		d.X = e.lineStart()
	} else if o.Y == nil {
		d.Y = y + h
	}
	d.LastH = h
	return info, nil
}
