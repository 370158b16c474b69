package contentstream

// TextRenderMode matches PDF text rendering modes set via Tr operator.
type TextRenderMode int

const (
	TextFill TextRenderMode = iota
	TextStroke
	TextFillStroke
	TextInvisible
	TextFillClip
	TextStrokeClip
	TextFillStrokeClip
	TextClip
)

// LineCap represents the line cap style (J operator).
type LineCap int

const (
	LineCapButt LineCap = iota
	LineCapRound
	LineCapSquare
)

// LineJoin represents the line join style (j operator).
type LineJoin int

const (
	LineJoinMiter LineJoin = iota
	LineJoinRound
	LineJoinBevel
)

// PaintOp selects how a path is painted.
type PaintOp string

const (
	PaintStroke     PaintOp = "S"
	PaintFill       PaintOp = "f"
	PaintFillStroke PaintOp = "B"
	PaintNone       PaintOp = "n"
)

// PaintStyle maps the drawing style letters used by the layout API ("D",
// "F", "DF"/"FD") to the painting operator.
func PaintStyle(style string) PaintOp {
	switch style {
	case "F":
		return PaintFill
	case "DF", "FD":
		return PaintFillStroke
	case "N":
		return PaintNone
	}
	return PaintStroke
}
