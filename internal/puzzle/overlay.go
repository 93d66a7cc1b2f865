package puzzle

import "math"

// Overlay is the line drawn over a found word: it starts at the centre of
// the first letter's cell and is rotated about that point.
type Overlay struct {
	Length   float64 `json:"length"`   // px
	StartX   float64 `json:"startX"`   // px from the grid's left edge
	StartY   float64 `json:"startY"`   // px from the grid's top edge
	Rotation float64 `json:"rotation"` // degrees, clockwise from +x
}

// CellSize derives the pixel size of one cell from the rendered grid width.
// Cells are assumed square.
func CellSize(gridWidthPx float64, size int) float64 {
	if size <= 0 {
		return 0
	}
	return gridWidthPx / float64(size)
}

// OverlayFor computes the line from the centre of the placement's first
// cell to the centre of its last cell.
func OverlayFor(p Placement, cellPx float64) Overlay {
	if len(p.Cells) == 0 {
		return Overlay{}
	}
	sx, sy := cellCenter(p.Start(), cellPx)
	ex, ey := cellCenter(p.End(), cellPx)
	dx, dy := ex-sx, ey-sy
	return Overlay{
		Length:   math.Hypot(dx, dy),
		StartX:   sx,
		StartY:   sy,
		Rotation: math.Atan2(dy, dx) * 180 / math.Pi,
	}
}

func cellCenter(c Coord, cellPx float64) (x, y float64) {
	return float64(c.Col)*cellPx + cellPx/2, float64(c.Row)*cellPx + cellPx/2
}
