package tui

import (
	"math"

	"github.com/samwiegames/overheat/internal/domain/popup"
	"github.com/samwiegames/overheat/internal/engine"
)

// Rect is a cell rectangle on screen.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether the cell (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Layout maps the simulation's area units onto terminal cells. Row 0 is the
// status bar, the last three rows hold the lane, the inventory and the help
// line; everything in between is the popup field.
type Layout struct {
	Width, Height int

	areaW, areaH float64
	laneSpan     float64
	zoneHalf     float64
}

// NewLayout builds a layout for a w x h terminal.
func NewLayout(w, h int, t engine.Tuning) Layout {
	return Layout{
		Width:    w,
		Height:   h,
		areaW:    t.AreaWidth,
		areaH:    t.AreaHeight,
		laneSpan: t.LaneWidth/2 + t.LaneEdgeMargin,
		zoneHalf: t.CatchZoneHalfWidth,
	}
}

// Field is the popup area.
func (l Layout) Field() Rect {
	h := l.Height - 4
	if h < 1 {
		h = 1
	}
	return Rect{X: 0, Y: 1, W: l.Width, H: h}
}

// LaneRow, InventoryRow and HelpRow are the bottom rows.
func (l Layout) LaneRow() int      { return l.Height - 3 }
func (l Layout) InventoryRow() int { return l.Height - 2 }
func (l Layout) HelpRow() int      { return l.Height - 1 }

// PopupRect places a popup on the field. Area y grows upwards.
func (l Layout) PopupRect(p popup.Popup) Rect {
	f := l.Field()
	sx := float64(f.W) / l.areaW
	sy := float64(f.H) / l.areaH

	cx := float64(f.X) + (p.Position.X+l.areaW/2)*sx
	cy := float64(f.Y) + (l.areaH/2-p.Position.Y)*sy
	hw := p.HalfWidth * sx
	hh := p.HalfHeight * sy

	r := Rect{
		X: int(math.Round(cx - hw)),
		Y: int(math.Round(cy - hh)),
		W: int(math.Round(2 * hw)),
		H: int(math.Round(2 * hh)),
	}
	if r.W < 3 {
		r.W = 3
	}
	if r.H < 3 {
		r.H = 3
	}
	return r
}

// LaneColumn maps a token offset to a column. Tokens enter on the right.
func (l Layout) LaneColumn(offset float64) int {
	if l.laneSpan <= 0 || l.Width <= 1 {
		return 0
	}
	frac := (offset + l.laneSpan) / (2 * l.laneSpan)
	return int(math.Round(frac * float64(l.Width-1)))
}

// ZoneColumns returns the first and last column of the catch zone.
func (l Layout) ZoneColumns() (int, int) {
	return l.LaneColumn(-l.zoneHalf), l.LaneColumn(l.zoneHalf)
}

// PopupAt returns the topmost popup under the cell (x, y). Popups are drawn
// in id order, so the highest id wins.
func (l Layout) PopupAt(popups []popup.Popup, x, y int) (popup.ID, bool) {
	var best popup.ID
	found := false
	for _, p := range popups {
		if l.PopupRect(p).Contains(x, y) && (!found || p.ID > best) {
			best = p.ID
			found = true
		}
	}
	return best, found
}
