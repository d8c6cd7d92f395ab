package tracking

import "image"

const (
	screenMargin = 10
	// bottomExtra keeps the cursor clear of a taskbar along the bottom edge.
	bottomExtra = 5
)

// ClampToScreen keeps p inside bounds with a 10px margin, 15px at the bottom.
// The result satisfies margin <= x < width-margin and
// margin <= y < height-margin-5, relative to bounds.Min.
func ClampToScreen(p image.Point, bounds image.Rectangle) image.Point {
	minX := bounds.Min.X + screenMargin
	minY := bounds.Min.Y + screenMargin
	maxX := bounds.Max.X - screenMargin - 1
	maxY := bounds.Max.Y - screenMargin - bottomExtra - 1

	p.X = max(minX, min(maxX, p.X))
	p.Y = max(minY, min(maxY, p.Y))
	return p
}
