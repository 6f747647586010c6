// Package export writes scene snapshots and traces as SVG.
package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/san-kum/femsim/internal/viz"
)

const background = "#0a0a0a"

// WireframeSVG draws the projected edges of wf as SVG lines.
func WireframeSVG(w io.Writer, wf *viz.Wireframe, cam *viz.Camera, width, height int, stroke string) error {
	bw := bufio.NewWriter(w)
	header(bw, width, height)
	fmt.Fprintf(bw, "<g stroke=%q stroke-width=\"1\" stroke-linecap=\"round\">\n", stroke)
	for _, s := range viz.ProjectEdges(wf, cam, width, height) {
		fmt.Fprintf(bw, "<line x1=\"%d\" y1=\"%d\" x2=\"%d\" y2=\"%d\"/>\n", s.X1, s.Y1, s.X2, s.Y2)
	}
	bw.WriteString("</g>\n</svg>\n")
	return bw.Flush()
}

// TraceSVG plots ys against xs as a single path scaled to fill the image
// with a 10% margin.
func TraceSVG(w io.Writer, xs, ys []float64, width, height int, stroke string) error {
	n := min(len(xs), len(ys))
	if n < 2 {
		return fmt.Errorf("export: need at least 2 points, got %d", n)
	}

	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := 0; i < n; i++ {
		minX, maxX = min(minX, xs[i]), max(maxX, xs[i])
		minY, maxY = min(minY, ys[i]), max(maxY, ys[i])
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	bw := bufio.NewWriter(w)
	header(bw, width, height)
	fmt.Fprintf(bw, "<path fill=\"none\" stroke=%q stroke-width=\"1.5\" d=\"M", stroke)
	for i := 0; i < n; i++ {
		x := (xs[i] - minX) / rangeX * float64(width)
		y := float64(height) - (ys[i]-minY)/rangeY*float64(height)
		if i > 0 {
			bw.WriteString(" L")
		}
		fmt.Fprintf(bw, "%.1f,%.1f", x, y)
	}
	bw.WriteString("\"/>\n</svg>\n")
	return bw.Flush()
}

func header(w io.Writer, width, height int) {
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}
