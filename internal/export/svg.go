// Package export writes frames and run series as standalone SVG files.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/san-kum/msgviz/internal/entity"
	"github.com/san-kum/msgviz/internal/render"
)

const background = "#0a0a0a"

// Palette picks the fill for a visual given its kind and own style color.
type Palette func(kind entity.Kind, color string) string

// Frame writes every visual in sink as a circle on a width x height canvas.
// Fully transparent visuals are skipped.
func Frame(w io.Writer, sink *render.MemorySink, width, height float64, palette Palette) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)

	sink.Each(func(_ render.Handle, v render.Visual) {
		if v.Opacity <= 0 || !entity.Finite(v.Pos.X) || !entity.Finite(v.Pos.Y) {
			return
		}
		fill := v.Style.Color
		if palette != nil {
			fill = palette(v.Kind, v.Style.Color)
		}
		r := v.Style.Radius * v.Scale
		if r <= 0 {
			r = 1
		}
		fmt.Fprintf(bw, `<circle class="%s" cx="%.1f" cy="%.1f" r="%.1f" fill="%s" fill-opacity="%.2f"/>
`, v.Kind, v.Pos.X, v.Pos.Y, r, fill, entity.Clamp(v.Opacity, 0, 1))
	})

	bw.WriteString("</svg>\n")
	return bw.Flush()
}

// FrameFile is Frame into a new file at path.
func FrameFile(path string, sink *render.MemorySink, width, height float64, palette Palette) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Frame(f, sink, width, height, palette); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Series draws values as a polyline scaled to fill the canvas with a 10%
// margin. It writes nothing for fewer than two values.
func Series(w io.Writer, values []float64, width, height int, stroke string) error {
	if len(values) < 2 {
		return nil
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	lo -= span * 0.1
	span *= 1.2
	step := float64(width) / float64(len(values)-1)

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`, width, height, width, height, background, stroke)

	for i, v := range values {
		x := float64(i) * step
		y := float64(height) - (v-lo)/span*float64(height)
		if i == 0 {
			fmt.Fprintf(bw, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(bw, " L%.1f,%.1f", x, y)
		}
	}

	bw.WriteString("\"/>\n</svg>\n")
	return bw.Flush()
}
