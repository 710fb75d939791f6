package render

import (
	"bytes"
	"errors"
	"fmt"
	"github.com/kcz17/clockface/face"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/vgsvg"
	"html"
	"image/color"
	"io"
	"math"
)

// Options sizes and colours the clock face.
type Options struct {
	Size       vg.Length
	FontSize   vg.Length
	Foreground color.Color
	Background color.Color
	SecondHand color.Color
}

func DefaultOptions() Options {
	return Options{
		Size:       4 * vg.Inch,
		FontSize:   9,
		Foreground: color.Black,
		Background: color.White,
		SecondHand: color.RGBA{R: 0xd0, G: 0x20, B: 0x20, A: 0xff},
	}
}

// Hand lengths and widths relative to the face radius.
const (
	hourHandLength   = 0.5
	minuteHandLength = 0.75
	secondHandLength = 0.85
	hourHandWidth    = 0.045
	minuteHandWidth  = 0.03
	secondHandWidth  = 0.01
)

// SVG draws state as an analog clock face and writes it to w as a standalone
// SVG document. The root element carries the hand positions as style
// properties for stylesheets which animate the hands, and the hands are also
// drawn at those positions. The raw timestamp is written into a text node
// below the centre.
func SVG(w io.Writer, state face.State, opts Options) error {
	if opts.Size <= 0 {
		return errors.New("render.SVG() expected positive size")
	}

	c := vgsvg.New(opts.Size, opts.Size)
	drawFace(c, state, opts)

	var inner bytes.Buffer
	if _, err := c.WriteTo(&inner); err != nil {
		return fmt.Errorf("could not write vgsvg canvas: %w", err)
	}

	// vgsvg writes a full document including an XML prolog; the canvas is
	// nested inside our own root so the style properties can be set on it.
	body := inner.Bytes()
	if i := bytes.Index(body, []byte("<svg")); i > 0 {
		body = body[i:]
	}

	size := opts.Size.Points()
	if _, err := fmt.Fprintf(w,
		`<svg xmlns="http://www.w3.org/2000/svg" class="clockface" width="%gpt" height="%gpt" viewBox="0 0 %g %g" style="%s" data-time="%s">`+"\n",
		size, size, size, size, state.Hands.Style(), html.EscapeString(state.Text),
	); err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</svg>\n")
	return err
}

func drawFace(c vg.Canvas, state face.State, opts Options) {
	size := opts.Size
	center := vg.Point{X: size / 2, Y: size / 2}
	radius := size/2 - size/40

	// Dial.
	c.SetColor(opts.Background)
	c.Fill(circle(center, radius))
	c.SetColor(opts.Foreground)
	c.SetLineWidth(radius / 60)
	c.Stroke(circle(center, radius))

	// Minute and hour markers.
	for i := 0; i < 60; i++ {
		inner := 0.94
		c.SetLineWidth(radius / 120)
		if i%5 == 0 {
			inner = 0.86
			c.SetLineWidth(radius / 40)
		}
		var p vg.Path
		p.Move(onDial(center, radius*vg.Length(inner), float64(i*6)))
		p.Line(onDial(center, radius, float64(i*6)))
		c.Stroke(p)
	}

	seconds, minutes, hours := state.Hands.Angles()
	drawHand(c, center, radius*hourHandLength, radius*hourHandWidth, hours, opts.Foreground)
	drawHand(c, center, radius*minuteHandLength, radius*minuteHandWidth, minutes, opts.Foreground)
	drawHand(c, center, radius*secondHandLength, radius*secondHandWidth, seconds, opts.SecondHand)

	c.SetColor(opts.Foreground)
	c.Fill(circle(center, radius*0.04))

	if state.Text != "" {
		fnt := font.DefaultCache.Lookup(plot.DefaultFont, font.Length(opts.FontSize))
		width := fnt.Width(state.Text)
		c.SetColor(opts.Foreground)
		c.FillString(fnt, vg.Point{X: center.X - width/2, Y: center.Y - radius*0.45}, state.Text)
	}
}

func drawHand(c vg.Canvas, center vg.Point, length, width vg.Length, angle float64, clr color.Color) {
	c.SetColor(clr)
	c.SetLineWidth(width)
	var p vg.Path
	// Hands overhang the centre slightly, as on a real clock.
	p.Move(onDial(center, length/8, angle+180))
	p.Line(onDial(center, length, angle))
	c.Stroke(p)
}

// onDial returns the point at distance r from center, at angle degrees
// clockwise from twelve o'clock. The canvas origin is the bottom left.
func onDial(center vg.Point, r vg.Length, angle float64) vg.Point {
	rad := angle * math.Pi / 180
	return vg.Point{
		X: center.X + r*vg.Length(math.Sin(rad)),
		Y: center.Y + r*vg.Length(math.Cos(rad)),
	}
}

func circle(center vg.Point, r vg.Length) vg.Path {
	var p vg.Path
	p.Move(vg.Point{X: center.X + r, Y: center.Y})
	p.Arc(center, r, 0, 2*math.Pi)
	p.Close()
	return p
}
