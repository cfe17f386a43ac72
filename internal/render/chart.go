// Package render turns dashboard data into display models: the category
// donut chart and the expense table.
package render

import (
	"math"
	"strconv"
	"sync"

	"budgetboard/internal/core"
)

// Palette is the fixed colour cycle of the category chart.
var Palette = []string{
	"#4e73df", "#1cc88a", "#36b9cc", "#f6c23e", "#e74a3b",
	"#858796", "#5a5c69", "#fd7e14", "#6f42c1", "#e83e8c",
}

const (
	// Donut geometry in SVG user units. A 70% cutout leaves a ring 30% of the
	// outer radius wide; the stroke is drawn on the ring's centre line.
	outerRadius = 100.0
	cutout      = 0.70
	ringWidth   = outerRadius * (1 - cutout)
	ringRadius  = outerRadius - ringWidth/2
)

// Circumference of the ring centre line.
var Circumference = 2 * math.Pi * ringRadius

// Geometry is the donut layout in SVG attribute form.
type Geometry struct {
	Size      string
	Center    string
	Radius    string
	RingWidth string
}

// DonutGeometry returns the layout shared by every chart.
func DonutGeometry() Geometry {
	return Geometry{
		Size:      formatFloat(outerRadius * 2),
		Center:    formatFloat(outerRadius),
		Radius:    formatFloat(ringRadius),
		RingWidth: formatFloat(ringWidth),
	}
}

// Segment is one category slice of the donut.
type Segment struct {
	Label  string
	Value  core.Decimal
	Color  string
	Share  float64 // 0..1 of the chart total
	Offset float64 // arc length before this segment
	Length float64 // arc length of this segment
}

// DashArray is the SVG stroke-dasharray drawing this segment.
func (s Segment) DashArray() string {
	return formatFloat(s.Length) + " " + formatFloat(Circumference-s.Length)
}

// DashOffset is the SVG stroke-dashoffset placing this segment.
func (s Segment) DashOffset() string {
	return formatFloat(-s.Offset)
}

// SharePercent is the segment share for the legend, e.g. "80.0%".
func (s Segment) SharePercent() string {
	return strconv.FormatFloat(s.Share*100, 'f', 1, 64) + "%"
}

// Chart is a rendered donut bound to a canvas until destroyed.
type Chart struct {
	Segments []Segment
	Total    core.Decimal

	mu        sync.Mutex
	destroyed bool
}

// Destroy detaches the chart. It is safe to call more than once.
func (c *Chart) Destroy() {
	c.mu.Lock()
	c.destroyed = true
	c.Segments = nil
	c.mu.Unlock()
}

// Destroyed reports whether Destroy has been called.
func (c *Chart) Destroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}

// Geometry helpers for templates.
func (c *Chart) Radius() float64    { return ringRadius }
func (c *Chart) RingWidth() float64 { return ringWidth }
func (c *Chart) Size() float64      { return outerRadius * 2 }

// NewChart lays out one segment per category in input order. Colours cycle
// through Palette by index. Categories with a non-positive amount keep their
// legend entry but get no arc.
func NewChart(data core.CategoryTotals) *Chart {
	var positive float64
	for _, ca := range data {
		if v := ca.Amount.Float(); v > 0 {
			positive += v
		}
	}

	segments := make([]Segment, 0, len(data))
	offset := 0.0
	for i, ca := range data {
		seg := Segment{
			Label:  ca.Name,
			Value:  ca.Amount,
			Color:  Palette[i%len(Palette)],
			Offset: offset,
		}
		if v := ca.Amount.Float(); v > 0 && positive > 0 {
			seg.Share = v / positive
			seg.Length = seg.Share * Circumference
		}
		offset += seg.Length
		segments = append(segments, seg)
	}
	return &Chart{Segments: segments, Total: data.Total()}
}

// Canvas is the drawing surface of the category chart. It holds at most one
// chart at a time.
type Canvas struct {
	id string

	mu       sync.Mutex
	current  *Chart
	attached int
}

// NewCanvas returns an empty canvas for the element id.
func NewCanvas(id string) *Canvas {
	return &Canvas{id: id}
}

// ID returns the element id the canvas is bound to.
func (c *Canvas) ID() string {
	return c.id
}

// Render destroys the current chart, then draws data. Empty data leaves the
// canvas blank and returns nil.
func (c *Canvas) Render(data core.CategoryTotals) *Chart {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearLocked()
	if len(data) == 0 {
		return nil
	}
	c.current = NewChart(data)
	c.attached++
	return c.current
}

// Clear destroys the current chart, if any.
func (c *Canvas) Clear() {
	c.mu.Lock()
	c.clearLocked()
	c.mu.Unlock()
}

func (c *Canvas) clearLocked() {
	if c.current == nil {
		return
	}
	c.current.Destroy()
	c.current = nil
	c.attached--
}

// Current returns the attached chart or nil.
func (c *Canvas) Current() *Chart {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Attached returns the number of charts currently attached to the canvas.
func (c *Canvas) Attached() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attached
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}
