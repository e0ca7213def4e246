package ui

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Renderer draws widgets with a consistent theme.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawTitle draws a panel title and returns the next Y.
func (r *Renderer) DrawTitle(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, 16, rl.White)
	return y + r.Theme.LineHeight + 4
}

// DrawSectionHeader draws a section header and returns the next Y.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	return y + r.Theme.LineHeight
}

// DrawLabelValue draws a label and value on one line.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawText(value, x+r.Theme.LabelWidth, y, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight
}

// DrawBar draws a bar for value within rng.
func (r *Renderer) DrawBar(x, y int32, label string, value float64, rng FieldRange, width int32) int32 {
	frac := (value - rng.Min) / (rng.Max - rng.Min)
	frac = min(max(frac, 0), 1)

	barX := x + r.Theme.LabelWidth
	barWidth := width - r.Theme.LabelWidth - 50

	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawRectangle(barX, y+2, barWidth, r.Theme.BarHeight, r.Theme.BarBg)

	fill := r.Theme.BarFillHigh
	if frac < 0.3 {
		fill = r.Theme.BarFillLow
	} else if frac < 0.6 {
		fill = r.Theme.BarFillMedium
	}
	rl.DrawRectangle(barX, y+2, int32(float64(barWidth)*frac), r.Theme.BarHeight, fill)
	rl.DrawText(fmt.Sprintf("%.2f", value), barX+barWidth+5, y, r.Theme.FontSize, r.Theme.ValueColor)

	return y + r.Theme.LineHeight + 2
}

// DrawCenteredBar draws a bar that grows left or right from the middle.
func (r *Renderer) DrawCenteredBar(x, y int32, label string, value float64, rng FieldRange, width int32) int32 {
	barX := x + r.Theme.LabelWidth
	barWidth := width - r.Theme.LabelWidth - 50
	centerX := barX + barWidth/2

	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawRectangle(barX, y+2, barWidth, r.Theme.BarHeight, r.Theme.BarBg)
	rl.DrawLine(centerX, y+2, centerX, y+2+r.Theme.BarHeight, rl.Color{R: 80, G: 80, B: 80, A: 255})

	extent := math.Max(math.Abs(rng.Min), math.Abs(rng.Max))
	frac := 0.0
	if extent > 0 {
		frac = math.Min(math.Abs(value)/extent, 1)
	}
	fillWidth := int32(float64(barWidth/2) * frac)

	fillX, fill := centerX, r.Theme.BarFillPositive
	if value < 0 {
		fillX, fill = centerX-fillWidth, r.Theme.BarFillNegative
	}
	rl.DrawRectangle(fillX, y+2, fillWidth, r.Theme.BarHeight, fill)
	rl.DrawText(fmt.Sprintf("%+.2f", value), barX+barWidth+5, y, r.Theme.FontSize, r.Theme.ValueColor)

	return y + r.Theme.LineHeight + 2
}

// DrawField renders one descriptor against data.
func DrawField[T any](r *Renderer, x, y int32, fd FieldDescriptor[T], data *T, width int32) int32 {
	switch fd.Widget {
	case WidgetText:
		var text string
		if fd.Text != nil {
			text = fd.Text(data)
		} else if fd.Value != nil {
			text = fmt.Sprintf(fd.Format, fd.Value(data))
		}
		return r.DrawLabelValue(x, y, fd.Label, text)
	case WidgetBar:
		return r.DrawBar(x, y, fd.Label, fd.Value(data), fd.Range, width)
	case WidgetCenteredBar:
		return r.DrawCenteredBar(x, y, fd.Label, fd.Value(data), fd.Range, width)
	case WidgetSpacer:
		return y + 6
	}
	return y
}

// DrawSection renders a section header and its fields.
func DrawSection[T any](r *Renderer, x, y int32, sd SectionDescriptor[T], data *T, width int32) int32 {
	if sd.Visible != nil && !sd.Visible(data) {
		return y
	}
	if sd.Title != "" {
		y = r.DrawSectionHeader(x, y, sd.Title)
	}
	for _, fd := range sd.Fields {
		y = DrawField(r, x, y, fd, data, width)
	}
	return y + 4
}

// SectionHeight is the height DrawSection will use.
func SectionHeight[T any](r *Renderer, sd SectionDescriptor[T], data *T) int32 {
	if sd.Visible != nil && !sd.Visible(data) {
		return 0
	}
	h := int32(4)
	if sd.Title != "" {
		h += r.Theme.LineHeight
	}
	for _, fd := range sd.Fields {
		switch fd.Widget {
		case WidgetText:
			h += r.Theme.LineHeight
		case WidgetBar, WidgetCenteredBar:
			h += r.Theme.LineHeight + 2
		case WidgetSpacer:
			h += 6
		}
	}
	return h
}
