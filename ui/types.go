// Package ui draws the viewer's panels and handles its input. Panels are
// described by field descriptors, so the inspector layout lives in data
// rather than in drawing code.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// WidgetType specifies how a field is rendered.
type WidgetType int

const (
	WidgetText        WidgetType = iota // Label and formatted value
	WidgetBar                           // Progress bar over Range
	WidgetCenteredBar                   // Bar growing from the middle of Range
	WidgetSpacer                        // Vertical gap
)

// FieldRange is the value range of a bar widget.
type FieldRange struct {
	Min, Max float64
}

// UnitRange is [0, 1].
var UnitRange = FieldRange{Min: 0, Max: 1}

// SignedRange is [-1, 1].
var SignedRange = FieldRange{Min: -1, Max: 1}

// FieldDescriptor defines how to display one value.
type FieldDescriptor[T any] struct {
	Label  string
	Widget WidgetType
	Format string // Printf format for WidgetText with Value
	Range  FieldRange
	Value  func(*T) float64
	Text   func(*T) string // Overrides Value for WidgetText
}

// SectionDescriptor is a titled group of fields.
type SectionDescriptor[T any] struct {
	Title   string
	Fields  []FieldDescriptor[T]
	Visible func(*T) bool // nil = always
}

// Theme holds UI styling constants.
type Theme struct {
	PanelBg         rl.Color
	PanelBorder     rl.Color
	SectionHeader   rl.Color
	LabelColor      rl.Color
	ValueColor      rl.Color
	BarBg           rl.Color
	BarFill         rl.Color
	BarFillLow      rl.Color
	BarFillMedium   rl.Color
	BarFillHigh     rl.Color
	BarFillNegative rl.Color
	BarFillPositive rl.Color
	Padding         int32
	LineHeight      int32
	LabelWidth      int32
	BarHeight       int32
	FontSize        int32
	HeaderFontSize  int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:         rl.Color{R: 20, G: 25, B: 30, A: 230},
		PanelBorder:     rl.Color{R: 60, G: 70, B: 80, A: 255},
		SectionHeader:   rl.Yellow,
		LabelColor:      rl.LightGray,
		ValueColor:      rl.RayWhite,
		BarBg:           rl.Color{R: 40, G: 40, B: 40, A: 255},
		BarFill:         rl.Color{R: 100, G: 150, B: 200, A: 255},
		BarFillLow:      rl.Color{R: 200, G: 100, B: 100, A: 255},
		BarFillMedium:   rl.Color{R: 200, G: 180, B: 100, A: 255},
		BarFillHigh:     rl.Color{R: 100, G: 200, B: 100, A: 255},
		BarFillNegative: rl.Color{R: 200, G: 100, B: 100, A: 255},
		BarFillPositive: rl.Color{R: 100, G: 200, B: 100, A: 255},
		Padding:         10,
		LineHeight:      16,
		LabelWidth:      90,
		BarHeight:       10,
		FontSize:        12,
		HeaderFontSize:  14,
	}
}
