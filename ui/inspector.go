package ui

import (
	"fmt"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/evosoup/game"
	"github.com/pthm-cable/evosoup/renderer"
)

// inspectorSections lays out the organism detail panel.
var inspectorSections = []SectionDescriptor[game.OrganismDetail]{
	{
		Title: "Organism",
		Fields: []FieldDescriptor[game.OrganismDetail]{
			{Label: "ID", Widget: WidgetText, Text: func(d *game.OrganismDetail) string { return fmt.Sprintf("#%d", d.ID) }},
			{Label: "Pool", Widget: WidgetText, Text: func(d *game.OrganismDetail) string { return fmt.Sprint(d.Pool) }},
			{Label: "Origin", Widget: WidgetText, Text: func(d *game.OrganismDetail) string { return d.Method.String() }},
			{Label: "Age", Widget: WidgetText, Text: func(d *game.OrganismDetail) string {
				return fmt.Sprintf("%d ticks (born %d)", d.Age, d.BirthTick)
			}},
			{Label: "Position", Widget: WidgetText, Text: func(d *game.OrganismDetail) string {
				return fmt.Sprintf("%.0f, %.0f", d.X, d.Y)
			}},
		},
	},
	{
		Title: "Energy",
		Fields: []FieldDescriptor[game.OrganismDetail]{
			{Label: "Energy", Widget: WidgetBar, Range: UnitRange, Value: func(d *game.OrganismDetail) float64 {
				return d.Energy / d.MaxEnergy
			}},
			{Label: "Fitness", Widget: WidgetText, Format: "%.3f", Value: func(d *game.OrganismDetail) float64 { return d.Fitness }},
			{Label: "Parent fit", Widget: WidgetText, Format: "%.3f", Value: func(d *game.OrganismDetail) float64 { return d.ParentFitness }},
			{Label: "Cooldown", Widget: WidgetText, Format: "%.0f", Value: func(d *game.OrganismDetail) float64 {
				return float64(d.AttackCooldown)
			}},
		},
	},
	{
		Title: "Lifetime",
		Fields: []FieldDescriptor[game.OrganismDetail]{
			{Label: "Gained", Widget: WidgetText, Format: "%.3f", Value: func(d *game.OrganismDetail) float64 { return d.Lifetime.EnergyGained }},
			{Label: "Spent", Widget: WidgetText, Format: "%.3f", Value: func(d *game.OrganismDetail) float64 { return d.Lifetime.EnergySpent }},
			{Label: "Food eaten", Widget: WidgetText, Format: "%.0f", Value: func(d *game.OrganismDetail) float64 {
				return float64(d.Lifetime.FoodEaten)
			}},
			{Label: "Attacks", Widget: WidgetText, Text: func(d *game.OrganismDetail) string {
				return fmt.Sprintf("%d (dealt %.2f, taken %.2f)", d.Lifetime.AttacksLanded, d.Lifetime.DamageDealt, d.Lifetime.DamageTaken)
			}},
			{Label: "Shared", Widget: WidgetText, Text: func(d *game.OrganismDetail) string {
				return fmt.Sprintf("out %.2f, in %.2f", d.Lifetime.EnergyShared, d.Lifetime.EnergyReceived)
			}},
		},
	},
	{
		Title: "Brain",
		Fields: []FieldDescriptor[game.OrganismDetail]{
			{Label: "Kind", Widget: WidgetText, Text: func(d *game.OrganismDetail) string { return d.Shape.Kind.String() }},
			{Label: "Params", Widget: WidgetText, Text: func(d *game.OrganismDetail) string { return fmt.Sprint(d.Shape.NumParams()) }},
			{Label: "Tensors", Widget: WidgetText, Text: func(d *game.OrganismDetail) string { return shapeSummary(d, 4) }},
		},
	},
}

// shapeSummary lists the first n tensor dimensions.
func shapeSummary(d *game.OrganismDetail, n int) string {
	parts := make([]string, 0, n+1)
	for i, dims := range d.Shape.Dims {
		if i == n {
			parts = append(parts, "...")
			break
		}
		parts = append(parts, fmt.Sprintf("%dx%d", dims[0], dims[1]))
	}
	return strings.Join(parts, " ")
}

// memorySection shows the recurrent memory slots as signed bars.
func memorySection(d *game.OrganismDetail) SectionDescriptor[game.OrganismDetail] {
	sd := SectionDescriptor[game.OrganismDetail]{Title: "Memory"}
	for i := range d.Memory {
		sd.Fields = append(sd.Fields, FieldDescriptor[game.OrganismDetail]{
			Label:  fmt.Sprintf("m%d", i),
			Widget: WidgetCenteredBar,
			Range:  SignedRange,
			Value:  func(d *game.OrganismDetail) float64 { return d.Memory[i] },
		})
	}
	return sd
}

// signalLabels names the first broadcast channels.
var signalLabels = [...]string{"Red", "Green", "Blue"}

// signalSection shows the broadcast signal channels.
func signalSection(d *game.OrganismDetail) SectionDescriptor[game.OrganismDetail] {
	sd := SectionDescriptor[game.OrganismDetail]{Title: "Signal"}
	for i := range d.Signal {
		label := fmt.Sprintf("s%d", i)
		if i < len(signalLabels) {
			label = signalLabels[i]
		}
		sd.Fields = append(sd.Fields, FieldDescriptor[game.OrganismDetail]{
			Label:  label,
			Widget: WidgetBar,
			Range:  UnitRange,
			Value:  func(d *game.OrganismDetail) float64 { return d.Signal[i] },
		})
	}
	return sd
}

// detailSections returns the static sections plus the signal and memory
// sections when the brain has them.
func detailSections(d *game.OrganismDetail) []SectionDescriptor[game.OrganismDetail] {
	sections := inspectorSections[:len(inspectorSections):len(inspectorSections)]
	if len(d.Signal) > 0 {
		sections = append(sections, signalSection(d))
	}
	if len(d.Memory) > 0 {
		sections = append(sections, memorySection(d))
	}
	return sections
}

// Inspector renders the selected organism's details.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
	pools    int
}

// NewInspector creates an inspector panel; pools sets the header color range.
func NewInspector(x, y, width int32, pools int) *Inspector {
	return &Inspector{renderer: NewRenderer(), x: x, y: y, width: width, pools: pools}
}

// SetPosition updates the panel position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x, ins.y = x, y
}

// Width returns the panel width.
func (ins *Inspector) Width() int32 { return ins.width }

// Draw renders the panel and returns its bottom edge.
func (ins *Inspector) Draw(d *game.OrganismDetail) int32 {
	r := ins.renderer
	pad := r.Theme.Padding
	content := ins.width - pad*2

	sections := detailSections(d)
	height := pad*2 + r.Theme.LineHeight + 6
	for _, sd := range sections {
		height += SectionHeight(r, sd, d)
	}
	r.DrawPanel(ins.x, ins.y, ins.width, height)

	x, y := ins.x+pad, ins.y+pad
	rl.DrawRectangle(x, y+3, 12, 12, renderer.PoolColor(d.Pool, ins.pools))
	rl.DrawText(fmt.Sprintf("Organism #%d", d.ID), x+18, y, 18, rl.White)
	y += r.Theme.LineHeight + 6

	for _, sd := range sections {
		y = DrawSection(r, x, y, sd, d, content)
	}
	return ins.y + height
}
