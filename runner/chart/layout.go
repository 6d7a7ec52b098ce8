package chart

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Geometry, in SVG user units
const (
	YLabelsWidth   = 60.0
	TitleHeight    = 20.0
	SubtitleHeight = 15.0
	TitleGap       = 10.0

	GraphWidth    = 300.0
	GraphYPadding = 4.0

	BarHeight = 10.0
	BarGap    = 2.0
	GroupGap  = 7.0

	ValueLabelsGap        = 2.0
	ValueLabelsWidth      = 30.0
	PercentLabelsWidth    = 35.0
	ValueLabelsMinXOffset = 40.0

	ErrorBarThickness = 0.75
	ErrorBarHeight    = BarHeight / 2.5

	// AverageCharacterWidth estimates label width; it is not derived from font metrics.
	AverageCharacterWidth = 6.0
)

const (
	labelInsideBarOffset = 3.0
	labelOutsideBarGap   = 5.0
	groupLabelGap        = 3.0
	textBaselineInset    = 2.0
)

// Rect is an axis-aligned rectangle
type Rect struct {
	X, Y, Width, Height float64
}

// Layout is the resolved geometry of a chart
type Layout struct {
	Width  float64
	Height float64

	GraphLeft   float64
	GraphRight  float64
	GraphTop    float64
	GraphBottom float64

	TitleX    float64
	TitleY    float64
	SubtitleY float64

	// XScale converts nanoseconds to user units
	XScale float64

	Title    string
	Subtitle string
	Groups   []GroupLayout
}

// GroupLayout positions a group label and its bars
type GroupLayout struct {
	Lines  []string
	LabelX float64
	LabelY float64
	Bars   []BarLayout
}

// BarLayout positions one bar with its error bar and text
type BarLayout struct {
	Name    string
	Classes []string

	Bar      Rect
	ErrorBar Rect
	LeftCap  Rect
	RightCap Rect

	LabelX float64
	ValueX float64
	TextY  float64

	ValueText string
	// PercentText is empty unless the bar compares against a sibling
	PercentText    string
	PercentClasses []string
}

// CenterY is the vertical center of the bar
func (b BarLayout) CenterY() float64 {
	return b.Bar.Y + b.Bar.Height/2
}

// NewLayout validates c and computes its geometry
func NewLayout(c Chart) (*Layout, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	percentWidth := 0.0
	if c.HasPercentDifferences() {
		percentWidth = PercentLabelsWidth
	}

	bars := 0
	for _, group := range c.Groups {
		bars += len(group.Bars)
	}

	l := &Layout{
		GraphLeft: YLabelsWidth,
		GraphTop:  TitleHeight + SubtitleHeight + TitleGap,
		Title:     c.Title,
		Subtitle:  c.Subtitle,
	}
	l.GraphRight = l.GraphLeft + GraphWidth
	l.GraphBottom = l.GraphTop +
		float64(bars)*(BarHeight+BarGap) +
		float64(len(c.Groups)-1)*GroupGap +
		GraphYPadding*2
	l.Width = GraphWidth + YLabelsWidth + 2
	l.Height = l.GraphBottom + 2
	l.TitleX = ((l.GraphLeft - YLabelsWidth/2) + l.GraphRight) / 2
	l.TitleY = TitleHeight
	l.SubtitleY = TitleHeight + SubtitleHeight
	l.XScale = (GraphWidth - (ValueLabelsGap + ValueLabelsWidth + percentWidth)) / c.MaximumValue()

	y := l.GraphTop + GraphYPadding + BarGap
	for _, group := range c.Groups {
		l.Groups = append(l.Groups, l.layoutGroup(group, y, percentWidth))
		y += float64(len(group.Bars))*(BarHeight+BarGap) + GroupGap
	}
	return l, nil
}

func (l *Layout) width(ns float64) float64 {
	return ns * l.XScale
}

func (l *Layout) layoutGroup(group Group, top, percentWidth float64) GroupLayout {
	first := top
	last := top + float64(len(group.Bars)-1)*(BarHeight+BarGap)

	gl := GroupLayout{
		Lines:  strings.Split(group.Name, "\n"),
		LabelX: l.GraphLeft - groupLabelGap,
		LabelY: (first + last + BarHeight) / 2,
	}

	valueXOffset := 0.0
	for _, bar := range group.Bars {
		valueXOffset = math.Max(valueXOffset, l.width(bar.Max))
	}
	valueXOffset = math.Max(valueXOffset+ValueLabelsGap+ValueLabelsWidth, ValueLabelsMinXOffset)

	labelXOffset := labelInsideBarOffset
	labelsOutside := false
	for _, bar := range group.Bars {
		if float64(utf8.RuneCountInString(bar.Name))*AverageCharacterWidth > valueXOffset {
			labelsOutside = true
			break
		}
	}
	if labelsOutside {
		labelXOffset = valueXOffset + labelOutsideBarGap
		if group.hasPercentDifferences() {
			labelXOffset += percentWidth
		}
	}

	for i, bar := range group.Bars {
		y := top + float64(i)*(BarHeight+BarGap)
		center := y + BarHeight/2

		classes := append([]string{}, bar.Classes...)
		if bar.Emphasize {
			classes = append(classes, "emphasize-bar")
		}
		if labelsOutside {
			classes = append(classes, "bar-label-outside-bar")
		}

		bl := BarLayout{
			Name:    bar.Name,
			Classes: classes,
			Bar:     Rect{X: l.GraphLeft, Y: y, Width: l.width(bar.Value), Height: BarHeight},
			ErrorBar: Rect{
				X:      l.GraphLeft + l.width(bar.Min) + ErrorBarThickness/2,
				Y:      center - ErrorBarThickness/2,
				Width:  math.Max(0, l.width(bar.Max-bar.Min)-ErrorBarThickness),
				Height: ErrorBarThickness,
			},
			LeftCap: Rect{
				X:      l.GraphLeft + l.width(bar.Min) - ErrorBarThickness/2,
				Y:      center - ErrorBarHeight/2,
				Width:  ErrorBarThickness,
				Height: ErrorBarHeight,
			},
			RightCap: Rect{
				X:      l.GraphLeft + l.width(bar.Max) - ErrorBarThickness/2,
				Y:      center - ErrorBarHeight/2,
				Width:  ErrorBarThickness,
				Height: ErrorBarHeight,
			},
			LabelX:    l.GraphLeft + labelXOffset,
			ValueX:    l.GraphLeft + valueXOffset,
			TextY:     y + BarHeight - textBaselineInset,
			ValueText: FormatNS(bar.Value),
		}
		if bar.CompareTo != nil {
			baseline := group.Bars[*bar.CompareTo]
			bl.PercentText = FormatPercentDifference(bar.Value, baseline.Value)
			bl.PercentClasses = baseline.Classes
		}
		gl.Bars = append(gl.Bars, bl)
	}
	return gl
}
