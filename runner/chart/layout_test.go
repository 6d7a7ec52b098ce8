package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoBarChart() Chart {
	return Chart{
		Title:    "Title",
		Subtitle: "Subtitle",
		Groups: []Group{{
			Name: "build+test\nw/ deps",
			Bars: []Bar{
				{Name: "a", Value: 100, Min: 50, Max: 200},
				{Name: "b", Value: 100, Min: 100, Max: 100},
			},
		}},
	}
}

func TestLayoutDimensions(t *testing.T) {
	l, err := NewLayout(twoBarChart())
	require.NoError(t, err)

	assert.Equal(t, 362.0, l.Width)
	assert.Equal(t, 45.0, l.GraphTop)
	assert.Equal(t, 77.0, l.GraphBottom)
	assert.Equal(t, 79.0, l.Height)
	assert.Equal(t, 195.0, l.TitleX)
	assert.Equal(t, 20.0, l.TitleY)
	assert.Equal(t, 35.0, l.SubtitleY)
	assert.InDelta(t, 268.0/200.0, l.XScale, 1e-12)
}

func TestEqualBarsAreOneBarPitchApart(t *testing.T) {
	l, err := NewLayout(twoBarChart())
	require.NoError(t, err)
	bars := l.Groups[0].Bars
	require.Len(t, bars, 2)

	assert.Equal(t, BarHeight+BarGap, bars[1].CenterY()-bars[0].CenterY())
	assert.Equal(t, bars[0].Bar.Width, bars[1].Bar.Width)
}

func TestBarPositions(t *testing.T) {
	c := Chart{Groups: []Group{
		{Name: "first", Bars: []Bar{{Name: "a", Value: 1, Min: 1, Max: 1}, {Name: "b", Value: 1, Min: 1, Max: 1}}},
		{Name: "second", Bars: []Bar{{Name: "c", Value: 1, Min: 1, Max: 1}}},
	}}
	l, err := NewLayout(c)
	require.NoError(t, err)

	assert.Equal(t, 51.0, l.Groups[0].Bars[0].Bar.Y)
	assert.Equal(t, 63.0, l.Groups[0].Bars[1].Bar.Y)
	// two bars of the first group plus the group gap
	assert.Equal(t, 51.0+2*12+7, l.Groups[1].Bars[0].Bar.Y)
	assert.Equal(t, 45.0+3*12+7+8, l.GraphBottom)
}

func TestGroupLabel(t *testing.T) {
	l, err := NewLayout(twoBarChart())
	require.NoError(t, err)
	group := l.Groups[0]

	assert.Equal(t, []string{"build+test", "w/ deps"}, group.Lines)
	assert.Equal(t, 57.0, group.LabelX)
	// midpoint of the first bar's top and the last bar's bottom
	assert.Equal(t, (51.0+63.0+10.0)/2, group.LabelY)
	assert.Equal(t, (group.Bars[0].CenterY()+group.Bars[1].CenterY())/2, group.LabelY)
}

func TestErrorBarGeometry(t *testing.T) {
	l, err := NewLayout(twoBarChart())
	require.NoError(t, err)
	bar := l.Groups[0].Bars[0]
	scale := l.XScale

	assert.InDelta(t, 100*scale, bar.Bar.Width, 1e-9)
	assert.InDelta(t, 60+50*scale+ErrorBarThickness/2, bar.ErrorBar.X, 1e-9)
	assert.InDelta(t, 150*scale-ErrorBarThickness, bar.ErrorBar.Width, 1e-9)
	assert.InDelta(t, 56-ErrorBarThickness/2, bar.ErrorBar.Y, 1e-9)
	assert.InDelta(t, 60+50*scale-ErrorBarThickness/2, bar.LeftCap.X, 1e-9)
	assert.InDelta(t, 60+200*scale-ErrorBarThickness/2, bar.RightCap.X, 1e-9)
	assert.InDelta(t, 56-ErrorBarHeight/2, bar.LeftCap.Y, 1e-9)
	assert.Equal(t, ErrorBarHeight, bar.RightCap.Height)

	// min == max collapses the horizontal bar instead of going negative
	assert.Equal(t, 0.0, l.Groups[0].Bars[1].ErrorBar.Width)
}

func TestValueAndLabelPlacement(t *testing.T) {
	l, err := NewLayout(twoBarChart())
	require.NoError(t, err)
	bar := l.Groups[0].Bars[0]

	assert.InDelta(t, 60+200*l.XScale+ValueLabelsGap+ValueLabelsWidth, bar.ValueX, 1e-9)
	assert.Equal(t, 63.0, bar.LabelX)
	assert.Equal(t, 51.0+BarHeight-2, bar.TextY)
	assert.Equal(t, "1ms", bar.ValueText)
	assert.NotContains(t, bar.Classes, "bar-label-outside-bar")
}

func TestLongLabelsMoveOutsideBars(t *testing.T) {
	c := Chart{
		ForceMaximumValue: floatPtr(1000),
		Groups: []Group{{
			Name: "g",
			Bars: []Bar{
				{Name: "a long bar name", Value: 10, Min: 10, Max: 10, Classes: []string{"color-1-of-2"}},
				{Name: "b", Value: 10, Min: 10, Max: 10, Emphasize: true},
			},
		}},
	}
	l, err := NewLayout(c)
	require.NoError(t, err)
	bars := l.Groups[0].Bars

	// the value column sits at its minimum offset for short bars
	assert.Equal(t, 60.0+ValueLabelsMinXOffset, bars[0].ValueX)
	assert.Equal(t, 60.0+ValueLabelsMinXOffset+5, bars[0].LabelX)
	assert.Equal(t, bars[0].LabelX, bars[1].LabelX)
	assert.Equal(t, []string{"color-1-of-2", "bar-label-outside-bar"}, bars[0].Classes)
	assert.Equal(t, []string{"emphasize-bar", "bar-label-outside-bar"}, bars[1].Classes)
}

func TestPercentDifferences(t *testing.T) {
	c := Chart{
		ForceMaximumValue: floatPtr(1e6),
		Groups: []Group{{
			Name: "g",
			Bars: []Bar{
				{Name: "baseline bar", Value: 1000, Min: 1000, Max: 1000, Classes: []string{"color-1-of-2"}},
				{Name: "b", Value: 1050, Min: 1050, Max: 1050, CompareTo: intPtr(0), Classes: []string{"color-2-of-2"}},
			},
		}},
	}
	l, err := NewLayout(c)
	require.NoError(t, err)
	bars := l.Groups[0].Bars

	assert.InDelta(t, (GraphWidth-(ValueLabelsGap+ValueLabelsWidth+PercentLabelsWidth))/1e6, l.XScale, 1e-15)
	assert.Empty(t, bars[0].PercentText)
	assert.Equal(t, "+5.0%", bars[1].PercentText)
	assert.Equal(t, []string{"color-1-of-2"}, bars[1].PercentClasses)
	// outside labels also skip the percent column
	assert.Equal(t, 60.0+ValueLabelsMinXOffset+5+PercentLabelsWidth, bars[0].LabelX)
}

func TestLayoutRejectsInvalidChart(t *testing.T) {
	_, err := NewLayout(Chart{})
	assert.ErrorIs(t, err, ErrEmptyChart)
}

func TestLayoutDoesNotWriteIntoBarClasses(t *testing.T) {
	// spare capacity would let a careless append write past the caller's slice
	classes := make([]string, 1, 4)
	classes[0] = "color-1-of-2"
	c := Chart{Groups: []Group{{Name: "g", Bars: []Bar{
		{Name: "a", Value: 1, Min: 1, Max: 1, Classes: classes, Emphasize: true},
	}}}}

	l, err := NewLayout(c)
	require.NoError(t, err)
	assert.Equal(t, []string{"color-1-of-2", "emphasize-bar"}, l.Groups[0].Bars[0].Classes)
	assert.Equal(t, "", classes[:2][1])
}
