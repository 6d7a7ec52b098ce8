package chart

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/template"
)

// svgTemplate renders a Layout. Title and Subtitle are trusted markup; every other
// string goes through the html escaper.
const svgTemplate = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<svg
    xmlns:svg="http://www.w3.org/2000/svg"
    xmlns="http://www.w3.org/2000/svg"
    width="{{num .Width}}"
    height="{{num .Height}}"
    viewBox="0 0 {{num .Width}} {{num .Height}}"
    version="1.1">

    <style>
        text {
            font-family: sans-serif;
            fill: #000;
        }
        @media (prefers-color-scheme: dark) {
            text {
                fill: #fff;
            }
        }

        text.chart-title {
            font-size:{{num .TitleFontSize}}px;
        }
        text.chart-subtitle {
            font-size:{{num .SubtitleFontSize}}px;
            font-style: italic;
        }

        rect.bar,
        rect.bar.color-default {
            fill: #444;
        }
        rect.bar.emphasize-bar {
            fill: #c33;
        }
        .chart-title .color-1-of-2,
        .chart-title .color-1-of-3,
        .bar.color-1-of-2,
        .bar.color-1-of-3,
        .bar-percent-difference.color-1-of-2,
        .bar-label.bar-label-outside-bar.color-1-of-2,
        .bar-label.bar-label-outside-bar.color-1-of-3 {
            fill: #933;
        }
        .bar.color-1-of-2.emphasize-bar,
        .bar.color-1-of-3.emphasize-bar,
        .bar-label.bar-label-outside-bar.color-1-of-2.emphasize-bar,
        .bar-label.bar-label-outside-bar.color-1-of-3.emphasize-bar {
            fill: #c33;
        }
        .bar.color-1-of-2.color-alternate-shade,
        .bar.color-1-of-3.color-alternate-shade,
        .bar-label.bar-label-outside-bar.color-1-of-2.color-alternate-shade,
        .bar-label.bar-label-outside-bar.color-1-of-3.color-alternate-shade {
            fill: #a52;
        }
        .bar.color-1-of-2.color-alternate-shade-2,
        .bar.color-1-of-3.color-alternate-shade-2,
        .bar-label.bar-label-outside-bar.color-1-of-2.color-alternate-shade-2,
        .bar-label.bar-label-outside-bar.color-1-of-3.color-alternate-shade-2 {
            fill: #915;
        }
        .chart-title .color-2-of-2,
        .chart-title .color-2-of-3,
        .bar.color-2-of-2,
        .bar.color-2-of-3,
        .bar-percent-difference.color-2-of-2,
        .bar-percent-difference.color-2-of-3,
        .bar-label.bar-label-outside-bar.color-2-of-2,
        .bar-label.bar-label-outside-bar.color-2-of-3 {
            fill: #339;
        }
        .bar.color-2-of-2.emphasize-bar,
        .bar.color-2-of-3.emphasize-bar,
        .bar-label.bar-label-outside-bar.color-2-of-2.emphasize-bar,
        .bar-label.bar-label-outside-bar.color-2-of-3.emphasize-bar {
            fill: #33c;
        }
        .bar.color-2-of-2.color-alternate-shade,
        .bar.color-2-of-3.color-alternate-shade,
        .bar-label.bar-label-outside-bar.color-2-of-2.color-alternate-shade,
        .bar-label.bar-label-outside-bar.color-2-of-3.color-alternate-shade {
            fill: #52a;
        }
        .bar.color-2-of-2.color-alternate-shade-2,
        .bar.color-2-of-3.color-alternate-shade-2,
        .bar-label.bar-label-outside-bar.color-2-of-2.color-alternate-shade-2,
        .bar-label.bar-label-outside-bar.color-2-of-3.color-alternate-shade-2 {
            fill: #25a;
        }
        .chart-title .color-3-of-3,
        .bar.color-3-of-3,
        .bar-label.bar-label-outside-bar.color-3-of-3 {
            fill: #393;
        }
        .bar.color-3-of-3.emphasize-bar,
        .bar-label.bar-label-outside-bar.color-3-of-3.emphasize-bar {
            fill: #3a3;
        }
        .bar.color-3-of-3.color-alternate-shade,
        .bar-label.bar-label-outside-bar.color-3-of-3.color-alternate-shade {
            fill: #891;
        }
        .bar.color-3-of-3.color-alternate-shade.emphasize-bar,
        .bar-label.bar-label-outside-bar.color-3-of-3.color-alternate-shade.emphasize-bar {
            fill: #8a1;
        }
        .chart-title .color-default,
        .bar-percent-difference.color-default,
        .bar-label.color-default {
            fill: #ccc;
        }

        .bar-label,
        .bar-value {
            font-size: {{num .BarFontSize}}px;
        }
        .bar-value.emphasize-bar,
        .bar-label.emphasize-bar {
            font-weight: bold;
        }

        rect.error-bar {
            fill: rgba(0, 0, 0, 0.35);
        }
        @media (prefers-color-scheme: dark) {
            rect.error-bar {
                fill: rgba(255, 255, 255, 0.35);
            }
        }

        text.group {
            font-size:{{num .BarFontSize}}px;
        }
    </style>

    <text
        class="chart-title"
        text-anchor="middle"
        x="{{num .TitleX}}"
        y="{{num .TitleY}}">{{.Title}}</text>
    <text
        class="chart-subtitle"
        text-anchor="middle"
        x="{{num .TitleX}}"
        y="{{num .SubtitleY}}">{{.Subtitle}}</text>
{{range .Groups}}{{$group := .}}
    <text
        class="group"
        text-anchor="end"
        x="{{num .LabelX}}"
        y="{{num .LabelY}}">{{range $i, $line := .Lines}}<tspan x="{{num $group.LabelX}}" dy="{{if $i}}1.1{{else}}0{{end}}em">{{html $line}}</tspan>{{end}}</text>
{{range .Bars}}{{$classes := classes .Classes}}
    <rect
        class="bar{{$classes}}"
        width="{{num .Bar.Width}}"
        height="{{num .Bar.Height}}"
        x="{{num .Bar.X}}"
        y="{{num .Bar.Y}}" />

    <!-- horizontal error bar -->
    <rect
        class="error-bar{{$classes}}"
        width="{{num .ErrorBar.Width}}"
        height="{{num .ErrorBar.Height}}"
        x="{{num .ErrorBar.X}}"
        y="{{num .ErrorBar.Y}}" />
    <!-- left error bar -->
    <rect
        class="error-bar{{$classes}}"
        width="{{num .LeftCap.Width}}"
        height="{{num .LeftCap.Height}}"
        x="{{num .LeftCap.X}}"
        y="{{num .LeftCap.Y}}" />
    <!-- right error bar -->
    <rect
        class="error-bar{{$classes}}"
        width="{{num .RightCap.Width}}"
        height="{{num .RightCap.Height}}"
        x="{{num .RightCap.X}}"
        y="{{num .RightCap.Y}}" />

    <text
        class="bar-label{{$classes}}"
        x="{{num .LabelX}}"
        y="{{num .TextY}}">{{html .Name}}</text>
    <text
        class="bar-value{{$classes}}"
        text-anchor="end"
        x="{{num .ValueX}}"
        y="{{num .TextY}}">{{.ValueText}}</text>
{{- if .PercentText}}
    <text
        class="bar-value bar-percent-difference{{classes .PercentClasses}}"
        text-anchor="start"
        x="{{num .ValueX}}"
        y="{{num .TextY}}">&#x00a0;({{.PercentText}})</text>
{{- end}}
{{end}}{{end}}</svg>
`

var svgTmpl = template.Must(template.New("chart").Funcs(template.FuncMap{
	"num": formatNumber,
	"classes": func(classes []string) string {
		if len(classes) == 0 {
			return ""
		}
		return " " + template.HTMLEscapeString(strings.Join(classes, " "))
	},
}).Parse(svgTemplate))

// svgDocument adds the font sizes derived from the geometry constants
type svgDocument struct {
	*Layout
	TitleFontSize    float64
	SubtitleFontSize float64
	BarFontSize      float64
}

// formatNumber prints the shortest decimal that round-trips
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Render validates c and writes it to w as a standalone SVG document.
// Nothing is written when validation fails.
func Render(w io.Writer, c Chart) error {
	layout, err := NewLayout(c)
	if err != nil {
		return fmt.Errorf("invalid chart %q: %w", c.Title, err)
	}

	var buf bytes.Buffer
	doc := svgDocument{
		Layout:           layout,
		TitleFontSize:    TitleHeight * 0.8,
		SubtitleFontSize: SubtitleHeight * 0.6,
		BarFontSize:      BarHeight * 0.8,
	}
	if err := svgTmpl.Execute(&buf, doc); err != nil {
		return fmt.Errorf("failed to execute chart template: %w", err)
	}

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return nil
}

// WriteFile renders c to path. The parent directory must exist.
func WriteFile(path string, c Chart) error {
	var buf bytes.Buffer
	if err := Render(&buf, c); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write chart file: %w", err)
	}
	return nil
}
