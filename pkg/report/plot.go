package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/codechurn/pkg/churn"
)

const (
	chartWidth  = "1100px"
	chartHeight = "480px"
	lineWidth   = 2
	labelRotate = 30

	colorAdded   = "#3fb950"
	colorRemoved = "#f85149"
	colorText    = "#c9d1d9"
	colorMuted   = "#8b949e"
	colorGrid    = "#30363d"
	colorBack    = "#0d1117"
)

// chartOpts holds the shared look of every chart on the page.
type chartOpts struct{}

func (chartOpts) init() opts.Initialization {
	return opts.Initialization{Width: chartWidth, Height: chartHeight, BackgroundColor: colorBack}
}

func (chartOpts) title(title, subtitle string) opts.Title {
	return opts.Title{
		Title:         title,
		Subtitle:      subtitle,
		TitleStyle:    &opts.TextStyle{Color: colorText},
		SubtitleStyle: &opts.TextStyle{Color: colorMuted},
	}
}

func (chartOpts) legend() opts.Legend {
	return opts.Legend{Show: opts.Bool(true), Right: "5%", TextStyle: &opts.TextStyle{Color: colorMuted}}
}

func (chartOpts) xAxis(name string) opts.XAxis {
	return opts.XAxis{
		Name:      name,
		AxisLabel: &opts.AxisLabel{Color: colorMuted, Rotate: labelRotate},
		AxisLine:  &opts.AxisLine{LineStyle: &opts.LineStyle{Color: colorGrid}},
	}
}

func (chartOpts) yAxis(name string) opts.YAxis {
	return opts.YAxis{
		Name:      name,
		AxisLabel: &opts.AxisLabel{Color: colorMuted},
		SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: colorGrid}},
	}
}

// WritePlot renders an HTML page with churn over time and churn by language,
// overall and per repository.
func WritePlot(w io.Writer, ds *churn.Dataset) error {
	page := components.NewPage()
	page.PageTitle = "Code churn " + ds.Range.String()
	page.SetLayout(components.PageFlexLayout)

	page.AddCharts(dailyChart(ds), languageChart("All repositories", LanguageTotals(ds)))

	for _, t := range ds.Tables() {
		single := &churn.Dataset{Range: ds.Range, Results: []churn.RepositoryResult{{State: churn.StateDone, Table: t}}}
		page.AddCharts(languageChart(t.Name, LanguageTotals(single)))
	}

	err := page.Render(w)
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}

	return nil
}

func dailyChart(ds *churn.Dataset) *charts.Line {
	co := chartOpts{}
	days := DailyTotals(ds)

	labels := make([]string, len(days))
	added := make([]opts.LineData, len(days))
	removed := make([]opts.LineData, len(days))

	for i, d := range days {
		labels[i] = d.Date
		added[i] = opts.LineData{Value: d.Added}
		removed[i] = opts.LineData{Value: d.Removed}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(co.init()),
		charts.WithTitleOpts(co.title("Churn over time", ds.Range.String())),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(co.legend()),
		charts.WithXAxisOpts(co.xAxis("date")),
		charts.WithYAxisOpts(co.yAxis("lines")),
	)
	line.SetXAxis(labels)
	line.AddSeries("added", added,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorAdded}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth}),
	)
	line.AddSeries("removed", removed,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorRemoved}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth}),
	)

	return line
}

func languageChart(title string, totals []LanguageTotal) *charts.Bar {
	co := chartOpts{}

	labels := make([]string, len(totals))
	added := make([]opts.BarData, len(totals))
	removed := make([]opts.BarData, len(totals))

	for i, lt := range totals {
		labels[i] = lt.Language
		added[i] = opts.BarData{Value: lt.Added}
		removed[i] = opts.BarData{Value: lt.Removed}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(co.init()),
		charts.WithTitleOpts(co.title(title, "lines by language")),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(co.legend()),
		charts.WithXAxisOpts(co.xAxis("language")),
		charts.WithYAxisOpts(co.yAxis("lines")),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("added", added, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorAdded}))
	bar.AddSeries("removed", removed, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorRemoved}))

	return bar
}
