package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderHTML writes an interactive pH-versus-hue chart of series to w.
func RenderHTML(w io.Writer, series []Series) error {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Calibration curves", Width: "960px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Calibration curves", Subtitle: fmt.Sprintf("%d sources", len(series))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: 0, Max: 360, Name: "Hue (deg)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: 0, Max: 14, Name: "pH", NameLocation: "middle", NameGap: 30}),
	)

	for i, s := range series {
		data := make([]opts.ScatterData, 0, len(s.Curve))
		for _, pt := range s.Curve {
			data = append(data, opts.ScatterData{Value: []interface{}{pt.Hue, pt.PH}})
		}
		chartOpts := opts.ScatterChart{SymbolSize: 8}
		if s.Active {
			chartOpts = opts.ScatterChart{SymbolSize: 12}
		}
		scatter.AddSeries(s.Name, data,
			charts.WithScatterChartOpts(chartOpts),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(seriesColor(i))}),
		)
	}

	if active, ok := activeSeries(series); ok {
		hues, phs := interpolated(active.Curve)
		data := make([]opts.ScatterData, len(hues))
		for i := range hues {
			data[i] = opts.ScatterData{Value: []interface{}{hues[i], phs[i]}}
		}
		scatter.AddSeries(active.Name+" (interpolated)", data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}))
	}

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
