package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/taichungmao-blip/soybean-monitor/internal/model"
	"github.com/taichungmao-blip/soybean-monitor/internal/strategy"
)

// RenderTable writes the report as a colored console table.
func RenderTable(w io.Writer, r *model.Report) {
	fmt.Fprintf(w, "%s (%s)  %s  %+.1f%%  %s\n\n",
		r.Commodity.Name, r.Commodity.Ticker,
		r.GeneratedAt.Format("2006-01-02"), r.Commodity.TrendPct, r.Commodity.CostStatus)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"TICKER", "NAME", "TREND%", "SPREAD", "REV YOY%", "SIGNAL", "NOTE"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignRight},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignRight},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignRight},
	})

	for _, eq := range r.Equities {
		trend := fmt.Sprintf("%+.1f", eq.TrendPct)
		if eq.TrendPct < 0 {
			trend = text.Colors{text.FgRed}.Sprint(trend)
		} else if eq.TrendPct > 0 {
			trend = text.Colors{text.FgGreen}.Sprint(trend)
		}
		rev := fmt.Sprintf("%+.1f", eq.RevenueYoYPct)
		if !eq.RevenueKnown {
			rev = "n/a"
		}
		note := ""
		if eq.Recommendation.Qualifier != model.QualifierNone {
			note = eq.Recommendation.QualifierNote
		}
		tw.AppendRow(table.Row{
			eq.Ticker,
			eq.Name,
			trend,
			fmt.Sprintf("%+.2f", eq.Spread),
			rev,
			fmt.Sprintf("%s %s", eq.Recommendation.HeadlineIcon, strategy.CategoryLabel(eq.Recommendation.Category)),
			note,
		})
	}
	tw.Render()

	for _, sk := range r.Skipped {
		fmt.Fprintf(w, "skipped %s (%s): %s\n", sk.Name, sk.Ticker, sk.Reason)
	}
}

// RenderJSON writes the report as indented JSON.
func RenderJSON(w io.Writer, r *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
