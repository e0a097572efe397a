package notifier

import (
	"fmt"
	"strings"

	"github.com/taichungmao-blip/soybean-monitor/internal/model"
)

// FormatReport renders one run's report as the Discord message text.
func FormatReport(r *model.Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🌾 **黃豆觀測日報** | %s", r.GeneratedAt.Format("2006-01-02")))
	if len(r.RunID) >= 8 {
		b.WriteString(fmt.Sprintf(" `#%s`", r.RunID[:8]))
	}
	b.WriteString("\n\n")

	c := r.Commodity
	b.WriteString(fmt.Sprintf("**%s (%s)** 收盤 %.2f | %d日趨勢 %+.1f%% → %s\n\n",
		c.Name, c.Ticker, c.LastClose, r.WindowDays, c.TrendPct, c.CostStatus))

	for _, eq := range r.Equities {
		rec := eq.Recommendation
		b.WriteString(fmt.Sprintf("%s **%s (%s)** %s\n", rec.HeadlineIcon, eq.Name, eq.Ticker, rec.HeadlineText))
		b.WriteString(fmt.Sprintf("　股價%d日 %+.1f%% | %s\n", r.WindowDays, eq.TrendPct, rec.MetricsSummary))
		if !eq.RevenueKnown {
			b.WriteString("　(無營收資料，以 0% 計)\n")
		}
		if rec.Qualifier != model.QualifierNone {
			b.WriteString(fmt.Sprintf("　%s\n", rec.QualifierNote))
		}
		b.WriteString("\n")
	}

	for _, sk := range r.Skipped {
		b.WriteString(fmt.Sprintf("⏭️ %s (%s) 略過：%s\n", sk.Name, sk.Ticker, sk.Reason))
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}
