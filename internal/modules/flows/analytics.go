package flows

import (
	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// smaPeriod is the smoothing window for the dashboard trend line.
const smaPeriod = 5

// CategorySummary describes one category's net-flow series over a window.
type CategorySummary struct {
	Category string  `json:"category"`
	Days     int     `json:"days"`
	Total    float64 `json:"total"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	// Trend is the latest 5-day simple moving average of daily net flow,
	// nil until enough days exist.
	Trend *float64 `json:"trend,omitempty"`
}

// Summarize computes dashboard statistics for one net-flow series.
func Summarize(category string, series []float64) CategorySummary {
	summary := CategorySummary{
		Category: category,
		Days:     len(series),
	}
	if len(series) == 0 {
		return summary
	}

	for _, v := range series {
		summary.Total += v
	}
	summary.Mean = stat.Mean(series, nil)
	if len(series) > 1 {
		summary.StdDev = stat.StdDev(series, nil)
	}

	if len(series) >= smaPeriod {
		sma := talib.Sma(series, smaPeriod)
		trend := sma[len(sma)-1]
		summary.Trend = &trend
	}

	return summary
}
