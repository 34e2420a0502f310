package report

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/qepting91/burneddit/internal/burn"
	"github.com/qepting91/burneddit/internal/domain"
)

var statuses = []domain.Status{
	domain.StatusSkipped,
	domain.StatusDeleted,
	domain.StatusOverwritten,
	domain.StatusFailed,
}

// WriteFile renders the run summary as an HTML page at path.
func WriteFile(path string, summary *burn.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer f.Close()
	return Render(f, summary)
}

// Render writes a status pie chart and a per-account stacked bar chart.
func Render(w io.Writer, summary *burn.Summary) error {
	// 1. Overall outcome
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Item Outcomes"}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
	)

	totals := make(map[domain.Status]int)
	var accounts []string
	perAccount := make(map[string]map[domain.Status]int)
	for _, acct := range summary.Accounts {
		if acct.Skipped {
			continue
		}
		counts := acct.Counts()
		if _, seen := perAccount[acct.Username]; !seen {
			accounts = append(accounts, acct.Username)
			perAccount[acct.Username] = make(map[domain.Status]int)
		}
		for s, n := range counts {
			totals[s] += n
			perAccount[acct.Username][s] += n
		}
	}
	sort.Strings(accounts)

	var pieItems []opts.PieData
	for _, s := range statuses {
		if totals[s] > 0 {
			pieItems = append(pieItems, opts.PieData{Name: string(s), Value: totals[s]})
		}
	}
	pie.AddSeries("Items", pieItems)

	// 2. Per account breakdown
	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Outcomes by Account"}))
	bar.SetXAxis(accounts)
	for _, s := range statuses {
		var data []opts.BarData
		for _, a := range accounts {
			data = append(data, opts.BarData{Value: perAccount[a][s]})
		}
		bar.AddSeries(string(s), data, charts.WithBarChartOpts(opts.BarChart{Stack: "status"}))
	}

	page := components.NewPage()
	page.AddCharts(pie, bar)
	return page.Render(w)
}
