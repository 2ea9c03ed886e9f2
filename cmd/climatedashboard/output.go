package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/dataset"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/forecast"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/ingest"
	"github.com/AidanFitzpatrickUni/ClimateDashboard/internal/store"
)

func printImportSummary(w io.Writer, s *ingest.ImportSummary) {
	fmt.Fprintf(w, "imported temperature=%d co2=%d sea_level=%d rows\n",
		s.TemperatureRows, s.CO2Rows, s.SeaLevelRows)
	if len(s.Flags) > 0 {
		fmt.Fprintf(w, "%d values flagged for review:\n", len(s.Flags))
		for _, f := range s.Flags {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}
}

func printArchiveStats(w io.Writer, s *store.PayloadStats) {
	if s.TotalCount == 0 {
		fmt.Fprintln(w, "no archived source files")
		return
	}
	fmt.Fprintf(w, "%d archived files, %d bytes compressed\n", s.TotalCount, s.TotalSizeBytes)
	fmt.Fprintf(w, "fetched %s to %s\n",
		s.OldestFetchedAt.Format("2006-01-02 15:04"), s.NewestFetchedAt.Format("2006-01-02 15:04"))
	sources := make([]string, 0, len(s.CountBySource))
	for src := range s.CountBySource {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	for _, src := range sources {
		fmt.Fprintf(w, "  %-18s %d\n", src, s.CountBySource[src])
	}
}

func printForecast(w io.Writer, out *forecast.Outcome) {
	t := out.Temperature
	fmt.Fprintf(w, "Temperature forecast (anchor offset %+.4f °C)\n", t.Offset)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "year\ttrend\thybrid\tanchored\tco2_ppm\t")
	for i, y := range t.Years {
		fmt.Fprintf(tw, "%d\t%.4f\t%.4f\t%.4f\t%.2f\t\n", y, t.Trend[i], t.Hybrid[i], t.Anchored[i], t.CO2[i])
	}
	tw.Flush()

	s := out.SeaLevel
	fmt.Fprintf(w, "\nSea level forecast (anchor offset %+.2f mm)\n", s.Offset)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "year\ttrend\thybrid\tanchored\t")
	for i, y := range s.Years {
		fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%.2f\t\n", y, s.Trend[i], s.Hybrid[i], s.Anchored[i])
	}
	tw.Flush()

	minY, minV, maxY, maxV := t.Extremes()
	fmt.Fprintf(w, "\nTemperature: min %.2f °C (%d), max %.2f °C (%d)\n", minV, minY, maxV, maxY)
	minY, minV, maxY, maxV = s.Extremes()
	fmt.Fprintf(w, "Sea level:   min %.1f mm (%d), max %.1f mm (%d)\n", minV, minY, maxV, maxY)
}

func printSplit[T any](w io.Writer, name string, s dataset.Split[T], year func(T) int) {
	fmt.Fprintf(w, "%s: %d rows\n", name, s.Len())
	parts := []struct {
		label string
		rows  []T
	}{
		{"train", s.Train},
		{"validation", s.Val},
		{"test", s.Test},
	}
	for _, p := range parts {
		if len(p.rows) == 0 {
			fmt.Fprintf(w, "  %-10s 0 rows\n", p.label)
			continue
		}
		fmt.Fprintf(w, "  %-10s %3d rows (%d-%d)\n", p.label, len(p.rows), year(p.rows[0]), year(p.rows[len(p.rows)-1]))
	}
}

func printImportances(w io.Writer, names []string, importances []float64) {
	for i, v := range importances {
		name := fmt.Sprintf("f%d", i)
		if i < len(names) {
			name = names[i]
		}
		fmt.Fprintf(w, "  %-14s %.4f\n", name, v)
	}
}

func printScores(w io.Writer, evals []*forecast.Evaluation) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "split\tmodel\tn\tmse\trmse\tmae\tr2\tresid_mean\tresid_std\tresid_min\tresid_max\t")
	for _, ev := range evals {
		for _, m := range []struct {
			name string
			s    forecast.Scores
		}{{"trend", ev.Trend}, {"hybrid", ev.Hybrid}} {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%.5f\t%.5f\t%.5f\t%.4f\t%.5f\t%.5f\t%.5f\t%.5f\t\n",
				ev.Label, m.name, m.s.N, m.s.MSE, m.s.RMSE, m.s.MAE, m.s.R2,
				m.s.ResidualMean, m.s.ResidualStd, m.s.ResidualMin, m.s.ResidualMax)
		}
	}
	tw.Flush()
}

func printEvaluation(w io.Writer, out *forecast.Outcome, temps, seas []*forecast.Evaluation) {
	printSplit(w, "Temperature dataset", out.TemperatureSplit, dataset.RowYear)
	printSplit(w, "Sea-level dataset", out.SeaLevelSplit, dataset.SeaRowYear)

	fmt.Fprintf(w, "\nTemperature trend: %s\n", out.TemperatureModel.Trend.Equation())
	fmt.Fprintln(w, "Temperature residual feature importances:")
	printImportances(w, forecast.TemperatureFeatures, out.TemperatureModel.Residual.FeatureImportances())
	printScores(w, temps)

	fmt.Fprintf(w, "\nSea-level trend: %s\n", out.SeaLevelModel.Trend.Equation())
	fmt.Fprintln(w, "Sea-level residual feature importances:")
	printImportances(w, forecast.SeaLevelFeatures, out.SeaLevelModel.Residual.FeatureImportances())
	printScores(w, seas)
}
