// Package report renders an optional SVG line chart comparing original and
// compressed sizes per archive entry, written when the CLI's --report
// flag is passed to a compress run. It is a CLI-facing extra: nothing in
// pkg/entry or pkg/archive depends on it.
package report

import (
	"os"

	"github.com/wcharczuk/go-chart/v2"

	"kittypress/pkg/kerrors"
)

// Entry is one row of the report: a relative path plus its original and
// compressed byte sizes.
type Entry struct {
	RelPath        string
	OriginalSize   int64
	CompressedSize int64
}

// WriteSVG renders entries to path as two line series, original bytes and
// compressed bytes, plotted against each entry's index (0, 1, 2, ...).
// It draws no bars, and points are not labelled with RelPath.
func WriteSVG(path string, entries []Entry) error {
	const op = "report.WriteSVG"

	xvals := make([]float64, len(entries))
	origVals := make([]float64, len(entries))
	compVals := make([]float64, len(entries))
	for i, e := range entries {
		xvals[i] = float64(i)
		origVals[i] = float64(e.OriginalSize)
		compVals[i] = float64(e.CompressedSize)
	}

	graph := chart.Chart{
		Title: "KittyPress compression report",
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "original bytes",
				XValues: xvals,
				YValues: origVals,
			},
			chart.ContinuousSeries{
				Name:    "compressed bytes",
				XValues: xvals,
				YValues: compVals,
			},
		},
	}
	graph.Elements = []chart.Renderable{
		chart.Legend(&graph),
	}

	fh, err := os.Create(path)
	if err != nil {
		return kerrors.New(kerrors.IO, op, path, err)
	}
	defer fh.Close()

	if err := graph.Render(chart.SVG, fh); err != nil {
		return kerrors.New(kerrors.IO, op, path, err)
	}
	return nil
}
