package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/cwbudde/algo-spatialmix/dsp/pan"
	"github.com/cwbudde/algo-spatialmix/dsp/spectrum"
)

const (
	analyzerSize = 4096
	meterFloorDB = -60.0
)

type channelReport struct {
	name     string
	level    spectrum.Level
	dominant spectrum.Peak
	tone     float64
}

// analyze measures every channel. A tone frequency above zero adds a
// single-bin level reading at that frequency.
func analyze(layout *pan.Layout, channels [][]float64, rate, tone float64) ([]channelReport, *spectrum.Goertzel, error) {
	a, err := spectrum.NewAnalyzer(analyzerSize, rate)
	if err != nil {
		return nil, nil, err
	}
	var g *spectrum.Goertzel
	if tone > 0 {
		if g, err = spectrum.NewGoertzel(tone, rate); err != nil {
			return nil, nil, err
		}
	}

	reports := make([]channelReport, len(channels))
	var mag []float64
	for c, data := range channels {
		reports[c] = channelReport{name: layout.Channels[c].String(), level: spectrum.Measure(data)}
		if reports[c].level.Peak == 0 {
			continue
		}
		mag, err = a.Analyze(mag, data)
		if err != nil {
			return nil, nil, err
		}
		reports[c].dominant = spectrum.Dominant(mag, a.BinWidth())
		if g != nil {
			g.Reset()
			g.ProcessBlock(data)
			reports[c].tone = g.Amplitude()
		}
	}
	return reports, g, nil
}

// report prints a level table, followed by a bar meter when w is a
// terminal.
func report(w io.Writer, layout *pan.Layout, channels [][]float64, rate, tone float64) error {
	reports, g, err := analyze(layout, channels, rate, tone)
	if err != nil {
		return err
	}

	head := []string{"Channel", "Peak [dBFS]", "RMS [dBFS]", "Dominant [Hz]"}
	if g != nil {
		head = append(head, fmt.Sprintf("Tone %.0f Hz [dBFS]", g.Frequency()))
	}
	rule := make([]string, len(head))
	for i, h := range head {
		rule[i] = strings.Repeat("-", len(h))
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(head, "\t"))
	fmt.Fprintln(tw, strings.Join(rule, "\t"))
	for _, r := range reports {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%s", r.name, r.level.PeakDB(), r.level.RMSDB(), dominant(r.dominant))
		if g != nil {
			fmt.Fprintf(tw, "\t%.2f", spectrum.Level{Peak: r.tone}.PeakDB())
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width < 20 {
		width = 80
	}
	fmt.Fprintln(w)
	for _, r := range reports {
		fmt.Fprintf(w, "%-4s %s\n", r.name, meter(r.level.RMSDB(), width-6))
	}
	return nil
}

func dominant(p spectrum.Peak) string {
	if p.Amplitude == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f", p.Frequency)
}

// meter draws a bar of width cells for a level between meterFloorDB and 0.
func meter(db float64, width int) string {
	frac := 0.0
	if !math.IsInf(db, -1) {
		frac = min(max((db-meterFloorDB)/-meterFloorDB, 0), 1)
	}
	n := int(math.Round(frac * float64(width)))
	return strings.Repeat("#", n) + strings.Repeat(".", width-n)
}
