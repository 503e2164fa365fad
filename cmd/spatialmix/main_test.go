package main

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-spatialmix/clip"
	"github.com/cwbudde/algo-spatialmix/dsp/pan"
	"github.com/cwbudde/algo-spatialmix/internal/testutil"
)

func TestRenderWritesFileAndReport(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "scene.lua")
	src := `
		tone("a", 750, 20, 0.5)
		direction("a", -90)
		play("a")
		wait(2000)
	`
	if err := os.WriteFile(script, []byte(src), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	out := filepath.Join(dir, "out.wav.gz")

	var stdout bytes.Buffer
	if err := runRender([]string{"-o", out, "-seconds", "1", "-tone", "750", script}, &stdout); err != nil {
		t.Fatalf("runRender: %v", err)
	}

	buf, err := clip.Load(out)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if buf.Frames() != 48000 || buf.Channels() != 2 {
		t.Fatalf("rendered %d frames x %d channels", buf.Frames(), buf.Channels())
	}

	report := stdout.String()
	for _, want := range []string{"FL", "FR", "-6.02", "750.0", "Tone 750 Hz [dBFS]"} {
		if !strings.Contains(report, want) {
			t.Fatalf("report misses %q:\n%s", want, report)
		}
	}
}

func TestRenderRejectsBadArguments(t *testing.T) {
	var stdout bytes.Buffer
	tests := [][]string{
		{},
		{"-layout", "9.1", "scene.lua"},
		{"-seconds", "-1", "scene.lua"},
		{"-tone", "30000", "scene.lua"},
		{"a.lua", "b.lua"},
	}
	for _, args := range tests {
		if err := runRender(args, &stdout); err == nil {
			t.Fatalf("runRender(%q) succeeded", args)
		}
	}
}

func TestAnalyzeFindsTone(t *testing.T) {
	sine := testutil.DeterministicSine(1000, 48000, 0.5, 48000)
	reports, g, err := analyze(pan.Stereo, [][]float64{sine, make([]float64, 48000)}, 48000, 1000)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	testutil.RequireNearlyEqual(t, "dominant", reports[0].dominant.Frequency, 1000, 1)
	testutil.RequireNearlyEqual(t, "rms", reports[0].level.RMS, 0.5/math.Sqrt2, 1e-3)
	testutil.RequireNearlyEqual(t, "tone", reports[0].tone, 0.5, 1e-6)
	if g.Frequency() != 1000 {
		t.Fatalf("tone frequency = %v", g.Frequency())
	}
	if reports[1].dominant.Amplitude != 0 || !math.IsInf(reports[1].level.PeakDB(), -1) {
		t.Fatalf("silent channel report = %+v", reports[1])
	}
}

func TestMeter(t *testing.T) {
	tests := []struct {
		db   float64
		want string
	}{
		{0, "##########"},
		{-30, "#####....."},
		{-90, ".........."},
		{math.Inf(-1), ".........."},
	}
	for _, tt := range tests {
		if got := meter(tt.db, 10); got != tt.want {
			t.Fatalf("meter(%v) = %q, want %q", tt.db, got, tt.want)
		}
	}
}
