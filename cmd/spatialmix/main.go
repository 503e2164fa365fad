// Command spatialmix renders or plays Lua scene scripts through the mixer.
//
// Usage:
//
//	spatialmix render [flags] scene.lua
//	spatialmix play [flags] scene.lua
//	spatialmix layouts
//
// render writes the mix to a 16-bit WAV file, optionally compressed by
// extension (.gz, .zst, .xz, .lz4, .br), and prints per-channel levels.
// play sends the mix to the default audio device.
//
// Examples:
//
//	spatialmix render -o out.wav -layout 5.1 -seconds 10 demo.lua
//	spatialmix render -o out.wav.zst demo.lua
//	spatialmix play -v demo.lua
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/cwbudde/algo-spatialmix/clip"
	"github.com/cwbudde/algo-spatialmix/device"
	"github.com/cwbudde/algo-spatialmix/dsp/pan"
	"github.com/cwbudde/algo-spatialmix/mixer"
	"github.com/cwbudde/algo-spatialmix/scene"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "render":
		err = runRender(os.Args[2:], os.Stdout)
	case "play":
		err = runPlay(os.Args[2:])
	case "layouts":
		for _, name := range pan.LayoutNames() {
			fmt.Println(name)
		}
	case "-h", "-help", "--help", "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: spatialmix <command> [flags] [scene.lua]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	fmt.Fprintf(w, "  render   render a scene to a WAV file and print levels\n")
	fmt.Fprintf(w, "  play     play a scene on the default audio device\n")
	fmt.Fprintf(w, "  layouts  list channel layouts\n")
}

// common holds the flags shared by render and play.
type common struct {
	rate      float64
	layout    string
	block     int
	voices    int
	ambisonic bool
	verbose   bool
}

func (c *common) register(fs *flag.FlagSet) {
	fs.Float64Var(&c.rate, "rate", 48000, "output sample rate in Hz")
	fs.StringVar(&c.layout, "layout", "stereo", "output channel layout (see 'spatialmix layouts')")
	fs.IntVar(&c.block, "block", 1024, "maximum frames per mix block")
	fs.IntVar(&c.voices, "voices", 64, "maximum simultaneous voices")
	fs.BoolVar(&c.ambisonic, "ambisonic", false, "mix dry paths through first-order ambisonics")
	fs.BoolVar(&c.verbose, "v", false, "log debug events to stderr")
}

func (c *common) logger() *slog.Logger {
	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (c *common) mixer(log *slog.Logger) (*mixer.Context, error) {
	layout, err := pan.LayoutByName(c.layout)
	if err != nil {
		return nil, err
	}
	return mixer.New(
		mixer.WithSampleRate(c.rate),
		mixer.WithLayout(layout),
		mixer.WithMaxBlockSize(c.block),
		mixer.WithMaxVoices(c.voices),
		mixer.WithAmbisonicDry(c.ambisonic),
		mixer.WithLogger(log),
	)
}

func parse(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return "", errors.New("expected exactly one scene script")
	}
	return fs.Arg(0), nil
}

func runRender(args []string, stdout io.Writer) error {
	var (
		c       common
		out     string
		seconds float64
		tone    float64
	)
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	c.register(fs)
	fs.StringVar(&out, "o", "out.wav", "output file; .gz, .zst, .xz, .lz4 or .br compress it")
	fs.Float64Var(&seconds, "seconds", 0, "stop the scene after this many seconds (0 = run to the end)")
	fs.Float64Var(&tone, "tone", 0, "report the level of this frequency in Hz per channel (0 = off)")
	script, err := parse(fs, args)
	if err != nil {
		return err
	}
	if seconds < 0 {
		return fmt.Errorf("-seconds must be >= 0: %v", seconds)
	}
	if tone < 0 || tone >= c.rate/2 {
		return fmt.Errorf("-tone must be in [0, %v): %v", c.rate/2, tone)
	}

	log := c.logger()
	mix, err := c.mixer(log)
	if err != nil {
		return err
	}
	defer mix.Close()

	dev, err := device.NewOffline(mix, device.FramesFor(time.Duration(seconds*float64(time.Second)), c.rate))
	if err != nil {
		return err
	}
	loader, err := clip.NewLoader(clip.WithLogger(log))
	if err != nil {
		return err
	}
	r, err := scene.New(mix, dev, scene.WithLoader(loader), scene.WithLogger(log))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := r.RunFile(ctx, script); err != nil {
		return err
	}

	rendered := dev.Output()
	if dev.Frames() == 0 {
		return errors.New("scene rendered no audio; add wait() calls")
	}
	if err := loader.Save(out, int(c.rate), rendered); err != nil {
		return err
	}
	log.Info("render written", "file", out, "frames", dev.Frames(), "duration", dev.Duration())
	st := mix.Stats()
	log.Debug("mixer stats", "blocks", st.Blocks, "sources", st.Sources, "voices", st.ActiveVoices, "snapshots_free", st.SnapshotsFree)

	return report(stdout, mix.Layout(), rendered, c.rate, tone)
}

func runPlay(args []string) error {
	var (
		c    common
		tail time.Duration
	)
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	c.register(fs)
	fs.DurationVar(&tail, "tail", 500*time.Millisecond, "keep playing this long after the script ends")
	script, err := parse(fs, args)
	if err != nil {
		return err
	}

	log := c.logger()
	mix, err := c.mixer(log)
	if err != nil {
		return err
	}
	defer mix.Close()

	player, err := device.NewOtoPlayer(mix)
	if err != nil {
		return err
	}
	defer player.Close()

	r, err := scene.New(mix, player, scene.WithLogger(log))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	player.Start()
	err = r.RunFile(ctx, script)
	if err == nil && tail > 0 {
		err = player.Wait(tail)
	}
	player.Stop()

	if errors.Is(err, context.Canceled) {
		log.Info("playback interrupted", "elapsed", r.Elapsed())
		return nil
	}
	return err
}
