package scene

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/cwbudde/algo-spatialmix/clip"
	"github.com/cwbudde/algo-spatialmix/device"
	"github.com/cwbudde/algo-spatialmix/mixer"
)

// Option configures a [Runner].
type Option func(*Runner) error

// WithLoader loads clips through l instead of a default OS loader.
func WithLoader(l *clip.Loader) Option {
	return func(r *Runner) error {
		if l == nil {
			return errors.New("scene: nil loader")
		}
		r.loader = l
		return nil
	}
}

// WithLogger sets the logger for script events.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) error {
		if l == nil {
			return errors.New("scene: nil logger")
		}
		r.log = l
		return nil
	}
}

// WithBaseDir resolves relative clip paths against dir.
func WithBaseDir(dir string) Option {
	return func(r *Runner) error {
		r.dir = dir
		return nil
	}
}

// Runner executes scene scripts against one mixer context. A Runner is
// not safe for concurrent use; scripts run one at a time.
type Runner struct {
	mix    *mixer.Context
	clock  device.Clock
	loader *clip.Loader
	log    *slog.Logger
	dir    string

	sources map[string]*mixer.Source
	slots   map[string]*mixer.EffectSlot
	elapsed time.Duration

	// stop is the error that ended the script from inside wait.
	stop error
}

// New returns a runner that drives mix and advances time with clock.
func New(mix *mixer.Context, clock device.Clock, opts ...Option) (*Runner, error) {
	if mix == nil || clock == nil {
		return nil, errors.New("scene: nil mixer or clock")
	}

	r := &Runner{
		mix:     mix,
		clock:   clock,
		log:     slog.New(slog.DiscardHandler),
		sources: make(map[string]*mixer.Source),
		slots:   make(map[string]*mixer.EffectSlot),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if r.loader == nil {
		l, err := clip.NewLoader(clip.WithLogger(r.log))
		if err != nil {
			return nil, err
		}
		r.loader = l
	}
	return r, nil
}

// Elapsed returns the script time advanced by wait so far.
func (r *Runner) Elapsed() time.Duration { return r.elapsed }

// Source returns the named source.
func (r *Runner) Source(name string) (*mixer.Source, bool) {
	s, ok := r.sources[name]
	return s, ok
}

// Slot returns the named effect slot.
func (r *Runner) Slot(name string) (*mixer.EffectSlot, bool) {
	s, ok := r.slots[name]
	return s, ok
}

// RunFile runs the script at path, read through the loader filesystem.
// Relative clip paths resolve against the script directory unless a base
// directory was set.
func (r *Runner) RunFile(ctx context.Context, path string) error {
	f, err := r.loader.Fs().Open(path)
	if err != nil {
		return fmt.Errorf("scene: %w", err)
	}
	defer f.Close()

	if r.dir == "" {
		r.dir = filepath.Dir(path)
	}
	return r.Run(ctx, filepath.Base(path), f)
}

// Run executes script. A script that runs into the frame limit of an
// offline clock ends without error. Cancelling ctx aborts the script.
func (r *Runner) Run(ctx context.Context, name string, script io.Reader) error {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	// No package, io or os library. Scripts reach files only through
	// the loader filesystem.
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range []string{"dofile", "loadfile", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	L.SetContext(ctx)
	r.register(L)
	r.stop = nil

	fn, err := L.Load(script, name)
	if err != nil {
		return fmt.Errorf("scene: %w", err)
	}

	r.log.Info("scene started", "script", name)
	L.Push(fn)
	err = L.PCall(0, lua.MultRet, nil)

	switch {
	case r.stop != nil && errors.Is(r.stop, device.ErrLimit):
		r.log.Info("scene reached the render limit", "script", name, "elapsed", r.elapsed)
		return nil
	case r.stop != nil:
		return fmt.Errorf("scene: %w", r.stop)
	case ctx.Err() != nil:
		return fmt.Errorf("scene: %w", ctx.Err())
	case err != nil:
		return fmt.Errorf("scene: %w", err)
	}

	r.log.Info("scene finished", "script", name, "elapsed", r.elapsed)
	return nil
}

func (r *Runner) clipPath(p string) string {
	if r.dir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(r.dir, p)
}
