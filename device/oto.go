//go:build !headless

package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// reapInterval is how often a playing OtoPlayer collects finished sources.
const reapInterval = 50 * time.Millisecond

// OtoPlayer plays a renderer through the system audio output. oto's
// reader goroutine becomes the audio side of the renderer.
type OtoPlayer struct {
	puller

	ctx    *oto.Context
	player *oto.Player

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewOtoPlayer opens the audio output at the renderer's rate and channel
// count, with an output buffer of two mixer blocks.
func NewOtoPlayer(r Renderer) (*OtoPlayer, error) {
	if r == nil {
		return nil, errors.New("device: nil renderer")
	}

	rate := r.SampleRate()
	buffer := time.Duration(float64(2*r.MaxBlockSize()) / rate * float64(time.Second))
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(rate),
		ChannelCount: r.Channels(),
		Format:       oto.FormatFloat32LE,
		BufferSize:   buffer,
	})
	if err != nil {
		return nil, fmt.Errorf("device: oto: %w", err)
	}
	<-ready

	p := &OtoPlayer{ctx: ctx}
	p.attach(r)
	p.player = ctx.NewPlayer(&p.puller)
	return p, nil
}

// Start begins playback and the background reaper.
func (p *OtoPlayer) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started || p.player == nil {
		return
	}
	p.player.Play()
	p.started = true

	rp := p.r.Load()
	reaper, ok := (*rp).(Reaper)
	if !ok {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go func() {
		defer close(p.done)
		t := time.NewTicker(reapInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				reaper.Reap()
			}
		}
	}()
}

// Stop pauses playback.
func (p *OtoPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.player.Pause()
	p.started = false
	if p.cancel != nil {
		p.cancel()
		<-p.done
		p.cancel = nil
	}
}

// Close stops playback and releases the player. The renderer is no longer
// called once Close returns.
func (p *OtoPlayer) Close() error {
	p.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.detach()
	if p.player == nil {
		return nil
	}
	err := p.player.Close()
	p.player = nil
	return err
}

// IsStarted reports whether playback is running.
func (p *OtoPlayer) IsStarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

// Wait sleeps for d; with a playing OtoPlayer, wall time is audio time.
func (p *OtoPlayer) Wait(d time.Duration) error {
	time.Sleep(d)
	return nil
}
