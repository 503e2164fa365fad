//go:build headless

package device

import (
	"errors"
	"sync"
	"time"
)

// OtoPlayer is the headless stand-in for the oto player. It never opens an
// output; Read still renders for callers that pull it directly.
type OtoPlayer struct {
	puller

	mu      sync.Mutex
	started bool
}

// NewOtoPlayer returns a player that produces no sound.
func NewOtoPlayer(r Renderer) (*OtoPlayer, error) {
	if r == nil {
		return nil, errors.New("device: nil renderer")
	}
	p := &OtoPlayer{}
	p.attach(r)
	return p, nil
}

func (p *OtoPlayer) Start() {
	p.mu.Lock()
	p.started = true
	p.mu.Unlock()
}

func (p *OtoPlayer) Stop() {
	p.mu.Lock()
	p.started = false
	p.mu.Unlock()
}

func (p *OtoPlayer) Close() error {
	p.Stop()
	p.detach()
	return nil
}

func (p *OtoPlayer) IsStarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

func (p *OtoPlayer) Wait(d time.Duration) error {
	time.Sleep(d)
	return nil
}
