package filter

import "sync"

// Panel is the filter UI's open/closed state. Transitions are explicit;
// the applier closes it once a request settles, success or not.
type Panel struct {
	mu   sync.Mutex
	open bool
}

func NewPanel() *Panel {
	return &Panel{}
}

func (p *Panel) Open() {
	p.mu.Lock()
	p.open = true
	p.mu.Unlock()
}

func (p *Panel) Close() {
	p.mu.Lock()
	p.open = false
	p.mu.Unlock()
}

func (p *Panel) Toggle() {
	p.mu.Lock()
	p.open = !p.open
	p.mu.Unlock()
}

func (p *Panel) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}
