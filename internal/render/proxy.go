package render

import "sync"

// Proxy forwards to a replaceable Backend. Entities hold the proxy, so a
// surface can be attached after entities have been created.
type Proxy struct {
	mu     sync.RWMutex
	target Backend
}

// NewProxy returns a proxy with no target; calls are dropped until Attach.
func NewProxy() *Proxy {
	return &Proxy{}
}

// Attach sets the backend that receives calls.
func (p *Proxy) Attach(b Backend) {
	p.mu.Lock()
	p.target = b
	p.mu.Unlock()
}

// Target returns the attached backend, or nil.
func (p *Proxy) Target() Backend {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.target
}

func (p *Proxy) Draw(prim Primitive) {
	if t := p.Target(); t != nil {
		t.Draw(prim)
	}
}

func (p *Proxy) SetVisible(id string, visible bool) {
	if t := p.Target(); t != nil {
		t.SetVisible(id, visible)
	}
}

func (p *Proxy) Erase(id string) {
	if t := p.Target(); t != nil {
		t.Erase(id)
	}
}

func (p *Proxy) ShowOverlay(o Overlay) {
	if t := p.Target(); t != nil {
		t.ShowOverlay(o)
	}
}

func (p *Proxy) RemoveOverlay(id string) {
	if t := p.Target(); t != nil {
		t.RemoveOverlay(id)
	}
}

func (p *Proxy) SetWidgetVisible(visible bool) {
	if t := p.Target(); t != nil {
		t.SetWidgetVisible(visible)
	}
}
