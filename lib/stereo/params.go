package stereo

import (
	"sync"
)

// DisplayParams are the stereo viewing parameters a frame is shown
// with. They are shared by pointer between the frames of one stream
// and may be changed from the control API at any time.
type DisplayParams struct {
	baseline    float32
	convergence float32
	swapEyes    bool

	sync.Mutex
}

func NewDisplayParams(baseline, convergence float32) *DisplayParams {
	return &DisplayParams{baseline: baseline, convergence: convergence}
}

type DisplayParamsSnapshot struct {
	Baseline    float32 `json:"baseline"`
	Convergence float32 `json:"convergence"`
	SwapEyes    bool    `json:"swap_eyes"`
}

func (p *DisplayParams) Get() DisplayParamsSnapshot {
	if p == nil {
		return DisplayParamsSnapshot{}
	}
	p.Lock()
	defer p.Unlock()
	return DisplayParamsSnapshot{
		Baseline:    p.baseline,
		Convergence: p.convergence,
		SwapEyes:    p.swapEyes,
	}
}

func (p *DisplayParams) Set(s DisplayParamsSnapshot) {
	p.Lock()
	defer p.Unlock()
	p.baseline = s.Baseline
	p.convergence = s.Convergence
	p.swapEyes = s.SwapEyes
}

func (p *DisplayParams) SetSwapEyes(swap bool) {
	p.Lock()
	defer p.Unlock()
	p.swapEyes = swap
}
