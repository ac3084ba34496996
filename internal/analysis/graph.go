package analysis

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

// Idle pattern levels used while nothing is being analysed.
const (
	idleSpectrumBase   = 0.3
	idleSpectrumJitter = 0.05
	idleSpectrumMin    = 0.1
	idleSpectrumMax    = 0.5
	idleEnergyBase     = 0.2
	idleEnergyJitter   = 0.1
)

// frameInterval is the shortest gap between two analyser runs. Polls inside
// one interval share the bins, so smoothing advances once per frame however
// many renderers or bands are read.
const frameInterval = 16 * time.Millisecond

// StateReader reports the session's transport state.
type StateReader interface {
	TransportState() domain.TransportState
}

// Binding is the wiring between one audio resource and the analyser.
type Binding struct {
	Resource domain.ResourceID

	tap      ports.SampleTap
	analyser *Analyser
}

// Graph owns at most one Binding for the lifetime of the session.
// Renderers poll it; a poll never waits for audio. While unbound, or while
// the session is not playing, polls return a low jittering idle pattern.
//
// Thread-safety: All methods are safe for concurrent use.
type Graph struct {
	logger *slog.Logger
	state  StateReader

	mu         sync.Mutex
	binding    *Binding
	bins       []float64
	computed   bool
	computedAt time.Time
	now        func() time.Time
}

// NewGraph creates an unbound graph.
func NewGraph(logger *slog.Logger, state StateReader) *Graph {
	return &Graph{
		logger: logger,
		state:  state,
		bins:   make([]float64, BinCount),
		now:    time.Now,
	}
}

// EnsureBound wires the analyser to resource. Calling it again for the same
// resource returns the existing binding without touching the resource.
// A different resource, or a tap the resource refuses, yields an
// *domain.AnalysisBindingError and leaves the graph as it was.
func (g *Graph) EnsureBound(resource ports.AudioResource) (*Binding, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := resource.ID()

	if g.binding != nil {
		if g.binding.Resource == id {
			return g.binding, nil
		}
		return nil, domain.NewAnalysisBindingError(id,
			fmt.Sprintf("graph already bound to %s", g.binding.Resource), nil)
	}

	tap, err := resource.AttachTap()
	if err != nil {
		msg := "tap unavailable"
		if errors.Is(err, domain.ErrTapAlreadyAttached) {
			msg = "resource already carries a tap"
		}
		return nil, domain.NewAnalysisBindingError(id, msg, err)
	}

	g.binding = &Binding{
		Resource: id,
		tap:      tap,
		analyser: NewAnalyser(tap),
	}
	g.computed = false

	g.logger.Info("analysis bound",
		slog.String("resource", string(id)),
		slog.Int("sample_rate", tap.SampleRate()),
		slog.Int("bins", BinCount))
	return g.binding, nil
}

// SampleSpectrum returns exactly n values in [0, 1], decimated from the
// analyser bins at an even step. n <= 0 yields an empty slice.
func (g *Graph) SampleSpectrum(n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	out := make([]float64, n)

	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.activeLocked() {
		for i := range out {
			v := idleSpectrumBase + (rand.Float64()*2-1)*idleSpectrumJitter
			out[i] = max(idleSpectrumMin, min(idleSpectrumMax, v))
		}
		return out
	}

	g.refreshLocked()
	for i := range out {
		out[i] = g.bins[i*len(g.bins)/n]
	}
	return out
}

// SampleBandEnergy returns the mean level of bins [lo, hi). Indices are
// clamped to the bin range; an empty range yields 0.
func (g *Graph) SampleBandEnergy(lo, hi int) float64 {
	lo = max(0, min(lo, BinCount))
	hi = max(0, min(hi, BinCount))
	if hi <= lo {
		return 0
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.activeLocked() {
		return idleEnergyBase + rand.Float64()*idleEnergyJitter
	}

	g.refreshLocked()
	var sum float64
	for _, v := range g.bins[lo:hi] {
		sum += v
	}
	return sum / float64(hi-lo)
}

// BinCount returns the number of frequency bins.
func (g *Graph) BinCount() int {
	return BinCount
}

// Active reports whether polls reflect real audio.
func (g *Graph) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.activeLocked()
}

// Bound returns the resource the graph is wired to, if any.
func (g *Graph) Bound() (domain.ResourceID, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.binding == nil {
		return "", false
	}
	return g.binding.Resource, true
}

// refreshLocked runs the analyser unless it already ran within frameInterval.
func (g *Graph) refreshLocked() {
	now := g.now()
	if g.computed && now.Sub(g.computedAt) < frameInterval {
		return
	}
	g.bins = g.binding.analyser.Frequencies(g.bins)
	g.computed = true
	g.computedAt = now
}

func (g *Graph) activeLocked() bool {
	return g.binding != nil && g.state.TransportState() == domain.StatePlaying
}

// Release detaches the tap and clears the binding. It is meant for session
// teardown only; calling it on an unbound graph does nothing.
func (g *Graph) Release() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.binding == nil {
		return nil
	}

	err := g.binding.tap.Detach()
	g.logger.Debug("analysis released", slog.String("resource", string(g.binding.Resource)))
	g.binding = nil
	g.computed = false
	if err != nil {
		return fmt.Errorf("detach analysis tap: %w", err)
	}
	return nil
}
