package sampler

import (
	"gonum.org/v1/gonum/floats"

	"github.com/CraigKelly/nogold/buffer"
)

// Ridge move tuning: every adaptBatch tries during burn-in the step grows
// when acceptance is above acceptHigh and shrinks when below acceptLow.
const (
	adaptBatch  = 50
	adaptFactor = 1.25
	acceptLow   = 0.2
	acceptHigh  = 0.4
)

// MoveStats describes a ridge move after (or during) a run
type MoveStats struct {
	Name     string
	Step     float64
	Tried    int64
	Accepted int64
}

// Rate is the fraction of accepted proposals
func (s MoveStats) Rate() float64 {
	if s.Tried < 1 {
		return 0
	}
	return float64(s.Accepted) / float64(s.Tried)
}

// affineMove is the random walk state of one ridge move
type affineMove struct {
	name     string
	step     float64
	adapt    bool
	recent   *buffer.CircularFloat // 1 for accepted, 0 for rejected
	tried    int64
	accepted int64
}

func newAffineMove(name string, step float64) *affineMove {
	return &affineMove{
		name:   name,
		step:   step,
		recent: buffer.NewCircularFloat(adaptBatch),
	}
}

func (m *affineMove) record(ok bool) {
	m.tried++
	v := 0.0
	if ok {
		m.accepted++
		v = 1.0
	}
	m.recent.Add(v)

	if !m.adapt || !m.recent.Full() || m.recent.TotalSeen%adaptBatch != 0 {
		return
	}

	rate := (floats.Sum(m.recent.FirstHalf().Slice()) + floats.Sum(m.recent.SecondHalf().Slice())) /
		float64(m.recent.BufSize)
	switch {
	case rate > acceptHigh:
		m.step *= adaptFactor
	case rate < acceptLow:
		m.step /= adaptFactor
	}
}

func (m *affineMove) stats() MoveStats {
	return MoveStats{Name: m.name, Step: m.step, Tried: m.tried, Accepted: m.accepted}
}
