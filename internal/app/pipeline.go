package app

import (
	"sync/atomic"

	"specviz/internal/dsp"
	"specviz/internal/spectrum"
)

// producer is the Processor between a sample source and the render
// side. It runs inside the audio callback: no locks, no logging, one
// fixed-size frame allocation per window, and a push that never blocks.
type producer struct {
	transform *dsp.Transform
	queue     *spectrum.Queue
	running   *atomic.Bool
}

func newProducer(transform *dsp.Transform, queue *spectrum.Queue, running *atomic.Bool) *producer {
	return &producer{
		transform: transform,
		queue:     queue,
		running:   running,
	}
}

// Process converts one sample window into a spectrum frame and queues
// it for the render loop. Windows arriving after shutdown began are
// discarded; frames that do not fit are counted by the queue and
// dropped.
func (p *producer) Process(samples []float32) {
	if !p.running.Load() {
		return
	}
	p.queue.TryPush(p.transform.Spectrum(samples))
}
