package audio

import (
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"specviz/internal/config"
	"specviz/internal/log"
	"specviz/pkg/signal"
)

// Demo sweep bounds: five octaves up from A2 and back over one period.
const (
	demoBaseHz      = 110.0
	demoOctaves     = 5.0
	demoSweepPeriod = 12 * time.Second
)

// DemoSource synthesizes a slow sine sweep so the whole pipeline can run
// without hardware or input files.
type DemoSource struct {
	processor  Processor
	log        *logrus.Entry
	windowSize int
	sampleRate float64

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewDemoSource(cfg *config.Config, processor Processor, logger *logrus.Logger) *DemoSource {
	return &DemoSource{
		processor:  processor,
		log:        log.WithComponent(logger, "demo"),
		windowSize: cfg.WindowSize,
		sampleRate: cfg.SampleRate,
		done:       make(chan struct{}),
	}
}

func (s *DemoSource) Start() error {
	s.log.WithFields(logrus.Fields{
		"base_hz": demoBaseHz,
		"octaves": demoOctaves,
	}).Info("demo sweep started")

	s.wg.Add(1)
	go s.run()
	return nil
}

func (s *DemoSource) run() {
	defer s.wg.Done()

	interval := time.Duration(float64(s.windowSize) / s.sampleRate * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	osc := signal.NewOscillator(s.sampleRate, demoBaseHz, 0.9)
	window := make([]float32, s.windowSize)

	start := time.Now()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			pos := time.Since(start).Seconds() / demoSweepPeriod.Seconds()
			sweep := 0.5 - 0.5*math.Cos(2*math.Pi*pos)
			osc.SetFrequency(demoBaseHz * math.Pow(2, demoOctaves*sweep))
			osc.Fill(window)
			s.processor.Process(window)
		}
	}
}

// Stop ends the sweep and waits for the goroutine to drain. Idempotent.
func (s *DemoSource) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
}
