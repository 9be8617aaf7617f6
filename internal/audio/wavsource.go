// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"
	"sync"
	"time"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"

	"specviz/internal/config"
	"specviz/internal/log"
)

// WavSource replays a WAV file through the same Processor contract as
// live capture, one window per real-time interval, channel 0 only. It
// needs no audio hardware.
type WavSource struct {
	path       string
	windowSize int
	wantRate   float64
	processor  Processor
	log        *logrus.Entry

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewWavSource(cfg *config.Config, processor Processor, logger *logrus.Logger) *WavSource {
	return &WavSource{
		path:       cfg.WavPath,
		windowSize: cfg.WindowSize,
		wantRate:   cfg.SampleRate,
		processor:  processor,
		log:        log.WithComponent(logger, "wav"),
		done:       make(chan struct{}),
	}
}

// Start opens and validates the file, then replays it on a background
// goroutine until EOF or Stop. Replay runs at the file's own sample
// rate; a mismatch with the configured rate is logged, not fatal.
func (s *WavSource) Start() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open wav file: %w", err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return fmt.Errorf("%s: not a valid wav file", s.path)
	}

	format := decoder.Format()
	fileRate := float64(format.SampleRate)
	if fileRate != s.wantRate {
		s.log.WithFields(logrus.Fields{
			"file_rate":       fileRate,
			"configured_rate": s.wantRate,
		}).Warn("sample rate mismatch, replaying at file rate")
	}

	s.log.WithFields(logrus.Fields{
		"path":     s.path,
		"rate":     fileRate,
		"channels": format.NumChannels,
		"bits":     decoder.BitDepth,
	}).Info("wav replay started")

	s.wg.Add(1)
	go s.replay(f, decoder, format.NumChannels, fileRate)
	return nil
}

func (s *WavSource) replay(f *os.File, decoder *wav.Decoder, channels int, rate float64) {
	defer s.wg.Done()
	defer f.Close()

	interval := time.Duration(float64(s.windowSize) / rate * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bitDepth := decoder.BitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := 1.0 / float32(int(1)<<(bitDepth-1))

	chunk := &gaudio.IntBuffer{Data: make([]int, s.windowSize*channels)}
	window := make([]float32, s.windowSize)

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			n, err := decoder.PCMBuffer(chunk)
			if err != nil {
				s.log.WithError(err).Error("wav decode failed")
				return
			}
			if n == 0 {
				s.log.Info("wav replay finished")
				return
			}

			frames := n / channels
			for i := 0; i < frames; i++ {
				window[i] = float32(chunk.Data[i*channels]) * scale
			}
			s.processor.Process(window[:frames])
		}
	}
}

// Stop ends the replay and waits for the goroutine to drain. Idempotent.
func (s *WavSource) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
}
