package audio

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gordonklaus/portaudio"

	"specviz/internal/config"
	"specviz/internal/log"
)

type fakeStream struct {
	startErr error
	stopErr  error
	closeErr error
	starts   int
	stops    int
	closes   int
}

func (s *fakeStream) Start() error { s.starts++; return s.startErr }
func (s *fakeStream) Stop() error  { s.stops++; return s.stopErr }
func (s *fakeStream) Close() error { s.closes++; return s.closeErr }

// recordingSink copies every window it receives.
type recordingSink struct {
	windows [][]float32
}

func (p *recordingSink) Process(samples []float32) {
	cp := make([]float32, len(samples))
	copy(cp, samples)
	p.windows = append(p.windows, cp)
}

// countingSink never allocates, for the hot path checks.
type countingSink struct {
	calls int
}

func (p *countingSink) Process([]float32) { p.calls++ }

func swapOpenStream(t *testing.T, open func(portaudio.StreamParameters, func([]float32)) (paStream, error)) {
	t.Helper()
	orig := paOpenStream
	paOpenStream = open
	t.Cleanup(func() { paOpenStream = orig })
}

func newTestCapture(t *testing.T, cfg *config.Config, sink Processor) (*Capture, *fakeStream) {
	t.Helper()
	resetPortAudio(t)
	useFakeDevices(t)

	stream := &fakeStream{}
	swapOpenStream(t, func(portaudio.StreamParameters, func([]float32)) (paStream, error) {
		return stream, nil
	})

	return NewCapture(cfg, sink, log.Nop()), stream
}

func TestStartOpensConfiguredStream(t *testing.T) {
	resetPortAudio(t)
	infos := useFakeDevices(t)

	var gotParams portaudio.StreamParameters
	stream := &fakeStream{}
	swapOpenStream(t, func(params portaudio.StreamParameters, _ func([]float32)) (paStream, error) {
		gotParams = params
		return stream, nil
	})

	cfg := config.NewConfig()
	c := NewCapture(cfg, &recordingSink{}, log.Nop())
	if err := c.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer c.Stop()

	if gotParams.Input.Device != infos[0] {
		t.Errorf("input device = %v, want default input", gotParams.Input.Device)
	}
	if gotParams.Input.Channels != cfg.Channels {
		t.Errorf("input channels = %d, want %d", gotParams.Input.Channels, cfg.Channels)
	}
	if gotParams.Output.Device != nil || gotParams.Output.Channels != 0 {
		t.Error("output half of an input stream must stay empty")
	}
	if gotParams.SampleRate != cfg.SampleRate {
		t.Errorf("sample rate = %f, want %f", gotParams.SampleRate, cfg.SampleRate)
	}
	if gotParams.FramesPerBuffer != cfg.WindowSize {
		t.Errorf("frames per buffer = %d, want %d", gotParams.FramesPerBuffer, cfg.WindowSize)
	}
	if stream.starts != 1 {
		t.Errorf("stream started %d times, want 1", stream.starts)
	}
}

func TestStartFailsWhenNoInputDevice(t *testing.T) {
	resetPortAudio(t)
	useFakeDevices(t)
	paLibDefaultInputDeviceFunc = func() (*portaudio.DeviceInfo, error) {
		return nil, fmt.Errorf("no default input")
	}

	opened := false
	swapOpenStream(t, func(portaudio.StreamParameters, func([]float32)) (paStream, error) {
		opened = true
		return &fakeStream{}, nil
	})

	c := NewCapture(config.NewConfig(), &recordingSink{}, log.Nop())
	err := c.Start()
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
	if opened {
		t.Error("stream must not be opened when device resolution fails")
	}
}

func TestStartFailsWhenBadOutputDevice(t *testing.T) {
	resetPortAudio(t)
	useFakeDevices(t)

	cfg := config.NewConfig()
	cfg.OutputDevice = 0 // input-only device

	c := NewCapture(cfg, &recordingSink{}, log.Nop())
	if err := c.Start(); !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
}

func TestStartOpenError(t *testing.T) {
	resetPortAudio(t)
	useFakeDevices(t)
	swapOpenStream(t, func(portaudio.StreamParameters, func([]float32)) (paStream, error) {
		return nil, fmt.Errorf("mock open error")
	})

	c := NewCapture(config.NewConfig(), &recordingSink{}, log.Nop())
	if err := c.Start(); !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
}

func TestStartStreamStartError(t *testing.T) {
	cfg := config.NewConfig()
	c, stream := newTestCapture(t, cfg, &recordingSink{})
	stream.startErr = fmt.Errorf("mock start error")

	if err := c.Start(); !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
	if stream.closes != 1 {
		t.Errorf("failed stream closed %d times, want 1", stream.closes)
	}
	if c.running.Load() {
		t.Error("session must not be running after failed Start")
	}
}

func TestCallbackExtractsChannelZero(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Channels = 2
	cfg.WindowSize = 4

	sink := &recordingSink{}
	c, _ := newTestCapture(t, cfg, sink)
	if err := c.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer c.Stop()

	// Interleaved stereo: left channel counts up, right channel is noise.
	in := []float32{0.1, -1, 0.2, -1, 0.3, -1, 0.4, -1}
	c.process(in)

	if len(sink.windows) != 1 {
		t.Fatalf("got %d windows, want 1", len(sink.windows))
	}
	want := []float32{0.1, 0.2, 0.3, 0.4}
	got := sink.windows[0]
	if len(got) != len(want) {
		t.Fatalf("window length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestCallbackMonoPassthrough(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Channels = 1
	cfg.WindowSize = 4

	sink := &recordingSink{}
	c, _ := newTestCapture(t, cfg, sink)
	if err := c.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer c.Stop()

	in := []float32{0.5, 0.6, 0.7, 0.8}
	c.process(in)

	if len(sink.windows) != 1 || len(sink.windows[0]) != 4 {
		t.Fatalf("mono window not passed through: %v", sink.windows)
	}
	if sink.windows[0][2] != 0.7 {
		t.Errorf("sample 2 = %f, want 0.7", sink.windows[0][2])
	}
}

func TestCallbackBeforeStartDoesNothing(t *testing.T) {
	cfg := config.NewConfig()
	cfg.WindowSize = 4

	sink := &recordingSink{}
	c, _ := newTestCapture(t, cfg, sink)

	c.process([]float32{1, 1, 1, 1, 1, 1, 1, 1})
	if len(sink.windows) != 0 {
		t.Errorf("callback before Start produced %d windows, want 0", len(sink.windows))
	}
}

func TestCallbackAfterStopDoesNothing(t *testing.T) {
	cfg := config.NewConfig()
	cfg.WindowSize = 4

	sink := &recordingSink{}
	c, _ := newTestCapture(t, cfg, sink)
	if err := c.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	c.Stop()

	c.process([]float32{1, 1, 1, 1, 1, 1, 1, 1})
	if len(sink.windows) != 0 {
		t.Errorf("callback after Stop produced %d windows, want 0", len(sink.windows))
	}
}

type panickingSink struct{}

func (panickingSink) Process([]float32) { panic("sink blew up") }

func TestCallbackRecoversSinkPanic(t *testing.T) {
	cfg := config.NewConfig()
	cfg.WindowSize = 4

	c, _ := newTestCapture(t, cfg, panickingSink{})
	if err := c.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer c.Stop()

	// Must not propagate into the caller, which in production is C code.
	c.process([]float32{1, 1, 1, 1, 1, 1, 1, 1})
}

func TestStopIdempotent(t *testing.T) {
	cfg := config.NewConfig()
	sink := &recordingSink{}
	c, stream := newTestCapture(t, cfg, sink)
	if err := c.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	c.Stop()
	c.Stop()
	c.Stop()

	if stream.stops != 1 {
		t.Errorf("stream stopped %d times, want 1", stream.stops)
	}
	if stream.closes != 1 {
		t.Errorf("stream closed %d times, want 1", stream.closes)
	}
}

func TestStopBeforeStart(t *testing.T) {
	c, stream := newTestCapture(t, config.NewConfig(), &recordingSink{})

	c.Stop()

	if stream.stops != 0 || stream.closes != 0 {
		t.Error("Stop before Start must not touch any stream")
	}
}

func TestStopToleratesStreamErrors(t *testing.T) {
	cfg := config.NewConfig()
	c, stream := newTestCapture(t, cfg, &recordingSink{})
	if err := c.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	stream.stopErr = fmt.Errorf("PaErrorCode -9986: stream already stopped")
	stream.closeErr = fmt.Errorf("mock close error")

	c.Stop()

	if stream.closes != 1 {
		t.Errorf("stream closed %d times, want 1", stream.closes)
	}
}

func TestCallbackHotPathZeroAllocs(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Channels = 2
	cfg.WindowSize = 1024

	sink := &countingSink{}
	c, _ := newTestCapture(t, cfg, sink)
	if err := c.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer c.Stop()

	in := make([]float32, cfg.WindowSize*cfg.Channels)
	for i := range in {
		in[i] = float32(i%100) / 100
	}

	// Warm up before measuring.
	c.process(in)

	allocs := testing.AllocsPerRun(100, func() {
		c.process(in)
	})
	if allocs > 0 {
		t.Errorf("expected zero allocations in the callback, got %.1f", allocs)
	}
}

func BenchmarkCallback(b *testing.B) {
	cfg := config.NewConfig()
	cfg.Channels = 2
	cfg.WindowSize = 1024

	c := NewCapture(cfg, &countingSink{}, log.Nop())
	c.running.Store(true)

	in := make([]float32, cfg.WindowSize*cfg.Channels)
	for i := range in {
		in[i] = float32(i%100) / 100
	}

	b.ReportAllocs()
	for b.Loop() {
		c.process(in)
	}
}
