package audio

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/gordonklaus/portaudio"
)

// resetPortAudio swaps out every library binding and restores it, along
// with the init/terminate latches, when the test finishes. No test in
// this package touches real audio hardware.
func resetPortAudio(t *testing.T) {
	t.Helper()

	origInit := paLibInitialize
	origTerm := paLibTerminate
	origLibDevices := paLibDevicesFunc
	origDevices := paDevicesFunc
	origDefIn := paLibDefaultInputDeviceFunc
	origDefOut := paLibDefaultOutputDeviceFunc

	initOnce, termOnce, initErr = sync.Once{}, sync.Once{}, nil

	t.Cleanup(func() {
		paLibInitialize = origInit
		paLibTerminate = origTerm
		paLibDevicesFunc = origLibDevices
		paDevicesFunc = origDevices
		paLibDefaultInputDeviceFunc = origDefIn
		paLibDefaultOutputDeviceFunc = origDefOut
		initOnce, termOnce, initErr = sync.Once{}, sync.Once{}, nil
	})
}

func fakeDeviceInfos() []*portaudio.DeviceInfo {
	return []*portaudio.DeviceInfo{
		{Name: "Built-in Microphone", MaxInputChannels: 2, MaxOutputChannels: 0, DefaultSampleRate: 44100},
		{Name: "Built-in Output", MaxInputChannels: 0, MaxOutputChannels: 2, DefaultSampleRate: 44100},
		{Name: "USB Interface", MaxInputChannels: 8, MaxOutputChannels: 8, DefaultSampleRate: 48000},
	}
}

func useFakeDevices(t *testing.T) []*portaudio.DeviceInfo {
	t.Helper()
	infos := fakeDeviceInfos()
	paDevicesFunc = func() ([]*portaudio.DeviceInfo, error) {
		return infos, nil
	}
	paLibDefaultInputDeviceFunc = func() (*portaudio.DeviceInfo, error) {
		return infos[0], nil
	}
	paLibDefaultOutputDeviceFunc = func() (*portaudio.DeviceInfo, error) {
		return infos[1], nil
	}
	return infos
}

func TestInitializeOnce(t *testing.T) {
	resetPortAudio(t)

	calls := 0
	paLibInitialize = func() error { calls++; return nil }

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize error: %v", err)
	}
	if err := Initialize(); err != nil {
		t.Fatalf("second Initialize error: %v", err)
	}
	if calls != 1 {
		t.Errorf("library initialized %d times, want 1", calls)
	}
}

func TestInitializeErrorLatches(t *testing.T) {
	resetPortAudio(t)

	calls := 0
	paLibInitialize = func() error { calls++; return fmt.Errorf("mock init error") }

	for i := 0; i < 2; i++ {
		err := Initialize()
		if err == nil || !strings.Contains(err.Error(), "mock init error") {
			t.Fatalf("call %d: expected mock init error, got %v", i, err)
		}
	}
	if calls != 1 {
		t.Errorf("library initialized %d times, want 1", calls)
	}
}

func TestTerminateOnce(t *testing.T) {
	resetPortAudio(t)

	paLibInitialize = func() error { return nil }
	calls := 0
	paLibTerminate = func() error { calls++; return nil }

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize error: %v", err)
	}
	if err := Terminate(); err != nil {
		t.Fatalf("Terminate error: %v", err)
	}
	if err := Terminate(); err != nil {
		t.Fatalf("second Terminate error: %v", err)
	}
	if calls != 1 {
		t.Errorf("library terminated %d times, want 1", calls)
	}
}

func TestTerminateSkippedWhenInitFailed(t *testing.T) {
	resetPortAudio(t)

	paLibInitialize = func() error { return fmt.Errorf("mock init error") }
	paLibTerminate = func() error {
		t.Error("Terminate must not reach the library after failed init")
		return nil
	}

	_ = Initialize()
	if err := Terminate(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestTerminateError(t *testing.T) {
	resetPortAudio(t)

	paLibInitialize = func() error { return nil }
	paLibTerminate = func() error { return fmt.Errorf("mock term error") }

	if err := Initialize(); err != nil {
		t.Fatalf("Initialize error: %v", err)
	}
	if err := Terminate(); err == nil || !strings.Contains(err.Error(), "mock term error") {
		t.Errorf("expected mock term error, got %v", err)
	}
}

func TestHostDevices(t *testing.T) {
	resetPortAudio(t)
	infos := useFakeDevices(t)

	devices, err := HostDevices()
	if err != nil {
		t.Fatalf("HostDevices error: %v", err)
	}
	if len(devices) != len(infos) {
		t.Fatalf("got %d devices, want %d", len(devices), len(infos))
	}
	for i, d := range devices {
		if d.ID != i {
			t.Errorf("device ID mismatch: got %d, want %d", d.ID, i)
		}
		if d.Name != infos[i].Name {
			t.Errorf("device %d name = %q, want %q", i, d.Name, infos[i].Name)
		}
		if d.DefaultSampleRate != infos[i].DefaultSampleRate {
			t.Errorf("device %d sample rate = %f, want %f", i, d.DefaultSampleRate, infos[i].DefaultSampleRate)
		}
	}
}

func TestDeviceTypeLabel(t *testing.T) {
	tests := []struct {
		name string
		in   int
		out  int
		want string
	}{
		{"input only", 2, 0, "Input"},
		{"output only", 0, 2, "Output"},
		{"duplex", 8, 8, "Input/Output"},
		{"no channels", 0, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Device{MaxInputChannels: tt.in, MaxOutputChannels: tt.out}
			if got := d.TypeLabel(); got != tt.want {
				t.Errorf("TypeLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHostDevices_paDevicesError(t *testing.T) {
	resetPortAudio(t)

	paDevicesFunc = func() ([]*portaudio.DeviceInfo, error) {
		return nil, fmt.Errorf("mock error")
	}

	_, err := HostDevices()
	if err == nil || !strings.Contains(err.Error(), "mock error") {
		t.Errorf("expected mock error, got %v", err)
	}
}

func TestInputDevice(t *testing.T) {
	resetPortAudio(t)
	infos := useFakeDevices(t)

	t.Run("Default device", func(t *testing.T) {
		dev, err := InputDevice(-1)
		if err != nil {
			t.Fatalf("InputDevice(-1) error: %v", err)
		}
		if dev != infos[0] {
			t.Errorf("default input = %q, want %q", dev.Name, infos[0].Name)
		}
	})

	t.Run("Valid input device", func(t *testing.T) {
		dev, err := InputDevice(2)
		if err != nil {
			t.Fatalf("InputDevice(2) error: %v", err)
		}
		if dev.Name != "USB Interface" {
			t.Errorf("device name = %q, want USB Interface", dev.Name)
		}
	})

	tests := []struct {
		name   string
		id     int
		substr string
	}{
		{"Negative ID", -2, "invalid device ID"},
		{"Too high ID", len(infos) + 10, "invalid device ID"},
		{"Non-input device", 1, "does not support input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InputDevice(tt.id)
			if err == nil {
				t.Fatalf("expected error for ID %d", tt.id)
			}
			if !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.substr)
			}
			if !errors.Is(err, ErrDeviceUnavailable) {
				t.Errorf("error %v does not match ErrDeviceUnavailable", err)
			}
		})
	}
}

func TestOutputDevice(t *testing.T) {
	resetPortAudio(t)
	infos := useFakeDevices(t)

	t.Run("Default device", func(t *testing.T) {
		dev, err := OutputDevice(-1)
		if err != nil {
			t.Fatalf("OutputDevice(-1) error: %v", err)
		}
		if dev != infos[1] {
			t.Errorf("default output = %q, want %q", dev.Name, infos[1].Name)
		}
	})

	t.Run("Non-output device", func(t *testing.T) {
		_, err := OutputDevice(0)
		if err == nil || !strings.Contains(err.Error(), "does not support output") {
			t.Fatalf("expected non-output error, got %v", err)
		}
		if !errors.Is(err, ErrDeviceUnavailable) {
			t.Errorf("error %v does not match ErrDeviceUnavailable", err)
		}
	})
}

func TestInputDevice_paDefaultInputDeviceError(t *testing.T) {
	resetPortAudio(t)

	paLibDefaultInputDeviceFunc = func() (*portaudio.DeviceInfo, error) {
		return nil, fmt.Errorf("mock default input error")
	}

	_, err := InputDevice(-1)
	if err == nil || !strings.Contains(err.Error(), "mock default input error") {
		t.Fatalf("expected mock error, got %v", err)
	}
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Errorf("error %v does not match ErrDeviceUnavailable", err)
	}
}

func TestNilDevices(t *testing.T) {
	resetPortAudio(t)

	paLibDevicesFunc = func() ([]*portaudio.DeviceInfo, error) {
		return nil, nil
	}

	devices, err := paDevices()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if devices == nil {
		t.Error("expected empty slice, got nil")
	}
	if len(devices) != 0 {
		t.Errorf("expected length 0, got %d", len(devices))
	}
}

func TestListDevices(t *testing.T) {
	resetPortAudio(t)
	useFakeDevices(t)

	var buf bytes.Buffer
	if err := ListDevices(&buf); err != nil {
		t.Fatalf("ListDevices error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Available Audio Devices",
		"[0] Built-in Microphone (Input)",
		"[1] Built-in Output (Output)",
		"[2] USB Interface (Input/Output)",
		"Default sample rate: 48000 Hz",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
