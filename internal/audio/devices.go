// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/gordonklaus/portaudio"

	"specviz/internal/config"
)

// ErrDeviceUnavailable marks any failure to resolve or open an audio
// device. Startup treats it as fatal; match with errors.Is.
var ErrDeviceUnavailable = errors.New("audio device unavailable")

// Indirection over the PortAudio library calls so device logic is
// testable without a sound card.
var (
	paLibInitialize              = portaudio.Initialize
	paLibTerminate               = portaudio.Terminate
	paLibDevicesFunc             = portaudio.Devices
	paLibDefaultInputDeviceFunc  = portaudio.DefaultInputDevice
	paLibDefaultOutputDeviceFunc = portaudio.DefaultOutputDevice
)

// paDevicesFunc is the enumeration entry point used by HostDevices,
// InputDevice and OutputDevice.
var paDevicesFunc = paDevices

var (
	initOnce sync.Once
	termOnce sync.Once
	initErr  error
)

// Initialize sets up the PortAudio subsystem. Multiple callers are safe;
// the underlying call happens once per process and must be balanced by
// one Terminate before exit.
func Initialize() error {
	initOnce.Do(func() {
		if err := paLibInitialize(); err != nil {
			initErr = fmt.Errorf("failed to initialize PortAudio: %w", err)
		}
	})
	return initErr
}

// Terminate shuts down the PortAudio subsystem. Safe to call multiple
// times; a no-op when Initialize never succeeded.
func Terminate() error {
	if initErr != nil {
		return nil
	}
	var err error
	termOnce.Do(func() {
		if terr := paLibTerminate(); terr != nil {
			err = fmt.Errorf("failed to terminate PortAudio: %w", terr)
		}
	})
	return err
}

// InputDevice resolves an input device by host index. MinDeviceID (-1)
// selects the system default input device.
func InputDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	if deviceID == config.MinDeviceID {
		device, err := paLibDefaultInputDeviceFunc()
		if err != nil {
			return nil, fmt.Errorf("default input device: %w: %w", err, ErrDeviceUnavailable)
		}
		return device, nil
	}

	device, err := deviceByID(deviceID)
	if err != nil {
		return nil, err
	}
	if device.MaxInputChannels == 0 {
		return nil, fmt.Errorf("device %q does not support input: %w", device.Name, ErrDeviceUnavailable)
	}
	return device, nil
}

// OutputDevice resolves an output device by host index. MinDeviceID (-1)
// selects the system default output device. The capture stream never
// writes to it; resolving the configured output up front makes a bad
// device index fail at startup instead of being silently ignored.
func OutputDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	if deviceID == config.MinDeviceID {
		device, err := paLibDefaultOutputDeviceFunc()
		if err != nil {
			return nil, fmt.Errorf("default output device: %w: %w", err, ErrDeviceUnavailable)
		}
		return device, nil
	}

	device, err := deviceByID(deviceID)
	if err != nil {
		return nil, err
	}
	if device.MaxOutputChannels == 0 {
		return nil, fmt.Errorf("device %q does not support output: %w", device.Name, ErrDeviceUnavailable)
	}
	return device, nil
}

func deviceByID(deviceID int) (*portaudio.DeviceInfo, error) {
	devices, err := paDevicesFunc()
	if err != nil {
		return nil, fmt.Errorf("list audio devices: %w: %w", err, ErrDeviceUnavailable)
	}
	if deviceID < 0 || deviceID >= len(devices) {
		return nil, fmt.Errorf("invalid device ID %d: %w", deviceID, ErrDeviceUnavailable)
	}
	return devices[deviceID], nil
}

// ListDevices writes a table of all host audio devices to w.
// For each device it shows:
// - Device ID and name
// - Device type (Input/Output/Input+Output)
// - Channel counts
// - Default sample rate
// - Input latency range
func ListDevices(w io.Writer) error {
	devices, err := HostDevices()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\nAvailable Audio Devices\n\n")

	for _, device := range devices {
		fmt.Fprintf(w, "[%d] %s (%s)\n", device.ID, device.Name, device.TypeLabel())
		fmt.Fprintf(w, "    Input channels: %d, Output channels: %d\n",
			device.MaxInputChannels, device.MaxOutputChannels)
		fmt.Fprintf(w, "    Default sample rate: %.0f Hz\n", device.DefaultSampleRate)
		fmt.Fprintf(w, "    Latency: Low=%.2fms, High=%.2fms\n",
			device.DefaultLowInputLatency.Seconds()*1000,
			device.DefaultHighInputLatency.Seconds()*1000)
		fmt.Fprintln(w)
	}

	return nil
}

// paDevices returns all host devices, normalizing a nil result to an
// empty slice.
func paDevices() ([]*portaudio.DeviceInfo, error) {
	devices, err := paLibDevicesFunc()
	if err != nil {
		return nil, err
	}
	if devices == nil {
		devices = []*portaudio.DeviceInfo{}
	}
	return devices, nil
}
