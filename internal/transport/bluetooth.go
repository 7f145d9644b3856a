package transport

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.bug.st/serial"
)

// BluetoothSender writes payloads to paired bluetooth printers bound as
// rfcomm serial ports. The port is opened per job and closed after the
// write, mirroring the ethernet path.
type BluetoothSender struct {
	devGlob  string
	baudRate int
}

func NewBluetoothSender() *BluetoothSender {
	return &BluetoothSender{
		devGlob:  "/dev/rfcomm*",
		baudRate: 115200,
	}
}

func (s *BluetoothSender) Send(target Target, payload Payload, timeout time.Duration) error {
	path, err := s.selectDevice(target)
	if err != nil {
		return err
	}

	return withTimeout(timeout, func() error {
		port, err := serial.Open(path, &serial.Mode{BaudRate: s.baudRate})
		if err != nil {
			return fmt.Errorf("%w: open %s: %v", ErrConnectionFailed, path, err)
		}
		defer port.Close()

		data := payload.Raw()
		for len(data) > 0 {
			n, err := port.Write(data)
			if err != nil {
				return fmt.Errorf("%w: write %s: %v", ErrConnectionFailed, path, err)
			}
			data = data[n:]
		}
		return nil
	})
}

// selectDevice picks the rfcomm port bound to the configured MAC address,
// or the first bound port when no address is configured.
func (s *BluetoothSender) selectDevice(target Target) (string, error) {
	paths, err := filepath.Glob(s.devGlob)
	if err != nil {
		return "", fmt.Errorf("%w: bluetooth enumeration: %v", ErrDeviceNotFound, err)
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("%w: no bluetooth printers bound", ErrDeviceNotFound)
	}
	sort.Strings(paths)

	if target.MACAddress == "" {
		return paths[0], nil
	}

	want := normalizeMAC(target.MACAddress)
	for _, path := range paths {
		addr := readTrimFile(filepath.Join("/sys/class/tty", filepath.Base(path), "address"))
		if addr != "" && normalizeMAC(addr) == want {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: no bluetooth printer matches %s", ErrDeviceNotFound, target.MACAddress)
}

func normalizeMAC(mac string) string {
	mac = strings.ToUpper(strings.TrimSpace(mac))
	return strings.ReplaceAll(mac, "-", ":")
}
