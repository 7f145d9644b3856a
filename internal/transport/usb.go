package transport

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// usbDevice is one attached USB printer, discovered through the kernel's
// usblp class devices.
type usbDevice struct {
	Path      string
	VendorID  string
	ProductID string
	Product   string
}

// USBSender writes payloads to USB printer character devices. Unlike the
// ethernet path, the open handle is kept across jobs and only dropped on
// a write failure.
type USBSender struct {
	devGlob string

	mu      sync.Mutex
	handles map[string]*os.File
}

func NewUSBSender() *USBSender {
	return &USBSender{
		devGlob: "/dev/usb/lp*",
		handles: make(map[string]*os.File),
	}
}

func (s *USBSender) Send(target Target, payload Payload, timeout time.Duration) error {
	dev, err := s.selectDevice(target)
	if err != nil {
		return err
	}

	return withTimeout(timeout, func() error {
		handle, err := s.handle(dev.Path)
		if err != nil {
			return fmt.Errorf("%w: open %s: %v", ErrConnectionFailed, dev.Path, err)
		}
		if _, err := handle.Write(payload.Raw()); err != nil {
			s.drop(dev.Path)
			return fmt.Errorf("%w: write %s: %v", ErrConnectionFailed, dev.Path, err)
		}
		return nil
	})
}

// selectDevice picks the device matching the configured vendor/product
// ids, or the first attached printer when no ids are configured.
func (s *USBSender) selectDevice(target Target) (usbDevice, error) {
	devices, err := s.enumerate()
	if err != nil {
		return usbDevice{}, fmt.Errorf("%w: usb enumeration: %v", ErrDeviceNotFound, err)
	}
	if len(devices) == 0 {
		return usbDevice{}, fmt.Errorf("%w: no USB printers attached", ErrDeviceNotFound)
	}

	if target.VendorID == "" && target.ProductID == "" {
		return devices[0], nil
	}

	for _, dev := range devices {
		if matchID(dev.VendorID, target.VendorID) && matchID(dev.ProductID, target.ProductID) {
			return dev, nil
		}
	}
	return usbDevice{}, fmt.Errorf("%w: no USB printer matches vendor=%s product=%s",
		ErrDeviceNotFound, target.VendorID, target.ProductID)
}

func (s *USBSender) enumerate() ([]usbDevice, error) {
	paths, err := filepath.Glob(s.devGlob)
	if err != nil {
		return nil, err
	}

	devices := make([]usbDevice, 0, len(paths))
	for _, path := range paths {
		dev := usbDevice{Path: path}
		fillUSBSysfs(&dev)
		devices = append(devices, dev)
	}

	sort.Slice(devices, func(i, j int) bool {
		return devices[i].Path < devices[j].Path
	})
	return devices, nil
}

// fillUSBSysfs resolves the usblp node back to its USB interface and
// reads the id attributes from the parent device directory.
func fillUSBSysfs(dev *usbDevice) {
	base := filepath.Base(dev.Path)
	classPath := filepath.Join("/sys/class/usbmisc", base)
	ifacePath, err := filepath.EvalSymlinks(filepath.Join(classPath, "device"))
	if err != nil {
		return
	}

	parent := filepath.Dir(ifacePath)
	dev.VendorID = readTrimFile(filepath.Join(parent, "idVendor"))
	dev.ProductID = readTrimFile(filepath.Join(parent, "idProduct"))
	dev.Product = readTrimFile(filepath.Join(parent, "product"))
}

func (s *USBSender) handle(path string) (*os.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.handles[path]; ok && f != nil {
		return f, nil
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, err
	}
	s.handles[path] = f
	return f, nil
}

func (s *USBSender) drop(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.handles[path]; ok {
		if f != nil {
			f.Close()
		}
		delete(s.handles, path)
	}
}

// Close releases all kept USB handles.
func (s *USBSender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for path, f := range s.handles {
		if f != nil {
			f.Close()
		}
		delete(s.handles, path)
	}
}

func readTrimFile(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
