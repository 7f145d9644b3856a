package transport

import (
	"fmt"
	"time"
)

// DeviceSender routes each payload to the sender for the target's type.
type DeviceSender struct {
	ethernet  *EthernetSender
	usb       *USBSender
	bluetooth *BluetoothSender
}

func NewDeviceSender() *DeviceSender {
	return &DeviceSender{
		ethernet:  NewEthernetSender(),
		usb:       NewUSBSender(),
		bluetooth: NewBluetoothSender(),
	}
}

func (s *DeviceSender) Send(target Target, payload Payload, timeout time.Duration) error {
	switch target.Type {
	case TypeEthernet:
		return s.ethernet.Send(target, payload, timeout)
	case TypeUSB:
		return s.usb.Send(target, payload, timeout)
	case TypeBluetooth:
		return s.bluetooth.Send(target, payload, timeout)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, target.Type)
	}
}

// Close releases any handles senders keep open across jobs.
func (s *DeviceSender) Close() {
	s.usb.Close()
}
