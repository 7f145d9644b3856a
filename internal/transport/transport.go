// Package transport delivers encoded print payloads to physical printers.
// Each printer type has its own delivery path; all of them share the same
// contract: connect, write the payload fully within the timeout, and
// surface any failure as a descriptive error.
package transport

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrDeviceNotFound   = errors.New("device not found")
	ErrConnectionFailed = errors.New("connection failed")
	ErrTimeout          = errors.New("operation timed out")
	ErrUnknownType      = errors.New("unknown printer type")
)

// PrinterType identifies the physical connection of a printer.
type PrinterType string

const (
	TypeEthernet  PrinterType = "ethernet"
	TypeUSB       PrinterType = "usb"
	TypeBluetooth PrinterType = "bluetooth"
)

func (t PrinterType) Valid() bool {
	switch t {
	case TypeEthernet, TypeUSB, TypeBluetooth:
		return true
	}
	return false
}

const DefaultEthernetPort = 9100

// Target carries the connection parameters a sender needs. Which fields
// matter depends on Type.
type Target struct {
	Type       PrinterType
	IP         string
	Port       int
	VendorID   string
	ProductID  string
	MACAddress string
}

func (t Target) Address() string {
	port := t.Port
	if port == 0 {
		port = DefaultEthernetPort
	}
	return fmt.Sprintf("%s:%d", t.IP, port)
}

// Payload is either raw printer bytes or ESC/POS text. The two are kept
// distinct so senders never guess at the representation.
type Payload struct {
	bytes  []byte
	text   string
	isText bool
}

func Bytes(b []byte) Payload {
	return Payload{bytes: b}
}

func Text(s string) Payload {
	return Payload{text: s, isText: true}
}

func (p Payload) IsText() bool {
	return p.isText
}

// Raw returns the on-wire bytes of the payload.
func (p Payload) Raw() []byte {
	if p.isText {
		return []byte(p.text)
	}
	return p.bytes
}

func (p Payload) Len() int {
	if p.isText {
		return len(p.text)
	}
	return len(p.bytes)
}

// Lines counts line feeds in the payload. The scheduler uses it to model
// physical print duration.
func (p Payload) Lines() int {
	n := 1
	for _, b := range p.Raw() {
		if b == '\n' {
			n++
		}
	}
	return n
}

// Sender delivers one payload to one target within the timeout.
type Sender interface {
	Send(target Target, payload Payload, timeout time.Duration) error
}

// SendError is the normalized form every failure takes before it crosses
// into the scheduler.
type SendError struct {
	Kind    string
	Message string
}

func (e *SendError) Error() string {
	return e.Message
}

// NormalizeError maps any recovered value to a SendError. Panics inside a
// send path and plain errors both end up here.
func NormalizeError(v any) *SendError {
	switch err := v.(type) {
	case nil:
		return nil
	case *SendError:
		return err
	case error:
		kind := "transport"
		if errors.Is(err, ErrDeviceNotFound) || errors.Is(err, ErrUnknownType) {
			kind = "config"
		}
		return &SendError{Kind: kind, Message: err.Error()}
	default:
		return &SendError{Kind: "transport", Message: fmt.Sprint(v)}
	}
}

// withTimeout runs fn and rejects the whole operation if it does not
// finish in time. The late result is drained by the buffered channel.
func withTimeout(timeout time.Duration, fn func() error) error {
	ch := make(chan error, 1)
	go func() {
		ch <- fn()
	}()

	select {
	case err := <-ch:
		return err
	case <-time.After(timeout):
		return ErrTimeout
	}
}

func matchID(got, want string) bool {
	return want == "" || strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(want))
}
