package transport

import (
	"bytes"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestPayloadRepresentation(t *testing.T) {
	text := Text("RECEIPT\nLINE 2\n")
	if !text.IsText() {
		t.Fatalf("Text payload reported IsText=false")
	}
	if got := string(text.Raw()); got != "RECEIPT\nLINE 2\n" {
		t.Fatalf("Raw mismatch: %q", got)
	}
	if text.Lines() != 3 {
		t.Fatalf("Lines mismatch: got %d want 3", text.Lines())
	}

	raw := Bytes([]byte{0x1B, '@', 0x00, 0x0A, 0xFF})
	if raw.IsText() {
		t.Fatalf("Bytes payload reported IsText=true")
	}
	// Byte value 0 must survive round-tripping exactly.
	if !bytes.Equal(raw.Raw(), []byte{0x1B, '@', 0x00, 0x0A, 0xFF}) {
		t.Fatalf("Bytes payload corrupted: %x", raw.Raw())
	}
	if raw.Lines() != 2 {
		t.Fatalf("Lines mismatch for bytes: got %d want 2", raw.Lines())
	}
}

func TestEthernetSendWritesFullPayload(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)

	payload := Bytes([]byte{0x1B, '@', 'h', 'i', 0x1D, 'V', 0})
	sender := NewEthernetSender()
	if err := sender.Send(Target{Type: TypeEthernet, IP: host, Port: port}, payload, 2*time.Second); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	select {
	case data := <-received:
		if !bytes.Equal(data, payload.Raw()) {
			t.Fatalf("payload mismatch:\ngot  %x\nwant %x", data, payload.Raw())
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("server never received payload")
	}
}

func TestEthernetSendConnectFailure(t *testing.T) {
	sender := NewEthernetSender()
	err := sender.Send(Target{Type: TypeEthernet, IP: "127.0.0.1", Port: 1}, Text("x"), 500*time.Millisecond)
	if err == nil {
		t.Fatalf("expected connection error")
	}
	if !errors.Is(err, ErrConnectionFailed) && !errors.Is(err, ErrTimeout) {
		t.Fatalf("unexpected error kind: %v", err)
	}
}

func TestEthernetSendMissingIP(t *testing.T) {
	sender := NewEthernetSender()
	err := sender.Send(Target{Type: TypeEthernet}, Text("x"), time.Second)
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestTargetAddressDefaultsPort(t *testing.T) {
	target := Target{IP: "192.168.1.50"}
	if got := target.Address(); got != "192.168.1.50:9100" {
		t.Fatalf("default port mismatch: %s", got)
	}
	target.Port = 9101
	if got := target.Address(); got != "192.168.1.50:9101" {
		t.Fatalf("explicit port mismatch: %s", got)
	}
}

func TestUSBSendNoDevices(t *testing.T) {
	sender := NewUSBSender()
	sender.devGlob = "/nonexistent/usb/lp*"
	err := sender.Send(Target{Type: TypeUSB}, Text("x"), time.Second)
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestBluetoothSendNoDevices(t *testing.T) {
	sender := NewBluetoothSender()
	sender.devGlob = "/nonexistent/rfcomm*"
	err := sender.Send(Target{Type: TypeBluetooth}, Text("x"), time.Second)
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestDeviceSenderUnknownType(t *testing.T) {
	sender := NewDeviceSender()
	err := sender.Send(Target{Type: "parallel"}, Text("x"), time.Second)
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}

func TestNormalizeError(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		wantKind string
		wantMsg  string
	}{
		{name: "plain-error", value: errors.New("boom"), wantKind: "transport", wantMsg: "boom"},
		{name: "config-error", value: ErrDeviceNotFound, wantKind: "config", wantMsg: "device not found"},
		{name: "string-panic", value: "panicked", wantKind: "transport", wantMsg: "panicked"},
		{name: "int-panic", value: 42, wantKind: "transport", wantMsg: "42"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeError(tc.value)
			if got.Kind != tc.wantKind {
				t.Fatalf("kind mismatch: got %q want %q", got.Kind, tc.wantKind)
			}
			if !strings.Contains(got.Message, tc.wantMsg) {
				t.Fatalf("message mismatch: got %q want substring %q", got.Message, tc.wantMsg)
			}
		})
	}

	if NormalizeError(nil) != nil {
		t.Fatalf("NormalizeError(nil) must be nil")
	}
}
