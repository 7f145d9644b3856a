package pool

import (
	"time"

	"github.com/yiqunxu123/retail-pos-sub000/internal/transport"
)

type PrinterStatus string

const (
	StatusIdle    PrinterStatus = "idle"
	StatusBusy    PrinterStatus = "busy"
	StatusOffline PrinterStatus = "offline"
	StatusError   PrinterStatus = "error"
)

func (s PrinterStatus) Valid() bool {
	switch s {
	case StatusIdle, StatusBusy, StatusOffline, StatusError:
		return true
	}
	return false
}

// PrinterConfig is the caller-supplied description of one physical
// printer. Which connection fields matter depends on Type.
type PrinterConfig struct {
	ID         string                `json:"id"`
	Name       string                `json:"name"`
	Type       transport.PrinterType `json:"type"`
	IP         string                `json:"ip,omitempty"`
	Port       int                   `json:"port,omitempty"`
	VendorID   string                `json:"vendor_id,omitempty"`
	ProductID  string                `json:"product_id,omitempty"`
	MACAddress string                `json:"mac_address,omitempty"`
	PrintWidth int                   `json:"print_width"`
	Enabled    *bool                 `json:"enabled,omitempty"`
}

// PrinterPatch carries partial updates for UpdatePrinter; nil fields are
// left untouched.
type PrinterPatch struct {
	Name       *string `json:"name,omitempty"`
	IP         *string `json:"ip,omitempty"`
	Port       *int    `json:"port,omitempty"`
	VendorID   *string `json:"vendor_id,omitempty"`
	ProductID  *string `json:"product_id,omitempty"`
	MACAddress *string `json:"mac_address,omitempty"`
	PrintWidth *int    `json:"print_width,omitempty"`
}

// printer is the registry's mutable record. It is only ever touched with
// the pool mutex held.
type printer struct {
	PrinterConfig
	Enabled       bool
	Status        PrinterStatus
	JobsCompleted int64
	LastError     string
	LastActiveAt  time.Time
	seq           int
}

func (p *printer) eligible() bool {
	return p.Enabled && p.Status == StatusIdle
}

func (p *printer) target() transport.Target {
	return transport.Target{
		Type:       p.Type,
		IP:         p.IP,
		Port:       p.Port,
		VendorID:   p.VendorID,
		ProductID:  p.ProductID,
		MACAddress: p.MACAddress,
	}
}

// PrinterSnapshot is the read-only view handed to callers.
type PrinterSnapshot struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	Type          transport.PrinterType `json:"type"`
	IP            string                `json:"ip,omitempty"`
	Port          int                   `json:"port,omitempty"`
	VendorID      string                `json:"vendor_id,omitempty"`
	ProductID     string                `json:"product_id,omitempty"`
	MACAddress    string                `json:"mac_address,omitempty"`
	PrintWidth    int                   `json:"print_width"`
	Enabled       bool                  `json:"enabled"`
	Status        PrinterStatus         `json:"status"`
	JobsCompleted int64                 `json:"jobs_completed"`
	LastError     string                `json:"last_error,omitempty"`
	LastActiveAt  *time.Time            `json:"last_active_at,omitempty"`
}

func (p *printer) snapshot() PrinterSnapshot {
	snap := PrinterSnapshot{
		ID:            p.ID,
		Name:          p.Name,
		Type:          p.Type,
		IP:            p.IP,
		Port:          p.Port,
		VendorID:      p.VendorID,
		ProductID:     p.ProductID,
		MACAddress:    p.MACAddress,
		PrintWidth:    p.PrintWidth,
		Enabled:       p.Enabled,
		Status:        p.Status,
		JobsCompleted: p.JobsCompleted,
		LastError:     p.LastError,
	}
	if !p.LastActiveAt.IsZero() {
		t := p.LastActiveAt
		snap.LastActiveAt = &t
	}
	return snap
}
