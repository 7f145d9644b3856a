package pool

import (
	"sort"
	"time"

	"github.com/yiqunxu123/retail-pos-sub000/internal/transport"
)

// AddPrinter registers a printer. It returns false without mutation when
// the id is already present or the config is unusable.
func (p *Pool) AddPrinter(cfg PrinterConfig) bool {
	if cfg.ID == "" || !cfg.Type.Valid() {
		return false
	}

	p.mu.Lock()
	if _, exists := p.printers[cfg.ID]; exists {
		p.mu.Unlock()
		return false
	}

	if cfg.Type == transport.TypeEthernet && cfg.Port == 0 {
		cfg.Port = transport.DefaultEthernetPort
	}

	enabled := true
	if cfg.Enabled != nil {
		enabled = *cfg.Enabled
	}

	p.nextSeq++
	p.printers[cfg.ID] = &printer{
		PrinterConfig: cfg,
		Enabled:       enabled,
		Status:        StatusIdle,
		seq:           p.nextSeq,
	}
	p.mu.Unlock()

	p.bus.Emit(Event{
		Type:      EventPrinterAdded,
		PrinterID: cfg.ID,
		Data:      map[string]any{"name": cfg.Name, "type": string(cfg.Type)},
	})

	p.drain()
	return true
}

// RemovePrinter deletes a printer. A job already dispatched to it keeps
// running against its captured connection snapshot and is not recalled.
func (p *Pool) RemovePrinter(id string) bool {
	p.mu.Lock()
	pr, exists := p.printers[id]
	if !exists {
		p.mu.Unlock()
		return false
	}
	delete(p.printers, id)
	name := pr.Name
	p.mu.Unlock()

	p.bus.Emit(Event{
		Type:      EventPrinterRemoved,
		PrinterID: id,
		Data:      map[string]any{"name": name},
	})
	return true
}

// UpdatePrinter merges non-nil patch fields into the printer's
// connection parameters. It intentionally emits no event.
func (p *Pool) UpdatePrinter(id string, patch PrinterPatch) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	pr, exists := p.printers[id]
	if !exists {
		return false
	}

	if patch.Name != nil {
		pr.Name = *patch.Name
	}
	if patch.IP != nil {
		pr.IP = *patch.IP
	}
	if patch.Port != nil {
		pr.Port = *patch.Port
	}
	if patch.VendorID != nil {
		pr.VendorID = *patch.VendorID
	}
	if patch.ProductID != nil {
		pr.ProductID = *patch.ProductID
	}
	if patch.MACAddress != nil {
		pr.MACAddress = *patch.MACAddress
	}
	if patch.PrintWidth != nil {
		pr.PrintWidth = *patch.PrintWidth
	}
	return true
}

// SetPrinterEnabled toggles eligibility. Re-enabling an offline printer
// resets it to idle, and enabling always gives the queue a drain chance.
func (p *Pool) SetPrinterEnabled(id string, enabled bool) bool {
	p.mu.Lock()
	pr, exists := p.printers[id]
	if !exists {
		p.mu.Unlock()
		return false
	}

	pr.Enabled = enabled
	if enabled && pr.Status == StatusOffline {
		pr.Status = StatusIdle
		pr.LastActiveAt = time.Now()
	}
	status := pr.Status
	p.mu.Unlock()

	p.bus.Emit(Event{
		Type:      EventPrinterStatusChanged,
		PrinterID: id,
		Data:      map[string]any{"enabled": enabled, "status": string(status)},
	})

	if enabled {
		p.drain()
	}
	return true
}

// SetPrinterStatus applies an external status transition. Unknown ids
// are a no-op. Entering idle stamps lastActiveAt and drains the queue.
func (p *Pool) SetPrinterStatus(id string, status PrinterStatus, errMsg string) {
	if !status.Valid() {
		return
	}

	p.mu.Lock()
	pr, exists := p.printers[id]
	if !exists {
		p.mu.Unlock()
		return
	}

	pr.Status = status
	pr.LastError = errMsg
	if status == StatusIdle {
		pr.LastActiveAt = time.Now()
	}
	p.mu.Unlock()

	p.bus.Emit(Event{
		Type:      EventPrinterStatusChanged,
		PrinterID: id,
		Data:      map[string]any{"status": string(status), "error": errMsg},
	})

	if status == StatusIdle {
		p.drain()
	}
}

// GetPrinters returns snapshots in registration order.
func (p *Pool) GetPrinters() []PrinterSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotsLocked()
}

func (p *Pool) GetPrinter(id string) (PrinterSnapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pr, exists := p.printers[id]
	if !exists {
		return PrinterSnapshot{}, false
	}
	return pr.snapshot(), true
}

func (p *Pool) snapshotsLocked() []PrinterSnapshot {
	printers := p.snapshotOrderLocked()
	snaps := make([]PrinterSnapshot, 0, len(printers))
	for _, pr := range printers {
		snaps = append(snaps, pr.snapshot())
	}
	return snaps
}

// snapshotOrderLocked lists printers in registration order, which is the
// stable iteration order every read path and tiebreak uses.
func (p *Pool) snapshotOrderLocked() []*printer {
	printers := make([]*printer, 0, len(p.printers))
	for _, pr := range p.printers {
		printers = append(printers, pr)
	}
	sort.Slice(printers, func(i, j int) bool {
		return printers[i].seq < printers[j].seq
	})
	return printers
}
