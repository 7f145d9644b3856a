package pool

import (
	"fmt"
	"sync"

	"github.com/yiqunxu123/retail-pos-sub000/internal/escpos"
	"github.com/yiqunxu123/retail-pos-sub000/internal/transport"
)

const (
	defaultPrintWidth    = 384
	defaultBarcodeHeight = 80
)

// PrintResult is the per-printer outcome of a fan-out print.
type PrintResult struct {
	PrinterID string `json:"printer_id"`
	Printer   string `json:"printer"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// FanOutResult aggregates a fan-out print. Success is true iff at least
// one printer succeeded.
type FanOutResult struct {
	Success bool          `json:"success"`
	Results []PrintResult `json:"results"`
}

// PrintImageToAll decodes a base64 PNG once and sends it to every
// enabled printer with a configured network address, re-encoded for each
// printer's own dot width. Failures are isolated per printer: one
// unreachable device never cancels the others.
func (p *Pool) PrintImageToAll(encoded string) (FanOutResult, error) {
	img, err := escpos.DecodeImage(encoded)
	if err != nil {
		return FanOutResult{}, err
	}

	targets := p.networkedTargets()
	if len(targets) == 0 {
		return FanOutResult{}, ErrNoEnabledPrinters
	}

	results := make([]PrintResult, len(targets))
	var wg sync.WaitGroup
	for i, tgt := range targets {
		wg.Add(1)
		go func(i int, tgt printTarget) {
			defer wg.Done()
			results[i] = PrintResult{PrinterID: tgt.id, Printer: tgt.name}

			data, err := escpos.Raster(img, tgt.width)
			if err != nil {
				results[i].Error = err.Error()
				return
			}
			if sendErr := p.send(tgt.target, transport.Bytes(data)); sendErr != nil {
				results[i].Error = sendErr.Message
				return
			}
			results[i].Success = true
		}(i, tgt)
	}
	wg.Wait()

	out := FanOutResult{Results: results}
	for _, r := range results {
		if r.Success {
			out.Success = true
			break
		}
	}
	return out, nil
}

// PrintTextToAll renders one logical receipt per enabled printer via the
// format callback, parameterized by that printer's dot width, and queues
// each rendering as a job pinned to its printer.
func (p *Pool) PrintTextToAll(format func(width int) string) ([]string, error) {
	targets := p.enabledTargets()
	if len(targets) == 0 {
		return nil, ErrNoEnabledPrinters
	}

	jobIDs := make([]string, 0, len(targets))
	for _, tgt := range targets {
		text := format(tgt.width)
		if text == "" {
			continue
		}
		id, err := p.addJob(transport.Bytes(escpos.TextJob(text)), 0, tgt.id)
		if err != nil {
			return jobIDs, err
		}
		jobIDs = append(jobIDs, id)
	}
	return jobIDs, nil
}

// PrintBarcodeToAll renders a Code128-B barcode per enabled printer and
// queues it like PrintTextToAll. Input that strips to nothing printable
// is rejected before anything is queued; a non-positive height falls back
// to the default bar height.
func (p *Pool) PrintBarcodeToAll(text string, height int) ([]string, error) {
	if _, ok := escpos.Code128BChecksum(text); !ok {
		return nil, fmt.Errorf("barcode content %q has no printable characters", text)
	}
	if height <= 0 {
		height = defaultBarcodeHeight
	}

	targets := p.enabledTargets()
	if len(targets) == 0 {
		return nil, ErrNoEnabledPrinters
	}

	jobIDs := make([]string, 0, len(targets))
	for _, tgt := range targets {
		data, ok := escpos.RenderCode128B(text, tgt.width, height)
		if !ok {
			return jobIDs, fmt.Errorf("barcode does not fit a %d dot wide printer", tgt.width)
		}
		id, err := p.addJob(transport.Bytes(data), 0, tgt.id)
		if err != nil {
			return jobIDs, err
		}
		jobIDs = append(jobIDs, id)
	}
	return jobIDs, nil
}

// OpenCashDrawer pulses the drawer-kick sequence through any idle
// enabled printer, bypassing the queue.
func (p *Pool) OpenCashDrawer() error {
	p.mu.Lock()
	var chosen *printer
	for _, pr := range p.printers {
		if pr.eligible() && (chosen == nil || pr.seq < chosen.seq) {
			chosen = pr
		}
	}
	if chosen == nil {
		p.mu.Unlock()
		return ErrNoIdlePrinter
	}
	target := chosen.target()
	p.mu.Unlock()

	if sendErr := p.send(target, transport.Bytes(escpos.DrawerKick())); sendErr != nil {
		return sendErr
	}
	return nil
}

type printTarget struct {
	id     string
	name   string
	width  int
	target transport.Target
}

func (p *Pool) enabledTargets() []printTarget {
	p.mu.Lock()
	defer p.mu.Unlock()

	targets := make([]printTarget, 0, len(p.printers))
	for _, pr := range p.snapshotOrderLocked() {
		if !pr.Enabled {
			continue
		}
		width := pr.PrintWidth
		if width <= 0 {
			width = defaultPrintWidth
		}
		targets = append(targets, printTarget{
			id:     pr.ID,
			name:   pr.Name,
			width:  width,
			target: pr.target(),
		})
	}
	return targets
}

// networkedTargets keeps only printers reachable over a configured
// network address. The image fan-out is scoped to those.
func (p *Pool) networkedTargets() []printTarget {
	all := p.enabledTargets()
	targets := all[:0]
	for _, tgt := range all {
		if tgt.target.Type == transport.TypeEthernet && tgt.target.IP != "" {
			targets = append(targets, tgt)
		}
	}
	return targets
}
