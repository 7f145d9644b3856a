package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// SavePrinter inserts or replaces a persisted printer configuration.
func (s *Store) SavePrinter(ctx context.Context, p *Printer) error {
	_, err := s.db.ExecContext(ctx, queryUpsertPrinter,
		p.ID, p.Name, p.Type, p.IP, p.Port,
		p.VendorID, p.ProductID, p.MACAddress, p.PrintWidth, p.Enabled)
	if err != nil {
		return fmt.Errorf("failed to save printer %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) DeletePrinter(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, queryDeletePrinter, id); err != nil {
		return fmt.Errorf("failed to delete printer %s: %w", id, err)
	}
	return nil
}

func (s *Store) SetPrinterEnabled(ctx context.Context, id string, enabled bool) error {
	if _, err := s.db.ExecContext(ctx, querySetPrinterEnabled, enabled, id); err != nil {
		return fmt.Errorf("failed to update printer %s: %w", id, err)
	}
	return nil
}

// ListPrinters returns persisted printers in registration order.
func (s *Store) ListPrinters(ctx context.Context) ([]Printer, error) {
	rows, err := s.db.QueryContext(ctx, queryListPrinters)
	if err != nil {
		return nil, fmt.Errorf("failed to list printers: %w", err)
	}
	defer rows.Close()

	var printers []Printer
	for rows.Next() {
		var p Printer
		if err := rows.Scan(&p.ID, &p.Name, &p.Type, &p.IP, &p.Port,
			&p.VendorID, &p.ProductID, &p.MACAddress, &p.PrintWidth, &p.Enabled,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan printer: %w", err)
		}
		printers = append(printers, p)
	}
	return printers, rows.Err()
}

func (s *Store) InsertJobRecord(ctx context.Context, rec *JobRecord) error {
	_, err := s.db.ExecContext(ctx, queryInsertJob,
		rec.ID, rec.PrinterID, rec.Status, rec.Priority)
	if err != nil {
		return fmt.Errorf("failed to insert job %s: %w", rec.ID, err)
	}
	return nil
}

// FinishJobRecord marks a job row completed or failed.
func (s *Store) FinishJobRecord(ctx context.Context, id, printerID, status, errorMessage string) error {
	_, err := s.db.ExecContext(ctx, queryFinishJob, printerID, status, errorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to finish job %s: %w", id, err)
	}
	return nil
}

func (s *Store) ListJobRecords(ctx context.Context, limit int) ([]JobRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, queryListJobs, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var records []JobRecord
	for rows.Next() {
		var rec JobRecord
		var completed sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.PrinterID, &rec.Status, &rec.Priority,
			&rec.ErrorMessage, &rec.CreatedAt, &completed); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		if completed.Valid {
			t := completed.Time
			rec.CompletedAt = &t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) CountJobsByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, queryCountJobsByStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan job count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (s *Store) CreateWebhook(ctx context.Context, w *Webhook) error {
	events, err := json.Marshal(w.Events)
	if err != nil {
		return fmt.Errorf("failed to encode webhook events: %w", err)
	}
	res, err := s.db.ExecContext(ctx, queryInsertWebhook,
		w.Name, w.URL, w.Secret, string(events), w.Enabled)
	if err != nil {
		return fmt.Errorf("failed to create webhook: %w", err)
	}
	w.ID, _ = res.LastInsertId()
	return nil
}

func (s *Store) UpdateWebhook(ctx context.Context, w *Webhook) error {
	events, err := json.Marshal(w.Events)
	if err != nil {
		return fmt.Errorf("failed to encode webhook events: %w", err)
	}
	res, err := s.db.ExecContext(ctx, queryUpdateWebhook,
		w.Name, w.URL, w.Secret, string(events), w.Enabled, w.ID)
	if err != nil {
		return fmt.Errorf("failed to update webhook %d: %w", w.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Store) DeleteWebhook(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, queryDeleteWebhook, id); err != nil {
		return fmt.Errorf("failed to delete webhook %d: %w", id, err)
	}
	return nil
}

func (s *Store) ListWebhooks(ctx context.Context) ([]Webhook, error) {
	rows, err := s.db.QueryContext(ctx, queryListWebhooks)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	defer rows.Close()

	var hooks []Webhook
	for rows.Next() {
		var w Webhook
		var events string
		if err := rows.Scan(&w.ID, &w.Name, &w.URL, &w.Secret, &events, &w.Enabled, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan webhook: %w", err)
		}
		if err := json.Unmarshal([]byte(events), &w.Events); err != nil {
			w.Events = nil
		}
		hooks = append(hooks, w)
	}
	return hooks, rows.Err()
}

// ListWebhooksForEvent returns enabled webhooks subscribed to the event.
// A webhook with an empty event list receives every event.
func (s *Store) ListWebhooksForEvent(ctx context.Context, event string) ([]Webhook, error) {
	hooks, err := s.ListWebhooks(ctx)
	if err != nil {
		return nil, err
	}
	var matched []Webhook
	for _, w := range hooks {
		if !w.Enabled {
			continue
		}
		if len(w.Events) == 0 {
			matched = append(matched, w)
			continue
		}
		for _, e := range w.Events {
			if e == event {
				matched = append(matched, w)
				break
			}
		}
	}
	return matched, nil
}

// GetSetting returns the value for key, or "" when absent.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, queryGetSetting, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, querySetSetting, key, value); err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}
