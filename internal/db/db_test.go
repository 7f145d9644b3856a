package db

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() error = %v", err)
	}
	store.Close()

	store, err = Open(path)
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	store.Close()
}

func TestPrinterRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	p := &Printer{
		ID:         "front-desk",
		Name:       "Front Desk",
		Type:       "ethernet",
		IP:         "192.168.1.50",
		Port:       9100,
		PrintWidth: 576,
		Enabled:    true,
	}
	if err := store.SavePrinter(ctx, p); err != nil {
		t.Fatalf("SavePrinter() error = %v", err)
	}

	printers, err := store.ListPrinters(ctx)
	if err != nil {
		t.Fatalf("ListPrinters() error = %v", err)
	}
	if len(printers) != 1 {
		t.Fatalf("ListPrinters() returned %d printers, want 1", len(printers))
	}
	got := printers[0]
	if got.ID != p.ID || got.IP != p.IP || got.Port != p.Port || got.PrintWidth != 576 || !got.Enabled {
		t.Errorf("ListPrinters()[0] = %+v, want fields of %+v", got, p)
	}

	// Upsert replaces in place.
	p.IP = "192.168.1.60"
	p.Enabled = false
	if err := store.SavePrinter(ctx, p); err != nil {
		t.Fatalf("SavePrinter() upsert error = %v", err)
	}
	printers, _ = store.ListPrinters(ctx)
	if len(printers) != 1 || printers[0].IP != "192.168.1.60" || printers[0].Enabled {
		t.Errorf("upsert result = %+v, want updated single row", printers)
	}

	if err := store.DeletePrinter(ctx, p.ID); err != nil {
		t.Fatalf("DeletePrinter() error = %v", err)
	}
	printers, _ = store.ListPrinters(ctx)
	if len(printers) != 0 {
		t.Errorf("ListPrinters() after delete returned %d rows, want 0", len(printers))
	}
}

func TestJobHistory(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.InsertJobRecord(ctx, &JobRecord{ID: "job-1", Status: "queued", Priority: 5}); err != nil {
		t.Fatalf("InsertJobRecord() error = %v", err)
	}
	if err := store.InsertJobRecord(ctx, &JobRecord{ID: "job-2", Status: "queued"}); err != nil {
		t.Fatalf("InsertJobRecord() error = %v", err)
	}

	if err := store.FinishJobRecord(ctx, "job-1", "front-desk", "completed", ""); err != nil {
		t.Fatalf("FinishJobRecord() error = %v", err)
	}
	if err := store.FinishJobRecord(ctx, "job-2", "kitchen", "failed", "connection refused"); err != nil {
		t.Fatalf("FinishJobRecord() error = %v", err)
	}

	records, err := store.ListJobRecords(ctx, 10)
	if err != nil {
		t.Fatalf("ListJobRecords() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ListJobRecords() returned %d rows, want 2", len(records))
	}
	byID := map[string]JobRecord{}
	for _, r := range records {
		byID[r.ID] = r
	}
	if r := byID["job-1"]; r.Status != "completed" || r.PrinterID != "front-desk" || r.Priority != 5 || r.CompletedAt == nil {
		t.Errorf("job-1 record = %+v", r)
	}
	if r := byID["job-2"]; r.Status != "failed" || r.ErrorMessage != "connection refused" {
		t.Errorf("job-2 record = %+v", r)
	}

	counts, err := store.CountJobsByStatus(ctx)
	if err != nil {
		t.Fatalf("CountJobsByStatus() error = %v", err)
	}
	if counts["completed"] != 1 || counts["failed"] != 1 {
		t.Errorf("CountJobsByStatus() = %v, want completed:1 failed:1", counts)
	}
}

func TestWebhookEventFilter(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	hooks := []*Webhook{
		{Name: "all-events", URL: "http://one", Enabled: true},
		{Name: "failures", URL: "http://two", Events: []string{"job_failed"}, Enabled: true},
		{Name: "disabled", URL: "http://three", Enabled: false},
	}
	for _, w := range hooks {
		if err := store.CreateWebhook(ctx, w); err != nil {
			t.Fatalf("CreateWebhook(%s) error = %v", w.Name, err)
		}
		if w.ID == 0 {
			t.Fatalf("CreateWebhook(%s) did not assign an ID", w.Name)
		}
	}

	matched, err := store.ListWebhooksForEvent(ctx, "job_failed")
	if err != nil {
		t.Fatalf("ListWebhooksForEvent() error = %v", err)
	}
	if len(matched) != 2 {
		t.Fatalf("ListWebhooksForEvent(job_failed) matched %d hooks, want 2", len(matched))
	}

	matched, _ = store.ListWebhooksForEvent(ctx, "job_completed")
	if len(matched) != 1 || matched[0].Name != "all-events" {
		t.Errorf("ListWebhooksForEvent(job_completed) = %+v, want only all-events", matched)
	}

	hooks[1].Events = []string{"job_failed", "job_completed"}
	if err := store.UpdateWebhook(ctx, hooks[1]); err != nil {
		t.Fatalf("UpdateWebhook() error = %v", err)
	}
	matched, _ = store.ListWebhooksForEvent(ctx, "job_completed")
	if len(matched) != 2 {
		t.Errorf("after update, ListWebhooksForEvent(job_completed) matched %d hooks, want 2", len(matched))
	}

	if err := store.DeleteWebhook(ctx, hooks[0].ID); err != nil {
		t.Fatalf("DeleteWebhook() error = %v", err)
	}
	remaining, _ := store.ListWebhooks(ctx)
	if len(remaining) != 2 {
		t.Errorf("ListWebhooks() after delete returned %d rows, want 2", len(remaining))
	}
}

func TestSettings(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	value, err := store.GetSetting(ctx, "missing")
	if err != nil {
		t.Fatalf("GetSetting(missing) error = %v", err)
	}
	if value != "" {
		t.Errorf("GetSetting(missing) = %q, want empty", value)
	}

	if err := store.SetSetting(ctx, "auth.password_hash", "first"); err != nil {
		t.Fatalf("SetSetting() error = %v", err)
	}
	if err := store.SetSetting(ctx, "auth.password_hash", "second"); err != nil {
		t.Fatalf("SetSetting() overwrite error = %v", err)
	}
	value, _ = store.GetSetting(ctx, "auth.password_hash")
	if value != "second" {
		t.Errorf("GetSetting() = %q, want %q", value, "second")
	}
}
