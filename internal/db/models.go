package db

import "time"

// Printer is the persisted printer configuration. It is loaded into the
// pool at startup; runtime status lives in the pool, not here.
type Printer struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	IP         string    `json:"ip,omitempty"`
	Port       int       `json:"port,omitempty"`
	VendorID   string    `json:"vendor_id,omitempty"`
	ProductID  string    `json:"product_id,omitempty"`
	MACAddress string    `json:"mac_address,omitempty"`
	PrintWidth int       `json:"print_width"`
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// JobRecord is a terminal job-history row. Rows are written when a job
// is queued and updated once when it completes or fails.
type JobRecord struct {
	ID           string     `json:"id"`
	PrinterID    string     `json:"printer_id,omitempty"`
	Status       string     `json:"status"`
	Priority     int        `json:"priority"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

type Webhook struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Secret    string    `json:"secret,omitempty"`
	Events    []string  `json:"events"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
