package db

const (
	queryUpsertPrinter = `
		INSERT INTO printers (id, name, type, ip, port, vendor_id, product_id, mac_address, print_width, enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			ip = excluded.ip,
			port = excluded.port,
			vendor_id = excluded.vendor_id,
			product_id = excluded.product_id,
			mac_address = excluded.mac_address,
			print_width = excluded.print_width,
			enabled = excluded.enabled,
			updated_at = CURRENT_TIMESTAMP`

	queryDeletePrinter = `DELETE FROM printers WHERE id = ?`

	queryListPrinters = `
		SELECT id, name, type, ip, port, vendor_id, product_id, mac_address, print_width, enabled, created_at, updated_at
		FROM printers ORDER BY created_at, id`

	querySetPrinterEnabled = `UPDATE printers SET enabled = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	queryInsertJob = `
		INSERT INTO print_jobs (id, printer_id, status, priority)
		VALUES (?, ?, ?, ?)`

	queryFinishJob = `
		UPDATE print_jobs
		SET printer_id = ?, status = ?, error_message = ?, completed_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	queryListJobs = `
		SELECT id, printer_id, status, priority, error_message, created_at, completed_at
		FROM print_jobs ORDER BY created_at DESC, id DESC LIMIT ?`

	queryCountJobsByStatus = `SELECT status, COUNT(*) FROM print_jobs GROUP BY status`

	queryInsertWebhook = `
		INSERT INTO webhooks (name, url, secret, events_json, enabled)
		VALUES (?, ?, ?, ?, ?)`

	queryUpdateWebhook = `
		UPDATE webhooks SET name = ?, url = ?, secret = ?, events_json = ?, enabled = ?
		WHERE id = ?`

	queryDeleteWebhook = `DELETE FROM webhooks WHERE id = ?`

	queryListWebhooks = `
		SELECT id, name, url, secret, events_json, enabled, created_at
		FROM webhooks ORDER BY id`

	queryGetSetting = `SELECT value FROM settings WHERE key = ?`

	querySetSetting = `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`
)
