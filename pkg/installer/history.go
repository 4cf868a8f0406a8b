package installer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// sqlite driver for the lifecycle history database.
	_ "github.com/mattn/go-sqlite3"
)

// HistoryEntry is one recorded lifecycle action.
type HistoryEntry struct {
	ID         int64     `json:"id"`
	PluginID   string    `json:"plugin_id"`
	Action     string    `json:"action"`
	Version    string    `json:"version,omitempty"`
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// History records lifecycle actions in a local sqlite database for audit.
type History struct {
	db *sql.DB
}

// OpenHistory opens (and if needed creates) the history database at path.
func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS lifecycle_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			plugin_id TEXT NOT NULL,
			action TEXT NOT NULL,
			version TEXT,
			success INTEGER NOT NULL,
			message TEXT,
			occurred_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_lifecycle_history_plugin
			ON lifecycle_history (plugin_id, occurred_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	return &History{db: db}, nil
}

// Record stores one lifecycle action.
func (h *History) Record(ctx context.Context, pluginID, action, version string, success bool, message string) error {
	query := `
		INSERT INTO lifecycle_history (plugin_id, action, version, success, message)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := h.db.ExecContext(ctx, query, pluginID, action,
		sql.NullString{String: version, Valid: version != ""}, success, message)
	if err != nil {
		return fmt.Errorf("failed to record lifecycle action: %w", err)
	}
	return nil
}

// List returns the most recent actions for a plugin id, newest first.
// An empty id lists actions across all plugins.
func (h *History) List(ctx context.Context, pluginID string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, plugin_id, action, version, success, message, occurred_at
		FROM lifecycle_history
		WHERE (? = '' OR plugin_id = ?)
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?
	`
	rows, err := h.db.QueryContext(ctx, query, pluginID, pluginID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list lifecycle history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var entry HistoryEntry
		var version sql.NullString
		if err := rows.Scan(&entry.ID, &entry.PluginID, &entry.Action, &version,
			&entry.Success, &entry.Message, &entry.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if version.Valid {
			entry.Version = version.String
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Close closes the history database.
func (h *History) Close() error {
	return h.db.Close()
}
