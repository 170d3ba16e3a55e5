package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/alecf/tally/internal/llm"
	"github.com/alecf/tally/internal/pricing"
)

// Entry represents one recorded query's usage. No message content is kept.
type Entry struct {
	ID        string              `json:"id"`
	Model     string              `json:"model"`
	Provider  llm.Provider        `json:"provider"`
	Source    string              `json:"source"` // "cli" or "http"
	Usage     pricing.UsageReport `json:"usage"`
	CreatedAt time.Time           `json:"created_at"`
}

// Ledger stores usage entries as one JSON file each
type Ledger struct {
	dir        string
	maxAgeDays int
	now        func() time.Time
}

// New creates a ledger rooted at dir; maxAgeDays <= 0 keeps entries forever
func New(dir string, maxAgeDays int) *Ledger {
	return &Ledger{
		dir:        dir,
		maxAgeDays: maxAgeDays,
		now:        time.Now,
	}
}

// Dir returns the directory entries are written to
func (l *Ledger) Dir() string {
	return l.dir
}

// Record appends a usage entry and returns it
func (l *Ledger) Record(provider llm.Provider, source string, usage pricing.UsageReport) (*Entry, error) {
	entry := &Entry{
		ID:        uuid.NewString(),
		Model:     usage.Model,
		Provider:  provider,
		Source:    source,
		Usage:     usage,
		CreatedAt: l.now().UTC(),
	}

	if err := l.saveEntry(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// saveEntry writes an entry to disk
func (l *Ledger) saveEntry(entry *Entry) error {
	// Ensure ledger directory exists (0700 for security)
	if err := os.MkdirAll(l.dir, 0700); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	entryPath := filepath.Join(l.dir, entry.ID+".json")

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger entry: %w", err)
	}

	if err := os.WriteFile(entryPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write ledger entry: %w", err)
	}

	return nil
}

// isExpired checks if an entry has expired
func (l *Ledger) isExpired(createdAt time.Time) bool {
	if l.maxAgeDays <= 0 {
		return false // No expiration
	}
	expiryTime := createdAt.Add(time.Duration(l.maxAgeDays) * 24 * time.Hour)
	return l.now().After(expiryTime)
}

// Entries returns every readable entry, oldest first. Unreadable files are skipped.
func (l *Ledger) Entries() ([]*Entry, error) {
	files, err := l.files()
	if err != nil {
		return nil, err
	}

	entries := make([]*Entry, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		entries = append(entries, &entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

// CleanExpired removes all expired entries
func (l *Ledger) CleanExpired() (int, error) {
	entries, err := l.Entries()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if !l.isExpired(entry.CreatedAt) {
			continue
		}
		if err := os.Remove(filepath.Join(l.dir, entry.ID+".json")); err == nil {
			removed++
		}
	}

	return removed, nil
}

// Clear removes all entries
func (l *Ledger) Clear() (int, error) {
	files, err := l.files()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, path := range files {
		if err := os.Remove(path); err == nil {
			removed++
		}
	}

	return removed, nil
}

// ModelTotals aggregates usage for one model
type ModelTotals struct {
	Queries     int     `json:"queries"`
	TotalTokens int64   `json:"total_tokens"`
	TotalCost   float64 `json:"total_cost"`
}

// Stats summarizes the ledger
type Stats struct {
	TotalEntries      int                     `json:"total_entries"`
	TotalInputTokens  int64                   `json:"total_input_tokens"`
	TotalOutputTokens int64                   `json:"total_output_tokens"`
	TotalTokens       int64                   `json:"total_tokens"`
	TotalCost         float64                 `json:"total_cost"`
	ByModel           map[string]*ModelTotals `json:"by_model"`
	OldestEntry       *time.Time              `json:"oldest_entry,omitempty"`
	NewestEntry       *time.Time              `json:"newest_entry,omitempty"`
}

// GetStats returns ledger statistics
func (l *Ledger) GetStats() (*Stats, error) {
	entries, err := l.Entries()
	if err != nil {
		return nil, err
	}

	stats := &Stats{ByModel: make(map[string]*ModelTotals)}
	for _, entry := range entries {
		stats.TotalEntries++
		stats.TotalInputTokens += entry.Usage.InputTokens
		stats.TotalOutputTokens += entry.Usage.OutputTokens
		stats.TotalTokens += entry.Usage.TotalTokens
		stats.TotalCost += entry.Usage.TotalCost

		totals, ok := stats.ByModel[entry.Model]
		if !ok {
			totals = &ModelTotals{}
			stats.ByModel[entry.Model] = totals
		}
		totals.Queries++
		totals.TotalTokens += entry.Usage.TotalTokens
		totals.TotalCost += entry.Usage.TotalCost

		createdAt := entry.CreatedAt
		if stats.OldestEntry == nil || createdAt.Before(*stats.OldestEntry) {
			stats.OldestEntry = &createdAt
		}
		if stats.NewestEntry == nil || createdAt.After(*stats.NewestEntry) {
			stats.NewestEntry = &createdAt
		}
	}

	return stats, nil
}

func (l *Ledger) files() ([]string, error) {
	dirEntries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read ledger directory: %w", err)
	}

	var files []string
	for _, de := range dirEntries {
		if !de.IsDir() && filepath.Ext(de.Name()) == ".json" {
			files = append(files, filepath.Join(l.dir, de.Name()))
		}
	}
	return files, nil
}
