// Package sink persists run artifacts: incremental contact records in JSONL
// and CSV form, domain lists, and the resolved keyword list.
package sink

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ayzen-labs/leadminer/internal/scraper"
)

// csvHeader is the fixed column order of the CSV artifact.
var csvHeader = []string{"domain", "emails", "phones", "address", "url_checked", "status", "timestamp"}

// Contacts writes each record to both artifacts as it arrives and flushes
// after every append so a crashed run keeps everything written so far.
type Contacts struct {
	mu      sync.Mutex
	jsonl   *os.File
	csvFile *os.File
	csvW    *csv.Writer
	count   int
}

// OpenContacts opens (or creates) the JSONL and CSV artifacts in append
// mode. The CSV header is written only when the file is empty.
func OpenContacts(jsonlPath, csvPath string) (*Contacts, error) {
	if err := os.MkdirAll(filepath.Dir(jsonlPath), 0o755); err != nil {
		return nil, fmt.Errorf("sink: create output dir: %w", err)
	}
	jsonl, err := os.OpenFile(jsonlPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("sink: open jsonl: %w", err)
	}
	csvFile, err := os.OpenFile(csvPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		_ = jsonl.Close()
		return nil, fmt.Errorf("sink: open csv: %w", err)
	}

	c := &Contacts{jsonl: jsonl, csvFile: csvFile, csvW: csv.NewWriter(csvFile)}
	stat, err := csvFile.Stat()
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("sink: stat csv: %w", err)
	}
	if stat.Size() == 0 {
		if err := c.csvW.Write(csvHeader); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("sink: write csv header: %w", err)
		}
		c.csvW.Flush()
		if err := c.csvW.Error(); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("sink: flush csv header: %w", err)
		}
	}
	return c, nil
}

// Append writes one record to both artifacts and flushes them.
func (c *Contacts) Append(rec scraper.ContactRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("sink: marshal record: %w", err)
	}
	if _, err := c.jsonl.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("sink: append jsonl: %w", err)
	}

	row := []string{
		string(rec.Domain),
		strings.Join(rec.Emails, ", "),
		strings.Join(rec.Phones, ", "),
		rec.Address,
		rec.URLChecked,
		string(rec.Status),
		rec.Timestamp,
	}
	if err := c.csvW.Write(row); err != nil {
		return fmt.Errorf("sink: append csv: %w", err)
	}
	c.csvW.Flush()
	if err := c.csvW.Error(); err != nil {
		return fmt.Errorf("sink: flush csv: %w", err)
	}
	c.count++
	return nil
}

// Count reports how many records have been appended through this sink.
func (c *Contacts) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Close flushes and closes both artifacts.
func (c *Contacts) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.csvW.Flush()
	csvErr := c.csvW.Error()
	if err := c.csvFile.Close(); csvErr == nil {
		csvErr = err
	}
	if err := c.jsonl.Close(); csvErr == nil {
		csvErr = err
	}
	if csvErr != nil {
		return fmt.Errorf("sink: close: %w", csvErr)
	}
	return nil
}

// WriteDomainList writes one domain per line, replacing any previous file.
func WriteDomainList(path string, domains []scraper.Domain) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("sink: create output dir: %w", err)
	}
	var sb strings.Builder
	for _, d := range domains {
		sb.WriteString(string(d))
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("sink: write domain list: %w", err)
	}
	return nil
}

// WriteKeywords records the resolved keyword list as a JSON array.
func WriteKeywords(path string, kws []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("sink: create output dir: %w", err)
	}
	data, err := json.MarshalIndent(kws, "", "  ")
	if err != nil {
		return fmt.Errorf("sink: marshal keywords: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("sink: write keywords: %w", err)
	}
	return nil
}
