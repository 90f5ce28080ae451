package sink

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayzen-labs/leadminer/internal/scraper"
)

func record(domain string, status scraper.ContactStatus) scraper.ContactRecord {
	return scraper.ContactRecord{
		Domain:    scraper.Domain(domain),
		Emails:    []string{"a@" + domain, "b@" + domain},
		Phones:    []string{"(212) 555-0123"},
		Address:   "1 Main St, Anytown, TX 75001",
		Status:    status,
		Timestamp: "2026-08-27T12:00:00Z",
	}
}

func TestContactsAppendsBothFormats(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jsonlPath := filepath.Join(dir, "contacts.jsonl")
	csvPath := filepath.Join(dir, "contacts.csv")

	c, err := OpenContacts(jsonlPath, csvPath)
	require.NoError(t, err)
	require.NoError(t, c.Append(record("one.com", scraper.StatusSuccess)))
	require.NoError(t, c.Append(record("two.com", scraper.StatusNoContacts)))
	assert.Equal(t, 2, c.Count())
	require.NoError(t, c.Close())

	raw, err := os.ReadFile(jsonlPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	var rec scraper.ContactRecord
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, scraper.Domain("one.com"), rec.Domain)
	assert.Equal(t, []string{"a@one.com", "b@one.com"}, rec.Emails)

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "one.com", rows[1][0])
	assert.Equal(t, "a@one.com, b@one.com", rows[1][1])
	assert.Equal(t, "No Contacts", rows[2][5])
}

func TestContactsHeaderWrittenOnce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jsonlPath := filepath.Join(dir, "contacts.jsonl")
	csvPath := filepath.Join(dir, "contacts.csv")

	c, err := OpenContacts(jsonlPath, csvPath)
	require.NoError(t, err)
	require.NoError(t, c.Append(record("one.com", scraper.StatusSuccess)))
	require.NoError(t, c.Close())

	// Reopen, as a resumed run would.
	c, err = OpenContacts(jsonlPath, csvPath)
	require.NoError(t, err)
	require.NoError(t, c.Append(record("two.com", scraper.StatusSuccess)))
	require.NoError(t, c.Close())

	raw, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(raw), "domain,emails"))
}

func TestContactsRecordsSurviveWithoutClose(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jsonlPath := filepath.Join(dir, "contacts.jsonl")
	csvPath := filepath.Join(dir, "contacts.csv")

	c, err := OpenContacts(jsonlPath, csvPath)
	require.NoError(t, err)
	require.NoError(t, c.Append(record("one.com", scraper.StatusSuccess)))

	// Simulate a crash: read files before Close.
	raw, err := os.ReadFile(jsonlPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "one.com")

	csvRaw, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(csvRaw), "one.com")
	require.NoError(t, c.Close())
}

func TestWriteDomainList(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "valid.txt")
	require.NoError(t, WriteDomainList(path, []scraper.Domain{"a.com", "b.com"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a.com\nb.com\n", string(raw))
}

func TestWriteKeywords(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "keywords.json")
	require.NoError(t, WriteKeywords(path, []string{"used cars", "trucks"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []string
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, []string{"used cars", "trucks"}, got)
}
