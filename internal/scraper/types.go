package scraper

import (
	"path/filepath"
	"time"
)

// KeywordMode selects how the keyword list for a run is produced.
type KeywordMode string

// Supported keyword modes.
const (
	KeywordsDefault KeywordMode = "default"
	KeywordsStatic  KeywordMode = "list"
	KeywordsAI      KeywordMode = "ai"
)

// RunConfig captures the immutable parameters of a single pipeline run. All
// artifact filenames derive deterministically from OutputDir and Timestamp.
type RunConfig struct {
	UserName      string      `json:"user_name"`
	TargetDomains int         `json:"target_domains"`
	KeywordMode   KeywordMode `json:"keyword_source"`
	KeywordList   []string    `json:"keyword_list,omitempty"`
	AIPrompt      string      `json:"ai_prompt,omitempty"`
	Concurrency   int         `json:"concurrency"`
	Notify        bool        `json:"notify"`
	OutputDir     string      `json:"output_dir"`
	Timestamp     string      `json:"run_timestamp"`
}

// NewRunConfig fills derived and defaulted fields. The timestamp is assigned
// once here so every artifact of the run shares it.
func NewRunConfig(cfg RunConfig) RunConfig {
	if cfg.UserName == "" {
		cfg.UserName = "web user"
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 4
	}
	if cfg.TargetDomains < 0 {
		cfg.TargetDomains = 0
	}
	if cfg.KeywordMode == "" {
		cfg.KeywordMode = KeywordsDefault
	}
	if cfg.Timestamp == "" {
		cfg.Timestamp = time.Now().Format("20060102_150405")
	}
	return cfg
}

// Artifact path helpers. Filenames are stable given OutputDir and Timestamp.

// KeywordsFile is the JSON artifact holding the resolved keyword list.
func (c RunConfig) KeywordsFile() string {
	return filepath.Join(c.OutputDir, "leadminer_keywords_"+c.Timestamp+".json")
}

// ValidDomainsFile is the line-per-domain artifact of verified sites.
func (c RunConfig) ValidDomainsFile() string {
	return filepath.Join(c.OutputDir, "leadminer_valid_domains_"+c.Timestamp+".txt")
}

// InvalidDomainsFile is the line-per-domain artifact of rejected sites.
func (c RunConfig) InvalidDomainsFile() string {
	return filepath.Join(c.OutputDir, "leadminer_invalid_domains_"+c.Timestamp+".txt")
}

// ContactsJSONLFile is the line-delimited contact record artifact.
func (c RunConfig) ContactsJSONLFile() string {
	return filepath.Join(c.OutputDir, "leadminer_contacts_"+c.Timestamp+".jsonl")
}

// ContactsCSVFile is the tabular contact record artifact.
func (c RunConfig) ContactsCSVFile() string {
	return filepath.Join(c.OutputDir, "leadminer_contacts_"+c.Timestamp+".csv")
}

// VerificationOutcome records the verdict for one probed domain.
type VerificationOutcome struct {
	Domain   Domain
	Valid    bool
	ProbeURL string
}

// ContactStatus classifies the result of contact extraction for one domain.
type ContactStatus string

// Contact record statuses. A record is final once emitted.
const (
	StatusSuccess      ContactStatus = "Success"
	StatusNoContacts   ContactStatus = "No Contacts"
	StatusNoContent    ContactStatus = "No Content"
	StatusCancelled    ContactStatus = "Cancelled"
	StatusExtractError ContactStatus = "Extract Error"
)

// ContactRecord is the per-domain output of the extraction phase. Emails and
// Phones are sorted and deduplicated; Address may be empty.
type ContactRecord struct {
	Domain     Domain        `json:"domain"`
	URLChecked string        `json:"url_checked,omitempty"`
	Emails     []string      `json:"emails"`
	Phones     []string      `json:"phones"`
	Address    string        `json:"address,omitempty"`
	Status     ContactStatus `json:"status"`
	Timestamp  string        `json:"timestamp"`
}

// OutcomeKind classifies how a run ended.
type OutcomeKind string

// Run outcome kinds.
const (
	OutcomeCompleted OutcomeKind = "completed"
	OutcomeCancelled OutcomeKind = "cancelled"
	OutcomeError     OutcomeKind = "error"
)

// RunSummary aggregates the final state of a run. It is produced on every
// exit path so callers can always locate partial output.
type RunSummary struct {
	Outcome      OutcomeKind   `json:"outcome"`
	Message      string        `json:"message"`
	Keywords     int           `json:"keywords"`
	DomainsFound int           `json:"domains_found"`
	ValidSites   int           `json:"valid_sites"`
	Contacts     int           `json:"contacts"`
	Elapsed      time.Duration `json:"elapsed"`
	Artifacts    []string      `json:"artifacts"`
}
