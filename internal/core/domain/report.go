package domain

import (
	"encoding/json"
	"time"
)

// IssueLevel is the severity of an accessibility issue.
type IssueLevel string

// Available issue levels.
const (
	// IssueCritical blocks users with disabilities completely.
	IssueCritical IssueLevel = "critical"

	// IssueError makes content very difficult to access.
	IssueError IssueLevel = "error"

	// IssueWarning could cause problems for some users.
	IssueWarning IssueLevel = "warning"

	// IssueInfo is a best practice recommendation.
	IssueInfo IssueLevel = "info"
)

// IsValid returns true if the level is recognised.
func (l IssueLevel) IsValid() bool {
	switch l {
	case IssueCritical, IssueError, IssueWarning, IssueInfo:
		return true
	default:
		return false
	}
}

// ComplianceLevel is a WCAG conformance level.
type ComplianceLevel string

// Available compliance levels.
const (
	ComplianceA   ComplianceLevel = "A"
	ComplianceAA  ComplianceLevel = "AA"
	ComplianceAAA ComplianceLevel = "AAA"
)

// FileType is the kind of document a report was produced for.
type FileType string

// Available file types.
const (
	FilePDF  FileType = "pdf"
	FileDOCX FileType = "docx"
	FileXLSX FileType = "xlsx"
)

// Issue is a single accessibility problem found in a document.
type Issue struct {
	// Criterion is the WCAG success criterion, e.g. "1.1.1".
	Criterion string `json:"wcag_criterion"`

	// Level is the severity.
	Level IssueLevel `json:"level"`

	// Description explains the problem.
	Description string `json:"description"`

	// Location is where the issue was found, e.g. "Page 5" or "Sheet1".
	Location string `json:"location,omitempty"`

	// Remediation is guidance on fixing the issue.
	Remediation string `json:"remediation"`

	// BlocksCompliance is true if the issue prevents AA conformance.
	BlocksCompliance bool `json:"blocks_compliance"`
}

// SeverityCounts tallies issues by level. It is embedded in
// ComplianceReport so the counts sit flat beside the other report fields.
type SeverityCounts struct {
	// Total counts every issue, whatever its level.
	Total    int `json:"total_issues"`
	Critical int `json:"critical_issues"`
	Error    int `json:"error_issues"`
	Warning  int `json:"warning_issues"`
	Info     int `json:"info_issues,omitempty"`
}

// Tally counts issues by level. Issues with an unknown level count
// towards Total only.
func Tally(issues []Issue) SeverityCounts {
	c := SeverityCounts{Total: len(issues)}
	for i := range issues {
		switch issues[i].Level {
		case IssueCritical:
			c.Critical++
		case IssueError:
			c.Error++
		case IssueWarning:
			c.Warning++
		case IssueInfo:
			c.Info++
		}
	}
	return c
}

// ComplianceReport is the stored result of one accessibility check.
// Reports are immutable: a re-check produces a new report under a new ID.
type ComplianceReport struct {
	// ID is the report identifier. It mirrors the record key.
	ID string `json:"report_id,omitempty"`

	// FileName is the name of the checked file.
	FileName string `json:"file_name"`

	// FileType is the kind of the checked file.
	FileType FileType `json:"file_type,omitempty"`

	// FileSizeBytes is the size of the checked file.
	FileSizeBytes int64 `json:"file_size_bytes"`

	// CheckedAt is when the check ran.
	CheckedAt time.Time `json:"checked_at"`

	// Compliant is true if no issue blocks compliance.
	Compliant bool `json:"is_compliant"`

	// LevelMet is the highest conformance level met, empty if none.
	LevelMet ComplianceLevel `json:"compliance_level_met,omitempty"`

	SeverityCounts

	// Issues lists every problem found.
	Issues []Issue `json:"issues"`

	// PDFChecks, DocxChecks and XlsxChecks hold the file-type specific
	// check results. At most one is present; the store keeps them opaque.
	PDFChecks  json.RawMessage `json:"pdf_checks,omitempty"`
	DocxChecks json.RawMessage `json:"docx_checks,omitempty"`
	XlsxChecks json.RawMessage `json:"xlsx_checks,omitempty"`

	// Summary is a free-text description of the result.
	Summary string `json:"summary"`

	// Recommendations are suggested next steps.
	Recommendations []string `json:"recommendations,omitempty"`

	// PolicyID optionally correlates the report with a policy record.
	// The store never follows it.
	PolicyID string `json:"policy_id,omitempty"`
}
