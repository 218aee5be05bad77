package engine

import (
	"sort"
	"time"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// aggregate assembles the AuditResult. It is the single-writer reduce step:
// every input is complete before it runs.
func aggregate(
	scanID string,
	ts time.Time,
	snap *models.Snapshot,
	findings []models.Finding,
	paths []models.EscalationPath,
	recs []models.Recommendation,
	checkErrs []models.CheckError,
) *models.AuditResult {
	if findings == nil {
		findings = []models.Finding{}
	}
	if paths == nil {
		paths = []models.EscalationPath{}
	}
	if recs == nil {
		recs = []models.Recommendation{}
	}
	sortFindings(findings)

	total, bySeverity := countFindings(findings)
	res := &models.AuditResult{
		ScanID:             scanID,
		AuditTimestamp:     ts.UTC(),
		TotalFindings:      total,
		FindingsBySeverity: bySeverity,
		Findings:           findings,
		EscalationPaths:    paths,
		Recommendations:    recs,
		CheckErrors:        checkErrs,
	}
	if snap != nil {
		res.Region = snap.Region
		res.AccountID = snap.AccountID
	}
	return res
}

// sortFindings sorts findings in place by severity, CRITICAL first. The sort
// is stable so rule registration order is kept within a severity.
func sortFindings(findings []models.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Severity.Rank() < findings[j].Severity.Rank()
	})
}

// countFindings counts non-exception findings in total and per severity.
// All four severity keys are always present.
func countFindings(findings []models.Finding) (int, map[models.Severity]int) {
	bySeverity := make(map[models.Severity]int, len(models.AllSeverities))
	for _, sev := range models.AllSeverities {
		bySeverity[sev] = 0
	}
	total := 0
	for _, f := range findings {
		if f.IsException {
			continue
		}
		total++
		if _, ok := bySeverity[f.Severity]; ok {
			bySeverity[f.Severity]++
		}
	}
	return total, bySeverity
}
