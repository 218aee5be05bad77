package output

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// CSVHeader is the column order of WriteCSV.
var CSVHeader = []string{
	"finding_type",
	"severity",
	"security_group_id/principal",
	"risk_description",
	"remediation_steps",
	"compliance_frameworks",
	"risk_score",
	"is_exception",
}

// WriteCSV writes one row per finding, exceptions included.
func WriteCSV(w io.Writer, res *models.AuditResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, f := range res.Findings {
		row := []string{
			string(f.FindingType),
			string(f.Severity),
			f.ResourceID,
			f.RiskDescription(),
			f.RemediationSteps,
			strings.Join(f.ComplianceFrameworks, "; "),
			strconv.Itoa(f.RiskScore),
			strconv.FormatBool(f.IsException),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
