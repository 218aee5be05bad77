package output

import (
	"encoding/json"
	"io"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// WriteJSON writes the full audit result as indented JSON.
func WriteJSON(w io.Writer, res *models.AuditResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
