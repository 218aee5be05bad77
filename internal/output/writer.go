package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/logging"
	"github.com/pankaj-dahiya-devops/cloud-posture/internal/models"
)

// Format is a report output format.
type Format string

const (
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatHTML    Format = "html"
	FormatConsole Format = "console"
	FormatAll     Format = "all"
)

// AllFormats lists every concrete format in the order WriteAll emits them.
var AllFormats = []Format{FormatJSON, FormatCSV, FormatHTML, FormatConsole}

// ParseFormats parses a comma-separated format list. "all" expands to
// AllFormats; duplicates are dropped.
func ParseFormats(s string) ([]Format, error) {
	seen := make(map[Format]bool)
	var out []Format
	add := func(f Format) {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	for _, part := range strings.Split(s, ",") {
		f := Format(strings.ToLower(strings.TrimSpace(part)))
		switch f {
		case "":
			continue
		case FormatAll:
			for _, a := range AllFormats {
				add(a)
			}
		case FormatJSON, FormatCSV, FormatHTML, FormatConsole:
			add(f)
		default:
			return nil, &models.ConfigurationError{
				Field: "output",
				Err:   fmt.Errorf("unknown format %q (want json, csv, html, console or all)", part),
			}
		}
	}
	if len(out) == 0 {
		return nil, &models.ConfigurationError{Field: "output", Err: errors.New("no output format given")}
	}
	return out, nil
}

// Writer writes an audit result in one or more formats. File formats go to
// OutDir; the console format goes to Stdout.
type Writer struct {
	OutDir string
	Stdout io.Writer
	// Colored enables ANSI colours on the console format.
	Colored bool
}

// FileName returns the report file name for format f.
func FileName(res *models.AuditResult, f Format) string {
	stamp := res.AuditTimestamp.UTC().Format("20060102T150405Z")
	return fmt.Sprintf("posture-%s-%s-%s.%s", res.AccountID, res.Region, stamp, f)
}

// WriteAll attempts every requested format. A failing format does not stop
// the others; each failure is an OutputError and they are returned joined.
// The paths of written files are returned in format order.
func (wr Writer) WriteAll(res *models.AuditResult, formats []Format) ([]string, error) {
	var (
		written []string
		errs    []error
	)
	for _, f := range formats {
		if f == FormatConsole {
			RenderConsole(wr.Stdout, res, ConsoleOptions{Colored: wr.Colored})
			continue
		}
		path, err := wr.writeFile(res, f)
		if err != nil {
			oerr := &models.OutputError{Format: string(f), Err: err}
			logging.LogError("Report writer failed", oerr, map[string]any{"format": string(f)})
			errs = append(errs, oerr)
			continue
		}
		written = append(written, path)
	}
	return written, errors.Join(errs...)
}

func (wr Writer) writeFile(res *models.AuditResult, f Format) (path string, err error) {
	encode, ok := encoders[f]
	if !ok {
		return "", fmt.Errorf("unsupported format %q", f)
	}
	dir := wr.OutDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path = filepath.Join(dir, FileName(res, f))

	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	if err := encode(file, res); err != nil {
		return "", err
	}
	return path, nil
}

var encoders = map[Format]func(io.Writer, *models.AuditResult) error{
	FormatJSON: WriteJSON,
	FormatCSV:  WriteCSV,
	FormatHTML: WriteHTML,
}
