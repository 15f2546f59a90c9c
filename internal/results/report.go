package results

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"sourcing_backend/internal/sourcing/domain"
	"sourcing_backend/platform/apperr"
)

var reportHeader = []string{
	"category_code",
	"line_number",
	"part_number",
	"requested_qty",
	"sent_qty",
	"supplier",
	"region",
	"supplier_qty",
	"min_order_value",
	"estimated_value",
	"qualifying_total",
	"qualifying_americas",
	"qualifying_europe",
	"selected_count",
	"status",
	"error",
	"worker",
	"dry_run",
	"timestamp",
}

// ReportWriter renders batch outcomes to CSV files on disk.
type ReportWriter struct {
	outputDir string
}

// NewReportWriter creates a writer rooted at outputDir. The directory is
// created on first write.
func NewReportWriter(outputDir string) *ReportWriter {
	return &ReportWriter{outputDir: outputDir}
}

// ReportPath is the file a batch report is written to.
func (w *ReportWriter) ReportPath(batchID string) string {
	return filepath.Join(w.outputDir, fmt.Sprintf("sourcing_%s_results.csv", batchID))
}

// Write renders all outcomes of a batch to one CSV file and returns its
// path. An existing report for the same batch is overwritten.
func (w *ReportWriter) Write(batchID string, outcomes []domain.SubmissionOutcome) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", apperr.Wrap(apperr.KindUnknown, "create report directory", err)
	}

	path := w.ReportPath(batchID)
	f, err := os.Create(path)
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnknown, "create report file", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(reportHeader); err != nil {
		return "", apperr.Wrap(apperr.KindUnknown, "write report header", err)
	}
	for _, o := range outcomes {
		if err := cw.Write(reportRow(o)); err != nil {
			return "", apperr.Wrap(apperr.KindUnknown, "write report row", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", apperr.Wrap(apperr.KindUnknown, "flush report", err)
	}
	if err := f.Close(); err != nil {
		return "", apperr.Wrap(apperr.KindUnknown, "close report file", err)
	}
	return path, nil
}

func reportRow(o domain.SubmissionOutcome) []string {
	return []string{
		o.CategoryCode,
		strconv.Itoa(o.LineNumber),
		o.PartNumber,
		strconv.Itoa(o.RequestedQty),
		strconv.Itoa(o.SentQty),
		o.Supplier,
		string(o.Region),
		strconv.Itoa(o.SupplierQty),
		formatDecimal(o.MinOrderValue),
		formatDecimal(o.EstimatedValue),
		strconv.Itoa(o.QualifyingTotal),
		strconv.Itoa(o.QualifyingAmericas),
		strconv.Itoa(o.QualifyingEurope),
		strconv.Itoa(o.SelectedCount),
		string(o.Status),
		o.Error,
		strconv.Itoa(o.WorkerID),
		strconv.FormatBool(o.DryRun),
		o.Timestamp.UTC().Format(time.RFC3339),
	}
}

func formatDecimal(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}
