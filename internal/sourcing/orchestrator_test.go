package sourcing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"sourcing_backend/internal/sourcing/domain"
	"sourcing_backend/internal/sourcing/ports"
	"sourcing_backend/internal/sourcing/selection"
)

type fakeMarketplace struct {
	mu        sync.Mutex
	rows      map[string][]domain.RawRow
	searchErr map[string]error
	minOrders map[string]*decimal.Decimal
	submitErr map[string]error
	submitted []ports.SubmitRequest
	sessions  int
}

func newFakeMarketplace() *fakeMarketplace {
	return &fakeMarketplace{
		rows:      map[string][]domain.RawRow{},
		searchErr: map[string]error{},
		minOrders: map[string]*decimal.Decimal{},
		submitErr: map[string]error{},
	}
}

func (m *fakeMarketplace) NewSession(ctx context.Context) (ports.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions++
	return &fakeSession{m: m}, nil
}

func (m *fakeMarketplace) submissions() []ports.SubmitRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ports.SubmitRequest, len(m.submitted))
	copy(out, m.submitted)
	return out
}

type fakeSession struct {
	m *fakeMarketplace
}

func (s *fakeSession) Search(ctx context.Context, partNumber string) ([]domain.RawRow, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.searchErr[partNumber]; err != nil {
		return nil, err
	}
	return s.m.rows[partNumber], nil
}

func (s *fakeSession) MinOrderValue(ctx context.Context, supplier string) (*decimal.Decimal, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.m.minOrders[supplier], nil
}

func (s *fakeSession) SubmitInquiry(ctx context.Context, req ports.SubmitRequest) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if err := s.m.submitErr[req.Supplier]; err != nil {
		return err
	}
	s.m.submitted = append(s.m.submitted, req)
	return nil
}

func (s *fakeSession) Close() error { return nil }

type memorySink struct {
	mu       sync.Mutex
	recorded []domain.SubmissionOutcome
}

func (s *memorySink) Record(ctx context.Context, outcome domain.SubmissionOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorded = append(s.recorded, outcome)
	return nil
}

func testClock() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newTestOrchestrator(t *testing.T, m *fakeMarketplace, sink ports.OutcomeSink, workers int, dryRun bool) *Orchestrator {
	t.Helper()
	orch, err := NewOrchestrator(Options{
		Marketplace: m,
		Sink:        sink,
		Pipeline:    selection.NewPipeline(selection.DefaultParams(), testClock, nil),
		WorkerCount: workers,
		DryRun:      dryRun,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	return orch
}

func americasRow(supplier string, qty int, dateCode string) domain.RawRow {
	return domain.RawRow{Supplier: supplier, Region: domain.RegionAmericas, Quantity: qty, DateCode: dateCode, InStock: true}
}

func europeRow(supplier string, qty int, dateCode string) domain.RawRow {
	return domain.RawRow{Supplier: supplier, Region: domain.RegionEurope, Quantity: qty, DateCode: dateCode, InStock: true}
}

func TestRunNoSuppliers(t *testing.T) {
	m := newFakeMarketplace()
	sink := &memorySink{}
	orch := newTestOrchestrator(t, m, sink, 1, false)

	lines := []domain.RequestLine{{PartNumber: "GHOST-1", RequestedQty: 100, LineNumber: 1}}
	summary, err := orch.Run(context.Background(), "B1", lines)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(summary.Outcomes) != 1 {
		t.Fatalf("expected exactly one outcome, got %d", len(summary.Outcomes))
	}
	out := summary.Outcomes[0]
	if out.Status != domain.StatusNoSuppliers {
		t.Fatalf("status = %q, want NO_SUPPLIERS", out.Status)
	}
	if out.PartNumber != "GHOST-1" || out.Supplier != "" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if len(sink.recorded) != 1 {
		t.Fatalf("sink should have recorded 1 outcome, got %d", len(sink.recorded))
	}
}

func TestRunSubmitsSelectedOffers(t *testing.T) {
	m := newFakeMarketplace()
	m.rows["LM317T"] = []domain.RawRow{
		americasRow("Alpha", 5000, "2410"),
		europeRow("Beta", 2000, "2411"),
	}
	sink := &memorySink{}
	orch := newTestOrchestrator(t, m, sink, 1, false)

	lines := []domain.RequestLine{{PartNumber: "LM317T", RequestedQty: 1000, LineNumber: 1}}
	summary, err := orch.Run(context.Background(), "B2", lines)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := summary.StatusCounts[domain.StatusSent]; got != 2 {
		t.Fatalf("sent count = %d, want 2", got)
	}

	subs := m.submissions()
	if len(subs) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(subs))
	}
	for _, sub := range subs {
		if sub.Quantity != 1000 {
			t.Fatalf("submission quantity = %d, want 1000", sub.Quantity)
		}
		switch sub.Supplier {
		case "Alpha":
			if sub.Comment != "" {
				t.Fatalf("americas submission should carry no comment, got %q", sub.Comment)
			}
		case "Beta":
			if sub.Comment != europeComment {
				t.Fatalf("europe submission comment = %q, want %q", sub.Comment, europeComment)
			}
		default:
			t.Fatalf("unexpected supplier %q", sub.Supplier)
		}
	}
}

func TestRunOmitsOfferOverMinOrderFloor(t *testing.T) {
	m := newFakeMarketplace()
	m.rows["P1"] = []domain.RawRow{americasRow("Pricey", 500, "2410")}
	floor := decimal.RequireFromString("10000")
	m.minOrders["Pricey"] = &floor

	sink := &memorySink{}
	orch := newTestOrchestrator(t, m, sink, 1, false)

	unit := decimal.RequireFromString("0.50")
	lines := []domain.RequestLine{{
		PartNumber:   "P1",
		RequestedQty: 1000,
		LineNumber:   1,
		Reference:    &domain.ReferencePricing{Qty: 5000, UnitPrice: unit},
	}}

	summary, err := orch.Run(context.Background(), "B3", lines)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := summary.StatusCounts[domain.StatusOmitted]; got != 1 {
		t.Fatalf("omitted count = %d, want 1", got)
	}
	if len(m.submissions()) != 0 {
		t.Fatal("omitted offer must not be submitted")
	}

	out := summary.Outcomes[0]
	if out.MinOrderValue == nil || !out.MinOrderValue.Equal(floor) {
		t.Fatalf("outcome should carry the min order operand: %+v", out)
	}
	if out.EstimatedValue == nil {
		t.Fatal("outcome should carry the estimated value operand")
	}
	if out.Error == "" {
		t.Fatal("omission should carry a reason")
	}
}

func TestRunContainsSubmitFailure(t *testing.T) {
	m := newFakeMarketplace()
	m.rows["P1"] = []domain.RawRow{
		americasRow("Broken", 5000, "2410"),
		americasRow("Fine", 4000, "2411"),
	}
	m.submitErr["Broken"] = errors.New("form rejected")

	sink := &memorySink{}
	orch := newTestOrchestrator(t, m, sink, 1, false)

	lines := []domain.RequestLine{{PartNumber: "P1", RequestedQty: 1000, LineNumber: 1}}
	summary, err := orch.Run(context.Background(), "B4", lines)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.StatusCounts[domain.StatusFailed] != 1 || summary.StatusCounts[domain.StatusSent] != 1 {
		t.Fatalf("status counts = %v, want 1 failed and 1 sent", summary.StatusCounts)
	}
	for _, out := range summary.Outcomes {
		if out.Supplier == "Broken" {
			if out.Status != domain.StatusFailed {
				t.Fatalf("Broken should have failed: %+v", out)
			}
			if out.SentQty != 1000 {
				t.Fatalf("failed submission should record the attempted quantity: %+v", out)
			}
		}
	}
}

func TestRunSearchFailureYieldsFailedOutcome(t *testing.T) {
	m := newFakeMarketplace()
	m.searchErr["P1"] = errors.New("marketplace timeout")
	m.rows["P2"] = []domain.RawRow{americasRow("Alpha", 5000, "2410")}

	sink := &memorySink{}
	orch := newTestOrchestrator(t, m, sink, 1, false)

	lines := []domain.RequestLine{
		{PartNumber: "P1", RequestedQty: 100, LineNumber: 1},
		{PartNumber: "P2", RequestedQty: 100, LineNumber: 2},
	}
	summary, err := orch.Run(context.Background(), "B5", lines)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.StatusCounts[domain.StatusFailed] != 1 {
		t.Fatalf("expected the failed search to produce one FAILED outcome: %v", summary.StatusCounts)
	}
	if summary.StatusCounts[domain.StatusSent] != 1 {
		t.Fatalf("the other line should still be processed: %v", summary.StatusCounts)
	}
}

func TestRunDryRunSkipsSubmission(t *testing.T) {
	m := newFakeMarketplace()
	m.rows["P1"] = []domain.RawRow{americasRow("Alpha", 5000, "2410")}

	sink := &memorySink{}
	orch := newTestOrchestrator(t, m, sink, 1, true)

	lines := []domain.RequestLine{{PartNumber: "P1", RequestedQty: 1000, LineNumber: 1}}
	summary, err := orch.Run(context.Background(), "B6", lines)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(m.submissions()) != 0 {
		t.Fatal("dry run must not submit inquiries")
	}
	out := summary.Outcomes[0]
	if out.Status != domain.StatusSent || !out.DryRun {
		t.Fatalf("dry run outcome = %+v, want SENT with dry_run flag", out)
	}
}

func TestRunOneSessionPerWorker(t *testing.T) {
	m := newFakeMarketplace()
	lines := make([]domain.RequestLine, 9)
	for i := range lines {
		part := string(rune('A' + i))
		lines[i] = domain.RequestLine{PartNumber: part, RequestedQty: 100, LineNumber: i + 1}
		m.rows[part] = []domain.RawRow{americasRow("S"+part, 500, "2410")}
	}

	sink := &memorySink{}
	orch := newTestOrchestrator(t, m, sink, 3, false)

	summary, err := orch.Run(context.Background(), "B7", lines)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if m.sessions != 3 {
		t.Fatalf("expected 3 sessions, got %d", m.sessions)
	}
	if len(summary.Outcomes) != 9 {
		t.Fatalf("expected 9 outcomes, got %d", len(summary.Outcomes))
	}
	for i := 1; i < len(summary.Outcomes); i++ {
		if summary.Outcomes[i-1].LineNumber > summary.Outcomes[i].LineNumber {
			t.Fatal("outcomes should be ordered by line number")
		}
	}
}

func TestSummaryTopSuppliers(t *testing.T) {
	summary := &Summary{
		Outcomes: []domain.SubmissionOutcome{
			{Supplier: "A", Status: domain.StatusSent},
			{Supplier: "A", Status: domain.StatusSent},
			{Supplier: "B", Status: domain.StatusSent},
			{Supplier: "C", Status: domain.StatusFailed},
		},
	}

	top := summary.TopSuppliers(2)
	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top))
	}
	if top[0].Supplier != "A" || top[0].Count != 2 {
		t.Fatalf("unexpected leader: %+v", top[0])
	}
	if top[1].Supplier != "B" {
		t.Fatalf("failed submissions must not count: %+v", top[1])
	}
}
