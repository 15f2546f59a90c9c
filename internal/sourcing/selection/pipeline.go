package selection

import (
	"sort"
	"time"

	"sourcing_backend/internal/sourcing/domain"
	"sourcing_backend/internal/sourcing/scoring"
	"sourcing_backend/platform/config"
	"sourcing_backend/platform/logger"
)

// Stage is a step in the per-line selection state machine. Transitions are
// fixed and forward-only.
type Stage int

const (
	StageSearched Stage = iota
	StageScored
	StageCoverageFiltered
	StageRegionBalanced
	StageMinOrderChecked
	StageFinalized
)

func (s Stage) String() string {
	switch s {
	case StageSearched:
		return "searched"
	case StageScored:
		return "scored"
	case StageCoverageFiltered:
		return "coverage_filtered"
	case StageRegionBalanced:
		return "region_balanced"
	case StageMinOrderChecked:
		return "min_order_checked"
	case StageFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// Params are the tunable business parameters of one batch run. They are
// constructed once per batch and passed in explicitly; components never read
// shared mutable configuration.
type Params struct {
	PerRegionCap            int
	TotalSlotBudget         int
	CoverageThreshold       float64
	MinIndividualQtyPercent float64
	FreshnessWindowYears    int
	MultiplierAbundant      float64
	MultiplierScarce        float64
}

// DefaultParams returns the empirically tuned defaults.
func DefaultParams() Params {
	return Params{
		PerRegionCap:            3,
		TotalSlotBudget:         6,
		CoverageThreshold:       0.80,
		MinIndividualQtyPercent: 0.10,
		FreshnessWindowYears:    2,
		MultiplierAbundant:      0.2,
		MultiplierScarce:        0.7,
	}
}

// ParamsFromConfig materializes pipeline parameters from the loaded
// configuration.
func ParamsFromConfig(cfg config.SelectionConfig) Params {
	return Params{
		PerRegionCap:            cfg.GetPerRegionCap(),
		TotalSlotBudget:         cfg.GetTotalSlotBudget(),
		CoverageThreshold:       cfg.GetCoverageThreshold(),
		MinIndividualQtyPercent: cfg.GetMinIndividualQtyPercent(),
		FreshnessWindowYears:    cfg.GetFreshnessWindowYears(),
		MultiplierAbundant:      cfg.GetMinOrderMultiplierAbundant(),
		MultiplierScarce:        cfg.GetMinOrderMultiplierScarce(),
	}
}

// Pipeline turns a raw list of scraped rows into an ordered, budgeted,
// cross-region selection for one request line.
type Pipeline struct {
	params Params
	now    func() time.Time
	log    *logger.Logger
}

// NewPipeline creates a pipeline. now may be nil, in which case wall-clock
// time is used; tests inject a fixed clock to pin the freshness cutoff.
func NewPipeline(params Params, now func() time.Time, log *logger.Logger) *Pipeline {
	if now == nil {
		now = time.Now
	}
	return &Pipeline{params: params, now: now, log: log}
}

// Params returns the pipeline's parameters, for the submission-time gate.
func (p *Pipeline) Params() Params {
	return p.params
}

// Select runs the decision for one line: classify and score every offer,
// coverage-filter the merged set, balance region slots, take the top offers
// per region (plus an uncertainty buffer), and annotate each with the
// quantity to request. The minimum-order-value gate is deliberately absent
// here: it needs a live per-offer lookup and runs immediately before
// submission, only for offers that survived everything else.
func (p *Pipeline) Select(line domain.RequestLine, rows []domain.RawRow) *domain.SelectionDecision {
	offers := domain.BuildOffers(rows)
	p.logStage(line, StageSearched, len(offers))

	currentYear := p.now().Year() % 100
	for i := range offers {
		offers[i].Freshness = domain.Freshness(
			offers[i].BestDateCodeYear,
			offers[i].DateCodeAmbiguous,
			currentYear,
			p.params.FreshnessWindowYears,
		)
	}

	americas := regionSorted(offers, domain.RegionAmericas, line.RequestedQty)
	europe := regionSorted(offers, domain.RegionEurope, line.RequestedQty)
	p.logStage(line, StageScored, len(americas)+len(europe))

	// Coverage is assessed over the merged set, then the per-region
	// orderings are filtered down to the survivors.
	merged := append(append([]domain.Offer{}, americas...), europe...)
	retained := FilterByCoverage(merged, line.RequestedQty, p.params.CoverageThreshold, p.params.MinIndividualQtyPercent)
	retainedKeys := make(map[string]bool, len(retained))
	for _, offer := range retained {
		retainedKeys[offer.Key()] = true
	}
	americas = filterByKey(americas, retainedKeys)
	europe = filterByKey(europe, retainedKeys)
	p.logStage(line, StageCoverageFiltered, len(americas)+len(europe))

	americasSlots, europeSlots := RegionSlots(len(americas), len(europe), p.params.PerRegionCap, p.params.TotalSlotBudget)
	p.logStage(line, StageRegionBalanced, americasSlots+europeSlots)

	selectedAmericas := takeWithUncertaintyBuffer(americas, americasSlots)
	selectedEurope := takeWithUncertaintyBuffer(europe, europeSlots)

	decision := &domain.SelectionDecision{
		QualifyingAmericas: len(americas),
		QualifyingEurope:   len(europe),
	}

	for _, offer := range append(selectedAmericas, selectedEurope...) {
		adjusted, wasAdjusted := AdjustQuantity(line.RequestedQty, offer.AvailableQty)
		decision.Chosen = append(decision.Chosen, domain.ChosenOffer{
			Offer:       offer,
			AdjustedQty: adjusted,
			QtyAdjusted: wasAdjusted,
		})
	}
	decision.SelectedCount = len(decision.Chosen)
	p.logStage(line, StageFinalized, decision.SelectedCount)

	return decision
}

// regionSorted returns the region's offers ordered by priority score
// descending.
func regionSorted(offers []domain.Offer, region domain.Region, requestedQty int) []domain.Offer {
	out := []domain.Offer{}
	for _, offer := range offers {
		if offer.Region == region {
			out = append(out, offer)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return scoring.Score(out[i], requestedQty) > scoring.Score(out[j], requestedQty)
	})
	return out
}

func filterByKey(offers []domain.Offer, keys map[string]bool) []domain.Offer {
	out := offers[:0:0]
	for _, offer := range offers {
		if keys[offer.Key()] {
			out = append(out, offer)
		}
	}
	return out
}

// takeWithUncertaintyBuffer takes the top slots offers, plus one extra slot
// when any selected offer has unknown freshness and a further candidate
// exists. The buffer hedges against an unknown date code turning out old.
func takeWithUncertaintyBuffer(ranked []domain.Offer, slots int) []domain.Offer {
	if slots < 0 {
		slots = 0
	}
	if slots > len(ranked) {
		slots = len(ranked)
	}
	selected := ranked[:slots]

	if len(ranked) > slots {
		for _, offer := range selected {
			if offer.Freshness == domain.FreshnessUnknown {
				selected = ranked[:slots+1]
				break
			}
		}
	}

	out := make([]domain.Offer, len(selected))
	copy(out, selected)
	return out
}

func (p *Pipeline) logStage(line domain.RequestLine, stage Stage, count int) {
	if p.log == nil {
		return
	}
	p.log.Debug("selection stage",
		"part_number", line.PartNumber,
		"line", line.LineNumber,
		"stage", stage.String(),
		"count", count,
	)
}
