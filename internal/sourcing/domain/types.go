// Package domain holds the data model of the sourcing engine: offers,
// request lines, selection decisions and submission outcomes. Records are
// explicit tagged structs; optional fields are pointers.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Region is the geographic bucket an offer belongs to.
type Region string

const (
	RegionAmericas Region = "Americas"
	RegionEurope   Region = "Europe"
	RegionOther    Region = "Other"
)

// FreshnessClass classifies a date code relative to a rolling window.
type FreshnessClass string

const (
	FreshnessFresh   FreshnessClass = "fresh"
	FreshnessOld     FreshnessClass = "old"
	FreshnessUnknown FreshnessClass = "unknown"
)

// Status is the terminal state of one submission attempt.
type Status string

const (
	StatusSent        Status = "SENT"
	StatusFailed      Status = "FAILED"
	StatusOmitted     Status = "OMITTED"
	StatusNoSuppliers Status = "NO_SUPPLIERS"
)

// RawRow is one scraped stock row as the marketplace adapter extracted it.
// Rows are not yet aggregated: one supplier may appear in several rows.
type RawRow struct {
	Supplier   string
	Region     Region
	Quantity   int
	DateCode   string
	Authorized bool // franchised/authorized distributor marker
	InStock    bool // true for the in-stock section, false for brokered
}

// Offer is one supplier's aggregated availability of a part in one region.
// It lives only for the duration of a single part search.
type Offer struct {
	Supplier          string
	Region            Region
	AvailableQty      int
	BestDateCodeYear  *int // freshest parsed 2-digit year seen for this supplier
	BestDateCodeText  string
	DateCodeAmbiguous bool
	Freshness         FreshnessClass
	MinOrderValue     *decimal.Decimal // populated only after a supplier detail lookup
}

// Key identifies an offer within a search (one supplier can offer a part in
// more than one region).
func (o Offer) Key() string {
	return o.Supplier + "|" + string(o.Region)
}

// MeetsQuantity reports whether the offer can cover the full request.
func (o Offer) MeetsQuantity(requestedQty int) bool {
	return o.AvailableQty >= requestedQty
}

// ReferencePricing is an authoritative/franchise-channel price point used by
// the minimum-order-value gate to judge whether a secondary offer is worth
// contacting.
type ReferencePricing struct {
	Qty       int
	UnitPrice decimal.Decimal
}

// RequestLine is one unit of work: a part to source at a quantity.
type RequestLine struct {
	PartNumber   string `validate:"required"`
	RequestedQty int    `validate:"gt=0"`
	LineNumber   int
	CategoryCode string
	Manufacturer string
	Reference    *ReferencePricing
}

// ChosenOffer is an offer selected for submission, annotated with the
// quantity that will actually be requested.
type ChosenOffer struct {
	Offer       Offer
	AdjustedQty int
	QtyAdjusted bool
}

// Omission records an offer deliberately not contacted, with the operands of
// the decision for audit.
type Omission struct {
	Offer          Offer
	MinOrderValue  decimal.Decimal
	EstimatedValue decimal.Decimal
	Multiplier     float64
	Reason         string
}

// SelectionDecision is the output of the selection pipeline for one line:
// the ordered list of offers to contact plus bookkeeping counts for the
// report. Omissions are appended during submission, when the live
// minimum-order lookup happens.
type SelectionDecision struct {
	Chosen             []ChosenOffer // submission order: Americas first, then Europe
	Omitted            []Omission
	QualifyingAmericas int
	QualifyingEurope   int
	SelectedCount      int
}

// QualifyingTotal is the number of offers that survived scoring and the
// coverage filter across both regions.
func (d *SelectionDecision) QualifyingTotal() int {
	return d.QualifyingAmericas + d.QualifyingEurope
}

// SubmissionOutcome is the immutable record of one attempted offer. Every
// line yields at least one outcome, NO_SUPPLIERS included.
type SubmissionOutcome struct {
	ID                 uuid.UUID
	BatchID            string
	LineNumber         int
	CategoryCode       string
	PartNumber         string
	RequestedQty       int
	SentQty            int
	Supplier           string
	Region             Region
	SupplierQty        int
	MinOrderValue      *decimal.Decimal
	EstimatedValue     *decimal.Decimal
	QualifyingTotal    int
	QualifyingAmericas int
	QualifyingEurope   int
	SelectedCount      int
	Status             Status
	Error              string
	WorkerID           int
	DryRun             bool
	Timestamp          time.Time
}

// BuildOffers aggregates raw scraped rows into per-supplier offers.
// Authorized distributors, brokered rows and rows outside the two covered
// regions are excluded. Quantities are summed per supplier+region and the
// freshest parsed date code wins.
func BuildOffers(rows []RawRow) []Offer {
	byKey := map[string]*Offer{}
	order := []string{}

	for _, row := range rows {
		if row.Authorized || !row.InStock {
			continue
		}
		if row.Region != RegionAmericas && row.Region != RegionEurope {
			continue
		}
		if row.Supplier == "" {
			continue
		}

		key := row.Supplier + "|" + string(row.Region)
		offer, ok := byKey[key]
		if !ok {
			offer = &Offer{Supplier: row.Supplier, Region: row.Region}
			byKey[key] = offer
			order = append(order, key)
		}
		if row.Quantity > 0 {
			offer.AvailableQty += row.Quantity
		}

		year, ambiguous := ParseDateCode(row.DateCode)
		if year == nil {
			continue
		}
		if offer.BestDateCodeYear == nil || *year > *offer.BestDateCodeYear {
			y := *year
			offer.BestDateCodeYear = &y
			offer.BestDateCodeText = row.DateCode
			offer.DateCodeAmbiguous = ambiguous
		}
	}

	offers := make([]Offer, 0, len(order))
	for _, key := range order {
		offers = append(offers, *byKey[key])
	}
	return offers
}
