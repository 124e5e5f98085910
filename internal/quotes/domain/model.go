package domain

import (
	"strings"
	"time"
)

// Certificate is the retirement certificate text attached to a purchase.
type Certificate struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Message   string `json:"retirementMessage"`
}

func (c Certificate) Trimmed() Certificate {
	return Certificate{
		FirstName: strings.TrimSpace(c.FirstName),
		LastName:  strings.TrimSpace(c.LastName),
		Message:   strings.TrimSpace(c.Message),
	}
}

func (c Certificate) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func (c Certificate) Validate() error {
	v := &ValidationError{}
	c.validateInto(v)
	return v.orNil()
}

func (c Certificate) validateInto(v *ValidationError) {
	t := c.Trimmed()
	if t.FirstName == "" {
		v.add("certificateFirstName", "certificate first name is required")
	}
	if t.LastName == "" {
		v.add("certificateLastName", "certificate last name is required")
	}
	if t.Message == "" {
		v.add("retirementMessage", "retirement message is required")
	}
}

// SelectedSource is one pool's share of a quote.
type SelectedSource struct {
	SourceID    string  `json:"sourceId"`
	PoolName    string  `json:"poolName"`
	Quantity    float64 `json:"quantity"`
	PricePerTon float64 `json:"pricePerTon"`
	TotalCost   float64 `json:"totalCost"`
}

type Quote struct {
	QuoteID             string           `json:"quoteId"`
	UserID              string           `json:"userId"`
	ProjectID           string           `json:"projectId"`
	ProjectName         string           `json:"projectName"`
	Registry            string           `json:"registry,omitempty"`
	Quantity            float64          `json:"quantity"`
	ExpectedCost        float64          `json:"expectedCost"`
	TotalCost           float64          `json:"totalCost"`
	CostExceedsExpected bool             `json:"costExceedsExpected"`
	SupplyExceeded      bool             `json:"supplyExceeded"`
	AmountUSD           float64          `json:"amountUsd,omitempty"`
	SelectedSources     []SelectedSource `json:"selectedSources"`
	Certificate         Certificate      `json:"certificate"`
	CreatedAt           time.Time        `json:"createdAt"`
	ExpiresAt           time.Time        `json:"expiresAt"`
}

func (q *Quote) Expired(now time.Time) bool {
	return !now.Before(q.ExpiresAt)
}

// ProjectData is the client's snapshot of the project when it asked for the
// quote. Only used for display fallbacks; prices come from the marketplace.
type ProjectData struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Registry string  `json:"registry"`
}

type QuoteRequest struct {
	Quantity             float64      `json:"quantity"`
	CertificateFirstName string       `json:"certificateFirstName"`
	CertificateLastName  string       `json:"certificateLastName"`
	RetirementMessage    string       `json:"retirementMessage"`
	ProjectID            string       `json:"projectId"`
	TotalCost            float64      `json:"totalCost"`
	UserID               string       `json:"userId"`
	ProjectData          *ProjectData `json:"projectData,omitempty"`

	// AmountUSD quotes by spend instead of tons; it is converted at the
	// project price. Set either it or Quantity.
	AmountUSD float64 `json:"amountUsd,omitempty"`
	// ClampToSupply caps Quantity at the listed supply instead of failing.
	ClampToSupply bool `json:"clampToSupply,omitempty"`
}

func (r QuoteRequest) Certificate() Certificate {
	return Certificate{
		FirstName: r.CertificateFirstName,
		LastName:  r.CertificateLastName,
		Message:   r.RetirementMessage,
	}.Trimmed()
}

func (r QuoteRequest) Validate() error {
	v := &ValidationError{}
	switch {
	case r.AmountUSD < 0:
		v.add("amountUsd", "amountUsd must not be negative")
	case r.AmountUSD > 0 && r.Quantity != 0:
		v.add("amountUsd", "set either quantity or amountUsd, not both")
	case r.AmountUSD == 0 && r.Quantity <= 0:
		v.add("quantity", "quantity must be greater than zero")
	}
	if r.TotalCost < 0 {
		v.add("totalCost", "totalCost must not be negative")
	}
	if strings.TrimSpace(r.ProjectID) == "" {
		v.add("projectId", "projectId is required")
	}
	r.Certificate().validateInto(v)
	return v.orNil()
}

type PurchaseRequest struct {
	QuoteID              string `json:"quoteId"`
	CertificateFirstName string `json:"certificateFirstName"`
	CertificateLastName  string `json:"certificateLastName"`
	RetirementMessage    string `json:"retirementMessage"`
	UserID               string `json:"userId"`
}

// Certificate overlays the purchase-time certificate fields on the quoted
// ones; blank fields keep the quoted value.
func (r PurchaseRequest) Certificate(quoted Certificate) Certificate {
	c := quoted
	t := Certificate{
		FirstName: r.CertificateFirstName,
		LastName:  r.CertificateLastName,
		Message:   r.RetirementMessage,
	}.Trimmed()
	if t.FirstName != "" {
		c.FirstName = t.FirstName
	}
	if t.LastName != "" {
		c.LastName = t.LastName
	}
	if t.Message != "" {
		c.Message = t.Message
	}
	return c.Trimmed()
}

func (r PurchaseRequest) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(r.QuoteID) == "" {
		v.add("quoteId", "quoteId is required")
	}
	return v.orNil()
}

// SupplierSelection is the reconciliation block the client displays next to
// its own estimate.
type SupplierSelection struct {
	TotalCost           float64          `json:"totalCost"`
	ExpectedCost        float64          `json:"expectedCost"`
	TotalQuantity       float64          `json:"totalQuantity"`
	CostExceedsExpected bool             `json:"costExceedsExpected"`
	SupplyExceeded      bool             `json:"supplyExceeded"`
	SelectedSources     []SelectedSource `json:"selectedSources"`
}

type QuoteSummary struct {
	QuoteID         string           `json:"quoteId"`
	ProjectID       string           `json:"projectId"`
	ProjectName     string           `json:"projectName"`
	Quantity        float64          `json:"quantity"`
	TotalCost       float64          `json:"totalCost"`
	SelectedSources []SelectedSource `json:"selectedSources"`
	ExpiresAt       time.Time        `json:"expiresAt"`
}

type QuoteResponse struct {
	QuoteID           string            `json:"quoteId"`
	ExpiresAt         time.Time         `json:"expiresAt"`
	Quote             QuoteSummary      `json:"quote"`
	SupplierSelection SupplierSelection `json:"supplierSelection"`
}

func NewQuoteResponse(q *Quote) QuoteResponse {
	return QuoteResponse{
		QuoteID:   q.QuoteID,
		ExpiresAt: q.ExpiresAt,
		Quote: QuoteSummary{
			QuoteID:         q.QuoteID,
			ProjectID:       q.ProjectID,
			ProjectName:     q.ProjectName,
			Quantity:        q.Quantity,
			TotalCost:       q.TotalCost,
			SelectedSources: q.SelectedSources,
			ExpiresAt:       q.ExpiresAt,
		},
		SupplierSelection: SupplierSelection{
			TotalCost:           q.TotalCost,
			ExpectedCost:        q.ExpectedCost,
			TotalQuantity:       q.Quantity,
			CostExceedsExpected: q.CostExceedsExpected,
			SupplyExceeded:      q.SupplyExceeded,
			SelectedSources:     q.SelectedSources,
		},
	}
}
