package domain

import (
	"errors"
	"time"

	quotes "github.com/carbonchain/carbonchain-backend/internal/quotes/domain"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrDuplicateOrder = errors.New("order already recorded")
)

const (
	StatusCompleted = "completed"
)

type Certificate struct {
	Name      string `json:"name"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Message   string `json:"retirementMessage"`
}

func CertificateFrom(c quotes.Certificate) Certificate {
	return Certificate{
		Name:      c.FullName(),
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Message:   c.Message,
	}
}

type Order struct {
	OrderID        string                  `json:"orderId"`
	QuoteID        string                  `json:"quoteId"`
	UserID         string                  `json:"userId"`
	ProjectID      string                  `json:"projectId"`
	ProjectName    string                  `json:"projectName"`
	Quantity       float64                 `json:"quantity"`
	TotalCost      float64                 `json:"totalCost"`
	Items          []quotes.SelectedSource `json:"items"`
	Certificate    Certificate             `json:"certificate"`
	CertificateURL string                  `json:"certificateUrl,omitempty"`
	Status         string                  `json:"status"`
	CreatedAt      time.Time               `json:"createdAt"`
}

// Receipt is the /purchase response body.
type Receipt struct {
	Status          string          `json:"status"`
	OrderID         string          `json:"orderId"`
	CertificateURL  string          `json:"certificateUrl,omitempty"`
	Data            ReceiptData     `json:"data"`
	CarbonmarkOrder CarbonmarkOrder `json:"carbonmarkOrder"`
}

type ReceiptData struct {
	TotalPrice        float64 `json:"totalPrice"`
	CertificateName   string  `json:"certificateName"`
	RetirementMessage string  `json:"retirementMessage"`
	Quantity          float64 `json:"quantity"`
}

type CarbonmarkOrder struct {
	Items               []quotes.SelectedSource `json:"items"`
	TotalPrice          float64                 `json:"totalPrice"`
	TotalCarbonQuantity float64                 `json:"totalCarbonQuantity"`
}

func NewReceipt(o *Order) *Receipt {
	return &Receipt{
		Status:         o.Status,
		OrderID:        o.OrderID,
		CertificateURL: o.CertificateURL,
		Data: ReceiptData{
			TotalPrice:        o.TotalCost,
			CertificateName:   o.Certificate.Name,
			RetirementMessage: o.Certificate.Message,
			Quantity:          o.Quantity,
		},
		CarbonmarkOrder: CarbonmarkOrder{
			Items:               o.Items,
			TotalPrice:          o.TotalCost,
			TotalCarbonQuantity: o.Quantity,
		},
	}
}
