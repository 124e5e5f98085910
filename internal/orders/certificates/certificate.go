// Package certificates renders retirement certificates and archives them.
package certificates

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/carbonchain/carbonchain-backend/internal/orders/domain"
	quotes "github.com/carbonchain/carbonchain-backend/internal/quotes/domain"
)

// Document is the archived certificate body.
type Document struct {
	CertificateID     string                  `json:"certificateId"`
	OrderID           string                  `json:"orderId"`
	IssuedTo          string                  `json:"issuedTo"`
	RetirementMessage string                  `json:"retirementMessage"`
	ProjectID         string                  `json:"projectId"`
	ProjectName       string                  `json:"projectName"`
	TonsRetired       float64                 `json:"tonsRetired"`
	TotalPrice        float64                 `json:"totalPrice"`
	Sources           []quotes.SelectedSource `json:"sources"`
	IssuedAt          time.Time               `json:"issuedAt"`
}

func Render(o *domain.Order) ([]byte, error) {
	doc := Document{
		CertificateID:     "cert-" + o.OrderID,
		OrderID:           o.OrderID,
		IssuedTo:          o.Certificate.Name,
		RetirementMessage: o.Certificate.Message,
		ProjectID:         o.ProjectID,
		ProjectName:       o.ProjectName,
		TonsRetired:       o.Quantity,
		TotalPrice:        o.TotalCost,
		Sources:           o.Items,
		IssuedAt:          o.CreatedAt.UTC(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render certificate: %w", err)
	}
	return data, nil
}

// ObjectKey is where an order's certificate is stored.
func ObjectKey(o *domain.Order) string {
	return fmt.Sprintf("certificates/%s/%s.json", o.UserID, o.OrderID)
}

// Store archives a rendered certificate and returns where it can be fetched.
type Store interface {
	Put(ctx context.Context, key string, body []byte) (string, error)
}
