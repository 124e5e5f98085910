package domain

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Number decodes from either a JSON number or a numeric string; the
// marketplace API uses both for prices and supplies.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	s := strings.Trim(string(b), `"`)
	if s == "" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*n = Number(v)
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(n))
}

type Methodology struct {
	ID       string `json:"id" yaml:"id"`
	Category string `json:"category,omitempty" yaml:"category"`
	Name     string `json:"name,omitempty" yaml:"name"`
}

type Image struct {
	URL     string `json:"url" yaml:"url"`
	Caption string `json:"caption,omitempty" yaml:"caption"`
}

type Stats struct {
	TotalSupply         Number `json:"totalSupply" yaml:"totalSupply"`
	TotalRetired        Number `json:"totalRetired" yaml:"totalRetired"`
	TotalListingsSupply Number `json:"totalListingsSupply,omitempty" yaml:"totalListingsSupply"`
}

// Pool is one supply source a purchase can draw from.
type Pool struct {
	SourceID    string `json:"sourceId" yaml:"sourceId"`
	PoolName    string `json:"poolName" yaml:"poolName"`
	PricePerTon Number `json:"purchasePrice" yaml:"purchasePrice"`
	Supply      Number `json:"supply" yaml:"supply"`
}

type Project struct {
	Key           string        `json:"key" yaml:"key"`
	ProjectID     string        `json:"projectID,omitempty" yaml:"projectID"`
	Name          string        `json:"name" yaml:"name"`
	Description   string        `json:"description,omitempty" yaml:"description"`
	Country       string        `json:"country,omitempty" yaml:"country"`
	Region        string        `json:"region,omitempty" yaml:"region"`
	Registry      string        `json:"registry,omitempty" yaml:"registry"`
	Developer     string        `json:"developer,omitempty" yaml:"developer"`
	URL           string        `json:"url,omitempty" yaml:"url"`
	Vintage       string        `json:"vintage,omitempty" yaml:"vintage"`
	Methodologies []Methodology `json:"methodologies,omitempty" yaml:"methodologies"`
	Images        []Image       `json:"images,omitempty" yaml:"images"`
	Price         Number        `json:"price" yaml:"price"`
	Stats         Stats         `json:"stats" yaml:"stats"`
	Prices        []Pool        `json:"prices,omitempty" yaml:"prices"`
}

// Normalize fills derived fields: the displayed price becomes the cheapest
// tradable pool price and total supply falls back to the sum of pool supply.
func (p *Project) Normalize() {
	if len(p.Prices) == 0 {
		return
	}

	sort.SliceStable(p.Prices, func(i, j int) bool {
		return p.Prices[i].PricePerTon < p.Prices[j].PricePerTon
	})

	var supply Number
	cheapest := Number(0)
	for _, pool := range p.Prices {
		if pool.Supply <= 0 || pool.PricePerTon <= 0 {
			continue
		}
		supply += pool.Supply
		if cheapest == 0 {
			cheapest = pool.PricePerTon
		}
	}

	if cheapest > 0 {
		p.Price = cheapest
	}
	if p.Stats.TotalSupply <= 0 {
		p.Stats.TotalSupply = supply
	}
}

type SearchFilter struct {
	Country     string
	Methodology string
	Name        string
}

type SearchResult struct {
	Items      []Project `json:"items"`
	ItemsCount int       `json:"itemsCount"`
}
