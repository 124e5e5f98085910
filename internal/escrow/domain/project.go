package domain

import (
	"encoding/json"
	"math/big"
	"sort"
	"strings"
	"time"
)

type State int

const (
	StateProposed State = iota
	StateVerified
	StateRejected
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateProposed:
		return "proposed"
	case StateVerified:
		return "verified"
	case StateRejected:
		return "rejected"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

func (s State) Final() bool {
	return s != StateProposed
}

type Contribution struct {
	Contributor string   `json:"address"`
	Amount      *big.Int `json:"-"`
	Refunded    bool     `json:"refunded"`
}

// Project is one escrowed funding round. TotalContributed is what the escrow
// currently holds for it: it drops to zero on release and shrinks as
// refunds are claimed.
type Project struct {
	ID               int64                    `json:"id"`
	Proposer         string                   `json:"proposer"`
	Beneficiary      string                   `json:"beneficiary"`
	Verifier         string                   `json:"verifier"`
	Initiative       string                   `json:"initiative"`
	MetadataURI      string                   `json:"metadata_uri"`
	Goal             *big.Int                 `json:"-"`
	Deadline         time.Time                `json:"-"`
	State            State                    `json:"state"`
	TotalContributed *big.Int                 `json:"-"`
	Released         *big.Int                 `json:"-"`
	CancelReason     string                   `json:"cancel_reason,omitempty"`
	Contributions    map[string]*Contribution `json:"-"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

type ProposeInput struct {
	Proposer    string
	Beneficiary string
	Verifier    string
	Initiative  string
	MetadataURI string
	Goal        *big.Int
	Deadline    time.Time
}

// NewProject validates the proposal and returns a project in Proposed state.
func NewProject(in ProposeInput) (*Project, error) {
	if strings.TrimSpace(in.Beneficiary) == "" || strings.TrimSpace(in.Verifier) == "" {
		return nil, ErrInvalidAddress
	}
	goal := new(big.Int)
	if in.Goal != nil {
		if in.Goal.Sign() < 0 {
			return nil, ErrNotPositiveValue
		}
		goal.Set(in.Goal)
	}
	return &Project{
		Proposer:         strings.TrimSpace(in.Proposer),
		Beneficiary:      strings.TrimSpace(in.Beneficiary),
		Verifier:         strings.TrimSpace(in.Verifier),
		Initiative:       in.Initiative,
		MetadataURI:      in.MetadataURI,
		Goal:             goal,
		Deadline:         in.Deadline,
		State:            StateProposed,
		TotalContributed: new(big.Int),
		Released:         new(big.Int),
		Contributions:    make(map[string]*Contribution),
	}, nil
}

func (p *Project) Fund(from string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrNotPositiveValue
	}
	if p.State.Final() {
		return ErrAlreadyFinalized
	}

	c, ok := p.Contributions[from]
	if !ok {
		c = &Contribution{Contributor: from, Amount: new(big.Int)}
		p.Contributions[from] = c
	}
	c.Amount.Add(c.Amount, amount)
	p.TotalContributed.Add(p.TotalContributed, amount)
	return nil
}

// VerifyAndRelease pays everything held to the beneficiary and returns the
// amount released, which may be zero.
func (p *Project) VerifyAndRelease(caller string) (*big.Int, error) {
	if caller != p.Verifier {
		return nil, ErrOnlyVerifier
	}
	if p.State.Final() {
		return nil, ErrAlreadyFinalized
	}

	amount := new(big.Int).Set(p.TotalContributed)
	p.Released.Add(p.Released, amount)
	p.TotalContributed.SetInt64(0)
	p.State = StateVerified
	return amount, nil
}

func (p *Project) Reject(caller string) error {
	if caller != p.Verifier {
		return ErrOnlyVerifier
	}
	if p.State.Final() {
		return ErrAlreadyFinalized
	}
	p.State = StateRejected
	return nil
}

func (p *Project) Cancel(caller, reason string) error {
	if caller != p.Proposer {
		return ErrOnlyProposer
	}
	if p.State.Final() {
		return ErrAlreadyFinalized
	}
	p.State = StateCancelled
	p.CancelReason = reason
	return nil
}

// CancelIfExpired may be called by anyone once the deadline has passed. A
// zero deadline never expires.
func (p *Project) CancelIfExpired(now time.Time) error {
	if p.State.Final() {
		return ErrAlreadyFinalized
	}
	if p.Deadline.IsZero() || !now.After(p.Deadline) {
		return ErrNotExpired
	}
	p.State = StateCancelled
	p.CancelReason = "expired"
	return nil
}

func (p *Project) ClaimRefund(caller string) (*big.Int, error) {
	if p.State != StateRejected && p.State != StateCancelled {
		return nil, ErrRefundsUnavailable
	}
	c, ok := p.Contributions[caller]
	if !ok || c.Amount.Sign() <= 0 {
		return nil, ErrNoContribution
	}

	amount := new(big.Int).Set(c.Amount)
	c.Amount.SetInt64(0)
	c.Refunded = true
	p.TotalContributed.Sub(p.TotalContributed, amount)
	return amount, nil
}

func (p *Project) Contribution(addr string) (*big.Int, bool) {
	c, ok := p.Contributions[addr]
	if !ok {
		return new(big.Int), false
	}
	return new(big.Int).Set(c.Amount), c.Refunded
}

// SortedContributions lists contributors in a stable order.
func (p *Project) SortedContributions() []*Contribution {
	out := make([]*Contribution, 0, len(p.Contributions))
	for _, c := range p.Contributions {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Contributor < out[j].Contributor })
	return out
}

// Clone deep-copies the project so stores can hand out snapshots.
func (p *Project) Clone() *Project {
	cp := *p
	cp.Goal = new(big.Int).Set(p.Goal)
	cp.TotalContributed = new(big.Int).Set(p.TotalContributed)
	cp.Released = new(big.Int).Set(p.Released)
	cp.Contributions = make(map[string]*Contribution, len(p.Contributions))
	for k, c := range p.Contributions {
		cc := *c
		cc.Amount = new(big.Int).Set(c.Amount)
		cp.Contributions[k] = &cc
	}
	return &cp
}

type contributionView struct {
	Address   string `json:"address"`
	Amount    string `json:"amount"`
	AmountWei string `json:"amount_wei"`
	Refunded  bool   `json:"refunded"`
}

// MarshalJSON renders amounts in ETH alongside their exact wei values.
func (p *Project) MarshalJSON() ([]byte, error) {
	contributors := make([]contributionView, 0, len(p.Contributions))
	for _, c := range p.SortedContributions() {
		contributors = append(contributors, contributionView{
			Address:   c.Contributor,
			Amount:    FormatEther(c.Amount),
			AmountWei: c.Amount.String(),
			Refunded:  c.Refunded,
		})
	}

	var deadline *time.Time
	if !p.Deadline.IsZero() {
		d := p.Deadline.UTC()
		deadline = &d
	}

	type alias Project
	return json.Marshal(struct {
		*alias
		StateName           string             `json:"state_name"`
		Goal                string             `json:"goal"`
		GoalWei             string             `json:"goal_wei"`
		TotalContributed    string             `json:"total_contributed"`
		TotalContributedWei string             `json:"total_contributed_wei"`
		Released            string             `json:"released"`
		Deadline            *time.Time         `json:"deadline"`
		Contributors        []contributionView `json:"contributors"`
	}{
		alias:               (*alias)(p),
		StateName:           p.State.String(),
		Goal:                FormatEther(p.Goal),
		GoalWei:             p.Goal.String(),
		TotalContributed:    FormatEther(p.TotalContributed),
		TotalContributedWei: p.TotalContributed.String(),
		Released:            FormatEther(p.Released),
		Deadline:            deadline,
		Contributors:        contributors,
	})
}
