package domain

import (
	"math"
	"math/big"
	"sort"
)

const UnknownInitiative = "Unknown Initiative"

// Party is how a funder, verifier or beneficiary is shown in the tree.
type Party struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

type FunderNode struct {
	Party
	AmountETH string  `json:"amount_eth"`
	AmountWei string  `json:"amount_wei"`
	AmountUSD float64 `json:"amount_usd"`
	Projects  []int64 `json:"projects"`

	wei *big.Int
}

type FundedProject struct {
	ID    int64  `json:"id"`
	State string `json:"state"`
	Goal  string `json:"goal"`
}

// InitiativeNode aggregates every project filed under one initiative.
type InitiativeNode struct {
	TotalFundingETH string                 `json:"total_funding_eth"`
	TotalFundingUSD float64                `json:"total_funding_usd"`
	Funders         map[string]*FunderNode `json:"funders"`
	Projects        []FundedProject        `json:"projects"`
	States          map[string]int         `json:"states"`
	Verifiers       []string               `json:"verifiers"`
	Beneficiaries   []string               `json:"beneficiaries"`

	wei           *big.Int
	verifiers     map[string]struct{}
	beneficiaries map[string]struct{}
}

// FundingTree maps initiative name to its funders and projects.
type FundingTree map[string]*InitiativeNode

// BuildFundingTree groups projects by initiative. Refunded contributions
// drop out; released ones stay. name resolves party ids for display and
// ethUSD converts wei totals to dollars, rounded to cents.
func BuildFundingTree(projects []*Project, ethUSD float64, name func(id string) Party) FundingTree {
	if name == nil {
		name = DefaultParty
	}
	tree := FundingTree{}
	for _, p := range projects {
		key := p.Initiative
		if key == "" {
			key = UnknownInitiative
		}
		node, ok := tree[key]
		if !ok {
			node = &InitiativeNode{
				Funders:       map[string]*FunderNode{},
				States:        map[string]int{},
				wei:           new(big.Int),
				verifiers:     map[string]struct{}{},
				beneficiaries: map[string]struct{}{},
			}
			tree[key] = node
		}

		node.Projects = append(node.Projects, FundedProject{ID: p.ID, State: p.State.String(), Goal: FormatEther(p.Goal)})
		node.States[p.State.String()]++
		node.verifiers[name(p.Verifier).DisplayName] = struct{}{}
		node.beneficiaries[name(p.Beneficiary).DisplayName] = struct{}{}

		for _, c := range p.SortedContributions() {
			if c.Amount.Sign() <= 0 {
				continue
			}
			f, ok := node.Funders[c.Contributor]
			if !ok {
				f = &FunderNode{Party: name(c.Contributor), wei: new(big.Int)}
				node.Funders[c.Contributor] = f
			}
			f.wei.Add(f.wei, c.Amount)
			f.Projects = append(f.Projects, p.ID)
			node.wei.Add(node.wei, c.Amount)
		}
	}

	for _, node := range tree {
		node.TotalFundingETH = FormatEther(node.wei)
		node.TotalFundingUSD = weiToUSD(node.wei, ethUSD)
		node.Verifiers = sortedKeys(node.verifiers)
		node.Beneficiaries = sortedKeys(node.beneficiaries)
		for _, f := range node.Funders {
			f.AmountETH = FormatEther(f.wei)
			f.AmountWei = f.wei.String()
			f.AmountUSD = weiToUSD(f.wei, ethUSD)
		}
	}
	return tree
}

// DefaultParty shows an unknown id shortened, with the full id as contact.
func DefaultParty(id string) Party {
	short := id
	if len(id) > 8 {
		short = id[:8] + "..."
	}
	return Party{DisplayName: short, Email: id}
}

func weiToUSD(wei *big.Int, ethUSD float64) float64 {
	if ethUSD <= 0 || wei.Sign() == 0 {
		return 0
	}
	eth := new(big.Float).Quo(new(big.Float).SetInt(wei), new(big.Float).SetInt(weiPerEther))
	usd, _ := new(big.Float).Mul(eth, big.NewFloat(ethUSD)).Float64()
	return math.Round(usd*100) / 100
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
