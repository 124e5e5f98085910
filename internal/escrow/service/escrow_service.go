package service

import (
	"context"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/carbonchain/carbonchain-backend/internal/escrow/domain"
)

type Repository interface {
	Create(ctx context.Context, p *domain.Project) error
	Get(ctx context.Context, id int64) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
	Update(ctx context.Context, id int64, fn func(*domain.Project) error) (*domain.Project, error)
}

// Directory looks up the person behind a party id for the funding tree.
type Directory interface {
	Lookup(ctx context.Context, id string) (domain.Party, bool)
}

type EscrowService struct {
	repo Repository
	log  *zap.Logger
	now  func() time.Time

	dir    Directory
	ethUSD float64
}

func NewEscrowService(repo Repository, log *zap.Logger) *EscrowService {
	if log == nil {
		log = zap.NewNop()
	}
	return &EscrowService{repo: repo, log: log, now: time.Now}
}

// WithFundingView sets the name lookup and ETH/USD rate used by
// FundingTree. dir may be nil.
func (s *EscrowService) WithFundingView(dir Directory, ethUSD float64) *EscrowService {
	s.dir = dir
	s.ethUSD = ethUSD
	return s
}

func (s *EscrowService) Propose(ctx context.Context, req domain.ProposeRequest) (*domain.Project, error) {
	in, err := req.Input()
	if err != nil {
		return nil, err
	}
	p, err := domain.NewProject(in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("escrow project proposed",
		zap.Int64("project_id", p.ID),
		zap.String("proposer", p.Proposer),
		zap.String("goal", domain.FormatEther(p.Goal)))
	return p, nil
}

func (s *EscrowService) Fund(ctx context.Context, req domain.FundRequest) (*domain.Project, error) {
	amount, err := domain.ParseEther(string(req.Amount))
	if err != nil {
		return nil, err
	}
	p, err := s.repo.Update(ctx, req.ProjectID, func(p *domain.Project) error {
		return p.Fund(req.UserID, amount)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("escrow project funded",
		zap.Int64("project_id", p.ID),
		zap.String("contributor", req.UserID),
		zap.String("amount", domain.FormatEther(amount)))
	return p, nil
}

// VerifyAndRelease returns the project and the amount paid to the
// beneficiary.
func (s *EscrowService) VerifyAndRelease(ctx context.Context, req domain.VerifyRequest) (*domain.Project, *big.Int, error) {
	var released *big.Int
	p, err := s.repo.Update(ctx, req.ProjectID, func(p *domain.Project) error {
		amt, err := p.VerifyAndRelease(req.VerifierID)
		released = amt
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	s.log.Info("escrow project verified",
		zap.Int64("project_id", p.ID),
		zap.String("beneficiary", p.Beneficiary),
		zap.String("released", domain.FormatEther(released)))
	return p, released, nil
}

func (s *EscrowService) Reject(ctx context.Context, req domain.VerifyRequest) (*domain.Project, error) {
	return s.transition(ctx, req.ProjectID, "rejected", func(p *domain.Project) error {
		return p.Reject(req.VerifierID)
	})
}

func (s *EscrowService) Cancel(ctx context.Context, req domain.CancelRequest) (*domain.Project, error) {
	return s.transition(ctx, req.ProjectID, "cancelled", func(p *domain.Project) error {
		return p.Cancel(req.ProposerID, req.Reason)
	})
}

func (s *EscrowService) CancelIfExpired(ctx context.Context, id int64) (*domain.Project, error) {
	now := s.now()
	return s.transition(ctx, id, "expired", func(p *domain.Project) error {
		return p.CancelIfExpired(now)
	})
}

func (s *EscrowService) ClaimRefund(ctx context.Context, req domain.RefundRequest) (*domain.Project, *big.Int, error) {
	var refunded *big.Int
	p, err := s.repo.Update(ctx, req.ProjectID, func(p *domain.Project) error {
		amt, err := p.ClaimRefund(req.UserID)
		refunded = amt
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	s.log.Info("escrow refund claimed",
		zap.Int64("project_id", p.ID),
		zap.String("contributor", req.UserID),
		zap.String("amount", domain.FormatEther(refunded)))
	return p, refunded, nil
}

func (s *EscrowService) Get(ctx context.Context, id int64) (*domain.Project, error) {
	return s.repo.Get(ctx, id)
}

func (s *EscrowService) List(ctx context.Context) ([]*domain.Project, error) {
	return s.repo.List(ctx)
}

// FundingTree groups every project by initiative with its funders, states
// and parties.
func (s *EscrowService) FundingTree(ctx context.Context) (domain.FundingTree, error) {
	projects, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	seen := map[string]domain.Party{}
	name := func(id string) domain.Party {
		if p, ok := seen[id]; ok {
			return p
		}
		p := domain.DefaultParty(id)
		if s.dir != nil {
			if found, ok := s.dir.Lookup(ctx, id); ok {
				p = found
			}
		}
		seen[id] = p
		return p
	}
	return domain.BuildFundingTree(projects, s.ethUSD, name), nil
}

// SweepExpired cancels every open project whose deadline has passed and
// reports how many it cancelled.
func (s *EscrowService) SweepExpired(ctx context.Context) (int, error) {
	projects, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	cancelled := 0
	for _, p := range projects {
		if p.State.Final() || p.Deadline.IsZero() || !now.After(p.Deadline) {
			continue
		}
		if _, err := s.CancelIfExpired(ctx, p.ID); err != nil {
			s.log.Warn("expire escrow project", zap.Int64("project_id", p.ID), zap.Error(err))
			continue
		}
		cancelled++
	}
	return cancelled, nil
}

func (s *EscrowService) transition(ctx context.Context, id int64, event string, fn func(*domain.Project) error) (*domain.Project, error) {
	p, err := s.repo.Update(ctx, id, fn)
	if err != nil {
		return nil, err
	}
	s.log.Info("escrow project "+event, zap.Int64("project_id", p.ID))
	return p, nil
}
