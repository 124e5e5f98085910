package domain

import "errors"

var (
	ErrInvalidAddress      = errors.New("InvalidAddress: beneficiary and verifier are required")
	ErrNotPositiveValue    = errors.New("NotPositiveValue: amount must be greater than zero")
	ErrAlreadyFinalized    = errors.New("AlreadyFinalized: project is no longer accepting actions")
	ErrOnlyVerifier        = errors.New("OnlyVerifier: caller is not the project verifier")
	ErrOnlyProposer        = errors.New("OnlyProposer: caller is not the project proposer")
	ErrNotExpired          = errors.New("NotExpired: project deadline has not passed")
	ErrRefundsUnavailable  = errors.New("RefundsUnavailable: refunds require a rejected or cancelled project")
	ErrNoContribution      = errors.New("NoContribution: nothing to refund")
	ErrProjectDoesNotExist = errors.New("ProjectDoesNotExist")
	ErrInvalidAmount       = errors.New("invalid ETH amount")
	ErrInvalidDeadline     = errors.New("deadline must not be negative")
)
