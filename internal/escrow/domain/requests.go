package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// EtherAmount is a decimal ETH value that decodes from a JSON string or
// number. Numbers are taken verbatim from the JSON text so no float rounding
// happens before conversion to wei.
type EtherAmount string

func (a *EtherAmount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = EtherAmount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, b)
	}
	*a = EtherAmount(n.String())
	return nil
}

type ProposeRequest struct {
	ProposerID    string      `json:"proposer_id"`
	BeneficiaryID string      `json:"beneficiary_id"`
	VerifierID    string      `json:"verifier_id"`
	Initiative    string      `json:"initiative"`
	MetadataURI   string      `json:"metadata_uri"`
	Goal          EtherAmount `json:"goal"`
	// Deadline is a unix timestamp in seconds; zero means no deadline.
	Deadline int64 `json:"deadline"`
}

func (r ProposeRequest) Input() (ProposeInput, error) {
	in := ProposeInput{
		Proposer:    r.ProposerID,
		Beneficiary: r.BeneficiaryID,
		Verifier:    r.VerifierID,
		Initiative:  r.Initiative,
		MetadataURI: r.MetadataURI,
	}
	if r.Goal != "" {
		goal, err := ParseEther(string(r.Goal))
		if err != nil {
			return in, err
		}
		in.Goal = goal
	}
	if r.Deadline < 0 {
		return in, ErrInvalidDeadline
	}
	if r.Deadline > 0 {
		in.Deadline = time.Unix(r.Deadline, 0).UTC()
	}
	return in, nil
}

type FundRequest struct {
	UserID    string      `json:"user_id"`
	ProjectID int64       `json:"project_id"`
	Amount    EtherAmount `json:"amount"`
}

type VerifyRequest struct {
	VerifierID string `json:"verifier_id"`
	ProjectID  int64  `json:"project_id"`
}

type CancelRequest struct {
	ProposerID string `json:"proposer_id"`
	ProjectID  int64  `json:"project_id"`
	Reason     string `json:"reason"`
}

type ProjectRef struct {
	ProjectID int64 `json:"project_id"`
}

type RefundRequest struct {
	UserID    string `json:"user_id"`
	ProjectID int64  `json:"project_id"`
}
