package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// escrowProject is the subset of the project document the CLI prints.
type escrowProject struct {
	ID               int64      `json:"id"`
	Initiative       string     `json:"initiative"`
	Proposer         string     `json:"proposer"`
	Beneficiary      string     `json:"beneficiary"`
	Verifier         string     `json:"verifier"`
	StateName        string     `json:"state_name"`
	Goal             string     `json:"goal"`
	TotalContributed string     `json:"total_contributed"`
	Released         string     `json:"released"`
	Deadline         *time.Time `json:"deadline"`
	Contributors     []struct {
		Address  string `json:"address"`
		Amount   string `json:"amount"`
		Refunded bool   `json:"refunded"`
	} `json:"contributors"`
}

type escrowResponse struct {
	Status   string         `json:"status"`
	Project  *escrowProject `json:"project"`
	Released string         `json:"released,omitempty"`
	Refunded string         `json:"refunded,omitempty"`
}

func escrowCmd(cc *cliContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "escrow",
		Short: "Propose, fund and verify escrowed climate projects",
	}
	cmd.AddCommand(
		escrowProposeCmd(cc),
		escrowFundCmd(cc),
		escrowVerifyCmd(cc),
		escrowShowCmd(cc),
		escrowListCmd(cc),
	)
	return cmd
}

func escrowProposeCmd(cc *cliContext) *cobra.Command {
	var beneficiary, verifier, initiative, metadata, goal string
	var deadline time.Duration

	cmd := &cobra.Command{
		Use:     "propose",
		Short:   "Propose a project that holds funds until a verifier releases them",
		Example: `  carbonchain escrow propose --beneficiary coop-7 --verifier auditor-1 --initiative "Mangrove restoration" --goal 10 --deadline 720h`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"beneficiary_id": beneficiary,
				"verifier_id":    verifier,
				"initiative":     initiative,
				"metadata_uri":   metadata,
			}
			if goal != "" {
				body["goal"] = goal
			}
			if deadline > 0 {
				body["deadline"] = time.Now().Add(deadline).Unix()
			}
			return cc.escrowCall(cmd, "/escrow/propose", body)
		},
	}
	cmd.Flags().StringVar(&beneficiary, "beneficiary", "", "beneficiary id (required)")
	cmd.Flags().StringVar(&verifier, "verifier", "", "verifier id (required)")
	cmd.Flags().StringVar(&initiative, "initiative", "", "initiative description")
	cmd.Flags().StringVar(&metadata, "metadata", "", "metadata URI")
	cmd.Flags().StringVar(&goal, "goal", "", "funding goal in ETH")
	cmd.Flags().DurationVar(&deadline, "deadline", 0, "time until the project can be cancelled as expired")
	_ = cmd.MarkFlagRequired("beneficiary")
	_ = cmd.MarkFlagRequired("verifier")
	return cmd
}

func escrowFundCmd(cc *cliContext) *cobra.Command {
	var amount string

	cmd := &cobra.Command{
		Use:   "fund <project-id>",
		Short: "Contribute ETH to a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return cc.escrowCall(cmd, "/escrow/fund", map[string]any{"project_id": id, "amount": amount})
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "amount in ETH (required)")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func escrowVerifyCmd(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <project-id>",
		Short: "Verify a project and release its funds to the beneficiary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return cc.escrowCall(cmd, "/escrow/verify", map[string]any{"project_id": id})
		},
	}
}

func escrowShowCmd(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project and its contributors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			var res escrowResponse
			if err := cc.api.get(cmd.Context(), fmt.Sprintf("/escrow/projects/%d", id), nil, &res); err != nil {
				return err
			}
			return cc.print(cmd, res, func(w io.Writer) { writeProject(w, res) })
		},
	}
}

func escrowListCmd(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List escrow projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var res struct {
				Projects []*escrowProject `json:"projects"`
				Count    int              `json:"count"`
			}
			if err := cc.api.get(cmd.Context(), "/escrow/projects", nil, &res); err != nil {
				return err
			}
			return cc.print(cmd, res, func(w io.Writer) {
				fprintf(w, "%d project(s)\n", res.Count)
				for _, p := range res.Projects {
					fprintf(w, "#%-4d %-10s %s/%s ETH  %s\n", p.ID, p.StateName, p.TotalContributed, p.Goal, p.Initiative)
				}
			})
		},
	}
}

func (cc *cliContext) escrowCall(cmd *cobra.Command, path string, body any) error {
	var res escrowResponse
	if err := cc.api.post(cmd.Context(), path, body, &res); err != nil {
		return err
	}
	return cc.print(cmd, res, func(w io.Writer) { writeProject(w, res) })
}

func writeProject(w io.Writer, res escrowResponse) {
	p := res.Project
	if p == nil {
		return
	}
	fprintf(w, "project #%d %s (%s)\n", p.ID, p.Initiative, p.StateName)
	fprintf(w, "raised %s of %s ETH, released %s ETH\n", p.TotalContributed, p.Goal, p.Released)
	if p.Deadline != nil {
		fprintf(w, "deadline %s\n", p.Deadline.Local().Format(time.RFC3339))
	}
	for _, c := range p.Contributors {
		note := ""
		if c.Refunded {
			note = " (refunded)"
		}
		fprintf(w, "  %-24s %s ETH%s\n", c.Address, c.Amount, note)
	}
	if res.Released != "" {
		fprintf(w, "released %s ETH to %s\n", res.Released, p.Beneficiary)
	}
	if res.Refunded != "" {
		fprintf(w, "refunded %s ETH\n", res.Refunded)
	}
}

func parseProjectID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("project id must be a positive integer, got %q", s)
	}
	return id, nil
}
