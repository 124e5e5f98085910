package main

import (
	"io"

	"github.com/spf13/cobra"

	orders "github.com/carbonchain/carbonchain-backend/internal/orders/domain"
	quotes "github.com/carbonchain/carbonchain-backend/internal/quotes/domain"
)

func quoteCmd(cc *cliContext) *cobra.Command {
	var req quotes.QuoteRequest

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Request a time-limited price quote",
		Example: `  carbonchain quote --project VCS-191 --quantity 2.5 --first-name Ada --last-name Lovelace
  carbonchain quote --project VCS-191 --usd 50 --first-name Ada --last-name Lovelace`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var res quotes.QuoteResponse
			if err := cc.api.post(cmd.Context(), "/get_quote", req, &res); err != nil {
				return err
			}
			return cc.print(cmd, res, func(w io.Writer) {
				fprintf(w, "quote %s expires %s\n", res.QuoteID, res.ExpiresAt.Local().Format("15:04:05"))
				fprintf(w, "%.2f t of %s for $%.2f\n", res.Quote.Quantity, res.Quote.ProjectName, res.Quote.TotalCost)
				if res.SupplierSelection.SupplyExceeded {
					fprintf(w, "note: capped at the listed supply\n")
				}
				for _, s := range res.SupplierSelection.SelectedSources {
					fprintf(w, "  %-20s %.2f t @ $%.2f = $%.2f\n", s.SourceID, s.Quantity, s.PricePerTon, s.TotalCost)
				}
				if res.SupplierSelection.CostExceedsExpected {
					fprintf(w, "note: cost exceeds the expected $%.2f\n", res.SupplierSelection.ExpectedCost)
				}
			})
		},
	}
	cmd.Flags().StringVar(&req.ProjectID, "project", "", "project id (required)")
	cmd.Flags().Float64Var(&req.Quantity, "quantity", 0, "tonnes to retire")
	cmd.Flags().Float64Var(&req.AmountUSD, "usd", 0, "spend in USD, converted to tonnes at the project price")
	cmd.Flags().BoolVar(&req.ClampToSupply, "clamp", false, "cap --quantity at the listed supply instead of failing")
	cmd.Flags().Float64Var(&req.TotalCost, "expected-cost", 0, "cost shown to the buyer, for drift detection")
	cmd.Flags().StringVar(&req.CertificateFirstName, "first-name", "", "certificate first name")
	cmd.Flags().StringVar(&req.CertificateLastName, "last-name", "", "certificate last name")
	cmd.Flags().StringVar(&req.RetirementMessage, "message", "", "retirement message")
	_ = cmd.MarkFlagRequired("project")
	cmd.MarkFlagsOneRequired("quantity", "usd")
	cmd.MarkFlagsMutuallyExclusive("quantity", "usd")
	return cmd
}

func purchaseCmd(cc *cliContext) *cobra.Command {
	var req quotes.PurchaseRequest

	cmd := &cobra.Command{
		Use:   "purchase <quote-id>",
		Short: "Complete a purchase against an open quote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.QuoteID = args[0]
			var receipt orders.Receipt
			if err := cc.api.post(cmd.Context(), "/purchase", req, &receipt); err != nil {
				return err
			}
			return cc.print(cmd, receipt, func(w io.Writer) {
				fprintf(w, "order %s %s\n", receipt.OrderID, receipt.Status)
				fprintf(w, "retired %.2f t for $%.2f on behalf of %s\n",
					receipt.Data.Quantity, receipt.Data.TotalPrice, receipt.Data.CertificateName)
				if receipt.CertificateURL != "" {
					fprintf(w, "certificate: %s\n", receipt.CertificateURL)
				}
			})
		},
	}
	cmd.Flags().StringVar(&req.CertificateFirstName, "first-name", "", "override certificate first name")
	cmd.Flags().StringVar(&req.CertificateLastName, "last-name", "", "override certificate last name")
	cmd.Flags().StringVar(&req.RetirementMessage, "message", "", "override retirement message")
	return cmd
}
