package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

const defaultAPI = "http://localhost:8000"

// cliContext is shared by every subcommand through closures.
type cliContext struct {
	api        *apiClient
	jsonOutput bool
}

func newRootCmd() *cobra.Command {
	cc := &cliContext{}
	var apiURL, userID, token string

	cmd := &cobra.Command{
		Use:           "carbonchain",
		Short:         "Operate a carbonchain API from the terminal",
		Long:          `carbonchain searches carbon projects, quotes and buys credits, and manages escrow projects against a running API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cc.api = newAPIClient(apiURL, userID, token)
		},
	}

	apiDefault := os.Getenv("CARBONCHAIN_API")
	if apiDefault == "" {
		apiDefault = defaultAPI
	}
	cmd.PersistentFlags().StringVar(&apiURL, "api", apiDefault, "API base URL (env CARBONCHAIN_API)")
	cmd.PersistentFlags().StringVar(&userID, "user", os.Getenv("CARBONCHAIN_USER"), "user id sent as X-User-Id (dev mode)")
	cmd.PersistentFlags().StringVar(&token, "token", os.Getenv("CARBONCHAIN_TOKEN"), "bearer token")
	cmd.PersistentFlags().BoolVar(&cc.jsonOutput, "json", false, "print raw JSON responses")

	cmd.AddCommand(projectsCmd(cc))
	cmd.AddCommand(quoteCmd(cc))
	cmd.AddCommand(purchaseCmd(cc))
	cmd.AddCommand(escrowCmd(cc))

	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (cc *cliContext) print(cmd *cobra.Command, v any, human func(io.Writer)) error {
	if cc.jsonOutput || human == nil {
		return printJSON(cmd.OutOrStdout(), v)
	}
	human(cmd.OutOrStdout())
	return nil
}

func fprintf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
