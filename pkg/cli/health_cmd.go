package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newHealthCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check gateway health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp struct {
				Status string `json:"status"`
				Pool   *struct {
					Active int `json:"active"`
					Idle   int `json:"idle"`
				} `json:"pool,omitempty"`
			}
			if err := client.Healthz(&resp); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, resp)
			}
			fmt.Fprintf(os.Stdout, "status: %s\n", resp.Status)
			if resp.Pool != nil {
				fmt.Fprintf(os.Stdout, "pool:   %d active, %d idle\n", resp.Pool.Active, resp.Pool.Idle)
			}
			return nil
		},
	}
}
