package cli

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newAPIKeysCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikeys",
		Short: "Manage API keys",
	}

	cmd.AddCommand(newAPIKeysCreateCmd(client))
	cmd.AddCommand(newAPIKeysListCmd(client))
	cmd.AddCommand(newAPIKeysDeleteCmd(client))

	return cmd
}

func newAPIKeysCreateCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "create <principal>",
		Short: "Create an API key for a principal",
		Long:  "Create an API key for a service principal. The key is printed once and cannot be recovered later.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				ID            string    `json:"id"`
				PrincipalName string    `json:"principal_name"`
				Key           string    `json:"key"`
				CreatedAt     time.Time `json:"created_at"`
			}
			body := map[string]string{"principal_name": args[0]}
			if err := client.DoJSON(http.MethodPost, "/apikeys", nil, body, &resp); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, resp)
			}
			fmt.Fprintf(os.Stdout, "id:  %s\nkey: %s\n", resp.ID, resp.Key)
			fmt.Fprintln(os.Stderr, "store this key now: it will not be shown again")
			return nil
		},
	}
}

func newAPIKeysListCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp struct {
				Keys []struct {
					ID            string    `json:"id"`
					PrincipalName string    `json:"principal_name"`
					CreatedAt     time.Time `json:"created_at"`
				} `json:"keys"`
			}
			if err := client.DoJSON(http.MethodGet, "/apikeys", nil, nil, &resp); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, resp)
			}
			rows := make([][]interface{}, 0, len(resp.Keys))
			for _, k := range resp.Keys {
				rows = append(rows, []interface{}{k.ID, k.PrincipalName, k.CreatedAt.Format(time.RFC3339)})
			}
			return printTable(os.Stdout, []string{"id", "principal", "created_at"}, rows)
		},
	}
}

func newAPIKeysDeleteCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.DoJSON(http.MethodDelete, "/apikeys/"+args[0], nil, nil, nil); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, map[string]string{"status": "deleted", "id": args[0]})
			}
			fmt.Fprintf(os.Stdout, "deleted %s\n", args[0])
			return nil
		},
	}
}
