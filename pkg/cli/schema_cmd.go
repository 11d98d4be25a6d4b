package cli

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type schemaResponse struct {
	Tables []struct {
		Name    string `json:"name"`
		Columns []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"columns"`
	} `json:"tables"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
}

func newSchemaCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show the cached database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp schemaResponse
			if err := client.DoJSON(http.MethodGet, "/schema", nil, nil, &resp); err != nil {
				return err
			}
			return printSchema(cmd, resp)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Reload the schema cache from SQL Server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp schemaResponse
			if err := client.DoJSON(http.MethodPost, "/schema/refresh", nil, nil, &resp); err != nil {
				return err
			}
			return printSchema(cmd, resp)
		},
	})

	return cmd
}

func printSchema(cmd *cobra.Command, resp schemaResponse) error {
	if getOutputFormat(cmd) == "json" {
		return printJSON(os.Stdout, resp)
	}
	for _, t := range resp.Tables {
		fmt.Fprintln(os.Stdout, t.Name)
		for _, c := range t.Columns {
			fmt.Fprintf(os.Stdout, "  %s %s\n", c.Name, c.Type)
		}
	}
	if resp.LoadedAt != nil {
		fmt.Fprintf(os.Stdout, "(loaded %s)\n", resp.LoadedAt.Format(time.RFC3339))
	}
	return nil
}
