package cli

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

type historyResponse struct {
	Entries []struct {
		ID            string    `json:"id"`
		PrincipalName string    `json:"principal_name"`
		Question      *string   `json:"question,omitempty"`
		SQL           string    `json:"sql"`
		Status        string    `json:"status"`
		DurationMs    *int64    `json:"duration_ms,omitempty"`
		RowsReturned  *int64    `json:"rows_returned,omitempty"`
		CreatedAt     time.Time `json:"created_at"`
	} `json:"entries"`
	TotalCount    int64  `json:"total_count"`
	NextPageToken string `json:"next_page_token,omitempty"`
}

func newHistoryCmd(client *Client) *cobra.Command {
	var (
		principal  string
		status     string
		maxResults int
		pageToken  string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded query executions",
		Example: `  sqlagent history
  sqlagent history --status DENIED
  sqlagent history --principal alice --max-results 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := url.Values{}
			if principal != "" {
				q.Set("principal", principal)
			}
			if status != "" {
				q.Set("status", status)
			}
			if maxResults > 0 {
				q.Set("max_results", strconv.Itoa(maxResults))
			}
			if pageToken != "" {
				q.Set("page_token", pageToken)
			}

			var resp historyResponse
			if err := client.DoJSON(http.MethodGet, "/history", q, nil, &resp); err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, resp)
			}

			columns := []string{"created_at", "principal", "status", "rows", "duration_ms", "sql"}
			rows := make([][]interface{}, 0, len(resp.Entries))
			for _, e := range resp.Entries {
				var rowCount, duration interface{}
				if e.RowsReturned != nil {
					rowCount = *e.RowsReturned
				}
				if e.DurationMs != nil {
					duration = *e.DurationMs
				}
				rows = append(rows, []interface{}{
					e.CreatedAt.Format(time.RFC3339), e.PrincipalName, e.Status, rowCount, duration, e.SQL,
				})
			}
			if err := printTable(os.Stdout, columns, rows); err != nil {
				return err
			}
			if !isQuiet(cmd) {
				fmt.Fprintf(os.Stdout, "(%d of %d entries)\n", len(resp.Entries), resp.TotalCount)
				if resp.NextPageToken != "" {
					fmt.Fprintf(os.Stdout, "next page: --page-token %s\n", resp.NextPageToken)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&principal, "principal", "", "Filter by principal name")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (ALLOWED, DENIED, ERROR)")
	cmd.Flags().IntVar(&maxResults, "max-results", 0, "Page size")
	cmd.Flags().StringVar(&pageToken, "page-token", "", "Page token from a previous call")

	return cmd
}
