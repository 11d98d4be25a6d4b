package cli

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd(client *Client) *cobra.Command {
	var showSQL bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question in natural language",
		Long:  "Translate a natural language question into SQL with the configured model and run it. The server only executes SELECT statements.",
		Example: `  sqlagent ask "how many orders shipped last month?"
  sqlagent ask --show-sql "top 5 customers by revenue"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")

			var result queryResult
			if err := client.DoJSON(http.MethodPost, "/ask", nil, map[string]string{"question": question}, &result); err != nil {
				return err
			}
			if showSQL && getOutputFormat(cmd) != "json" {
				fmt.Fprintf(os.Stderr, "-- %s\n", result.SQL)
			}
			return printQueryResult(cmd, result)
		},
	}

	cmd.Flags().BoolVar(&showSQL, "show-sql", false, "Print the generated SQL to stderr")
	return cmd
}
