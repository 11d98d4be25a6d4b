package cli

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// queryResult mirrors the gateway's query response.
type queryResult struct {
	SQL       string          `json:"sql,omitempty"`
	Columns   []string        `json:"columns"`
	Rows      [][]interface{} `json:"rows"`
	RowCount  int             `json:"row_count"`
	Truncated bool            `json:"truncated"`
}

func newQueryCmd(client *Client) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "query [sql]",
		Short: "Execute a SELECT statement",
		Long:  "Execute a single SELECT statement against the SQL Server backend. Mutating statements are rejected by the gateway.",
		Example: `  sqlagent query "SELECT TOP 10 * FROM Sales.Orders"
  sqlagent query --file report.sql
  cat report.sql | sqlagent query -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sqlText, err := readSQLInput(args, file)
			if err != nil {
				return err
			}

			var result queryResult
			if err := client.DoJSON(http.MethodPost, "/query", nil, map[string]string{"sql": sqlText}, &result); err != nil {
				return err
			}
			return printQueryResult(cmd, result)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the statement from a file")
	return cmd
}

// readSQLInput resolves the statement from an argument, a file, or stdin
// ("-" as the argument).
func readSQLInput(args []string, file string) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file) //nolint:gosec // user-supplied path
		if err != nil {
			return "", fmt.Errorf("read %s: %w", file, err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return "", fmt.Errorf("provide a statement as an argument, via --file, or on stdin with '-'")
}

func printQueryResult(cmd *cobra.Command, result queryResult) error {
	switch getOutputFormat(cmd) {
	case "json":
		return printJSON(os.Stdout, result)
	case "csv":
		return printCSV(os.Stdout, result.Columns, result.Rows)
	default:
		if err := printTable(os.Stdout, result.Columns, result.Rows); err != nil {
			return err
		}
		if !isQuiet(cmd) {
			fmt.Fprintf(os.Stdout, "(%d rows)\n", result.RowCount)
		}
		if result.Truncated {
			fmt.Fprintln(os.Stderr, "warning: result set was truncated by the server row cap")
		}
		return nil
	}
}
