package domain

// QueryResult holds the structured output of a SQL query.
type QueryResult struct {
	Columns   []string
	Rows      [][]interface{}
	RowCount  int
	Truncated bool // true when the row cap cut off the result set
}
