package domain

// ColumnInfo describes a single column of a base table.
type ColumnInfo struct {
	Name string
	Type string
}

// TableInfo describes a base table with its schema-qualified name.
type TableInfo struct {
	Name    string // "Sales.Orders"
	Columns []ColumnInfo
}
