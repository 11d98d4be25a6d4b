// Package sqlcheck classifies T-SQL statements before they reach SQL Server.
//
// The gateway only ever forwards single SELECT statements. Classification is
// lexical: comments, string literals, and bracketed identifiers are skipped,
// so a keyword inside a literal does not trip the guard, while a piggy-backed
// second statement ("SELECT 1; DROP TABLE foo") does.
package sqlcheck

import (
	"fmt"
	"strings"
	"unicode"
)

// StatementType identifies the kind of SQL statement.
type StatementType int

// SQL statement types identified during query classification.
const (
	StmtSelect StatementType = iota
	StmtInsert
	StmtUpdate
	StmtDelete
	StmtDDL
	StmtOther
)

func (t StatementType) String() string {
	switch t {
	case StmtSelect:
		return "SELECT"
	case StmtInsert:
		return "INSERT"
	case StmtUpdate:
		return "UPDATE"
	case StmtDelete:
		return "DELETE"
	case StmtDDL:
		return "DDL"
	default:
		return "OTHER"
	}
}

// ddlKeywords start a DDL statement.
var ddlKeywords = map[string]bool{
	"create": true, "alter": true, "drop": true, "truncate": true,
}

// deniedKeywords may never appear anywhere in a statement accepted by the
// read-only guard, mirroring the mutation deny list of the assist prompt.
var deniedKeywords = map[string]bool{
	"insert": true, "update": true, "delete": true, "merge": true,
	"create": true, "alter": true, "drop": true, "truncate": true,
	"grant": true, "revoke": true, "exec": true, "execute": true,
}

// token is a word lexeme with its paren nesting depth.
type token struct {
	text  string // lowercased
	depth int
}

// Classify determines the statement type of a single SQL statement.
// It rejects empty input and multi-statement input.
func Classify(sql string) (StatementType, error) {
	toks, err := lex(sql)
	if err != nil {
		return StmtOther, err
	}
	if len(toks) == 0 {
		return StmtOther, fmt.Errorf("empty statement")
	}

	first := toks[0].text
	switch first {
	case "select":
		return StmtSelect, nil
	case "insert":
		return StmtInsert, nil
	case "update":
		return StmtUpdate, nil
	case "delete":
		return StmtDelete, nil
	case "with":
		// CTE: the statement type is the first DML keyword at depth 0
		// after the WITH clause.
		for _, tok := range toks[1:] {
			if tok.depth != 0 {
				continue
			}
			switch tok.text {
			case "select":
				return StmtSelect, nil
			case "insert":
				return StmtInsert, nil
			case "update":
				return StmtUpdate, nil
			case "delete":
				return StmtDelete, nil
			}
		}
		return StmtOther, nil
	}
	if ddlKeywords[first] {
		return StmtDDL, nil
	}
	return StmtOther, nil
}

// EnsureReadOnly verifies that sql is a single SELECT statement containing
// no mutating keyword. Returns nil when the statement may be executed.
func EnsureReadOnly(sql string) error {
	stmtType, err := Classify(sql)
	if err != nil {
		return err
	}
	if stmtType != StmtSelect {
		return fmt.Errorf("only SELECT statements are allowed, got %s", stmtType)
	}

	toks, _ := lex(sql)
	for _, tok := range toks {
		if deniedKeywords[tok.text] {
			return fmt.Errorf("prohibited keyword: %s", strings.ToUpper(tok.text))
		}
	}
	return nil
}

// lex splits sql into word tokens, skipping comments, string literals,
// quoted identifiers, and bracketed identifiers. A statement separator (;)
// followed by anything other than whitespace or comments is an error.
func lex(sql string) ([]token, error) {
	var toks []token
	depth := 0
	sawContent := false   // any non-comment lexeme seen
	sawSeparator := false // a ';' seen after content

	runes := []rune(sql)
	i := 0
	for i < len(runes) {
		c := runes[i]

		// Whitespace and comments never terminate or start a statement.
		if unicode.IsSpace(c) {
			i++
			continue
		}
		if c == '-' && i+1 < len(runes) && runes[i+1] == '-' {
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			continue
		}
		if c == '/' && i+1 < len(runes) && runes[i+1] == '*' {
			i += 2
			for i+1 < len(runes) && !(runes[i] == '*' && runes[i+1] == '/') {
				i++
			}
			if i+1 >= len(runes) {
				return nil, fmt.Errorf("unterminated block comment")
			}
			i += 2
			continue
		}
		if c == ';' {
			if sawContent {
				sawSeparator = true
			}
			i++
			continue
		}

		// Anything else is statement content.
		if sawSeparator {
			return nil, fmt.Errorf("multiple statements are not allowed")
		}
		sawContent = true

		switch {
		case c == '\'':
			// string literal, '' escapes a quote
			i++
			for i < len(runes) {
				if runes[i] == '\'' {
					if i+1 < len(runes) && runes[i+1] == '\'' {
						i += 2
						continue
					}
					break
				}
				i++
			}
			if i >= len(runes) {
				return nil, fmt.Errorf("unterminated string literal")
			}
			i++
		case c == '"':
			// quoted identifier
			i++
			for i < len(runes) && runes[i] != '"' {
				i++
			}
			if i >= len(runes) {
				return nil, fmt.Errorf("unterminated quoted identifier")
			}
			i++
		case c == '[':
			// bracketed identifier (T-SQL)
			i++
			for i < len(runes) && runes[i] != ']' {
				i++
			}
			if i >= len(runes) {
				return nil, fmt.Errorf("unterminated bracketed identifier")
			}
			i++
		case c == '(':
			depth++
			i++
		case c == ')':
			if depth > 0 {
				depth--
			}
			i++
		case unicode.IsLetter(c) || c == '_' || c == '@' || c == '#':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_' || runes[i] == '@' || runes[i] == '#' || runes[i] == '$') {
				i++
			}
			toks = append(toks, token{text: strings.ToLower(string(runes[start:i])), depth: depth})
		default:
			i++
		}
	}
	return toks, nil
}
