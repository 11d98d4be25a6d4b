package sqlcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Classify tests ---

func TestClassify_Select(t *testing.T) {
	st, err := Classify("SELECT TOP 5 * FROM Sales.Orders")
	require.NoError(t, err)
	assert.Equal(t, StmtSelect, st)
}

func TestClassify_CaseInsensitive(t *testing.T) {
	st, err := Classify("select 1")
	require.NoError(t, err)
	assert.Equal(t, StmtSelect, st)
}

func TestClassify_Insert(t *testing.T) {
	st, err := Classify("INSERT INTO t (a) VALUES (1)")
	require.NoError(t, err)
	assert.Equal(t, StmtInsert, st)
}

func TestClassify_Update(t *testing.T) {
	st, err := Classify("UPDATE t SET a = 1")
	require.NoError(t, err)
	assert.Equal(t, StmtUpdate, st)
}

func TestClassify_Delete(t *testing.T) {
	st, err := Classify("DELETE FROM t WHERE a = 1")
	require.NoError(t, err)
	assert.Equal(t, StmtDelete, st)
}

func TestClassify_DDL(t *testing.T) {
	for _, sql := range []string{
		"CREATE TABLE t (a INT)",
		"DROP TABLE t",
		"ALTER TABLE t ADD b INT",
		"TRUNCATE TABLE t",
	} {
		st, err := Classify(sql)
		require.NoError(t, err, sql)
		assert.Equal(t, StmtDDL, st, sql)
	}
}

func TestClassify_CTESelect(t *testing.T) {
	st, err := Classify("WITH recent AS (SELECT * FROM Sales.Orders) SELECT * FROM recent")
	require.NoError(t, err)
	assert.Equal(t, StmtSelect, st)
}

func TestClassify_CTEDelete(t *testing.T) {
	st, err := Classify("WITH doomed AS (SELECT id FROM t) DELETE FROM t WHERE id IN (SELECT id FROM doomed)")
	require.NoError(t, err)
	assert.Equal(t, StmtDelete, st)
}

func TestClassify_Empty(t *testing.T) {
	_, err := Classify("   ")
	assert.Error(t, err)
}

func TestClassify_CommentOnly(t *testing.T) {
	_, err := Classify("-- nothing here\n/* still nothing */")
	assert.Error(t, err)
}

func TestClassify_MultiStatement(t *testing.T) {
	_, err := Classify("SELECT 1; DROP TABLE foo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple statements")
}

func TestClassify_TrailingSemicolonOK(t *testing.T) {
	st, err := Classify("SELECT 1;")
	require.NoError(t, err)
	assert.Equal(t, StmtSelect, st)
}

func TestClassify_TrailingSemicolonAndCommentOK(t *testing.T) {
	st, err := Classify("SELECT 1; -- done")
	require.NoError(t, err)
	assert.Equal(t, StmtSelect, st)
}

func TestClassify_SemicolonThenLiteral(t *testing.T) {
	_, err := Classify("SELECT 1; 'sneaky'")
	assert.Error(t, err)
}

// --- EnsureReadOnly tests ---

func TestEnsureReadOnly_Select(t *testing.T) {
	assert.NoError(t, EnsureReadOnly("SELECT OrderID, CustomerID FROM Sales.Orders ORDER BY OrderDate DESC"))
}

func TestEnsureReadOnly_RejectsInsert(t *testing.T) {
	err := EnsureReadOnly("INSERT INTO t VALUES (1)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only SELECT")
}

func TestEnsureReadOnly_RejectsDDL(t *testing.T) {
	err := EnsureReadOnly("DROP TABLE Sales.Orders")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only SELECT")
}

func TestEnsureReadOnly_RejectsEmbeddedExec(t *testing.T) {
	err := EnsureReadOnly("SELECT 1 WHERE EXISTS (SELECT 1) EXEC xp_cmdshell")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EXEC")
}

func TestEnsureReadOnly_KeywordInsideLiteralOK(t *testing.T) {
	// "DROP" inside a string literal is data, not a statement.
	assert.NoError(t, EnsureReadOnly("SELECT * FROM Logs WHERE Message = 'user ran DROP TABLE'"))
}

func TestEnsureReadOnly_KeywordInsideBracketedIdentifierOK(t *testing.T) {
	assert.NoError(t, EnsureReadOnly("SELECT [Update Count] FROM Stats"))
}

func TestEnsureReadOnly_KeywordInsideCommentOK(t *testing.T) {
	assert.NoError(t, EnsureReadOnly("SELECT 1 -- do not DELETE this"))
}

func TestEnsureReadOnly_EscapedQuoteInLiteral(t *testing.T) {
	assert.NoError(t, EnsureReadOnly("SELECT * FROM People WHERE Name = 'O''Brien'"))
}

func TestEnsureReadOnly_RejectsCTEWrappedDelete(t *testing.T) {
	err := EnsureReadOnly("WITH doomed AS (SELECT id FROM t) DELETE FROM t WHERE id IN (SELECT id FROM doomed)")
	assert.Error(t, err)
}

func TestEnsureReadOnly_UnterminatedLiteral(t *testing.T) {
	assert.Error(t, EnsureReadOnly("SELECT 'oops"))
}
