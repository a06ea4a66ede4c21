package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/drawseq/internal/ir"
)

func TestBatchQuery_Compile(t *testing.T) {
	tests := []struct {
		name       string
		filter     BatchFilter
		wantWhere  string
		wantParams []any
	}{
		{"no filter", BatchFilter{}, "", nil},
		{"session", BatchFilter{Session: "a"}, " WHERE session = ?", []any{"a"}},
		{
			"everything",
			BatchFilter{Session: "a", Target: "canvas-1", FromSeq: 3, FailedOnly: true, Limit: 5},
			" WHERE session = ? AND target = ? AND seq >= ? AND error != ?",
			[]any{"a", "canvas-1", int64(3), "", 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := batchQuery(tt.filter).compile()
			require.NoError(t, err)

			want := "SELECT " + batchColumns + " FROM batches" + tt.wantWhere +
				" ORDER BY seq ASC, session COLLATE BINARY ASC"
			if tt.filter.Limit > 0 {
				want += " LIMIT ?"
			}
			assert.Equal(t, want, sql)
			assert.Equal(t, tt.wantParams, params)
		})
	}
}

func TestSelectQuery_RequiresOrderBy(t *testing.T) {
	_, _, err := selectQuery{columns: "*", from: "batches"}.compile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no ORDER BY")
}

func TestCompilePredicate_RejectsCompositeValues(t *testing.T) {
	_, _, err := compilePredicate(equals{"args", ir.IRArray{ir.IRInt(1)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "column args")
}

func TestCompilePredicate_NestedAnd(t *testing.T) {
	sql, params, err := compilePredicate(and{
		and{},
		equals{"seq", ir.IRInt(1)},
		and{notEquals{"target", ir.IRString("x")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "seq = ? AND target != ?", sql)
	assert.Equal(t, []any{int64(1), "x"}, params)
}

func TestListBatches_FailedAndFromSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	failed := createTestBatch("a", 2, "canvas-1", 1)
	failed.Error = "boom"
	for _, b := range []Batch{
		createTestBatch("a", 1, "canvas-1", 1),
		failed,
		createTestBatch("a", 3, "canvas-1", 1),
	} {
		_, err := s.WriteBatch(ctx, b)
		require.NoError(t, err)
	}

	onlyFailed, err := s.ListBatches(ctx, BatchFilter{FailedOnly: true})
	require.NoError(t, err)
	require.Len(t, onlyFailed, 1)
	assert.Equal(t, int64(2), onlyFailed[0].Seq)
	assert.True(t, onlyFailed[0].Failed())

	later, err := s.ListBatches(ctx, BatchFilter{Session: "a", FromSeq: 2})
	require.NoError(t, err)
	require.Len(t, later, 2)
	assert.Equal(t, int64(2), later[0].Seq)
	assert.Equal(t, int64(3), later[1].Seq)
}
