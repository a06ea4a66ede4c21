package store

import (
	"fmt"
	"strings"

	"github.com/roach88/drawseq/internal/ir"
)

// predicate is a WHERE condition over journal columns. Only types in this
// file implement it.
type predicate interface {
	predicateNode()
}

// equals matches column = value.
type equals struct {
	column string
	value  ir.IRValue
}

// notEquals matches column != value.
type notEquals struct {
	column string
	value  ir.IRValue
}

// atLeast matches column >= value.
type atLeast struct {
	column string
	value  ir.IRValue
}

// and matches when every predicate matches. An empty and matches all rows.
type and []predicate

func (equals) predicateNode()    {}
func (notEquals) predicateNode() {}
func (atLeast) predicateNode()   {}
func (and) predicateNode()       {}

// selectQuery is a parameterized SELECT over one table. Values are never
// interpolated into the SQL text, and orderBy is required so that result
// order never depends on SQLite's access path.
type selectQuery struct {
	columns string
	from    string
	where   predicate
	orderBy string
	limit   int
}

func (q selectQuery) compile() (string, []any, error) {
	if q.orderBy == "" {
		return "", nil, fmt.Errorf("query on %s has no ORDER BY", q.from)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", q.columns, q.from)

	var params []any
	if q.where != nil {
		cond, p, err := compilePredicate(q.where)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		if cond != "" {
			b.WriteString(" WHERE " + cond)
			params = p
		}
	}

	b.WriteString(" ORDER BY " + q.orderBy)
	if q.limit > 0 {
		b.WriteString(" LIMIT ?")
		params = append(params, q.limit)
	}
	return b.String(), params, nil
}

// compilePredicate returns the SQL fragment and its parameters. An empty
// fragment means no condition.
func compilePredicate(p predicate) (string, []any, error) {
	switch pred := p.(type) {
	case equals:
		return compareTo(pred.column, "=", pred.value)
	case notEquals:
		return compareTo(pred.column, "!=", pred.value)
	case atLeast:
		return compareTo(pred.column, ">=", pred.value)
	case and:
		var (
			parts  []string
			params []any
		)
		for _, sub := range pred {
			cond, p, err := compilePredicate(sub)
			if err != nil {
				return "", nil, err
			}
			if cond == "" {
				continue
			}
			parts = append(parts, cond)
			params = append(params, p...)
		}
		return strings.Join(parts, " AND "), params, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compareTo(column, op string, v ir.IRValue) (string, []any, error) {
	param, err := sqlParam(v)
	if err != nil {
		return "", nil, fmt.Errorf("column %s: %w", column, err)
	}
	return fmt.Sprintf("%s %s ?", column, op), []any{param}, nil
}

// sqlParam converts a scalar IR value to a database/sql parameter.
func sqlParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRFloat:
		return float64(val), nil
	case ir.IRBool:
		return bool(val), nil
	default:
		return nil, fmt.Errorf("%T cannot be used as a SQL parameter", v)
	}
}

// batchQuery translates a BatchFilter into a query over batches.
func batchQuery(f BatchFilter) selectQuery {
	var where and
	if f.Session != "" {
		where = append(where, equals{"session", ir.IRString(f.Session)})
	}
	if f.Target != "" {
		where = append(where, equals{"target", ir.IRString(f.Target)})
	}
	if f.FromSeq > 0 {
		where = append(where, atLeast{"seq", ir.IRInt(f.FromSeq)})
	}
	if f.FailedOnly {
		where = append(where, notEquals{"error", ir.IRString("")})
	}
	return selectQuery{
		columns: batchColumns,
		from:    "batches",
		where:   where,
		orderBy: "seq ASC, session COLLATE BINARY ASC",
		limit:   f.Limit,
	}
}
