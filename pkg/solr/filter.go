package solr

import "strings"

// Expr is a boolean filter expression that renders to Solr query syntax.
// Expressions are built by the query layer and passed to Search as filter
// clauses.
type Expr interface {
	Render() string
}

type rawExpr string

// Raw wraps an already-rendered Solr query fragment.
func Raw(query string) Expr {
	return rawExpr(query)
}

func (e rawExpr) Render() string {
	return string(e)
}

type eqExpr struct {
	field string
	value string
}

// Eq matches documents whose field equals the given value. The value is
// quoted as a phrase, so the index schema decides exact vs. analyzed
// matching per field.
func Eq(field, value string) Expr {
	return eqExpr{field: field, value: value}
}

func (e eqExpr) Render() string {
	return e.field + ":" + quote(e.value)
}

type rangeExpr struct {
	field string
	from  string
	to    string
}

// Range matches documents whose field lies in the inclusive range
// [from, to]. Open bounds are expressed with "*".
func Range(field, from, to string) Expr {
	return rangeExpr{field: field, from: from, to: to}
}

func (e rangeExpr) Render() string {
	return e.field + ":[" + rangeBound(e.from) + " TO " + rangeBound(e.to) + "]"
}

func rangeBound(v string) string {
	if v == "" || v == "*" {
		return "*"
	}
	return quote(v)
}

type boolExpr struct {
	op    string
	exprs []Expr
}

// And conjoins the given expressions. Nil entries are skipped; a single
// remaining expression is returned as-is.
func And(exprs ...Expr) Expr {
	return newBool("AND", exprs)
}

// Or disjoins the given expressions. Nil entries are skipped; a single
// remaining expression is returned as-is.
func Or(exprs ...Expr) Expr {
	return newBool("OR", exprs)
}

func newBool(op string, exprs []Expr) Expr {
	kept := make([]Expr, 0, len(exprs))
	for _, e := range exprs {
		if e != nil {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	if len(kept) == 1 {
		return kept[0]
	}
	return boolExpr{op: op, exprs: kept}
}

func (e boolExpr) Render() string {
	parts := make([]string, len(e.exprs))
	for i, sub := range e.exprs {
		parts[i] = sub.Render()
	}
	return "(" + strings.Join(parts, " "+e.op+" ") + ")"
}

type childExpr struct {
	parentType string
	field      string
	inner      Expr
}

// Child scopes inner to a single embedded child document stored under the
// named field of a parent of the given document type. The resulting
// block-join clause is satisfied only if one child matches inner in full;
// applying several Child clauses separately lets each be satisfied by a
// different child.
func Child(parentType, field string, inner Expr) Expr {
	return childExpr{parentType: parentType, field: field, inner: inner}
}

func (e childExpr) Render() string {
	var b strings.Builder
	b.WriteString("{!parent which='doc_type:")
	b.WriteString(e.parentType)
	b.WriteString("'}(+child_field:")
	b.WriteString(e.field)
	b.WriteString(" +(")
	b.WriteString(e.inner.Render())
	b.WriteString("))")
	return b.String()
}

// quote renders a value as a Solr phrase, escaping backslash and quote.
func quote(v string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(v); i++ {
		switch v[i] {
		case '"', '\\':
			b.WriteByte('\\')
		}
		b.WriteByte(v[i])
	}
	b.WriteByte('"')
	return b.String()
}
