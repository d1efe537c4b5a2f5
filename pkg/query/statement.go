package query

import (
	"ipif/pkg/solr"
)

// Statement filter combination modes. "and" and "or" require a single
// embedded statement to satisfy the combined filters; "independent" lets
// each filter be satisfied by a different statement of the same parent.
// Absent or unrecognized modes fall back to independent.
const (
	CombineAnd         = "and"
	CombineOr          = "or"
	CombineIndependent = "independent"
)

// StatementFilters carries the statement-content filter parameters shared
// by all list endpoints.
type StatementFilters struct {
	StatementType    string
	StatementText    string
	RelatesToPersons string
	MemberOf         string
	Role             string
	Name             string
	From             string
	To               string
	Place            string
	Combine          string
}

// ParseStatementFilters reads the statement filter parameters.
func ParseStatementFilters(get func(string) string) (StatementFilters, error) {
	f := StatementFilters{
		StatementType:    get("statementType"),
		StatementText:    get("statementText"),
		RelatesToPersons: get("relatesToPersons"),
		MemberOf:         get("memberOf"),
		Role:             get("role"),
		Name:             get("name"),
		From:             get("from"),
		To:               get("to"),
		Place:            get("place"),
		Combine:          get("combineStatementFilters"),
	}
	switch f.Combine {
	case CombineAnd, CombineOr:
	default:
		f.Combine = CombineIndependent
	}
	return f, nil
}

// subExprs renders each present filter as one expression against the
// fields of a statement.
func (f StatementFilters) subExprs() ([]solr.Expr, error) {
	var subs []solr.Expr

	if f.StatementType != "" {
		subs = append(subs, solr.Or(
			solr.Eq("statementType__uri", f.StatementType),
			solr.Eq("statementType__label", f.StatementType),
		))
	}
	if f.StatementText != "" {
		subs = append(subs, solr.Eq("statementText", f.StatementText))
	}
	if f.RelatesToPersons != "" {
		subs = append(subs, solr.Or(
			solr.Eq("relatesToPersons__id", f.RelatesToPersons),
			solr.Eq("relatesToPersons__uris", f.RelatesToPersons),
			solr.Eq("relatesToPersons__label", f.RelatesToPersons),
		))
	}
	if f.MemberOf != "" {
		subs = append(subs, solr.Or(
			solr.Eq("memberOf__uri", f.MemberOf),
			solr.Eq("memberOf__label", f.MemberOf),
		))
	}
	if f.Role != "" {
		subs = append(subs, solr.Or(
			solr.Eq("role__uri", f.Role),
			solr.Eq("role__label", f.Role),
		))
	}
	if f.Name != "" {
		subs = append(subs, solr.Eq("name", f.Name))
	}
	if f.From != "" || f.To != "" {
		from, err := ParseDateBound("from", f.From, false)
		if err != nil {
			return nil, err
		}
		to, err := ParseDateBound("to", f.To, true)
		if err != nil {
			return nil, err
		}
		subs = append(subs, solr.Raw("date__sortdate_dt:["+from+" TO "+to+"]"))
	}
	if f.Place != "" {
		subs = append(subs, solr.Or(
			solr.Eq("places__uris", f.Place),
			solr.Eq("places__label", f.Place),
		))
	}
	return subs, nil
}

// ChildClauses renders the statement filters as block-join clauses against
// the statement children stored under the given field of the given parent
// type. The combination mode decides whether one child must satisfy
// everything or each filter may pick its own child.
func (f StatementFilters) ChildClauses(parentType, field string) ([]solr.Expr, error) {
	subs, err := f.subExprs()
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, nil
	}
	switch f.Combine {
	case CombineAnd:
		return []solr.Expr{solr.Child(parentType, field, solr.And(subs...))}, nil
	case CombineOr:
		return []solr.Expr{solr.Child(parentType, field, solr.Or(subs...))}, nil
	default:
		clauses := make([]solr.Expr, 0, len(subs))
		for _, sub := range subs {
			clauses = append(clauses, solr.Child(parentType, field, sub))
		}
		return clauses, nil
	}
}

// TopClauses renders the statement filters directly against statement
// documents. The or mode collapses into one disjunction; and and
// independent are equivalent on a flat document.
func (f StatementFilters) TopClauses() ([]solr.Expr, error) {
	subs, err := f.subExprs()
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, nil
	}
	if f.Combine == CombineOr {
		return []solr.Expr{solr.Or(subs...)}, nil
	}
	return subs, nil
}
