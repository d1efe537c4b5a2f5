package query

import (
	"ipif/pkg/index"
	"ipif/pkg/solr"
)

// ListQuery is the parsed form of one list request: its page window plus
// the filter clauses to pass to the core.
type ListQuery struct {
	Pagination Pagination
	Filters    []solr.Expr
}

// Full-search fields per document type.
var (
	personTextFields    = []string{"label", "uris", "createdBy", "modifiedBy"}
	sourceTextFields    = []string{"label", "uris", "createdBy", "modifiedBy"}
	factoidTextFields   = []string{"createdBy", "modifiedBy"}
	statementTextFields = []string{
		"statementText",
		"name",
		"statementType__label",
		"role__label",
		"memberOf__label",
		"places__label",
		"relatesToPersons__label",
	}
)

func textSearch(fields []string, value string) solr.Expr {
	exprs := make([]solr.Expr, 0, len(fields))
	for _, field := range fields {
		exprs = append(exprs, solr.Eq(field, value))
	}
	return solr.Or(exprs...)
}

func docTypeFilter(docType string) solr.Expr {
	return solr.Raw("doc_type:" + docType)
}

// PersonIDFilter matches a single person by its id or any of its
// registered URIs.
func PersonIDFilter(id string) solr.Expr {
	return solr.And(
		docTypeFilter(index.TypePerson),
		solr.Or(solr.Eq("doc_id", id), solr.Eq("uris", id)),
	)
}

// DocIDFilter matches a single document of the given type by id.
func DocIDFilter(docType, id string) solr.Expr {
	return solr.And(docTypeFilter(docType), solr.Eq("doc_id", id))
}

// Persons parses the parameters of a person list request.
func Persons(get func(string) string) (ListQuery, error) {
	pg, err := ParsePagination(get)
	if err != nil {
		return ListQuery{}, err
	}
	sf, err := ParseStatementFilters(get)
	if err != nil {
		return ListQuery{}, err
	}

	filters := []solr.Expr{docTypeFilter(index.TypePerson)}
	if v := get("factoidId"); v != "" {
		filters = append(filters, solr.Child(index.TypePerson, "F", solr.Eq("doc_id", v)))
	}
	if v := get("statementId"); v != "" {
		filters = append(filters, solr.Child(index.TypePerson, "ST", solr.Eq("doc_id", v)))
	}
	if v := get("sourceId"); v != "" {
		filters = append(filters, solr.Child(index.TypePerson, "S", solr.Eq("doc_id", v)))
	}
	if v := get("p"); v != "" {
		filters = append(filters, textSearch(personTextFields, v))
	}
	if v := get("f"); v != "" {
		filters = append(filters, solr.Child(index.TypePerson, "F", textSearch(factoidTextFields, v)))
	}
	if v := get("s"); v != "" {
		filters = append(filters, solr.Child(index.TypePerson, "S", textSearch(sourceTextFields, v)))
	}
	if v := get("st"); v != "" {
		filters = append(filters, solr.Child(index.TypePerson, "ST", textSearch(statementTextFields, v)))
	}
	clauses, err := sf.ChildClauses(index.TypePerson, "ST")
	if err != nil {
		return ListQuery{}, err
	}
	filters = append(filters, clauses...)

	return ListQuery{Pagination: pg, Filters: filters}, nil
}

// Factoids parses the parameters of a factoid list request. Statement
// filters run against the Statements children, which carry the full
// statement fields.
func Factoids(get func(string) string) (ListQuery, error) {
	pg, err := ParsePagination(get)
	if err != nil {
		return ListQuery{}, err
	}
	sf, err := ParseStatementFilters(get)
	if err != nil {
		return ListQuery{}, err
	}

	filters := []solr.Expr{docTypeFilter(index.TypeFactoid)}
	if v := get("personId"); v != "" {
		filters = append(filters, solr.Eq("personId", v))
	}
	if v := get("statementId"); v != "" {
		filters = append(filters, solr.Child(index.TypeFactoid, "Statements", solr.Eq("doc_id", v)))
	}
	if v := get("sourceId"); v != "" {
		filters = append(filters, solr.Child(index.TypeFactoid, "S", solr.Eq("doc_id", v)))
	}
	if v := get("p"); v != "" {
		filters = append(filters, solr.Child(index.TypeFactoid, "Person", textSearch(personTextFields, v)))
	}
	if v := get("f"); v != "" {
		filters = append(filters, textSearch(factoidTextFields, v))
	}
	if v := get("s"); v != "" {
		filters = append(filters, solr.Child(index.TypeFactoid, "S", textSearch(sourceTextFields, v)))
	}
	if v := get("st"); v != "" {
		filters = append(filters, solr.Child(index.TypeFactoid, "Statements", textSearch(statementTextFields, v)))
	}
	clauses, err := sf.ChildClauses(index.TypeFactoid, "Statements")
	if err != nil {
		return ListQuery{}, err
	}
	filters = append(filters, clauses...)

	return ListQuery{Pagination: pg, Filters: filters}, nil
}

// Sources parses the parameters of a source list request.
func Sources(get func(string) string) (ListQuery, error) {
	pg, err := ParsePagination(get)
	if err != nil {
		return ListQuery{}, err
	}
	sf, err := ParseStatementFilters(get)
	if err != nil {
		return ListQuery{}, err
	}

	filters := []solr.Expr{docTypeFilter(index.TypeSource)}
	if v := get("personId"); v != "" {
		filters = append(filters, solr.Child(index.TypeSource, "P", solr.Eq("doc_id", v)))
	}
	if v := get("factoidId"); v != "" {
		filters = append(filters, solr.Child(index.TypeSource, "F", solr.Eq("doc_id", v)))
	}
	if v := get("statementId"); v != "" {
		filters = append(filters, solr.Child(index.TypeSource, "ST", solr.Eq("doc_id", v)))
	}
	if v := get("p"); v != "" {
		filters = append(filters, solr.Child(index.TypeSource, "P", textSearch(personTextFields, v)))
	}
	if v := get("f"); v != "" {
		filters = append(filters, solr.Child(index.TypeSource, "F", textSearch(factoidTextFields, v)))
	}
	if v := get("s"); v != "" {
		filters = append(filters, textSearch(sourceTextFields, v))
	}
	if v := get("st"); v != "" {
		filters = append(filters, solr.Child(index.TypeSource, "ST", textSearch(statementTextFields, v)))
	}
	clauses, err := sf.ChildClauses(index.TypeSource, "ST")
	if err != nil {
		return ListQuery{}, err
	}
	filters = append(filters, clauses...)

	return ListQuery{Pagination: pg, Filters: filters}, nil
}

// Statements parses the parameters of a statement list request. The
// statement filters apply to the documents themselves rather than to
// embedded children.
func Statements(get func(string) string) (ListQuery, error) {
	pg, err := ParsePagination(get)
	if err != nil {
		return ListQuery{}, err
	}
	sf, err := ParseStatementFilters(get)
	if err != nil {
		return ListQuery{}, err
	}

	filters := []solr.Expr{docTypeFilter(index.TypeStatement)}
	if v := get("personId"); v != "" {
		filters = append(filters, solr.Child(index.TypeStatement, "P", solr.Eq("doc_id", v)))
	}
	if v := get("factoidId"); v != "" {
		filters = append(filters, solr.Child(index.TypeStatement, "F", solr.Eq("doc_id", v)))
	}
	if v := get("sourceId"); v != "" {
		filters = append(filters, solr.Child(index.TypeStatement, "S", solr.Eq("doc_id", v)))
	}
	if v := get("p"); v != "" {
		filters = append(filters, solr.Child(index.TypeStatement, "P", textSearch(personTextFields, v)))
	}
	if v := get("s"); v != "" {
		filters = append(filters, solr.Child(index.TypeStatement, "S", textSearch(sourceTextFields, v)))
	}
	if v := get("st"); v != "" {
		filters = append(filters, textSearch(statementTextFields, v))
	}
	clauses, err := sf.TopClauses()
	if err != nil {
		return ListQuery{}, err
	}
	filters = append(filters, clauses...)

	return ListQuery{Pagination: pg, Filters: filters}, nil
}
