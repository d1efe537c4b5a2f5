package index

import (
	"testing"
	"time"
)

func testStatementDoc() StatementDoc {
	when := time.Date(1880, 3, 2, 0, 0, 0, 0, time.UTC)
	return StatementDoc{
		ID:            "42_PersonInstitution_11",
		StatementType: Labeled{Label: "relatedToInstitution"},
		Role:          Labeled{Label: "member of"},
		Date:          Date{SortDate: &when, Label: "1880-03-02"},
		MemberOf:      MemberOf{URIs: []string{"https://inst.example/500"}, Label: "University of Vienna"},
		RelatesToPersons: []PersonRef{
			{ID: "43", Label: "Beispiel, Ben (43)", URIs: []string{"https://d-nb.info/gnd/2"}},
		},
		StatementText: "Muster, Mia (42) (member of) University of Vienna",
		P:             []PersonRef{{ID: "42", Label: "Muster, Mia (42)"}},
		S:             []SourceRef{{ID: "original_source_for_42", Label: "Original source for Muster, Mia (42)"}},
		F: []FactoidRef{{
			ID:     "factoid__42__original_source_for_42",
			Person: []IDRef{{ID: "42"}},
			S:      []IDRef{{ID: "original_source_for_42"}},
			ST:     []IDRef{{ID: "42_PersonInstitution_11"}},
		}},
	}
}

func TestEncodeStatement_FlattensAndDiscriminates(t *testing.T) {
	m, err := testStatementDoc().SolrDoc()
	if err != nil {
		t.Fatalf("SolrDoc(): %v", err)
	}

	if m["doc_id"] != "42_PersonInstitution_11" || m["id"] != "42_PersonInstitution_11" {
		t.Fatalf("root ids = %v / %v", m["id"], m["doc_id"])
	}
	if m["doc_type"] != "statement" {
		t.Fatalf("doc_type = %v", m["doc_type"])
	}
	if m["statementType__label"] != "relatedToInstitution" {
		t.Fatalf("statementType__label = %v", m["statementType__label"])
	}
	if m["memberOf__label"] != "University of Vienna" {
		t.Fatalf("memberOf__label = %v", m["memberOf__label"])
	}
	if _, ok := m["memberOf"]; ok {
		t.Fatalf("memberOf value object should be flattened away")
	}

	// relatesToPersons is stored as JSON strings.
	encoded, ok := m["relatesToPersons"].([]any)
	if !ok || len(encoded) != 1 {
		t.Fatalf("relatesToPersons = %#v", m["relatesToPersons"])
	}
	if _, ok := encoded[0].(string); !ok {
		t.Fatalf("relatesToPersons element should be a JSON string, got %T", encoded[0])
	}
}

func TestEncodeStatement_NestedChildrenGetSyntheticIDs(t *testing.T) {
	m, err := testStatementDoc().SolrDoc()
	if err != nil {
		t.Fatalf("SolrDoc(): %v", err)
	}

	children, ok := m["P"].([]any)
	if !ok || len(children) != 1 {
		t.Fatalf("P = %#v", m["P"])
	}
	child, ok := children[0].(map[string]any)
	if !ok {
		t.Fatalf("P[0] = %#v", children[0])
	}
	if child["id"] != "42_PersonInstitution_11/P/0" {
		t.Fatalf("child id = %v", child["id"])
	}
	if child["doc_id"] != "42" {
		t.Fatalf("child doc_id = %v", child["doc_id"])
	}
	if child["child_field"] != "P" {
		t.Fatalf("child_field = %v", child["child_field"])
	}
	if _, ok := child["doc_type"]; ok {
		t.Fatalf("children must not carry doc_type, or block joins break")
	}
}

func TestEncodePerson_StatementChildrenSplatRelatedPersons(t *testing.T) {
	doc := PersonDoc{
		ID:    "42",
		Label: "Muster, Mia (42)",
		ST: []StatementRef{{
			ID:            "42__PersonPerson_2__70",
			StatementType: Labeled{Label: "relatedToPerson"},
			Role:          Labeled{Label: "friend of"},
			RelatesToPersons: []PersonRef{
				{ID: "43", Label: "Beispiel, Ben (43)", URIs: []string{"https://d-nb.info/gnd/2"}},
			},
		}},
	}
	m, err := doc.SolrDoc()
	if err != nil {
		t.Fatalf("SolrDoc(): %v", err)
	}

	children, ok := m["ST"].([]any)
	if !ok || len(children) != 1 {
		t.Fatalf("ST = %#v", m["ST"])
	}
	child := children[0].(map[string]any)
	if _, ok := child["relatesToPersons"]; ok {
		t.Fatalf("relatesToPersons should be splatted inside statement children")
	}
	ids, ok := child["relatesToPersons__id"].([]any)
	if !ok || len(ids) != 1 || ids[0] != "43" {
		t.Fatalf("relatesToPersons__id = %#v", child["relatesToPersons__id"])
	}
	labels, ok := child["relatesToPersons__label"].([]any)
	if !ok || labels[0] != "Beispiel, Ben (43)" {
		t.Fatalf("relatesToPersons__label = %#v", child["relatesToPersons__label"])
	}
}

func TestShapeStatement_RoundTrip(t *testing.T) {
	m, err := testStatementDoc().SolrDoc()
	if err != nil {
		t.Fatalf("SolrDoc(): %v", err)
	}

	out := ShapeStatement(m)

	if out["@id"] != "42_PersonInstitution_11" {
		t.Fatalf("@id = %v", out["@id"])
	}
	st, ok := out["statementType"].(map[string]any)
	if !ok || st["label"] != "relatedToInstitution" {
		t.Fatalf("statementType = %#v", out["statementType"])
	}
	memberOf, ok := out["memberOf"].(map[string]any)
	if !ok || memberOf["label"] != "University of Vienna" {
		t.Fatalf("memberOf = %#v", out["memberOf"])
	}
	related, ok := out["relatesToPersons"].([]any)
	if !ok || len(related) != 1 {
		t.Fatalf("relatesToPersons = %#v", out["relatesToPersons"])
	}
	first, ok := related[0].(map[string]any)
	if !ok || first["@id"] != "43" {
		t.Fatalf("relatesToPersons[0] = %#v", related[0])
	}
	refs, ok := out["factoid-refs"].([]any)
	if !ok || len(refs) != 1 {
		t.Fatalf("factoid-refs = %#v", out["factoid-refs"])
	}
	fref := refs[0].(map[string]any)
	if fref["@id"] != "factoid__42__original_source_for_42" {
		t.Fatalf("factoid-refs[0] = %#v", fref)
	}
	pref, ok := fref["person-ref"].(map[string]any)
	if !ok || pref["@id"] != "42" {
		t.Fatalf("person-ref = %#v", fref["person-ref"])
	}
}

func TestShapePerson_FactoidRefs(t *testing.T) {
	doc := PersonDoc{
		ID:    "42",
		Label: "Muster, Mia (42)",
		URIs:  []string{"https://d-nb.info/gnd/1"},
		F: []FactoidRef{{
			ID:     "factoid__42__original_source_for_42",
			Person: []IDRef{{ID: "42"}},
			S:      []IDRef{{ID: "original_source_for_42"}},
			ST:     []IDRef{{ID: "42_attrb_name"}, {ID: "42_attrb_gender"}},
		}},
	}
	m, err := doc.SolrDoc()
	if err != nil {
		t.Fatalf("SolrDoc(): %v", err)
	}

	out := ShapePerson(m)
	if out["@id"] != "42" || out["label"] != "Muster, Mia (42)" {
		t.Fatalf("shaped person = %#v", out)
	}
	uris, ok := out["uris"].([]any)
	if !ok || len(uris) != 1 {
		t.Fatalf("uris = %#v", out["uris"])
	}
	refs, ok := out["factoid-refs"].([]any)
	if !ok || len(refs) != 1 {
		t.Fatalf("factoid-refs = %#v", out["factoid-refs"])
	}
	fref := refs[0].(map[string]any)
	sts, ok := fref["statement-refs"].([]any)
	if !ok || len(sts) != 2 {
		t.Fatalf("statement-refs = %#v", fref["statement-refs"])
	}
	st0 := sts[0].(map[string]any)
	if st0["@id"] != "42_attrb_name" {
		t.Fatalf("statement-refs[0] = %#v", st0)
	}
}
