package index

import (
	"context"
	"fmt"
	"iter"
	"testing"
	"time"

	"ipif/pkg/graph"
)

type fakeReader struct {
	persons   []graph.Person
	refs      []graph.Reference
	uris      map[int64][]string
	typed     map[int64][]graph.TypedRelation
	personRel map[int64][]graph.PersonRelation
	revisions map[string][]graph.Revision
	vocab     map[string][]graph.VocabValue
}

func (f *fakeReader) Persons(ctx context.Context) iter.Seq2[graph.Person, error] {
	return func(yield func(graph.Person, error) bool) {
		for _, p := range f.persons {
			if !yield(p, nil) {
				return
			}
		}
	}
}

func (f *fakeReader) PersonByID(ctx context.Context, id int64) (graph.Person, error) {
	for _, p := range f.persons {
		if p.ID == id {
			return p, nil
		}
	}
	return graph.Person{}, graph.ErrNotFound
}

func (f *fakeReader) References(ctx context.Context, objectID int64) ([]graph.Reference, error) {
	var out []graph.Reference
	for _, ref := range f.refs {
		if ref.ObjectID == objectID {
			out = append(out, ref)
		}
	}
	return out, nil
}

func (f *fakeReader) ReferencesByURL(ctx context.Context, bibsURL string) ([]graph.Reference, error) {
	var out []graph.Reference
	for _, ref := range f.refs {
		if ref.BibsURL == bibsURL {
			out = append(out, ref)
		}
	}
	return out, nil
}

func (f *fakeReader) PersonsByReferenceURL(ctx context.Context, bibsURL string) ([]graph.Person, error) {
	var out []graph.Person
	for _, p := range f.persons {
		for _, ref := range f.refs {
			if ref.BibsURL == bibsURL && ref.ObjectID == p.ID {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeReader) URIs(ctx context.Context, entityID int64) ([]string, error) {
	return f.uris[entityID], nil
}

func (f *fakeReader) TypedRelations(ctx context.Context, personID int64, kind graph.RelationKind, onlyIDs []int64) ([]graph.TypedRelation, error) {
	var out []graph.TypedRelation
	for _, rel := range f.typed[personID] {
		if rel.Kind != kind {
			continue
		}
		if onlyIDs != nil {
			found := false
			for _, id := range onlyIDs {
				if id == rel.ID {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, rel)
	}
	return out, nil
}

func (f *fakeReader) PersonRelations(ctx context.Context, personID int64) ([]graph.PersonRelation, error) {
	var out []graph.PersonRelation
	for _, rels := range f.personRel {
		for _, rel := range rels {
			if rel.PersonAID == personID || rel.PersonBID == personID {
				out = append(out, rel)
			}
		}
	}
	return out, nil
}

func (f *fakeReader) Revisions(ctx context.Context, entityKind string, entityID int64) ([]graph.Revision, error) {
	return f.revisions[fmt.Sprintf("%s/%d", entityKind, entityID)], nil
}

func (f *fakeReader) VocabValues(ctx context.Context, personID int64, field string) ([]graph.VocabValue, error) {
	return f.vocab[fmt.Sprintf("%s/%d", field, personID)], nil
}

func testReader() *fakeReader {
	return &fakeReader{
		persons: []graph.Person{
			{ID: 42, Name: "Muster", FirstName: "Mia", Gender: "female"},
			{ID: 43, Name: "Beispiel", FirstName: "Ben"},
		},
		refs: []graph.Reference{
			{ID: 1, ObjectID: 42, BibsURL: "https://bibs.example/item/9", BibTeX: `{"title":"A Study"}`, Attribute: "profession"},
			{ID: 2, ObjectID: 11, BibsURL: "https://bibs.example/item/9"},
		},
		uris: map[int64][]string{
			42: {"https://d-nb.info/gnd/1"},
			43: {"https://d-nb.info/gnd/2"},
		},
		typed: map[int64][]graph.TypedRelation{
			42: {
				{
					ID: 11, Kind: graph.RelationInstitution, PersonID: 42,
					RelatedID: 500, RelatedName: "University of Vienna",
					TypeName: "member of",
				},
			},
		},
		personRel: map[int64][]graph.PersonRelation{
			42: {
				{ID: 70, TypeID: 2, TypeName: "friend of", TypeReverseName: "befriended by", PersonAID: 42, PersonBID: 43},
			},
		},
		revisions: map[string][]graph.Revision{
			"person/42": {
				{Username: "editor1", CreatedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
				{Username: "editor2", CreatedAt: time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)},
			},
		},
		vocab: map[string][]graph.VocabValue{
			"profession/42": {{ID: 9, Name: "Historian"}},
		},
	}
}

func mustPerson(t *testing.T, r *fakeReader, id int64) graph.Person {
	t.Helper()
	p, err := r.PersonByID(context.Background(), id)
	if err != nil {
		t.Fatalf("PersonByID(%d): %v", id, err)
	}
	return p
}

func TestBuildPerson_AggregatesSourceContexts(t *testing.T) {
	r := testReader()
	b := NewBuilder(r)

	doc, err := b.BuildPerson(context.Background(), mustPerson(t, r, 42))
	if err != nil {
		t.Fatalf("BuildPerson(): %v", err)
	}

	if doc.ID != "42" {
		t.Fatalf("doc.ID = %q, want 42", doc.ID)
	}
	if doc.Label != "Muster, Mia (42)" {
		t.Fatalf("doc.Label = %q", doc.Label)
	}
	if doc.CreatedBy != "editor1" || doc.ModifiedBy != "editor2" {
		t.Fatalf("provenance = %q/%q, want editor1/editor2", doc.CreatedBy, doc.ModifiedBy)
	}

	if len(doc.S) != 2 {
		t.Fatalf("len(S) = %d, want 2 (original plus one reference)", len(doc.S))
	}
	if doc.S[0].ID != "original_source_for_42" {
		t.Fatalf("S[0].ID = %q, want original_source_for_42", doc.S[0].ID)
	}
	if doc.S[1].Label != "A Study" {
		t.Fatalf("S[1].Label = %q, want bibliography title", doc.S[1].Label)
	}

	if len(doc.F) != 2 {
		t.Fatalf("len(F) = %d, want 2", len(doc.F))
	}
	if doc.F[0].ID != "factoid__42__original_source_for_42" {
		t.Fatalf("F[0].ID = %q", doc.F[0].ID)
	}
}

func TestBuildStatements_GenderStatement(t *testing.T) {
	r := testReader()
	b := NewBuilder(r)

	docs, err := b.BuildStatements(context.Background(), mustPerson(t, r, 42), nil)
	if err != nil {
		t.Fatalf("BuildStatements(): %v", err)
	}

	var gender *StatementDoc
	for i := range docs {
		if docs[i].ID == "42_attrb_gender" {
			gender = &docs[i]
		}
	}
	if gender == nil {
		t.Fatalf("no gender statement among %d statements", len(docs))
	}
	if gender.StatementType.URI != "statement_type_uri" {
		t.Fatalf("gender statementType uri = %q", gender.StatementType.URI)
	}
	if gender.StatementText != "has gender female" {
		t.Fatalf("gender statementText = %q", gender.StatementText)
	}
	if gender.CreatedBy != "" {
		t.Fatalf("attribute statements must not carry provenance, got createdBy %q", gender.CreatedBy)
	}
	if len(gender.P) != 1 || gender.P[0].ID != "42" {
		t.Fatalf("gender.P = %+v, want the person ref", gender.P)
	}
}

func TestBuildStatements_ReferenceContextRestricts(t *testing.T) {
	r := testReader()
	b := NewBuilder(r)
	p := mustPerson(t, r, 42)
	ref := &r.refs[0]

	docs, err := b.BuildStatements(context.Background(), p, ref)
	if err != nil {
		t.Fatalf("BuildStatements(): %v", err)
	}

	ids := make(map[string]bool, len(docs))
	for _, d := range docs {
		ids[d.ID] = true
	}

	// The reference attributes the profession field plus relation row 11.
	if !ids["42_m2m_profession_9"] {
		t.Fatalf("profession statement missing, got %v", ids)
	}
	if !ids["42_PersonInstitution_11"] {
		t.Fatalf("attributed relation statement missing, got %v", ids)
	}
	if ids["42_attrb_gender"] {
		t.Fatalf("unattributed gender statement leaked into reference context")
	}
	if ids["42__PersonPerson_2__70"] {
		t.Fatalf("unattributed person relation leaked into reference context")
	}
}

func TestBuildStatements_StableIDsAcrossContexts(t *testing.T) {
	r := testReader()
	b := NewBuilder(r)
	p := mustPerson(t, r, 42)

	full, err := b.BuildStatements(context.Background(), p, nil)
	if err != nil {
		t.Fatalf("BuildStatements(nil): %v", err)
	}
	scoped, err := b.BuildStatements(context.Background(), p, &r.refs[0])
	if err != nil {
		t.Fatalf("BuildStatements(ref): %v", err)
	}

	fullIDs := make(map[string]bool, len(full))
	for _, d := range full {
		fullIDs[d.ID] = true
	}
	for _, d := range scoped {
		if !fullIDs[d.ID] {
			t.Fatalf("statement %q only exists in the reference context", d.ID)
		}
	}
}

func TestBuildStatements_PersonRelationSides(t *testing.T) {
	r := testReader()
	b := NewBuilder(r)

	forward, err := b.BuildStatements(context.Background(), mustPerson(t, r, 42), nil)
	if err != nil {
		t.Fatalf("BuildStatements(42): %v", err)
	}
	var rel *StatementDoc
	for i := range forward {
		if forward[i].ID == "42__PersonPerson_2__70" {
			rel = &forward[i]
		}
	}
	if rel == nil {
		t.Fatalf("person relation statement missing")
	}
	if rel.Role.Label != "friend of" {
		t.Fatalf("forward role = %q", rel.Role.Label)
	}
	if len(rel.RelatesToPersons) != 1 || rel.RelatesToPersons[0].ID != "43" {
		t.Fatalf("relatesToPersons = %+v", rel.RelatesToPersons)
	}

	reverse, err := b.BuildStatements(context.Background(), mustPerson(t, r, 43), nil)
	if err != nil {
		t.Fatalf("BuildStatements(43): %v", err)
	}
	var rev *StatementDoc
	for i := range reverse {
		if reverse[i].ID == "43__PersonPerson_2__70" {
			rev = &reverse[i]
		}
	}
	if rev == nil {
		t.Fatalf("reverse person relation statement missing")
	}
	if rev.Role.Label != "befriended by" {
		t.Fatalf("reverse role = %q", rev.Role.Label)
	}
	if len(rev.RelatesToPersons) != 1 || rev.RelatesToPersons[0].ID != "42" {
		t.Fatalf("reverse relatesToPersons = %+v", rev.RelatesToPersons)
	}
}

func TestBuildStatements_TypedRelationRolePrefersReverseName(t *testing.T) {
	r := testReader()
	r.typed[42] = append(r.typed[42], graph.TypedRelation{
		ID: 12, Kind: graph.RelationPlace, PersonID: 42,
		RelatedID: 600, RelatedName: "Vienna",
		TypeName: "place of", TypeReverseName: "located in",
	})
	b := NewBuilder(r)

	docs, err := b.BuildStatements(context.Background(), mustPerson(t, r, 42), nil)
	if err != nil {
		t.Fatalf("BuildStatements(): %v", err)
	}

	roles := make(map[string]string, len(docs))
	for _, d := range docs {
		roles[d.ID] = d.Role.Label
	}
	if roles["42_PersonPlace_12"] != "located in" {
		t.Fatalf("role = %q, want the reverse name", roles["42_PersonPlace_12"])
	}
	// Without a reverse name the forward name stands.
	if roles["42_PersonInstitution_11"] != "member of" {
		t.Fatalf("role = %q, want the forward name", roles["42_PersonInstitution_11"])
	}
}

func TestBuildSource_ReferenceEmbedsAllAttachedPersons(t *testing.T) {
	r := testReader()
	// Attach the same bibliography entry to person 43 as well.
	r.refs = append(r.refs, graph.Reference{ID: 3, ObjectID: 43, BibsURL: "https://bibs.example/item/9"})
	b := NewBuilder(r)

	doc, err := b.BuildSource(context.Background(), mustPerson(t, r, 42), &r.refs[0])
	if err != nil {
		t.Fatalf("BuildSource(): %v", err)
	}

	if len(doc.P) != 2 {
		t.Fatalf("len(P) = %d, want both attached persons", len(doc.P))
	}
	if len(doc.F) != 2 {
		t.Fatalf("len(F) = %d, want one factoid per attached person", len(doc.F))
	}
}

func TestBuildFactoid_LinksAllSides(t *testing.T) {
	r := testReader()
	b := NewBuilder(r)

	doc, err := b.BuildFactoid(context.Background(), mustPerson(t, r, 42), nil)
	if err != nil {
		t.Fatalf("BuildFactoid(): %v", err)
	}

	if doc.ID != "factoid__42__original_source_for_42" {
		t.Fatalf("doc.ID = %q", doc.ID)
	}
	if doc.PersonID != "42" {
		t.Fatalf("doc.PersonID = %q", doc.PersonID)
	}
	if len(doc.S) != 1 || doc.S[0].ID != "original_source_for_42" {
		t.Fatalf("doc.S = %+v", doc.S)
	}
	if len(doc.ST) == 0 || len(doc.ST) != len(doc.Statements) {
		t.Fatalf("ST/Statements mismatch: %d vs %d", len(doc.ST), len(doc.Statements))
	}
}

func TestDateOf_LabelFallbacks(t *testing.T) {
	start := time.Date(1880, 3, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)

	d := dateOf(&start, &end, "around 1880")
	if d.Label != "1880-03-02-1950-01-01" {
		t.Fatalf("label with both dates = %q, want the joined range", d.Label)
	}
	if d.SortDate == nil || !d.SortDate.Equal(start) {
		t.Fatalf("sort date should be the start date")
	}

	d = dateOf(&start, nil, "around 1880")
	if d.Label != "1880-03-02" {
		t.Fatalf("label with start date only = %q", d.Label)
	}

	d = dateOf(nil, &end, "around 1880")
	if d.Label != "around 1880" {
		t.Fatalf("label with written date = %q", d.Label)
	}
	if d.SortDate == nil || !d.SortDate.Equal(end) {
		t.Fatalf("sort date should fall back to the end date")
	}

	d = dateOf(nil, &end, "")
	if d.Label != "1950-01-01" {
		t.Fatalf("label with end date only = %q", d.Label)
	}

	d = dateOf(nil, nil, "")
	if d.Label != "" || d.SortDate != nil {
		t.Fatalf("empty input should yield an empty date, got %+v", d)
	}
}
