package index

import (
	"crypto/md5"
	"encoding/hex"
	"testing"

	"ipif/pkg/graph"
)

func TestSourceDocID_OriginalSourceVariants(t *testing.T) {
	srcID := int64(7)

	withSource := graph.Person{ID: 42, SourceID: &srcID}
	if got := SourceDocID(withSource, nil); got != "original_source_7" {
		t.Fatalf("SourceDocID() with source id = %q, want original_source_7", got)
	}

	withoutSource := graph.Person{ID: 42}
	if got := SourceDocID(withoutSource, nil); got != "original_source_for_42" {
		t.Fatalf("SourceDocID() without source id = %q, want original_source_for_42", got)
	}
}

func TestSourceDocID_ReferenceHashesURL(t *testing.T) {
	p := graph.Person{ID: 42}
	ref := &graph.Reference{BibsURL: "https://bibs.example/item/9"}

	got := SourceDocID(p, ref)
	sum := md5.Sum([]byte(ref.BibsURL))
	want := "reference_42_" + hex.EncodeToString(sum[:])
	if got != want {
		t.Fatalf("SourceDocID() = %q, want %q", got, want)
	}

	again := SourceDocID(p, ref)
	if got != again {
		t.Fatalf("SourceDocID() not stable: %q vs %q", got, again)
	}

	other := SourceDocID(p, &graph.Reference{BibsURL: "https://bibs.example/item/10"})
	if got == other {
		t.Fatalf("SourceDocID() should differ per url, both %q", got)
	}
}

func TestFactoidDocID_EmbedsSourceID(t *testing.T) {
	srcID := int64(3)
	p := graph.Person{ID: 5, SourceID: &srcID}

	if got := FactoidDocID(p, nil); got != "factoid__5__original_source_3" {
		t.Fatalf("FactoidDocID() = %q, want factoid__5__original_source_3", got)
	}
}

func TestStatementIDs(t *testing.T) {
	if got := TypedStatementID(5, graph.RelationPlace, 11); got != "5_PersonPlace_11" {
		t.Fatalf("TypedStatementID() = %q", got)
	}
	if got := PersonRelationStatementID(5, 2, 11); got != "5__PersonPerson_2__11" {
		t.Fatalf("PersonRelationStatementID() = %q", got)
	}
	if got := AttributeStatementID(5, "gender"); got != "5_attrb_gender" {
		t.Fatalf("AttributeStatementID() = %q", got)
	}
	if got := VocabStatementID(5, "profession", 9); got != "5_m2m_profession_9" {
		t.Fatalf("VocabStatementID() = %q", got)
	}
}
