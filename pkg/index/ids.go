package index

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"

	"ipif/pkg/graph"
)

// Synthetic document identifiers. All functions are pure: the same logical
// entity yields the same id on every call, regardless of which build pass
// asks for it. Upsert idempotence of the index writer depends on this.

// PersonDocID is the string form of the person's primary key.
func PersonDocID(p graph.Person) string {
	return strconv.FormatInt(p.ID, 10)
}

// SourceDocID derives the id of the source document for a (person, source)
// pair. A nil ref denotes the person's implicit "original" source: data
// created directly in the entity store without an attached bibliography.
func SourceDocID(p graph.Person, ref *graph.Reference) string {
	if ref == nil {
		if p.SourceID != nil {
			return fmt.Sprintf("original_source_%d", *p.SourceID)
		}
		return fmt.Sprintf("original_source_for_%d", p.ID)
	}
	sum := md5.Sum([]byte(ref.BibsURL))
	return fmt.Sprintf("reference_%d_%s", p.ID, hex.EncodeToString(sum[:]))
}

// FactoidDocID derives the id of the factoid pairing a person with a
// source context.
func FactoidDocID(p graph.Person, ref *graph.Reference) string {
	return fmt.Sprintf("factoid__%d__%s", p.ID, SourceDocID(p, ref))
}

// TypedStatementID identifies the statement derived from one typed
// person-to-entity relation row.
func TypedStatementID(personID int64, kind graph.RelationKind, relationID int64) string {
	return fmt.Sprintf("%d_%s_%d", personID, kind, relationID)
}

// PersonRelationStatementID identifies the statement derived from one
// person-person relation row, as seen from one side.
func PersonRelationStatementID(personID, relationTypeID, relationID int64) string {
	return fmt.Sprintf("%d__PersonPerson_%d__%d", personID, relationTypeID, relationID)
}

// AttributeStatementID identifies the statement derived from one scalar
// person field.
func AttributeStatementID(personID int64, field string) string {
	return fmt.Sprintf("%d_attrb_%s", personID, field)
}

// VocabStatementID identifies the statement derived from one value of a
// multi-valued vocabulary field.
func VocabStatementID(personID int64, field string, valueID int64) string {
	return fmt.Sprintf("%d_m2m_%s_%d", personID, field, valueID)
}
