package graph

import (
	"context"
	"iter"
	"time"
)

// Person is one row of the persons table. Persons share the global entity
// id space of the upstream store, so Person.ID is also the key used for
// URIs and revisions.
type Person struct {
	ID               int64
	Name             string
	FirstName        string
	Gender           string
	StartDate        *time.Time
	EndDate          *time.Time
	StartDateWritten string
	SourceID         *int64
	Status           string
}

// Reference is a bibliographic reference attached to an entity. ObjectID
// points at the entity the reference is about; for references enumerated
// per person that is the person, for attribution lookups it is a relation
// row. BibTeX holds the raw bibliography JSON, Attribute names the person
// field the reference attributes.
type Reference struct {
	ID        int64
	ObjectID  int64
	BibsURL   string
	BibTeX    string
	Attribute string
}

// RelationKind identifies one of the typed person-to-entity relation
// models. The names follow the upstream content-type names.
type RelationKind string

const (
	RelationInstitution RelationKind = "PersonInstitution"
	RelationPlace       RelationKind = "PersonPlace"
	RelationEvent       RelationKind = "PersonEvent"
	RelationWork        RelationKind = "PersonWork"
)

// RelationKinds lists all typed relation models, excluding person-person
// relations which are handled separately.
func RelationKinds() []RelationKind {
	return []RelationKind{RelationInstitution, RelationPlace, RelationEvent, RelationWork}
}

// TypedRelation is one row of a typed relation table, joined with its
// relation type vocabulary entry and the related entity.
type TypedRelation struct {
	ID              int64
	Kind            RelationKind
	PersonID        int64
	RelatedID       int64
	RelatedName     string
	RelatedURIs     []string
	TypeName        string
	TypeReverseName string
	StartDate       *time.Time
	EndDate         *time.Time
}

// PersonRelation is one row of the person-person relation table. The
// enumerating person may be on either side; callers compare against
// PersonAID/PersonBID to determine direction.
type PersonRelation struct {
	ID               int64
	TypeID           int64
	TypeName         string
	TypeReverseName  string
	PersonAID        int64
	PersonBID        int64
	StartDate        *time.Time
	EndDate          *time.Time
	StartDateWritten string
}

// Revision is one entry of an entity's audit history.
type Revision struct {
	Username  string
	CreatedAt time.Time
}

// Revision entity kinds, matching the upstream content-type labels.
const (
	KindPerson             = "person"
	KindPersonPersonRel    = "personperson"
	KindPersonInstitution  = "personinstitution"
	KindPersonPlace        = "personplace"
	KindPersonEvent        = "personevent"
	KindPersonWork         = "personwork"
)

// VocabValue is one value of a multi-valued vocabulary field, e.g. one
// profession of a person.
type VocabValue struct {
	ID   int64
	Name string
}

// Vocabulary-typed person fields that fan out into statements.
const (
	VocabProfession = "profession"
	VocabTitle      = "title"
)

// VocabFields lists the multi-valued vocabulary fields of a person.
func VocabFields() []string {
	return []string{VocabProfession, VocabTitle}
}

// Reader is the read-only accessor over the relational entity store. All
// index building goes through this interface; implementations must not
// mutate the store.
type Reader interface {
	// Persons enumerates all persons ordered by id. The sequence is lazy
	// and restartable; consuming it twice issues two queries.
	Persons(ctx context.Context) iter.Seq2[Person, error]

	// PersonByID returns a single person or ErrNotFound.
	PersonByID(ctx context.Context, id int64) (Person, error)

	// References returns the bibliographic references attached to the
	// given entity, ordered by id.
	References(ctx context.Context, objectID int64) ([]Reference, error)

	// ReferencesByURL returns all reference rows carrying the given
	// bibliography URL, regardless of which entity they attribute.
	ReferencesByURL(ctx context.Context, bibsURL string) ([]Reference, error)

	// PersonsByReferenceURL returns the persons that have a reference
	// with the given bibliography URL attached, ordered by id.
	PersonsByReferenceURL(ctx context.Context, bibsURL string) ([]Person, error)

	// URIs returns the URIs registered for an entity, ordered by id.
	URIs(ctx context.Context, entityID int64) ([]string, error)

	// TypedRelations returns the relations of one kind scoped to a
	// person. With onlyIDs non-nil the result is restricted to the
	// given relation row ids (reference attribution filtering).
	TypedRelations(ctx context.Context, personID int64, kind RelationKind, onlyIDs []int64) ([]TypedRelation, error)

	// PersonRelations returns all person-person relations where the
	// person is on either side.
	PersonRelations(ctx context.Context, personID int64) ([]PersonRelation, error)

	// Revisions returns the audit history of an entity ordered by
	// creation time ascending. An empty slice means no history.
	Revisions(ctx context.Context, entityKind string, entityID int64) ([]Revision, error)

	// VocabValues returns the values of a multi-valued vocabulary field
	// of a person, e.g. all professions.
	VocabValues(ctx context.Context, personID int64, field string) ([]VocabValue, error)
}
