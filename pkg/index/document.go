package index

import "time"

// Document type discriminators, stored in the doc_type field of every
// root document.
const (
	TypePerson    = "person"
	TypeFactoid   = "factoid"
	TypeSource    = "source"
	TypeStatement = "statement"
)

// Provenance records who created and last modified the underlying entity,
// derived from its revision history. A zero Provenance is omitted from the
// stored document entirely.
type Provenance struct {
	CreatedBy    string     `json:"createdBy,omitempty"`
	CreatedWhen  *time.Time `json:"createdWhen,omitempty"`
	ModifiedBy   string     `json:"modifiedBy,omitempty"`
	ModifiedWhen *time.Time `json:"modifiedWhen,omitempty"`
}

// Labeled is a uri/label pair used for statement sub-fields
// (statementType, role, memberOf).
type Labeled struct {
	URI   string `json:"uri,omitempty"`
	Label string `json:"label,omitempty"`
}

// MultiLabeled carries a uri set plus a label, used for the places
// sub-field of statements.
type MultiLabeled struct {
	URIs  []string `json:"uris,omitempty"`
	Label string   `json:"label,omitempty"`
}

// MemberOf carries the uri set and label of the institution a membership
// statement points at. The uri key is singular while places uses the
// plural; both spellings are part of the stored document contract.
type MemberOf struct {
	URIs  []string `json:"uri,omitempty"`
	Label string   `json:"label,omitempty"`
}

// Date carries the machine-sortable date of a statement plus its human
// label. SortDate is start date, falling back to end date, else absent.
type Date struct {
	SortDate *time.Time `json:"sortdate_dt,omitempty"`
	Label    string     `json:"label,omitempty"`
}

// IDRef is a deep child collapsed to its id only.
type IDRef struct {
	ID string `json:"id"`
}

// PersonRef is the shallow copy of a person embedded in other documents.
type PersonRef struct {
	ID         string   `json:"id"`
	URIs       []string `json:"uris,omitempty"`
	Label      string   `json:"label,omitempty"`
	CreatedBy  string   `json:"createdBy,omitempty"`
	ModifiedBy string   `json:"modifiedBy,omitempty"`
}

// SourceRef is the shallow copy of a source embedded in other documents.
type SourceRef struct {
	ID         string   `json:"id"`
	URIs       []string `json:"uris,omitempty"`
	Label      string   `json:"label,omitempty"`
	CreatedBy  string   `json:"createdBy,omitempty"`
	ModifiedBy string   `json:"modifiedBy,omitempty"`
}

// StatementRef is the shallow copy of a statement embedded in other
// documents. It carries all searchable statement fields so that compound
// child-document queries can run against it; its own children collapse to
// splatted id/uri fields.
type StatementRef struct {
	ID               string       `json:"id"`
	CreatedBy        string       `json:"createdBy,omitempty"`
	ModifiedBy       string       `json:"modifiedBy,omitempty"`
	StatementType    Labeled      `json:"statementType"`
	Name             string       `json:"name,omitempty"`
	Role             Labeled      `json:"role"`
	Date             Date         `json:"date"`
	Places           MultiLabeled `json:"places"`
	RelatesToPersons []PersonRef  `json:"relatesToPersons,omitempty"`
	MemberOf         MemberOf     `json:"memberOf"`
	StatementText    string       `json:"statementText,omitempty"`
}

// FactoidRef is the shallow copy of a factoid embedded in other documents.
// Its own children collapse to id-only refs stored as JSON.
type FactoidRef struct {
	ID         string  `json:"id"`
	CreatedBy  string  `json:"createdBy,omitempty"`
	ModifiedBy string  `json:"modifiedBy,omitempty"`
	Person     []IDRef `json:"Person,omitempty"`
	S          []IDRef `json:"S,omitempty"`
	ST         []IDRef `json:"ST,omitempty"`
}

// PersonDoc is the index document for one person. Exactly one exists per
// person in the entity store.
type PersonDoc struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
	Provenance
	URIs []string       `json:"uris,omitempty"`
	S    []SourceRef    `json:"S,omitempty"`
	ST   []StatementRef `json:"ST,omitempty"`
	F    []FactoidRef   `json:"F,omitempty"`
}

// FactoidDoc is the index document pairing one person with one source
// context. Exactly one exists per (person, source) combination, where
// source ranges over the implicit original source plus each bibliographic
// reference of the person.
type FactoidDoc struct {
	ID string `json:"id"`
	Provenance
	PersonID   string         `json:"personId,omitempty"`
	ST         []StatementRef `json:"ST,omitempty"`
	S          []SourceRef    `json:"S,omitempty"`
	Statements []StatementRef `json:"Statements,omitempty"`
	Person     []PersonRef    `json:"Person,omitempty"`
}

// SourceDoc is the index document for one source context. The implicit
// "original" source of each person is a first-class source document of its
// own. Reference-backed sources embed the factoids, persons and statements
// of every person the reference is attached to.
type SourceDoc struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
	URIs  []string `json:"uris,omitempty"`
	Provenance
	ST         []StatementRef `json:"ST,omitempty"`
	Statements []StatementRef `json:"Statements,omitempty"`
	P          []PersonRef    `json:"P,omitempty"`
	Persons    []PersonRef    `json:"Persons,omitempty"`
	F          []FactoidRef   `json:"F,omitempty"`
	Factoids   []FactoidRef   `json:"Factoids,omitempty"`
}

// StatementDoc is the index document for one atomic assertion about a
// person. Its id is stable across the build passes of different source
// contexts, so the same statement may be upserted several times per
// rebuild with identical content.
type StatementDoc struct {
	ID               string       `json:"id"`
	URIs             []string     `json:"uris,omitempty"`
	StatementType    Labeled      `json:"statementType"`
	Name             string       `json:"name,omitempty"`
	Role             Labeled      `json:"role"`
	Date             Date         `json:"date"`
	Places           MultiLabeled `json:"places"`
	RelatesToPersons []PersonRef  `json:"relatesToPersons,omitempty"`
	MemberOf         MemberOf     `json:"memberOf"`
	StatementText    string       `json:"statementText,omitempty"`
	Provenance
	P []PersonRef  `json:"P,omitempty"`
	F []FactoidRef `json:"F,omitempty"`
	S []SourceRef  `json:"S,omitempty"`
}
