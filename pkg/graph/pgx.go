package graph

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("entity not found")

const personColumns = `id, name, first_name, gender, start_date, end_date, start_date_written, source_id, status`

// PGXReader implements Reader on top of a Postgres connection pool.
type PGXReader struct {
	conn *pgxpool.Pool
}

// NewPGXReader creates a Reader over the given pool.
func NewPGXReader(conn *pgxpool.Pool) *PGXReader {
	return &PGXReader{conn: conn}
}

func scanPerson(row pgx.Row) (Person, error) {
	var (
		p                 Person
		firstName, gender *string
		dateWritten       *string
		status            *string
	)
	err := row.Scan(
		&p.ID, &p.Name, &firstName, &gender,
		&p.StartDate, &p.EndDate, &dateWritten,
		&p.SourceID, &status,
	)
	if err != nil {
		return Person{}, err
	}
	if firstName != nil {
		p.FirstName = *firstName
	}
	if gender != nil {
		p.Gender = *gender
	}
	if dateWritten != nil {
		p.StartDateWritten = *dateWritten
	}
	if status != nil {
		p.Status = *status
	}
	return p, nil
}

func (r *PGXReader) Persons(ctx context.Context) iter.Seq2[Person, error] {
	return func(yield func(Person, error) bool) {
		rows, err := r.conn.Query(ctx, `SELECT `+personColumns+` FROM persons ORDER BY id`)
		if err != nil {
			yield(Person{}, fmt.Errorf("query persons: %w", err))
			return
		}
		defer rows.Close()
		for rows.Next() {
			p, err := scanPerson(rows)
			if err != nil {
				yield(Person{}, fmt.Errorf("scan person: %w", err))
				return
			}
			if !yield(p, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Person{}, fmt.Errorf("iterate persons: %w", err))
		}
	}
}

func (r *PGXReader) PersonByID(ctx context.Context, id int64) (Person, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+personColumns+` FROM persons WHERE id = $1`, id)
	p, err := scanPerson(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Person{}, ErrNotFound
	}
	if err != nil {
		return Person{}, fmt.Errorf("query person %d: %w", id, err)
	}
	return p, nil
}

func scanReferences(rows pgx.Rows) ([]Reference, error) {
	defer rows.Close()
	var refs []Reference
	for rows.Next() {
		var (
			ref       Reference
			bibtex    *string
			attribute *string
		)
		if err := rows.Scan(&ref.ID, &ref.ObjectID, &ref.BibsURL, &bibtex, &attribute); err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		if bibtex != nil {
			ref.BibTeX = *bibtex
		}
		if attribute != nil {
			ref.Attribute = *attribute
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (r *PGXReader) References(ctx context.Context, objectID int64) ([]Reference, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT id, object_id, bibs_url, bibtex, attribute FROM bib_references WHERE object_id = $1 ORDER BY id`,
		objectID)
	if err != nil {
		return nil, fmt.Errorf("query references for %d: %w", objectID, err)
	}
	return scanReferences(rows)
}

func (r *PGXReader) ReferencesByURL(ctx context.Context, bibsURL string) ([]Reference, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT id, object_id, bibs_url, bibtex, attribute FROM bib_references WHERE bibs_url = $1 ORDER BY id`,
		bibsURL)
	if err != nil {
		return nil, fmt.Errorf("query references by url: %w", err)
	}
	return scanReferences(rows)
}

func (r *PGXReader) PersonsByReferenceURL(ctx context.Context, bibsURL string) ([]Person, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT DISTINCT p.id, p.name, p.first_name, p.gender, p.start_date, p.end_date,
		        p.start_date_written, p.source_id, p.status
		 FROM persons p
		 JOIN bib_references r ON r.object_id = p.id
		 WHERE r.bibs_url = $1
		 ORDER BY p.id`,
		bibsURL)
	if err != nil {
		return nil, fmt.Errorf("query persons by reference url: %w", err)
	}
	defer rows.Close()
	var persons []Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		persons = append(persons, p)
	}
	return persons, rows.Err()
}

func (r *PGXReader) URIs(ctx context.Context, entityID int64) ([]string, error) {
	rows, err := r.conn.Query(ctx, `SELECT uri FROM uris WHERE entity_id = $1 ORDER BY id`, entityID)
	if err != nil {
		return nil, fmt.Errorf("query uris for %d: %w", entityID, err)
	}
	defer rows.Close()
	var uris []string
	for rows.Next() {
		var uri string
		if err := rows.Scan(&uri); err != nil {
			return nil, fmt.Errorf("scan uri: %w", err)
		}
		uris = append(uris, uri)
	}
	return uris, rows.Err()
}

// relationTables maps a relation kind to its table and related entity table.
var relationTables = map[RelationKind]struct {
	table        string
	relatedTable string
}{
	RelationInstitution: {"person_institutions", "institutions"},
	RelationPlace:       {"person_places", "places"},
	RelationEvent:       {"person_events", "events"},
	RelationWork:        {"person_works", "works"},
}

func (r *PGXReader) TypedRelations(ctx context.Context, personID int64, kind RelationKind, onlyIDs []int64) ([]TypedRelation, error) {
	tables, ok := relationTables[kind]
	if !ok {
		return nil, fmt.Errorf("unknown relation kind %q", kind)
	}

	query := fmt.Sprintf(
		`SELECT rel.id, rel.person_id, rel.related_id, related.name,
		        rt.name, rt.name_reverse, rel.start_date, rel.end_date
		 FROM %s rel
		 JOIN %s related ON related.id = rel.related_id
		 JOIN relation_types rt ON rt.id = rel.relation_type_id
		 WHERE rel.person_id = $1`,
		tables.table, tables.relatedTable)
	args := []any{personID}
	if onlyIDs != nil {
		query += ` AND rel.id = ANY($2)`
		args = append(args, onlyIDs)
	}
	query += ` ORDER BY rel.id`

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s relations: %w", kind, err)
	}
	defer rows.Close()

	var relations []TypedRelation
	for rows.Next() {
		rel := TypedRelation{Kind: kind}
		var nameReverse *string
		err := rows.Scan(
			&rel.ID, &rel.PersonID, &rel.RelatedID, &rel.RelatedName,
			&rel.TypeName, &nameReverse, &rel.StartDate, &rel.EndDate,
		)
		if err != nil {
			return nil, fmt.Errorf("scan %s relation: %w", kind, err)
		}
		if nameReverse != nil {
			rel.TypeReverseName = *nameReverse
		}
		relations = append(relations, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range relations {
		uris, err := r.URIs(ctx, relations[i].RelatedID)
		if err != nil {
			return nil, err
		}
		relations[i].RelatedURIs = uris
	}
	return relations, nil
}

func (r *PGXReader) PersonRelations(ctx context.Context, personID int64) ([]PersonRelation, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT pp.id, pp.relation_type_id, rt.name, rt.name_reverse,
		        pp.person_a_id, pp.person_b_id,
		        pp.start_date, pp.end_date, pp.start_date_written
		 FROM person_persons pp
		 JOIN relation_types rt ON rt.id = pp.relation_type_id
		 WHERE pp.person_a_id = $1 OR pp.person_b_id = $1
		 ORDER BY pp.id`,
		personID)
	if err != nil {
		return nil, fmt.Errorf("query person relations: %w", err)
	}
	defer rows.Close()

	var relations []PersonRelation
	for rows.Next() {
		var (
			rel         PersonRelation
			nameReverse *string
			dateWritten *string
		)
		err := rows.Scan(
			&rel.ID, &rel.TypeID, &rel.TypeName, &nameReverse,
			&rel.PersonAID, &rel.PersonBID,
			&rel.StartDate, &rel.EndDate, &dateWritten,
		)
		if err != nil {
			return nil, fmt.Errorf("scan person relation: %w", err)
		}
		if nameReverse != nil {
			rel.TypeReverseName = *nameReverse
		}
		if dateWritten != nil {
			rel.StartDateWritten = *dateWritten
		}
		relations = append(relations, rel)
	}
	return relations, rows.Err()
}

func (r *PGXReader) Revisions(ctx context.Context, entityKind string, entityID int64) ([]Revision, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT username, created_at FROM revisions
		 WHERE entity_kind = $1 AND entity_id = $2
		 ORDER BY created_at ASC, id ASC`,
		entityKind, entityID)
	if err != nil {
		return nil, fmt.Errorf("query revisions for %s %d: %w", entityKind, entityID, err)
	}
	defer rows.Close()
	var revisions []Revision
	for rows.Next() {
		var rev Revision
		if err := rows.Scan(&rev.Username, &rev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		revisions = append(revisions, rev)
	}
	return revisions, rows.Err()
}

// vocabTables maps a vocabulary field to its join table and value table.
var vocabTables = map[string]struct {
	joinTable  string
	joinColumn string
	valueTable string
}{
	VocabProfession: {"person_professions", "profession_id", "professions"},
	VocabTitle:      {"person_titles", "title_id", "titles"},
}

func (r *PGXReader) VocabValues(ctx context.Context, personID int64, field string) ([]VocabValue, error) {
	tables, ok := vocabTables[field]
	if !ok {
		return nil, fmt.Errorf("unknown vocabulary field %q", field)
	}
	query := fmt.Sprintf(
		`SELECT v.id, v.name FROM %s j JOIN %s v ON v.id = j.%s WHERE j.person_id = $1 ORDER BY v.id`,
		tables.joinTable, tables.valueTable, tables.joinColumn)
	rows, err := r.conn.Query(ctx, query, personID)
	if err != nil {
		return nil, fmt.Errorf("query %s values: %w", field, err)
	}
	defer rows.Close()
	var values []VocabValue
	for rows.Next() {
		var v VocabValue
		if err := rows.Scan(&v.ID, &v.Name); err != nil {
			return nil, fmt.Errorf("scan %s value: %w", field, err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
