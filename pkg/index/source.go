package index

import (
	"context"
	"encoding/json"
	"fmt"

	"ipif/pkg/graph"
)

// sourceCore builds the own fields of a source document for one (person,
// reference) pair. A nil ref denotes the person's implicit original
// source.
func (b *Builder) sourceCore(ctx context.Context, p graph.Person, ref *graph.Reference) (SourceDoc, error) {
	id := SourceDocID(p, ref)

	if ref == nil {
		prov, err := b.provenance(ctx, graph.KindPerson, p.ID)
		if err != nil {
			return SourceDoc{}, &BuildError{DocType: TypeSource, ID: id, Err: err}
		}
		doc := SourceDoc{
			ID:         id,
			Provenance: prov,
		}
		if p.SourceID != nil {
			doc.Label = fmt.Sprintf("Original source  %d", *p.SourceID)
			doc.URIs = []string{fmt.Sprintf("/apis/api/source/%d", *p.SourceID)}
		} else {
			doc.Label = "Original source for " + personLabel(p)
		}
		return doc, nil
	}

	label, err := bibliographyLabel(ref.BibTeX)
	if err != nil {
		return SourceDoc{}, &BuildError{DocType: TypeSource, ID: id, Err: err}
	}
	if label == "" {
		label = ref.BibsURL
	}
	prov, err := b.provenance(ctx, graph.KindPerson, p.ID)
	if err != nil {
		return SourceDoc{}, &BuildError{DocType: TypeSource, ID: id, Err: err}
	}
	return SourceDoc{
		ID:         id,
		Label:      label,
		URIs:       []string{ref.BibsURL},
		Provenance: prov,
	}, nil
}

// bibliographyLabel extracts the title of the bibliography entry stored as
// JSON on the reference row.
func bibliographyLabel(bibtex string) (string, error) {
	if bibtex == "" {
		return "", nil
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(bibtex), &entry); err != nil {
		return "", fmt.Errorf("parse bibliography entry: %w", err)
	}
	if title, ok := entry["title"].(string); ok {
		return title, nil
	}
	return "", nil
}

// sourceRef builds the shallow source copy embedded in other documents.
func (b *Builder) sourceRef(ctx context.Context, p graph.Person, ref *graph.Reference) (SourceRef, error) {
	core, err := b.sourceCore(ctx, p, ref)
	if err != nil {
		return SourceRef{}, err
	}
	return SourceRef{
		ID:         core.ID,
		URIs:       core.URIs,
		Label:      core.Label,
		CreatedBy:  core.CreatedBy,
		ModifiedBy: core.ModifiedBy,
	}, nil
}

// BuildSource builds the full source document for one (person, reference)
// pair. A reference-backed source embeds the persons, statements and
// factoids of every person the bibliography entry is attached to, not just
// the person whose enumeration reached it.
func (b *Builder) BuildSource(ctx context.Context, p graph.Person, ref *graph.Reference) (SourceDoc, error) {
	doc, err := b.sourceCore(ctx, p, ref)
	if err != nil {
		return SourceDoc{}, err
	}

	persons := []graph.Person{p}
	if ref != nil {
		persons, err = b.reader.PersonsByReferenceURL(ctx, ref.BibsURL)
		if err != nil {
			return SourceDoc{}, &BuildError{DocType: TypeSource, ID: doc.ID, Err: err}
		}
	}

	for _, q := range persons {
		qref := contextRef(q, ref)

		pref, err := b.personRef(ctx, q)
		if err != nil {
			return SourceDoc{}, &BuildError{DocType: TypeSource, ID: doc.ID, Err: err}
		}
		cores, err := b.statementCores(ctx, q, qref)
		if err != nil {
			return SourceDoc{}, &BuildError{DocType: TypeSource, ID: doc.ID, Err: err}
		}

		refs := statementRefs(cores)
		fref := factoidRefFromCores(q, qref, pref.CreatedBy, pref.ModifiedBy, cores)

		doc.P = append(doc.P, pref)
		doc.Persons = append(doc.Persons, pref)
		doc.ST = append(doc.ST, refs...)
		doc.Statements = append(doc.Statements, refs...)
		doc.F = append(doc.F, fref)
		doc.Factoids = append(doc.Factoids, fref)
	}
	return doc, nil
}

// contextRef carries a reference context over to another person attached
// to the same bibliography entry. Only the URL matters for attribution;
// the row id belongs to the enumerating person.
func contextRef(q graph.Person, ref *graph.Reference) *graph.Reference {
	if ref == nil {
		return nil
	}
	return &graph.Reference{ObjectID: q.ID, BibsURL: ref.BibsURL}
}
