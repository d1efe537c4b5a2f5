package index

import (
	"context"

	"ipif/pkg/graph"
)

// BuildPerson builds the full person document, aggregating the sources,
// statements and factoids of every source context of the person: the
// implicit original source first, then each bibliographic reference.
func (b *Builder) BuildPerson(ctx context.Context, p graph.Person) (PersonDoc, error) {
	id := PersonDocID(p)

	prov, err := b.provenance(ctx, graph.KindPerson, p.ID)
	if err != nil {
		return PersonDoc{}, &BuildError{DocType: TypePerson, ID: id, Err: err}
	}
	uris, err := b.reader.URIs(ctx, p.ID)
	if err != nil {
		return PersonDoc{}, &BuildError{DocType: TypePerson, ID: id, Err: err}
	}

	doc := PersonDoc{
		ID:         id,
		Label:      personLabel(p),
		Provenance: prov,
		URIs:       uris,
	}

	contexts, err := b.contexts(ctx, p)
	if err != nil {
		return PersonDoc{}, &BuildError{DocType: TypePerson, ID: id, Err: err}
	}
	for _, ref := range contexts {
		sref, err := b.sourceRef(ctx, p, ref)
		if err != nil {
			return PersonDoc{}, err
		}
		cores, err := b.statementCores(ctx, p, ref)
		if err != nil {
			return PersonDoc{}, &BuildError{DocType: TypePerson, ID: id, Err: err}
		}

		doc.S = append(doc.S, sref)
		doc.ST = append(doc.ST, statementRefs(cores)...)
		doc.F = append(doc.F, factoidRefFromCores(p, ref, prov.CreatedBy, prov.ModifiedBy, cores))
	}
	return doc, nil
}

// contexts enumerates the source contexts of a person: nil for the
// implicit original source, then one entry per bibliographic reference.
func (b *Builder) contexts(ctx context.Context, p graph.Person) ([]*graph.Reference, error) {
	refs, err := b.reader.References(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	out := make([]*graph.Reference, 0, len(refs)+1)
	out = append(out, nil)
	for i := range refs {
		out = append(out, &refs[i])
	}
	return out, nil
}
