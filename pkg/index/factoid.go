package index

import (
	"context"

	"ipif/pkg/graph"
)

// factoidRefFromCores builds the shallow factoid copy for one (person,
// reference) pair out of already-derived statement cores.
func factoidRefFromCores(p graph.Person, ref *graph.Reference, createdBy, modifiedBy string, cores []statementCore) FactoidRef {
	st := make([]IDRef, 0, len(cores))
	for _, core := range cores {
		st = append(st, IDRef{ID: core.ID})
	}
	return FactoidRef{
		ID:         FactoidDocID(p, ref),
		CreatedBy:  createdBy,
		ModifiedBy: modifiedBy,
		Person:     []IDRef{{ID: PersonDocID(p)}},
		S:          []IDRef{{ID: SourceDocID(p, ref)}},
		ST:         st,
	}
}

// BuildFactoid builds the full factoid document pairing one person with
// one source context.
func (b *Builder) BuildFactoid(ctx context.Context, p graph.Person, ref *graph.Reference) (FactoidDoc, error) {
	id := FactoidDocID(p, ref)

	prov, err := b.provenance(ctx, graph.KindPerson, p.ID)
	if err != nil {
		return FactoidDoc{}, &BuildError{DocType: TypeFactoid, ID: id, Err: err}
	}
	pref, err := b.personRef(ctx, p)
	if err != nil {
		return FactoidDoc{}, &BuildError{DocType: TypeFactoid, ID: id, Err: err}
	}
	sref, err := b.sourceRef(ctx, p, ref)
	if err != nil {
		return FactoidDoc{}, err
	}
	cores, err := b.statementCores(ctx, p, ref)
	if err != nil {
		return FactoidDoc{}, &BuildError{DocType: TypeFactoid, ID: id, Err: err}
	}

	refs := statementRefs(cores)
	return FactoidDoc{
		ID:         id,
		Provenance: prov,
		PersonID:   PersonDocID(p),
		ST:         refs,
		Statements: refs,
		S:          []SourceRef{sref},
		Person:     []PersonRef{pref},
	}, nil
}
