package index

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ipif/pkg/graph"
)

// statementCore holds the own fields of one statement, without the
// cross-referencing children. Builders derive the statement documents and
// the embedded statement refs of persons, factoids and sources from the
// same cores, so both always agree.
type statementCore struct {
	ID               string
	URIs             []string
	StatementType    Labeled
	Name             string
	Role             Labeled
	Date             Date
	Places           MultiLabeled
	RelatesToPersons []PersonRef
	MemberOf         MemberOf
	StatementText    string
	Provenance       Provenance
}

func (c statementCore) ref() StatementRef {
	return StatementRef{
		ID:               c.ID,
		CreatedBy:        c.Provenance.CreatedBy,
		ModifiedBy:       c.Provenance.ModifiedBy,
		StatementType:    c.StatementType,
		Name:             c.Name,
		Role:             c.Role,
		Date:             c.Date,
		Places:           c.Places,
		RelatesToPersons: c.RelatesToPersons,
		MemberOf:         c.MemberOf,
		StatementText:    c.StatementText,
	}
}

// attribution resolves which relation rows and person fields a reference
// context covers. A nil attribution (outside any reference context) covers
// everything.
type attribution struct {
	relationIDs []int64
	fields      map[string]bool
}

func (b *Builder) attributionFor(ctx context.Context, p graph.Person, ref *graph.Reference) (*attribution, error) {
	if ref == nil {
		return nil, nil
	}
	rows, err := b.reader.ReferencesByURL(ctx, ref.BibsURL)
	if err != nil {
		return nil, fmt.Errorf("references for url %q: %w", ref.BibsURL, err)
	}
	attr := &attribution{
		relationIDs: make([]int64, 0, len(rows)),
		fields:      make(map[string]bool),
	}
	for _, row := range rows {
		if row.ObjectID == p.ID {
			if row.Attribute != "" {
				attr.fields[row.Attribute] = true
			}
			continue
		}
		attr.relationIDs = append(attr.relationIDs, row.ObjectID)
	}
	return attr, nil
}

func (a *attribution) coversRelation(id int64) bool {
	if a == nil {
		return true
	}
	for _, rid := range a.relationIDs {
		if rid == id {
			return true
		}
	}
	return false
}

func (a *attribution) coversField(field string) bool {
	if a == nil {
		return true
	}
	return a.fields[field]
}

// statementCores derives all statements of one person within one source
// context. A nil ref is the person's implicit original source and yields
// the full statement set; a reference context is restricted to the
// relations and fields the reference attributes.
func (b *Builder) statementCores(ctx context.Context, p graph.Person, ref *graph.Reference) ([]statementCore, error) {
	attr, err := b.attributionFor(ctx, p, ref)
	if err != nil {
		return nil, err
	}

	var cores []statementCore

	typed, err := b.typedRelationCores(ctx, p, attr)
	if err != nil {
		return nil, err
	}
	cores = append(cores, typed...)

	personal, err := b.personRelationCores(ctx, p, attr)
	if err != nil {
		return nil, err
	}
	cores = append(cores, personal...)

	cores = append(cores, attributeCores(p, attr)...)

	vocab, err := b.vocabCores(ctx, p, attr)
	if err != nil {
		return nil, err
	}
	cores = append(cores, vocab...)

	return cores, nil
}

// revisionKind maps a relation kind to its audit-history label.
func revisionKind(kind graph.RelationKind) string {
	return strings.ToLower(string(kind))
}

func (b *Builder) typedRelationCores(ctx context.Context, p graph.Person, attr *attribution) ([]statementCore, error) {
	var onlyIDs []int64
	if attr != nil {
		onlyIDs = attr.relationIDs
		if onlyIDs == nil {
			onlyIDs = []int64{}
		}
	}

	var cores []statementCore
	for _, kind := range graph.RelationKinds() {
		rels, err := b.reader.TypedRelations(ctx, p.ID, kind, onlyIDs)
		if err != nil {
			return nil, fmt.Errorf("%s relations of person %d: %w", kind, p.ID, err)
		}
		for _, rel := range rels {
			prov, err := b.provenance(ctx, revisionKind(kind), rel.ID)
			if err != nil {
				return nil, err
			}
			// The person side reads the relation backwards, so the
			// reverse name wins when the type carries one.
			role := rel.TypeReverseName
			if role == "" {
				role = rel.TypeName
			}
			core := statementCore{
				ID:            TypedStatementID(p.ID, kind, rel.ID),
				StatementType: Labeled{Label: "relatedTo" + strings.TrimPrefix(string(kind), "Person")},
				Role:          Labeled{Label: role},
				Date:          dateOf(rel.StartDate, rel.EndDate, ""),
				StatementText: fmt.Sprintf("%s (%s) %s", personLabel(p), role, rel.RelatedName),
				Provenance:    prov,
			}
			switch kind {
			case graph.RelationInstitution:
				core.MemberOf = MemberOf{URIs: rel.RelatedURIs, Label: rel.RelatedName}
			case graph.RelationPlace:
				core.Places = MultiLabeled{URIs: rel.RelatedURIs, Label: rel.RelatedName}
			}
			cores = append(cores, core)
		}
	}
	return cores, nil
}

func (b *Builder) personRelationCores(ctx context.Context, p graph.Person, attr *attribution) ([]statementCore, error) {
	rels, err := b.reader.PersonRelations(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("person relations of person %d: %w", p.ID, err)
	}

	var cores []statementCore
	for _, rel := range rels {
		if !attr.coversRelation(rel.ID) {
			continue
		}

		otherID := rel.PersonBID
		role := rel.TypeName
		if rel.PersonBID == p.ID {
			otherID = rel.PersonAID
			role = rel.TypeReverseName
		}

		var related []PersonRef
		otherLabel := ""
		other, err := b.reader.PersonByID(ctx, otherID)
		switch {
		case err == nil:
			pref, err := b.personRef(ctx, other)
			if err != nil {
				return nil, err
			}
			related = []PersonRef{pref}
			otherLabel = pref.Label
		case errors.Is(err, graph.ErrNotFound):
			related = []PersonRef{{ID: fmt.Sprintf("%d", otherID)}}
		default:
			return nil, fmt.Errorf("person %d: %w", otherID, err)
		}

		prov, err := b.provenance(ctx, graph.KindPersonPersonRel, rel.ID)
		if err != nil {
			return nil, err
		}
		cores = append(cores, statementCore{
			ID:               PersonRelationStatementID(p.ID, rel.TypeID, rel.ID),
			StatementType:    Labeled{Label: "relatedToPerson"},
			Role:             Labeled{Label: role},
			Date:             dateOf(rel.StartDate, rel.EndDate, rel.StartDateWritten),
			RelatesToPersons: related,
			StatementText:    strings.TrimSpace(fmt.Sprintf("%s (%s) %s", personLabel(p), role, otherLabel)),
			Provenance:       prov,
		})
	}
	return cores, nil
}

// attributeCores fans the scalar person fields out into statements.
// Attribute statements carry no provenance of their own; empty fields
// yield nothing.
func attributeCores(p graph.Person, attr *attribution) []statementCore {
	var cores []statementCore
	add := func(field string, core statementCore) {
		if !attr.coversField(field) {
			return
		}
		core.ID = AttributeStatementID(p.ID, field)
		cores = append(cores, core)
	}

	if p.Name != "" {
		add("name", statementCore{
			StatementType: Labeled{Label: "hasName"},
			Name:          p.Name,
			Role:          Labeled{Label: "has name"},
			StatementText: "has name " + p.Name,
		})
	}
	if p.FirstName != "" {
		add("first_name", statementCore{
			StatementType: Labeled{Label: "hasFirstName"},
			Name:          p.FirstName,
			Role:          Labeled{Label: "has first name"},
			StatementText: "has first name " + p.FirstName,
		})
	}
	if p.Gender != "" {
		add("gender", statementCore{
			StatementType: Labeled{URI: "statement_type_uri", Label: "hasGender"},
			Role:          Labeled{Label: "gender"},
			StatementText: "has gender " + p.Gender,
		})
	}
	if p.StartDate != nil {
		add("start_date", statementCore{
			StatementType: Labeled{Label: "birth"},
			Role:          Labeled{Label: "birth"},
			Date:          dateOf(p.StartDate, nil, p.StartDateWritten),
			StatementText: "born " + p.StartDate.Format("2006-01-02"),
		})
	}
	if p.EndDate != nil {
		add("end_date", statementCore{
			StatementType: Labeled{Label: "death"},
			Role:          Labeled{Label: "death"},
			Date:          dateOf(p.EndDate, nil, ""),
			StatementText: "died " + p.EndDate.Format("2006-01-02"),
		})
	}
	return cores
}

func (b *Builder) vocabCores(ctx context.Context, p graph.Person, attr *attribution) ([]statementCore, error) {
	var cores []statementCore
	for _, field := range graph.VocabFields() {
		if !attr.coversField(field) {
			continue
		}
		values, err := b.reader.VocabValues(ctx, p.ID, field)
		if err != nil {
			return nil, fmt.Errorf("%s values of person %d: %w", field, p.ID, err)
		}
		for _, v := range values {
			cores = append(cores, statementCore{
				ID:            VocabStatementID(p.ID, field, v.ID),
				StatementType: Labeled{Label: v.Name},
				Role:          Labeled{URI: "NONE", Label: field},
				StatementText: fmt.Sprintf("has %s %s", field, v.Name),
			})
		}
	}
	return cores, nil
}

// BuildStatements builds the full statement documents of one person within
// one source context. Statement ids are stable across contexts, so the
// same statement may be rebuilt with identical content from several
// contexts of one rebuild run.
func (b *Builder) BuildStatements(ctx context.Context, p graph.Person, ref *graph.Reference) ([]StatementDoc, error) {
	cores, err := b.statementCores(ctx, p, ref)
	if err != nil {
		return nil, &BuildError{DocType: TypeStatement, ID: PersonDocID(p), Err: err}
	}
	pref, err := b.personRef(ctx, p)
	if err != nil {
		return nil, &BuildError{DocType: TypeStatement, ID: PersonDocID(p), Err: err}
	}
	sref, err := b.sourceRef(ctx, p, ref)
	if err != nil {
		return nil, err
	}
	fref := factoidRefFromCores(p, ref, pref.CreatedBy, pref.ModifiedBy, cores)

	docs := make([]StatementDoc, 0, len(cores))
	for _, core := range cores {
		docs = append(docs, StatementDoc{
			ID:               core.ID,
			URIs:             core.URIs,
			StatementType:    core.StatementType,
			Name:             core.Name,
			Role:             core.Role,
			Date:             core.Date,
			Places:           core.Places,
			RelatesToPersons: core.RelatesToPersons,
			MemberOf:         core.MemberOf,
			StatementText:    core.StatementText,
			Provenance:       core.Provenance,
			P:                []PersonRef{pref},
			F:                []FactoidRef{fref},
			S:                []SourceRef{sref},
		})
	}
	return docs, nil
}

func statementRefs(cores []statementCore) []StatementRef {
	refs := make([]StatementRef, 0, len(cores))
	for _, core := range cores {
		refs = append(refs, core.ref())
	}
	return refs
}
