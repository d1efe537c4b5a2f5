package index

import (
	"context"
	"fmt"
	"time"

	"ipif/pkg/graph"
)

// BuildError marks a single document that could not be built. The rebuild
// loop logs and skips these instead of aborting the whole run.
type BuildError struct {
	DocType string
	ID      string
	Err     error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build %s %s: %v", e.DocType, e.ID, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Builder derives index documents from the relational entity store. It is
// stateless apart from the reader and safe for concurrent use.
type Builder struct {
	reader graph.Reader
}

// NewBuilder creates a Builder over the given store reader.
func NewBuilder(reader graph.Reader) *Builder {
	return &Builder{reader: reader}
}

// provenance derives creator/modifier info from an entity's revision
// history. No history yields a zero Provenance, which is omitted from the
// stored document.
func (b *Builder) provenance(ctx context.Context, entityKind string, entityID int64) (Provenance, error) {
	revs, err := b.reader.Revisions(ctx, entityKind, entityID)
	if err != nil {
		return Provenance{}, fmt.Errorf("revisions of %s %d: %w", entityKind, entityID, err)
	}
	if len(revs) == 0 {
		return Provenance{}, nil
	}
	first, last := revs[0], revs[len(revs)-1]
	return Provenance{
		CreatedBy:    first.Username,
		CreatedWhen:  timePtr(first.CreatedAt),
		ModifiedBy:   last.Username,
		ModifiedWhen: timePtr(last.CreatedAt),
	}, nil
}

// personLabel renders the display label of a person.
func personLabel(p graph.Person) string {
	switch {
	case p.Name != "" && p.FirstName != "":
		return fmt.Sprintf("%s, %s (%d)", p.Name, p.FirstName, p.ID)
	case p.Name != "":
		return fmt.Sprintf("%s (%d)", p.Name, p.ID)
	default:
		return fmt.Sprintf("(%d)", p.ID)
	}
}

// personRef builds the shallow person copy embedded in other documents.
func (b *Builder) personRef(ctx context.Context, p graph.Person) (PersonRef, error) {
	uris, err := b.reader.URIs(ctx, p.ID)
	if err != nil {
		return PersonRef{}, fmt.Errorf("uris of person %d: %w", p.ID, err)
	}
	prov, err := b.provenance(ctx, graph.KindPerson, p.ID)
	if err != nil {
		return PersonRef{}, err
	}
	return PersonRef{
		ID:         PersonDocID(p),
		URIs:       uris,
		Label:      personLabel(p),
		CreatedBy:  prov.CreatedBy,
		ModifiedBy: prov.ModifiedBy,
	}, nil
}

// dateOf combines start/end dates and the hand-written date string into
// the statement date value. The sort date prefers the start date; a full
// start/end pair labels as the joined range, otherwise the label falls
// back from start over the written form to the end date.
func dateOf(start, end *time.Time, written string) Date {
	d := Date{SortDate: start}
	if d.SortDate == nil {
		d.SortDate = end
	}
	switch {
	case start != nil && end != nil:
		d.Label = start.Format("2006-01-02") + "-" + end.Format("2006-01-02")
	case start != nil:
		d.Label = start.Format("2006-01-02")
	case written != "":
		d.Label = written
	case end != nil:
		d.Label = end.Format("2006-01-02")
	}
	return d
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
