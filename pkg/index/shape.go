package index

import "encoding/json"

// ShapeRule maps one field of a stored index document onto the wire shape
// served by the API. Rules are interpreted in order DecodeJSON, Child,
// Single, List; Nest rebuilds a value object out of "__"-flattened keys.
type ShapeRule struct {
	// Key is the field name in the stored document.
	Key string
	// As renames the field in the output. Empty keeps Key.
	As string
	// Nest rebuilds an object from keys of the form Key__sub.
	Nest []ShapeRule
	// Single unwraps a one-element list to its element.
	Single bool
	// DecodeJSON parses JSON-encoded string elements.
	DecodeJSON bool
	// List forces a list-shaped output value.
	List bool
	// Child applies the given rules to each element.
	Child []ShapeRule
}

func (r ShapeRule) name() string {
	if r.As != "" {
		return r.As
	}
	return r.Key
}

// idRefShape shapes a JSON-decoded id-only ref.
var idRefShape = []ShapeRule{
	{Key: "id", As: "@id", Single: true},
}

// factoidRefShape shapes an embedded factoid child into a factoid-ref.
var factoidRefShape = []ShapeRule{
	{Key: "doc_id", As: "@id", Single: true},
	{Key: "createdBy", Single: true},
	{Key: "modifiedBy", Single: true},
	{Key: "Person", As: "person-ref", DecodeJSON: true, Child: idRefShape, Single: true},
	{Key: "S", As: "source-ref", DecodeJSON: true, Child: idRefShape, Single: true},
	{Key: "ST", As: "statement-refs", DecodeJSON: true, Child: idRefShape, List: true},
}

// childRefShape shapes an embedded person or source child into a ref
// carrying id, label and uris.
var childRefShape = []ShapeRule{
	{Key: "doc_id", As: "@id", Single: true},
	{Key: "label", Single: true},
	{Key: "uris", List: true},
}

// childIDShape collapses an embedded child to its id.
var childIDShape = []ShapeRule{
	{Key: "doc_id", As: "@id", Single: true},
}

// relatesToPersonShape shapes a JSON-decoded related-person ref.
var relatesToPersonShape = []ShapeRule{
	{Key: "id", As: "@id", Single: true},
	{Key: "label", Single: true},
	{Key: "uris", List: true},
}

var uriLabelShape = []ShapeRule{
	{Key: "uri", Single: true},
	{Key: "label", Single: true},
}

var personShape = []ShapeRule{
	{Key: "doc_id", As: "@id", Single: true},
	{Key: "label", Single: true},
	{Key: "createdBy", Single: true},
	{Key: "createdWhen", Single: true},
	{Key: "modifiedBy", Single: true},
	{Key: "modifiedWhen", Single: true},
	{Key: "uris", List: true},
	{Key: "F", As: "factoid-refs", Child: factoidRefShape, List: true},
}

var factoidShape = []ShapeRule{
	{Key: "doc_id", As: "@id", Single: true},
	{Key: "createdBy", Single: true},
	{Key: "createdWhen", Single: true},
	{Key: "modifiedBy", Single: true},
	{Key: "modifiedWhen", Single: true},
	{Key: "Person", As: "person-ref", Child: childRefShape, Single: true},
	{Key: "S", As: "source-ref", Child: childRefShape, Single: true},
	{Key: "ST", As: "statement-refs", Child: childIDShape, List: true},
}

var sourceShape = []ShapeRule{
	{Key: "doc_id", As: "@id", Single: true},
	{Key: "label", Single: true},
	{Key: "uris", List: true},
	{Key: "createdBy", Single: true},
	{Key: "createdWhen", Single: true},
	{Key: "modifiedBy", Single: true},
	{Key: "modifiedWhen", Single: true},
	{Key: "F", As: "factoid-refs", Child: factoidRefShape, List: true},
}

var statementShape = []ShapeRule{
	{Key: "doc_id", As: "@id", Single: true},
	{Key: "createdBy", Single: true},
	{Key: "createdWhen", Single: true},
	{Key: "modifiedBy", Single: true},
	{Key: "modifiedWhen", Single: true},
	{Key: "statementType", Nest: uriLabelShape},
	{Key: "name", Single: true},
	{Key: "role", Nest: uriLabelShape},
	{Key: "date", Nest: []ShapeRule{
		{Key: "sortdate_dt", As: "sortdate", Single: true},
		{Key: "label", Single: true},
	}},
	{Key: "places", List: true, Nest: []ShapeRule{
		{Key: "uris", List: true},
		{Key: "label", Single: true},
	}},
	{Key: "relatesToPersons", DecodeJSON: true, Child: relatesToPersonShape, List: true},
	{Key: "memberOf", Nest: []ShapeRule{
		{Key: "uri", List: true},
		{Key: "label", Single: true},
	}},
	{Key: "statementText", Single: true},
	{Key: "F", As: "factoid-refs", Child: factoidRefShape, List: true},
}

// ShapePerson converts a stored person document into its response shape.
func ShapePerson(doc map[string]any) map[string]any {
	return applyShape(doc, personShape)
}

// ShapeFactoid converts a stored factoid document into its response shape.
func ShapeFactoid(doc map[string]any) map[string]any {
	return applyShape(doc, factoidShape)
}

// ShapeSource converts a stored source document into its response shape.
func ShapeSource(doc map[string]any) map[string]any {
	return applyShape(doc, sourceShape)
}

// ShapeStatement converts a stored statement document into its response
// shape.
func ShapeStatement(doc map[string]any) map[string]any {
	return applyShape(doc, statementShape)
}

func applyShape(doc map[string]any, rules []ShapeRule) map[string]any {
	out := make(map[string]any, len(rules))
	for _, rule := range rules {
		if rule.Nest != nil {
			obj := make(map[string]any, len(rule.Nest))
			for _, sub := range rule.Nest {
				v, ok := doc[rule.Key+"__"+sub.Key]
				if !ok {
					continue
				}
				if shaped, ok := applyValue(v, sub); ok {
					obj[sub.name()] = shaped
				}
			}
			if len(obj) == 0 {
				continue
			}
			if rule.List {
				out[rule.name()] = []any{obj}
			} else {
				out[rule.name()] = obj
			}
			continue
		}
		v, ok := doc[rule.Key]
		if !ok {
			continue
		}
		if shaped, ok := applyValue(v, rule); ok {
			out[rule.name()] = shaped
		}
	}
	return out
}

func applyValue(v any, rule ShapeRule) (any, bool) {
	list := asList(v)
	if rule.DecodeJSON {
		decoded := make([]any, 0, len(list))
		for _, el := range list {
			s, ok := el.(string)
			if !ok {
				decoded = append(decoded, el)
				continue
			}
			var parsed any
			if err := json.Unmarshal([]byte(s), &parsed); err == nil {
				decoded = append(decoded, parsed)
			}
		}
		list = decoded
	}
	if rule.Child != nil {
		shaped := make([]any, 0, len(list))
		for _, el := range list {
			m, ok := el.(map[string]any)
			if !ok {
				continue
			}
			shaped = append(shaped, applyShape(m, rule.Child))
		}
		list = shaped
	}
	if rule.Single {
		if len(list) == 0 {
			return nil, false
		}
		return list[0], true
	}
	if rule.List {
		return list, true
	}
	return v, true
}

func asList(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}
