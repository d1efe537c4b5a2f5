package index

import (
	"encoding/json"
	"fmt"
)

// childMode controls how an embedded child list is stored in the core.
type childMode int

const (
	// childNested stores each element as a nested child document with a
	// synthetic id, so block-join queries can match it.
	childNested childMode = iota
	// childJSON stores each element as a JSON-encoded string. Used for
	// deep children that are returned verbatim but never queried.
	childJSON
	// childSplat flattens the elements into multi-valued prefixed fields
	// on the carrying document, so their values stay searchable without
	// another nesting level.
	childSplat
)

// storeSpecs lists the child-list fields of each root document type.
// Fields absent here are stored as plain (possibly flattened) values.
var storeSpecs = map[string]map[string]childMode{
	TypePerson: {
		"S":  childNested,
		"ST": childNested,
		"F":  childNested,
	},
	TypeFactoid: {
		"ST":         childNested,
		"S":          childNested,
		"Statements": childNested,
		"Person":     childNested,
	},
	TypeSource: {
		"ST":         childNested,
		"Statements": childNested,
		"P":          childNested,
		"Persons":    childNested,
		"F":          childNested,
		"Factoids":   childNested,
	},
	TypeStatement: {
		"relatesToPersons": childJSON,
		"P":                childNested,
		"F":                childNested,
		"S":                childNested,
	},
}

// childInnerModes describes how the second nesting level collapses inside
// a nested child, keyed by the child's field name. Statement children keep
// their related persons searchable via splatted fields; factoid children
// carry id-only refs that only need to survive the round trip.
var childInnerModes = map[string]map[string]childMode{
	"ST":         {"relatesToPersons": childSplat},
	"Statements": {"relatesToPersons": childSplat},
	"F":          {"Person": childJSON, "S": childJSON, "ST": childJSON},
	"Factoids":   {"Person": childJSON, "S": childJSON, "ST": childJSON},
}

// encodeDoc converts a document struct into the map shape sent to the
// update API: doc_id/doc_type discriminators on the root, value objects
// flattened with "__", and child lists encoded per storeSpecs. Nested
// children get a synthetic unique id derived from the parent id, their
// field name and their ordinal, keeping their logical id in doc_id.
func encodeDoc(docType string, v any) (map[string]any, error) {
	m, err := toMap(v)
	if err != nil {
		return nil, err
	}
	id, _ := m["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("%s document without id", docType)
	}
	m["doc_id"] = id
	m["doc_type"] = docType

	for field, mode := range storeSpecs[docType] {
		raw, ok := m[field].([]any)
		if !ok || len(raw) == 0 {
			continue
		}
		switch mode {
		case childJSON:
			encoded, err := encodeJSONList(raw)
			if err != nil {
				return nil, fmt.Errorf("%s %s field %s: %w", docType, id, field, err)
			}
			m[field] = encoded
		case childSplat:
			delete(m, field)
			splatInto(m, field, raw)
		case childNested:
			children, err := encodeChildren(id, field, raw)
			if err != nil {
				return nil, fmt.Errorf("%s %s field %s: %w", docType, id, field, err)
			}
			m[field] = children
		}
	}

	return flatten(m), nil
}

// encodeChildren turns one child list into nested child documents.
func encodeChildren(parentID, field string, raw []any) ([]any, error) {
	inner := childInnerModes[field]
	out := make([]any, 0, len(raw))
	for i, el := range raw {
		child, ok := el.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("element %d is not an object", i)
		}
		for sub, mode := range inner {
			sraw, ok := child[sub].([]any)
			if !ok || len(sraw) == 0 {
				continue
			}
			switch mode {
			case childJSON:
				encoded, err := encodeJSONList(sraw)
				if err != nil {
					return nil, fmt.Errorf("element %d field %s: %w", i, sub, err)
				}
				child[sub] = encoded
			case childSplat:
				delete(child, sub)
				splatInto(child, sub, sraw)
			}
		}
		logicalID, _ := child["id"].(string)
		child = flatten(child)
		child["id"] = fmt.Sprintf("%s/%s/%d", parentID, field, i)
		child["doc_id"] = logicalID
		child["child_field"] = field
		out = append(out, child)
	}
	return out, nil
}

func encodeJSONList(raw []any) ([]any, error) {
	out := make([]any, 0, len(raw))
	for _, el := range raw {
		data, err := json.Marshal(el)
		if err != nil {
			return nil, err
		}
		out = append(out, string(data))
	}
	return out, nil
}

// splatInto flattens a list of objects into multi-valued prefixed fields
// on dst, e.g. relatesToPersons__id and relatesToPersons__uris.
func splatInto(dst map[string]any, field string, raw []any) {
	for _, el := range raw {
		obj, ok := el.(map[string]any)
		if !ok {
			continue
		}
		for k, v := range flatten(obj) {
			key := field + "__" + k
			if list, ok := v.([]any); ok {
				dst[key] = appendList(dst[key], list...)
				continue
			}
			dst[key] = appendList(dst[key], v)
		}
	}
}

func appendList(existing any, values ...any) []any {
	list, _ := existing.([]any)
	return append(list, values...)
}

// flatten replaces nested value objects with "__"-joined keys. Lists are
// left alone; child lists are handled before flattening runs.
func flatten(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if sub, ok := v.(map[string]any); ok {
			for sk, sv := range flatten(sub) {
				out[k+"__"+sk] = sv
			}
			continue
		}
		out[k] = v
	}
	return out
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return m, nil
}

// SolrDoc encodes the person document for the update API.
func (d PersonDoc) SolrDoc() (map[string]any, error) {
	return encodeDoc(TypePerson, d)
}

// SolrDoc encodes the factoid document for the update API.
func (d FactoidDoc) SolrDoc() (map[string]any, error) {
	return encodeDoc(TypeFactoid, d)
}

// SolrDoc encodes the source document for the update API.
func (d SourceDoc) SolrDoc() (map[string]any, error) {
	return encodeDoc(TypeSource, d)
}

// SolrDoc encodes the statement document for the update API.
func (d StatementDoc) SolrDoc() (map[string]any, error) {
	return encodeDoc(TypeStatement, d)
}
