package graphql

import (
	"encoding/json"
	"fmt"
)

// MutationCatalogQuery lists every mutation field with its arguments and
// return type. TypeRef follows ofType through enough wrappers to reach the
// named type of shapes such as [[Work!]!]!.
const MutationCatalogQuery = `query MutationCatalog {
  __schema {
    mutationType {
      fields {
        name
        args {
          name
          type { ...TypeRef }
        }
        type { ...TypeRef }
      }
    }
  }
}

fragment TypeRef on __Type {
  kind
  name
  ofType {
    kind
    name
    ofType {
      kind
      name
      ofType {
        kind
        name
        ofType {
          kind
          name
          ofType {
            kind
            name
            ofType { kind name }
          }
        }
      }
    }
  }
}`

// TypeRef is an introspected type reference. Wrapper kinds (NON_NULL, LIST)
// carry no name and point at the wrapped type through OfType.
type TypeRef struct {
	Kind   string   `json:"kind"`
	Name   string   `json:"name"`
	OfType *TypeRef `json:"ofType"`
}

// Named returns the innermost named type reachable from t.
func (t TypeRef) Named() TypeRef {
	cur := t
	for cur.Name == "" && cur.OfType != nil {
		cur = *cur.OfType
	}
	return cur
}

// IsComposite reports whether the named type needs a selection set.
func (t TypeRef) IsComposite() bool {
	switch t.Named().Kind {
	case "OBJECT", "INTERFACE", "UNION":
		return true
	}
	return false
}

// String renders t in SDL notation, e.g. "ID!" or "[String]".
func (t TypeRef) String() string {
	switch t.Kind {
	case "NON_NULL":
		if t.OfType == nil {
			return "!"
		}
		return t.OfType.String() + "!"
	case "LIST":
		if t.OfType == nil {
			return "[]"
		}
		return "[" + t.OfType.String() + "]"
	}
	return t.Name
}

// InputValue is an introspected field argument.
type InputValue struct {
	Name string  `json:"name"`
	Type TypeRef `json:"type"`
}

// Field is an introspected mutation field. Args keep the server's declared order.
type Field struct {
	Name string       `json:"name"`
	Args []InputValue `json:"args"`
	Type TypeRef      `json:"type"`
}

type mutationCatalogData struct {
	Schema *struct {
		MutationType *struct {
			Fields []Field `json:"fields"`
		} `json:"mutationType"`
	} `json:"__schema"`
}

// DecodeMutationCatalog extracts the mutation fields, in server order, from
// the data member of a MutationCatalogQuery response. A schema without a
// mutation type yields an empty catalog.
func DecodeMutationCatalog(data json.RawMessage) ([]Field, error) {
	if isNull(data) {
		return nil, nil
	}
	var decoded mutationCatalogData
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decode mutation catalog: %w", err)
	}
	if decoded.Schema == nil || decoded.Schema.MutationType == nil {
		return nil, nil
	}
	return decoded.Schema.MutationType.Fields, nil
}
