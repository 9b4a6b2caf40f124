package graphql

import (
	"bytes"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
)

// UploadScalar is the scalar name the multipart convention binds files to.
const UploadScalar = "Upload"

// ParseOperation parses query and returns its only operation.
func ParseOperation(query string) (*ast.OperationDefinition, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: "operation", Input: query})
	if err != nil {
		return nil, fmt.Errorf("parse operation: %w", err)
	}
	if len(doc.Operations) != 1 {
		return nil, fmt.Errorf("parse operation: expected exactly one operation, got %d", len(doc.Operations))
	}
	return doc.Operations[0], nil
}

// UploadVariable returns the name of the single Upload-typed variable that op
// declares.
func UploadVariable(op *ast.OperationDefinition) (string, error) {
	var found []string
	for _, def := range op.VariableDefinitions {
		if def.Type != nil && def.Type.Name() == UploadScalar {
			found = append(found, def.Variable)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("operation %q declares no %s variable", op.Name, UploadScalar)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("operation %q declares %d %s variables, want 1", op.Name, len(found), UploadScalar)
	}
}

// FieldMutation renders a mutation calling field with a single argument bound
// to value as a string literal. When composite is set the call selects
// __typename, which every object, interface and union type answers.
//
// Names are checked against the GraphQL Name grammar before rendering, and
// the rendered document is parsed back to make sure it is a single mutation.
func FieldMutation(field, argument, value string, composite bool) (string, error) {
	if !IsName(field) {
		return "", fmt.Errorf("invalid field name %q", field)
	}
	if !IsName(argument) {
		return "", fmt.Errorf("invalid argument name %q", argument)
	}

	call := &ast.Field{
		Name: field,
		Arguments: ast.ArgumentList{{
			Name:  argument,
			Value: &ast.Value{Kind: ast.StringValue, Raw: value},
		}},
	}
	if composite {
		call.SelectionSet = ast.SelectionSet{&ast.Field{Name: "__typename"}}
	}

	doc := &ast.QueryDocument{
		Operations: ast.OperationList{{
			Operation:    ast.Mutation,
			SelectionSet: ast.SelectionSet{call},
		}},
	}

	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatQueryDocument(doc)

	rendered := buf.String()
	op, err := ParseOperation(rendered)
	if err != nil {
		return "", fmt.Errorf("render mutation: %w", err)
	}
	if op.Operation != ast.Mutation {
		return "", fmt.Errorf("render mutation: got %s operation", op.Operation)
	}
	return rendered, nil
}

// IsName reports whether s matches the GraphQL Name production
// /[_A-Za-z][_0-9A-Za-z]*/.
func IsName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
