package importer

import (
	"strings"

	"github.com/happon/Crawl-Server/internal/graphql"
)

const (
	// IDArgument is the argument name preferred on the validation mutation.
	IDArgument = "id"

	fallbackOperation = "validate"
)

// Capability is the outcome of negotiating a validation operation with the
// server's mutation catalog.
type Capability struct {
	// Supported is false when the server offers no usable validation call.
	Supported bool
	// Operation is the mutation field to call.
	Operation string
	// Argument is the argument the import id is bound to.
	Argument string
	// Composite is set when the field returns a type that needs a selection set.
	Composite bool
	// Reason explains an unsupported capability.
	Reason string
}

// Supported returns a capability for operation(argument).
func Supported(operation, argument string, composite bool) Capability {
	return Capability{Supported: true, Operation: operation, Argument: argument, Composite: composite}
}

// Unsupported returns a capability that requires manual validation.
func Unsupported(reason string) Capability {
	return Capability{Reason: reason}
}

// SelectValidation picks the validation mutation and the argument that
// carries the import id.
//
// Operations are searched in catalog order: first any name containing both
// "import" and "validate" (case-insensitive), then a field named "validate".
// The argument is the one named "id"; failing that, the first argument whose
// named type is ID. Anything else is Unsupported.
func SelectValidation(fields []graphql.Field) Capability {
	if len(fields) == 0 {
		return Unsupported("server exposes no mutations")
	}

	field, ok := selectOperation(fields)
	if !ok {
		return Unsupported("no validation mutation discovered")
	}

	arg, ok := selectArgument(field)
	if !ok {
		return Unsupported("mutation " + field.Name + " has no id argument" + describeArgs(field.Args))
	}
	return Supported(field.Name, arg, field.Type.IsComposite())
}

func selectOperation(fields []graphql.Field) (graphql.Field, bool) {
	for _, f := range fields {
		name := strings.ToLower(f.Name)
		if strings.Contains(name, "import") && strings.Contains(name, "validate") {
			return f, true
		}
	}
	for _, f := range fields {
		if f.Name == fallbackOperation {
			return f, true
		}
	}
	return graphql.Field{}, false
}

func selectArgument(field graphql.Field) (string, bool) {
	for _, a := range field.Args {
		if a.Name == IDArgument {
			return a.Name, true
		}
	}
	for _, a := range field.Args {
		if a.Type.Named().Name == "ID" {
			return a.Name, true
		}
	}
	return "", false
}

func describeArgs(args []graphql.InputValue) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Name + ": " + a.Type.String()
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
