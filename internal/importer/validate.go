package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/happon/Crawl-Server/internal/connector/http"
	"github.com/happon/Crawl-Server/internal/graphql"
)

// invokeValidation calls the negotiated validation mutation for importID.
// The import id comes from the server's own upload response and is bound as
// a string literal. Any top-level errors member, even empty, means the validation
// failed; any failure here is non-fatal.
func invokeValidation(ctx context.Context, client *http.Client, capability Capability, importID string) *Error {
	query, err := graphql.FieldMutation(capability.Operation, capability.Argument, importID, capability.Composite)
	if err != nil {
		return warning(CodeValidationFailed, PhaseValidation, err)
	}

	resp, err := client.PostJSON(ctx, graphql.NewRequest(query))
	var statusErr *http.StatusError
	if err != nil && (!errors.As(err, &statusErr) || resp == nil) {
		return warning(CodeValidationFailed, PhaseValidation, err)
	}

	decoded, decodeErr := graphql.DecodeResponse(resp.Body)
	if decodeErr != nil {
		return warning(CodeValidationFailed, PhaseValidation,
			fmt.Errorf("HTTP %d: %w", resp.StatusCode, decodeErr))
	}
	if decoded.HasErrors() {
		w := warning(CodeValidationFailed, PhaseValidation, decoded.Err())
		w.GraphQLErrors = decoded.Errors
		return w
	}
	if statusErr != nil {
		return warning(CodeValidationFailed, PhaseValidation, statusErr)
	}
	return nil
}
