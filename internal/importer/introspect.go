package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/happon/Crawl-Server/internal/connector/http"
	"github.com/happon/Crawl-Server/internal/graphql"
)

// introspectMutations fetches the server's mutation catalog. Every failure is
// non-fatal: servers commonly disable introspection or restrict it by role.
// An empty catalog after a successful parse is not an error.
func introspectMutations(ctx context.Context, client *http.Client) ([]graphql.Field, *Error) {
	resp, err := client.PostJSON(ctx, graphql.NewRequest(graphql.MutationCatalogQuery))
	if err != nil {
		var statusErr *http.StatusError
		if !errors.As(err, &statusErr) || resp == nil {
			return nil, warning(CodeIntrospectionUnavailable, PhaseIntrospection, err)
		}
	}

	decoded, err := graphql.DecodeResponse(resp.Body)
	if err != nil {
		return nil, warning(CodeIntrospectionUnavailable, PhaseIntrospection,
			fmt.Errorf("HTTP %d: %w", resp.StatusCode, err))
	}
	if decoded.HasErrors() {
		w := warning(CodeIntrospectionUnavailable, PhaseIntrospection, decoded.Err())
		w.GraphQLErrors = decoded.Errors
		return nil, w
	}

	fields, err := graphql.DecodeMutationCatalog(decoded.Data)
	if err != nil {
		return nil, warning(CodeIntrospectionUnavailable, PhaseIntrospection, err)
	}
	return fields, nil
}
