// Package backend provides the concrete query-engine adapters behind the
// federation orchestrator. Each adapter executes a scope handler's index
// pattern, query filter, and collapse config against one engine and returns
// parsed, normalized results. Adapters never resolve bucket lists; they
// receive explicit, non-empty bucket sets from the orchestrator.
package backend

// Adapter names as used in the backends request parameter.
const (
	NameElasticsearch = "elasticsearch"
	NameGraphQL       = "graphql"
)
