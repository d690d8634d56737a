// Package router maps request shard hints to shard identifiers.
package router

// ShardRouter resolves the shard a search request should be served from.
// This revision routes to a single shard; ResolveMany exists so fan-out
// can be added without changing the orchestrator's call site.
type ShardRouter struct {
	defaultShard string
}

// New builds a router with the configured default shard.
func New(defaultShard string) *ShardRouter {
	return &ShardRouter{defaultShard: defaultShard}
}

// ResolveOne returns the requested key verbatim when non-empty, else the
// configured default.
func (r *ShardRouter) ResolveOne(requestedKey string) string {
	if requestedKey != "" {
		return requestedKey
	}
	return r.defaultShard
}

// ResolveMany returns the shards to fan out to; currently a singleton.
func (r *ShardRouter) ResolveMany(requestedKey string) []string {
	return []string{r.ResolveOne(requestedKey)}
}
