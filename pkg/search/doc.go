// Package search is the cross-entity search engine behind the estatedesk
// search box, JSON API and CLI.
//
// # Overview
//
// A query is fanned out to every entity type (properties, agents, managers,
// brokerages, estimates, visits, admins) the caller is allowed to see. Each
// entity fetch is independent: they run concurrently, the service waits for
// all of them to settle, and a failed fetch contributes an empty slot
// instead of an error. The merged core.ResultSet always carries all seven
// slots.
//
// # Components
//
//   - Service: the aggregator. Search(ctx, query, limit, perms).
//   - Cache: per-entity check-then-store cache keyed on entity type, query and
//     filter signature. Entries expire lazily after the TTL (5 minutes by
//     default); Sweep and Stats prune expired entries.
//   - PermissionMap: per-entity search flags derived from a permission.Set.
//   - Session: a live search bound to one consumer (a websocket). It debounces
//     keystrokes through pkg/debounce, cancels the previous in-flight search
//     when a newer one starts and drops results older than the newest
//     invocation.
//   - ParseParams: reads q, limit and entity from HTTP query strings.
//
// # Usage
//
//	svc := search.NewService(client)
//	perms := search.PermissionsFor(svc.Registry(), profile.Permissions.Set())
//	results := svc.Search(ctx, "smith", 5, perms)
//	for _, rec := range results[core.Agents] {
//		fmt.Println(rec.DisplayName())
//	}
//
// Entity types denied by the permission map are never fetched and their slot
// stays empty, even when a previous unrestricted search cached data for the
// same query: cache keys always include the entity type, and the service
// only consults the cache for allowed types.
package search
