// Package fanout resolves an ordered batch of references concurrently and
// joins the results back into input order.
//
// Every listing and detail view is assembled the same way: fetch a page of
// lightweight references, then resolve each reference to its full record.
// The batch helpers issue one resolver call per item (optionally bounded by
// MaxConcurrency), wait for all of them, and return results in input order
// regardless of arrival order.
//
// Example usage:
//
//	cfg := fanout.Config{Name: "listing", Cap: 300}
//	creatures, err := fanout.Strict(ctx, cfg, list.Results, func(ctx context.Context, ref pokeapi.NamedResource) (*pokeapi.Pokemon, error) {
//		return api.PokemonByURL(ctx, ref.URL)
//	})
//
// Three failure policies are provided:
//   - Strict: the first failure cancels the rest and fails the batch
//   - Tolerant: failures are dropped, survivors keep their order
//   - Placeholder: failures stay in position as empty slots
package fanout
