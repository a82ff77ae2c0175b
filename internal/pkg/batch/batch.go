// Package batch splits identifier sequences into platform bulk-delete calls.
package batch

import "context"

// DefaultSize is the platform's bulk delete limit.
const DefaultSize = 100

// Delete issues one bulk call per full chunk of size ids, in order, then
// handles the remainder by cardinality: nothing for zero, single for exactly
// one, bulk for more. Calls are sequential and the first error stops the run.
func Delete[T any](ctx context.Context, ids []T, size int,
	bulk func(context.Context, []T) error,
	single func(context.Context, T) error) error {
	if size <= 0 {
		size = DefaultSize
	}

	full := len(ids) / size * size
	for start := 0; start < full; start += size {
		if err := bulk(ctx, ids[start:start+size]); err != nil {
			return err
		}
	}

	remainder := ids[full:]
	switch len(remainder) {
	case 0:
		return nil
	case 1:
		return single(ctx, remainder[0])
	default:
		return bulk(ctx, remainder)
	}
}
