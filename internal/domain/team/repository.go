package team

import "context"

// Writer upserts team references by their normalized path.
type Writer interface {
	UpsertByPath(ctx context.Context, ref Reference) (Reference, error)
}
