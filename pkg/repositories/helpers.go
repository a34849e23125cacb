package repositories

import (
	"context"
	"fmt"

	"github.com/dailies-studio/dailies-engine/pkg/database"
)

// querierFrom pulls the active querier (pool or transaction) out of the
// context. Every repository method goes through it so services can run
// any call transactionally by swapping the querier.
func querierFrom(ctx context.Context) (database.Querier, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database querier in context")
	}
	return q, nil
}

// nullableString maps empty to NULL for optional text columns.
func nullableString(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
