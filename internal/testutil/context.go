package testutil

import (
	"context"

	"github.com/flexprice/taxledger/internal/types"
)

const DefaultTenantID = "tenant_00000000000000000000000000"

func SetupContext() context.Context {
	ctx := context.Background()
	ctx = types.SetTenantID(ctx, DefaultTenantID)
	ctx = types.SetRequestID(ctx, types.GenerateUUID())
	return ctx
}
