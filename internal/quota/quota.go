// Package quota tracks per-tenant usage of metered capabilities.
package quota

import (
	"context"
)

// CapabilityExtraction meters calls to the external extraction service.
const CapabilityExtraction = "extraction"

// Tracker consumes one unit of a tenant's quota for a capability. It reports
// false once the tenant's allowance is used up.
type Tracker interface {
	TryConsume(ctx context.Context, tenantID uint, capability string) (bool, error)
}
