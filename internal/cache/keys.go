package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func ModuleFlagsKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("modules:flags:%s", tenantID)
}

func RateLimitKey(tokenPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", tokenPrefix)
}
