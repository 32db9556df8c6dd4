package cache

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

func IrradianceKey(city string) string {
	return fmt.Sprintf("irradiance:%s", strings.ToLower(strings.TrimSpace(city)))
}

func BatchResultKey(batchID uuid.UUID) string {
	return fmt.Sprintf("batch:%s", batchID)
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}
