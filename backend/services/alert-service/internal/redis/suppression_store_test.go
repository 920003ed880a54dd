package redisstore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"evmalert/backend/services/alert-service/internal/models"
)

func TestKeyRoundTrip(t *testing.T) {
	k := models.SuppressionKey{Condition: models.ConditionFaultCode, DeviceID: "EVM:07"}

	raw := key(k)
	assert.Equal(t, "alerts:suppression:fault_code:EVM:07", raw)

	parsed, ok := parseKey(raw)
	assert.True(t, ok)
	assert.Equal(t, k, parsed)
}

func TestParseKeyRejectsForeignKeys(t *testing.T) {
	for _, raw := range []string{
		"sessions:active:42",
		"alerts:suppression:",
		"alerts:suppression:low_battery",
		"alerts:suppression::EVM-1",
	} {
		_, ok := parseKey(raw)
		assert.False(t, ok, raw)
	}
}
