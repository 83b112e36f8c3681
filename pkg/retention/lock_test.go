package retention

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLockerFromConfig_DisabledWhenEnvUnset(t *testing.T) {
	t.Setenv("RETENTION_TEST_REDIS_ADDR_UNSET", "")
	locker := NewLockerFromConfig("RETENTION_TEST_REDIS_ADDR_UNSET")
	assert.Nil(t, locker, "an empty/unset env var must disable the lock, not return a locker with an empty address")
}

func TestNewLockerFromConfig_BuildsClientWhenAddrSet(t *testing.T) {
	key := "RETENTION_TEST_REDIS_ADDR_SET"
	t.Setenv(key, "localhost:6379")

	locker := NewLockerFromConfig(key)
	assert.NotNil(t, locker)
}
