package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("BOOKING_SERVICE_PORT", "9090")
	t.Setenv("BOOKING_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("BOOKING_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("BOOKING_RATE_LIMIT_PER_MINUTE", "60")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "service_booking", cfg.DBConfig.DBName)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaConfig.Brokers)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisConfig.URL)
	assert.Equal(t, 60, cfg.RateLimitConfig.RequestsPerMinute)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("BOOKING_APP_ENV", "production")
	t.Setenv("BOOKING_JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}
