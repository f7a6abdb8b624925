package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("EODHD_API_KEY", "")
	t.Setenv("BATCH_GROUP_SIZE", "")
	t.Setenv("BATCH_COOLDOWN", "")

	cfg := Load()

	assert.Equal(t, 900, cfg.Batch.GroupSize)
	assert.Equal(t, 60*time.Second, cfg.Batch.Cooldown)
	assert.Equal(t, 2, cfg.Batch.HistoryYears)
	assert.Equal(t, 1, cfg.Batch.ForwardYears)
	assert.Equal(t, 30*24*time.Hour, cfg.Redis.TTL)
	assert.Equal(t, "earnings:", cfg.Redis.KeyPrefix)
	assert.Equal(t, 30*time.Second, cfg.Provider.RequestTimeout)
	assert.Equal(t, "US", cfg.Provider.Exchange)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("EODHD_API_KEY", "secret")
	t.Setenv("BATCH_GROUP_SIZE", "450")
	t.Setenv("BATCH_COOLDOWN", "90")
	t.Setenv("PROVIDER_REQUEST_TIMEOUT", "5s")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")

	cfg := Load()

	assert.Equal(t, "secret", cfg.Provider.APIKey)
	assert.Equal(t, 450, cfg.Batch.GroupSize)
	assert.Equal(t, 90*time.Second, cfg.Batch.Cooldown)
	assert.Equal(t, 5*time.Second, cfg.Provider.RequestTimeout)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("BATCH_GROUP_SIZE", "lots")
	t.Setenv("REDIS_TTL", "forever")

	cfg := Load()

	assert.Equal(t, 900, cfg.Batch.GroupSize)
	assert.Equal(t, 30*24*time.Hour, cfg.Redis.TTL)
}

func TestValidate(t *testing.T) {
	t.Setenv("EODHD_API_KEY", "secret")

	t.Run("valid configuration", func(t *testing.T) {
		require.NoError(t, Load().Validate())
	})

	t.Run("missing api key and bad group size", func(t *testing.T) {
		cfg := Load()
		cfg.Provider.APIKey = ""
		cfg.Batch.GroupSize = 0

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "EODHD_API_KEY")
		assert.Contains(t, err.Error(), "group size")
	})

	t.Run("negative cooldown", func(t *testing.T) {
		cfg := Load()
		cfg.Batch.Cooldown = -time.Second
		assert.Error(t, cfg.Validate())
	})
}

func TestConnectionString(t *testing.T) {
	d := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: "5432", DBName: "earnings", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/earnings?sslmode=disable", d.ConnectionString())
}
