package config

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "chunk-jobs", cfg.KafkaSourceTopic)
	assert.Equal(t, "adjusted-chunks", cfg.KafkaSinkTopic)
	assert.Equal(t, "climate-debias", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
	assert.False(t, cfg.DebiasParallel)
	assert.Equal(t, 0, cfg.DebiasWorkers)
	assert.True(t, cfg.DebiasFailsafe)
	assert.True(t, math.IsNaN(cfg.DebiasFillValue))
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "5")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("DEBIAS_PARALLEL", "true")
	t.Setenv("DEBIAS_WORKERS", "8")
	t.Setenv("DEBIAS_FAILSAFE", "false")
	t.Setenv("DEBIAS_FILL_VALUE", "-9999")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 5, cfg.BatchSize)
	assert.Equal(t, time.Second, cfg.BatchFlushInterval)
	assert.True(t, cfg.DebiasParallel)
	assert.Equal(t, 8, cfg.DebiasWorkers)
	assert.False(t, cfg.DebiasFailsafe)
	assert.Equal(t, -9999.0, cfg.DebiasFillValue)
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"bad batch size", "BATCH_SIZE", "many"},
		{"zero batch size", "BATCH_SIZE", "0"},
		{"bad shutdown timeout", "SHUTDOWN_TIMEOUT", "soon"},
		{"bad fill value", "DEBIAS_FILL_VALUE", "null-ish"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}
