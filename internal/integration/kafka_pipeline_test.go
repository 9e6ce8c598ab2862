//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/galehop/weather-desk/internal/adapter/kafka"
	"github.com/galehop/weather-desk/internal/config"
	"github.com/galehop/weather-desk/internal/domain"
	"github.com/galehop/weather-desk/internal/market"
	"github.com/galehop/weather-desk/internal/observability"
	"github.com/galehop/weather-desk/internal/pipeline"
)

const testSinkTopic = "test-composite-signals"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("desk-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// compositeSignal mirrors the publisher's wire format.
type compositeSignal struct {
	Date       string  `json:"date"`
	MasterTDD  float64 `json:"master_tdd"`
	Spread     float64 `json:"disagreement_spread"`
	Volatility float64 `json:"volatility_score"`
	PowerBurn  float64 `json:"power_burn_proxy"`
	WindAnom   float64 `json:"wind_anomaly"`
	Score      float64 `json:"composite_score"`
	Bias       string  `json:"market_bias"`
	ComputedAt string  `json:"computed_at"`
}

// signalMessage holds a deserialized message read from the sink topic.
type signalMessage struct {
	Signal  compositeSignal
	Key     string
	Headers map[string]string
}

// readSignal reads a single message from the sink consumer and deserializes it.
func readSignal(ctx context.Context, t *testing.T, consumer *kafkago.Reader) signalMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var signal compositeSignal
	require.NoError(t, json.Unmarshal(msg.Value, &signal), "unmarshal sink message")

	return signalMessage{Signal: signal, Key: string(msg.Key), Headers: headers}
}

func newSinkConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestPublisherRoundTrip verifies the adapter layer: composite days published
// through the Publisher arrive on the sink topic with date keys, bias and
// timestamp headers, and the rounded wire values.
func TestPublisherRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	computedAt := time.Date(2026, time.January, 16, 12, 30, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(computedAt))
	defer domain.SetClock(nil)

	cfg := &config.Config{
		KafkaBrokers:   []string{broker},
		KafkaSinkTopic: testSinkTopic,
	}
	pub := kafkaadapter.NewPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = pub.Close() })

	signals := []market.CompositeDay{
		{
			Date:      time.Date(2026, time.January, 16, 0, 0, 0, 0, time.UTC),
			MasterTDD: 22.25, Spread: 2, Volatility: 40,
			PowerBurn: 10.8, WindAnom: -1.6,
			Score: 0.53, Bias: market.BiasStrongBull,
		},
		{
			Date:      time.Date(2026, time.January, 17, 0, 0, 0, 0, time.UTC),
			MasterTDD: 23.5, Spread: 3, Volatility: 60,
			Score: 0.37, Bias: market.BiasBullish,
		},
	}
	require.NoError(t, pub.PublishSignals(ctx, signals))

	consumer := newSinkConsumer(t, broker)

	first := readSignal(ctx, t, consumer)
	assert.Equal(t, "2026-01-16", first.Key)
	assert.Equal(t, market.BiasStrongBull, first.Headers["market_bias"])
	assert.Equal(t, "2026-01-16T12:30:00Z", first.Headers["computed_at"])

	assert.Equal(t, "2026-01-16", first.Signal.Date)
	assert.InDelta(t, 22.3, first.Signal.MasterTDD, 1e-9)
	assert.InDelta(t, 2.0, first.Signal.Spread, 1e-9)
	assert.InDelta(t, 40.0, first.Signal.Volatility, 1e-9)
	assert.InDelta(t, 0.53, first.Signal.Score, 1e-9)
	assert.Equal(t, market.BiasStrongBull, first.Signal.Bias)
	assert.Equal(t, "2026-01-16T12:30:00Z", first.Signal.ComputedAt)

	second := readSignal(ctx, t, consumer)
	assert.Equal(t, "2026-01-17", second.Key)
	assert.Equal(t, market.BiasBullish, second.Signal.Bias)
}

// TestDeskPublishesEndToEnd runs a full pass over a seeded data directory
// with a real broker and verifies the composite stage publishes one message
// per signal day alongside the CSV artifact.
func TestDeskPublishesEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	dataDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "outputs")

	writeFile(t, filepath.Join(dataDir, "gfs", "20260115_00.csv"),
		"date,mean_temp,tdd,mean_temp_gw,tdd_gw,run_id\n"+
			"2026-01-16,45.0,20.0,43.0,22.0,20260115_00\n"+
			"2026-01-17,43.0,22.0,41.0,24.0,20260115_00\n"+
			"2026-01-18,41.0,24.0,39.0,26.0,20260115_00\n")
	writeFile(t, filepath.Join(dataDir, "families", "ecmwf_hres", "20260115_00.csv"),
		"date,mean_temp,tdd,mean_temp_gw,tdd_gw,run_id\n"+
			"2026-01-16,46.0,19.0,44.0,21.0,20260115_00\n"+
			"2026-01-17,45.0,20.0,43.0,22.0,20260115_00\n")
	writeFile(t, filepath.Join(dataDir, "families", "aifs", "20260115_00.csv"),
		"date,mean_temp,tdd,mean_temp_gw,tdd_gw,run_id\n"+
			"2026-01-16,44.0,21.0,42.0,23.0,20260115_00\n"+
			"2026-01-17,42.0,23.0,40.0,25.0,20260115_00\n")

	fake := clockwork.NewFakeClockAt(time.Date(2026, time.January, 16, 12, 0, 0, 0, time.UTC))
	domain.SetClock(fake)
	defer domain.SetClock(nil)

	cfg := &config.Config{
		DataDir:        dataDir,
		OutputDir:      outputDir,
		StatePath:      filepath.Join(dataDir, "pipeline_state.json"),
		PollInterval:   time.Minute,
		KafkaBrokers:   []string{broker},
		KafkaSinkTopic: testSinkTopic,
		PublishEnabled: true,
		Engine:         config.DefaultEngine(65),
	}

	pub := kafkaadapter.NewPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = pub.Close() })

	desk := pipeline.New(cfg, config.DefaultTables(), discardLogger(),
		observability.NewMetricsForTesting(), fake, pub)
	require.NoError(t, desk.Run(ctx))

	_, err := os.Stat(filepath.Join(outputDir, "composite_signal.csv"))
	require.NoError(t, err, "composite artifact should be written")

	consumer := newSinkConsumer(t, broker)

	byDate := map[string]signalMessage{}
	for len(byDate) < 2 {
		sm := readSignal(ctx, t, consumer)
		byDate[sm.Signal.Date] = sm
	}

	jan16, ok := byDate["2026-01-16"]
	require.True(t, ok, "signal for 2026-01-16")
	assert.Equal(t, "2026-01-16", jan16.Key)
	assert.InDelta(t, 22.0, jan16.Signal.MasterTDD, 1e-9)
	assert.InDelta(t, 2.0, jan16.Signal.Spread, 1e-9)
	assert.InDelta(t, 40.0, jan16.Signal.Volatility, 1e-9)
	assert.InDelta(t, 0.48, jan16.Signal.Score, 0.005)
	assert.Equal(t, market.BiasBullish, jan16.Signal.Bias)

	jan17, ok := byDate["2026-01-17"]
	require.True(t, ok, "signal for 2026-01-17")
	assert.InDelta(t, 23.5, jan17.Signal.MasterTDD, 1e-9)
	assert.InDelta(t, 60.0, jan17.Signal.Volatility, 1e-9)
	assert.Equal(t, market.BiasBullish, jan17.Signal.Bias)

	for _, sm := range byDate {
		assert.NotEmpty(t, sm.Headers["market_bias"], "missing market_bias header")
		_, err := time.Parse(time.RFC3339, sm.Headers["computed_at"])
		assert.NoError(t, err, "computed_at should be valid RFC3339")
	}

	// No extra message: one signal per day, published once.
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err = consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no third message on sink topic")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
