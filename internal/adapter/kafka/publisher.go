// Package kafka publishes composite desk signals to the sink topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/galehop/weather-desk/internal/config"
	"github.com/galehop/weather-desk/internal/domain"
	"github.com/galehop/weather-desk/internal/market"
)

// Publisher produces one message per composite day, keyed by date so a
// topic compacted on date keeps only the freshest signal per day.
// It implements pipeline.SignalPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured sink topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishSignals serializes and publishes the composite days in a single
// WriteMessages call.
func (p *Publisher) PublishSignals(ctx context.Context, signals []market.CompositeDay) error {
	if len(signals) == 0 {
		return nil
	}

	computedAt := domain.NowRunStamp()
	msgs := make([]kafkago.Message, len(signals))
	for i := range signals {
		msg, err := serializeToMessage(signals[i], computedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// compositeSignal is the wire form of one composite day. Values carry the
// same rounding as the CSV artifact.
type compositeSignal struct {
	Date               string  `json:"date"`
	MasterTDD          float64 `json:"master_tdd"`
	DisagreementSpread float64 `json:"disagreement_spread"`
	VolatilityScore    float64 `json:"volatility_score"`
	PowerBurnProxy     float64 `json:"power_burn_proxy"`
	WindAnomaly        float64 `json:"wind_anomaly"`
	CompositeScore     float64 `json:"composite_score"`
	MarketBias         string  `json:"market_bias"`
	ComputedAt         string  `json:"computed_at"`
}

// serializeToMessage marshals a composite day into a Kafka message.
func serializeToMessage(day market.CompositeDay, computedAt time.Time) (kafkago.Message, error) {
	signal := compositeSignal{
		Date:               day.Date.Format(domain.DateLayout),
		MasterTDD:          domain.Round1(day.MasterTDD),
		DisagreementSpread: domain.Round1(day.Spread),
		VolatilityScore:    domain.Round1(day.Volatility),
		PowerBurnProxy:     domain.Round1(day.PowerBurn),
		WindAnomaly:        domain.Round1(day.WindAnom),
		CompositeScore:     domain.Round2(day.Score),
		MarketBias:         day.Bias,
		ComputedAt:         computedAt.Format(time.RFC3339),
	}
	data, err := json.Marshal(signal)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize composite signal: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(signal.Date),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "market_bias", Value: []byte(day.Bias)},
			{Key: "computed_at", Value: []byte(signal.ComputedAt)},
		},
	}, nil
}
