package publisher

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/cenkalti/backoff/v4"
	"github.com/flexprice/taxledger/internal/config"
	"github.com/flexprice/taxledger/internal/domain/taxation"
	ierr "github.com/flexprice/taxledger/internal/errors"
	"github.com/flexprice/taxledger/internal/logger"
	"github.com/flexprice/taxledger/internal/pubsub"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TaxationPublisher announces recorded taxations to downstream consumers
type TaxationPublisher interface {
	PublishRecorded(ctx context.Context, event *taxation.RecordedEvent) error
}

type taxationPublisher struct {
	pubsub pubsub.Publisher
	config *config.EventConfig
	logger *logger.Logger
}

// NewTaxationPublisher returns a publisher writing to the configured taxation topic.
// When events are disabled the returned publisher drops every event.
func NewTaxationPublisher(
	cfg *config.Configuration,
	logger *logger.Logger,
	pubSub pubsub.PubSub,
) TaxationPublisher {
	return &taxationPublisher{
		pubsub: pubSub,
		config: &cfg.Event,
		logger: logger,
	}
}

func (p *taxationPublisher) PublishRecorded(ctx context.Context, event *taxation.RecordedEvent) error {
	if !p.config.Enabled || p.pubsub == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to encode taxation event").
			Mark(ierr.ErrSystem)
	}

	msg := message.NewMessage(event.EventID, payload)
	msg.Metadata.Set("tenant_id", event.TenantID)
	msg.Metadata.Set("invoice_id", event.InvoiceID)

	b := backoff.WithContext(
		backoff.WithMaxRetries(newBackoff(), p.config.PublishMaxRetries),
		ctx,
	)

	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		if err := p.pubsub.Publish(ctx, p.config.TaxationTopic, msg); err != nil {
			p.logger.Warnw("failed to publish taxation event",
				"error", err,
				"event_id", event.EventID,
				"invoice_id", event.InvoiceID,
				"attempt", attempt,
			)
			return err
		}
		return nil
	}, b)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to publish taxation event").
			WithReportableDetails(map[string]any{
				"event_id":   event.EventID,
				"invoice_id": event.InvoiceID,
			}).
			Mark(ierr.ErrSystem)
	}

	p.logger.Debugw("published taxation event",
		"event_id", event.EventID,
		"tenant_id", event.TenantID,
		"invoice_id", event.InvoiceID,
		"topic", p.config.TaxationTopic,
	)
	return nil
}

func newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Second
	return b
}
