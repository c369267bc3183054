// Package kafka is a trigger source that consumes S3 event notifications
// from Kafka topics with a sarama consumer group.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/IBM/sarama"

	"lbship/internal/logging"
	"lbship/source"
	"lbship/source/s3"
)

type SaramaDriver struct {
	cfg   Config
	cl    sarama.Client
	group sarama.ConsumerGroup
}

func (d *SaramaDriver) Configure(raw any) error {
	config, ok := raw.(Config)
	if !ok {
		return fmt.Errorf("kafka-source: expected Config, got %T", raw)
	}
	d.cfg = config

	ver, err := sarama.ParseKafkaVersion(config.Version)
	if err != nil {
		return err
	}
	sc := sarama.NewConfig()
	sc.Version = ver
	sc.Consumer.Return.Errors = true
	if config.TLSEn {
		sc.Net.TLS.Enable = true
	}
	if config.SASLUser != "" {
		sc.Net.SASL.Enable = true
		sc.Net.SASL.User, sc.Net.SASL.Password = config.SASLUser, config.SASLPass
	}
	switch config.StartFrom {
	case "oldest":
		sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	default:
		sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	if d.cl, err = sarama.NewClient(config.Brokers, sc); err != nil {
		return err
	}
	d.group, err = sarama.NewConsumerGroupFromClient(config.GroupID, d.cl)
	return err
}

func (d *SaramaDriver) Run(ctx context.Context, handle source.HandleFunc) error {
	go func() {
		for err := range d.group.Errors() {
			logging.L().Warn("kafka-source: consumer error", "err", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	handler := &groupHandler{handle: handle, policy: d.cfg.OnError, stop: cancel}
	for {
		err := d.group.Consume(ctx, d.cfg.Topics, handler)
		if stopErr := handler.err(); stopErr != nil {
			return stopErr
		}
		if err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (d *SaramaDriver) Close() error {
	return errors.Join(d.group.Close(), d.cl.Close())
}

type groupHandler struct {
	handle source.HandleFunc
	policy ErrorPolicy
	stop   context.CancelFunc

	mu      sync.Mutex
	stopErr error // first failure under OnErrorStop
}

func (h *groupHandler) err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopErr
}

func (h *groupHandler) fail(err error) error {
	h.mu.Lock()
	if h.stopErr == nil {
		h.stopErr = err
	}
	h.mu.Unlock()
	if h.stop != nil {
		h.stop()
	}
	return err
}

func (*groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (*groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case <-sess.Context().Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.process(sess, msg); err != nil {
				return err
			}
		}
	}
}

func (h *groupHandler) process(sess sarama.ConsumerGroupSession, msg *sarama.ConsumerMessage) error {
	log := logging.L().With("topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)

	ev, err := s3.DecodeEvent(msg.Value)
	if err != nil {
		// Undecodable notifications never succeed on redelivery.
		log.Warn("kafka-source: dropping undecodable event", "err", err)
		sess.MarkMessage(msg, "")
		return nil
	}
	if err := h.handle(sess.Context(), ev); err != nil {
		if h.policy == OnErrorStop {
			return h.fail(fmt.Errorf("kafka-source: %s[%d]@%d: %w", msg.Topic, msg.Partition, msg.Offset, err))
		}
		log.Error("kafka-source: event failed, skipping", "err", err)
	}
	sess.MarkMessage(msg, "")
	return nil
}

func init() {
	source.Register("kafka", func() source.Adapter { return &SaramaDriver{} })
}
