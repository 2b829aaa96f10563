package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/LavaJover/shvark-payment-service/internal/domain"
	"github.com/jaevor/go-nanoid"
	"github.com/segmentio/kafka-go"
)

const PaymentEventsTopic = "payment-events"

var newEventID = func() func() string {
	gen, err := nanoid.Standard(21)
	if err != nil {
		panic(err)
	}
	return gen
}()

// PaymentEvent is published on every transaction lifecycle transition.
type PaymentEvent struct {
	EventID       string `json:"event_id"`
	TransactionID string `json:"transaction_id"`
	ReservationID string `json:"reservation_id"`
	Proxy 		  string `json:"proxy"`
	Status 		  string `json:"status"`
	PriceCents 	  int64  `json:"price_cents"`
	Currency 	  string `json:"currency"`
	Timestamp 	  time.Time `json:"timestamp"`
}

type DefaultKafkaPublisher struct {
	writer *kafka.Writer
}

func NewDefaultKafkaPublisher(brokers []string) *DefaultKafkaPublisher {
	return &DefaultKafkaPublisher{
		writer: &kafka.Writer{
			Addr: kafka.TCP(brokers...),
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (k *DefaultKafkaPublisher) Publish(topic string, msgs ...domain.Message) error {
	var km []kafka.Message
	for _, m := range msgs {
		km = append(km, kafka.Message{
			Key: m.Key,
			Value: m.Value,
			Time: time.Now(),
			Topic: topic,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return k.writer.WriteMessages(ctx, km...)
}

// PublishPaymentEventFor builds and publishes the event for a transaction.
func PublishPaymentEventFor(p domain.PublisherPort, tx *domain.Transaction) error {
	event := PaymentEvent{
		EventID: newEventID(),
		TransactionID: tx.ID,
		ReservationID: tx.ReservationID,
		Proxy: string(tx.Proxy),
		Status: string(tx.Status),
		PriceCents: tx.PriceCents,
		Currency: tx.Currency,
		Timestamp: time.Now(),
	}
	v, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.Publish(PaymentEventsTopic, domain.Message{Key: []byte(event.ReservationID), Value: v})
}
