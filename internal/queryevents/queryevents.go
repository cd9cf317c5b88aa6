// Package queryevents publishes one Kafka record per proximity query.
package queryevents

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/mohammed-shakir/hexproximity/internal/core/observability"
)

type Event struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"request_id,omitempty"`
	Backend    string    `json:"backend"`
	Origin     string    `json:"origin"`
	Resolution int       `json:"resolution"`
	K          int       `json:"k"`
	RingCells  int       `json:"ring_cells"`
	Candidates int       `json:"candidates"`
	Matched    int       `json:"matched"`
	TS         time.Time `json:"ts"`
}

// Publisher queues events and hands them to an async producer. A full queue
// drops the event; Publish never blocks the query path.
type Publisher struct {
	topic  string
	prod   sarama.AsyncProducer
	log    *slog.Logger
	events chan Event

	mu     sync.RWMutex
	closed bool

	drained  chan struct{}
	errsDone chan struct{}

	dropped atomic.Uint64
}

func NewPublisher(brokers []string, topic string, queueSize int, log *slog.Logger) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = false
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Producer.Flush.Frequency = 100 * time.Millisecond

	prod, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("queryevents: create async producer: %w", err)
	}
	return newPublisher(prod, topic, queueSize, log), nil
}

func newPublisher(prod sarama.AsyncProducer, topic string, queueSize int, log *slog.Logger) *Publisher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if log == nil {
		log = slog.Default()
	}
	p := &Publisher{
		topic:    topic,
		prod:     prod,
		log:      log,
		events:   make(chan Event, queueSize),
		drained:  make(chan struct{}),
		errsDone: make(chan struct{}),
	}

	go func() {
		defer close(p.drained)
		for ev := range p.events {
			b, err := json.Marshal(ev)
			if err != nil {
				p.log.Warn("queryevents: marshal", "err", err)
				observability.IncQueryEvent("error")
				continue
			}
			// keyed by origin so one origin's events stay ordered
			p.prod.Input() <- &sarama.ProducerMessage{
				Topic: p.topic,
				Key:   sarama.StringEncoder(ev.Origin),
				Value: sarama.ByteEncoder(b),
			}
			observability.IncQueryEvent("published")
		}
	}()

	go func() {
		defer close(p.errsDone)
		for err := range p.prod.Errors() {
			if err != nil {
				p.log.Warn("queryevents: producer error", "err", err.Err, "topic", p.topic)
				observability.IncQueryEvent("error")
			}
		}
	}()

	return p
}

// Publish enqueues ev, filling ID and TS when unset.
func (p *Publisher) Publish(ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.TS.IsZero() {
		ev.TS = time.Now().UTC()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.drop()
		return
	}
	select {
	case p.events <- ev:
	default:
		p.drop()
	}
}

// Dropped returns how many events were discarded so far.
func (p *Publisher) Dropped() uint64 { return p.dropped.Load() }

func (p *Publisher) drop() {
	p.dropped.Add(1)
	observability.IncQueryEvent("dropped")
}

// Close hands queued events to the producer, then closes it.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.events)
	p.mu.Unlock()

	<-p.drained
	err := p.prod.Close()
	<-p.errsDone
	if err != nil {
		return fmt.Errorf("queryevents: close producer: %w", err)
	}
	return nil
}
