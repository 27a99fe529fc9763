package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/mpapenbr/racesim/log"
	"github.com/mpapenbr/racesim/pkg/convert"
	"github.com/mpapenbr/racesim/pkg/model"
)

const (
	DefaultBucket = "rsim-results"
	DefaultTTL    = 7 * 24 * time.Hour
)

var ErrResultNotFound = errors.New("result not found")

type (
	Option func(*Publisher)

	// Publisher sends race data to nats.
	// Lap snapshots are published on rsim.<raceID>.lap, the final result on
	// rsim.<raceID>.result and additionally stored in a key value bucket.
	Publisher struct {
		conn   *nats.Conn
		kv     jetstream.KeyValue
		raceID string
		bucket string
		ttl    time.Duration
		l      *log.Logger
	}
)

func WithLogger(l *log.Logger) Option {
	return func(p *Publisher) {
		p.l = l
	}
}

func WithBucket(bucket string) Option {
	return func(p *Publisher) {
		p.bucket = bucket
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(p *Publisher) {
		p.ttl = ttl
	}
}

func LapSubject(raceID string) string {
	return fmt.Sprintf("rsim.%s.lap", raceID)
}

func ResultSubject(raceID string) string {
	return fmt.Sprintf("rsim.%s.result", raceID)
}

//nolint:whitespace // editor/linter issue
func New(
	ctx context.Context,
	conn *nats.Conn,
	raceID string,
	opts ...Option,
) (*Publisher, error) {
	ret := &Publisher{
		conn:   conn,
		raceID: raceID,
		bucket: DefaultBucket,
		ttl:    DefaultTTL,
		l:      log.Default().Named("publish.nats"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if err := ret.setupKV(ctx); err != nil {
		return nil, err
	}
	return ret, nil
}

func (p *Publisher) setupKV(ctx context.Context) error {
	var js jetstream.JetStream
	var err error
	if js, err = jetstream.New(p.conn); err != nil {
		return err
	}
	p.kv, err = js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: p.bucket,
		TTL:    p.ttl,
	})
	return err
}

func (p *Publisher) PublishLap(snap *model.LapSnapshot) error {
	data, err := json.Marshal(convert.ConvertLapSnapshot(snap))
	if err != nil {
		return err
	}
	return p.conn.Publish(LapSubject(p.raceID), data)
}

// PublishResult publishes the classification and stores it in the bucket
func (p *Publisher) PublishResult(ctx context.Context, msg *convert.ResultMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(ResultSubject(p.raceID), data); err != nil {
		return err
	}
	if _, err := p.kv.Put(ctx, p.raceID, data); err != nil {
		return err
	}
	return p.conn.FlushWithContext(ctx)
}

// LoadResult reads a stored classification
func (p *Publisher) LoadResult(ctx context.Context, raceID string) (*convert.ResultMessage, error) {
	kve, err := p.kv.Get(ctx, raceID)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, fmt.Errorf("race %s: %w", raceID, ErrResultNotFound)
		}
		return nil, err
	}
	var ret convert.ResultMessage
	if err := json.Unmarshal(kve.Value(), &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// Forward publishes every snapshot received from ch until ch is closed
func (p *Publisher) Forward(ch <-chan *model.LapSnapshot) {
	for snap := range ch {
		if err := p.PublishLap(snap); err != nil {
			p.l.Warn("could not publish lap",
				log.String("raceId", p.raceID),
				log.Int("lap", snap.Lap),
				log.ErrorField(err))
		}
	}
	p.l.Debug("lap forwarding done", log.String("raceId", p.raceID))
}
