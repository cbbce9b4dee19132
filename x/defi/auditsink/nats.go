package auditsink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix is the subject prefix audit records are published under.
const DefaultSubjectPrefix = "onesdefi.audit"

// NATSConfig configures a NATSSink.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	Name          string
}

// NATSSink publishes each record on <prefix>.<kind>.
type NATSSink struct {
	nc     *nats.Conn
	prefix string
}

// NewNATSSink connects to the NATS server at cfg.URL.
func NewNATSSink(cfg NATSConfig) (*NATSSink, error) {
	if cfg.URL == "" {
		return nil, errors.New("nats url is required")
	}
	name := cfg.Name
	if name == "" {
		name = "onesdefi-audit"
	}
	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	opts := []nats.Option{
		nats.Name(name),
		nats.Timeout(5 * time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
	}
	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSSink{nc: nc, prefix: prefix}, nil
}

// Subject returns the subject records of kind go to.
func (s *NATSSink) Subject(kind string) string {
	return s.prefix + "." + kind
}

func (s *NATSSink) Publish(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	msg := nats.NewMsg(s.Subject(rec.Kind))
	msg.Data = data
	// lets JetStream consumers drop redeliveries of the same entry
	msg.Header.Set(nats.MsgIdHdr, fmt.Sprintf("%s-%d", rec.Kind, rec.ID))
	return s.nc.PublishMsg(msg)
}

// Flush waits until the server has processed everything published so far.
func (s *NATSSink) Flush(ctx context.Context) error {
	return s.nc.FlushWithContext(ctx)
}

func (s *NATSSink) Close() error {
	if s.nc == nil || s.nc.Status() == nats.CLOSED {
		return nil
	}
	if err := s.nc.Drain(); err != nil {
		s.nc.Close()
		return fmt.Errorf("failed to drain connection to NATS: %w", err)
	}
	return nil
}
