// SPDX-License-Identifier: MIT

package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ManuGH/futureme/internal/metrics"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisBus broadcasts commands over Redis pub/sub so controllers in other
// processes reach the listener.
type RedisBus struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisBus connects and pings the server.
func NewRedisBus(ctx context.Context, cfg RedisConfig, logger zerolog.Logger) (*RedisBus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	logger.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("connected to Redis remote channel")
	return &RedisBus{client: client, logger: logger}, nil
}

func (b *RedisBus) Publish(ctx context.Context, topic string, cmd Command) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}
	if err := b.client.Publish(ctx, topic, payload).Err(); err != nil {
		metrics.IncBusDropReason(topic, "redis_error")
		return fmt.Errorf("publish topic %q: %w", topic, err)
	}
	return nil
}

// Subscribe returns once the subscription is confirmed by the server.
func (b *RedisBus) Subscribe(ctx context.Context, topic string) (Subscriber, error) {
	ps := b.client.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe topic %q: %w", topic, err)
	}
	s := &redisSub{ps: ps, ch: make(chan Command, 64), done: make(chan struct{})}
	go s.forward(topic, b.logger)
	return s, nil
}

// Close releases the client connection pool.
func (b *RedisBus) Close() error {
	return b.client.Close()
}

type redisSub struct {
	ps   *redis.PubSub
	ch   chan Command
	done chan struct{}
	once sync.Once
}

func (s *redisSub) forward(topic string, logger zerolog.Logger) {
	defer close(s.done)
	defer close(s.ch)
	for msg := range s.ps.Channel() {
		var cmd Command
		if err := json.Unmarshal([]byte(msg.Payload), &cmd); err != nil {
			metrics.IncBusDropReason(topic, "decode_error")
			logger.Warn().Err(err).Str("topic", topic).Msg("dropping undecodable remote command")
			continue
		}
		s.ch <- cmd
	}
}

func (s *redisSub) C() <-chan Command { return s.ch }

// Close ends the subscription. Pending commands not yet read are dropped.
func (s *redisSub) Close() error {
	var err error
	s.once.Do(func() {
		err = s.ps.Close()
		// Unblock forward if it is waiting on a full channel.
		go func() {
			for range s.ch {
			}
		}()
		<-s.done
	})
	return err
}

var _ Bus = (*RedisBus)(nil)
