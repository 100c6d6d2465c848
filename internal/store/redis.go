package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps proposal records in Redis as JSON, one key per proposal.
// Selected when REDIS_URL is set; unlike the memory store it survives process
// restarts.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{client: client, prefix: "proposal:"}, nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "proposal:"}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) CreateProposal(ctx context.Context, proposal Proposal) error {
	payload, err := json.Marshal(proposal)
	if err != nil {
		return fmt.Errorf("marshal proposal: %w", err)
	}
	if err := s.client.Set(ctx, s.key(proposal.ID), payload, 0).Err(); err != nil {
		return fmt.Errorf("save proposal: %w", err)
	}
	return nil
}

func (s *RedisStore) GetProposal(ctx context.Context, id string) (Proposal, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Result()
	if err == redis.Nil {
		return Proposal{}, ErrNotFound
	}
	if err != nil {
		return Proposal{}, fmt.Errorf("lookup proposal: %w", err)
	}

	var proposal Proposal
	if err := json.Unmarshal([]byte(raw), &proposal); err != nil {
		return Proposal{}, fmt.Errorf("unmarshal proposal: %w", err)
	}
	return proposal, nil
}

func (s *RedisStore) UpdateProposal(ctx context.Context, id string, patch ProposalPatch) (Proposal, error) {
	proposal, err := s.GetProposal(ctx, id)
	if err != nil {
		return Proposal{}, err
	}
	proposal.apply(patch)

	payload, err := json.Marshal(proposal)
	if err != nil {
		return Proposal{}, fmt.Errorf("marshal proposal: %w", err)
	}
	if err := s.client.Set(ctx, s.key(id), payload, 0).Err(); err != nil {
		return Proposal{}, fmt.Errorf("save proposal: %w", err)
	}
	return proposal, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
