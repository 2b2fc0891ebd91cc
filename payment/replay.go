/*
Copyright 2025 Bengaluru Travel Planner Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package payment

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConsumedSet is the replay guard: the set of transaction references that
// have already admitted a job. A reference enters the set at most once, and
// only after a successful verification.
//
// MarkIfUnused is the atomic check-and-insert: under concurrent admission
// attempts for one reference, exactly one call returns true.
type ConsumedSet interface {
	IsUsed(ctx context.Context, ref string) (bool, error)
	MarkIfUnused(ctx context.Context, ref string) (bool, error)
}

// MemorySet is a mutex-guarded in-process set. History is lost on restart,
// so it is only suitable for tests and single-node demo runs.
type MemorySet struct {
	mu   sync.Mutex
	used map[string]struct{}
}

func NewMemorySet() *MemorySet {
	return &MemorySet{used: make(map[string]struct{})}
}

func (s *MemorySet) IsUsed(_ context.Context, ref string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.used[ref]
	return ok, nil
}

func (s *MemorySet) MarkIfUnused(_ context.Context, ref string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.used[ref]; ok {
		return false, nil
	}
	s.used[ref] = struct{}{}
	return true, nil
}

const consumedKeyPrefix = "payment:consumed:"

// RedisSet persists consumed references in Redis, so a restart cannot replay
// an already consumed payment. SETNX provides the atomic check-and-insert.
type RedisSet struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisSet builds the Redis-backed set. A zero ttl keeps references
// forever; a positive ttl can be used on test networks where history may be
// reclaimed.
func NewRedisSet(client redis.UniversalClient, ttl time.Duration) *RedisSet {
	return &RedisSet{client: client, ttl: ttl}
}

func (s *RedisSet) IsUsed(ctx context.Context, ref string) (bool, error) {
	n, err := s.client.Exists(ctx, consumedKeyPrefix+ref).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisSet) MarkIfUnused(ctx context.Context, ref string) (bool, error) {
	return s.client.SetNX(ctx, consumedKeyPrefix+ref, time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
}
