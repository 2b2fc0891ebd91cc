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

package planner

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/suyogupta/bengaluru-travel-planner/model"
)

// ErrNotFound is returned when a job, feedback record or gallery photo does
// not exist.
var ErrNotFound = errors.New("record not found")

// Store is the service's bookkeeping layer: jobs, escrow links, feedback,
// diary entries and the community gallery. The Redis implementation is the
// production default; the in-memory one backs tests.
type Store interface {
	SaveJob(ctx context.Context, job *model.Job) error
	GetJob(ctx context.Context, jobID string) (*model.Job, error)
	ListJobs(ctx context.Context, limit int64) ([]*model.Job, error)

	LinkEscrowPayment(ctx context.Context, paymentID, jobID string) error
	JobIDForEscrowPayment(ctx context.Context, paymentID string) (string, error)

	SaveFeedback(ctx context.Context, feedback *model.Feedback) error
	GetFeedback(ctx context.Context, jobID string) (*model.Feedback, error)

	SaveDiaryEntry(ctx context.Context, entry *model.DiaryEntry) error
	ListDiaryEntries(ctx context.Context, limit int64) ([]*model.DiaryEntry, error)
	DiaryEntriesByWallet(ctx context.Context, walletAddress string) ([]*model.DiaryEntry, error)

	AddGalleryPhoto(ctx context.Context, photo *model.GalleryPhoto) error
	ListGalleryPhotos(ctx context.Context, offset, limit int64) ([]*model.GalleryPhoto, int64, error)
	LikeGalleryPhoto(ctx context.Context, index int64) (int, error)
}

const (
	jobKeyPrefix      = "job:"
	jobIndexKey       = "jobs:index"
	escrowKeyPrefix   = "escrow:payment:"
	feedbackKeyPrefix = "feedback:"
	diaryIndexKey     = "diary:entries"
	diaryWalletPrefix = "diary:wallet:"
	galleryKey        = "gallery:photos"
)

// RedisStore keeps every record as a JSON value, with list keys for recency
// ordering. No relational queries are needed anywhere in the service, so a
// keyed store is enough.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) SaveJob(ctx context.Context, job *model.Job) error {
	raw, err := job.ToJSON()
	if err != nil {
		return err
	}
	isNew, err := s.client.HSetNX(ctx, jobIndexKey, job.JobID, 1).Result()
	if err != nil {
		return err
	}
	if isNew {
		if err := s.client.LPush(ctx, jobIndexKey+":order", job.JobID).Err(); err != nil {
			return err
		}
	}
	return s.client.Set(ctx, jobKeyPrefix+job.JobID, raw, 0).Err()
}

func (s *RedisStore) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	raw, err := s.client.Get(ctx, jobKeyPrefix+jobID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var job model.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *RedisStore) ListJobs(ctx context.Context, limit int64) ([]*model.Job, error) {
	if limit <= 0 {
		limit = 100
	}
	ids, err := s.client.LRange(ctx, jobIndexKey+":order", 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	jobs := make([]*model.Job, 0, len(ids))
	for _, id := range ids {
		job, err := s.GetJob(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (s *RedisStore) LinkEscrowPayment(ctx context.Context, paymentID, jobID string) error {
	return s.client.Set(ctx, escrowKeyPrefix+paymentID, jobID, 0).Err()
}

func (s *RedisStore) JobIDForEscrowPayment(ctx context.Context, paymentID string) (string, error) {
	jobID, err := s.client.Get(ctx, escrowKeyPrefix+paymentID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return jobID, nil
}

func (s *RedisStore) SaveFeedback(ctx context.Context, feedback *model.Feedback) error {
	raw, err := feedback.ToJSON()
	if err != nil {
		return err
	}
	return s.client.Set(ctx, feedbackKeyPrefix+feedback.JobID, raw, 0).Err()
}

func (s *RedisStore) GetFeedback(ctx context.Context, jobID string) (*model.Feedback, error) {
	raw, err := s.client.Get(ctx, feedbackKeyPrefix+jobID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var feedback model.Feedback
	if err := json.Unmarshal(raw, &feedback); err != nil {
		return nil, err
	}
	return &feedback, nil
}

func (s *RedisStore) SaveDiaryEntry(ctx context.Context, entry *model.DiaryEntry) error {
	raw, err := entry.ToJSON()
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, diaryIndexKey, raw)
	pipe.LPush(ctx, diaryWalletPrefix+entry.WalletAddress, raw)
	_, err = pipe.Exec(ctx)
	return err
}

func decodeDiaryEntries(raws []string) ([]*model.DiaryEntry, error) {
	entries := make([]*model.DiaryEntry, 0, len(raws))
	for _, raw := range raws {
		var entry model.DiaryEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

func (s *RedisStore) ListDiaryEntries(ctx context.Context, limit int64) ([]*model.DiaryEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	raws, err := s.client.LRange(ctx, diaryIndexKey, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	return decodeDiaryEntries(raws)
}

func (s *RedisStore) DiaryEntriesByWallet(ctx context.Context, walletAddress string) ([]*model.DiaryEntry, error) {
	raws, err := s.client.LRange(ctx, diaryWalletPrefix+walletAddress, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return decodeDiaryEntries(raws)
}

func (s *RedisStore) AddGalleryPhoto(ctx context.Context, photo *model.GalleryPhoto) error {
	raw, err := json.Marshal(photo)
	if err != nil {
		return err
	}
	return s.client.LPush(ctx, galleryKey, raw).Err()
}

func (s *RedisStore) ListGalleryPhotos(ctx context.Context, offset, limit int64) ([]*model.GalleryPhoto, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	total, err := s.client.LLen(ctx, galleryKey).Result()
	if err != nil {
		return nil, 0, err
	}
	raws, err := s.client.LRange(ctx, galleryKey, offset, offset+limit-1).Result()
	if err != nil {
		return nil, 0, err
	}
	photos := make([]*model.GalleryPhoto, 0, len(raws))
	for _, raw := range raws {
		var photo model.GalleryPhoto
		if err := json.Unmarshal([]byte(raw), &photo); err != nil {
			return nil, 0, err
		}
		photos = append(photos, &photo)
	}
	return photos, total, nil
}

func (s *RedisStore) LikeGalleryPhoto(ctx context.Context, index int64) (int, error) {
	raw, err := s.client.LIndex(ctx, galleryKey, index).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	var photo model.GalleryPhoto
	if err := json.Unmarshal([]byte(raw), &photo); err != nil {
		return 0, err
	}
	photo.Likes++
	updated, err := json.Marshal(&photo)
	if err != nil {
		return 0, err
	}
	if err := s.client.LSet(ctx, galleryKey, index, updated).Err(); err != nil {
		return 0, err
	}
	return photo.Likes, nil
}

// MemoryStore is the in-process Store used by tests.
type MemoryStore struct {
	mu       sync.RWMutex
	jobs     map[string]*model.Job
	jobOrder []string
	escrow   map[string]string
	feedback map[string]*model.Feedback
	diary    []*model.DiaryEntry
	gallery  []*model.GalleryPhoto
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:     make(map[string]*model.Job),
		escrow:   make(map[string]string),
		feedback: make(map[string]*model.Feedback),
	}
}

func (s *MemoryStore) SaveJob(_ context.Context, job *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.JobID]; !ok {
		s.jobOrder = append([]string{job.JobID}, s.jobOrder...)
	}
	clone := *job
	s.jobs[job.JobID] = &clone
	return nil
}

func (s *MemoryStore) GetJob(_ context.Context, jobID string) (*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *job
	return &clone, nil
}

func (s *MemoryStore) ListJobs(_ context.Context, limit int64) ([]*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > int64(len(s.jobOrder)) {
		limit = int64(len(s.jobOrder))
	}
	jobs := make([]*model.Job, 0, limit)
	for _, id := range s.jobOrder[:limit] {
		clone := *s.jobs[id]
		jobs = append(jobs, &clone)
	}
	return jobs, nil
}

func (s *MemoryStore) LinkEscrowPayment(_ context.Context, paymentID, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.escrow[paymentID] = jobID
	return nil
}

func (s *MemoryStore) JobIDForEscrowPayment(_ context.Context, paymentID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	jobID, ok := s.escrow[paymentID]
	if !ok {
		return "", ErrNotFound
	}
	return jobID, nil
}

func (s *MemoryStore) SaveFeedback(_ context.Context, feedback *model.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *feedback
	s.feedback[feedback.JobID] = &clone
	return nil
}

func (s *MemoryStore) GetFeedback(_ context.Context, jobID string) (*model.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	feedback, ok := s.feedback[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *feedback
	return &clone, nil
}

func (s *MemoryStore) SaveDiaryEntry(_ context.Context, entry *model.DiaryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *entry
	s.diary = append([]*model.DiaryEntry{&clone}, s.diary...)
	return nil
}

func (s *MemoryStore) ListDiaryEntries(_ context.Context, limit int64) ([]*model.DiaryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > int64(len(s.diary)) {
		limit = int64(len(s.diary))
	}
	entries := make([]*model.DiaryEntry, 0, limit)
	for _, entry := range s.diary[:limit] {
		clone := *entry
		entries = append(entries, &clone)
	}
	return entries, nil
}

func (s *MemoryStore) DiaryEntriesByWallet(_ context.Context, walletAddress string) ([]*model.DiaryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var entries []*model.DiaryEntry
	for _, entry := range s.diary {
		if entry.WalletAddress == walletAddress {
			clone := *entry
			entries = append(entries, &clone)
		}
	}
	return entries, nil
}

func (s *MemoryStore) AddGalleryPhoto(_ context.Context, photo *model.GalleryPhoto) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *photo
	s.gallery = append([]*model.GalleryPhoto{&clone}, s.gallery...)
	return nil
}

func (s *MemoryStore) ListGalleryPhotos(_ context.Context, offset, limit int64) ([]*model.GalleryPhoto, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := int64(len(s.gallery))
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	photos := make([]*model.GalleryPhoto, 0, end-offset)
	for _, photo := range s.gallery[offset:end] {
		clone := *photo
		photos = append(photos, &clone)
	}
	return photos, total, nil
}

func (s *MemoryStore) LikeGalleryPhoto(_ context.Context, index int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= int64(len(s.gallery)) {
		return 0, ErrNotFound
	}
	s.gallery[index].Likes++
	return s.gallery[index].Likes, nil
}
