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
	"fmt"
	"hash/fnv"
	"log"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/trace"

	"github.com/suyogupta/bengaluru-travel-planner/config"
	redis_db "github.com/suyogupta/bengaluru-travel-planner/internal/redis-db"
	"github.com/suyogupta/bengaluru-travel-planner/model"
)

// Enqueuer hands an admitted job to the itinerary workers.
type Enqueuer interface {
	Enqueue(ctx context.Context, jobID string, query model.TravelQuery) error
}

// Queue represents a queue for handling itinerary generation and webhook
// delivery tasks.
type Queue struct {
	Client    *asynq.Client
	Inspector *asynq.Inspector
}

// ItineraryTaskPayload is the payload for an itinerary generation task.
type ItineraryTaskPayload struct {
	JobID string            `json:"job_id"`
	Query model.TravelQuery `json:"query"`
}

// NewQueue initializes a new Queue instance with the provided configuration.
func NewQueue(conf *config.Configuration) *Queue {
	redisOption, err := redis_db.ParseRedisURL(fmt.Sprintf("redis://%s", conf.Redis.Dns), conf.Redis.SkipTLSVerify)
	if err != nil {
		log.Fatalf("Error parsing Redis URL: %v", err)
	}

	queueOptions := asynq.RedisClientOpt{Addr: redisOption.Addr, Password: redisOption.Password, DB: redisOption.DB, TLSConfig: redisOption.TLSConfig}
	client := asynq.NewClient(queueOptions)
	inspector := asynq.NewInspector(queueOptions)
	return &Queue{
		Client:    client,
		Inspector: inspector,
	}
}

// Enqueue adds an itinerary generation task to the Redis queue. Tasks are
// sharded across the configured number of queues by job ID so a single slow
// generation does not head-of-line block every other job.
func (q *Queue) Enqueue(ctx context.Context, jobID string, query model.TravelQuery) error {
	ctx, span := tracer.Start(ctx, "Adding Itinerary Job To Redis Queue", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()

	payload, err := json.Marshal(ItineraryTaskPayload{JobID: jobID, Query: query})
	if err != nil {
		return err
	}
	info, err := q.Client.EnqueueContext(ctx, q.getTask(jobID, payload), asynq.MaxRetry(3))
	if err != nil {
		log.Println(err, info)
		return err
	}
	log.Printf(" [*] Successfully enqueued itinerary job: %+v", jobID)

	return nil
}

func (q *Queue) getTask(jobID string, payload []byte) *asynq.Task {
	cnf, err := config.Fetch()
	if err != nil {
		log.Printf("Error fetching config: %v", err)
		return asynq.NewTask("new:itinerary_1", payload, asynq.TaskID(jobID), asynq.Queue("new:itinerary_1"))
	}
	queueIndex := hashJobID(jobID) % cnf.Queue.NumberOfQueues
	queueName := fmt.Sprintf("%s_%d", cnf.Queue.ItineraryQueue, queueIndex+1)

	taskOptions := []asynq.Option{asynq.TaskID(jobID), asynq.Queue(queueName)}
	return asynq.NewTask(queueName, payload, taskOptions...)
}

// hashJobID returns a consistent hash value for a job ID.
func hashJobID(jobID string) int {
	hasher := fnv.New32a()
	_, _ = hasher.Write([]byte(jobID))
	return int(hasher.Sum32())
}

// GetJobFromQueue retrieves a pending itinerary task from the queue by its
// job ID, or nil if no queue holds it.
func (q *Queue) GetJobFromQueue(jobID string) (*ItineraryTaskPayload, error) {
	cfg, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	for i := 1; i <= cfg.Queue.NumberOfQueues; i++ {
		queueName := fmt.Sprintf("%s_%d", cfg.Queue.ItineraryQueue, i)
		task, err := q.Inspector.GetTaskInfo(queueName, jobID)
		if err == nil && task != nil {
			var payload ItineraryTaskPayload
			if err := json.Unmarshal(task.Payload, &payload); err != nil {
				return nil, err
			}
			return &payload, nil
		}
	}
	return nil, nil
}
