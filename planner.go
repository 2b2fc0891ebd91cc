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
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/suyogupta/bengaluru-travel-planner/agents"
	"github.com/suyogupta/bengaluru-travel-planner/cardano"
	"github.com/suyogupta/bengaluru-travel-planner/config"
	"github.com/suyogupta/bengaluru-travel-planner/escrow"
	"github.com/suyogupta/bengaluru-travel-planner/internal/cache"
	redis_db "github.com/suyogupta/bengaluru-travel-planner/internal/redis-db"
	"github.com/suyogupta/bengaluru-travel-planner/ipfs"
	"github.com/suyogupta/bengaluru-travel-planner/payment"
	"github.com/suyogupta/bengaluru-travel-planner/rewards"
)

var tracer = otel.Tracer("planner.jobs")

// Planner is the main struct for the travel planner service. It wires the
// chain query client, the payment admission pipeline, the escrow client, the
// itinerary agents, IPFS pinning and the diary reward sender around a shared
// Redis instance.
type Planner struct {
	queue     Enqueuer
	store     Store
	cache     cache.Cache
	redis     redis.UniversalClient
	chain     *cardano.Client
	admission *payment.Orchestrator
	direct    *payment.DirectVerifier
	escrow    *escrow.Client
	escrowVrf *escrow.Verifier
	agents    agents.Runner
	scorer    agents.Scorer
	ipfs      *ipfs.Client
	rewarder  rewards.Sender
}

// NewPlanner initializes a Planner from the loaded configuration. Every
// upstream client is built here once; handlers and workers share them.
func NewPlanner() (*Planner, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	redisClient, err := redis_db.NewRedisClient([]string{fmt.Sprintf("redis://%s", configuration.Redis.Dns)}, configuration.Redis.SkipTLSVerify)
	if err != nil {
		return nil, err
	}

	chain := cardano.NewClient(configuration.Blockfrost.BaseURL, configuration.Blockfrost.ProjectID, configuration.BlockfrostTimeout())

	consumed := payment.NewRedisSet(redisClient.Client(), 0)
	direct := payment.NewDirectVerifier(chain, configuration.Payment.WalletAddress, configuration.Payment.RequiredLovelace)

	escrowClient := escrow.NewClient(escrow.Config{
		ApiURL:            configuration.Masumi.ApiURL,
		ApiKey:            configuration.Masumi.ApiKey,
		AgentID:           configuration.Masumi.AgentID,
		Network:           configuration.Masumi.Network,
		PayByHours:        configuration.Masumi.PayByHours,
		SubmitResultHours: configuration.Masumi.SubmitResultHours,
		Timeout:           time.Duration(configuration.Masumi.RequestTimeoutSec) * time.Second,
		ListPageSize:      configuration.Masumi.PaymentListPageSize,
	})

	runner := agents.NewHTTPRunner(agents.Config{
		ModelURL: configuration.Agents.ModelURL,
		ApiKey:   configuration.Agents.ApiKey,
		Model:    configuration.Agents.Model,
	}, &http.Client{Timeout: time.Duration(configuration.Agents.TimeoutSec) * time.Second})

	pinner := ipfs.NewClient(ipfs.Config{
		JWT:       configuration.Pinata.JWT,
		ApiKey:    configuration.Pinata.ApiKey,
		SecretKey: configuration.Pinata.SecretKey,
		ApiURL:    configuration.Pinata.ApiURL,
		Gateway:   configuration.Pinata.Gateway,
	}, 60*time.Second)

	var rewarder rewards.Sender = rewards.Disabled{}
	if configuration.RewardService.Url != "" {
		rewarder = rewards.NewServiceSender(configuration.RewardService.Url, configuration.RewardService.Token,
			time.Duration(configuration.RewardService.TimeoutSec)*time.Second)
	}

	cacheLayer, err := cache.NewCache()
	if err != nil {
		return nil, err
	}

	newPlanner := &Planner{
		queue:     NewQueue(configuration),
		store:     NewRedisStore(redisClient.Client()),
		cache:     cacheLayer,
		redis:     redisClient.Client(),
		chain:     chain,
		admission: payment.NewOrchestrator(consumed),
		direct:    direct,
		escrow:    escrowClient,
		escrowVrf: escrow.NewVerifier(escrowClient),
		agents:    runner,
		scorer:    runner,
		ipfs:      pinner,
		rewarder:  rewarder,
	}
	return newPlanner, nil
}

// Store exposes the bookkeeping layer, mainly for the API package.
func (p *Planner) Store() Store {
	return p.store
}

// Chain reports whether on-chain verification is configured.
func (p *Planner) Chain() *cardano.Client {
	return p.chain
}

// Escrow exposes the escrow client, used by the API availability endpoint.
func (p *Planner) Escrow() *escrow.Client {
	return p.escrow
}
