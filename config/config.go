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

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "8000"

	// 2 ADA. Matches the published itinerary price.
	DefaultRequiredLovelace int64 = 2_000_000

	// 1 ADA per quality diary entry.
	DefaultDiaryRewardLovelace int64 = 1_000_000
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"TRAVEL_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"TRAVEL_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"TRAVEL_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"TRAVEL_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"TRAVEL_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"TRAVEL_SERVER_PORT"`
}

type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"TRAVEL_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"TRAVEL_REDIS_SKIP_TLS_VERIFY"`
}

// BlockfrostConfig points the chain query client at a Blockfrost project.
// An empty ProjectID makes every payment verification fail closed.
type BlockfrostConfig struct {
	ProjectID  string `json:"project_id" envconfig:"TRAVEL_BLOCKFROST_PROJECT_ID"`
	BaseURL    string `json:"base_url" envconfig:"TRAVEL_BLOCKFROST_BASE_URL"`
	Network    string `json:"network" envconfig:"TRAVEL_BLOCKFROST_NETWORK"`
	TimeoutSec int    `json:"timeout_sec" envconfig:"TRAVEL_BLOCKFROST_TIMEOUT_SEC"`
}

type PaymentConfig struct {
	WalletAddress    string `json:"wallet_address" envconfig:"TRAVEL_PAYMENT_WALLET_ADDRESS"`
	RequiredLovelace int64  `json:"required_lovelace" envconfig:"TRAVEL_PAYMENT_REQUIRED_LOVELACE"`
}

// MasumiConfig configures the escrow payment service. Escrow endpoints are
// disabled when AgentID is empty.
type MasumiConfig struct {
	ApiURL              string `json:"api_url" envconfig:"TRAVEL_MASUMI_API_URL"`
	ApiKey              string `json:"api_key" envconfig:"TRAVEL_MASUMI_API_KEY"`
	AgentID             string `json:"agent_id" envconfig:"TRAVEL_MASUMI_AGENT_ID"`
	Network             string `json:"network" envconfig:"TRAVEL_MASUMI_NETWORK"`
	PayByHours          int    `json:"pay_by_hours" envconfig:"TRAVEL_MASUMI_PAY_BY_HOURS"`
	SubmitResultHours   int    `json:"submit_result_hours" envconfig:"TRAVEL_MASUMI_SUBMIT_RESULT_HOURS"`
	RequestTimeoutSec   int    `json:"request_timeout_sec" envconfig:"TRAVEL_MASUMI_REQUEST_TIMEOUT_SEC"`
	PaymentListPageSize int    `json:"payment_list_page_size"`
}

type PinataConfig struct {
	JWT       string `json:"jwt" envconfig:"TRAVEL_PINATA_JWT"`
	ApiKey    string `json:"api_key" envconfig:"TRAVEL_PINATA_API_KEY"`
	SecretKey string `json:"secret_key" envconfig:"TRAVEL_PINATA_SECRET_KEY"`
	ApiURL    string `json:"api_url" envconfig:"TRAVEL_PINATA_API_URL"`
	Gateway   string `json:"gateway" envconfig:"TRAVEL_PINATA_GATEWAY"`
}

// AgentsConfig points the itinerary runner and the diary scorer at a
// generative language model endpoint.
type AgentsConfig struct {
	ModelURL   string `json:"model_url" envconfig:"TRAVEL_AGENTS_MODEL_URL"`
	ApiKey     string `json:"api_key" envconfig:"TRAVEL_AGENTS_API_KEY"`
	Model      string `json:"model" envconfig:"TRAVEL_AGENTS_MODEL"`
	TimeoutSec int    `json:"timeout_sec" envconfig:"TRAVEL_AGENTS_TIMEOUT_SEC"`
}

type DiaryConfig struct {
	RewardLovelace int64   `json:"reward_lovelace" envconfig:"TRAVEL_DIARY_REWARD_LOVELACE"`
	MinimumScore   float64 `json:"minimum_score" envconfig:"TRAVEL_DIARY_MINIMUM_SCORE"`
}

// RewardServiceConfig configures the external payout service used to send
// diary rewards. Rewards are disabled when Url is empty.
type RewardServiceConfig struct {
	Url        string `json:"url" envconfig:"TRAVEL_REWARD_SERVICE_URL"`
	Token      string `json:"token" envconfig:"TRAVEL_REWARD_SERVICE_TOKEN"`
	TimeoutSec int    `json:"timeout_sec" envconfig:"TRAVEL_REWARD_SERVICE_TIMEOUT_SEC"`
}

type QueueConfig struct {
	ItineraryQueue string `json:"itinerary_queue" envconfig:"TRAVEL_QUEUE_ITINERARY"`
	WebhookQueue   string `json:"webhook_queue" envconfig:"TRAVEL_QUEUE_WEBHOOK"`
	NumberOfQueues int    `json:"number_of_queues" envconfig:"TRAVEL_QUEUE_NUMBER_OF_QUEUES"`
	MonitoringPort string `json:"monitoring_port" envconfig:"TRAVEL_QUEUE_MONITORING_PORT"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"TRAVEL_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"TRAVEL_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"TRAVEL_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type Notification struct {
	Slack   SlackWebhook `json:"slack"`
	Webhook struct {
		Url     string            `json:"url"`
		Headers map[string]string `json:"headers"`
	} `json:"webhook"`
}

type Configuration struct {
	ProjectName     string              `json:"project_name" envconfig:"TRAVEL_PROJECT_NAME"`
	EnableTelemetry bool                `json:"enable_telemetry" envconfig:"TRAVEL_ENABLE_TELEMETRY"`
	PostHogApiKey   string              `json:"posthog_api_key" envconfig:"TRAVEL_POSTHOG_API_KEY"`
	Server          ServerConfig        `json:"server"`
	Redis           RedisConfig         `json:"redis"`
	Blockfrost      BlockfrostConfig    `json:"blockfrost"`
	Payment         PaymentConfig       `json:"payment"`
	Masumi          MasumiConfig        `json:"masumi"`
	Pinata          PinataConfig        `json:"pinata"`
	Agents          AgentsConfig        `json:"agents"`
	Diary           DiaryConfig         `json:"diary"`
	RewardService   RewardServiceConfig `json:"reward_service"`
	Queue           QueueConfig         `json:"queue"`
	RateLimit       RateLimitConfig     `json:"rate_limit"`
	Notification    Notification        `json:"notification"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("travel", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called planner.json with your config")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Bengaluru Travel Planner"
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	if cnf.Payment.WalletAddress == "" {
		log.Println("Error: Payment wallet address is empty. It's a required field.")
		return errors.New("payment wallet address is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)
	cnf.Blockfrost.ProjectID = strings.TrimSpace(cnf.Blockfrost.ProjectID)
	cnf.Payment.WalletAddress = strings.TrimSpace(cnf.Payment.WalletAddress)

	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Blockfrost.BaseURL == "" {
		cnf.Blockfrost.BaseURL = "https://cardano-preprod.blockfrost.io/api/v0"
	}
	if cnf.Blockfrost.Network == "" {
		cnf.Blockfrost.Network = "Preprod"
	}
	if cnf.Blockfrost.TimeoutSec <= 0 {
		cnf.Blockfrost.TimeoutSec = 30
	}

	if cnf.Payment.RequiredLovelace <= 0 {
		cnf.Payment.RequiredLovelace = DefaultRequiredLovelace
	}

	if cnf.Masumi.ApiURL == "" {
		cnf.Masumi.ApiURL = "http://localhost:3001"
	}
	if cnf.Masumi.Network == "" {
		cnf.Masumi.Network = cnf.Blockfrost.Network
	}
	if cnf.Masumi.PayByHours <= 0 {
		cnf.Masumi.PayByHours = 12
	}
	if cnf.Masumi.SubmitResultHours <= 0 {
		cnf.Masumi.SubmitResultHours = 24
	}
	if cnf.Masumi.RequestTimeoutSec <= 0 {
		cnf.Masumi.RequestTimeoutSec = 30
	}
	if cnf.Masumi.PaymentListPageSize <= 0 {
		cnf.Masumi.PaymentListPageSize = 100
	}

	if cnf.Pinata.ApiURL == "" {
		cnf.Pinata.ApiURL = "https://api.pinata.cloud"
	}
	if cnf.Pinata.Gateway == "" {
		cnf.Pinata.Gateway = "https://gateway.pinata.cloud/ipfs"
	}

	if cnf.Agents.ModelURL == "" {
		cnf.Agents.ModelURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cnf.Agents.Model == "" {
		cnf.Agents.Model = "gemini-2.0-flash"
	}
	if cnf.Agents.TimeoutSec <= 0 {
		cnf.Agents.TimeoutSec = 120
	}

	if cnf.Diary.RewardLovelace <= 0 {
		cnf.Diary.RewardLovelace = DefaultDiaryRewardLovelace
	}
	if cnf.Diary.MinimumScore <= 0 {
		cnf.Diary.MinimumScore = 7.0
	}
	if cnf.RewardService.TimeoutSec <= 0 {
		cnf.RewardService.TimeoutSec = 60
	}

	if cnf.Queue.ItineraryQueue == "" {
		cnf.Queue.ItineraryQueue = "new:itinerary"
	}
	if cnf.Queue.WebhookQueue == "" {
		cnf.Queue.WebhookQueue = "new:webhook"
	}
	if cnf.Queue.NumberOfQueues <= 0 {
		cnf.Queue.NumberOfQueues = 4
	}
	if cnf.Queue.MonitoringPort == "" {
		cnf.Queue.MonitoringPort = "5555"
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	return nil
}

// BlockfrostTimeout returns the bounded timeout applied to every chain query.
func (cnf *Configuration) BlockfrostTimeout() time.Duration {
	return time.Duration(cnf.Blockfrost.TimeoutSec) * time.Second
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}

// MockConfig stores a fully defaulted configuration for tests. Required
// fields left empty are filled with local test values.
func MockConfig(cnf *Configuration) error {
	if cnf.Redis.Dns == "" {
		cnf.Redis.Dns = "localhost:6379"
	}
	if cnf.Payment.WalletAddress == "" {
		cnf.Payment.WalletAddress = "addr_test1_mock_wallet"
	}
	err := cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}
	ConfigStore.Store(cnf)
	return nil
}
