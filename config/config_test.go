package config

import (
	"encoding/json"
	"os"
	"testing"
)

func TestValidateAndAddDefaults(t *testing.T) {
	// Test case with empty Redis DNS
	cnf := Configuration{
		ProjectName: "",
		Redis: RedisConfig{
			Dns: "",
		},
		Payment: PaymentConfig{
			WalletAddress: "addr_test1_wallet",
		},
	}

	err := cnf.validateAndAddDefaults()
	if err == nil || err.Error() != "redis DNS is required" {
		t.Errorf("Expected redis DNS required error, got %v", err)
	}

	cnf = Configuration{
		ProjectName: "",
		Redis: RedisConfig{
			Dns: "localhost:6379",
		},
		Payment: PaymentConfig{
			WalletAddress: "",
		},
	}

	err = cnf.validateAndAddDefaults()
	if err == nil || err.Error() != "payment wallet address is required" {
		t.Errorf("Expected payment wallet address required error, got %v", err)
	}

	// Test case with all required fields filled, expect no error
	cnf = Configuration{
		ProjectName: "Test Project",
		Redis: RedisConfig{
			Dns: "localhost:6379",
		},
		Payment: PaymentConfig{
			WalletAddress: "addr_test1_wallet",
		},
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	// Test default port setting
	cnf.Server.Port = ""
	err = cnf.validateAndAddDefaults()
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if cnf.Server.Port != DEFAULT_PORT {
		t.Errorf("Expected default port %s, got %s", DEFAULT_PORT, cnf.Server.Port)
	}

	// Domain defaults
	if cnf.Payment.RequiredLovelace != DefaultRequiredLovelace {
		t.Errorf("Expected default required lovelace %d, got %d", DefaultRequiredLovelace, cnf.Payment.RequiredLovelace)
	}
	if cnf.Blockfrost.BaseURL != "https://cardano-preprod.blockfrost.io/api/v0" {
		t.Errorf("Expected default Blockfrost base URL, got %s", cnf.Blockfrost.BaseURL)
	}
	if cnf.Masumi.PayByHours != 12 {
		t.Errorf("Expected default pay-by window of 12 hours, got %d", cnf.Masumi.PayByHours)
	}
	if cnf.Diary.RewardLovelace != DefaultDiaryRewardLovelace {
		t.Errorf("Expected default diary reward %d, got %d", DefaultDiaryRewardLovelace, cnf.Diary.RewardLovelace)
	}
	if cnf.Diary.MinimumScore != 7.0 {
		t.Errorf("Expected default minimum score 7.0, got %f", cnf.Diary.MinimumScore)
	}
	if cnf.Queue.NumberOfQueues != 4 {
		t.Errorf("Expected 4 itinerary queues by default, got %d", cnf.Queue.NumberOfQueues)
	}
}

func TestRateLimitDefaults(t *testing.T) {
	rps := 10.0
	cnf := Configuration{
		Redis:     RedisConfig{Dns: "localhost:6379"},
		Payment:   PaymentConfig{WalletAddress: "addr_test1_wallet"},
		RateLimit: RateLimitConfig{RequestsPerSecond: &rps},
	}

	if err := cnf.validateAndAddDefaults(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cnf.RateLimit.Burst == nil || *cnf.RateLimit.Burst != 20 {
		t.Errorf("Expected burst to default to 2x RPS (20), got %v", cnf.RateLimit.Burst)
	}
	if cnf.RateLimit.CleanupIntervalSec == nil || *cnf.RateLimit.CleanupIntervalSec != 10800 {
		t.Errorf("Expected cleanup interval to default to 10800s, got %v", cnf.RateLimit.CleanupIntervalSec)
	}

	// Disabled when neither RPS nor burst is set
	cnf = Configuration{
		Redis:   RedisConfig{Dns: "localhost:6379"},
		Payment: PaymentConfig{WalletAddress: "addr_test1_wallet"},
	}
	if err := cnf.validateAndAddDefaults(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cnf.RateLimit.RequestsPerSecond != nil || cnf.RateLimit.Burst != nil {
		t.Errorf("Expected rate limiting to stay disabled, got RPS=%v Burst=%v", cnf.RateLimit.RequestsPerSecond, cnf.RateLimit.Burst)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	// Create a temporary file
	tmpFile, err := os.CreateTemp("", "planner.json")
	if err != nil {
		t.Fatalf("Unable to create temporary file: %v", err)
	}
	defer os.Remove(tmpFile.Name()) // Clean up after the test

	// Sample configuration to write to the temp file
	sampleConfig := Configuration{
		ProjectName: "Temp Project",
		Redis: RedisConfig{
			Dns: "temp-redis",
		},
		Payment: PaymentConfig{
			WalletAddress: "addr_test1_temp_wallet",
		},
	}
	if err := json.NewEncoder(tmpFile).Encode(sampleConfig); err != nil {
		t.Fatalf("Unable to write to temporary file: %v", err)
	}
	tmpFile.Close() // Close the file so loadConfigFromFile can open it

	// Set an environment variable to override the project name
	os.Setenv("TRAVEL_PROJECT_NAME", "Env Project")
	defer os.Unsetenv("TRAVEL_PROJECT_NAME") // Clean up after the test

	// The PostHog key only comes from deployment config, never a baked-in value
	os.Setenv("TRAVEL_POSTHOG_API_KEY", "phc_env_key")
	defer os.Unsetenv("TRAVEL_POSTHOG_API_KEY")

	// Load the configuration from the file
	if err := loadConfigFromFile(tmpFile.Name()); err != nil {
		t.Fatalf("loadConfigFromFile failed: %v", err)
	}

	// Fetch the loaded configuration
	loadedConfig, err := Fetch()
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	// Check if the environment variable override worked
	if loadedConfig.ProjectName != "Env Project" {
		t.Errorf("Expected ProjectName to be 'Env Project', got '%s'", loadedConfig.ProjectName)
	}

	// Check if the DNS was loaded correctly from the file
	if loadedConfig.Redis.Dns != "temp-redis" {
		t.Errorf("Expected Redis.Dns to be 'temp-redis', got '%s'", loadedConfig.Redis.Dns)
	}

	if loadedConfig.PostHogApiKey != "phc_env_key" {
		t.Errorf("Expected PostHogApiKey to come from the environment, got '%s'", loadedConfig.PostHogApiKey)
	}
}

func TestInitConfig(t *testing.T) {
	// Create a temporary file
	tmpFile, err := os.CreateTemp("", "planner.json")
	if err != nil {
		t.Fatalf("Unable to create temporary file: %v", err)
	}
	defer os.Remove(tmpFile.Name()) // Clean up after the test

	// Sample configuration to write to the temp file
	sampleConfig := Configuration{
		ProjectName: "InitConfig Test",
		Redis: RedisConfig{
			Dns: "localhost:6379",
		},
		Payment: PaymentConfig{
			WalletAddress: "addr_test1_init_wallet",
		},
	}
	if err := json.NewEncoder(tmpFile).Encode(sampleConfig); err != nil {
		t.Fatalf("Unable to write to temporary file: %v", err)
	}
	tmpFile.Close() // Close the file so InitConfig can open it

	// Attempt to initialize the configuration using the temporary file
	if err := InitConfig(tmpFile.Name()); err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}

	// Fetch the loaded configuration to verify it was loaded correctly
	loadedConfig, err := Fetch()
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	// Verify the configuration was loaded correctly
	if loadedConfig.ProjectName != "InitConfig Test" {
		t.Errorf("Expected ProjectName to be 'InitConfig Test', got '%s'", loadedConfig.ProjectName)
	}
	if loadedConfig.Payment.WalletAddress != "addr_test1_init_wallet" {
		t.Errorf("Expected Payment.WalletAddress to be 'addr_test1_init_wallet', got '%s'", loadedConfig.Payment.WalletAddress)
	}
}

func TestMockConfig(t *testing.T) {
	cnf := &Configuration{}
	if err := MockConfig(cnf); err != nil {
		t.Fatalf("MockConfig failed: %v", err)
	}

	loaded, err := Fetch()
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if loaded.Redis.Dns != "localhost:6379" {
		t.Errorf("Expected mock Redis DNS 'localhost:6379', got '%s'", loaded.Redis.Dns)
	}
	if loaded.Payment.WalletAddress == "" {
		t.Error("Expected mock wallet address to be filled")
	}
}
