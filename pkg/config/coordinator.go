package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pg-sharding/spqr-insel/pkg/models/spqrerror"
	"github.com/pg-sharding/spqr-insel/pkg/spqrlog"
)

type CommitStrategy string

const (
	CommitStrategy1PC = CommitStrategy("1pc")
	CommitStrategy2PC = CommitStrategy("2pc")
)

const (
	DefaultBatchSize        = 1000
	DefaultWriterQueueDepth = 4
	DefaultMaxParallelTasks = 16
)

var cfgCoordinator Coordinator

type QdbCfg struct {
	Type       string `json:"type" toml:"type" yaml:"type"`
	Addr       string `json:"addr" toml:"addr" yaml:"addr"`
	BackupPath string `json:"backup_path" toml:"backup_path" yaml:"backup_path"`
}

type ExecutorCfg struct {
	// BatchSize is the number of rows buffered per shard before they are
	// handed to the shard writer.
	BatchSize        int            `json:"batch_size" toml:"batch_size" yaml:"batch_size"`
	WriterQueueDepth int            `json:"writer_queue_depth" toml:"writer_queue_depth" yaml:"writer_queue_depth"`
	MaxParallelTasks int            `json:"max_parallel_tasks" toml:"max_parallel_tasks" yaml:"max_parallel_tasks"`
	CommitStrategy   CommitStrategy `json:"commit_strategy" toml:"commit_strategy" yaml:"commit_strategy"`
}

type Coordinator struct {
	LogLevel  string `json:"log_level" toml:"log_level" yaml:"log_level"`
	LogFile   string `json:"log_file" toml:"log_file" yaml:"log_file"`
	PrettyLog bool   `json:"pretty_log" toml:"pretty_log" yaml:"pretty_log"`
	// LogMinDurationStatement enables logging of shard statements running
	// longer than the given duration. Zero disables it.
	LogMinDurationStatement time.Duration `json:"log_min_duration_statement" toml:"log_min_duration_statement" yaml:"log_min_duration_statement"`

	Qdb QdbCfg `json:"qdb" toml:"qdb" yaml:"qdb"`

	// Source is the database the SELECT part of a statement runs against.
	Source *ShardConnect `json:"source" toml:"source" yaml:"source"`
	// Shards may be given inline or loaded from ShardDataCfg.
	Shards       map[string]*ShardConnect `json:"shards" toml:"shards" yaml:"shards"`
	ShardDataCfg string                   `json:"shard_data" toml:"shard_data" yaml:"shard_data"`

	Executor ExecutorCfg `json:"executor" toml:"executor" yaml:"executor"`
}

func (c *Coordinator) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Qdb.Type == "" {
		c.Qdb.Type = "mem"
	}
	if c.Executor.BatchSize <= 0 {
		c.Executor.BatchSize = DefaultBatchSize
	}
	if c.Executor.WriterQueueDepth <= 0 {
		c.Executor.WriterQueueDepth = DefaultWriterQueueDepth
	}
	if c.Executor.MaxParallelTasks <= 0 {
		c.Executor.MaxParallelTasks = DefaultMaxParallelTasks
	}
	if c.Executor.CommitStrategy == "" {
		c.Executor.CommitStrategy = CommitStrategy1PC
	}
}

// Validate checks the loaded configuration for inconsistencies.
func (c *Coordinator) Validate() error {
	switch c.Executor.CommitStrategy {
	case CommitStrategy1PC, CommitStrategy2PC:
	default:
		return spqrerror.Newf(spqrerror.SPQR_CONFIG_ERROR, "unknown commit strategy \"%s\"", c.Executor.CommitStrategy)
	}
	switch c.Qdb.Type {
	case "mem", "etcd":
	default:
		return spqrerror.Newf(spqrerror.SPQR_CONFIG_ERROR, "unknown qdb type \"%s\"", c.Qdb.Type)
	}
	if c.Qdb.Type == "etcd" && c.Qdb.Addr == "" {
		return spqrerror.New(spqrerror.SPQR_CONFIG_ERROR, "etcd qdb requires qdb.addr")
	}
	for id, sh := range c.Shards {
		if err := sh.Validate(); err != nil {
			return spqrerror.Newf(spqrerror.SPQR_CONFIG_ERROR, "shard \"%s\": %w", id, err)
		}
	}
	if c.Source != nil {
		if err := c.Source.Validate(); err != nil {
			return spqrerror.Newf(spqrerror.SPQR_CONFIG_ERROR, "source: %w", err)
		}
	}
	return nil
}

// LoadCoordinatorCfg loads the coordinator configuration from the specified file path.
//
// Parameters:
//   - cfgPath (string): The path of the configuration file.
//
// Returns:
//   - string: JSON-formatted config
//   - error: An error if any occurred during the loading process.
func LoadCoordinatorCfg(cfgPath string) (string, error) {
	var ccfg Coordinator
	file, err := os.Open(cfgPath)
	if err != nil {
		return "", err
	}
	defer func(file *os.File) {
		if err := file.Close(); err != nil {
			spqrlog.Zero.Error().Err(err).Msg("failed to close config file")
		}
	}(file)

	if err := initConfig(file, &ccfg); err != nil {
		return "", err
	}

	if ccfg.ShardDataCfg != "" {
		shards, err := LoadShardDataCfg(ccfg.ShardDataCfg)
		if err != nil {
			return "", err
		}
		if ccfg.Shards == nil {
			ccfg.Shards = map[string]*ShardConnect{}
		}
		for id, sh := range shards.ShardsData {
			if _, ok := ccfg.Shards[id]; ok {
				return "", spqrerror.Newf(spqrerror.SPQR_CONFIG_ERROR, "shard \"%s\" is defined twice", id)
			}
			ccfg.Shards[id] = sh
		}
	}

	ccfg.applyDefaults()
	if err := ccfg.Validate(); err != nil {
		return "", err
	}
	cfgCoordinator = ccfg

	configBytes, err := json.MarshalIndent(&cfgCoordinator, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	return string(configBytes), nil
}

// CoordinatorConfig returns a pointer to the Coordinator configuration.
func CoordinatorConfig() *Coordinator {
	return &cfgCoordinator
}
