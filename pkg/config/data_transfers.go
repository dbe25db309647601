package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pg-sharding/spqr-insel/pkg/spqrlog"
)

const applicationName = "spqr-insel"

type DatatransferConnections struct {
	ShardsData map[string]*ShardConnect `json:"shards" toml:"shards" yaml:"shards"`
}

type ShardConnect struct {
	Hosts    []string `json:"hosts" toml:"hosts" yaml:"hosts"`
	DB       string   `json:"db" toml:"db" yaml:"db"`
	User     string   `json:"usr" toml:"usr" yaml:"usr"`
	Password string   `json:"pwd" toml:"pwd" yaml:"pwd"`
	SslMode  string   `json:"sslmode" toml:"sslmode" yaml:"sslmode"`
}

func LoadShardDataCfg(cfgPath string) (*DatatransferConnections, error) {
	var cfg DatatransferConnections
	file, err := os.Open(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("could not open file \"%s\": %s", cfgPath, err)
	}

	defer func(file *os.File) {
		if err := file.Close(); err != nil {
			spqrlog.Zero.Error().Err(err).Msg("failed to close shard data config file")
		}
	}(file)

	if err := initConfig(file, &cfg); err != nil {
		return &cfg, err
	}

	configBytes, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return &cfg, err
	}

	spqrlog.Zero.Debug().Str("config", string(configBytes)).Msg("loaded shard data config")

	return &cfg, nil
}

func (s *ShardConnect) Validate() error {
	if len(s.Hosts) == 0 {
		return fmt.Errorf("no hosts")
	}
	for _, host := range s.Hosts {
		if !strings.Contains(host, ":") {
			return fmt.Errorf("host \"%s\" must be in host:port form", host)
		}
	}
	return nil
}

// GetConnStrings returns one libpq-style connection string per host.
func (s *ShardConnect) GetConnStrings() []string {
	res := make([]string, len(s.Hosts))
	for i, host := range s.Hosts {
		address, port, _ := strings.Cut(host, ":")
		res[i] = fmt.Sprintf("user=%s host=%s port=%s dbname=%s password=%s application_name=%s", s.User, address, port, s.DB, s.Password, applicationName)
		if s.SslMode != "" {
			res[i] += " sslmode=" + s.SslMode
		}
	}
	return res
}
