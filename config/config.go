// Package config reads the runtime settings of the KPI tools from the
// environment. A .env file in the working directory is loaded first when
// present; variables already set in the environment win over it.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/NotHilal/PLM-Hackaton/engine"
	"github.com/NotHilal/PLM-Hackaton/graph"
	"github.com/NotHilal/PLM-Hackaton/loader"
)

const (
	defaultDataDir        = "data"
	defaultGraphMiner     = graph.ModeDFG
	defaultCacheTTL       = 5 * time.Minute
	defaultLoadPoolSize   = 3
	defaultMetricsAddr    = ":9090"
	defaultReloadInterval = time.Minute
)

// Environment variables.
const (
	EnvDataDir        = "PLM_DATA_DIR"
	EnvS3Bucket       = "PLM_S3_BUCKET"
	EnvS3Prefix       = "PLM_S3_PREFIX"
	EnvS3Region       = "PLM_S3_REGION"
	EnvPolicyFile     = "PLM_POLICY_FILE"
	EnvGraphMiner     = "PLM_GRAPH_MINER"
	EnvCacheTTL       = "PLM_CACHE_TTL"
	EnvLoadPoolSize   = "PLM_LOAD_POOL_SIZE"
	EnvMetricsAddr    = "PLM_METRICS_ADDR"
	EnvReloadInterval = "PLM_RELOAD_INTERVAL"
)

type Config struct {
	// DataDir holds the ERP, MES and PLM extracts. Ignored when S3Bucket is
	// set.
	DataDir string

	S3Bucket string
	S3Prefix string
	S3Region string

	// PolicyFile is a YAML threshold policy. Empty means the built-in
	// defaults.
	PolicyFile string

	GraphMiner     string
	CacheTTL       time.Duration
	LoadPoolSize   int
	MetricsAddr    string
	ReloadInterval time.Duration
}

// Load reads envFiles (default: an optional .env) and then the environment.
// Named files must exist.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv reads the PLM_* variables without defaults or validation.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DataDir:     os.Getenv(EnvDataDir),
		S3Bucket:    os.Getenv(EnvS3Bucket),
		S3Prefix:    os.Getenv(EnvS3Prefix),
		S3Region:    os.Getenv(EnvS3Region),
		PolicyFile:  os.Getenv(EnvPolicyFile),
		GraphMiner:  os.Getenv(EnvGraphMiner),
		MetricsAddr: os.Getenv(EnvMetricsAddr),
	}

	var err error
	if cfg.CacheTTL, err = getenvDuration(EnvCacheTTL); err != nil {
		return nil, err
	}
	if cfg.ReloadInterval, err = getenvDuration(EnvReloadInterval); err != nil {
		return nil, err
	}
	if cfg.LoadPoolSize, err = getenvInt(EnvLoadPoolSize); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fills defaults and rejects settings no component can use.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		c.DataDir = defaultDataDir
	}
	if c.GraphMiner == "" {
		c.GraphMiner = defaultGraphMiner
	}
	if _, err := graph.MinerByName(c.GraphMiner); err != nil {
		return fmt.Errorf("%s: %w", EnvGraphMiner, err)
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = defaultCacheTTL
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("%s must be positive, got %s", EnvCacheTTL, c.CacheTTL)
	}
	if c.LoadPoolSize == 0 {
		c.LoadPoolSize = defaultLoadPoolSize
	}
	if c.LoadPoolSize < 0 {
		return fmt.Errorf("%s must be positive, got %d", EnvLoadPoolSize, c.LoadPoolSize)
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = defaultMetricsAddr
	}
	if c.ReloadInterval == 0 {
		c.ReloadInterval = defaultReloadInterval
	}
	if c.ReloadInterval < 0 {
		return fmt.Errorf("%s must be positive, got %s", EnvReloadInterval, c.ReloadInterval)
	}
	if c.S3Prefix != "" && c.S3Bucket == "" {
		return fmt.Errorf("%s is set without %s", EnvS3Prefix, EnvS3Bucket)
	}
	return nil
}

// Policy returns the threshold policy, read from PolicyFile when set.
func (c *Config) Policy() (engine.Policy, error) {
	if c.PolicyFile == "" {
		return engine.DefaultPolicy(), nil
	}
	return engine.LoadPolicy(c.PolicyFile)
}

// Source returns the S3 source when a bucket is configured and the data
// directory otherwise.
func (c *Config) Source(ctx context.Context, log *slog.Logger) (loader.Source, error) {
	if c.S3Bucket == "" {
		return loader.NewDirSource(c.DataDir), nil
	}
	return loader.NewS3Source(ctx, log, loader.S3Config{
		Bucket: c.S3Bucket,
		Prefix: c.S3Prefix,
		Region: c.S3Region,
	})
}

// Miner returns the configured graph miner.
func (c *Config) Miner() graph.Miner {
	m, err := graph.MinerByName(c.GraphMiner)
	if err != nil {
		return graph.DFGMiner{}
	}
	return m
}

func getenvDuration(key string) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	return d, nil
}

func getenvInt(key string) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	return i, nil
}
