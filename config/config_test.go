package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/NotHilal/PLM-Hackaton/engine"
	"github.com/NotHilal/PLM-Hackaton/graph"
	"github.com/NotHilal/PLM-Hackaton/loader"
)

func TestValidateFillsDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Validate())
	require.Equal(t, &Config{
		DataDir:        defaultDataDir,
		GraphMiner:     graph.ModeDFG,
		CacheTTL:       defaultCacheTTL,
		LoadPoolSize:   defaultLoadPoolSize,
		MetricsAddr:    defaultMetricsAddr,
		ReloadInterval: defaultReloadInterval,
	}, cfg)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"unknown miner", Config{GraphMiner: "heuristic"}, "unknown graph miner"},
		{"negative ttl", Config{CacheTTL: -time.Second}, EnvCacheTTL},
		{"negative pool", Config{LoadPoolSize: -1}, EnvLoadPoolSize},
		{"negative reload", Config{ReloadInterval: -time.Second}, EnvReloadInterval},
		{"prefix without bucket", Config{S3Prefix: "exports/"}, EnvS3Bucket},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorContains(t, tt.cfg.Validate(), tt.want)
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvDataDir, "/srv/extracts")
	t.Setenv(EnvGraphMiner, "chain")
	t.Setenv(EnvCacheTTL, "30s")
	t.Setenv(EnvLoadPoolSize, "6")
	t.Setenv(EnvReloadInterval, "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, "/srv/extracts", cfg.DataDir)
	require.Equal(t, "chain", cfg.GraphMiner)
	require.Equal(t, 30*time.Second, cfg.CacheTTL)
	require.Equal(t, 6, cfg.LoadPoolSize)
	require.Zero(t, cfg.ReloadInterval)
	require.Equal(t, graph.ChainMiner{}, cfg.Miner())
}

func TestFromEnvInvalidNumbers(t *testing.T) {
	t.Setenv(EnvCacheTTL, "five minutes")
	_, err := FromEnv()
	require.ErrorContains(t, err, EnvCacheTTL)

	t.Setenv(EnvCacheTTL, "")
	t.Setenv(EnvLoadPoolSize, "many")
	_, err = FromEnv()
	require.ErrorContains(t, err, EnvLoadPoolSize)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plm.env")
	require.NoError(t, os.WriteFile(path, []byte("PLM_S3_BUCKET=plant-exports\nPLM_S3_PREFIX=weekly\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv(EnvS3Bucket)
		os.Unsetenv(EnvS3Prefix)
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "plant-exports", cfg.S3Bucket)
	require.Equal(t, "weekly", cfg.S3Prefix)
	require.Equal(t, defaultDataDir, cfg.DataDir)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestPolicy(t *testing.T) {
	cfg := &Config{}
	p, err := cfg.Policy()
	require.NoError(t, err)
	require.Equal(t, engine.DefaultPolicy(), p)

	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("insights:\n  wip: 50\n"), 0o600))
	cfg.PolicyFile = path
	p, err = cfg.Policy()
	require.NoError(t, err)
	require.Equal(t, 50, p.Insights.WIP)
	require.Equal(t, engine.DefaultPolicy().Severity, p.Severity)
}

func TestSourceDefaultsToDataDir(t *testing.T) {
	cfg := &Config{DataDir: "/srv/extracts"}
	src, err := cfg.Source(context.Background(), nil)
	require.NoError(t, err)
	dir, ok := src.(*loader.DirSource)
	require.True(t, ok)
	require.Equal(t, "/srv/extracts", dir.Dir)
}
