package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected func() *Config
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-m", ":9200", "-d", "db", "-s", "acc", "-S", "ref",
				"-t", "1", "-r", "3", "-k", "10", "-R", "redis:6379", "-l", "warn",
			},
			expected: func() *Config {
				c := defaults()
				c.EndpointAddrHTTP = "127.0.0.1:9090"
				c.MetricsAddr = ":9200"
				c.DatabaseDSN = "db"
				c.AccessSecret = "acc"
				c.RefreshSecret = "ref"
				c.AccessTokenValidityDuration = time.Minute
				c.RefreshTokenValidityDuration = 3 * time.Minute
				c.BcryptCost = 10
				c.RedisAddr = "redis:6379"
				c.LogLevel = "warn"
				return c
			},
		},
		{
			name:     "unknown flags ignored",
			args:     []string{"-x", "1", "-c", "file.yaml", "-a", ":1"},
			expected: func() *Config { c := defaults(); c.EndpointAddrHTTP = ":1"; return c },
		},
		{
			name:    "bad int",
			args:    []string{"-t", "abc"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaults()
			err := parseFlags(c, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.expected(), c); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
