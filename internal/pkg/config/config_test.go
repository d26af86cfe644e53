package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testConfig = `server:
  addr: ":9000"
  readTimeout: 2s
logger:
  level: debug
db:
  addr: "db:5432"
  username: "yaml_user"
  password: "yaml_pw"
  db: "articles"
  sslmode: "disable"
  maxConns: "4"
auth:
  ttl: 1h
  secret: "yaml-secret"
rdb:
  addr: "redis:6379"
  exp: 30s
admin:
  username: "root"
  password: "yaml-admin"
`

func writeConfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))

	return path
}

func TestNew(t *testing.T) {
	cfg, err := New(writeConfig(t))
	require.NoError(t, err)

	require.Equal(t, ":9000", cfg.Server.Addr)
	require.Equal(t, 2*time.Second, cfg.Server.ReadTimeout)
	require.Equal(t, time.Hour, cfg.Auth.TTL)
	require.Equal(t, 30*time.Second, cfg.RedisCache.ExpTime)
	require.Equal(t, "root", cfg.Admin.Username)
	require.Equal(t,
		"postgres://yaml_user:yaml_pw@db:5432/articles?sslmode=disable&pool_max_conns=4",
		cfg.PostgresDB.ConnString())
}

func TestNewEnvOverrides(t *testing.T) {
	t.Setenv("SECRET", "env-secret")
	t.Setenv("ADMIN_PASSWORD", "env-admin")
	t.Setenv("POSTGRES_PASSWORD", "env-pw")

	cfg, err := New(writeConfig(t))
	require.NoError(t, err)

	require.Equal(t, "env-secret", cfg.Auth.Secret)
	require.Equal(t, "env-admin", cfg.Admin.Password)
	require.Equal(t, "env-pw", cfg.PostgresDB.Password)
}

func TestNewMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
