package postgres

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/shopbot/internal/infra/config"
)

func TestConnStringPrefersDSN(t *testing.T) {
	cfg := config.PostgresConfig{DSN: " postgres://u:p@db/shop ", Host: "ignored"}
	require.Equal(t, "postgres://u:p@db/shop", ConnString(cfg))
}

func TestConnStringFromParts(t *testing.T) {
	cfg := config.PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		Database: "shopbot",
		User:     "postgres",
		Password: `it's\secret`,
	}
	require.Equal(t,
		`host='localhost' port='5432' dbname='shopbot' user='postgres' password='it\'s\\secret'`,
		ConnString(cfg),
	)
}

func TestConnStringSkipsEmptyPassword(t *testing.T) {
	cfg := config.PostgresConfig{Host: "localhost", Database: "shopbot", User: "postgres"}
	require.Equal(t, `host='localhost' dbname='shopbot' user='postgres'`, ConnString(cfg))
}
