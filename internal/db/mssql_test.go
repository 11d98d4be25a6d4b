package db

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlagent/internal/config"
)

func TestBuildDSN(t *testing.T) {
	dsn := BuildDSN(config.SQLConfig{
		Server:       "192.168.0.144",
		Database:     "WideWorldImporters",
		User:         "my_username",
		Password:     "my_password",
		LoginTimeout: 10 * time.Second,
	})

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "sqlserver", u.Scheme)
	assert.Equal(t, "192.168.0.144", u.Host)
	assert.Equal(t, "my_username", u.User.Username())
	pw, ok := u.User.Password()
	require.True(t, ok)
	assert.Equal(t, "my_password", pw)

	q := u.Query()
	assert.Equal(t, "WideWorldImporters", q.Get("database"))
	assert.Equal(t, "10", q.Get("dial timeout"))
	assert.Equal(t, "sqlagent", q.Get("app name"))
}

func TestBuildDSN_ExplicitPort(t *testing.T) {
	dsn := BuildDSN(config.SQLConfig{
		Server:       "sql.example.com:1434",
		Database:     "master",
		User:         "sa",
		Password:     "p@ss,word",
		LoginTimeout: 5 * time.Second,
	})

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "sql.example.com:1434", u.Host)

	// Special characters in the password survive the round trip.
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss,word", pw)
}
