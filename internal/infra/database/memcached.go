package database

import (
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
)

// NewMemcached returns a client for the SteamInfo cache.
func NewMemcached(server string) (*memcache.Client, error) {
	client := memcache.New(server)
	client.Timeout = 500 * time.Millisecond
	client.MaxIdleConns = 4
	if err := client.Ping(); err != nil {
		return nil, errors.Wrapf(err, "ping memcached at %s", server)
	}
	return client, nil
}
