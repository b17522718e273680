package storage

import (
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a client from either a redis:// URL or an Azure-style
// "host:port,password=...,ssl=true" connection string.
func NewRedisClient(conn string) *redis.Client {
	return redis.NewClient(redisOptions(conn))
}

func redisOptions(conn string) *redis.Options {
	if opts, err := redis.ParseURL(conn); err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts := &redis.Options{Addr: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.EqualFold(strings.TrimSpace(kv[1]), "true") {
				opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
			}
		}
	}
	return opts
}
