package persist

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/robotalks/evdash/pkg/vehicle"
)

// DefaultRedisKey is the hash holding the odometer.
const DefaultRedisKey = "evdash:odometer"

// RedisStore keeps the odometer in a redis hash and announces saves
// on a channel named after the key.
type RedisStore struct {
	Client *redis.Client
	Key    string
}

// RedisOptions converts a redis:// URL into client options and the
// hash key.
func RedisOptions(u *url.URL) (*redis.Options, string, error) {
	opts := &redis.Options{
		Addr:         u.Host,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	}
	if opts.Addr == "" {
		opts.Addr = "localhost:6379"
	} else if !strings.Contains(opts.Addr, ":") {
		opts.Addr += ":6379"
	}
	if u.User != nil {
		opts.Username = u.User.Username()
		opts.Password, _ = u.User.Password()
	}
	if db := strings.Trim(u.Path, "/"); db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			return nil, "", errors.Errorf("invalid redis db %q", db)
		}
		opts.DB = n
	}
	key := u.Query().Get("key")
	if key == "" {
		key = DefaultRedisKey
	}
	return opts, key, nil
}

// OpenRedis connects the redis store.
func OpenRedis(u *url.URL) (*RedisStore, error) {
	opts, key, err := RedisOptions(u)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "connect redis %s", opts.Addr)
	}
	return &RedisStore{Client: client, Key: key}, nil
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context) (vehicle.Odometer, error) {
	fields, err := s.Client.HGetAll(ctx, s.Key).Result()
	if err != nil && err != redis.Nil {
		return vehicle.Odometer{}, errors.Wrap(err, "redis hgetall")
	}
	if len(fields) == 0 {
		return vehicle.Odometer{}, nil
	}
	var o vehicle.Odometer
	if o.Total, err = strconv.ParseFloat(fields["total"], 64); err != nil {
		return vehicle.Odometer{}, errors.Wrap(ErrCorrupt, "total")
	}
	if o.Trip, err = strconv.ParseFloat(fields["trip"], 64); err != nil {
		return vehicle.Odometer{}, errors.Wrap(ErrCorrupt, "trip")
	}
	return o, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, o vehicle.Odometer) error {
	pipe := s.Client.TxPipeline()
	pipe.HSet(ctx, s.Key,
		"total", strconv.FormatFloat(o.Total, 'f', -1, 64),
		"trip", strconv.FormatFloat(o.Trip, 'f', -1, 64),
		"saved-at", time.Now().Unix())
	pipe.Publish(ctx, s.Key, "saved")
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "redis save")
	}
	return nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.Client.Close()
}
