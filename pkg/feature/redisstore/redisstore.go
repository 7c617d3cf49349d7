// Package redisstore persists feature flags in Redis.
//
// Each flag is a hash at "<prefix>flag:<name>"; the set "<prefix>flags" indexes
// the stored names. Creation and toggling run as Lua scripts so that a flag
// is never observed half-written.
package redisstore

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/featuregate/pkg/feature"
)

// DefaultPrefix namespaces every key written by the storage.
const DefaultPrefix = "featuregate:"

var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1], 'name', ARGV[1], 'description', ARGV[2], 'enabled', ARGV[3], 'created_at', ARGV[4], 'updated_at', ARGV[5])
redis.call('SADD', KEYS[2], ARGV[1])
return 1
`)

var setEnabledScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return {}
end
redis.call('HSET', KEYS[1], 'enabled', ARGV[1], 'updated_at', ARGV[2])
return redis.call('HGETALL', KEYS[1])
`)

// Storage implements feature.Storage on Redis.
type Storage struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

var _ feature.Storage = (*Storage)(nil)

// Option configures a Storage.
type Option func(*Storage)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Storage) {
		s.prefix = prefix
	}
}

// New creates a storage over client. The client stays owned by the caller.
func New(client redis.UniversalClient, opts ...Option) *Storage {
	s := &Storage{
		client: client,
		prefix: DefaultPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Storage) flagKey(name string) string { return s.prefix + "flag:" + name }
func (s *Storage) indexKey() string           { return s.prefix + "flags" }

// GetFlag returns the stored flag or feature.ErrFlagNotFound.
func (s *Storage) GetFlag(ctx context.Context, name string) (*feature.Flag, error) {
	values, err := s.client.HGetAll(ctx, s.flagKey(name)).Result()
	if err != nil {
		return nil, classify(err)
	}
	if len(values) == 0 {
		return nil, feature.ErrFlagNotFound
	}
	return decodeFlag(values)
}

// ListFlags returns all stored flags ordered by name.
func (s *Storage) ListFlags(ctx context.Context) ([]*feature.Flag, error) {
	names, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, classify(err)
	}
	slices.Sort(names)

	cmds, err := s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, name := range names {
			p.HGetAll(ctx, s.flagKey(name))
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	flags := make([]*feature.Flag, 0, len(cmds))
	for _, cmd := range cmds {
		values, err := cmd.(*redis.MapStringStringCmd).Result()
		if err != nil {
			return nil, classify(err)
		}
		if len(values) == 0 {
			continue
		}
		flag, err := decodeFlag(values)
		if err != nil {
			return nil, err
		}
		flags = append(flags, flag)
	}
	return flags, nil
}

// CreateFlag stores a new flag, returning feature.ErrFlagExists if the name is taken.
func (s *Storage) CreateFlag(ctx context.Context, flag *feature.Flag) error {
	if flag == nil {
		return errors.Join(feature.ErrInvalidFlag, errors.New("flag cannot be nil"))
	}
	if flag.Name == "" {
		return errors.Join(feature.ErrInvalidFlag, errors.New("flag name cannot be empty"))
	}

	created := flag.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	updated := flag.UpdatedAt
	if updated.IsZero() {
		updated = created
	}

	ok, err := createScript.Run(ctx, s.client,
		[]string{s.flagKey(flag.Name), s.indexKey()},
		flag.Name, flag.Description, strconv.FormatBool(flag.Enabled),
		formatTime(created), formatTime(updated),
	).Int()
	if err != nil {
		return classify(err)
	}
	if ok == 0 {
		return feature.ErrFlagExists
	}
	return nil
}

// SetEnabled updates the enabled state of a stored flag.
func (s *Storage) SetEnabled(ctx context.Context, name string, enabled bool) (*feature.Flag, error) {
	res, err := setEnabledScript.Run(ctx, s.client,
		[]string{s.flagKey(name)},
		strconv.FormatBool(enabled), formatTime(s.now()),
	).StringSlice()
	if err != nil {
		return nil, classify(err)
	}
	if len(res) == 0 {
		return nil, feature.ErrFlagNotFound
	}

	values := make(map[string]string, len(res)/2)
	for i := 0; i+1 < len(res); i += 2 {
		values[res[i]] = res[i+1]
	}
	return decodeFlag(values)
}

// Close is a no-op; the client is closed by its owner.
func (s *Storage) Close() error {
	return nil
}

func formatTime(t time.Time) string {
	return strconv.FormatInt(t.UnixNano(), 10)
}

func parseTime(s string) (time.Time, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, n).UTC(), nil
}

func decodeFlag(values map[string]string) (*feature.Flag, error) {
	enabled, err := strconv.ParseBool(values["enabled"])
	if err != nil {
		return nil, corrupt(values["name"], err)
	}
	created, err := parseTime(values["created_at"])
	if err != nil {
		return nil, corrupt(values["name"], err)
	}
	updated, err := parseTime(values["updated_at"])
	if err != nil {
		return nil, corrupt(values["name"], err)
	}
	return &feature.Flag{
		Name:        values["name"],
		Description: values["description"],
		Enabled:     enabled,
		CreatedAt:   created,
		UpdatedAt:   updated,
	}, nil
}

func corrupt(name string, err error) error {
	return errors.Join(feature.ErrStorageFailure, errors.New("corrupt flag record: "+strings.TrimSpace(name)), err)
}

func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.Join(feature.ErrStorageFailure, err)
}
