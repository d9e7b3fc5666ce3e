package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"freightdesk/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when a key is absent. Callers fall through to
// the database on a miss.
var ErrCacheMiss = errors.New("cache: miss")

type CacheService interface {
	// Load caching
	GetLoad(ctx context.Context, tenantID, loadID uuid.UUID) (*models.Load, error)
	SetLoad(ctx context.Context, tenantID uuid.UUID, load *models.Load, ttl time.Duration) error
	DeleteLoad(ctx context.Context, tenantID, loadID uuid.UUID) error

	// Driver caching
	GetDriver(ctx context.Context, tenantID, driverID uuid.UUID) (*models.User, error)
	SetDriver(ctx context.Context, tenantID uuid.UUID, driver *models.User, ttl time.Duration) error
	DeleteDriver(ctx context.Context, tenantID, driverID uuid.UUID) error

	// Webhook delivery dedup. MarkEventProcessed returns false if the
	// event id was already recorded inside the window. ClearEvent drops
	// the reservation so a retried delivery is processed again.
	MarkEventProcessed(ctx context.Context, eventID string, window time.Duration) (bool, error)
	ClearEvent(ctx context.Context, eventID string) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// Generic string operations for token management
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis://host:port as well as bare host:port.
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", err, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func loadKey(tenantID, loadID uuid.UUID) string {
	return fmt.Sprintf("tenant:%s:load:%s", tenantID, loadID)
}

func driverKey(tenantID, driverID uuid.UUID) string {
	return fmt.Sprintf("tenant:%s:driver:%s", tenantID, driverID)
}

func eventKey(eventID string) string {
	return fmt.Sprintf("webhook:event:%s", eventID)
}

func (s *redisCacheService) GetLoad(ctx context.Context, tenantID, loadID uuid.UUID) (*models.Load, error) {
	data, err := s.client.Get(ctx, loadKey(tenantID, loadID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("cache: get load: %w", err)
	}
	load := &models.Load{}
	if err := json.Unmarshal(data, load); err != nil {
		return nil, fmt.Errorf("cache: unmarshal load: %w", err)
	}
	return load, nil
}

func (s *redisCacheService) SetLoad(ctx context.Context, tenantID uuid.UUID, load *models.Load, ttl time.Duration) error {
	data, err := json.Marshal(load)
	if err != nil {
		return fmt.Errorf("cache: marshal load: %w", err)
	}
	return s.client.Set(ctx, loadKey(tenantID, load.ID), data, ttl).Err()
}

func (s *redisCacheService) DeleteLoad(ctx context.Context, tenantID, loadID uuid.UUID) error {
	return s.client.Del(ctx, loadKey(tenantID, loadID)).Err()
}

func (s *redisCacheService) GetDriver(ctx context.Context, tenantID, driverID uuid.UUID) (*models.User, error) {
	data, err := s.client.Get(ctx, driverKey(tenantID, driverID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("cache: get driver: %w", err)
	}
	driver := &models.User{}
	if err := json.Unmarshal(data, driver); err != nil {
		return nil, fmt.Errorf("cache: unmarshal driver: %w", err)
	}
	return driver, nil
}

func (s *redisCacheService) SetDriver(ctx context.Context, tenantID uuid.UUID, driver *models.User, ttl time.Duration) error {
	data, err := json.Marshal(driver)
	if err != nil {
		return fmt.Errorf("cache: marshal driver: %w", err)
	}
	return s.client.Set(ctx, driverKey(tenantID, driver.ID), data, ttl).Err()
}

func (s *redisCacheService) DeleteDriver(ctx context.Context, tenantID, driverID uuid.UUID) error {
	return s.client.Del(ctx, driverKey(tenantID, driverID)).Err()
}

// MarkEventProcessed reserves a webhook event id with SETNX. A second
// delivery of the same event inside the window sees false and skips
// processing.
func (s *redisCacheService) MarkEventProcessed(ctx context.Context, eventID string, window time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, eventKey(eventID), "1", window).Result()
	if err != nil {
		return false, fmt.Errorf("cache: mark event: %w", err)
	}
	return ok, nil
}

func (s *redisCacheService) ClearEvent(ctx context.Context, eventID string) error {
	return s.client.Del(ctx, eventKey(eventID)).Err()
}

func (s *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	rateKey := fmt.Sprintf("ratelimit:%s", key)
	count, err := s.client.Incr(ctx, rateKey).Result()
	if err != nil {
		return false, fmt.Errorf("cache: rate limit incr: %w", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, rateKey, window).Err(); err != nil {
			return false, fmt.Errorf("cache: rate limit expire: %w", err)
		}
	}
	return count > int64(limit), nil
}

func (s *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("cache: get string: %w", err)
	}
	return value, nil
}

func (s *redisCacheService) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
