package network

import (
	"fmt"
	"strconv"

	"github.com/artefactual-labs/scope-services/models/service"
	"github.com/go-redis/redis/v7"
)

type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(address, password string, db int) *RedisClient {
	return &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr:     address,
			Password: password,
			DB:       db,
		}),
	}
}

func (c *RedisClient) Ping() (string, error) {
	return c.client.Ping().Result()
}

// ImportResultGet returns the ImportResult for the given work key and
// operation. The key is a DIP id for imports, or "Class:id" for
// fan-out tasks.
func (c *RedisClient) ImportResultGet(key, operation string) (*service.ImportResult, error) {
	field := fmt.Sprintf("result:%s", operation)
	data, err := c.client.HGet(key, field).Result()
	if err != nil {
		return nil, fmt.Errorf("ImportResultGet (%s, %s): %s",
			key, operation, err.Error())
	}
	return service.ImportResultFromJSON(data)
}

func (c *RedisClient) ImportResultSave(key string, result *service.ImportResult) error {
	field := fmt.Sprintf("result:%s", result.Operation)
	jsonData, err := result.ToJSON()
	if err != nil {
		return err
	}
	_, err = c.client.HSet(key, field, jsonData).Result()
	return err
}

// ImportResultDelete removes all work results for the given key, so
// finished items leave no orphan records in Redis.
func (c *RedisClient) ImportResultDelete(key string) error {
	_, err := c.client.Del(key).Result()
	return err
}

// WorkKeyForDIP returns the Redis key under which a DIP's import
// results are stored.
func WorkKeyForDIP(dipID uint) string {
	return strconv.FormatUint(uint64(dipID), 10)
}
