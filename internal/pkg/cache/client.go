package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client define o contrato de cache usado pelo repositório e pelo rate limiter.
type Client interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	// Incr incrementa o contador da chave; no primeiro incremento a chave recebe o TTL informado.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Ping(ctx context.Context) error
}

// ErrCacheMiss é retornado quando a chave não é encontrada no cache.
var ErrCacheMiss = redis.Nil

// RedisClient é a implementação concreta da interface Client, usando Redis.
type RedisClient struct {
	rdb *redis.Client
}

// NewRedisClient cria o cliente Redis e testa a conexão.
// Um Redis indisponível não impede o cliente de ser criado: o erro é devolvido
// para o chamador decidir se segue sem cache.
func NewRedisClient(addr, password string) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return &RedisClient{rdb: rdb}, fmt.Errorf("redis indisponível em %s: %w", addr, err)
	}

	return &RedisClient{rdb: rdb}, nil
}

// Get recupera o valor associado a uma chave.
func (c *RedisClient) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// Set define um valor para uma chave com um tempo de expiração.
func (c *RedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.rdb.Set(ctx, key, value, expiration).Err()
}

// Delete remove uma chave do cache.
func (c *RedisClient) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// Incr implementa uma janela fixa: INCR e, se for o primeiro hit, EXPIRE.
func (c *RedisClient) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := c.rdb.Expire(ctx, key, ttl).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// Ping verifica a disponibilidade do Redis.
func (c *RedisClient) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close encerra o pool de conexões.
func (c *RedisClient) Close() error {
	return c.rdb.Close()
}

// NoopClient é usado quando o cache está desabilitado: toda leitura é um miss.
type NoopClient struct{}

// NewNoopClient retorna um Client que não armazena nada.
func NewNoopClient() NoopClient { return NoopClient{} }

func (NoopClient) Get(context.Context, string) (string, error) { return "", ErrCacheMiss }
func (NoopClient) Set(context.Context, string, interface{}, time.Duration) error {
	return nil
}
func (NoopClient) Delete(context.Context, string) error { return nil }

// Incr sempre retorna 1, então o rate limiter nunca bloqueia sem cache.
func (NoopClient) Incr(context.Context, string, time.Duration) (int64, error) { return 1, nil }
func (NoopClient) Ping(context.Context) error                                  { return nil }
