package cache

import (
	"context"
	"testing"

	"github.com/flexprice/taxledger/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestInMemoryCache(t *testing.T) {
	cfg := config.GetDefaultConfig()
	c := NewInMemoryCache(cfg)
	ctx := context.Background()

	key := GenerateKey(PrefixTaxProperties, "tenant_a")
	c.Set(ctx, key, "value", 0)
	c.Set(ctx, GenerateKey(PrefixTaxProperties, "tenant_b"), "other", 0)

	got, ok := c.Get(ctx, key)
	assert.True(t, ok)
	assert.Equal(t, "value", got)

	c.Delete(ctx, key)
	_, ok = c.Get(ctx, key)
	assert.False(t, ok)

	got, ok = c.Get(ctx, GenerateKey(PrefixTaxProperties, "tenant_b"))
	assert.True(t, ok)
	assert.Equal(t, "other", got)
}

func TestInMemoryCacheDisabled(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Cache.Enabled = false
	c := NewInMemoryCache(cfg)
	ctx := context.Background()

	c.Set(ctx, "key", "value", 0)
	_, ok := c.Get(ctx, "key")
	assert.False(t, ok)
}

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, PrefixTaxProperties+":tenant_a", GenerateKey(PrefixTaxProperties, "tenant_a"))
}
