package cache

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRistrettoCache(t *testing.T) {
	logger := zap.NewNop()
	cacheInterface, err := NewRistrettoCache(&RistrettoConfig{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
		Logger:      logger,
	})
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	defer cacheInterface.Close()

	cache := cacheInterface.(*RistrettoCache)

	t.Run("set-and-get", func(t *testing.T) {
		if !cache.Set("rules:BTC-USDT", "value", time.Hour) {
			t.Error("expected Set to succeed")
		}
		cache.Wait()

		retrieved, found := cache.Get("rules:BTC-USDT")
		if !found {
			t.Fatal("expected key to be found")
		}
		if retrieved != "value" {
			t.Errorf("expected %q, got %q", "value", retrieved)
		}
	})

	t.Run("get-missing-key", func(t *testing.T) {
		if _, found := cache.Get("nonexistent"); found {
			t.Error("expected key to not be found")
		}
	})

	t.Run("delete", func(t *testing.T) {
		cache.Set("delete-test", "value", time.Hour)
		cache.Wait()

		if _, found := cache.Get("delete-test"); !found {
			t.Skip("key not admitted")
		}

		cache.Delete("delete-test")
		if _, found := cache.Get("delete-test"); found {
			t.Error("expected key to be deleted")
		}
	})

	t.Run("ttl-expiration", func(t *testing.T) {
		cache.Set("ttl-test", "value", 200*time.Millisecond)
		cache.Wait()

		if _, found := cache.Get("ttl-test"); !found {
			t.Skip("key not admitted")
		}

		time.Sleep(300 * time.Millisecond)
		if _, found := cache.Get("ttl-test"); found {
			t.Error("expected key to be expired after TTL")
		}
	})

	t.Run("clear", func(t *testing.T) {
		cache.Set("clear-key1", "value1", time.Hour)
		cache.Set("clear-key2", "value2", time.Hour)
		cache.Wait()

		_, found1 := cache.Get("clear-key1")
		_, found2 := cache.Get("clear-key2")
		if !found1 || !found2 {
			t.Skip("keys not admitted")
		}

		cache.Clear()

		_, found1 = cache.Get("clear-key1")
		_, found2 = cache.Get("clear-key2")
		if found1 || found2 {
			t.Error("expected cache cleared")
		}
	})
}
