package common

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCacheService_GetOrSet(t *testing.T) {
	cs := NewCacheService(time.Minute, time.Minute)
	ctx := context.Background()
	key := ListingKey("hourly/air_temperature/recent")

	calls := 0
	loader := func(context.Context) ([]string, error) {
		calls++
		return []string{"stundenwerte_TU_00003_akt.zip"}, nil
	}

	for i := 0; i < 3; i++ {
		names, err := cs.GetOrSet(ctx, key, time.Minute, loader)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(names) != 1 {
			t.Fatalf("Expected 1 name, got %v", names)
		}
	}
	if calls != 1 {
		t.Errorf("Expected loader to run once, ran %d times", calls)
	}

	cs.Delete(ctx, key)
	if _, ok := cs.Get(ctx, key); ok {
		t.Error("Expected key to be deleted")
	}
}

func TestCacheService_GetOrSet_ErrorNotCached(t *testing.T) {
	cs := NewCacheService(time.Minute, time.Minute)
	ctx := context.Background()

	_, err := cs.GetOrSet(ctx, "k", time.Minute, func(context.Context) ([]string, error) {
		return nil, errors.New("boom")
	})
	if err == nil {
		t.Fatal("Expected loader error")
	}
	if _, ok := cs.Get(ctx, "k"); ok {
		t.Error("Failed loads must not be cached")
	}
}
