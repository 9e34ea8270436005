package secretstore_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/richardndungu94/secretsmith/secretstore"
)

func TestCache_TTL(t *testing.T) {
	t.Parallel()

	v := &secretstore.Version{VersionID: "v1", Value: "payload"}
	c := secretstore.NewTTLCache[*secretstore.Version](1024, time.Second)
	c.Set("k", v)

	got, ok := c.Get("k")
	if !ok {
		t.Fatalf("expected cache hit")
	}
	assert.Equal(t, v, got)

	time.Sleep(2 * time.Second)
	got, ok = c.Get("k")
	if ok {
		t.Fatalf("expected cache miss")
	}
	assert.Nil(t, got)
}

func TestCache_Clear(t *testing.T) {
	t.Parallel()

	c := secretstore.NewTTLCache[string](4, time.Minute)
	c.Set("k", "v")
	c.Clear("k")

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_ClearThenResetSurvivesEviction(t *testing.T) {
	t.Parallel()

	c := secretstore.NewTTLCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear("a")
	c.Set("a", 10)
	c.Set("c", 3)

	got, ok := c.Get("a")
	assert.True(t, ok, "re-set key is not evicted off a stale queue entry")
	assert.Equal(t, 10, got)
	_, ok = c.Get("b")
	assert.False(t, ok, "the actually oldest key is the one evicted")
}

func TestCache_EvictsOldestAtCapacity(t *testing.T) {
	t.Parallel()

	c := secretstore.NewTTLCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	_, ok := c.Get("a")
	assert.False(t, ok, "oldest inserted key is evicted")
	got, ok := c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, got)
}
