package demo

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pergola"
)

func demoEngine(t *testing.T) (*pergola.Engine, *Store) {
	t.Helper()
	store := NewStore()
	e := pergola.New()
	e.MustRegister(UsersTool(store))
	return e, store
}

func TestUsersTool_GetAndList(t *testing.T) {
	e, _ := demoEngine(t)

	resp := e.Execute(context.Background(), "users", map[string]any{"action": "get", "id": "1"})
	require.False(t, resp.IsError)

	resp = e.Execute(context.Background(), "users", map[string]any{"action": "list"})
	require.False(t, resp.IsError)
}

func TestUsersTool_PutDecodesOptionalAge(t *testing.T) {
	e, store := demoEngine(t)

	resp := e.Execute(context.Background(), "users", map[string]any{
		"action": "put",
		"id":     "3",
		"name":   "Grace Hopper",
	})
	require.False(t, resp.IsError, resp.FirstText())

	u, err := store.Get("3")
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", u.Name)
	assert.Zero(t, u.Age)
}

func TestUsersTool_DeleteAbsentUserFails(t *testing.T) {
	e, _ := demoEngine(t)

	resp := e.Execute(context.Background(), "users", map[string]any{"action": "delete", "id": "999"})
	require.True(t, resp.IsError)
	assert.Contains(t, resp.FirstText(), "not found")
}

func TestUsersTool_WritesSerializeOnSharedKey(t *testing.T) {
	e, store := demoEngine(t)

	// Concurrent puts and deletes on the shared write key must all land
	// without losing updates.
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i%5))
			_ = e.Execute(context.Background(), "users", map[string]any{
				"action": "put",
				"id":     id,
				"name":   "user " + id,
			})
		}(i)
	}
	wg.Wait()

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		_, err := store.Get(id)
		assert.NoError(t, err)
	}
	assert.Equal(t, 0, e.Serializer().Len())
}
