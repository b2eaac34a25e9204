// Package demo provides a small in-memory user store and its tool
// definition. The CLI registers it so serve and call work out of the box
// without wiring a real backend.
package demo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/pergola"
	"github.com/aretw0/pergola/pkg/domain"
	"github.com/aretw0/pergola/pkg/schema"
)

func progress(percent float64, message string) domain.ProgressEvent {
	return domain.ProgressEvent{Percent: percent, Message: message}
}

// User is one demo record.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Age  int    `json:"age,omitempty"`
}

// Store is a concurrency-safe in-memory user table.
type Store struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewStore creates a store pre-seeded with a few records.
func NewStore() *Store {
	return &Store{
		users: map[string]User{
			"1": {ID: "1", Name: "Ada Lovelace", Age: 36},
			"2": {ID: "2", Name: "Alan Turing", Age: 41},
		},
	}
}

// Get returns the user or an error when absent.
func (s *Store) Get(id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, fmt.Errorf("user %q not found", id)
	}
	return u, nil
}

// List returns all users ordered by ID.
func (s *Store) List() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Put inserts or replaces a user.
func (s *Store) Put(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// Delete removes a user; deleting an absent user is an error.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return fmt.Errorf("user %q not found", id)
	}
	delete(s.users, id)
	return nil
}

// UsersTool builds the demo tool over store. Reads are marked ReadOnly and
// run concurrently; put and delete are destructive and serialize on a shared
// key so interleaved writes cannot corrupt a record.
func UsersTool(store *Store) *pergola.Tool {
	return pergola.NewTool("users", "Manage demo user records").
		Action(pergola.Action{
			Key:         "get",
			Description: "Fetch one user by id",
			Shape:       schema.Schema{"id": schema.String()},
			Handler: func(ctx context.Context, inv *pergola.Invocation) (any, error) {
				return store.Get(inv.Args["id"].(string))
			},
			ReadOnly: true,
		}).
		Action(pergola.Action{
			Key:         "list",
			Description: "List all users",
			Handler: func(ctx context.Context, inv *pergola.Invocation) (any, error) {
				return store.List(), nil
			},
			ReadOnly: true,
		}).
		Action(pergola.Action{
			Key:         "put",
			Description: "Create or replace a user",
			Shape: schema.Schema{
				"id":   schema.String(),
				"name": schema.String(),
				"age":  schema.Optional(schema.Int()),
			},
			Handler: func(ctx context.Context, inv *pergola.Invocation) (any, error) {
				var u User
				if err := inv.Decode(&u); err != nil {
					return nil, err
				}
				store.Put(u)
				return fmt.Sprintf("stored user %s", u.ID), nil
			},
			Destructive: true,
			MutexKey:    "users.write",
		}).
		Action(pergola.Action{
			Key:         "delete",
			Description: "Remove a user",
			Shape:       schema.Schema{"id": schema.String()},
			Handler: pergola.Streaming(func(ctx context.Context, inv *pergola.Invocation, emit pergola.EmitFunc) (any, error) {
				id := inv.Args["id"].(string)
				// Staged removal so progress is observable in demos.
				emit(progress(25, "checking references"))
				time.Sleep(10 * time.Millisecond)
				emit(progress(75, "removing record"))
				if err := store.Delete(id); err != nil {
					return nil, err
				}
				return fmt.Sprintf("deleted user %s", id), nil
			}),
			Destructive: true,
			MutexKey:    "users.write",
		})
}
