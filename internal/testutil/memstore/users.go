package memstore

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Users struct {
	mu    sync.Mutex
	names map[primitive.ObjectID]string

	FailLookup error
}

// Put registers a user name and returns its id.
func (s *Users) Put(name string) primitive.ObjectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := primitive.NewObjectID()
	s.names[id] = name
	return id
}

func (s *Users) DisplayName(_ context.Context, id primitive.ObjectID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailLookup != nil {
		return "", s.FailLookup
	}
	n, ok := s.names[id]
	if !ok {
		return "", mongo.ErrNoDocuments
	}
	return n, nil
}
