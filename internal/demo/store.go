package demo

import (
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Address is the optional postal address of a user.
type Address struct {
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

// User is a registered user. Its schema is declared in docs/users_post.yml.
type User struct {
	Username string   `json:"username"`
	Age      int      `json:"age"`
	Tags     []string `json:"tags,omitempty"`
	Address  *Address `json:"address,omitempty"`
}

// Pet is a stored pet. Its schema is derived from the struct.
type Pet struct {
	ID   string `json:"id" openapi:"description=Pet identifier,format=uuid,readOnly"`
	Name string `json:"name" openapi:"description=Pet name,minLength=1"`
	Kind string `json:"kind" openapi:"enum=cat|dog|owl"`
}

// NewPet is the request body for creating a pet.
type NewPet struct {
	Name string `json:"name" openapi:"description=Pet name,minLength=1"`
	Kind string `json:"kind" openapi:"enum=cat|dog|owl"`
}

// PetList is the response of the pet listing.
type PetList struct {
	Pets []Pet `json:"pets"`
}

// store keeps users and pets in memory.
type store struct {
	mu      sync.RWMutex
	users   []User
	pets    map[string]Pet
	petKeys []string
}

func newStore() *store {
	return &store{pets: make(map[string]Pet)}
}

func (s *store) addUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = append(s.users, u)
}

// listUsers returns at most limit users; limit <= 0 returns all of them.
func (s *store) listUsers(limit int) []User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := slices.Clone(s.users)
	if limit > 0 && limit < len(users) {
		users = users[:limit]
	}
	if users == nil {
		users = []User{}
	}
	return users
}

func (s *store) addPet(p NewPet) Pet {
	s.mu.Lock()
	defer s.mu.Unlock()

	pet := Pet{ID: uuid.New().String(), Name: p.Name, Kind: p.Kind}
	s.pets[pet.ID] = pet
	s.petKeys = append(s.petKeys, pet.ID)
	return pet
}

func (s *store) pet(id string) (Pet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pets[id]
	return p, ok
}

func (s *store) listPets() []Pet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Pet, 0, len(s.petKeys))
	for _, id := range s.petKeys {
		out = append(out, s.pets[id])
	}
	return out
}

func (s *store) deletePet(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pets[id]; !ok {
		return false
	}
	delete(s.pets, id)
	s.petKeys = slices.DeleteFunc(s.petKeys, func(k string) bool { return k == id })
	return true
}
