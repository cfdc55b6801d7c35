package memory

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"pawledger/internal/domain"
	"pawledger/internal/ledger"
	"pawledger/internal/store"
)

type Store struct {
	mu              sync.RWMutex
	ledgers         map[string]*ledger.Arena
	usersByUsername map[string]domain.UserAccount
}

func seedUsers() map[string]domain.UserAccount {
	accounts, err := store.SeedAccounts()
	if err != nil {
		log.Fatalf("[memory-store] %v", err)
	}
	users := make(map[string]domain.UserAccount, len(accounts))
	for _, account := range accounts {
		users[account.Username] = account
	}
	return users
}

// New returns a store with empty ledgers and the seeded staff accounts.
func New() *Store {
	ledgers := make(map[string]*ledger.Arena)
	for _, s := range ledger.Schemas() {
		ledgers[s.Name] = ledger.NewArena(s)
	}
	return &Store{
		ledgers:         ledgers,
		usersByUsername: seedUsers(),
	}
}

// NewSeeded returns a store with opening balances and a few purchases so a
// fresh dev server has something to report on.
func NewSeeded() *Store {
	s := New()
	today := time.Now().UTC().Format(ledger.DateLayout)
	recordedAt := time.Now().UTC().Format(time.RFC3339)

	seed := map[string][]ledger.Row{
		ledger.Balances: {
			{domain.ModeCash, "5000.00", recordedAt},
			{domain.ModeOnline, "12000.00", recordedAt},
		},
		ledger.Inventory: {
			{today, "Dog Food Adult 10kg", "5 bags", "1850.00", "9250.00"},
			{today, "Cat Litter", "10 packs", "240.00", "2400.00"},
			{today, "Fish Flakes", "20 tins", "95.00", "1900.00"},
			{today, "Chew Toy", "15 pcs", "60.00", "900.00"},
		},
	}
	for name, rows := range seed {
		for _, row := range rows {
			s.ledgers[name].Append(row)
		}
	}
	return s
}

func (s *Store) Fetch(_ context.Context, name string) ([]ledger.Row, error) {
	schema, err := store.Schema(name)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledgers[schema.Name].Rows(), nil
}

func (s *Store) Append(_ context.Context, name string, row ledger.Row) error {
	schema, err := store.Schema(name)
	if err != nil {
		return err
	}
	if len(row) == 0 {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers[schema.Name].Append(row)
	return nil
}

func (s *Store) Latest(_ context.Context, name string, key string) (ledger.Row, bool, error) {
	schema, err := store.Schema(name)
	if err != nil {
		return nil, false, err
	}
	if !schema.Keyed() {
		return nil, false, store.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.ledgers[schema.Name].Latest(key)
	return row, ok, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrInvalidInput
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Username = username
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))

	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.usersByUsername[username]
	if !ok {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}
