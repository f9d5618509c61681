package chatstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/barbashov/chatguard/internal/domain"
)

// MemoryUserStore is an in-process UserStore implementation for tests.
type MemoryUserStore struct {
	mu    sync.Mutex
	users map[[2]int64]domain.ChatUser
}

// NewMemoryUserStore returns an empty MemoryUserStore.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[[2]int64]domain.ChatUser)}
}

func (s *MemoryUserStore) Get(_ context.Context, chatID, userID int64) (domain.ChatUser, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[[2]int64{chatID, userID}]
	return u, ok, nil
}

func (s *MemoryUserStore) Upsert(_ context.Context, user domain.ChatUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[[2]int64{user.ChatID, user.UserID}] = user
	return nil
}

func (s *MemoryUserStore) IncrementMessageCount(_ context.Context, chatID, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]int64{chatID, userID}
	u := s.users[key]
	u.ChatID, u.UserID = chatID, userID
	u.MessageCount++
	s.users[key] = u
	return u.MessageCount, nil
}

func (s *MemoryUserStore) SetSpammer(_ context.Context, chatID, userID int64, isSpammer bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]int64{chatID, userID}
	u := s.users[key]
	u.ChatID, u.UserID = chatID, userID
	u.IsSpammer = isSpammer
	s.users[key] = u
	return nil
}

func (s *MemoryUserStore) SetMetadata(_ context.Context, chatID, userID int64, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := [2]int64{chatID, userID}
	u := s.users[k]
	u.ChatID, u.UserID = chatID, userID
	if u.Metadata == nil {
		u.Metadata = map[string]string{}
	}
	u.Metadata[key] = value
	s.users[k] = u
	return nil
}

// MemoryMessageHistoryStore is an in-process MessageHistoryStore for tests.
type MemoryMessageHistoryStore struct {
	mu      sync.Mutex
	entries map[[2]int64][]HistoryEntry
}

// NewMemoryMessageHistoryStore returns an empty MemoryMessageHistoryStore.
func NewMemoryMessageHistoryStore() *MemoryMessageHistoryStore {
	return &MemoryMessageHistoryStore{entries: make(map[[2]int64][]HistoryEntry)}
}

func (s *MemoryMessageHistoryStore) Record(_ context.Context, chatID, userID, messageID int64, text string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]int64{chatID, userID}
	s.entries[key] = append(s.entries[key], HistoryEntry{MessageID: messageID, Text: text, Timestamp: at})
	return nil
}

func (s *MemoryMessageHistoryStore) LastN(_ context.Context, chatID, userID int64, n int) ([]HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := append([]HistoryEntry(nil), s.entries[[2]int64{chatID, userID}]...)
	sort.Slice(all, func(i, j int) bool { return all[i].MessageID > all[j].MessageID })
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

func (s *MemoryMessageHistoryStore) DeleteMessages(_ context.Context, chatID int64, messageIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	toDelete := make(map[int64]struct{}, len(messageIDs))
	for _, id := range messageIDs {
		toDelete[id] = struct{}{}
	}
	for key, entries := range s.entries {
		if key[0] != chatID {
			continue
		}
		filtered := entries[:0:0]
		for _, e := range entries {
			if _, drop := toDelete[e.MessageID]; !drop {
				filtered = append(filtered, e)
			}
		}
		s.entries[key] = filtered
	}
	return nil
}

// MemorySpamHamStore is an in-process SpamHamStore for tests.
type MemorySpamHamStore struct {
	mu   sync.Mutex
	spam []domain.StoredMessage
	ham  []domain.StoredMessage
}

// NewMemorySpamHamStore returns an empty MemorySpamHamStore.
func NewMemorySpamHamStore() *MemorySpamHamStore {
	return &MemorySpamHamStore{}
}

func (s *MemorySpamHamStore) InsertSpam(_ context.Context, msg domain.StoredMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spam = append(s.spam, msg)
	return nil
}

func (s *MemorySpamHamStore) InsertHam(_ context.Context, msg domain.StoredMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ham = append(s.ham, msg)
	return nil
}

func (s *MemorySpamHamStore) ExistsSpamWithText(_ context.Context, chatID int64, text string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.spam {
		if m.ChatID == chatID && m.Text == text {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemorySpamHamStore) SpamByUser(_ context.Context, chatID, userID int64) ([]domain.StoredMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.StoredMessage
	for _, m := range s.spam {
		if m.ChatID == chatID && m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *MemorySpamHamStore) DeleteSpamByUser(_ context.Context, chatID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	filtered := s.spam[:0:0]
	for _, m := range s.spam {
		if !(m.ChatID == chatID && m.UserID == userID) {
			filtered = append(filtered, m)
		}
	}
	s.spam = filtered
	return nil
}
