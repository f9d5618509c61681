package bayes

import (
	"context"
	"sort"
	"sync"
)

type tokenKey struct {
	token  string
	chatID int64
	global bool
}

// MemoryStorage is an in-process Storage implementation, used by tests and
// by deployments that do not need statistics to survive a restart.
type MemoryStorage struct {
	mu      sync.Mutex
	tokens  map[tokenKey]TokenStats
	classes map[bool]map[int64]ClassStats // isSpam -> chatID (0 for global) -> stats
	global  map[bool]ClassStats
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		tokens:  make(map[tokenKey]TokenStats),
		classes: map[bool]map[int64]ClassStats{true: {}, false: {}},
		global:  map[bool]ClassStats{},
	}
}

func keyFor(token string, scope Scope) tokenKey {
	chatID, isChat := scope.ChatID()
	return tokenKey{token: token, chatID: chatID, global: !isChat}
}

func (s *MemoryStorage) GetTokenStats(_ context.Context, token string, scope Scope) (TokenStats, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.tokens[keyFor(token, scope)]
	return st, ok, nil
}

func (s *MemoryStorage) GetClassStats(_ context.Context, isSpam bool, scope Scope) (ClassStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.classStatsLocked(isSpam, scope), nil
}

func (s *MemoryStorage) classStatsLocked(isSpam bool, scope Scope) ClassStats {
	chatID, isChat := scope.ChatID()
	if !isChat {
		return s.global[isSpam]
	}
	return s.classes[isSpam][chatID]
}

func (s *MemoryStorage) UpdateTokenStats(_ context.Context, token string, isSpam bool, inc int, scope Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateTokenLocked(token, isSpam, inc, scope)
	return nil
}

func (s *MemoryStorage) updateTokenLocked(token string, isSpam bool, inc int, scope Scope) {
	k := keyFor(token, scope)
	st := s.tokens[k]
	st.Token = token
	if isSpam {
		st.SpamCount += inc
	} else {
		st.HamCount += inc
	}
	st.TotalCount = st.SpamCount + st.HamCount
	s.tokens[k] = st
}

func (s *MemoryStorage) UpdateClassStats(_ context.Context, isSpam bool, msgInc, tokInc int, scope Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chatID, isChat := scope.ChatID()
	if !isChat {
		cs := s.global[isSpam]
		cs.MessageCount += msgInc
		cs.TokenCount += tokInc
		s.global[isSpam] = cs
		return nil
	}
	cs := s.classes[isSpam][chatID]
	cs.MessageCount += msgInc
	cs.TokenCount += tokInc
	s.classes[isSpam][chatID] = cs
	return nil
}

func (s *MemoryStorage) BatchUpdateTokens(_ context.Context, updates []TokenUpdate, scope Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range updates {
		s.updateTokenLocked(u.Token, u.IsSpam, u.Increment, scope)
	}
	return nil
}

func (s *MemoryStorage) GetVocabularySize(_ context.Context, scope Scope) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chatID, isChat := scope.ChatID()
	n := 0
	for k := range s.tokens {
		if k.global == !isChat && (!isChat || k.chatID == chatID) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStorage) GetModelStats(_ context.Context, scope Scope) (ModelStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	spam := s.classStatsLocked(true, scope)
	ham := s.classStatsLocked(false, scope)
	vocab := 0
	chatID, isChat := scope.ChatID()
	totalTokens := 0
	for k, st := range s.tokens {
		if k.global == !isChat && (!isChat || k.chatID == chatID) {
			vocab++
			totalTokens += st.TotalCount
		}
	}
	return ModelStats{
		SpamMessages: spam.MessageCount,
		HamMessages:  ham.MessageCount,
		TotalTokens:  totalTokens,
		VocabSize:    vocab,
	}, nil
}

func (s *MemoryStorage) ClearStats(_ context.Context, scope Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chatID, isChat := scope.ChatID()
	for k := range s.tokens {
		if k.global == !isChat && (!isChat || k.chatID == chatID) {
			delete(s.tokens, k)
		}
	}
	if !isChat {
		s.global[true] = ClassStats{}
		s.global[false] = ClassStats{}
	} else {
		delete(s.classes[true], chatID)
		delete(s.classes[false], chatID)
	}
	return nil
}

func (s *MemoryStorage) topTokens(isSpam bool, limit int, scope Scope) []TokenStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	chatID, isChat := scope.ChatID()
	var out []TokenStats
	for k, st := range s.tokens {
		if k.global != !isChat || (isChat && k.chatID != chatID) {
			continue
		}
		if st.TotalCount < 2 {
			continue
		}
		count := st.SpamCount
		if !isSpam {
			count = st.HamCount
		}
		if count == 0 {
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := out[i].SpamCount, out[j].SpamCount
		if !isSpam {
			ci, cj = out[i].HamCount, out[j].HamCount
		}
		ri := float64(ci) / float64(out[i].TotalCount)
		rj := float64(cj) / float64(out[j].TotalCount)
		if ri != rj {
			return ri > rj
		}
		if ci != cj {
			return ci > cj
		}
		return out[i].Token < out[j].Token
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *MemoryStorage) GetTopSpamTokens(_ context.Context, limit int, scope Scope) ([]TokenStats, error) {
	return s.topTokens(true, limit, scope), nil
}

func (s *MemoryStorage) GetTopHamTokens(_ context.Context, limit int, scope Scope) ([]TokenStats, error) {
	return s.topTokens(false, limit, scope), nil
}

func (s *MemoryStorage) CleanupRareTokens(_ context.Context, minCount int, scope Scope) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chatID, isChat := scope.ChatID()
	removed := 0
	for k, st := range s.tokens {
		if k.global != !isChat || (isChat && k.chatID != chatID) {
			continue
		}
		if st.TotalCount < minCount {
			delete(s.tokens, k)
			removed++
		}
	}
	return removed, nil
}
