package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"sciquiz-service/internal/domain"
	"sciquiz-service/internal/questions"
)

// BankSource generates question sets from an in-memory bank keyed by topic
// (useful for tests and demos). Requests without topics draw from the whole
// bank; the picked questions are shuffled per request.
type BankSource struct {
	mu   sync.Mutex
	bank map[string][]domain.Question
	rnd  *rand.Rand
}

func NewBankSource(bank map[string][]domain.Question) *BankSource {
	return &BankSource{
		bank: bank,
		rnd:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewBankSourceWithRand is NewBankSource with an injected rand for
// deterministic tests.
func NewBankSourceWithRand(bank map[string][]domain.Question, rnd *rand.Rand) *BankSource {
	return &BankSource{bank: bank, rnd: rnd}
}

func (b *BankSource) Generate(_ context.Context, req questions.Request) ([]domain.Question, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	topics := req.Topics
	if len(topics) == 0 {
		topics = make([]string, 0, len(b.bank))
		for topic := range b.bank {
			topics = append(topics, topic)
		}
	}
	var pool []domain.Question
	for _, topic := range topics {
		pool = append(pool, b.bank[topic]...)
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("no questions for topics %v: %w", req.Topics, domain.ErrEmptyQuestionSet)
	}
	b.rnd.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	count := req.Count
	if count <= 0 || count > len(pool) {
		count = len(pool)
	}
	return pool[:count], nil
}

// StaticSetLoader serves pre-registered question sets by id.
type StaticSetLoader struct {
	sets map[string][]domain.Question
}

func NewStaticSetLoader(sets map[string][]domain.Question) *StaticSetLoader {
	return &StaticSetLoader{sets: sets}
}

func (l *StaticSetLoader) LoadSet(_ context.Context, setID string) ([]domain.Question, error) {
	if set, ok := l.sets[setID]; ok {
		return set, nil
	}
	return nil, domain.ErrSetNotFound
}
