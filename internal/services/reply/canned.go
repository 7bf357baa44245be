// File: internal/services/reply/canned.go
package reply

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// CannedGenerator answers from fixed response pools after a short
// simulated latency. It is the default engine when no LLM key is
// configured, and it keeps demos and tests deterministic via the seed.
type CannedGenerator struct {
	minDelay time.Duration
	maxDelay time.Duration
	logger   Logger

	mu  sync.Mutex
	rng *rand.Rand
}

var greetingReplies = []string{
	"Hello! What can I help you with today?",
	"Hi there! Ask me anything.",
	"Hey! Good to see you. What's on your mind?",
}

var gratitudeReplies = []string{
	"You're welcome! Anything else I can help with?",
	"Glad I could help. Feel free to ask more.",
	"Any time! Let me know if something else comes up.",
}

var farewellReplies = []string{
	"Goodbye! Come back whenever you like.",
	"Take care! Your chats are saved for next time.",
	"See you later!",
}

var codingReplies = []string{
	"That looks like a programming question. Could you share the exact error message or the snippet involved?",
	"A good first step is to reproduce the problem in the smallest possible example. What have you tried so far?",
	"I'd start by checking the inputs at the boundary where it fails. Can you describe what you expected to happen?",
}

var questionReplies = []string{
	"Good question. The short answer depends on a couple of details - can you narrow it down a bit?",
	"There are a few ways to look at that. What outcome are you hoping for?",
	"Let me think about that. Could you give me a concrete example?",
}

var defaultReplies = []string{
	"Interesting - tell me more about that.",
	"I see. What would you like to do next?",
	"Understood. Can you give me a bit more context?",
	"Got it. Here's my take: start with the simplest version that could work, then iterate.",
}

func NewCannedGenerator(minDelay, maxDelay time.Duration, seed int64, logger Logger) *CannedGenerator {
	if minDelay < 0 {
		minDelay = 0
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &CannedGenerator{
		minDelay: minDelay,
		maxDelay: maxDelay,
		logger:   logger,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Generate picks a pool by keyword and waits out the simulated latency,
// aborting early when the context ends.
func (g *CannedGenerator) Generate(ctx context.Context, userText string) (string, error) {
	if strings.TrimSpace(userText) == "" {
		return "", NewValidationError("generate", "user text cannot be empty")
	}

	delay, answer := g.pick(userText)
	if delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}

	g.logger.Debug("canned reply served", "latency", delay)
	return answer, nil
}

func (g *CannedGenerator) HealthCheck(ctx context.Context) error {
	return nil
}

func (g *CannedGenerator) pick(userText string) (time.Duration, string) {
	pool := poolFor(userText)

	g.mu.Lock()
	defer g.mu.Unlock()
	answer := pool[g.rng.Intn(len(pool))]
	delay := g.minDelay
	if span := g.maxDelay - g.minDelay; span > 0 {
		delay += time.Duration(g.rng.Int63n(int64(span)))
	}
	return delay, answer
}

func poolFor(userText string) []string {
	text := strings.ToLower(userText)
	switch {
	case containsAny(text, "hello", "hi ", "hey"), strings.HasPrefix(text, "hi"):
		return greetingReplies
	case containsAny(text, "thank", "thanks"):
		return gratitudeReplies
	case containsAny(text, "bye", "goodbye", "see you"):
		return farewellReplies
	case containsAny(text, "code", "bug", "error", "compile", "function", "panic"):
		return codingReplies
	case strings.Contains(text, "?"):
		return questionReplies
	default:
		return defaultReplies
	}
}

func containsAny(text string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
