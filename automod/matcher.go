package automod

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"discord-automod/model"
)

// Matcher evaluates banned-phrase rules against message content and, for
// name-mode rules, against usernames on join. Compiled patterns are cached
// per rule so a hot guild does not recompile on every message.
type Matcher struct {
	timeout time.Duration

	mu    sync.Mutex
	cache map[string]*regexp.Regexp
}

// NewMatcher creates a matcher. timeout bounds a single regex evaluation;
// an evaluation that exceeds it is treated as no-match and reported.
func NewMatcher(timeout time.Duration) *Matcher {
	if timeout <= 0 {
		timeout = 100 * time.Millisecond
	}
	return &Matcher{
		timeout: timeout,
		cache:   make(map[string]*regexp.Regexp),
	}
}

// Match returns every rule the message content matches. Name-mode rules are
// skipped here; they only apply to usernames on join events. A rule with a
// bad or slow pattern contributes an error instead of blocking the rest.
func (m *Matcher) Match(content string, rules []model.BannedPhraseRule) ([]model.BannedPhraseRule, []error) {
	var matched []model.BannedPhraseRule
	var errs []error

	lowered := strings.ToLower(content)
	for _, rule := range rules {
		switch rule.Mode {
		case model.MatchExact:
			if rule.Phrase != "" && strings.Contains(lowered, strings.ToLower(rule.Phrase)) {
				matched = append(matched, rule)
			}
		case model.MatchRegex:
			ok, err := m.matchRegex(rule, content)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if ok {
				matched = append(matched, rule)
			}
		case model.MatchName:
			// username rules are evaluated by MatchName on join
		}
	}
	return matched, errs
}

// MatchName returns every name-mode rule whose phrase equals the username,
// case-insensitively.
func (m *Matcher) MatchName(username string, rules []model.BannedPhraseRule) []model.BannedPhraseRule {
	var matched []model.BannedPhraseRule
	for _, rule := range rules {
		if rule.Mode == model.MatchName && rule.Phrase != "" && strings.EqualFold(username, rule.Phrase) {
			matched = append(matched, rule)
		}
	}
	return matched
}

func (m *Matcher) matchRegex(rule model.BannedPhraseRule, content string) (bool, error) {
	re, err := m.compiled(rule)
	if err != nil {
		return false, fmt.Errorf("rule %d: invalid pattern %q: %w", rule.ID, rule.Phrase, err)
	}

	result := make(chan bool, 1)
	go func() {
		result <- re.MatchString(content)
	}()

	select {
	case ok := <-result:
		return ok, nil
	case <-time.After(m.timeout):
		return false, fmt.Errorf("rule %d: pattern %q timed out after %s", rule.ID, rule.Phrase, m.timeout)
	}
}

func (m *Matcher) compiled(rule model.BannedPhraseRule) (*regexp.Regexp, error) {
	key := fmt.Sprintf("%d:%s", rule.ID, rule.Phrase)

	m.mu.Lock()
	defer m.mu.Unlock()
	if re, ok := m.cache[key]; ok {
		return re, nil
	}
	re, err := regexp.Compile("(?i)" + rule.Phrase)
	if err != nil {
		return nil, err
	}
	m.cache[key] = re
	return re, nil
}
