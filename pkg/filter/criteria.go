package filter

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Criteria is an immutable snapshot of browse criteria: the set of active
// filter tokens and the current search query. The zero value matches
// everything (no tokens, empty search).
type Criteria struct {
	tokens []string
	search string
}

// NewCriteria builds a Criteria from the supplied tokens and search query.
// Tokens are de-duplicated and empty tokens are dropped; insertion order is
// irrelevant to the resulting value.
func NewCriteria(tokens []string, search string) Criteria {
	return Criteria{tokens: normalizeTokens(tokens), search: search}
}

func normalizeTokens(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

// Tokens returns the active filter tokens in sorted order. The returned
// slice is a copy and may be modified freely.
func (c Criteria) Tokens() []string {
	if len(c.tokens) == 0 {
		return nil
	}
	out := make([]string, len(c.tokens))
	copy(out, c.tokens)
	return out
}

// Search returns the current search query.
func (c Criteria) Search() string {
	return c.search
}

// Has reports whether the token is active.
func (c Criteria) Has(token string) bool {
	idx := sort.SearchStrings(c.tokens, token)
	return idx < len(c.tokens) && c.tokens[idx] == token
}

// Toggle returns a Criteria with the token's presence flipped: absent tokens
// are added, present tokens are removed. An empty token is a no-op.
func (c Criteria) Toggle(token string) Criteria {
	if token == "" {
		return c
	}
	idx := sort.SearchStrings(c.tokens, token)
	if idx < len(c.tokens) && c.tokens[idx] == token {
		if len(c.tokens) == 1 {
			return Criteria{search: c.search}
		}
		out := make([]string, 0, len(c.tokens)-1)
		out = append(out, c.tokens[:idx]...)
		out = append(out, c.tokens[idx+1:]...)
		return Criteria{tokens: out, search: c.search}
	}
	out := make([]string, 0, len(c.tokens)+1)
	out = append(out, c.tokens[:idx]...)
	out = append(out, token)
	out = append(out, c.tokens[idx:]...)
	return Criteria{tokens: out, search: c.search}
}

// WithSearch returns a Criteria carrying the same tokens and the supplied
// search query.
func (c Criteria) WithSearch(query string) Criteria {
	return Criteria{tokens: c.tokens, search: query}
}

// Empty reports whether no tokens are active and the search query is empty.
func (c Criteria) Empty() bool {
	return len(c.tokens) == 0 && c.search == ""
}

// Equal reports whether two Criteria describe the same browse state.
func (c Criteria) Equal(other Criteria) bool {
	if c.search != other.search || len(c.tokens) != len(other.tokens) {
		return false
	}
	for i, t := range c.tokens {
		if other.tokens[i] != t {
			return false
		}
	}
	return true
}

// Fingerprint returns a canonical hex digest of the criteria. Two Criteria
// built from the same tokens (in any order) and search query share a
// fingerprint; tokens and search contribute to distinct positions so a token
// can never collide with a query.
func (c Criteria) Fingerprint() string {
	h := sha256.New()
	for _, t := range c.tokens {
		h.Write([]byte(t))
		h.Write([]byte{0x1f})
	}
	h.Write([]byte{0x1e})
	h.Write([]byte(c.search))
	return hex.EncodeToString(h.Sum(nil))
}

// String renders the criteria for logs and error messages.
func (c Criteria) String() string {
	return fmt.Sprintf("tokens=[%s] search=%q", strings.Join(c.tokens, " "), c.search)
}
