// Package claims decodes bearer-token payloads into a loosely typed,
// order-preserving claim set. Tokens are server- or attacker-controlled
// input; decoding degrades instead of failing.
package claims

// Kind discriminates the shapes a claim value can take. Anything that is
// neither a string nor a list of strings is carried as KindOther so callers
// pattern-match on shapes instead of hitting runtime type surprises.
type Kind int

const (
	KindText Kind = iota
	KindTextList
	KindOther
)

// Value is a single claim value tagged with its shape.
type Value struct {
	Kind Kind
	Text string
	List []string
	Raw  any
}

// ClaimSet is an ephemeral claim-name to claim-value mapping that preserves
// the insertion order of the decoded payload. It is built fresh per gate
// evaluation and discarded after the decision.
type ClaimSet struct {
	keys   []string
	values map[string]Value
}

func NewClaimSet() *ClaimSet {
	return &ClaimSet{values: make(map[string]Value)}
}

// Set records a claim value, keeping first-insertion order for the key.
func (s *ClaimSet) Set(key string, v Value) {
	if _, exists := s.values[key]; !exists {
		s.keys = append(s.keys, key)
	}
	s.values[key] = v
}

// Get returns the value for key and whether it is present.
func (s *ClaimSet) Get(key string) (Value, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Keys returns claim names in payload insertion order.
func (s *ClaimSet) Keys() []string {
	return s.keys
}

func (s *ClaimSet) Len() int {
	return len(s.keys)
}

// Text returns the string value of key, or "" when absent or not text.
func (s *ClaimSet) Text(key string) string {
	if v, ok := s.values[key]; ok && v.Kind == KindText {
		return v.Text
	}
	return ""
}
