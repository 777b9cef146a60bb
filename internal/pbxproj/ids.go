package pbxproj

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// maxIDAttempts bounds the retry loop in IDGenerator.Next.
const maxIDAttempts = 64

// IDGenerator issues object identifiers that do not collide with any
// identifier already in a manifest or previously issued by the generator.
type IDGenerator struct {
	taken  map[string]struct{}
	source func() string
}

// NewIDGenerator returns a generator that avoids every id in taken. A nil
// source draws tokens from random UUIDs.
func NewIDGenerator(taken map[string]struct{}, source func() string) *IDGenerator {
	t := make(map[string]struct{}, len(taken))
	for id := range taken {
		t[id] = struct{}{}
	}
	if source == nil {
		source = randomID
	}
	return &IDGenerator{taken: t, source: source}
}

// Next returns a fresh identifier and reserves it.
func (g *IDGenerator) Next() (string, error) {
	for range maxIDAttempts {
		id := strings.ToUpper(g.source())
		if !idPattern.MatchString(id) {
			return "", fmt.Errorf("id source produced malformed identifier %q", id)
		}
		if _, dup := g.taken[id]; dup {
			continue
		}
		g.taken[id] = struct{}{}
		return id, nil
	}
	return "", fmt.Errorf("failed to generate a unique identifier after %d attempts", maxIDAttempts)
}

// randomID returns the first 24 hex digits of a random UUID, uppercased.
func randomID() string {
	u := uuid.New()
	return strings.ToUpper(strings.ReplaceAll(u.String(), "-", "")[:24])
}
