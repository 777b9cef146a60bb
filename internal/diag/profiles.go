package diag

import (
	"context"
	"strings"
)

// Profile is an installed configuration profile.
type Profile struct {
	ID      string `json:"id"`
	Display string `json:"display"`
}

// Profiles runs `profiles show`, through sudo when asked.
func (c *Collector) Profiles(ctx context.Context, sudo bool) ([]Profile, error) {
	name, args := "profiles", []string{"show"}
	if sudo {
		name, args = "sudo", []string{"profiles", "show"}
	}
	out, err := c.run(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	return ParseProfiles(string(out)), nil
}

// ParseProfiles pairs each profileIdentifier with the next
// profileDisplayName.
func ParseProfiles(out string) []Profile {
	profiles := []Profile{}
	var cur Profile
	for _, line := range strings.Split(out, "\n") {
		if v, ok := field(line, "profileIdentifier:"); ok {
			cur.ID = v
		} else if v, ok := field(line, "profileDisplayName:"); ok {
			cur.Display = v
		}
		if cur.ID != "" && cur.Display != "" {
			profiles = append(profiles, cur)
			cur = Profile{}
		}
	}
	return profiles
}

func field(line, key string) (string, bool) {
	_, v, ok := strings.Cut(line, key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}
