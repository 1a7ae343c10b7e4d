// Package featureflags evaluates optional behaviors toggled from config.
package featureflags

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Flags known to the application.
const (
	// FirstLoadWriteback persists the seeded state on the very first load.
	FirstLoadWriteback = "first_load_writeback"
	// AIReplies allows replies flagged as AI-generated. Rollouts are
	// bucketed by client id.
	AIReplies = "ai_replies"
)

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "first_load_writeback=on,ai_replies=25%"
type Manager struct {
	flags map[string]string
}

// NewManager creates a feature-flag manager from a comma-separated config string.
func NewManager(raw string) *Manager {
	out := make(map[string]string)

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}

	return &Manager{flags: out}
}

// Enabled returns whether a flag is enabled for a given subject (usually a
// client id). Supported values:
// - on/true/1
// - off/false/0
// - N% (deterministic rollout by subject, e.g. 25%)
func (m *Manager) Enabled(name, subject string) bool {
	if m == nil {
		return false
	}

	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	if err != nil || pct <= 0 {
		return false
	}
	if pct >= 100 {
		return true
	}
	if subject == "" {
		return false
	}
	return rolloutBucket(name, subject) < pct
}

// EnabledOr is Enabled, except that an unset flag reports def.
func (m *Manager) EnabledOr(name, subject string, def bool) bool {
	if m == nil {
		return def
	}
	if _, ok := m.flags[normalize(name)]; !ok {
		return def
	}
	return m.Enabled(name, subject)
}

// Names returns the configured flag names, sorted.
func (m *Manager) Names() []string {
	out := make([]string, 0, len(m.flags))
	for k := range m.flags {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Raw returns a copy of configured flags.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.flags))
	for k, v := range m.flags {
		out[k] = v
	}
	return out
}

// Snapshot returns evaluated flag status for one subject.
func (m *Manager) Snapshot(subject string) map[string]bool {
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, subject)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name, subject string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + subject))
	return int(h.Sum32() % 100)
}
