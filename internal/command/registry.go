package command

import (
	"fmt"
	"sort"
	"strings"
)

// Registry holds every registered command, indexed by name and alias
// (§4.9).
type Registry struct {
	byName  map[string]*Command
	byAlias map[string]*Command
}

// NewRegistry returns an empty command registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Command), byAlias: make(map[string]*Command)}
}

// Register adds cmd, indexed by its name and every alias. Returns an
// error if the name or an alias collides with an existing entry.
func (r *Registry) Register(cmd *Command) error {
	if !nameRe.MatchString(cmd.Name) {
		return fmt.Errorf("command: invalid name %q", cmd.Name)
	}
	if _, exists := r.byName[cmd.Name]; exists {
		return fmt.Errorf("command: %q already registered", cmd.Name)
	}
	for _, alias := range cmd.Aliases {
		if _, exists := r.byAlias[alias]; exists {
			return fmt.Errorf("command: alias %q already registered", alias)
		}
	}
	r.byName[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.byAlias[alias] = cmd
	}
	return nil
}

// Lookup resolves name (or alias) to its command.
func (r *Registry) Lookup(name string) (*Command, bool) {
	if cmd, ok := r.byName[name]; ok {
		return cmd, true
	}
	cmd, ok := r.byAlias[name]
	return cmd, ok
}

// All returns every registered command name, sorted.
func (r *Registry) All() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Suggest proposes up to 3 alternatives for an unrecognised name (§4.9
// step 3): prefix match first, else substring match, else Levenshtein
// distance ≤ 3, each stage tried only if the previous produced nothing.
func (r *Registry) Suggest(name string) []string {
	names := r.All()

	if hits := filterFunc(names, func(n string) bool { return strings.HasPrefix(n, name) }); len(hits) > 0 {
		return top(hits, 3)
	}
	if hits := filterFunc(names, func(n string) bool { return strings.Contains(n, name) }); len(hits) > 0 {
		return top(hits, 3)
	}

	type scored struct {
		name string
		dist int
	}
	var candidates []scored
	for _, n := range names {
		if d := levenshtein(name, n); d <= 3 {
			candidates = append(candidates, scored{n, d})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })
	out := make([]string, 0, 3)
	for i := 0; i < len(candidates) && i < 3; i++ {
		out = append(out, candidates[i].name)
	}
	return out
}

func filterFunc(names []string, keep func(string) bool) []string {
	var out []string
	for _, n := range names {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}

func top(names []string, n int) []string {
	if len(names) > n {
		return names[:n]
	}
	return names
}
