package llm

import (
	"strings"

	"github.com/salwks/sdsmcp/internal/apperr"
)

// Entry binds a descriptor to a concrete provider and the credential it was built with.
type Entry struct {
	Descriptor Descriptor
	Provider   Provider
	credential string
}

// Available reports whether the entry can serve requests.
func (e Entry) Available() bool {
	return e.Provider != nil && strings.TrimSpace(e.credential) != ""
}

// Registry holds providers in registration order and selects one per call.
type Registry struct {
	entries   []Entry
	preferred string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a provider. Re-registering a name replaces the earlier entry in place.
func (r *Registry) Register(desc Descriptor, credential string, p Provider) {
	e := Entry{Descriptor: desc, Provider: p, credential: credential}
	for i := range r.entries {
		if r.entries[i].Descriptor.Name == desc.Name {
			r.entries[i] = e
			return
		}
	}
	r.entries = append(r.entries, e)
}

// SetPreferred names the provider that wins over scoring when available.
func (r *Registry) SetPreferred(name string) {
	r.preferred = strings.ToLower(strings.TrimSpace(name))
}

// Preferred returns the configured preference, if any.
func (r *Registry) Preferred() string {
	return r.preferred
}

// Entries returns every registered entry in order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Available returns the entries whose credential is present.
func (r *Registry) Available() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if e.Available() {
			out = append(out, e)
		}
	}
	return out
}

// Select picks the provider for task. The preferred provider wins when available;
// otherwise the highest weighted score wins and ties keep registration order.
func (r *Registry) Select(task TaskType) (Entry, error) {
	avail := r.Available()
	if len(avail) == 0 {
		return Entry{}, apperr.Configuration("select provider",
			"no AI provider credential configured; set one of %s", strings.Join(credentialEnvs(), ", "))
	}

	if r.preferred != "" {
		for _, e := range avail {
			if e.Descriptor.Name == r.preferred {
				return e, nil
			}
		}
	}

	w := WeightsFor(task)
	best := avail[0]
	bestScore := best.Descriptor.Scores.Score(w)
	for _, e := range avail[1:] {
		if s := e.Descriptor.Scores.Score(w); s > bestScore {
			best, bestScore = e, s
		}
	}
	return best, nil
}

func credentialEnvs() []string {
	out := make([]string, 0, len(Descriptors))
	for _, d := range Descriptors {
		out = append(out, d.CredentialEnv)
	}
	return out
}
