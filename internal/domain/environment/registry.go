package environment

// Info is the public view of a configured environment.
type Info struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	Region                string `json:"region"`
	CredentialsConfigured bool   `json:"credentialsConfigured"`
}

// Registry holds the environments offered by the console.
type Registry struct {
	ids           []string
	def           string
	lookup        LookupFunc
	defaultRegion string
}

// NewRegistry creates a registry over ids. def must be one of ids.
func NewRegistry(ids []string, def string, lookup LookupFunc, defaultRegion string) *Registry {
	norm := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = Normalize(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		norm = append(norm, id)
	}
	return &Registry{ids: norm, def: Normalize(def), lookup: lookup, defaultRegion: defaultRegion}
}

// IDs returns the configured environment keywords in order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// Has reports whether env is one of the configured keywords.
func (r *Registry) Has(env string) bool {
	env = Normalize(env)
	for _, id := range r.ids {
		if id == env {
			return true
		}
	}
	return false
}

// Default returns the default environment keyword.
func (r *Registry) Default() string { return r.def }

// Credentials resolves credentials for env.
func (r *Registry) Credentials(env string) Credentials {
	return ResolveCredentials(env, r.lookup, r.defaultRegion)
}

// List describes every configured environment.
func (r *Registry) List() []Info {
	out := make([]Info, 0, len(r.ids))
	for _, id := range r.ids {
		p := Lookup(id)
		creds := r.Credentials(id)
		out = append(out, Info{
			ID:                    id,
			Name:                  p.Name,
			Region:                creds.Region,
			CredentialsConfigured: creds.Configured(),
		})
	}
	return out
}
