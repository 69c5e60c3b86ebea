package scope

import (
	"net/url"
	"strings"

	"geocrawl/internal/model"
)

type seed struct {
	host string
	root string
	path string
}

// Filter decides whether a discovered URL is in-bounds for a job. A
// candidate passes when ANY seed URL accepts it under the configured
// policy.
type Filter struct {
	policy string
	seeds  []seed
}

// NewFilter builds a filter from the job's seed URLs. Unparseable
// seeds are skipped. An unknown policy falls back to domain.
func NewFilter(policy string, seedURLs []string) *Filter {
	switch policy {
	case model.ScopeSubdomain, model.ScopeDomain, model.ScopeSubfolder, model.ScopeSubdomainSubfolder:
	default:
		policy = model.ScopeDomain
	}

	f := &Filter{policy: policy}
	for _, s := range seedURLs {
		u, err := url.Parse(s)
		if err != nil || u.Host == "" {
			continue
		}
		host := strings.ToLower(u.Host)
		f.seeds = append(f.seeds, seed{
			host: host,
			root: RootDomain(u.Hostname()),
			path: u.EscapedPath(),
		})
	}
	return f
}

// Allows reports whether the candidate URL is in scope.
func (f *Filter) Allows(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Host)
	root := RootDomain(u.Hostname())
	path := u.EscapedPath()

	for _, s := range f.seeds {
		if f.matches(s, host, root, path) {
			return true
		}
	}
	return false
}

func (f *Filter) matches(s seed, host, root, path string) bool {
	switch f.policy {
	case model.ScopeSubdomain:
		return host == s.host
	case model.ScopeDomain:
		return root == s.root
	case model.ScopeSubfolder, model.ScopeSubdomainSubfolder:
		return host == s.host && underPath(s.path, path)
	}
	return false
}

// underPath implements the /-boundary rule: base /blog accepts /blog
// and /blog/x but rejects /blogger. An empty base path means the site
// root and accepts everything on the host.
func underPath(basePath, candidatePath string) bool {
	base := strings.TrimRight(basePath, "/")
	if base == "" {
		return true
	}
	cand := strings.TrimRight(candidatePath, "/")
	if cand == base {
		return true
	}
	return strings.HasPrefix(cand, base+"/")
}
