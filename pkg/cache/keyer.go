package cache

import "strings"

// Keyer builds cache keys.
type Keyer interface {
	// LinksKey is the key for the outgoing links of page on the wiki at
	// baseURL.
	LinksKey(baseURL, page string) string
}

// DefaultKeyer namespaces link lists by a short hash of the wiki URL.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LinksKey returns "links:<site>:<page>".
func (DefaultKeyer) LinksKey(baseURL, page string) string {
	site := Hash([]byte(strings.TrimRight(baseURL, "/")))[:12]
	return hashKey("links:"+site, page)
}

// ScopedKeyer prefixes every key of an inner Keyer, so that independent
// deployments can share one Redis instance.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// LinksKey returns the prefixed key.
func (k *ScopedKeyer) LinksKey(baseURL, page string) string {
	return k.prefix + k.inner.LinksKey(baseURL, page)
}
