package crawl

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/matzehuels/forcegraph/pkg/cache"
	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/httputil"
	"github.com/matzehuels/forcegraph/pkg/observability"
)

// DefaultBaseURL is the wiki crawled when none is configured.
const DefaultBaseURL = "https://en.wikipedia.org"

const wikiPrefix = "/wiki/"

// Fetcher returns the pages linked from a page.
type Fetcher interface {
	Links(ctx context.Context, page string) ([]string, error)
}

// ExtractLinks returns the distinct article names linked from an HTML
// document, in document order. Only hrefs of the form /wiki/<name> count;
// names containing any of [errors.BannedPageChars] or otherwise failing
// [errors.ValidatePageName] are dropped.
func ExtractLinks(r io.Reader) ([]string, error) {
	var (
		links []string
		seen  = make(map[string]bool)
	)
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return links, err
			}
			return links, nil
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "href" {
					if page, ok := articleName(string(val)); ok && !seen[page] {
						seen[page] = true
						links = append(links, page)
					}
				}
				if !more {
					break
				}
			}
		}
	}
}

func articleName(href string) (string, bool) {
	if !strings.HasPrefix(href, wikiPrefix) {
		return "", false
	}
	if strings.ContainsAny(href, errors.BannedPageChars) {
		return "", false
	}
	page := href[len(wikiPrefix):]
	return page, errors.ValidatePageName(page) == nil
}

// WikiFetcher downloads article pages from a MediaWiki site and caches the
// extracted link lists.
type WikiFetcher struct {
	client  *httputil.Client
	baseURL string
	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
}

// WikiOptions configures a WikiFetcher.
type WikiOptions struct {
	BaseURL string
	Cache   cache.Cache   // nil disables caching
	Keyer   cache.Keyer   // nil means cache.NewDefaultKeyer()
	TTL     time.Duration // 0 keeps entries forever
}

// NewWikiFetcher returns a fetcher that uses client for every request.
func NewWikiFetcher(client *httputil.Client, opts WikiOptions) *WikiFetcher {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	return &WikiFetcher{
		client:  client,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		cache:   opts.Cache,
		keyer:   opts.Keyer,
		ttl:     opts.TTL,
	}
}

// PageURL returns the article URL for page.
func (f *WikiFetcher) PageURL(page string) string {
	return f.baseURL + wikiPrefix + url.PathEscape(page)
}

// Links implements Fetcher.
func (f *WikiFetcher) Links(ctx context.Context, page string) ([]string, error) {
	if err := errors.ValidatePageName(page); err != nil {
		return nil, err
	}

	key := f.keyer.LinksKey(f.baseURL, page)
	if data, ok, err := f.cache.Get(ctx, key); err == nil && ok {
		var links []string
		if json.Unmarshal(data, &links) == nil {
			observability.Cache().OnCacheHit(ctx, "links")
			return links, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "links")

	body, err := f.client.GetBody(ctx, f.PageURL(page))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if stderrors.Is(err, httputil.ErrNotFound) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "page %q", page)
		}
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "fetch %q", page)
	}

	links, err := ExtractLinks(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", page, err)
	}

	if data, err := json.Marshal(links); err == nil {
		if f.cache.Set(ctx, key, data, f.ttl) == nil {
			observability.Cache().OnCacheSet(ctx, "links", len(data))
		}
	}
	return links, nil
}

var _ Fetcher = (*WikiFetcher)(nil)
