// Package httpindex provides a slotfeed connector for dated files
// published under an HTTP base URL with a plain-text manifest.
//
// The manifest is a text file listing one slot name per line, relative to
// the base URL. Blank lines and lines starting with # are ignored.
// Publishing a feed is then just dropping files next to the manifest and
// appending their names.
package httpindex

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/meridian-data/slotfeed"
	"github.com/meridian-data/slotfeed/connector"
)

// DefaultManifest is the listing file fetched relative to the base URL.
const DefaultManifest = "manifest.txt"

// Options configures an Index connector.
type Options struct {
	// BaseURL is the directory-like URL the manifest and slots live
	// under. Required.
	BaseURL string

	// Manifest overrides the manifest file name.
	Manifest string

	// TimePattern and TimeLayout extract slot timestamps from manifest
	// entries; empty values select the connector defaults (ISO dates).
	// Entries without a parseable timestamp are skipped.
	TimePattern string
	TimeLayout  string

	// Client overrides the HTTP client. When nil, a client with Timeout
	// is used.
	Client  *http.Client
	Timeout time.Duration
}

// Index lists slots from a manifest and fetches them relative to the base
// URL. Slot order follows manifest order, so publishers control delivery
// order by controlling the manifest.
type Index struct {
	base     *url.URL
	manifest string
	client   *http.Client
	namet    *connector.NameTimer
}

// New builds an Index connector.
func New(opts Options) (*Index, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("httpindex: Options.BaseURL is required")
	}
	base, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
	if err != nil {
		return nil, errors.Wrap(err, "httpindex: parsing base URL")
	}
	namet, err := connector.NewNameTimer(opts.TimePattern, opts.TimeLayout)
	if err != nil {
		return nil, errors.Wrap(err, "httpindex: time pattern")
	}
	manifest := opts.Manifest
	if manifest == "" {
		manifest = DefaultManifest
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &Index{base: base, manifest: manifest, client: client, namet: namet}, nil
}

// List fetches the manifest and returns one slot per entry, in manifest
// order.
func (ix *Index) List(ctx context.Context) ([]slotfeed.Slot, error) {
	body, err := ix.get(ctx, ix.manifest)
	if err != nil {
		return nil, errors.Wrap(err, "httpindex: fetching manifest")
	}
	defer body.Close()

	var slots []slotfeed.Slot
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}
		t, ok := ix.namet.Time(name)
		if !ok {
			continue
		}
		slots = append(slots, slotfeed.Slot{Name: name, Time: t})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "httpindex: reading manifest")
	}
	return slots, nil
}

// Fetch GETs one slot relative to the base URL.
func (ix *Index) Fetch(ctx context.Context, s slotfeed.Slot) (io.ReadCloser, error) {
	body, err := ix.get(ctx, s.Name)
	if err != nil {
		return nil, errors.Wrapf(err, "httpindex: fetching %s", s.Name)
	}
	return body, nil
}

func (ix *Index) get(ctx context.Context, name string) (io.ReadCloser, error) {
	ref, err := url.Parse(name)
	if err != nil {
		return nil, err
	}
	u := ix.base.ResolveReference(ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := ix.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Errorf("unexpected status %s for %s", resp.Status, u)
	}
	return resp.Body, nil
}
