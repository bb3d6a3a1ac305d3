// Package clienttest provides an in-memory client.Session for tests.
package clienttest

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"catalogmirror/scraper/internal/client"

	"github.com/PuerkitoBio/goquery"
)

// Resource is a canned binary response for Download.
type Resource struct {
	Body        []byte
	ContentType string
}

// FakeSession serves canned HTML pages keyed by absolute URL.
type FakeSession struct {
	Base       string
	Pages      map[string]string
	Resources  map[string]Resource
	ConnectOK  bool
	mu         sync.Mutex
	fetches    []string
	downloads  []string
	closeCalls int
}

var _ client.Session = (*FakeSession)(nil)

// NewFakeSession returns a session that connects successfully and knows no pages.
func NewFakeSession(base string) *FakeSession {
	return &FakeSession{
		Base:      strings.TrimRight(base, "/"),
		Pages:     map[string]string{},
		Resources: map[string]Resource{},
		ConnectOK: true,
	}
}

// AddPage registers HTML for a path or absolute URL.
func (f *FakeSession) AddPage(pathOrURL, html string) {
	f.Pages[f.Resolve(pathOrURL)] = html
}

// AddResource registers a downloadable resource for a path or absolute URL.
func (f *FakeSession) AddResource(pathOrURL string, body []byte, contentType string) {
	f.Resources[f.Resolve(pathOrURL)] = Resource{Body: body, ContentType: contentType}
}

func (f *FakeSession) Connect(_ context.Context) bool {
	return f.ConnectOK
}

func (f *FakeSession) FetchDocument(_ context.Context, pageURL string) *goquery.Document {
	f.mu.Lock()
	f.fetches = append(f.fetches, pageURL)
	f.mu.Unlock()

	html, ok := f.Pages[pageURL]
	if !ok {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	return doc
}

func (f *FakeSession) Download(_ context.Context, resourceURL string) ([]byte, string, error) {
	f.mu.Lock()
	f.downloads = append(f.downloads, resourceURL)
	f.mu.Unlock()

	res, ok := f.Resources[resourceURL]
	if !ok {
		return nil, "", fmt.Errorf("HTTP error: 404 for %s", resourceURL)
	}
	return res.Body, res.ContentType, nil
}

func (f *FakeSession) Resolve(href string) string {
	base, err := url.Parse(f.Base + "/")
	if err != nil {
		return href
	}
	return client.ResolveURL(base, href)
}

func (f *FakeSession) BaseURL() string {
	return f.Base
}

func (f *FakeSession) ShopURL() string {
	return f.Base + "/shop"
}

func (f *FakeSession) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls++
}

// Fetches returns every URL passed to FetchDocument, in order.
func (f *FakeSession) Fetches() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetches...)
}

// Downloads returns every URL passed to Download, in order.
func (f *FakeSession) Downloads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.downloads...)
}

// CloseCalls reports how many times Close was invoked.
func (f *FakeSession) CloseCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCalls
}
