package restapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"
)

// fileJar is a minimal cookie jar persisted to disk, so the session cookie
// set by login survives across CLI invocations. It keys cookies by host and
// ignores path/domain matching beyond that; the client only ever talks to a
// single API origin.
type fileJar struct {
	mu      sync.Mutex
	path    string
	cookies map[string]map[string]storedCookie // host -> name -> cookie
}

type storedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Expires time.Time `json:"expires,omitzero"`
}

// newFileJar loads the jar from path. A missing or unreadable file starts an
// empty jar; a stored session is a convenience, never a hard requirement.
func newFileJar(path string) *fileJar {
	j := &fileJar{path: path, cookies: make(map[string]map[string]storedCookie)}
	if data, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(data, &j.cookies)
	}
	return j
}

// SetCookies implements http.CookieJar.
func (j *fileJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	host := j.cookies[u.Hostname()]
	if host == nil {
		host = make(map[string]storedCookie)
		j.cookies[u.Hostname()] = host
	}

	for _, c := range cookies {
		// MaxAge<0 or a past Expires is a deletion.
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) {
			delete(host, c.Name)
			continue
		}
		sc := storedCookie{Name: c.Name, Value: c.Value, Expires: c.Expires}
		if c.MaxAge > 0 {
			sc.Expires = time.Now().Add(time.Duration(c.MaxAge) * time.Second)
		}
		host[c.Name] = sc
	}

	j.persist()
}

// Cookies implements http.CookieJar.
func (j *fileJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	var out []*http.Cookie
	for _, sc := range j.cookies[u.Hostname()] {
		if !sc.Expires.IsZero() && sc.Expires.Before(time.Now()) {
			continue
		}
		out = append(out, &http.Cookie{Name: sc.Name, Value: sc.Value})
	}
	return out
}

// persist writes the jar with mode 0600. Failures are ignored: losing the
// stored session only means logging in again.
func (j *fileJar) persist() {
	if j.path == "" {
		return
	}
	data, err := json.MarshalIndent(j.cookies, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(j.path, data, 0600)
}
