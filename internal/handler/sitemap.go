package handler

import (
	"encoding/xml"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/hackfolio/hackfolio/internal/config"
	"github.com/hackfolio/hackfolio/internal/model"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type staticPage struct {
	path       string
	changeFreq string
	priority   string
}

var staticPages = []staticPage{
	{"", "daily", "1.0"},
	{"/about", "monthly", "0.8"},
	{"/machines", "weekly", "0.9"},
	{"/tools", "weekly", "0.9"},
	{"/news", "daily", "0.7"},
	{"/forums", "daily", "0.6"},
}

// SitemapHandler renders sitemap.xml from the static pages and the catalog.
type SitemapHandler struct {
	store   *config.Store
	baseURL string
	logger  *slog.Logger
	now     func() time.Time
}

// NewSitemapHandler creates a SitemapHandler. An empty baseURL is derived
// from each request.
func NewSitemapHandler(store *config.Store, baseURL string, logger *slog.Logger) *SitemapHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SitemapHandler{
		store:   store,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		now:     time.Now,
	}
}

// ServeSitemap writes the sitemap. Catalog lookup failures degrade to the
// static pages only.
// GET /sitemap.xml
func (h *SitemapHandler) ServeSitemap(w http.ResponseWriter, r *http.Request) {
	base := h.baseURL
	if base == "" {
		base = requestBaseURL(r)
	}
	now := w3cTime(h.now())

	set := sitemapURLSet{Xmlns: sitemapNS}
	for _, p := range staticPages {
		set.URLs = append(set.URLs, sitemapURL{
			Loc: base + p.path, LastMod: now, ChangeFreq: p.changeFreq, Priority: p.priority,
		})
	}

	machines, err := h.store.ListMachines(r.Context(), model.ContentFilter{})
	if err != nil {
		h.logger.Warn("sitemap: list machines failed", "error", err)
	}
	for _, m := range machines {
		set.URLs = append(set.URLs, catalogURL(base+"/machines/htb/"+url.PathEscape(m.ID),
			lastModified(m.UpdatedAt, m.CreatedAt, m.DateCompleted, now), m.Status))
	}

	rooms, err := h.store.ListRooms(r.Context(), model.ContentFilter{})
	if err != nil {
		h.logger.Warn("sitemap: list rooms failed", "error", err)
	}
	for _, room := range rooms {
		set.URLs = append(set.URLs, catalogURL(base+"/machines/thm/"+url.PathEscape(room.Slug),
			lastModified(room.UpdatedAt, room.CreatedAt, room.DateCompleted, now), room.Status))
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		h.logger.Error("sitemap: marshal failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to render sitemap")
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Cache-Control", "public, max-age=3600, s-maxage=3600")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(xml.Header))
	w.Write(out)
}

// catalogURL ranks completed write-ups above work in progress.
func catalogURL(loc, lastMod, status string) sitemapURL {
	u := sitemapURL{Loc: loc, LastMod: lastMod, ChangeFreq: "weekly", Priority: "0.7"}
	if status == model.StatusCompleted {
		u.ChangeFreq = "monthly"
		u.Priority = "0.9"
	}
	return u
}

// lastModified picks the first usable timestamp: updated, created, then the
// completion date.
func lastModified(updated, created time.Time, dateCompleted *string, fallback string) string {
	switch {
	case !updated.IsZero():
		return w3cTime(updated)
	case !created.IsZero():
		return w3cTime(created)
	case dateCompleted != nil:
		return w3cDate(*dateCompleted, fallback)
	default:
		return fallback
	}
}

var dbDateTime = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`)

// w3cDate normalises a stored date string to W3C datetime. Values in the
// "YYYY-MM-DD HH:MM:SS" form are read as UTC. Unparseable values yield
// fallback.
func w3cDate(value, fallback string) string {
	s := strings.TrimSpace(value)
	if s == "" {
		return fallback
	}
	if dbDateTime.MatchString(s) {
		s = strings.Replace(s, " ", "T", 1) + "Z"
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05Z", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return w3cTime(t)
		}
	}
	return fallback
}

func w3cTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}
