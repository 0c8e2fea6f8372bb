package googlenews

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mercadash/internal/httpx"
	"mercadash/internal/logging"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>"YPF" - Google Noticias</title>
<item>
<title>YPF anunció resultados del trimestre - Ámbito</title>
<link>https://www.ambito.com/ypf-resultados</link>
<pubDate>Sun, 01 Jun 2025 14:30:00 GMT</pubDate>
</item>
<item>
<title>Sin fecha</title>
<link>https://example.com/nodate</link>
</item>
</channel>
</rss>`

func TestSearch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	c := New(srv.URL, httpx.New(2*time.Second), logging.NewSilent())
	articles, err := c.Search(t.Context(), "YPF")
	require.NoError(t, err)
	require.Equal(t, "YPF", gotQuery)

	// the dateless item is dropped
	require.Len(t, articles, 1)
	require.Equal(t, "YPF anunció resultados del trimestre - Ámbito", articles[0].Title)
	require.Equal(t, "Ámbito", articles[0].Source)
	require.Equal(t, time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC), articles[0].PublishedAt)
}

func TestSourceOf_FallsBackToHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>t</title>
<item><title>Titular sin fuente</title><link>https://clarin.com/x</link><pubDate>Sun, 01 Jun 2025 10:00:00 GMT</pubDate></item>
</channel></rss>`))
	}))
	defer srv.Close()

	c := New(srv.URL, httpx.New(2*time.Second), logging.NewSilent())
	articles, err := c.Search(t.Context(), "q")
	require.NoError(t, err)
	require.Len(t, articles, 1)
	require.Equal(t, "clarin.com", articles[0].Source)
}

func TestSearch_BadFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not xml at all`))
	}))
	defer srv.Close()

	c := New(srv.URL, httpx.New(2*time.Second), logging.NewSilent())
	_, err := c.Search(t.Context(), "q")
	require.Error(t, err)
}
