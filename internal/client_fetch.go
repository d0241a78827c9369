package internal

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"log"
	"mime"
	"net/http"
	neturl "net/url"
	"path"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/rm-hull/fuel-metrics-api/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ATTRIBUTION = []string{
	"Fonte: ANP - Agencia Nacional do Petroleo, Gas Natural e Biocombustiveis, Levantamento de Precos de Combustiveis",
}

const (
	BATCH_SIZE       = 1000
	MAX_SOURCE_FILES = 4
)

// HTTPStatusError is returned when the remote server responds with a non-2xx status.
type HTTPStatusError struct {
	URL        string
	Status     string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http status response from %s: %s", e.URL, e.Status)
}

type BatchCallback[T any] func([]T) (int, error)

type ObservationsClient interface {
	FetchObservations(ctx context.Context, callback BatchCallback[models.RawObservation]) (int, error)
	LastUpdated() *time.Time
}

type observationsResponse struct {
	Observations []models.RawObservation `json:"observations"`
}

type sourceClient struct {
	sourceURL string
	client    *http.Client
	batchSize int

	mu        sync.Mutex
	lastFetch time.Time
}

// NewObservationsClient reads price surveys from sourceURL, which may serve
// JSON, a CSV export, or an HTML page linking to CSV exports (as the ANP
// survey page does).
func NewObservationsClient(sourceURL string) ObservationsClient {
	return &sourceClient{
		sourceURL: sourceURL,
		client:    &http.Client{Timeout: 5 * time.Minute},
		batchSize: BATCH_SIZE,
	}
}

func (c *sourceClient) LastUpdated() *time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastFetch.IsZero() {
		return nil
	}
	last := c.lastFetch
	return &last
}

func (c *sourceClient) FetchObservations(ctx context.Context, callback BatchCallback[models.RawObservation]) (int, error) {
	startTime := time.Now()

	count, err := c.fetch(ctx, c.sourceURL, true, callback)
	if err != nil {
		return count, err
	}

	c.mu.Lock()
	c.lastFetch = startTime
	c.mu.Unlock()
	return count, nil
}

func (c *sourceClient) fetch(ctx context.Context, url string, followLinks bool, callback BatchCallback[models.RawObservation]) (int, error) {
	body, contentType, err := c.get(ctx, url)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := body.Close(); err != nil {
			log.Printf("failed to close body: %v", err)
		}
	}()

	br := bufio.NewReader(body)
	switch sniff(br, contentType, url) {
	case "json":
		return c.decodeJSON(br, callback)

	case "csv":
		var r io.Reader = br
		if peek, _ := br.Peek(4096); isLatin1(peek) {
			r = transform.NewReader(br, charmap.ISO8859_1.NewDecoder())
		}
		return emitBatched(ParseCSV(r, true, models.RawObservationCSVDecoder()), c.batchSize, callback)

	case "html":
		if !followLinks {
			return 0, errors.Newf("%s: refusing to follow links more than one level deep", url)
		}
		links, err := discoverLinks(br, url)
		if err != nil {
			return 0, err
		}
		if len(links) == 0 {
			return 0, errors.Newf("no CSV exports linked from %s", url)
		}
		total := 0
		for _, link := range links {
			n, err := c.fetch(ctx, link, false, callback)
			if err != nil {
				return total, errors.Wrapf(err, "failed to import %s", link)
			}
			log.Printf("imported %d records from %s", n, link)
			total += n
		}
		return total, nil

	default:
		return 0, errors.Newf("unsupported content type %q from %s", contentType, url)
	}
}

func (c *sourceClient) decodeJSON(r io.Reader, callback BatchCallback[models.RawObservation]) (int, error) {
	bodyBytes, err := io.ReadAll(r)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read response body")
	}

	var raws []models.RawObservation
	if trimmed := bytes.TrimSpace(bodyBytes); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return 0, errors.Wrap(err, "failed to unmarshal response")
		}
	} else {
		var resp observationsResponse
		if err := json.Unmarshal(trimmed, &resp); err != nil {
			return 0, errors.Wrap(err, "failed to unmarshal response")
		}
		raws = resp.Observations
	}

	count := 0
	for start := 0; start < len(raws); start += c.batchSize {
		n, err := callback(raws[start:min(start+c.batchSize, len(raws))])
		if err != nil {
			return count, errors.Wrap(err, "callback error")
		}
		count += n
	}
	return count, nil
}

func emitBatched[T any](records iter.Seq[Result[T]], size int, callback BatchCallback[T]) (int, error) {
	count := 0
	batch := make([]T, 0, size)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := callback(batch)
		if err != nil {
			return errors.Wrap(err, "callback error")
		}
		count += n
		batch = make([]T, 0, size)
		return nil
	}

	for record := range records {
		if record.Error != nil {
			return count, record.Error
		}
		batch = append(batch, record.Value)
		if len(batch) == size {
			if err := flush(); err != nil {
				return count, err
			}
		}
	}
	if err := flush(); err != nil {
		return count, err
	}
	return count, nil
}

// discoverLinks lists the CSV exports linked from an HTML page in document
// order, resolved against the page URL.
func discoverLinks(r io.Reader, pageURL string) ([]string, error) {
	base, err := neturl.Parse(pageURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid page URL %s", pageURL)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse HTML")
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		ref, err := neturl.Parse(strings.TrimSpace(href))
		if err != nil || !strings.EqualFold(path.Ext(ref.Path), ".csv") {
			return true
		}
		link := base.ResolveReference(ref).String()
		if !seen[link] {
			seen[link] = true
			links = append(links, link)
		}
		return len(links) < MAX_SOURCE_FILES
	})
	return links, nil
}

func sniff(br *bufio.Reader, contentType, url string) string {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch {
	case strings.Contains(mediaType, "json"):
		return "json"
	case strings.Contains(mediaType, "csv"):
		return "csv"
	case mediaType == "text/html":
		return "html"
	}

	if u, err := neturl.Parse(url); err == nil && strings.EqualFold(path.Ext(u.Path), ".csv") {
		return "csv"
	}

	peek, _ := br.Peek(512)
	trimmed := bytes.TrimSpace(peek)
	switch {
	case len(trimmed) == 0:
		return ""
	case trimmed[0] == '[' || trimmed[0] == '{':
		return "json"
	case trimmed[0] == '<':
		return "html"
	case mediaType == "text/plain" || mediaType == "application/octet-stream" || mediaType == "":
		return "csv"
	}
	return ""
}

// isLatin1 reports whether p holds bytes that cannot be UTF-8, ignoring a
// truncated sequence at the very end.
func isLatin1(p []byte) bool {
	for len(p) > 0 {
		r, size := utf8.DecodeRune(p)
		if r == utf8.RuneError && size == 1 {
			return len(p) >= utf8.UTFMax
		}
		p = p[size:]
	}
	return false
}

func (c *sourceClient) get(ctx context.Context, url string) (io.ReadCloser, string, error) {

	log.Printf("GET %s", url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json, text/csv, text/html;q=0.9, */*;q=0.5")
	req.Header.Set("User-Agent", "fuel-metrics-api")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", errors.Wrapf(err, "failed to fetch from %s", url)
	}

	if resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, "", &HTTPStatusError{URL: url, Status: resp.Status, StatusCode: resp.StatusCode}
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}
