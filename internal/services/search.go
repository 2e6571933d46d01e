package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
)

const (
	searchUserAgent    = "Mozilla/5.0 (compatible; Carcino AI Medical Search)"
	searchFallbackNote = "Fallback results - Please consult healthcare professionals for accurate medical information"
)

// SearchResult is one entry of a medical search response.
type SearchResult struct {
	Title         string `json:"title"`
	Snippet       string `json:"snippet"`
	URL           string `json:"url"`
	Source        string `json:"source"`
	PublishedTime string `json:"published_time"`
}

// SearchAbstract is the summary block of an instant answer.
type SearchAbstract struct {
	Text   *string `json:"text"`
	Source *string `json:"source"`
	URL    *string `json:"url"`
}

// SearchResponse is what the search endpoint returns. Formatted responses
// carry the instant answer fields; fallback responses carry a note instead.
type SearchResponse struct {
	Query         string          `json:"query"`
	InstantAnswer *string         `json:"instant_answer,omitempty"`
	Definition    *string         `json:"definition,omitempty"`
	Abstract      *SearchAbstract `json:"abstract,omitempty"`
	RelatedTopics []SearchResult  `json:"related_topics,omitempty"`
	Results       []SearchResult  `json:"results"`
	TotalResults  int             `json:"total_results"`
	SearchTime    string          `json:"search_time"`
	Note          string          `json:"note,omitempty"`
}

type duckTopic struct {
	Text     string `json:"Text"`
	FirstURL string `json:"FirstURL"`
}

type duckResponse struct {
	Answer         string      `json:"Answer"`
	AbstractText   string      `json:"AbstractText"`
	AbstractSource string      `json:"AbstractSource"`
	AbstractURL    string      `json:"AbstractURL"`
	Definition     string      `json:"Definition"`
	RelatedTopics  []duckTopic `json:"RelatedTopics"`
	Results        []duckTopic `json:"Results"`
}

type searchStatusError struct {
	status int
}

func (e *searchStatusError) Error() string {
	return fmt.Sprintf("search returned status %d", e.status)
}

// SearchClient queries the DuckDuckGo instant answer API for medical topics.
type SearchClient struct {
	endpoint string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[*duckResponse]
	now      func() time.Time
}

// NewSearchClient creates a SearchClient against endpoint.
func NewSearchClient(endpoint string) *SearchClient {
	return &SearchClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		breaker: gobreaker.NewCircuitBreaker[*duckResponse](gobreaker.Settings{
			Name:    "search",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		now: time.Now,
	}
}

// Search never fails: upstream errors produce fallback results.
func (s *SearchClient) Search(ctx context.Context, query string) SearchResponse {
	published := s.now().UTC().Format("2006-01-02T15:04:05.000Z")

	data, err := s.breaker.Execute(func() (*duckResponse, error) {
		return s.fetch(ctx, query)
	})
	if err != nil {
		var statusErr *searchStatusError
		if errors.As(err, &statusErr) {
			return unavailableResults(query, published)
		}
		log.Printf("[Search] query %q failed: %v", query, err)
		return failedResults(query, published)
	}

	return formatResults(query, data, published)
}

func (s *SearchClient) fetch(ctx context.Context, query string) (*duckResponse, error) {
	params := url.Values{}
	params.Set("q", query+" medical health")
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	endpoint := s.endpoint
	if strings.Contains(endpoint, "?") {
		endpoint += "&" + params.Encode()
	} else {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", searchUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &searchStatusError{status: resp.StatusCode}
	}

	var data duckResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

func formatResults(query string, data *duckResponse, published string) SearchResponse {
	related := make([]SearchResult, 0, 5)
	for i, topic := range data.RelatedTopics {
		if i == 5 {
			break
		}
		related = append(related, topicResult(topic, "Medical Information", "Medical information and health guidance", published))
	}

	results := make([]SearchResult, 0, 4)
	for i, topic := range data.Results {
		if i == 3 {
			break
		}
		results = append(results, topicResult(topic, "Medical Resource", "Medical information resource", published))
	}

	synthetic := SearchResult{
		Title:         "Medical Information: " + query,
		Snippet:       orDefault(data.AbstractText, fmt.Sprintf("Medical information about %s. Consult healthcare professionals for accurate advice.", query)),
		URL:           orDefault(data.AbstractURL, mayoClinicURL(query)),
		Source:        orDefault(data.AbstractSource, "Medical Resource"),
		PublishedTime: published,
	}
	results = append(results, synthetic)

	return SearchResponse{
		Query:         query,
		InstantAnswer: optional(orDefault(data.Answer, data.AbstractText)),
		Definition:    optional(data.Definition),
		Abstract: &SearchAbstract{
			Text:   optional(data.AbstractText),
			Source: optional(data.AbstractSource),
			URL:    optional(data.AbstractURL),
		},
		RelatedTopics: related,
		Results:       results,
		TotalResults:  len(data.Results) + len(data.RelatedTopics) + 1,
		SearchTime:    "0.2s",
	}
}

func topicResult(topic duckTopic, title, snippet, published string) SearchResult {
	if topic.Text != "" {
		title = strings.SplitN(topic.Text, " - ", 2)[0]
		snippet = topic.Text
	}
	return SearchResult{
		Title:         title,
		Snippet:       snippet,
		URL:           orDefault(topic.FirstURL, "#"),
		Source:        "DuckDuckGo",
		PublishedTime: published,
	}
}

// unavailableResults answers when the API replied with a non-2xx status.
func unavailableResults(query, published string) SearchResponse {
	return SearchResponse{
		Query: query,
		Results: []SearchResult{
			mayoClinicResult(query, published),
			webMDResult(query, "https://www.webmd.com/search/search_results/default.aspx?query=", published),
		},
		TotalResults: 2,
		SearchTime:   "0.1s",
	}
}

// failedResults answers when the API could not be reached at all.
func failedResults(query, published string) SearchResponse {
	return SearchResponse{
		Query: query,
		Results: []SearchResult{
			mayoClinicResult(query, published),
			webMDResult(query, "https://www.webmd.com/search/search-results/default.aspx?query=", published),
			{
				Title:         "Medical Research: " + query,
				Snippet:       fmt.Sprintf("Latest medical research and studies related to %s. Consult with medical professionals for personalized advice.", query),
				URL:           "https://pubmed.ncbi.nlm.nih.gov/?term=" + encodeURIComponent(query),
				Source:        "PubMed",
				PublishedTime: published,
			},
		},
		TotalResults: 3,
		SearchTime:   "0.1s",
		Note:         searchFallbackNote,
	}
}

func mayoClinicResult(query, published string) SearchResult {
	return SearchResult{
		Title:         "Medical Information: " + query,
		Snippet:       fmt.Sprintf("Search results for %s. Please consult with healthcare professionals for accurate medical advice.", query),
		URL:           mayoClinicURL(query),
		Source:        "Mayo Clinic",
		PublishedTime: published,
	}
}

func webMDResult(query, base, published string) SearchResult {
	return SearchResult{
		Title:         "Health Guide: " + query,
		Snippet:       fmt.Sprintf("Comprehensive health information about %s. Always verify medical information with qualified healthcare providers.", query),
		URL:           base + encodeURIComponent(query),
		Source:        "WebMD",
		PublishedTime: published,
	}
}

func mayoClinicURL(query string) string {
	return "https://www.mayoclinic.org/search/search-results?q=" + encodeURIComponent(query)
}

func encodeURIComponent(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
