package kitsu

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"animehub/pkg/models"
)

const (
	DefaultBaseURL = "https://kitsu.io/api/edge"

	jsonAPIType = "application/vnd.api+json"
)

// Client queries the kitsu.io catalog. Responses follow the JSON:API
// convention of a data array with typed resources.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type imageSet struct {
	Original string `json:"original"`
	Large    string `json:"large"`
}

type animeAttributes struct {
	CanonicalTitle string    `json:"canonicalTitle"`
	PosterImage    *imageSet `json:"posterImage"`
}

type resource struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Attributes animeAttributes `json:"attributes"`
}

type document struct {
	Data []resource `json:"data"`
}

type singleDocument struct {
	Data resource `json:"data"`
}

// Search returns catalog entries matching the query text, closest title
// first.
func (c *Client) Search(ctx context.Context, query string) ([]models.Anime, error) {
	q := url.Values{}
	q.Set("filter[text]", query)
	q.Set("page[limit]", "10")

	var doc document
	if err := c.get(ctx, c.baseURL+"/anime?"+q.Encode(), &doc); err != nil {
		return nil, err
	}

	out := make([]models.Anime, 0, len(doc.Data))
	for _, res := range doc.Data {
		out = append(out, toAnime(res))
	}

	// The API orders by its own relevance score; re-rank by edit distance
	// so an exact title beats a popular near-miss.
	lq := strings.ToLower(strings.TrimSpace(query))
	sort.SliceStable(out, func(i, j int) bool {
		return editDistance(lq, strings.ToLower(out[i].CanonicalTitle)) <
			editDistance(lq, strings.ToLower(out[j].CanonicalTitle))
	})
	return out, nil
}

// GetByID fetches a single catalog entry. A nil result with a nil error
// means the ID is unknown.
func (c *Client) GetByID(ctx context.Context, id string) (*models.Anime, error) {
	var doc singleDocument
	err := c.get(ctx, c.baseURL+"/anime/"+url.PathEscape(id), &doc)
	if err != nil {
		return nil, err
	}
	if doc.Data.ID == "" {
		return nil, nil
	}
	a := toAnime(doc.Data)
	return &a, nil
}

func (c *Client) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", jsonAPIType)
	req.Header.Set("Content-Type", jsonAPIType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("kitsu request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("kitsu status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode kitsu response: %w", err)
	}
	return nil
}

func toAnime(res resource) models.Anime {
	a := models.Anime{
		ID:             res.ID,
		CanonicalTitle: res.Attributes.CanonicalTitle,
		QueryTitle:     res.Attributes.CanonicalTitle,
	}
	if img := res.Attributes.PosterImage; img != nil {
		a.ImageURL = img.Original
		if a.ImageURL == "" {
			a.ImageURL = img.Large
		}
	}
	return a
}

// editDistance is the Levenshtein distance between two strings, by rune.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
