package dictionary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Definition is the result of a word lookup.
type Definition struct {
	Word         string `json:"word"`
	Definition   string `json:"definition"`
	PartOfSpeech string `json:"part_of_speech"`
	Example      string `json:"example,omitempty"`
	Source       string `json:"source"` // "api", "cache" or "fallback"
}

// Client looks up word definitions against a dictionary API. Results
// are cached in memory; on API failure a small built-in table keeps
// the add-word flow usable offline.
type Client struct {
	apiURL     string
	httpClient *http.Client

	mu    sync.Mutex
	cache map[string]Definition
}

// New creates a client against the public dictionary API.
func New() *Client {
	return &Client{
		apiURL:     "https://api.dictionaryapi.dev/api/v2/entries/en",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      make(map[string]Definition),
	}
}

// NewWithURL creates a client against a custom endpoint.
func NewWithURL(apiURL string) *Client {
	c := New()
	c.apiURL = apiURL
	return c
}

// apiEntry mirrors the dictionary API response shape.
type apiEntry struct {
	Word     string `json:"word"`
	Meanings []struct {
		PartOfSpeech string `json:"partOfSpeech"`
		Definitions  []struct {
			Definition string `json:"definition"`
			Example    string `json:"example"`
		} `json:"definitions"`
	} `json:"meanings"`
}

// Lookup returns the first definition for the word. The cache is
// checked first, then the API, then the built-in fallback table.
func (c *Client) Lookup(ctx context.Context, word string) (Definition, error) {
	key := strings.ToLower(strings.TrimSpace(word))
	if key == "" {
		return Definition{}, fmt.Errorf("empty word")
	}

	c.mu.Lock()
	if def, ok := c.cache[key]; ok {
		c.mu.Unlock()
		def.Source = "cache"
		return def, nil
	}
	c.mu.Unlock()

	def, err := c.fetch(ctx, key)
	if err != nil {
		if fallback, ok := fallbackDefinitions[key]; ok {
			fallback.Word = key
			fallback.Source = "fallback"
			return fallback, nil
		}
		return Definition{}, err
	}

	c.mu.Lock()
	c.cache[key] = def
	c.mu.Unlock()
	return def, nil
}

func (c *Client) fetch(ctx context.Context, word string) (Definition, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.apiURL+"/"+url.PathEscape(word), nil)
	if err != nil {
		return Definition{}, fmt.Errorf("failed to create request: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Definition{}, fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Definition{}, fmt.Errorf("no definition found for %q", word)
	}
	if resp.StatusCode != http.StatusOK {
		return Definition{}, fmt.Errorf("dictionary API returned status %d", resp.StatusCode)
	}

	var entries []apiEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return Definition{}, fmt.Errorf("failed to decode response: %v", err)
	}
	if len(entries) == 0 || len(entries[0].Meanings) == 0 || len(entries[0].Meanings[0].Definitions) == 0 {
		return Definition{}, fmt.Errorf("no definition found for %q", word)
	}

	meaning := entries[0].Meanings[0]
	return Definition{
		Word:         word,
		Definition:   strings.TrimSpace(meaning.Definitions[0].Definition),
		PartOfSpeech: meaning.PartOfSpeech,
		Example:      strings.TrimSpace(meaning.Definitions[0].Example),
		Source:       "api",
	}, nil
}

// CacheSize reports how many lookups are cached.
func (c *Client) CacheSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// fallbackDefinitions covers a handful of common words so the add-word
// flow works without network access.
var fallbackDefinitions = map[string]Definition{
	"hello":   {Definition: "used as a greeting", PartOfSpeech: "exclamation"},
	"world":   {Definition: "the earth and all the people on it", PartOfSpeech: "noun"},
	"learn":   {Definition: "to gain knowledge or skill by study or experience", PartOfSpeech: "verb"},
	"word":    {Definition: "a single unit of language that has meaning", PartOfSpeech: "noun"},
	"review":  {Definition: "to look at or examine something again", PartOfSpeech: "verb"},
	"memory":  {Definition: "the ability to remember information and experiences", PartOfSpeech: "noun"},
	"study":   {Definition: "to give time and attention to learning something", PartOfSpeech: "verb"},
	"speak":   {Definition: "to say words in order to express thoughts", PartOfSpeech: "verb"},
	"read":    {Definition: "to look at and understand written words", PartOfSpeech: "verb"},
	"write":   {Definition: "to mark letters or words on a surface", PartOfSpeech: "verb"},
	"know":    {Definition: "to have information or understanding in your mind", PartOfSpeech: "verb"},
	"think":   {Definition: "to use your mind to form ideas or opinions", PartOfSpeech: "verb"},
	"example": {Definition: "something that shows what other things of the same kind are like", PartOfSpeech: "noun"},
}
