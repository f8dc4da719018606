// Package intent classifies user queries into the closed intent taxonomy.
//
// A Classifier consults a short-lived cache, then walks an ordered chain of
// classifier backends. Each backend response must be valid JSON carrying a
// recognized intent tag; anything else advances the chain. When every backend
// fails the classifier degrades to a safe default instead of erroring the turn.
package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/voxa-labs/voxa/internal/convstate"
	"github.com/voxa-labs/voxa/internal/models"
)

var (
	// ErrAllBackendsFailed indicates no backend produced a usable classification.
	ErrAllBackendsFailed = errors.New("all classifier backends failed")
	// ErrBackendUnavailable marks connectivity-class backend failures.
	ErrBackendUnavailable = errors.New("classifier backend unavailable")
)

// CacheTTL bounds how long a classification is reused for an identical query.
const CacheTTL = 5 * time.Minute

// Hint carries the conversational context the classifier prompt may use.
type Hint struct {
	PersonalFacts []string
	LastTopic     *models.TopicState
}

// Backend produces a raw JSON classification for a query. Implementations
// wrap connectivity failures in ErrBackendUnavailable.
type Backend interface {
	Name() string
	Classify(ctx context.Context, query string, hint Hint) (string, error)
}

// Classifier walks the backend chain with caching.
type Classifier struct {
	cache    convstate.KV
	backends []Backend
}

// NewClassifier creates a Classifier. The cache may be nil to disable caching.
func NewClassifier(cache convstate.KV, backends ...Backend) *Classifier {
	return &Classifier{cache: cache, backends: backends}
}

func cacheKey(query string) string {
	return "intent_cache:v1:" + strings.ToLower(strings.TrimSpace(query))
}

// Classify resolves the intent for a query. The returned intent is always
// usable; the error reports chain exhaustion for logging, wrapped around
// ErrAllBackendsFailed.
func (c *Classifier) Classify(ctx context.Context, query string, hint Hint) (models.Intent, error) {
	if cached, ok := c.cachedIntent(ctx, query); ok {
		slog.Debug("Classifier.Classify: cache hit", "query", query, "intent", cached.Tag)
		return cached, nil
	}

	var (
		failures    int
		unavailable int
	)
	for _, backend := range c.backends {
		raw, err := backend.Classify(ctx, query, hint)
		if err != nil {
			failures++
			if errors.Is(err, ErrBackendUnavailable) {
				unavailable++
			}
			slog.Warn("Classifier.Classify: backend failed", "backend", backend.Name(), "error", err)
			continue
		}

		intent, ok := parseIntent(raw)
		if !ok {
			failures++
			slog.Warn("Classifier.Classify: backend returned invalid classification", "backend", backend.Name(), "raw", raw)
			continue
		}

		c.storeIntent(ctx, query, intent)
		slog.Info("Classifier.Classify: classified", "backend", backend.Name(), "intent", intent.Tag)
		return intent, nil
	}

	// Every backend being unreachable suggests a systemic outage; route the
	// query to the strongest handler rather than guessing cheap.
	if len(c.backends) > 0 && unavailable == len(c.backends) {
		return models.Intent{Tag: models.IntentEscalatePowerful, Parameters: map[string]string{}},
			fmt.Errorf("%w: %d backends unavailable", ErrAllBackendsFailed, unavailable)
	}

	return models.Intent{Tag: models.IntentFactual, Parameters: map[string]string{}},
		fmt.Errorf("%w: %d failures", ErrAllBackendsFailed, failures)
}

// parseIntent validates a backend response: it must be a JSON object with a
// string "intent" field from the closed set. Parameters are optional.
func parseIntent(raw string) (models.Intent, bool) {
	trimmed := strings.TrimSpace(raw)
	if !gjson.Valid(trimmed) {
		return models.Intent{}, false
	}
	tag := gjson.Get(trimmed, "intent")
	if tag.Type != gjson.String {
		return models.Intent{}, false
	}
	intent := models.Intent{Tag: models.IntentTag(tag.String()), Parameters: map[string]string{}}
	if !intent.Valid() {
		return models.Intent{}, false
	}
	if conf := gjson.Get(trimmed, "confidence"); conf.Exists() {
		intent.Confidence = conf.Float()
	}
	gjson.Get(trimmed, "parameters").ForEach(func(key, value gjson.Result) bool {
		intent.Parameters[key.String()] = value.String()
		return true
	})
	return intent, true
}

func (c *Classifier) cachedIntent(ctx context.Context, query string) (models.Intent, bool) {
	if c.cache == nil {
		return models.Intent{}, false
	}
	raw, ok, err := c.cache.Get(ctx, cacheKey(query))
	if err != nil || !ok {
		return models.Intent{}, false
	}
	var intent models.Intent
	if err := json.Unmarshal([]byte(raw), &intent); err != nil || !intent.Valid() {
		return models.Intent{}, false
	}
	return intent, true
}

func (c *Classifier) storeIntent(ctx context.Context, query string, intent models.Intent) {
	if c.cache == nil {
		return
	}
	data, err := json.Marshal(intent)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, cacheKey(query), string(data), CacheTTL); err != nil {
		slog.Warn("Classifier.storeIntent: cache write failed", "error", err)
	}
}
