package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/5HA5HWAT/Att-Tracker/internal/metrics"
)

// Request is the payload sent to the external prediction service.
type Request struct {
	Subject string `json:"subject"`
	Date    string `json:"date"`
	UserID  string `json:"userId"`
}

// Result is a prediction outcome: will the class happen and is attendance
// worth it. Source tells the caller whether the model answered or the local
// heuristic had to step in.
type Result struct {
	Prediction int     `json:"prediction"`
	Confidence float64 `json:"confidence"`
	Message    string  `json:"message"`
	Source     string  `json:"source,omitempty"`
}

// Client calls the external attendance-prediction service. The service is an
// unowned collaborator and may be down at any time; Predict never fails, it
// degrades to the weekday heuristic instead.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *redis.Client
	ttl     time.Duration
}

// New creates a client. cache may be nil to disable response caching.
func New(baseURL string, timeout time.Duration, cache *redis.Client, cacheTTL time.Duration) *Client {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		cache:   cache,
		ttl:     cacheTTL,
	}
}

// Predict returns the service's prediction for a subject on a date, serving
// repeats from cache and falling back to the local heuristic when the
// service is unreachable or answers garbage.
func (c *Client) Predict(ctx context.Context, req Request) Result {
	key := fmt.Sprintf("predict:%s:%s:%s", req.UserID, req.Subject, req.Date)
	if cached, ok := c.cacheGet(ctx, key); ok {
		return cached
	}

	res, err := c.call(ctx, req)
	if err != nil {
		log.Printf("prediction service unavailable, using fallback: %v", err)
		metrics.PredictFallbacks.Inc()
		date, perr := time.Parse("2006-01-02", req.Date)
		if perr != nil {
			date = time.Now()
		}
		res = Fallback(date)
	}

	c.cacheSet(ctx, key, res)
	return res
}

func (c *Client) call(ctx context.Context, req Request) (Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Result{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/predict", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("prediction service returned %d", resp.StatusCode)
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Result{}, err
	}
	if res.Confidence < 0 || res.Confidence > 1 {
		return Result{}, fmt.Errorf("prediction service returned confidence %v", res.Confidence)
	}
	res.Source = "service"
	return res, nil
}

// randFloat is swapped in tests for deterministic fallback draws.
var randFloat = rand.Float64

// Fallback is the local heuristic used when the prediction service cannot
// answer: classes are much likelier to run on weekdays. The draw against the
// likelihood keeps repeated asks from looking hardcoded.
func Fallback(date time.Time) Result {
	likelihood := 0.85
	if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
		likelihood = 0.45
	}

	prediction := 0
	message := "Likely to be absent"
	if randFloat() < likelihood {
		prediction = 1
		message = "Likely to attend"
	}
	return Result{
		Prediction: prediction,
		Confidence: likelihood,
		Message:    message,
		Source:     "fallback",
	}
}

func (c *Client) cacheGet(ctx context.Context, key string) (Result, bool) {
	if c.cache == nil {
		return Result{}, false
	}
	raw, err := c.cache.Get(ctx, key).Bytes()
	if err != nil {
		return Result{}, false // miss or redis down, same thing
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return Result{}, false
	}
	return res, true
}

func (c *Client) cacheSet(ctx context.Context, key string, res Result) {
	if c.cache == nil || c.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Printf("prediction cache write failed: %v", err)
	}
}
