package predict

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubRand(t *testing.T, v float64) {
	t.Helper()
	orig := randFloat
	randFloat = func() float64 { return v }
	t.Cleanup(func() { randFloat = orig })
}

func TestPredictFromService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/predict", r.URL.Path)
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Math", req.Subject)
		assert.Equal(t, "2026-09-02", req.Date)

		json.NewEncoder(w).Encode(Result{Prediction: 1, Confidence: 0.92, Message: "Likely to attend"})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil, 0)
	res := c.Predict(context.Background(), Request{Subject: "Math", Date: "2026-09-02", UserID: "user-a"})

	assert.Equal(t, 1, res.Prediction)
	assert.Equal(t, 0.92, res.Confidence)
	assert.Equal(t, "service", res.Source)
}

func TestPredictFallsBackWhenUnreachable(t *testing.T) {
	stubRand(t, 0.0)

	c := New("http://127.0.0.1:1", 100*time.Millisecond, nil, 0)
	res := c.Predict(context.Background(), Request{Subject: "Math", Date: "2026-09-02", UserID: "user-a"})

	assert.Equal(t, "fallback", res.Source)
	assert.Equal(t, 1, res.Prediction)
}

func TestPredictFallsBackOnBadResponse(t *testing.T) {
	stubRand(t, 0.0)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second, nil, 0)
	res := c.Predict(context.Background(), Request{Subject: "Math", Date: "2026-09-02", UserID: "user-a"})
	assert.Equal(t, "fallback", res.Source)
}

func TestFallback(t *testing.T) {
	weekday := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)  // Wednesday
	saturday := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC) // Saturday

	tests := []struct {
		name           string
		date           time.Time
		rand           float64
		wantPrediction int
		wantConfidence float64
		wantMessage    string
	}{
		{name: "weekday attend", date: weekday, rand: 0.5, wantPrediction: 1, wantConfidence: 0.85, wantMessage: "Likely to attend"},
		{name: "weekday absent", date: weekday, rand: 0.9, wantPrediction: 0, wantConfidence: 0.85, wantMessage: "Likely to be absent"},
		{name: "weekend attend", date: saturday, rand: 0.1, wantPrediction: 1, wantConfidence: 0.45, wantMessage: "Likely to attend"},
		{name: "weekend absent", date: saturday, rand: 0.5, wantPrediction: 0, wantConfidence: 0.45, wantMessage: "Likely to be absent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubRand(t, tt.rand)
			res := Fallback(tt.date)
			assert.Equal(t, tt.wantPrediction, res.Prediction)
			assert.Equal(t, tt.wantConfidence, res.Confidence)
			assert.Equal(t, tt.wantMessage, res.Message)
			assert.Equal(t, "fallback", res.Source)
		})
	}
}
