package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"credit-advisor/inference"
	"credit-advisor/llm"
	"credit-advisor/metrics"
	"credit-advisor/repository"
	"credit-advisor/service"
)

const scenarioProfile = `{
	"NETMONTHLYINCOME": 50000,
	"AGE": 30,
	"Time_With_Curr_Empr": 36,
	"CC_utilization": 25,
	"PL_utilization": 10,
	"enq_L6m": 1,
	"tot_enq": 2,
	"num_deliq_12mts": 0,
	"max_delinquency_level": 0,
	"num_std": 4,
	"CC_Flag": "1",
	"PL_Flag": "0",
	"MARITALSTATUS": "Single",
	"EDUCATION": "GRADUATE",
	"GENDER": "F",
	"Credit_Score": 750
}`

type countingGenerator struct {
	calls atomic.Int32
	text  string
	err   error
}

func (g *countingGenerator) Generate(context.Context, string) (string, error) {
	g.calls.Add(1)
	return g.text, g.err
}

func shellClassifier(script string) *inference.ProcessClassifier {
	return inference.NewProcessClassifier(inference.Options{
		Command: "/bin/sh",
		Args:    []string{"-c", script},
		Timeout: 5 * time.Second,
	}, zap.NewNop(), nil)
}

type testServer struct {
	router    *gin.Engine
	generator *countingGenerator
	registry  *prometheus.Registry
}

func newTestServer(t *testing.T, classifier service.Classifier, gen *countingGenerator) *testServer {
	t.Helper()
	logger := zap.NewNop()
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	router := Setup(RouterConfig{
		Prediction:     service.NewPredictionService(classifier, logger),
		Recommendation: service.NewRecommendationService(repository.NewMemoryCache(0, 0), gen, logger, m),
		Health:         NewHealthHandler("memory", nil),
		CORSOrigins:    []string{"*"},
		Gatherer:       registry,
		Metrics:        m,
		Logger:         logger,
	})
	return &testServer{router: router, generator: gen, registry: registry}
}

func (s *testServer) post(path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func withClass(label, profile string) string {
	return `{"predictedClass":"` + label + `",` + strings.TrimPrefix(strings.TrimSpace(profile), "{")
}

func TestScoringScenario(t *testing.T) {
	gen := &countingGenerator{text: "**Keep It Up**\n1. Keep utilization under 30%.\n- Pay in full"}
	srv := newTestServer(t, shellClassifier("cat >/dev/null; echo P1"), gen)

	w := srv.post("/predict", scenarioProfile)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"predictedClass":"P1"}`, w.Body.String())

	first := srv.post("/predict/recommend", withClass("P1", scenarioProfile))
	second := srv.post("/predict/recommend", withClass("P1", scenarioProfile))

	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, int32(1), gen.calls.Load())

	assert.JSONEq(t, `{
		"recommendations": "**Keep It Up**\n1. Keep utilization under 30%.\n- Pay in full",
		"blocks": [
			{"type": "heading", "text": "Keep It Up"},
			{"type": "numbered", "items": ["Keep utilization under 30%."]},
			{"type": "bulleted", "items": ["Pay in full"]}
		]
	}`, first.Body.String())
}

func TestPredict_Errors(t *testing.T) {
	t.Run("non-zero exit returns stderr", func(t *testing.T) {
		srv := newTestServer(t, shellClassifier("cat >/dev/null; echo 'model missing' >&2; exit 1"), &countingGenerator{})

		w := srv.post("/predict", `{"AGE":30}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), `"error":"Prediction failed"`)
		assert.Contains(t, w.Body.String(), "model missing")
	})

	t.Run("timeout returns 504", func(t *testing.T) {
		classifier := inference.NewProcessClassifier(inference.Options{
			Command: "/bin/sh",
			Args:    []string{"-c", "exec sleep 10"},
			Timeout: 200 * time.Millisecond,
		}, zap.NewNop(), nil)
		srv := newTestServer(t, classifier, &countingGenerator{})

		w := srv.post("/predict", `{"AGE":30}`)

		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
		assert.Contains(t, w.Body.String(), "Prediction timed out")
	})

	t.Run("non-object body is rejected", func(t *testing.T) {
		srv := newTestServer(t, shellClassifier("echo P1"), &countingGenerator{})

		for _, body := range []string{`[1,2]`, `not json`, `null`, ``} {
			w := srv.post("/predict", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, body)
			assert.Contains(t, w.Body.String(), "invalid request body")
		}
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		srv := newTestServer(t, shellClassifier("echo P1"), &countingGenerator{})

		body := `{"pad":"` + strings.Repeat("x", service.MaxRequestBodyBytes) + `"}`
		w := srv.post("/predict", body)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestRecommend_Errors(t *testing.T) {
	t.Run("missing predictedClass", func(t *testing.T) {
		gen := &countingGenerator{text: "advice"}
		srv := newTestServer(t, shellClassifier("echo P1"), gen)

		w := srv.post("/predict/recommend", `{"AGE":30}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, int32(0), gen.calls.Load())
	})

	t.Run("generation failure is retried on the next call", func(t *testing.T) {
		gen := &countingGenerator{err: assert.AnError}
		srv := newTestServer(t, shellClassifier("echo P1"), gen)

		w := srv.post("/predict/recommend", `{"predictedClass":"P2","AGE":30}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Failed to fetch recommendations","details":"generation failed: `+assert.AnError.Error()+`"}`, w.Body.String())

		w = srv.post("/predict/recommend", `{"predictedClass":"P2","AGE":30}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, int32(2), gen.calls.Load())
	})
}

func TestRecommend_UpstreamErrorDetails(t *testing.T) {
	gen := &countingGenerator{err: &llm.APIError{Provider: "gemini", StatusCode: http.StatusTooManyRequests, Body: "quota exceeded"}}
	srv := newTestServer(t, shellClassifier("echo P1"), gen)

	w := srv.post("/predict/recommend", `{"predictedClass":"P1","AGE":30}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch recommendations","details":"upstream status 429: quota exceeded"}`, w.Body.String())
}

func TestMetricsAndCORS(t *testing.T) {
	srv := newTestServer(t, shellClassifier("cat >/dev/null; echo P3"), &countingGenerator{text: "advice"})
	srv.post("/predict/recommend", `{"predictedClass":"P3"}`)

	req, _ := http.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "credit_advisor_recommendation_cache_total")

	req, _ = http.NewRequest("POST", "/predict", strings.NewReader(`{}`))
	req.Header.Set("Origin", "http://localhost:5173")
	w = httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthHandler(t *testing.T) {
	t.Run("in-process cache", func(t *testing.T) {
		router := gin.New()
		router.GET("/health", NewHealthHandler("memory", nil).Health)

		req, _ := http.NewRequest("GET", "/health", http.NoBody)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"healthy","components":{"cache":"memory"}}`, w.Body.String())
	})

	t.Run("redis reachability", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cache := repository.NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "p:", 0)
		defer cache.Close()

		router := gin.New()
		router.GET("/health", NewHealthHandler("redis", cache).Health)

		req, _ := http.NewRequest("GET", "/health", http.NoBody)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)

		mr.Close()
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "unhealthy")
	})
}
