package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadsEqualIgnoresMetaAndPrecision(t *testing.T) {
	a := []byte(`{"data":{"average":85.3333333},"meta":{"processing_time_ms":3}}`)
	b := []byte(`{"data":{"average":85.33},"meta":{"processing_time_ms":9,"cached":true}}`)
	assert.True(t, payloadsEqual(a, b))

	c := []byte(`{"data":{"average":86}}`)
	assert.False(t, payloadsEqual(a, c))

	notFound := []byte(`{"error":{"code":"NOT_FOUND","message":"x"}}`)
	validation := []byte(`{"error":{"code":"VALIDATION_ERROR","message":"x"}}`)
	assert.False(t, payloadsEqual(notFound, validation))
	assert.False(t, payloadsEqual(notFound, a))
}

func TestQueryTargetsEscapesNames(t *testing.T) {
	targets := queryTargets("/api/v1", samples{
		Subjects: []string{"Computer Science"},
		Teachers: []string{"Ivan"},
		Groups:   []string{"G-1"},
	})
	require.Len(t, targets, 13)
	assert.Equal(t, "/api/v1/queries/subjects/Computer%20Science/top-student", targets[2].Path)
	assert.Equal(t, "/api/v1/queries/teachers/Ivan/students/missing/average", targets[6].Path)
	assert.True(t, targets[0].Critical)
	assert.False(t, targets[12].Critical)
}

func TestRunReportsBreakingDiffs(t *testing.T) {
	samplesBody := `{"data":{"subjects":["Math"],"teachers":["Ivan"],"groups":["G1"],"students":["Anna"]}}`
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/queries/samples" {
			_, _ = w.Write([]byte(samplesBody))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"value":1}}`))
	}))
	defer primary.Close()

	same := httptest.NewServer(primary.Config.Handler)
	defer same.Close()

	var out bytes.Buffer
	assert.Equal(t, 0, run([]string{"--primary", primary.URL, "--secondary", same.URL}, &out))
	assert.Contains(t, out.String(), "Breaking diffs: 0, Optional diffs: 0")

	different := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/queries/overall-average" {
			_, _ = w.Write([]byte(`{"data":{"value":2}}`))
			return
		}
		primary.Config.Handler.ServeHTTP(w, r)
	}))
	defer different.Close()

	out.Reset()
	assert.Equal(t, 1, run([]string{"--primary", primary.URL, "--secondary", different.URL}, &out))
	assert.Contains(t, out.String(), "[DIFF] GET /api/v1/queries/overall-average")
	assert.Contains(t, out.String(), "Breaking diffs: 1, Optional diffs: 0")
}
