package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faion-net/skillrouter/pkg/corpus"
	"github.com/faion-net/skillrouter/pkg/index"
	"github.com/faion-net/skillrouter/pkg/router"
	"github.com/faion-net/skillrouter/pkg/types/routing"
)

const (
	terraformSkill = `---
id: terraform-iac
domain: OPS
category: devops
triggers: [terraform, plan, iac]
---

# Terraform Infrastructure as Code

Run plans before applies.
`
	trainingSkill = `---
id: ml-model-training
domain: ML
category: ml-engineering
triggers: [training, gpu, dataset]
---

# Model Training

Experiment tracking and datasets.
`
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	source := corpus.NewStaticSource(
		corpus.Document{Path: "devops/terraform.md", Raw: terraformSkill},
		corpus.Document{Path: "ml/training.md", Raw: trainingSkill},
	)
	idx, err := index.Build(context.Background(), source)
	require.NoError(t, err)

	snapshots := router.FixedSnapshot(idx)
	pipeline, err := router.New(snapshots, nil)
	require.NoError(t, err)

	s, err := New("localhost:0", snapshots, pipeline)
	require.NoError(t, err)
	return s
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestRouteEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/route", RouteRequest{Task: "run terraform plan"})
	require.Equal(t, http.StatusOK, rec.Code)

	var decision routing.Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.False(t, decision.Unmatched)
	assert.Contains(t, decision.SelectedSkills, "terraform-iac")
	assert.Equal(t, routing.TierMechanical, decision.ModelTier)
}

func TestRouteEndpointDomainHint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/route", RouteRequest{
		Task:       "gpu training for terraform modules",
		DomainHint: "ml",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var decision routing.Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.NotContains(t, decision.SelectedSkills, "terraform-iac")
	assert.Contains(t, decision.SelectedSkills, "ml-model-training")
}

func TestRouteEndpointUnmatched(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/route", RouteRequest{Task: "knitting patterns"})
	require.Equal(t, http.StatusOK, rec.Code)

	var decision routing.Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.True(t, decision.Unmatched)
	assert.Empty(t, decision.SelectedSkills)
}

func TestRouteEndpointBadDomainHint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/route", RouteRequest{Task: "anything", DomainHint: "platform"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "invalid domain hint", payload["error"])
}

func TestRouteEndpointBadBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/route", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSkillsEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/api/skills", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var docs []routing.SkillDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	require.Len(t, docs, 2)

	ids := []string{docs[0].ID, docs[1].ID}
	assert.Contains(t, ids, "terraform-iac")
	assert.Contains(t, ids, "ml-model-training")
}

func TestGetSkillEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/api/skills/terraform-iac", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var doc routing.SkillDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "terraform-iac", doc.ID)
	assert.Equal(t, routing.DomainOps, doc.Domain)

	rec = doJSON(t, s, "GET", "/api/skills/nonexistent", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, float64(2), payload["documents"])
}

func TestNewValidation(t *testing.T) {
	_, err := New("", nil, nil)
	assert.Error(t, err)

	_, err = New("localhost:0", nil, nil)
	assert.Error(t, err)
}
