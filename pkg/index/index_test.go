package index

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faion-net/skillrouter/pkg/corpus"
	"github.com/faion-net/skillrouter/pkg/types/routing"
)

const terraformDoc = `---
id: terraform-iac
domain: OPS
category: devops
description: Terraform infrastructure-as-code workflows
triggers:
  - terraform
  - iac
  - "terraform plan"
---

# Terraform Infrastructure as Code

## State Management

## Module Design
`

const mlDoc = `# Model Training Pipelines

## Experiment Tracking

Body text.
`

func buildIndex(t *testing.T, docs ...corpus.Document) *Index {
	t.Helper()
	idx, err := Build(context.Background(), corpus.NewStaticSource(docs...))
	require.NoError(t, err)
	return idx
}

func TestBuildWithFrontmatter(t *testing.T) {
	idx := buildIndex(t, corpus.Document{Path: "devops/terraform.md", Raw: terraformDoc})
	require.Equal(t, 1, idx.Len())

	doc, err := idx.Get("terraform-iac")
	require.NoError(t, err)
	assert.Equal(t, routing.DomainOps, doc.Domain)
	assert.Equal(t, "devops", doc.Category)
	assert.Equal(t, "Terraform infrastructure-as-code workflows", doc.Description)
	assert.Equal(t, "devops/terraform.md", doc.ContentRef)
	assert.Positive(t, doc.SizeHint)

	// Explicit triggers plus title and level-2 heading terms, sorted.
	assert.True(t, doc.HasTrigger("terraform"))
	assert.True(t, doc.HasTrigger("iac"))
	assert.True(t, doc.HasTrigger("terraform plan"))
	assert.True(t, doc.HasTrigger("infrastructure"))
	assert.True(t, doc.HasTrigger("state"))
	assert.True(t, doc.HasTrigger("module"))
	assert.False(t, doc.HasTrigger("as"), "stop words never become triggers")
	assert.IsIncreasing(t, doc.Triggers)
}

func TestBuildInfersMetadata(t *testing.T) {
	idx := buildIndex(t, corpus.Document{Path: "ml-engineering/training/pipelines.md", Raw: mlDoc})

	doc, err := idx.Get("model-training-pipelines")
	require.NoError(t, err)
	assert.Equal(t, routing.DomainML, doc.Domain)
	assert.Equal(t, "training", doc.Category)
	assert.True(t, doc.HasTrigger("training"))
	assert.True(t, doc.HasTrigger("experiment"))
}

func TestBuildFailsWithoutIdentity(t *testing.T) {
	_, err := Build(context.Background(), corpus.NewStaticSource(
		corpus.Document{Path: "devops/orphan.md", Raw: "just prose, no headings"},
	))
	require.Error(t, err)

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	require.Len(t, buildErr.Failures(), 1)
	assert.Contains(t, err.Error(), "cannot derive identity")
}

func TestBuildFailsOnUnknownDomain(t *testing.T) {
	_, err := Build(context.Background(), corpus.NewStaticSource(
		corpus.Document{Path: "devops/bad.md", Raw: "---\nid: bad\ndomain: PLATFORM\n---\n# Bad\n"},
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown domain")
}

func TestBuildFailsOnUnmappedDirectory(t *testing.T) {
	_, err := Build(context.Background(), corpus.NewStaticSource(
		corpus.Document{Path: "random/doc.md", Raw: "# Doc\n"},
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maps to none")
}

func TestBuildFailsOnDuplicateID(t *testing.T) {
	_, err := Build(context.Background(), corpus.NewStaticSource(
		corpus.Document{Path: "devops/a.md", Raw: "---\nid: same\n---\n# A\n"},
		corpus.Document{Path: "devops/b.md", Raw: "---\nid: same\n---\n# B\n"},
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate skill id")
}

func TestBuildAggregatesAllFailures(t *testing.T) {
	_, err := Build(context.Background(), corpus.NewStaticSource(
		corpus.Document{Path: "devops/one.md", Raw: "no identity here"},
		corpus.Document{Path: "random/two.md", Raw: "# Two\n"},
	))
	require.Error(t, err)

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Len(t, buildErr.Failures(), 2)
}

func TestGetNotFound(t *testing.T) {
	idx := buildIndex(t, corpus.Document{Path: "devops/terraform.md", Raw: terraformDoc})

	_, err := idx.Get("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, idx.Has("nope"))
	assert.True(t, idx.Has("terraform-iac"))
}

func TestAllStableOrder(t *testing.T) {
	idx := buildIndex(t,
		corpus.Document{Path: "devops/terraform.md", Raw: terraformDoc},
		corpus.Document{Path: "ml-engineering/training/pipelines.md", Raw: mlDoc},
	)

	all := idx.All()
	require.Len(t, all, 2)
	assert.Equal(t, "terraform-iac", all[0].ID)
	assert.Equal(t, "model-training-pipelines", all[1].ID)

	assert.Equal(t, []routing.Domain{routing.DomainML, routing.DomainOps}, idx.Domains())
}

func TestReadContent(t *testing.T) {
	idx := buildIndex(t, corpus.Document{Path: "devops/terraform.md", Raw: terraformDoc})

	doc, err := idx.Get("terraform-iac")
	require.NoError(t, err)

	content, err := idx.ReadContent(context.Background(), doc.ContentRef)
	require.NoError(t, err)
	assert.Contains(t, content, "# Terraform Infrastructure as Code")
}
