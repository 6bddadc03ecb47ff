// Package classifier estimates the model tier for a task independent of which
// skill documents match. It is an ordered rule cascade over normalized task
// terms, not a learned model: same input, same tier, every time.
package classifier

import (
	"strings"

	"github.com/faion-net/skillrouter/pkg/types/routing"
)

// imperativeVerbs open a mechanical command ("run terraform plan").
var imperativeVerbs = map[string]bool{
	"apply": true, "build": true, "delete": true, "deploy": true,
	"execute": true, "install": true, "list": true, "pull": true,
	"push": true, "restart": true, "rollback": true, "run": true,
	"scale": true, "start": true, "stop": true, "tag": true,
}

// knownTools are the single named tools a mechanical task operates.
var knownTools = map[string]bool{
	"ansible": true, "aws": true, "az": true, "docker": true,
	"docker-compose": true, "gcloud": true, "git": true, "grafana": true,
	"helm": true, "kubectl": true, "kustomize": true, "make": true,
	"npm": true, "pip": true, "prometheus": true, "terraform": true,
}

// analyticalCues signal review, debugging, or comparison work.
var analyticalCues = map[string]bool{
	"analyze": true, "compare": true, "comparison": true, "debug": true,
	"debugging": true, "diff": true, "explain": true, "fix": true,
	"investigate": true, "review": true, "troubleshoot": true, "why": true,
}

// boundedArtifactCues signal the work targets one bounded artifact.
var boundedArtifactCues = map[string]bool{
	"chart": true, "config": true, "configuration": true, "dashboard": true,
	"dockerfile": true, "file": true, "manifest": true, "module": true,
	"pipeline": true, "playbook": true, "query": true, "script": true,
	"template": true, "yaml": true, "yml": true,
}

// architecturalCues force the top tier regardless of other matches.
var architecturalCues = map[string]bool{
	"architect": true, "architectural": true, "architecture": true,
	"design": true, "disaster": true, "end-to-end": true, "failover": true,
	"migrate": true, "migration": true, "multi-cloud": true,
	"multi-region": true, "replatform": true, "roadmap": true,
	"strategy": true, "cross-system": true,
}

// maxMechanicalTerms bounds how long a task can be and still count as a
// single mechanical operation.
const maxMechanicalTerms = 4

// Classifier assigns a model tier to tasks.
type Classifier struct{}

// New creates a Classifier.
func New() *Classifier {
	return &Classifier{}
}

// Classify applies the rule cascade:
//  1. short imperative command naming a single known tool -> mechanical
//  2. review/debug/compare cue plus a bounded-artifact cue -> analytical
//  3. everything else, and anything with an architectural cue -> architectural
//
// Blank tasks fall through to architectural; a blank task is unroutable
// anyway and the tier is never acted on alone.
func (c *Classifier) Classify(task *routing.Task) routing.ModelTier {
	if task.Blank() {
		return routing.TierArchitectural
	}

	if hasAny(task.Terms, architecturalCues) {
		return routing.TierArchitectural
	}

	if c.isMechanical(task) {
		return routing.TierMechanical
	}

	if hasAny(task.Terms, analyticalCues) && (hasAny(task.Terms, boundedArtifactCues) || hasAny(task.Terms, knownTools)) {
		return routing.TierAnalytical
	}

	return routing.TierArchitectural
}

// isMechanical accepts both verb-first ("run terraform plan") and tool-first
// ("docker build") phrasings of a single-tool command.
func (c *Classifier) isMechanical(task *routing.Task) bool {
	if len(task.Terms) > maxMechanicalTerms {
		return false
	}

	fields := strings.Fields(task.NormalizedText)
	if len(fields) == 0 {
		return false
	}

	imperative := imperativeVerbs[fields[0]]
	tools := 0
	for _, term := range task.Terms {
		if knownTools[term] {
			tools++
		}
		if imperativeVerbs[term] {
			imperative = true
		}
	}
	return imperative && tools == 1
}

func hasAny(terms []string, set map[string]bool) bool {
	for _, t := range terms {
		if set[t] {
			return true
		}
	}
	return false
}
