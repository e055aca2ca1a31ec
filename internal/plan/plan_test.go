package plan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPreservePolicy(t *testing.T) {
	p := NewPlanner(PolicyPreserve, []string{"about.md", "blog/post.md"})
	require.Equal(t, "about.html", p.Document("about.md"))
	require.Equal(t, "blog/post.html", p.Document("blog/post.md"))
}

func TestCleanPolicy(t *testing.T) {
	p := NewPlanner(PolicyClean, []string{"about.md", "blog/post.md"})
	require.Equal(t, "about/index.html", p.Document("about.md"))
	require.Equal(t, "blog/post/index.html", p.Document("blog/post.md"))
}

func TestIndexAlwaysCleanForm(t *testing.T) {
	for _, policy := range []Policy{PolicyPreserve, PolicyClean} {
		p := NewPlanner(policy, []string{"index.md", "blog/index.md"})
		require.Equal(t, "index.html", p.Document("index.md"))
		require.Equal(t, "blog/index.html", p.Document("blog/index.md"))
	}
}

func TestCleanURLConflictDemotion(t *testing.T) {
	docs := []string{"about.md", "about/index.md"}
	p := NewPlanner(PolicyClean, docs)

	// The literal index owns the clean path; the sibling is demoted to
	// extension-preserving output. Nothing is silently dropped.
	require.Equal(t, "about/index.html", p.Document("about/index.md"))
	require.Equal(t, "about.html", p.Document("about.md"))
}

func TestConflictDetectionAcrossExtensions(t *testing.T) {
	p := NewPlanner(PolicyClean, []string{"faq.md", "faq/index.html"})
	require.Equal(t, "faq.html", p.Document("faq.md"))
}

func TestAssetIdentityMapping(t *testing.T) {
	p := NewPlanner(PolicyClean, nil)
	require.Equal(t, "img/logo.png", p.Asset("img/logo.png"))
	require.Equal(t, "style.css", p.Asset("style.css"))
}
