package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleDoc = `Intro text before any header.

## Authentication
` + "```yaml\ntopic: auth\naudience: backend\n```" + `
Use token based authentication for every request.

## Deployment
Deploy with the standard pipeline. Nothing fancy.
`

func TestIndexMarkdownDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guide.md")
	if err := os.WriteFile(path, []byte(sampleDoc), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewStore()
	added, err := NewIndexer(store).Index(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added != 3 {
		t.Errorf("added %d chunks, want 3 (intro + two sections)", added)
	}

	hits := store.Query("how does authentication work", 1)
	if len(hits) != 1 {
		t.Fatalf("expected one hit, got %d", len(hits))
	}
	if hits[0].Metadata["topic"] != "auth" {
		t.Errorf("yaml metadata not attached: %v", hits[0].Metadata)
	}
	if strings.Contains(hits[0].Content, "```yaml") {
		t.Errorf("metadata block leaked into indexed text: %q", hits[0].Content)
	}
	if hits[0].Source != path {
		t.Errorf("hit source = %q, want %q", hits[0].Source, path)
	}
}

func TestIndexHTMLStripsMarkup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	html := `<html><head><style>body{color:red}</style></head>
<body><script>alert(1)</script><p>Caching strategies for busy services.</p></body></html>`
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewStore()
	if _, err := NewIndexer(store).Index(context.Background(), []string{path}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hits := store.Query("caching strategies", 5)
	if len(hits) == 0 {
		t.Fatal("expected the page text to be indexed")
	}
	got := hits[0].Content
	if strings.Contains(got, "alert(1)") || strings.Contains(got, "color:red") {
		t.Errorf("script/style content leaked into the index: %q", got)
	}
}

func TestIndexSkipsUnreadableSources(t *testing.T) {
	store := NewStore()
	added, err := NewIndexer(store).Index(context.Background(),
		[]string{"/nonexistent/doc.md"})
	if err != nil {
		t.Fatalf("bad sources must be skipped, not fatal: %v", err)
	}
	if added != 0 || store.Len() != 0 {
		t.Errorf("nothing should be indexed: added=%d len=%d", added, store.Len())
	}
}

func TestCollectSources(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.md", "b.txt", "c.html", "d.go", "e.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	sources, err := CollectSources(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 3 {
		t.Errorf("collected %d sources, want 3: %v", len(sources), sources)
	}
}

func TestQueryRanksByDistinctTermOverlap(t *testing.T) {
	store := NewStore()
	store.Add(Snippet{Content: "databases and indexes"})
	store.Add(Snippet{Content: "databases, indexes and sharding together"})
	store.Add(Snippet{Content: "completely unrelated prose"})

	hits := store.Query("database index sharding", 2)
	if len(hits) != 2 {
		t.Fatalf("expected two hits, got %d", len(hits))
	}
	if hits[0].Content != "databases, indexes and sharding together" {
		t.Errorf("best match first, got %q", hits[0].Content)
	}
}

func TestQueryEmptyTerms(t *testing.T) {
	store := NewStore()
	store.Add(Snippet{Content: "anything"})
	if hits := store.Query("a an of", 3); hits != nil {
		t.Errorf("short terms should match nothing, got %v", hits)
	}
}

func TestChunkTextOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 50)
	chunks := chunkText(text, 200, 50)
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks for 500 bytes at step 150, got %d", len(chunks))
	}
	for i, c := range chunks[:len(chunks)-1] {
		if len(c) != 200 {
			t.Errorf("chunk %d has length %d, want 200", i, len(c))
		}
	}
}
