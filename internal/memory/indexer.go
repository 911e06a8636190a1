package memory

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"squad/internal/logger"
)

const (
	defaultChunkSize    = 800
	defaultChunkOverlap = 100
	indexConcurrency    = 8
)

// Indexer splits documents into sections by markdown headers, lifts embedded
// ```yaml metadata blocks out of each section, chunks the remaining content
// and adds the chunks to a Store.
type Indexer struct {
	store        *Store
	chunkSize    int
	chunkOverlap int
	client       *http.Client
}

func NewIndexer(store *Store) *Indexer {
	return &Indexer{
		store:        store,
		chunkSize:    defaultChunkSize,
		chunkOverlap: defaultChunkOverlap,
		client:       http.DefaultClient,
	}
}

// CollectSources walks dir for indexable files (.md, .txt, .html).
func CollectSources(dir string) ([]string, error) {
	var sources []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".md", ".txt", ".html":
			sources = append(sources, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not walk docs dir: %w", err)
	}
	return sources, nil
}

// Index fetches and indexes each source; sources are processed in parallel
// with a concurrency cap. A source that fails to index is skipped, not
// fatal. Returns the number of chunks added.
func (ix *Indexer) Index(ctx context.Context, sources []string) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(indexConcurrency)

	var mu sync.Mutex
	total := 0

	for _, source := range sources {
		src := source
		g.Go(func() error {
			n, err := ix.indexOne(gctx, src)
			if err != nil {
				logger.Printf("[Memory] skipping %s: %v", src, err)
				return nil
			}
			mu.Lock()
			total += n
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return total, err
	}
	return total, nil
}

func (ix *Indexer) indexOne(ctx context.Context, source string) (int, error) {
	content, err := ix.fetch(ctx, source)
	if err != nil {
		return 0, err
	}
	if strings.HasSuffix(strings.ToLower(source), ".html") {
		content, err = htmlToText(content)
		if err != nil {
			return 0, err
		}
	}

	added := 0
	for sectionIdx, section := range splitSections(content) {
		meta, cleaned := extractYAMLBlock(section)
		if strings.TrimSpace(cleaned) == "" {
			continue
		}
		for chunkIdx, chunk := range chunkText(cleaned, ix.chunkSize, ix.chunkOverlap) {
			ix.store.Add(Snippet{
				Content:  chunk,
				Source:   source,
				Section:  sectionIdx,
				Chunk:    chunkIdx,
				Metadata: meta,
			})
			added++
		}
	}
	return added, nil
}

func (ix *Indexer) fetch(ctx context.Context, source string) (string, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return "", err
		}
		resp, err := ix.client.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	b, err := os.ReadFile(source)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func htmlToText(content string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", err
	}
	doc.Find("script, style").Remove()
	return doc.Text(), nil
}

// splitSections cuts the text at level-2 markdown headers, keeping the
// header with its section. Text before the first header is its own section.
func splitSections(text string) []string {
	lines := strings.Split(text, "\n")
	var sections []string
	var cur []string
	for _, line := range lines {
		if strings.HasPrefix(line, "## ") && len(cur) > 0 {
			sections = append(sections, strings.Join(cur, "\n"))
			cur = cur[:0]
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		sections = append(sections, strings.Join(cur, "\n"))
	}

	out := sections[:0]
	for _, s := range sections {
		if strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

var yamlBlockPattern = regexp.MustCompile("(?s)```yaml\r?\n(.*?)\r?\n```")

// extractYAMLBlock parses the first ```yaml block in the section as metadata
// and removes it from the content so it is not indexed as text. Values are
// flattened to strings.
func extractYAMLBlock(text string) (map[string]string, string) {
	m := yamlBlockPattern.FindStringSubmatch(text)
	if m == nil {
		return nil, text
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(m[1]), &raw); err != nil {
		logger.Printf("[Memory] bad yaml metadata block: %v", err)
		return nil, text
	}

	meta := make(map[string]string, len(raw))
	for k, v := range raw {
		meta[k] = fmt.Sprintf("%v", v)
	}
	return meta, strings.TrimSpace(strings.Replace(text, m[0], "", 1))
}

// chunkText slices text into overlapping windows of roughly size bytes.
func chunkText(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if size <= 0 || len(text) <= size {
		return []string{text}
	}
	if overlap >= size {
		overlap = size / 2
	}

	step := size - overlap
	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + size
		if end >= len(text) {
			chunks = append(chunks, strings.TrimSpace(text[start:]))
			break
		}
		chunks = append(chunks, strings.TrimSpace(text[start:end]))
	}
	return chunks
}
