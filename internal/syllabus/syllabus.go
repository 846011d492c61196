// Package syllabus stores uploaded syllabus documents and serves keyword
// retrieval over their pages for generation grounding and search.
package syllabus

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"eduassist/internal/fileutil"
	"eduassist/internal/logging"
	"eduassist/internal/records"
	"eduassist/internal/services"
	"eduassist/internal/textutil"
)

// DefaultGroundingChars caps the grounding context inlined into prompts.
const DefaultGroundingChars = 2000

// textChunkSize is the synthetic page size for plain text and markdown
// uploads that carry no form feeds.
const textChunkSize = 2400

// Service owns syllabus storage and retrieval.
type Service struct {
	store  *records.Store
	dir    string
	logger *slog.Logger
}

// NewService builds a syllabus service storing files under dir.
func NewService(store *records.Store, dir string, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		dir:    dir,
		logger: logging.NewComponentLogger(logger, "syllabus"),
	}
}

// Upload persists an uploaded document, extracts its pages, and records them.
// PDF files get per-page extraction; anything else is chunked as text.
func (s *Service) Upload(ctx context.Context, filename, subject string, data []byte) (*records.SyllabusDoc, error) {
	filename = textutil.SanitizeFileName(filename)
	if filename == "" {
		return nil, services.Wrap(services.ErrValidation, "syllabus", "upload", "filename is required", nil)
	}
	if len(data) == 0 {
		return nil, services.Wrap(services.ErrValidation, "syllabus", "upload", "uploaded file is empty", nil)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "syllabus", "upload", "cannot create syllabus directory", err)
	}
	path := fileutil.UniquePath(filepath.Join(s.dir, filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, services.Wrap(services.ErrTransient, "syllabus", "upload", "cannot write syllabus file", err)
	}

	var pages []string
	var err error
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		pages, err = extractPDFPages(path)
	} else {
		pages = ChunkText(string(data))
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	if len(pages) == 0 {
		_ = os.Remove(path)
		return nil, services.Wrap(services.ErrValidation, "syllabus", "upload",
			"no text could be extracted from the document", nil)
	}

	doc := records.SyllabusDoc{
		ID:         uuid.NewString(),
		Subject:    strings.TrimSpace(subject),
		Filename:   filepath.Base(path),
		Path:       path,
		UploadedAt: time.Now(),
	}
	if err := s.store.AddSyllabusDoc(ctx, doc, pages); err != nil {
		_ = os.Remove(path)
		return nil, services.Wrap(services.ErrTransient, "syllabus", "upload", "cannot record syllabus document", err)
	}
	doc.Pages = len(pages)

	s.logger.Info("syllabus document stored",
		logging.String("doc_id", doc.ID),
		logging.String("filename", doc.Filename),
		logging.Int("pages", doc.Pages),
	)
	return &doc, nil
}

// extractPDFPages pulls plain text per page. Pages that fail extraction
// contribute empty text rather than failing the upload.
func extractPDFPages(path string) ([]string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "syllabus", "extract",
			"cannot read PDF; it may be corrupted or encrypted", err)
	}
	defer file.Close()

	total := reader.NumPage()
	if total == 0 {
		return nil, services.Wrap(services.ErrValidation, "syllabus", "extract", "PDF has no pages", nil)
	}

	pages := make([]string, 0, total)
	extracted := false
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		text = strings.TrimSpace(text)
		if text != "" {
			extracted = true
		}
		pages = append(pages, text)
	}
	if !extracted {
		return nil, services.Wrap(services.ErrValidation, "syllabus", "extract",
			"PDF has no text layer; convert the scanned document to a text-based PDF first", nil)
	}
	return pages, nil
}

// ChunkText splits plain text into pages: on form feeds when present,
// otherwise into fixed-size chunks on line boundaries.
func ChunkText(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.Contains(text, "\f") {
		var pages []string
		for _, chunk := range strings.Split(text, "\f") {
			if chunk = strings.TrimSpace(chunk); chunk != "" {
				pages = append(pages, chunk)
			}
		}
		return pages
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	var pages []string
	var current strings.Builder
	for _, line := range strings.Split(trimmed, "\n") {
		if current.Len() > 0 && current.Len()+len(line)+1 > textChunkSize {
			pages = append(pages, strings.TrimSpace(current.String()))
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	if chunk := strings.TrimSpace(current.String()); chunk != "" {
		pages = append(pages, chunk)
	}
	return pages
}

// PageMatch is one scored page from a retrieval query.
type PageMatch struct {
	PageNo  int    `json:"page_no"`
	Score   int    `json:"score"`
	Snippet string `json:"snippet"`
}

// Search scores a document's pages against the query and returns the top
// limit matches, best first.
func (s *Service) Search(ctx context.Context, docID, query string, limit int) ([]PageMatch, error) {
	scored, err := s.scorePages(ctx, docID, query)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	matches := make([]PageMatch, 0, len(scored))
	for _, page := range scored {
		matches = append(matches, PageMatch{
			PageNo:  page.no,
			Score:   page.score,
			Snippet: snippet(page.text, 240),
		})
	}
	return matches, nil
}

// Grounding renders the top-scored pages as "[Page N]" snippets within the
// maxChars budget, for inlining into generation prompts. Returns "" when
// nothing matches.
func (s *Service) Grounding(ctx context.Context, docID, query string, maxChars int) (string, error) {
	if maxChars <= 0 {
		maxChars = DefaultGroundingChars
	}
	scored, err := s.scorePages(ctx, docID, query)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, page := range scored {
		addition := fmt.Sprintf("\n\n[Page %d]\n%s", page.no, page.text)
		if b.Len() == 0 {
			addition = strings.TrimPrefix(addition, "\n\n")
		}
		if b.Len()+len(addition) > maxChars {
			remaining := maxChars - b.Len()
			if remaining <= 0 {
				break
			}
			b.WriteString(addition[:remaining])
			break
		}
		b.WriteString(addition)
	}
	return strings.TrimSpace(b.String()), nil
}

type scoredPage struct {
	no    int
	score int
	text  string
}

// scorePages scores every page of a doc by summed term frequency of the
// query terms and returns matching pages best first.
func (s *Service) scorePages(ctx context.Context, docID, query string) ([]scoredPage, error) {
	doc, err := s.store.GetSyllabusDoc(ctx, docID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "syllabus", "retrieve", "cannot load syllabus document", err)
	}
	if doc == nil {
		return nil, services.Wrap(services.ErrNotFound, "syllabus", "retrieve",
			fmt.Sprintf("syllabus document %s not found", docID), nil)
	}

	terms := textutil.Tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	pages, err := s.store.ListSyllabusPages(ctx, docID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "syllabus", "retrieve", "cannot load syllabus pages", err)
	}

	var scored []scoredPage
	for _, page := range pages {
		freqs := textutil.TermFrequencies(page.Text)
		if freqs == nil {
			continue
		}
		score := 0
		for _, term := range terms {
			score += freqs[term]
		}
		if score > 0 {
			scored = append(scored, scoredPage{no: page.PageNo, score: score, text: strings.TrimSpace(page.Text)})
		}
	}
	sortScored(scored)
	return scored, nil
}

// sortScored orders by score descending, page number ascending for ties.
func sortScored(pages []scoredPage) {
	sort.Slice(pages, func(i, j int) bool {
		if pages[i].score != pages[j].score {
			return pages[i].score > pages[j].score
		}
		return pages[i].no < pages[j].no
	})
}

// snippet flattens and truncates page text for search results.
func snippet(text string, limit int) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return flat
}
