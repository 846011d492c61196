package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AddSyllabusDoc stores a syllabus document and its extracted pages in one
// transaction. The doc's Pages count is set from the page slice.
func (s *Store) AddSyllabusDoc(ctx context.Context, doc SyllabusDoc, pages []string) error {
	if strings.TrimSpace(doc.ID) == "" {
		return errors.New("syllabus doc id is required")
	}
	if strings.TrimSpace(doc.Filename) == "" {
		return errors.New("syllabus doc filename is required")
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin syllabus tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO syllabus_docs (id, subject, filename, path, pages, uploaded_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ID,
		strings.TrimSpace(doc.Subject),
		doc.Filename,
		doc.Path,
		len(pages),
		formatTime(doc.UploadedAt),
	); err != nil {
		return fmt.Errorf("insert syllabus doc: %w", err)
	}

	for i, text := range pages {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO syllabus_pages (doc_id, page_no, text) VALUES (?, ?, ?)`,
			doc.ID, i+1, text); err != nil {
			return fmt.Errorf("insert syllabus page %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit syllabus tx: %w", err)
	}
	return nil
}

// GetSyllabusDoc fetches a syllabus document by id. Returns nil when absent.
func (s *Store) GetSyllabusDoc(ctx context.Context, id string) (*SyllabusDoc, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, subject, filename, path, pages, uploaded_at FROM syllabus_docs WHERE id = ?`,
		strings.TrimSpace(id))
	var doc SyllabusDoc
	var uploadedRaw string
	err := row.Scan(&doc.ID, &doc.Subject, &doc.Filename, &doc.Path, &doc.Pages, &uploadedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get syllabus doc: %w", err)
	}
	doc.UploadedAt = parseTime(uploadedRaw)
	return &doc, nil
}

// ListSyllabusDocs returns all syllabus documents, newest first.
func (s *Store) ListSyllabusDocs(ctx context.Context) ([]SyllabusDoc, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, subject, filename, path, pages, uploaded_at
         FROM syllabus_docs ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list syllabus docs: %w", err)
	}
	defer rows.Close()

	var out []SyllabusDoc
	for rows.Next() {
		var doc SyllabusDoc
		var uploadedRaw string
		if err := rows.Scan(&doc.ID, &doc.Subject, &doc.Filename, &doc.Path, &doc.Pages, &uploadedRaw); err != nil {
			return nil, err
		}
		doc.UploadedAt = parseTime(uploadedRaw)
		out = append(out, doc)
	}
	return out, rows.Err()
}

// ListSyllabusPages returns a document's pages in order.
func (s *Store) ListSyllabusPages(ctx context.Context, docID string) ([]SyllabusPage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc_id, page_no, text FROM syllabus_pages WHERE doc_id = ? ORDER BY page_no`,
		strings.TrimSpace(docID))
	if err != nil {
		return nil, fmt.Errorf("list syllabus pages: %w", err)
	}
	defer rows.Close()

	var out []SyllabusPage
	for rows.Next() {
		var page SyllabusPage
		if err := rows.Scan(&page.DocID, &page.PageNo, &page.Text); err != nil {
			return nil, err
		}
		out = append(out, page)
	}
	return out, rows.Err()
}
