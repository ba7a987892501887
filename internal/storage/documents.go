package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/specs"
)

// documentNamespace seeds the name-based ids of stored documents, so the
// same model number maps to the same id in every database.
var documentNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("spherical.ai/spec-documents"))

// DocumentID returns the stable id of a model number.
func DocumentID(modelNumber string) uuid.UUID {
	return uuid.NewSHA1(documentNamespace, []byte(modelNumber))
}

// DocumentSummary describes a stored document without decoding it.
type DocumentSummary struct {
	ID          uuid.UUID `json:"id"`
	ModelNumber string    `json:"model_number"`
	SourceHash  string    `json:"source_hash"`
	SpecCount   int       `json:"spec_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StoredDocument is a stored document with its decoded tree.
type StoredDocument struct {
	DocumentSummary
	Document *specs.Document `json:"document"`
}

// DocumentRepository handles specification document CRUD operations.
type DocumentRepository struct {
	db DB
}

// NewDocumentRepository creates a new document repository.
func NewDocumentRepository(db DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Save inserts doc under modelNumber or replaces the stored one.
func (r *DocumentRepository) Save(ctx context.Context, modelNumber, sourceHash string, doc *specs.Document) (*DocumentSummary, error) {
	if modelNumber == "" {
		return nil, errors.New("save document: empty model number")
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document %s: %w", modelNumber, err)
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO spec_documents (id, model_number, source_hash, spec_count, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (model_number) DO UPDATE SET
			source_hash = excluded.source_hash,
			spec_count = excluded.spec_count,
			document = excluded.document,
			updated_at = excluded.updated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		DocumentID(modelNumber), modelNumber, sourceHash, doc.SpecificationCount(),
		string(body), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("save document %s: %w", modelNumber, err)
	}
	return r.summary(ctx, modelNumber)
}

func (r *DocumentRepository) summary(ctx context.Context, modelNumber string) (*DocumentSummary, error) {
	query := `
		SELECT id, model_number, source_hash, spec_count, created_at, updated_at
		FROM spec_documents WHERE model_number = $1
	`
	s := &DocumentSummary{}
	err := r.db.QueryRowContext(ctx, query, modelNumber).Scan(
		&s.ID, &s.ModelNumber, &s.SourceHash, &s.SpecCount, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// Get retrieves and decodes the document stored for modelNumber.
func (r *DocumentRepository) Get(ctx context.Context, modelNumber string) (*StoredDocument, error) {
	query := `
		SELECT id, model_number, source_hash, spec_count, document, created_at, updated_at
		FROM spec_documents WHERE model_number = $1
	`
	stored := &StoredDocument{}
	var body string
	err := r.db.QueryRowContext(ctx, query, modelNumber).Scan(
		&stored.ID, &stored.ModelNumber, &stored.SourceHash, &stored.SpecCount,
		&body, &stored.CreatedAt, &stored.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	doc := &specs.Document{}
	if err := json.Unmarshal([]byte(body), doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", modelNumber, err)
	}
	stored.Document = doc
	return stored, nil
}

// GetMany loads the documents of models. Models with no stored document are
// returned in missing, in the order given.
func (r *DocumentRepository) GetMany(ctx context.Context, models []string) (map[string]*specs.Document, []string, error) {
	docs := make(map[string]*specs.Document, len(models))
	var missing []string
	for _, m := range models {
		if _, ok := docs[m]; ok {
			continue
		}
		stored, err := r.Get(ctx, m)
		if errors.Is(err, ErrNotFound) {
			missing = append(missing, m)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		docs[m] = stored.Document
	}
	return docs, missing, nil
}

// List returns summaries of all stored documents ordered by model number.
func (r *DocumentRepository) List(ctx context.Context) ([]DocumentSummary, error) {
	query := `
		SELECT id, model_number, source_hash, spec_count, created_at, updated_at
		FROM spec_documents ORDER BY model_number
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DocumentSummary
	for rows.Next() {
		var s DocumentSummary
		if err := rows.Scan(&s.ID, &s.ModelNumber, &s.SourceHash, &s.SpecCount, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes the document stored for modelNumber.
func (r *DocumentRepository) Delete(ctx context.Context, modelNumber string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM spec_documents WHERE model_number = $1`, modelNumber)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
