package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"oci-registry-service/internal/core/domain"
	output "oci-registry-service/internal/core/ports/output"
	"oci-registry-service/pkg/image"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

type metadataRepo struct {
	pool *pgxpool.Pool
}

// NewMetadataRepository creates a new MetadataRepository
func NewMetadataRepository(pool *pgxpool.Pool) output.MetadataRepository {
	return &metadataRepo{pool: pool}
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// ============================================================================
// Repositories
// ============================================================================

func (r *metadataRepo) CreateRepository(ctx context.Context, repo *domain.Repository) error {
	query := `
		INSERT INTO repository (id, name, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.pool.Exec(ctx, query, repo.ID, repo.Name, repo.CreatedAt)
	if err != nil {
		if pgCode(err) == uniqueViolation {
			return domain.ErrRepositoryExists
		}
		return fmt.Errorf("create repository: %w", err)
	}
	return nil
}

func (r *metadataRepo) GetRepository(ctx context.Context, name string) (*domain.Repository, error) {
	query := `SELECT id, name, created_at FROM repository WHERE name = $1`

	repo := &domain.Repository{}
	err := r.pool.QueryRow(ctx, query, name).Scan(&repo.ID, &repo.Name, &repo.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRepositoryNotFound
		}
		return nil, fmt.Errorf("get repository: %w", err)
	}
	return repo, nil
}

func (r *metadataRepo) ListRepositories(ctx context.Context, filter output.PageFilter) ([]string, error) {
	query := `
		SELECT name FROM repository
		WHERE name > $1
		ORDER BY name
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, filter.Last, filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("iterate repository rows: %w", err)
	}
	return names, nil
}

// ============================================================================
// Manifests
// ============================================================================

// PutManifest is idempotent: pushing the same digest again refreshes the
// stored row.
func (r *metadataRepo) PutManifest(ctx context.Context, m *domain.Manifest) error {
	annotationsJSON, err := json.Marshal(m.Annotations)
	if err != nil {
		return fmt.Errorf("marshal annotations: %w", err)
	}

	var subject *string
	if m.Subject != nil {
		s := m.Subject.String()
		subject = &s
	}

	query := `
		INSERT INTO manifest
			(repository, digest, media_type, size, content, artifact_type, subject, annotations, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (repository, digest) DO UPDATE SET
			media_type = EXCLUDED.media_type,
			artifact_type = EXCLUDED.artifact_type,
			subject = EXCLUDED.subject,
			annotations = EXCLUDED.annotations
	`

	_, err = r.pool.Exec(ctx, query,
		m.Repository, m.Digest.String(), string(m.MediaType), m.Size, m.Content,
		string(m.ArtifactType), subject, annotationsJSON, m.CreatedAt,
	)
	if err != nil {
		if pgCode(err) == foreignKeyViolation {
			return domain.ErrRepositoryNotFound
		}
		return fmt.Errorf("put manifest: %w", err)
	}
	return nil
}

func (r *metadataRepo) GetManifest(ctx context.Context, repository string, digest image.Digest) (*domain.Manifest, error) {
	query := `
		SELECT repository, digest, media_type, size, content, artifact_type, subject, annotations, created_at
		FROM manifest
		WHERE repository = $1 AND digest = $2
	`

	m, err := scanManifest(r.pool.QueryRow(ctx, query, repository, digest.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrManifestNotFound
		}
		return nil, fmt.Errorf("get manifest: %w", err)
	}
	return m, nil
}

// DeleteManifest also drops every tag pointing at the manifest.
func (r *metadataRepo) DeleteManifest(ctx context.Context, repository string, digest image.Digest) error {
	query := `DELETE FROM manifest WHERE repository = $1 AND digest = $2`

	result, err := r.pool.Exec(ctx, query, repository, digest.String())
	if err != nil {
		return fmt.Errorf("delete manifest: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrManifestNotFound
	}
	return nil
}

func (r *metadataRepo) ListReferrers(ctx context.Context, filter output.ReferrerFilter) ([]*domain.Manifest, error) {
	query := `
		SELECT repository, digest, media_type, size, content, artifact_type, subject, annotations, created_at
		FROM manifest
		WHERE repository = $1 AND subject = $2 AND ($3 = '' OR artifact_type = $3)
		ORDER BY digest
	`

	rows, err := r.pool.Query(ctx, query, filter.Repository, filter.Subject.String(), string(filter.ArtifactType))
	if err != nil {
		return nil, fmt.Errorf("list referrers: %w", err)
	}
	defer rows.Close()

	var manifests []*domain.Manifest
	for rows.Next() {
		m, err := scanManifest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan manifest row: %w", err)
		}
		manifests = append(manifests, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate manifest rows: %w", err)
	}
	return manifests, nil
}

func scanManifest(row pgx.Row) (*domain.Manifest, error) {
	m := &domain.Manifest{}
	var digest, mediaType, artifactType string
	var subject *string
	var annotationsJSON []byte

	err := row.Scan(
		&m.Repository, &digest, &mediaType, &m.Size, &m.Content,
		&artifactType, &subject, &annotationsJSON, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.MediaType = image.MediaType(mediaType)
	m.ArtifactType = image.MediaType(artifactType)
	if m.Digest, err = image.ParseDigest(digest); err != nil {
		return nil, fmt.Errorf("parse stored digest: %w", err)
	}
	if subject != nil {
		d, err := image.ParseDigest(*subject)
		if err != nil {
			return nil, fmt.Errorf("parse stored subject: %w", err)
		}
		m.Subject = &d
	}
	if len(annotationsJSON) > 0 {
		if err := json.Unmarshal(annotationsJSON, &m.Annotations); err != nil {
			return nil, fmt.Errorf("unmarshal annotations: %w", err)
		}
	}
	return m, nil
}

// ============================================================================
// Tags
// ============================================================================

func (r *metadataRepo) PutTag(ctx context.Context, tag *domain.Tag) error {
	query := `
		INSERT INTO tag (repository, name, digest, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (repository, name) DO UPDATE SET
			digest = EXCLUDED.digest,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query, tag.Repository, tag.Name, tag.Digest.String(), tag.UpdatedAt)
	if err != nil {
		if pgCode(err) == foreignKeyViolation {
			return domain.ErrManifestNotFound
		}
		return fmt.Errorf("put tag: %w", err)
	}
	return nil
}

func (r *metadataRepo) GetTag(ctx context.Context, repository, name string) (*domain.Tag, error) {
	query := `SELECT repository, name, digest, updated_at FROM tag WHERE repository = $1 AND name = $2`

	tag := &domain.Tag{}
	var digest string
	err := r.pool.QueryRow(ctx, query, repository, name).Scan(&tag.Repository, &tag.Name, &digest, &tag.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTagNotFound
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}
	if tag.Digest, err = image.ParseDigest(digest); err != nil {
		return nil, fmt.Errorf("parse stored digest: %w", err)
	}
	return tag, nil
}

func (r *metadataRepo) DeleteTag(ctx context.Context, repository, name string) error {
	query := `DELETE FROM tag WHERE repository = $1 AND name = $2`

	result, err := r.pool.Exec(ctx, query, repository, name)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrTagNotFound
	}
	return nil
}

func (r *metadataRepo) ListTags(ctx context.Context, repository string, filter output.PageFilter) ([]string, error) {
	query := `
		SELECT name FROM tag
		WHERE repository = $1 AND name > $2
		ORDER BY name
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, repository, filter.Last, filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("iterate tag rows: %w", err)
	}
	return names, nil
}

func (r *metadataRepo) ListTagsByDigest(ctx context.Context, repository string, digest image.Digest) ([]string, error) {
	query := `SELECT name FROM tag WHERE repository = $1 AND digest = $2 ORDER BY name`

	rows, err := r.pool.Query(ctx, query, repository, digest.String())
	if err != nil {
		return nil, fmt.Errorf("list tags by digest: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("iterate tag rows: %w", err)
	}
	return names, nil
}

// ============================================================================
// Blob links
// ============================================================================

func (r *metadataRepo) LinkBlob(ctx context.Context, repository string, digest image.Digest) error {
	query := `
		INSERT INTO repository_blob (repository, digest)
		VALUES ($1, $2)
		ON CONFLICT (repository, digest) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query, repository, digest.String())
	if err != nil {
		if pgCode(err) == foreignKeyViolation {
			return domain.ErrRepositoryNotFound
		}
		return fmt.Errorf("link blob: %w", err)
	}
	return nil
}

func (r *metadataRepo) HasBlob(ctx context.Context, repository string, digest image.Digest) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM repository_blob WHERE repository = $1 AND digest = $2)`

	var linked bool
	if err := r.pool.QueryRow(ctx, query, repository, digest.String()).Scan(&linked); err != nil {
		return false, fmt.Errorf("check blob link: %w", err)
	}
	return linked, nil
}

func (r *metadataRepo) UnlinkBlob(ctx context.Context, repository string, digest image.Digest) error {
	query := `DELETE FROM repository_blob WHERE repository = $1 AND digest = $2`

	result, err := r.pool.Exec(ctx, query, repository, digest.String())
	if err != nil {
		return fmt.Errorf("unlink blob: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrBlobNotFound
	}
	return nil
}

func (r *metadataRepo) CountBlobLinks(ctx context.Context, digest image.Digest) (int, error) {
	query := `SELECT count(*) FROM repository_blob WHERE digest = $1`

	var n int
	if err := r.pool.QueryRow(ctx, query, digest.String()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count blob links: %w", err)
	}
	return n, nil
}

// ============================================================================
// Upload sessions
// ============================================================================

func (r *metadataRepo) CreateUpload(ctx context.Context, upload *domain.Upload) error {
	query := `
		INSERT INTO upload (id, repository, byte_offset, started_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, upload.ID, upload.Repository, upload.Offset, upload.StartedAt)
	if err != nil {
		switch pgCode(err) {
		case uniqueViolation:
			return domain.ErrUploadInProgress
		case foreignKeyViolation:
			return domain.ErrRepositoryNotFound
		}
		return fmt.Errorf("create upload: %w", err)
	}
	return nil
}

func (r *metadataRepo) GetUpload(ctx context.Context, id uuid.UUID) (*domain.Upload, error) {
	query := `SELECT id, repository, byte_offset, started_at FROM upload WHERE id = $1`

	upload := &domain.Upload{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&upload.ID, &upload.Repository, &upload.Offset, &upload.StartedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUploadNotFound
		}
		return nil, fmt.Errorf("get upload: %w", err)
	}
	return upload, nil
}

func (r *metadataRepo) UpdateUpload(ctx context.Context, upload *domain.Upload) error {
	query := `UPDATE upload SET byte_offset = $2 WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, upload.ID, upload.Offset)
	if err != nil {
		return fmt.Errorf("update upload: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrUploadNotFound
	}
	return nil
}

func (r *metadataRepo) DeleteUpload(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM upload WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete upload: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrUploadNotFound
	}
	return nil
}
