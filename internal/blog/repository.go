package blog

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	uniqueViolation       = "23505"
	authorTitleConstraint = "blogs_author_id_title_key"
)

var (
	// ErrNotFound is returned when no post matches.
	ErrNotFound = errors.New("blog post not found")
	// ErrDuplicateTitle is returned when an author already has a post with the same title.
	ErrDuplicateTitle = errors.New("this blog title exists")
)

// Repository persists blog posts.
type Repository interface {
	Create(ctx context.Context, post Post) (Post, error)
	ListByAuthor(ctx context.Context, authorID int64) ([]Post, error)
	Get(ctx context.Context, id int64) (Post, error)
	FindByTitle(ctx context.Context, authorID int64, title string) (Post, error)
	Update(ctx context.Context, post Post) (Post, error)
	Delete(ctx context.Context, id int64) error
}

// PostgresRepository stores posts in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const postColumns = `id, author_id, title, description, created_date, edit_date`

// Create inserts a post and returns it with its identifier and timestamps.
func (r *PostgresRepository) Create(ctx context.Context, post Post) (Post, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO blogs (author_id, title, description)
        VALUES ($1, $2, $3)
        RETURNING `+postColumns, post.AuthorID, post.Title, post.Description)
	created, err := scanPost(row)
	if err != nil {
		return Post{}, translateWriteError(err)
	}
	return created, nil
}

// ListByAuthor returns the author's posts, newest first.
func (r *PostgresRepository) ListByAuthor(ctx context.Context, authorID int64) ([]Post, error) {
	rows, err := r.db.Query(ctx, `SELECT `+postColumns+` FROM blogs
        WHERE author_id = $1 ORDER BY created_date DESC, id DESC`, authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// Get fetches a post by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (Post, error) {
	return scanPost(r.db.QueryRow(ctx, `SELECT `+postColumns+` FROM blogs WHERE id = $1`, id))
}

// FindByTitle fetches an author's post by exact title.
func (r *PostgresRepository) FindByTitle(ctx context.Context, authorID int64, title string) (Post, error) {
	return scanPost(r.db.QueryRow(ctx, `SELECT `+postColumns+` FROM blogs WHERE author_id = $1 AND title = $2`, authorID, title))
}

// Update rewrites the title and description and stamps the edit time.
func (r *PostgresRepository) Update(ctx context.Context, post Post) (Post, error) {
	row := r.db.QueryRow(ctx, `UPDATE blogs SET title = $1, description = $2, edit_date = now()
        WHERE id = $3
        RETURNING `+postColumns, post.Title, post.Description, post.ID)
	updated, err := scanPost(row)
	if err != nil {
		return Post{}, translateWriteError(err)
	}
	return updated, nil
}

// Delete removes a post.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM blogs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPost(row pgx.Row) (Post, error) {
	var (
		post     Post
		editedAt *time.Time
	)
	err := row.Scan(&post.ID, &post.AuthorID, &post.Title, &post.Description, &post.CreatedAt, &editedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, err
	}
	post.CreatedAt = post.CreatedAt.UTC()
	if editedAt != nil {
		t := editedAt.UTC()
		post.EditedAt = &t
	}
	return post, nil
}

func translateWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == authorTitleConstraint {
		return ErrDuplicateTitle
	}
	return err
}
