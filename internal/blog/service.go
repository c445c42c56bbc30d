package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// ErrInvalidPost wraps field validation failures.
var ErrInvalidPost = errors.New("invalid blog post")

// Service implements per-author CRUD over posts. Posts belonging to other
// authors are indistinguishable from missing ones.
type Service struct {
	repo Repository
}

// NewService creates a blog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the author's posts, newest first.
func (s *Service) List(ctx context.Context, authorID int64) ([]Post, error) {
	return s.repo.ListByAuthor(ctx, authorID)
}

// Create stores a new post for the author. Titles are unique per author.
func (s *Service) Create(ctx context.Context, authorID int64, draft Draft) (Post, error) {
	draft, err := normalize(draft)
	if err != nil {
		return Post{}, err
	}
	if _, err := s.repo.FindByTitle(ctx, authorID, draft.Title); err == nil {
		return Post{}, ErrDuplicateTitle
	} else if !errors.Is(err, ErrNotFound) {
		return Post{}, fmt.Errorf("lookup title: %w", err)
	}
	return s.repo.Create(ctx, Post{AuthorID: authorID, Title: draft.Title, Description: draft.Description})
}

// Get returns one of the author's posts.
func (s *Service) Get(ctx context.Context, authorID, id int64) (Post, error) {
	post, err := s.repo.Get(ctx, id)
	if err != nil {
		return Post{}, err
	}
	if post.AuthorID != authorID {
		return Post{}, ErrNotFound
	}
	return post, nil
}

// Update replaces the title and description of one of the author's posts.
func (s *Service) Update(ctx context.Context, authorID, id int64, draft Draft) (Post, error) {
	draft, err := normalize(draft)
	if err != nil {
		return Post{}, err
	}
	post, err := s.Get(ctx, authorID, id)
	if err != nil {
		return Post{}, err
	}
	if existing, err := s.repo.FindByTitle(ctx, authorID, draft.Title); err == nil && existing.ID != id {
		return Post{}, ErrDuplicateTitle
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return Post{}, fmt.Errorf("lookup title: %w", err)
	}
	post.Title = draft.Title
	post.Description = draft.Description
	return s.repo.Update(ctx, post)
}

// Delete removes one of the author's posts.
func (s *Service) Delete(ctx context.Context, authorID, id int64) error {
	if _, err := s.Get(ctx, authorID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func normalize(d Draft) (Draft, error) {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	if err := validation.ValidateStruct(&d,
		validation.Field(&d.Title, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&d.Description, validation.Required, validation.RuneLength(1, 20000)),
	); err != nil {
		return Draft{}, fmt.Errorf("%w: %s", ErrInvalidPost, err.Error())
	}
	return d, nil
}
