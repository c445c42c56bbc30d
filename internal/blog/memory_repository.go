package blog

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	posts  map[int64]Post
	now    func() time.Time
}

// NewMemoryRepository constructs an in-memory repository for tests and local development.
func NewMemoryRepository() Repository {
	return &memoryRepository{posts: make(map[int64]Post), now: time.Now}
}

func (r *memoryRepository) Create(_ context.Context, post Post) (Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.titleTaken(post.AuthorID, post.Title, 0) {
		return Post{}, ErrDuplicateTitle
	}
	r.nextID++
	post.ID = r.nextID
	post.CreatedAt = r.now().UTC()
	post.EditedAt = nil
	r.posts[post.ID] = post
	return post, nil
}

func (r *memoryRepository) ListByAuthor(_ context.Context, authorID int64) ([]Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	posts := make([]Post, 0)
	for _, p := range r.posts {
		if p.AuthorID == authorID {
			posts = append(posts, p)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

func (r *memoryRepository) Get(_ context.Context, id int64) (Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	post, ok := r.posts[id]
	if !ok {
		return Post{}, ErrNotFound
	}
	return post, nil
}

func (r *memoryRepository) FindByTitle(_ context.Context, authorID int64, title string) (Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.posts {
		if p.AuthorID == authorID && p.Title == title {
			return p, nil
		}
	}
	return Post{}, ErrNotFound
}

func (r *memoryRepository) Update(_ context.Context, post Post) (Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.posts[post.ID]
	if !ok {
		return Post{}, ErrNotFound
	}
	if r.titleTaken(existing.AuthorID, post.Title, post.ID) {
		return Post{}, ErrDuplicateTitle
	}
	edited := r.now().UTC()
	existing.Title = post.Title
	existing.Description = post.Description
	existing.EditedAt = &edited
	r.posts[post.ID] = existing
	return existing, nil
}

func (r *memoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *memoryRepository) titleTaken(authorID int64, title string, exceptID int64) bool {
	for id, p := range r.posts {
		if id != exceptID && p.AuthorID == authorID && p.Title == title {
			return true
		}
	}
	return false
}
