package blog

import "time"

// Post is a blog entry owned by a single author.
type Post struct {
	ID          int64
	AuthorID    int64
	Title       string
	Description string
	CreatedAt   time.Time
	EditedAt    *time.Time
}

// Draft carries the author-editable fields of a post.
type Draft struct {
	Title       string
	Description string
}
