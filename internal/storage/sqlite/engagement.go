package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/sovereign/internal/models"
	"github.com/julianstephens/sovereign/internal/storage"
)

func (s *Store) AddPost(ctx context.Context, p models.Post) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (id, user_id, content, is_anonymous, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Content, boolToInt(p.IsAnonymous), storage.FormatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to add post: %w", err)
	}
	return nil
}

func (s *Store) GetPost(ctx context.Context, id string) (models.Post, error) {
	var p models.Post
	var anon int
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, content, is_anonymous, created_at FROM posts WHERE id = ?`, id).
		Scan(&p.ID, &p.UserID, &p.Content, &anon, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Post{}, fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return models.Post{}, err
	}
	p.IsAnonymous = anon != 0
	if p.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return models.Post{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return p, nil
}

func (s *Store) ListPostIDs(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, `SELECT id FROM posts ORDER BY created_at`)
}

func (s *Store) InsertLike(ctx context.Context, postID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO post_likes (id, post_id, user_id, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (post_id, user_id) DO NOTHING`,
		uuid.New().String(), postID, userID, storage.FormatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to insert like: %w", err)
	}
	return nil
}

func (s *Store) DeleteLike(ctx context.Context, postID, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM post_likes WHERE post_id = ? AND user_id = ?`, postID, userID); err != nil {
		return fmt.Errorf("failed to delete like: %w", err)
	}
	return nil
}

func (s *Store) HasLike(ctx context.Context, postID, userID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM post_likes WHERE post_id = ? AND user_id = ?`, postID, userID).Scan(&n)
	return n > 0, err
}

func (s *Store) CountLikes(ctx context.Context, postID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM post_likes WHERE post_id = ?`, postID).Scan(&n)
	return n, err
}

func (s *Store) ListLikers(ctx context.Context, postID string) ([]string, error) {
	return s.queryStrings(ctx, `SELECT user_id FROM post_likes WHERE post_id = ? ORDER BY user_id`, postID)
}

func (s *Store) ListLikes(ctx context.Context) ([]models.Like, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, post_id, user_id, created_at FROM post_likes`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var likes []models.Like
	for rows.Next() {
		var l models.Like
		var createdAt string
		if err := rows.Scan(&l.ID, &l.PostID, &l.UserID, &createdAt); err != nil {
			return nil, err
		}
		if l.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		likes = append(likes, l)
	}
	return likes, rows.Err()
}

func (s *Store) InsertComment(ctx context.Context, c models.Comment) (string, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, post_id, user_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.PostID, c.UserID, c.Content, storage.FormatTime(c.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("failed to insert comment: %w", err)
	}
	return c.ID, nil
}

// DeleteComment removes a comment and returns it, so callers know which
// post's counter to resync.
func (s *Store) DeleteComment(ctx context.Context, id string) (models.Comment, error) {
	comments, err := s.listComments(ctx, `WHERE id = ?`, id)
	if err != nil {
		return models.Comment{}, err
	}
	if len(comments) == 0 {
		return models.Comment{}, fmt.Errorf("comment %s: %w", id, storage.ErrNotFound)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id); err != nil {
		return models.Comment{}, fmt.Errorf("failed to delete comment: %w", err)
	}
	return comments[0], nil
}

func (s *Store) CountComments(ctx context.Context, postID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE post_id = ?`, postID).Scan(&n)
	return n, err
}

func (s *Store) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	return s.listComments(ctx, `WHERE post_id = ? ORDER BY created_at`, postID)
}

func (s *Store) listComments(ctx context.Context, where string, args ...interface{}) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, post_id, user_id, content, created_at FROM comments `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		var createdAt string
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &createdAt); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *Store) queryStrings(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
