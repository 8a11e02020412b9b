package postgres

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
		INSERT INTO posts (id, user_id, content, is_anonymous, created_at) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.UserID, p.Content, p.IsAnonymous, p.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to add post: %w", err)
	}
	return nil
}

func (s *Store) GetPost(ctx context.Context, id string) (models.Post, error) {
	var p models.Post
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, content, is_anonymous, created_at FROM posts WHERE id = $1`, id).
		Scan(&p.ID, &p.UserID, &p.Content, &p.IsAnonymous, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Post{}, fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
	}
	return p, err
}

func (s *Store) ListPostIDs(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, `SELECT id FROM posts ORDER BY created_at`)
}

func (s *Store) InsertLike(ctx context.Context, postID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO post_likes (id, post_id, user_id, created_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (post_id, user_id) DO NOTHING`,
		uuid.New().String(), postID, userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert like: %w", err)
	}
	return nil
}

func (s *Store) DeleteLike(ctx context.Context, postID, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID); err != nil {
		return fmt.Errorf("failed to delete like: %w", err)
	}
	return nil
}

func (s *Store) HasLike(ctx context.Context, postID, userID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM post_likes WHERE post_id = $1 AND user_id = $2)`, postID, userID).Scan(&exists)
	return exists, err
}

func (s *Store) CountLikes(ctx context.Context, postID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM post_likes WHERE post_id = $1`, postID).Scan(&n)
	return n, err
}

func (s *Store) ListLikers(ctx context.Context, postID string) ([]string, error) {
	return s.queryStrings(ctx, `SELECT user_id FROM post_likes WHERE post_id = $1 ORDER BY user_id`, postID)
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
		if err := rows.Scan(&l.ID, &l.PostID, &l.UserID, &l.CreatedAt); err != nil {
			return nil, err
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
		INSERT INTO comments (id, post_id, user_id, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.PostID, c.UserID, c.Content, c.CreatedAt.UTC())
	if err != nil {
		return "", fmt.Errorf("failed to insert comment: %w", err)
	}
	return c.ID, nil
}

func (s *Store) DeleteComment(ctx context.Context, id string) (models.Comment, error) {
	var c models.Comment
	err := s.db.QueryRowContext(ctx, `
		DELETE FROM comments WHERE id = $1
		RETURNING id, post_id, user_id, content, created_at`, id).
		Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Comment{}, fmt.Errorf("comment %s: %w", id, storage.ErrNotFound)
	}
	return c, err
}

func (s *Store) CountComments(ctx context.Context, postID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE post_id = $1`, postID).Scan(&n)
	return n, err
}

func (s *Store) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, post_id, user_id, content, created_at FROM comments
		WHERE post_id = $1 ORDER BY created_at`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
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
