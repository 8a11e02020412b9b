// Package engagement keeps like sets and like/comment counters of posts in
// the cache, in front of the relational store that remains the system of
// record.
package engagement

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/sovereign/internal/cache"
	"github.com/julianstephens/sovereign/internal/constants"
	"github.com/julianstephens/sovereign/internal/logger"
	"github.com/julianstephens/sovereign/internal/models"
	"github.com/julianstephens/sovereign/internal/storage"
)

// Counters answers like and comment queries from the cache, falling back to
// the relational store and repopulating the cache on a miss.
type Counters struct {
	store         storage.EngagementStore
	cache         *cache.Client
	countTTL      time.Duration
	membershipTTL time.Duration
}

// Option configures Counters.
type Option func(*Counters)

// WithCountTTL sets the lifetime of cached like and comment counts.
func WithCountTTL(ttl time.Duration) Option {
	return func(c *Counters) {
		if ttl > 0 {
			c.countTTL = ttl
		}
	}
}

// WithMembershipTTL sets the lifetime of like sets and per-user like flags.
func WithMembershipTTL(ttl time.Duration) Option {
	return func(c *Counters) {
		if ttl > 0 {
			c.membershipTTL = ttl
		}
	}
}

// NewCounters creates Counters over store. A nil cache client disables
// caching.
func NewCounters(store storage.EngagementStore, c *cache.Client, opts ...Option) *Counters {
	if c == nil {
		c = cache.NewClient(nil)
	}
	counters := &Counters{
		store:         store,
		cache:         c,
		countTTL:      constants.CountTTL,
		membershipTTL: constants.MembershipTTL,
	}
	for _, opt := range opts {
		opt(counters)
	}
	return counters
}

// IsLiked reports whether userID likes postID. A populated like set is
// authoritative. When the set is absent, or the cache cannot answer, the
// relational store decides and the set is seeded from it.
func (c *Counters) IsLiked(ctx context.Context, userID, postID string) (bool, error) {
	key := likesKey(postID)
	member, ok, err := c.cache.SIsMember(ctx, key, userID)
	if err != nil {
		return false, err
	}
	if ok && member {
		return true, nil
	}
	if ok {
		exists, answered, err := c.cache.Exists(ctx, key)
		if err != nil {
			return false, err
		}
		if answered && exists {
			return false, nil
		}
	}

	liked, err := c.store.HasLike(ctx, postID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}
	if ok {
		if err := c.seedLikes(ctx, postID); err != nil {
			return false, err
		}
	}
	return liked, nil
}

// seedLikes loads the like set of postID from the relational store.
func (c *Counters) seedLikes(ctx context.Context, postID string) error {
	likers, err := c.store.ListLikers(ctx, postID)
	if err != nil {
		return fmt.Errorf("failed to list likers: %w", err)
	}
	if len(likers) == 0 {
		return nil
	}
	key := likesKey(postID)
	if err := c.cache.SAdd(ctx, key, likers...); err != nil {
		return err
	}
	return c.cache.Expire(ctx, key, c.membershipTTL)
}

// GetLikeCount returns the number of likes on postID.
func (c *Counters) GetLikeCount(ctx context.Context, postID string) (int, error) {
	return c.cachedCount(ctx, likeCountKey(postID), func() (int, error) {
		return c.store.CountLikes(ctx, postID)
	})
}

// GetCommentCount returns the number of comments on postID.
func (c *Counters) GetCommentCount(ctx context.Context, postID string) (int, error) {
	return c.cachedCount(ctx, commentCountKey(postID), func() (int, error) {
		return c.store.CountComments(ctx, postID)
	})
}

func (c *Counters) cachedCount(ctx context.Context, key cache.Key, load func() (int, error)) (int, error) {
	n, ok, err := c.cache.GetInt(ctx, key)
	if err != nil {
		return 0, err
	}
	if ok && n >= 0 {
		return int(n), nil
	}

	count, err := load()
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", key, err)
	}
	if err := c.cache.SetInt(ctx, key, int64(count), c.countTTL); err != nil {
		return 0, err
	}
	return count, nil
}

// ToggleLike likes postID for userID, or removes the like if it exists. The
// cache is updated first so the caller's next read reflects the change; the
// relational write follows. If the relational write fails the cache changes
// are reverted and the error is returned.
func (c *Counters) ToggleLike(ctx context.Context, userID, postID string) (models.LikeResult, error) {
	for _, key := range toggleKeys(userID, postID) {
		if err := key.Validate(); err != nil {
			return models.LikeResult{}, err
		}
	}
	liked, err := c.IsLiked(ctx, userID, postID)
	if err != nil {
		return models.LikeResult{}, err
	}

	if liked {
		if err := c.cacheUnlike(ctx, userID, postID); err != nil {
			c.evict(ctx, userID, postID)
			return models.LikeResult{}, err
		}
		if err := c.store.DeleteLike(ctx, postID, userID); err != nil {
			c.revert(ctx, "unlike", userID, postID, c.cacheLike(ctx, userID, postID))
			return models.LikeResult{}, err
		}
	} else {
		if err := c.cacheLike(ctx, userID, postID); err != nil {
			c.evict(ctx, userID, postID)
			return models.LikeResult{}, err
		}
		if err := c.store.InsertLike(ctx, postID, userID); err != nil {
			c.revert(ctx, "like", userID, postID, c.cacheUnlike(ctx, userID, postID))
			return models.LikeResult{}, err
		}
	}

	count, err := c.GetLikeCount(ctx, postID)
	if err != nil {
		return models.LikeResult{}, err
	}
	logger.Debug("Toggled like", "post", postID, "user", userID, "liked", !liked, "count", count)
	return models.LikeResult{Liked: !liked, Count: count}, nil
}

func (c *Counters) revert(ctx context.Context, op, userID, postID string, err error) {
	if err != nil {
		logger.Error("Failed to revert cached like", "op", op, "post", postID, "error", err)
		c.evict(ctx, userID, postID)
	}
}

// evict drops every cached entry a toggle may have touched, so the next
// read reloads from the store.
func (c *Counters) evict(ctx context.Context, userID, postID string) {
	if _, err := c.cache.DeletePattern(ctx, PostPattern(postID)); err != nil {
		logger.Error("Failed to evict cached post", "post", postID, "error", err)
	}
	if err := c.cache.Delete(ctx, likedFlagKey(userID, postID)); err != nil {
		logger.Error("Failed to evict cached like flag", "post", postID, "user", userID, "error", err)
	}
}

func (c *Counters) cacheLike(ctx context.Context, userID, postID string) error {
	set := likesKey(postID)
	if err := c.cache.SAdd(ctx, set, userID); err != nil {
		return err
	}
	if err := c.cache.Expire(ctx, set, c.membershipTTL); err != nil {
		return err
	}
	if err := c.cache.SetWithTTL(ctx, likedFlagKey(userID, postID), []byte("1"), c.membershipTTL); err != nil {
		return err
	}
	return c.bump(ctx, likeCountKey(postID), 1)
}

func (c *Counters) cacheUnlike(ctx context.Context, userID, postID string) error {
	if err := c.cache.SRem(ctx, likesKey(postID), userID); err != nil {
		return err
	}
	if err := c.cache.Delete(ctx, likedFlagKey(userID, postID)); err != nil {
		return err
	}
	return c.bump(ctx, likeCountKey(postID), -1)
}

// bump adjusts an existing counter by delta, clamping at zero. A missing
// counter is left missing; the next read loads it from the store.
func (c *Counters) bump(ctx context.Context, key cache.Key, delta int) error {
	exists, ok, err := c.cache.Exists(ctx, key)
	if err != nil || !ok || !exists {
		return err
	}

	var n int64
	if delta > 0 {
		n, ok, err = c.cache.Incr(ctx, key)
	} else {
		n, ok, err = c.cache.Decr(ctx, key)
	}
	if err != nil || !ok {
		return err
	}
	if n < 0 {
		return c.cache.SetInt(ctx, key, 0, c.countTTL)
	}
	// The key may have expired between Exists and Incr.
	return c.cache.Expire(ctx, key, c.countTTL)
}

// IncrementCommentCount counts a new comment on postID. A missing counter is
// not created; it is loaded from the store on the next read.
func (c *Counters) IncrementCommentCount(ctx context.Context, postID string) error {
	return c.bump(ctx, commentCountKey(postID), 1)
}

// ResyncCommentCount resets the cached comment count of postID from the
// relational store. Deletions resync instead of decrementing.
func (c *Counters) ResyncCommentCount(ctx context.Context, postID string) (int, error) {
	count, err := c.store.CountComments(ctx, postID)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	if err := c.cache.SetInt(ctx, commentCountKey(postID), int64(count), c.countTTL); err != nil {
		return 0, err
	}
	return count, nil
}

// AddComment stores a comment and counts it.
func (c *Counters) AddComment(ctx context.Context, comment models.Comment) (string, error) {
	id, err := c.store.InsertComment(ctx, comment)
	if err != nil {
		return "", err
	}
	if err := c.IncrementCommentCount(ctx, comment.PostID); err != nil {
		return "", err
	}
	return id, nil
}

// DeleteComment removes a comment and resyncs its post's counter.
func (c *Counters) DeleteComment(ctx context.Context, id string) (models.Comment, error) {
	comment, err := c.store.DeleteComment(ctx, id)
	if err != nil {
		return models.Comment{}, err
	}
	if _, err := c.ResyncCommentCount(ctx, comment.PostID); err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}

// WarmStats reports what Warm loaded.
type WarmStats struct {
	Likes int
	Posts int
}

// Warm loads every like set and every post's like and comment counts into
// the cache.
func (c *Counters) Warm(ctx context.Context) (WarmStats, error) {
	var stats WarmStats

	likes, err := c.store.ListLikes(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list likes: %w", err)
	}
	byPost := make(map[string][]string)
	for _, l := range likes {
		byPost[l.PostID] = append(byPost[l.PostID], l.UserID)
	}
	for postID, users := range byPost {
		key := likesKey(postID)
		if err := c.cache.SAdd(ctx, key, users...); err != nil {
			return stats, err
		}
		if err := c.cache.Expire(ctx, key, c.membershipTTL); err != nil {
			return stats, err
		}
		for _, u := range users {
			if err := c.cache.SetWithTTL(ctx, likedFlagKey(u, postID), []byte("1"), c.membershipTTL); err != nil {
				return stats, err
			}
		}
	}
	stats.Likes = len(likes)

	postIDs, err := c.store.ListPostIDs(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list posts: %w", err)
	}
	for _, postID := range postIDs {
		if err := c.cache.SetInt(ctx, likeCountKey(postID), int64(len(byPost[postID])), c.countTTL); err != nil {
			return stats, err
		}
		if _, err := c.ResyncCommentCount(ctx, postID); err != nil {
			return stats, err
		}
	}
	stats.Posts = len(postIDs)

	logger.Info("Warmed engagement cache", "likes", stats.Likes, "posts", stats.Posts)
	return stats, nil
}
