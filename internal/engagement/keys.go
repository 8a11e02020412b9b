package engagement

import "github.com/julianstephens/sovereign/internal/cache"

const (
	postNamespace = "post"
	userNamespace = "user"
)

// likesKey holds the set of users who liked a post.
func likesKey(postID string) cache.Key {
	return cache.NewKey(postNamespace, postID, "likes")
}

func likeCountKey(postID string) cache.Key {
	return cache.NewKey(postNamespace, postID, "like_count")
}

func commentCountKey(postID string) cache.Key {
	return cache.NewKey(postNamespace, postID, "comments")
}

// likedFlagKey marks that a user liked a post.
func likedFlagKey(userID, postID string) cache.Key {
	return cache.NewKey(userNamespace, userID, "liked", postID)
}

// toggleKeys lists every key a like toggle writes.
func toggleKeys(userID, postID string) []cache.Key {
	return []cache.Key{likesKey(postID), likeCountKey(postID), likedFlagKey(userID, postID)}
}

// PostPattern matches every engagement key of a post.
func PostPattern(postID string) cache.Pattern {
	return cache.NewPattern(postNamespace, postID, cache.Wildcard)
}
