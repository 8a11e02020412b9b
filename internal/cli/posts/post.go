package posts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/sovereign/internal/cli"
	"github.com/julianstephens/sovereign/internal/constants"
	"github.com/julianstephens/sovereign/internal/models"
)

type PostCmd struct {
	Add       PostAddCmd       `cmd:"" help:"Create a post."`
	Like      PostLikeCmd      `cmd:"" help:"Like a post, or unlike it if already liked."`
	Comment   PostCommentCmd   `cmd:"" help:"Comment on a post."`
	Uncomment PostUncommentCmd `cmd:"" help:"Delete a comment."`
	Show      PostShowCmd      `cmd:"" help:"Show a post with its engagement counts."`
}

type PostAddCmd struct {
	Content   string `arg:"" help:"Post content."`
	User      string `required:"" help:"Author."`
	Anonymous bool   `help:"Hide the author."`
}

func (c *PostAddCmd) Run(ctx *cli.Context) error {
	content := strings.TrimSpace(c.Content)
	if content == "" {
		return fmt.Errorf("post content cannot be empty")
	}
	p := models.Post{
		ID:          uuid.New().String(),
		UserID:      c.User,
		Content:     content,
		IsAnonymous: c.Anonymous,
		CreatedAt:   time.Now(),
	}
	if err := ctx.Store.AddPost(context.Background(), p); err != nil {
		return err
	}
	cli.Success(ctx.Writer(), "Created post %s", p.ID)
	return nil
}

type PostLikeCmd struct {
	ID   string `arg:"" help:"Post ID."`
	User string `required:"" help:"Liking user."`
}

func (c *PostLikeCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	if _, err := ctx.Store.GetPost(bg, c.ID); err != nil {
		return err
	}
	res, err := ctx.Counters.ToggleLike(bg, c.User, c.ID)
	if err != nil {
		return err
	}
	verb := "Unliked"
	if res.Liked {
		verb = "Liked"
	}
	cli.Success(ctx.Writer(), "%s post %s (%s)", verb, c.ID, plural(res.Count, "like"))
	return nil
}

type PostCommentCmd struct {
	ID      string `arg:"" help:"Post ID."`
	Content string `arg:"" help:"Comment text."`
	User    string `required:"" help:"Commenting user."`
}

func (c *PostCommentCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	content := strings.TrimSpace(c.Content)
	if content == "" {
		return fmt.Errorf("comment cannot be empty")
	}
	if _, err := ctx.Store.GetPost(bg, c.ID); err != nil {
		return err
	}
	id, err := ctx.Counters.AddComment(bg, models.Comment{
		PostID:    c.ID,
		UserID:    c.User,
		Content:   content,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return err
	}
	cli.Success(ctx.Writer(), "Added comment %s", id)
	return nil
}

type PostUncommentCmd struct {
	CommentID string `arg:"" help:"Comment ID."`
}

func (c *PostUncommentCmd) Run(ctx *cli.Context) error {
	comment, err := ctx.Counters.DeleteComment(context.Background(), c.CommentID)
	if err != nil {
		return err
	}
	cli.Success(ctx.Writer(), "Deleted comment %s from post %s", comment.ID, comment.PostID)
	return nil
}

type PostShowCmd struct {
	ID   string `arg:"" help:"Post ID."`
	User string `help:"Viewing user, to show whether they liked the post."`
}

func (c *PostShowCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	out := ctx.Writer()

	p, err := ctx.Store.GetPost(bg, c.ID)
	if err != nil {
		return err
	}
	likes, err := ctx.Counters.GetLikeCount(bg, c.ID)
	if err != nil {
		return err
	}
	comments, err := ctx.Counters.GetCommentCount(bg, c.ID)
	if err != nil {
		return err
	}

	author := p.UserID
	if p.IsAnonymous {
		author = "anonymous"
	}
	cli.Header(out, fmt.Sprintf("Post %s by %s", p.ID, author))
	fmt.Fprintln(out, p.Content)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s, %s\n", plural(likes, "like"), plural(comments, "comment"))

	if c.User != "" {
		liked, err := ctx.Counters.IsLiked(bg, c.User, c.ID)
		if err != nil {
			return err
		}
		if liked {
			fmt.Fprintf(out, "Liked by %s\n", c.User)
		}
	}

	list, err := ctx.Store.ListComments(bg, c.ID)
	if err != nil {
		return err
	}
	for _, cm := range list {
		cli.Detail(out, "%s  %s: %s", cm.CreatedAt.In(ctx.Location).Format(constants.DateFormat), cm.UserID, cm.Content)
	}
	return nil
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
