package handlers

import (
	"fmt"
	"math"
	"net/http"

	"github.com/Mayank9056-MM/social-post-application/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

// GetAllPosts returns one page of the feed: live like/comment counts
// computed over the whole collection, the requested ordering applied before
// skip/limit, comment bodies embedded per post, and the owner joined with
// the password column never selected.
//
// The total count is an independent query, so page content and totalPosts
// are not transactionally consistent under concurrent writes; likewise a
// page fetched after inserts may shift relative to the previous page. Both
// are accepted feed semantics.
func (a *API) GetAllPosts(c *gin.Context) {
	params := parseFeedQueryParams(c.Query("page"), c.Query("limit"), c.Query("sort"))

	var totalPosts int
	if err := a.db.QueryRow(`SELECT COUNT(*) FROM posts`).Scan(&totalPosts); err != nil {
		a.respondInternal(c, err, "Error retrieving posts")
		return
	}

	query := fmt.Sprintf(`
		SELECT p.id, p.image_url, p.created_at, p.updated_at,
		       COUNT(DISTINCT pl.user_id)::int AS likes_count,
		       COUNT(DISTINCT cm.id)::int AS comments_count,
		       COALESCE(array_agg(DISTINCT pl.user_id) FILTER (WHERE pl.user_id IS NOT NULL), '{}') AS like_user_ids,
		       u.id, u.username, u.email, u.created_at
		FROM posts p
		JOIN users u ON u.id = p.owner_id
		LEFT JOIN post_likes pl ON pl.post_id = p.id
		LEFT JOIN comments cm ON cm.post_id = p.id
		GROUP BY p.id, p.image_url, p.created_at, p.updated_at, u.id, u.username, u.email, u.created_at
		ORDER BY %s
		LIMIT $1 OFFSET $2
	`, orderClauseForSort(params.Sort))

	rows, err := a.db.Query(query, params.Limit, params.Offset)
	if err != nil {
		a.respondInternal(c, err, "Error retrieving posts")
		return
	}
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		var post models.Post
		var likeUserIDs []int64

		err := rows.Scan(
			&post.ID,
			&post.Image,
			&post.CreatedAt,
			&post.UpdatedAt,
			&post.LikesCount,
			&post.CommentsCount,
			pq.Array(&likeUserIDs),
			&post.Owner.ID,
			&post.Owner.Username,
			&post.Owner.Email,
			&post.Owner.CreatedAt,
		)
		if err != nil {
			a.respondInternal(c, err, "Error scanning post")
			return
		}

		post.Likes = make([]int, 0, len(likeUserIDs))
		for _, id := range likeUserIDs {
			post.Likes = append(post.Likes, int(id))
		}
		post.Comments = make([]models.Comment, 0)

		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		a.respondInternal(c, err, "Error retrieving posts")
		return
	}

	if err := a.attachFeedComments(posts); err != nil {
		a.respondInternal(c, err, "Error retrieving comments")
		return
	}

	totalPages := 0
	if totalPosts > 0 {
		totalPages = int(math.Ceil(float64(totalPosts) / float64(params.Limit)))
	}

	respond(c, http.StatusOK, "Posts fetched successfully", gin.H{
		"page":       params.Page,
		"limit":      params.Limit,
		"totalPosts": totalPosts,
		"totalPages": totalPages,
		"posts":      posts,
	})
}

// attachFeedComments loads the comments for one page of posts in a single
// query and distributes them onto their parents in insertion order.
func (a *API) attachFeedComments(posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	postIDs := make([]int64, len(posts))
	byID := make(map[int]*models.Post, len(posts))
	for i := range posts {
		postIDs[i] = int64(posts[i].ID)
		byID[posts[i].ID] = &posts[i]
	}

	rows, err := a.db.Query(
		`SELECT post_id, id, username, content, created_at FROM comments WHERE post_id = ANY($1) ORDER BY post_id, id`,
		pq.Array(postIDs),
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var postID int
		var comment models.Comment
		if err := rows.Scan(&postID, &comment.ID, &comment.Username, &comment.Text, &comment.CreatedAt); err != nil {
			return err
		}
		if post, ok := byID[postID]; ok {
			post.Comments = append(post.Comments, comment)
		}
	}
	return rows.Err()
}
