package handlers

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
)

const maxCommentLength = 250

func (a *API) postExists(postID int) (bool, error) {
	var exists bool
	err := a.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&exists)
	return exists, err
}

// ToggleLike flips the caller's membership in a post's likes set. The
// toggle is atomic: a conditional insert, and a delete when the membership
// row already existed. Two sequential toggles restore the original set and
// concurrent toggles cannot lose updates.
func (a *API) ToggleLike(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	postID, err := strconv.Atoi(c.Param("postId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid post ID")
		return
	}

	exists, err := a.postExists(postID)
	if err != nil {
		a.respondInternal(c, err, "Error checking post")
		return
	}
	if !exists {
		respondError(c, http.StatusNotFound, "Post not found")
		return
	}

	result, err := a.db.Exec(
		`INSERT INTO post_likes (post_id, user_id)
		 VALUES ($1, $2)
		 ON CONFLICT (post_id, user_id) DO NOTHING`,
		postID,
		userID,
	)
	if err != nil {
		a.respondInternal(c, err, "Error toggling like")
		return
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		a.respondInternal(c, err, "Error toggling like")
		return
	}

	message := "Like added successfully"
	if rowsAffected == 0 {
		// Already liked: this toggle is an unlike.
		if _, err := a.db.Exec(
			`DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`,
			postID,
			userID,
		); err != nil {
			a.respondInternal(c, err, "Error toggling like")
			return
		}
		message = "Like removed successfully"
	}

	post, err := a.loadPost(postID)
	if err != nil {
		a.respondInternal(c, err, "Error loading post")
		return
	}

	respond(c, http.StatusCreated, message, post)
}

// AddComment appends one comment with a denormalized author-name snapshot.
// Comments live in their own table, so the append never rewrites or
// re-validates the parent post row.
func (a *API) AddComment(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	postID, err := strconv.Atoi(c.Param("postId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid post ID")
		return
	}

	exists, err := a.postExists(postID)
	if err != nil {
		a.respondInternal(c, err, "Error checking post")
		return
	}
	if !exists {
		respondError(c, http.StatusNotFound, "Post not found")
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	// The bound is in characters, not bytes; multibyte text up to the
	// limit is valid.
	content := strings.TrimSpace(req.Content)
	if content == "" || utf8.RuneCountInString(content) > maxCommentLength {
		respondError(c, http.StatusBadRequest, "Invalid comment")
		return
	}

	var username string
	err = a.db.QueryRow(`SELECT username FROM users WHERE id = $1`, userID).Scan(&username)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		a.respondInternal(c, err, "Error looking up user")
		return
	}

	if _, err := a.db.Exec(
		`INSERT INTO comments (post_id, username, content) VALUES ($1, $2, $3)`,
		postID,
		username,
		content,
	); err != nil {
		a.respondInternal(c, err, "Error adding comment")
		return
	}

	post, err := a.loadPost(postID)
	if err != nil {
		a.respondInternal(c, err, "Error loading post")
		return
	}

	respond(c, http.StatusCreated, "Comment added successfully", post)
}
