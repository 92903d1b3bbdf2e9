package handlers

import (
	"database/sql"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Mayank9056-MM/social-post-application/internal/media"
	"github.com/Mayank9056-MM/social-post-application/internal/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

// loadPost assembles the full post document: owner resolved, like
// membership and comments embedded, counts derived. Returns sql.ErrNoRows
// when the post does not exist.
func (a *API) loadPost(postID int) (models.Post, error) {
	var post models.Post

	query := `
		SELECT p.id, p.image_url, p.created_at, p.updated_at,
		       u.id, u.username, u.email, u.created_at
		FROM posts p
		JOIN users u ON u.id = p.owner_id
		WHERE p.id = $1
	`
	err := a.db.QueryRow(query, postID).Scan(
		&post.ID,
		&post.Image,
		&post.CreatedAt,
		&post.UpdatedAt,
		&post.Owner.ID,
		&post.Owner.Username,
		&post.Owner.Email,
		&post.Owner.CreatedAt,
	)
	if err != nil {
		return models.Post{}, err
	}

	likeRows, err := a.db.Query(`SELECT user_id FROM post_likes WHERE post_id = $1 ORDER BY id`, postID)
	if err != nil {
		return models.Post{}, err
	}
	defer likeRows.Close()

	post.Likes = make([]int, 0)
	for likeRows.Next() {
		var userID int
		if err := likeRows.Scan(&userID); err != nil {
			return models.Post{}, err
		}
		post.Likes = append(post.Likes, userID)
	}
	if err := likeRows.Err(); err != nil {
		return models.Post{}, err
	}

	commentRows, err := a.db.Query(
		`SELECT id, username, content, created_at FROM comments WHERE post_id = $1 ORDER BY id`,
		postID,
	)
	if err != nil {
		return models.Post{}, err
	}
	defer commentRows.Close()

	post.Comments = make([]models.Comment, 0)
	for commentRows.Next() {
		var comment models.Comment
		if err := commentRows.Scan(&comment.ID, &comment.Username, &comment.Text, &comment.CreatedAt); err != nil {
			return models.Post{}, err
		}
		post.Comments = append(post.Comments, comment)
	}
	if err := commentRows.Err(); err != nil {
		return models.Post{}, err
	}

	post.LikesCount = len(post.Likes)
	post.CommentsCount = len(post.Comments)
	return post, nil
}

// receiveImage validates the multipart image field: present, within the
// configured size bound, and actually an image by content sniffing. Returns
// the open file positioned at the start plus the detected type.
func (a *API) receiveImage(c *gin.Context) (multipart.File, *multipart.FileHeader, *mimetype.MIME, bool) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Image file is required")
		return nil, nil, nil, false
	}

	if header.Size > a.cfg.MaxUploadBytes {
		file.Close()
		respondError(c, http.StatusRequestEntityTooLarge, "Image is too large")
		return nil, nil, nil, false
	}

	buffer := make([]byte, 512)
	bytesRead, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		file.Close()
		respondError(c, http.StatusBadRequest, "Error reading image")
		return nil, nil, nil, false
	}
	if bytesRead == 0 {
		file.Close()
		respondError(c, http.StatusBadRequest, "Image is empty")
		return nil, nil, nil, false
	}

	detected := mimetype.Detect(buffer[:bytesRead])
	if !strings.HasPrefix(detected.String(), "image/") {
		file.Close()
		respondError(c, http.StatusBadRequest, "Uploaded file is not an image")
		return nil, nil, nil, false
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		a.respondInternal(c, err, "Error resetting file pointer")
		return nil, nil, nil, false
	}

	return file, header, detected, true
}

func (a *API) uploadImage(c *gin.Context, file multipart.File, header *multipart.FileHeader, detected *mimetype.MIME) (media.UploadResult, error) {
	startedAt := time.Now()
	result, err := a.media.Upload(c.Request.Context(), file, header.Size, detected.String(), detected.Extension())
	a.monitor.RecordMediaUpload(header.Size, time.Since(startedAt), err == nil)
	return result, err
}

// CreatePost uploads the staged image to the media store and persists the
// post. A post row is only ever written after a successful upload; if the
// insert fails the uploaded object is deleted again (best-effort).
func (a *API) CreatePost(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	file, header, detected, ok := a.receiveImage(c)
	if !ok {
		return
	}
	defer file.Close()

	uploaded, err := a.uploadImage(c, file, header, detected)
	if err != nil {
		a.respondInternal(c, err, "Error uploading image")
		return
	}

	var postID int
	err = a.db.QueryRow(
		`INSERT INTO posts (owner_id, image_key, image_url) VALUES ($1, $2, $3) RETURNING id`,
		userID,
		uploaded.Key,
		uploaded.URL,
	).Scan(&postID)
	if err != nil {
		if deleteErr := a.media.Delete(c.Request.Context(), uploaded.Key); deleteErr != nil {
			a.log.Error(c.Request.Context(), "orphaned media object after failed insert",
				"key", uploaded.Key, "error", deleteErr)
		}
		a.respondInternal(c, err, "Error creating post")
		return
	}

	post, err := a.loadPost(postID)
	if err != nil {
		a.respondInternal(c, err, "Error loading created post")
		return
	}

	respond(c, http.StatusCreated, "Post created successfully", post)
}

// UpdatePost replaces a post's image: upload the replacement first, update
// the row, and only then delete the old object. A failed row update rolls
// back by deleting the freshly uploaded object.
func (a *API) UpdatePost(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	postID, err := strconv.Atoi(c.Param("postId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid post ID")
		return
	}

	var ownerID int
	var oldImageKey string
	err = a.db.QueryRow(`SELECT owner_id, image_key FROM posts WHERE id = $1`, postID).
		Scan(&ownerID, &oldImageKey)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "Post not found")
			return
		}
		a.respondInternal(c, err, "Error checking post")
		return
	}

	if ownerID != userID {
		respondError(c, http.StatusForbidden, "You are not authorized to update this post")
		return
	}

	file, header, detected, ok := a.receiveImage(c)
	if !ok {
		return
	}
	defer file.Close()

	uploaded, err := a.uploadImage(c, file, header, detected)
	if err != nil {
		a.respondInternal(c, err, "Error uploading image")
		return
	}

	_, err = a.db.Exec(
		`UPDATE posts SET image_key = $1, image_url = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`,
		uploaded.Key,
		uploaded.URL,
		postID,
	)
	if err != nil {
		if deleteErr := a.media.Delete(c.Request.Context(), uploaded.Key); deleteErr != nil {
			a.log.Error(c.Request.Context(), "orphaned media object after failed update",
				"key", uploaded.Key, "error", deleteErr)
		}
		a.respondInternal(c, err, "Error updating post")
		return
	}

	// The row now points at the new object; removing the old one is
	// compensation only and must not fail the request.
	if deleteErr := a.media.Delete(c.Request.Context(), oldImageKey); deleteErr != nil {
		a.log.Warn(c.Request.Context(), "dangling media object after update",
			"key", oldImageKey, "error", deleteErr)
	}

	post, err := a.loadPost(postID)
	if err != nil {
		a.respondInternal(c, err, "Error loading updated post")
		return
	}

	respond(c, http.StatusOK, "Post updated successfully", gin.H{"post": post})
}

// DeletePost removes the media object first and refuses to delete the post
// row when that fails, so a post never points at an image the store still
// has while the record is gone.
func (a *API) DeletePost(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	postID, err := strconv.Atoi(c.Param("postId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid post ID")
		return
	}

	var ownerID int
	var imageKey string
	err = a.db.QueryRow(`SELECT owner_id, image_key FROM posts WHERE id = $1`, postID).
		Scan(&ownerID, &imageKey)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "Post not found")
			return
		}
		a.respondInternal(c, err, "Error checking post")
		return
	}

	if ownerID != userID {
		respondError(c, http.StatusForbidden, "You are not authorized to delete this post")
		return
	}

	post, err := a.loadPost(postID)
	if err != nil {
		a.respondInternal(c, err, "Error loading post")
		return
	}

	if err := a.media.Delete(c.Request.Context(), imageKey); err != nil {
		a.respondInternal(c, err, "Error deleting image")
		return
	}

	if _, err := a.db.Exec(`DELETE FROM posts WHERE id = $1`, postID); err != nil {
		a.respondInternal(c, err, "Error deleting post")
		return
	}

	respond(c, http.StatusOK, "Post deleted successfully", gin.H{"post": post})
}
