package handlers

import (
	"bytes"
	"database/sql"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
)

// pngHeader is enough of a real PNG for content sniffing to classify the
// payload as image/png.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func multipartImage(t *testing.T, fieldName, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(fieldName, fileName)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("part.Write: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("writer.Close: %v", err)
	}
	return body, writer.FormDataContentType()
}

func sendMultipart(t *testing.T, api *API, method, target string, handler gin.HandlerFunc, userID int, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	router := gin.New()
	router.Handle(method, "/api/v1/posts/*action", withTestUserID(userID), handler)

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func expectOwnershipLookup(mock sqlmock.Sqlmock, postID, ownerID int, imageKey string) {
	mock.
		ExpectQuery(`SELECT owner_id, image_key FROM posts WHERE id = \$1`).
		WithArgs(postID).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id", "image_key"}).AddRow(ownerID, imageKey))
}

func TestCreatePostSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api, mock, mediaStore := newTestAPI(t)

	mock.
		ExpectQuery(`INSERT INTO posts \(owner_id, image_key, image_url\)`).
		WithArgs(7, "posts/test/1.png", "https://media.test/posts/test/1.png").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	expectLoadPost(mock, 42, 7, nil, nil)

	body, contentType := multipartImage(t, "image", "photo.png", pngHeader)
	resp := sendMultipart(t, api, http.MethodPost, "/api/v1/posts/create", api.CreatePost, 7, body, contentType)
	mustStatus(t, resp.Code, http.StatusCreated)

	if mediaStore.uploads != 1 {
		t.Fatalf("expected 1 upload, got %d", mediaStore.uploads)
	}
	data := envelopeData(t, resp.Body.Bytes())
	if int(data["id"].(float64)) != 42 {
		t.Fatalf("expected post id 42, got %#v", data["id"])
	}
	if data["image"] == "" {
		t.Fatalf("expected image url in payload")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestCreatePostRejectsNonImage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api, mock, mediaStore := newTestAPI(t)

	body, contentType := multipartImage(t, "image", "notes.txt", []byte("plain text, not an image"))
	resp := sendMultipart(t, api, http.MethodPost, "/api/v1/posts/create", api.CreatePost, 7, body, contentType)
	mustStatus(t, resp.Code, http.StatusBadRequest)

	if mediaStore.uploads != 0 {
		t.Fatalf("non-image must not reach the media store, got %d uploads", mediaStore.uploads)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestCreatePostMissingImageField(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api, _, _ := newTestAPI(t)

	body, contentType := multipartImage(t, "attachment", "photo.png", pngHeader)
	resp := sendMultipart(t, api, http.MethodPost, "/api/v1/posts/create", api.CreatePost, 7, body, contentType)
	mustStatus(t, resp.Code, http.StatusBadRequest)
}

func TestCreatePostImageTooLarge(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api, _, mediaStore := newTestAPI(t)
	api.cfg.MaxUploadBytes = 8

	body, contentType := multipartImage(t, "image", "photo.png", pngHeader)
	resp := sendMultipart(t, api, http.MethodPost, "/api/v1/posts/create", api.CreatePost, 7, body, contentType)
	mustStatus(t, resp.Code, http.StatusRequestEntityTooLarge)

	if mediaStore.uploads != 0 {
		t.Fatalf("oversized file must not be uploaded")
	}
}

func TestCreatePostUploadFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api, mock, mediaStore := newTestAPI(t)
	mediaStore.uploadErr = errors.New("bucket unavailable")

	body, contentType := multipartImage(t, "image", "photo.png", pngHeader)
	resp := sendMultipart(t, api, http.MethodPost, "/api/v1/posts/create", api.CreatePost, 7, body, contentType)
	mustStatus(t, resp.Code, http.StatusInternalServerError)

	// No insert was expected: the post row must not be written.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestCreatePostInsertFailureDeletesUpload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api, mock, mediaStore := newTestAPI(t)

	mock.
		ExpectQuery(`INSERT INTO posts \(owner_id, image_key, image_url\)`).
		WithArgs(7, "posts/test/1.png", "https://media.test/posts/test/1.png").
		WillReturnError(errors.New("connection reset"))

	body, contentType := multipartImage(t, "image", "photo.png", pngHeader)
	resp := sendMultipart(t, api, http.MethodPost, "/api/v1/posts/create", api.CreatePost, 7, body, contentType)
	mustStatus(t, resp.Code, http.StatusInternalServerError)

	if len(mediaStore.deletedKeys) != 1 || mediaStore.deletedKeys[0] != mediaStore.lastUpload.Key {
		t.Fatalf("expected the uploaded object to be deleted, got %#v", mediaStore.deletedKeys)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestCreatePostWithoutUserContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api, _, mediaStore := newTestAPI(t)

	// Route wired without the auth middleware: no user id in context.
	router := gin.New()
	router.POST("/api/v1/posts/create", api.CreatePost)

	body, contentType := multipartImage(t, "image", "photo.png", pngHeader)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts/create", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	mustStatus(t, resp.Code, http.StatusUnauthorized)
	if mediaStore.uploads != 0 {
		t.Fatalf("unauthenticated request must not upload")
	}
}

func TestUpdatePostForbiddenForNonOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api, mock, mediaStore := newTestAPI(t)

	expectOwnershipLookup(mock, 42, 3, "posts/old/a.png")

	body, contentType := multipartImage(t, "image", "photo.png", pngHeader)
	resp := sendMultipart(t, api, http.MethodPatch, "/api/v1/posts/update/42", func(c *gin.Context) {
		c.Params = gin.Params{{Key: "postId", Value: "42"}}
		api.UpdatePost(c)
	}, 7, body, contentType)
	mustStatus(t, resp.Code, http.StatusForbidden)

	if mediaStore.uploads != 0 {
		t.Fatalf("ownership must be checked before any upload")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestUpdatePostReplacesImageAndDeletesOld(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api, mock, mediaStore := newTestAPI(t)

	expectOwnershipLookup(mock, 42, 7, "posts/old/a.png")
	mock.
		ExpectExec(`UPDATE posts SET image_key = \$1, image_url = \$2`).
		WithArgs("posts/test/1.png", "https://media.test/posts/test/1.png", 42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectLoadPost(mock, 42, 7, nil, nil)

	body, contentType := multipartImage(t, "image", "photo.png", pngHeader)
	resp := sendMultipart(t, api, http.MethodPatch, "/api/v1/posts/update/42", func(c *gin.Context) {
		c.Params = gin.Params{{Key: "postId", Value: "42"}}
		api.UpdatePost(c)
	}, 7, body, contentType)
	expectHTTP200(t, resp.Code)

	if mediaStore.uploads != 1 {
		t.Fatalf("expected 1 upload, got %d", mediaStore.uploads)
	}
	if len(mediaStore.deletedKeys) != 1 || mediaStore.deletedKeys[0] != "posts/old/a.png" {
		t.Fatalf("expected old object deleted after row update, got %#v", mediaStore.deletedKeys)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestUpdatePostRowFailureDeletesNewUpload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api, mock, mediaStore := newTestAPI(t)

	expectOwnershipLookup(mock, 42, 7, "posts/old/a.png")
	mock.
		ExpectExec(`UPDATE posts SET image_key = \$1, image_url = \$2`).
		WithArgs("posts/test/1.png", "https://media.test/posts/test/1.png", 42).
		WillReturnError(errors.New("connection reset"))

	body, contentType := multipartImage(t, "image", "photo.png", pngHeader)
	resp := sendMultipart(t, api, http.MethodPatch, "/api/v1/posts/update/42", func(c *gin.Context) {
		c.Params = gin.Params{{Key: "postId", Value: "42"}}
		api.UpdatePost(c)
	}, 7, body, contentType)
	mustStatus(t, resp.Code, http.StatusInternalServerError)

	if len(mediaStore.deletedKeys) != 1 || mediaStore.deletedKeys[0] != "posts/test/1.png" {
		t.Fatalf("expected new object deleted after failed update, got %#v", mediaStore.deletedKeys)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func deletePost(t *testing.T, api *API, userID int, postID string) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.DELETE("/api/v1/posts/delete/:postId", withTestUserID(userID), api.DeletePost)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/posts/delete/"+postID, nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestDeletePostSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api, mock, mediaStore := newTestAPI(t)

	expectOwnershipLookup(mock, 42, 7, "posts/old/a.png")
	expectLoadPost(mock, 42, 7, []int{3, 5}, []string{"nice"})
	mock.
		ExpectExec(`DELETE FROM posts WHERE id = \$1`).
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp := deletePost(t, api, 7, "42")
	expectHTTP200(t, resp.Code)

	if len(mediaStore.deletedKeys) != 1 || mediaStore.deletedKeys[0] != "posts/old/a.png" {
		t.Fatalf("expected media object deleted, got %#v", mediaStore.deletedKeys)
	}

	data := envelopeData(t, resp.Body.Bytes())
	post, ok := data["post"].(map[string]any)
	if !ok {
		t.Fatalf("expected deleted post in payload, got %#v", data)
	}
	if int(post["likesCount"].(float64)) != 2 || int(post["commentsCount"].(float64)) != 1 {
		t.Fatalf("unexpected counts in deleted post: %#v", post)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestDeletePostMediaFailureKeepsRow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api, mock, mediaStore := newTestAPI(t)
	mediaStore.deleteErr = errors.New("bucket unavailable")

	expectOwnershipLookup(mock, 42, 7, "posts/old/a.png")
	expectLoadPost(mock, 42, 7, nil, nil)
	// No DELETE FROM posts expected: the row must survive.

	resp := deletePost(t, api, 7, "42")
	mustStatus(t, resp.Code, http.StatusInternalServerError)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestDeletePostForbiddenForNonOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api, mock, _ := newTestAPI(t)

	expectOwnershipLookup(mock, 42, 3, "posts/old/a.png")

	resp := deletePost(t, api, 7, "42")
	mustStatus(t, resp.Code, http.StatusForbidden)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestDeletePostMissingPost(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api, mock, _ := newTestAPI(t)

	mock.
		ExpectQuery(`SELECT owner_id, image_key FROM posts WHERE id = \$1`).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	resp := deletePost(t, api, 7, "99")
	mustStatus(t, resp.Code, http.StatusNotFound)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}
