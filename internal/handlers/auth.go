package handlers

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/Mayank9056-MM/social-post-application/internal/models"
	"github.com/Mayank9056-MM/social-post-application/internal/utils"

	"github.com/gin-gonic/gin"
)

const accessTokenCookieName = "accessToken"

// Register handles user registration.
func (a *API) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if username == "" || email == "" || req.Password == "" {
		respondError(c, http.StatusBadRequest, "All fields are required")
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		a.respondInternal(c, err, "Error hashing password")
		return
	}

	user := models.User{
		Username: username,
		Email:    email,
		Password: hashedPassword,
	}

	query := `INSERT INTO users (email, username, password) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`
	err = a.db.QueryRow(query, user.Email, user.Username, user.Password).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value") {
			respondError(c, http.StatusConflict, "User with email or username already exists")
			return
		}
		a.respondInternal(c, err, "Error creating user")
		return
	}

	respond(c, http.StatusCreated, "User registered successfully", user)
}

// Login handles user login with username or email plus password. The access
// token is returned in the body and also set as a cookie, so both delivery
// paths agree with what logout clears.
func (a *API) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if username == "" && email == "" {
		respondError(c, http.StatusBadRequest, "Username or email is required")
		return
	}

	var user models.User
	query := `SELECT id, email, username, password, created_at, updated_at FROM users WHERE username = $1 OR email = $2`
	err := a.db.QueryRow(query, username, email).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.Password,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "User does not exist")
			return
		}
		a.respondInternal(c, err, "Error logging in")
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.Password) {
		respondError(c, http.StatusUnauthorized, "Invalid user credentials")
		return
	}

	accessToken, err := a.tokens.Generate(user.ID, user.Email)
	if err != nil {
		a.respondInternal(c, err, "Error generating token")
		return
	}

	c.SetCookie(
		accessTokenCookieName,
		accessToken,
		int(a.cfg.AccessTokenTTL.Seconds()),
		"/",
		"",
		a.cfg.IsProduction(),
		true,
	)

	respond(c, http.StatusOK, "User logged in successfully", gin.H{
		"user":        user,
		"accessToken": accessToken,
	})
}

// Logout clears the session cookie. Tokens stay valid until expiry; there
// is no server-side revocation list.
func (a *API) Logout(c *gin.Context) {
	c.SetCookie(accessTokenCookieName, "", -1, "/", "", a.cfg.IsProduction(), true)
	respond(c, http.StatusOK, "User logged out successfully", gin.H{})
}

// Profile returns the current user without the password field.
func (a *API) Profile(c *gin.Context) {
	userID, ok := authedUserID(c)
	if !ok {
		return
	}

	var user models.User
	query := `SELECT id, email, username, created_at, updated_at FROM users WHERE id = $1`
	err := a.db.QueryRow(query, userID).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		a.respondInternal(c, err, "Error fetching profile")
		return
	}

	respond(c, http.StatusOK, "User profile fetched successfully", user)
}
