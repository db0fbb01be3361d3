package handlers

import (
	"net/http"

	"atlas/internal/auth"
	"atlas/internal/database"
	"atlas/internal/middleware"
	"atlas/internal/services"

	"github.com/gin-gonic/gin"
)

// SecureCookies marks the session cookie Secure. Enable behind TLS.
var SecureCookies bool

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the login and register response
type LoginResponse struct {
	Token    string `json:"token"`
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// Register handles POST /api/register
// Creates an account and signs the new user in.
func Register(c *gin.Context) {
	var req services.RegisterInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := services.Register(c.Request.Context(), database.GetDB(), req)
	if err != nil {
		respondError(c, err, "register")
		return
	}
	issueSession(c, http.StatusCreated, user.ID, user.Username, "Registration successful")
}

// Login handles POST /api/login
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request. Username and password are required.",
		})
		return
	}

	user, err := services.Authenticate(c.Request.Context(), database.GetDB(), req.Username, req.Password)
	if err != nil {
		respondError(c, err, "log in")
		return
	}
	issueSession(c, http.StatusOK, user.ID, user.Username, "Login successful")
}

// Logout handles POST /api/logout
// Tokens are stateless, so this clears the session cookie and drops the
// cached account of whoever presented a valid token.
func Logout(c *gin.Context) {
	if claims, err := auth.ValidateToken(middleware.TokenFromRequest(c)); err == nil {
		services.ForgetUser(claims.UserID)
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", SecureCookies, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func issueSession(c *gin.Context, status int, userID uint, username, message string) {
	token, err := auth.GenerateToken(userID, username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate token",
		})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, int(auth.TokenTTL().Seconds()), "/", "", SecureCookies, true)
	c.JSON(status, LoginResponse{
		Token:    token,
		UserID:   userID,
		Username: username,
		Message:  message,
	})
}
