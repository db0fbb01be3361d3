package handlers

import (
	"net/http"

	"atlas/internal/database"
	"atlas/internal/services"

	"github.com/gin-gonic/gin"
)

type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// Me returns the authenticated user (protected)
// GET /api/me
func Me(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}

	user, err := services.GetUser(c.Request.Context(), database.GetDB(), userID)
	if err != nil {
		respondError(c, err, "fetch user")
		return
	}
	c.JSON(http.StatusOK, UserResponse{ID: user.ID, Username: user.Username})
}
