package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/habitflow-backend/internal/apierr"
	"github.com/yungbote/habitflow-backend/internal/requestdata"
	"github.com/yungbote/habitflow-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (uh *UserHandler) GetMe(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, apierr.Unauthenticated(fmt.Errorf("no session in context")))
		return
	}
	profile, err := uh.userService.GetProfile(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, gin.H{"me": profile})
}

func (uh *UserHandler) GetLeaderboard(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, apierr.Unauthenticated(fmt.Errorf("no session in context")))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	board, err := uh.userService.GetLeaderboard(c.Request.Context(), rd.UserID, limit)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, board)
}
