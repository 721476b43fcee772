package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/habitflow-backend/internal/services"
)

type AchievementHandler struct {
	achievementService services.AchievementService
}

func NewAchievementHandler(achievementService services.AchievementService) *AchievementHandler {
	return &AchievementHandler{achievementService: achievementService}
}

func (ah *AchievementHandler) ListUnlocked(c *gin.Context) {
	rd, ok := sessionData(c)
	if !ok {
		return
	}
	unlocked, err := ah.achievementService.ListUnlocked(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, unlocked)
}

func (ah *AchievementHandler) ListAvailable(c *gin.Context) {
	rd, ok := sessionData(c)
	if !ok {
		return
	}
	available, err := ah.achievementService.ListAvailable(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, gin.H{"available": available})
}

func (ah *AchievementHandler) GetStats(c *gin.Context) {
	rd, ok := sessionData(c)
	if !ok {
		return
	}
	stats, err := ah.achievementService.Stats(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, gin.H{"stats": stats})
}
