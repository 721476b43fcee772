package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/habitflow-backend/internal/apierr"
	"github.com/yungbote/habitflow-backend/internal/requestdata"
	"github.com/yungbote/habitflow-backend/internal/services"
)

type HabitHandler struct {
	habitService      services.HabitService
	completionService services.CompletionService
}

func NewHabitHandler(habitService services.HabitService, completionService services.CompletionService) *HabitHandler {
	return &HabitHandler{habitService: habitService, completionService: completionService}
}

func (hh *HabitHandler) Create(c *gin.Context) {
	rd, ok := sessionData(c)
	if !ok {
		return
	}
	var req services.CreateHabitInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.InvalidRequest(fmt.Errorf("invalid request body")))
		return
	}
	habit, err := hh.habitService.Create(c.Request.Context(), rd.UserID, req)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, http.StatusCreated, gin.H{"habit": habit})
}

func (hh *HabitHandler) List(c *gin.Context) {
	rd, ok := sessionData(c)
	if !ok {
		return
	}
	habits, err := hh.habitService.List(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, gin.H{"habits": habits})
}

func (hh *HabitHandler) Get(c *gin.Context) {
	rd, ok := sessionData(c)
	if !ok {
		return
	}
	habitID, ok := pathID(c, "id")
	if !ok {
		return
	}
	habit, err := hh.habitService.Get(c.Request.Context(), habitID, rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, gin.H{"habit": habit})
}

func (hh *HabitHandler) Update(c *gin.Context) {
	rd, ok := sessionData(c)
	if !ok {
		return
	}
	habitID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateHabitInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apierr.InvalidRequest(fmt.Errorf("invalid request body")))
		return
	}
	habit, err := hh.habitService.Update(c.Request.Context(), habitID, rd.UserID, req)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, gin.H{"habit": habit})
}

func (hh *HabitHandler) Delete(c *gin.Context) {
	rd, ok := sessionData(c)
	if !ok {
		return
	}
	habitID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := hh.habitService.Delete(c.Request.Context(), habitID, rd.UserID); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, gin.H{"message": "habit deleted"})
}

// Log records a completion and runs the whole gamification pass in one
// transaction: log row, streak advance, points, achievement unlocks.
func (hh *HabitHandler) Log(c *gin.Context) {
	rd, ok := sessionData(c)
	if !ok {
		return
	}
	habitID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Note string `json:"note"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, apierr.InvalidRequest(fmt.Errorf("invalid request body")))
			return
		}
	}
	result, err := hh.completionService.Complete(c.Request.Context(), habitID, rd.UserID, req.Note)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, http.StatusCreated, gin.H{
		"log":          result.Log,
		"streak":       result.Streak,
		"achievements": result.Achievements,
	})
}

func (hh *HabitHandler) GetStreak(c *gin.Context) {
	rd, ok := sessionData(c)
	if !ok {
		return
	}
	habitID, ok := pathID(c, "id")
	if !ok {
		return
	}
	streak, err := hh.habitService.GetStreak(c.Request.Context(), habitID, rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, gin.H{"streak": streak})
}

func (hh *HabitHandler) GetStats(c *gin.Context) {
	rd, ok := sessionData(c)
	if !ok {
		return
	}
	habitID, ok := pathID(c, "id")
	if !ok {
		return
	}
	stats, err := hh.habitService.Stats(c.Request.Context(), habitID, rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, http.StatusOK, gin.H{"stats": stats})
}

func sessionData(c *gin.Context) (*requestdata.RequestData, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, apierr.Unauthenticated(fmt.Errorf("no session in context")))
		return nil, false
	}
	return rd, true
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, apierr.InvalidRequest(fmt.Errorf("invalid %s", name)))
		return uuid.Nil, false
	}
	return id, true
}
