package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/warcat/warcat-backend/internal/errors"
	"github.com/warcat/warcat-backend/internal/middleware"
	"github.com/warcat/warcat-backend/internal/services"
)

// MeetingHandler coordinates meeting scheduling HTTP handlers.
type MeetingHandler struct {
	meetingService *services.MeetingService
}

// NewMeetingHandler creates a new MeetingHandler.
func NewMeetingHandler(meetingService *services.MeetingService) *MeetingHandler {
	return &MeetingHandler{
		meetingService: meetingService,
	}
}

// Add schedules a meeting across departments.
func (h *MeetingHandler) Add(c *gin.Context) {
	type AddMeetingRequest struct {
		DepartmentIDs []uint64 `json:"departmentIds"`
		Tags          []string `json:"tag"`
		MeetingTopic  string   `json:"meetingTopic"`
		SelectDate    string   `json:"selectDate"`
		SelectTime    string   `json:"selectTime"`
		ImageURL      string   `json:"imageUrl"`
	}

	var req AddMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	meeting, err := h.meetingService.AddMeeting(services.AddMeetingInput{
		DepartmentIDs: req.DepartmentIDs,
		Tags:          req.Tags,
		MeetingTopic:  req.MeetingTopic,
		SelectDate:    req.SelectDate,
		SelectTime:    req.SelectTime,
		ImageURL:      req.ImageURL,
	})
	if err != nil {
		respondMeetingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"statusTxt": "success",
		"message":   "Meeting added successfully",
		"meeting":   meeting,
	})
}

// Edit applies a partial update to a meeting.
func (h *MeetingHandler) Edit(c *gin.Context) {
	type EditMeetingRequest struct {
		MeetingID     string    `json:"meeting_id" binding:"required"`
		DepartmentIDs *[]uint64 `json:"departmentIds"`
		Tags          *[]string `json:"tag"`
		MeetingTopic  *string   `json:"meetingTopic"`
		SelectDate    *string   `json:"selectDate"`
		SelectTime    *string   `json:"selectTime"`
		ImageURL      *string   `json:"imageUrl"`
	}

	var req EditMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	meeting, err := h.meetingService.EditMeeting(services.EditMeetingInput{
		MeetingCode:   req.MeetingID,
		DepartmentIDs: req.DepartmentIDs,
		Tags:          req.Tags,
		MeetingTopic:  req.MeetingTopic,
		SelectDate:    req.SelectDate,
		SelectTime:    req.SelectTime,
		ImageURL:      req.ImageURL,
	})
	if err != nil {
		respondMeetingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statusTxt": "success",
		"message":   "Meeting updated successfully",
		"meeting":   meeting,
	})
}

// List returns the meetings visible to the caller.
func (h *MeetingHandler) List(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	meetings, err := h.meetingService.ListMeetings(claims.RoleType, claims.UserID)
	if err != nil {
		respondMeetingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statusTxt": "success",
		"meetings":  meetings,
	})
}

func respondMeetingError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		apierrors.BadRequestWithDetails(c, "Validation failed", validationErr.Fields)
	case errors.Is(err, services.ErrUnknownDepartments):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrMeetingNotFound),
		errors.Is(err, services.ErrNoMeetingsFound),
		errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrRoleMismatch):
		apierrors.Forbidden(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
