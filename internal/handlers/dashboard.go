package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/warcat/warcat-backend/internal/errors"
	"github.com/warcat/warcat-backend/internal/middleware"
	"github.com/warcat/warcat-backend/internal/services"
)

// DashboardHandler serves aggregate counters.
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// Statistics returns the dashboard counters for the caller.
func (h *DashboardHandler) Statistics(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	stats, err := h.dashboardService.GetStatistics(claims.RoleType, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			apierrors.NotFound(c, err.Error())
		case errors.Is(err, services.ErrRoleMismatch):
			apierrors.Forbidden(c, err.Error())
		default:
			apierrors.InternalError(c, "Internal server error")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statusTxt":  "success",
		"statistics": stats,
	})
}
