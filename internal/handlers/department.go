package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/warcat/warcat-backend/internal/errors"
	"github.com/warcat/warcat-backend/internal/middleware"
	"github.com/warcat/warcat-backend/internal/services"
)

// RoleHolderRequest carries the secretary or head-of-office payload of
// a registration request.
type RoleHolderRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required"`
	PhoneNumber string `json:"phone_number" binding:"required"`
	Designation string `json:"designation"`
}

func (r RoleHolderRequest) toInput() services.RoleHolderInput {
	return services.RoleHolderInput{
		Name:        r.Name,
		Email:       r.Email,
		PhoneNumber: r.PhoneNumber,
		Designation: r.Designation,
	}
}

// DepartmentHandler coordinates department registry HTTP handlers.
type DepartmentHandler struct {
	registrationService *services.RegistrationService
}

// NewDepartmentHandler creates a new DepartmentHandler.
func NewDepartmentHandler(registrationService *services.RegistrationService) *DepartmentHandler {
	return &DepartmentHandler{
		registrationService: registrationService,
	}
}

// Register creates a department with its secretary and head of office.
func (h *DepartmentHandler) Register(c *gin.Context) {
	type RegisterRequest struct {
		DepartmentName string            `json:"department_name" binding:"required"`
		Secretary      RoleHolderRequest `json:"secretary" binding:"required"`
		HeadOffice     RoleHolderRequest `json:"head_of_Office" binding:"required"`
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	details, err := h.registrationService.RegisterDepartment(services.RegisterDepartmentInput{
		DepartmentName: req.DepartmentName,
		Secretary:      req.Secretary.toInput(),
		HeadOffice:     req.HeadOffice.toInput(),
	})
	if err != nil {
		respondDepartmentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"statusTxt":  "success",
		"message":    "Department registered successfully",
		"department": details,
	})
}

// Edit renames a department and/or swaps its role holders.
func (h *DepartmentHandler) Edit(c *gin.Context) {
	type EditRequest struct {
		DepartmentID   uint64             `json:"department_id" binding:"required"`
		DepartmentName *string            `json:"department_name"`
		Secretary      *RoleHolderRequest `json:"secretary"`
		HeadOffice     *RoleHolderRequest `json:"head_of_Office"`
	}

	var req EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.EditDepartmentInput{
		DepartmentID:   req.DepartmentID,
		DepartmentName: req.DepartmentName,
	}
	if req.Secretary != nil {
		holder := req.Secretary.toInput()
		input.Secretary = &holder
	}
	if req.HeadOffice != nil {
		holder := req.HeadOffice.toInput()
		input.HeadOffice = &holder
	}

	details, err := h.registrationService.EditDepartment(input)
	if err != nil {
		respondDepartmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statusTxt":  "success",
		"message":    "Department updated successfully",
		"department": details,
	})
}

// List returns the departments visible to the caller.
func (h *DepartmentHandler) List(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	departments, err := h.registrationService.ListDepartments(claims.RoleType, claims.UserID)
	if err != nil {
		respondDepartmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statusTxt":   "success",
		"departments": departments,
	})
}

// Delete removes a department by id.
func (h *DepartmentHandler) Delete(c *gin.Context) {
	departmentID, err := strconv.ParseUint(c.Param("departmentId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid department id")
		return
	}

	if err := h.registrationService.DeleteDepartment(departmentID); err != nil {
		respondDepartmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statusTxt": "success",
		"message":   "Department deleted successfully",
	})
}

func respondDepartmentError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		apierrors.BadRequestWithDetails(c, "Validation failed", validationErr.Fields)
	case errors.Is(err, services.ErrDepartmentExists),
		errors.Is(err, services.ErrRoleConflict),
		errors.Is(err, services.ErrSameEmailBothRoles):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrDepartmentNotFound),
		errors.Is(err, services.ErrNoDepartmentsFound),
		errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrRoleMismatch):
		apierrors.Forbidden(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
