package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"checklistapi/middleware"
	"checklistapi/models"
	"checklistapi/services"
	"checklistapi/utils"
)

type ChecklistController struct {
	checklistService *services.ChecklistService
}

func NewChecklistController(checklistService *services.ChecklistService) *ChecklistController {
	return &ChecklistController{checklistService: checklistService}
}

// CreateChecklistRequest is a full checklist without id or timestamps.
type CreateChecklistRequest struct {
	Name       string            `json:"name" binding:"required"`
	Categories []models.Category `json:"categories" binding:"dive"`
	IsCloned   *bool             `json:"isCloned"`
	ClonedFrom *string           `json:"clonedFrom"`
	UserEmail  *string           `json:"userEmail"`
}

// UpdateChecklistRequest carries any subset of the mutable fields. A field
// that is missing or null is left untouched. Ownership (userEmail) is not
// updatable over HTTP.
type UpdateChecklistRequest struct {
	Name       *string            `json:"name"`
	Categories *[]models.Category `json:"categories" binding:"omitempty,dive"`
	IsCloned   *bool              `json:"isCloned"`
	ClonedFrom *string            `json:"clonedFrom"`
}

func (r UpdateChecklistRequest) patch() models.ChecklistPatch {
	return models.ChecklistPatch{
		Name:       r.Name,
		Categories: r.Categories,
		IsCloned:   r.IsCloned,
		ClonedFrom: r.ClonedFrom,
	}
}

// Unified error handler
func (cc *ChecklistController) handleError(c *gin.Context, err error, defaultMessage string) {
	var validationErr *services.ValidationError

	switch {
	case errors.Is(err, services.ErrChecklistNotFound):
		utils.NotFoundResponse(c, "Checklist not found")
	case errors.As(err, &validationErr):
		utils.BadRequestResponse(c, "Invalid request data", validationErr.Error())
	default:
		utils.LogError(defaultMessage, err, "method", c.Request.Method, "path", c.Request.URL.Path)
		utils.InternalServerErrorResponse(c, defaultMessage, nil)
	}
}

// CreateChecklist handles POST /checklists and returns the stored checklist.
func (cc *ChecklistController) CreateChecklist(c *gin.Context) {
	var req CreateChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data", err.Error())
		return
	}
	if err := utils.ValidateChecklistName(req.Name); err != nil {
		utils.BadRequestResponse(c, "Invalid request data", err.Error())
		return
	}

	checklist := models.Checklist{
		Name:       req.Name,
		Categories: req.Categories,
		IsCloned:   req.IsCloned,
		ClonedFrom: req.ClonedFrom,
		UserEmail:  req.UserEmail,
	}
	if checklist.UserEmail == nil {
		if claims := middleware.ClaimsFromContext(c); claims != nil && claims.Email != "" {
			email := claims.Email
			checklist.UserEmail = &email
		}
	}

	created, err := cc.checklistService.CreateChecklist(c.Request.Context(), checklist)
	if err != nil {
		cc.handleError(c, err, "Failed to create checklist")
		return
	}

	c.JSON(http.StatusOK, created)
}

// ListChecklists handles GET /checklists.
func (cc *ChecklistController) ListChecklists(c *gin.Context) {
	checklists, err := cc.checklistService.ListChecklists(c.Request.Context(), nil)
	if err != nil {
		cc.handleError(c, err, "Failed to retrieve checklists")
		return
	}

	c.JSON(http.StatusOK, checklists)
}

// GetChecklist handles GET /checklists/:id.
func (cc *ChecklistController) GetChecklist(c *gin.Context) {
	checklist, err := cc.checklistService.GetChecklist(c.Request.Context(), c.Param("id"))
	if err != nil {
		cc.handleError(c, err, "Failed to retrieve checklist")
		return
	}

	c.JSON(http.StatusOK, checklist)
}

// UpdateChecklist handles PUT /checklists/:id with a partial payload.
func (cc *ChecklistController) UpdateChecklist(c *gin.Context) {
	var req UpdateChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data", err.Error())
		return
	}
	if req.Name != nil {
		if err := utils.ValidateChecklistName(*req.Name); err != nil {
			utils.BadRequestResponse(c, "Invalid request data", err.Error())
			return
		}
	}

	updated, err := cc.checklistService.UpdateChecklist(c.Request.Context(), c.Param("id"), req.patch())
	if err != nil {
		cc.handleError(c, err, "Failed to update checklist")
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteChecklist handles DELETE /checklists/:id.
func (cc *ChecklistController) DeleteChecklist(c *gin.Context) {
	if err := cc.checklistService.DeleteChecklist(c.Request.Context(), c.Param("id")); err != nil {
		cc.handleError(c, err, "Failed to delete checklist")
		return
	}

	utils.SuccessResponse(c, "Checklist deleted successfully", nil)
}

// CloneChecklist copies a checklist; ?new_name= overrides the "(Copy)" name.
func (cc *ChecklistController) CloneChecklist(c *gin.Context) {
	newName := strings.TrimSpace(c.Query("new_name"))

	clone, err := cc.checklistService.CloneChecklist(c.Request.Context(), c.Param("id"), newName)
	if err != nil {
		cc.handleError(c, err, "Failed to clone checklist")
		return
	}

	c.JSON(http.StatusOK, clone)
}
