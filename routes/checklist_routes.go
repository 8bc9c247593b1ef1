package routes

import (
	"github.com/gin-gonic/gin"

	"checklistapi/controllers"
	"checklistapi/middleware"
	"checklistapi/services"
)

// RegisterChecklistRoutes mounts the checklist CRUD endpoints under
// /checklists. A nil verifier leaves the routes unauthenticated.
func RegisterChecklistRoutes(rg gin.IRouter, verifier middleware.TokenVerifier, checklistService *services.ChecklistService) {
	checklistController := controllers.NewChecklistController(checklistService)

	checklists := rg.Group("/checklists")
	if verifier != nil {
		checklists.Use(middleware.AuthMiddleware(verifier))
	}
	{
		checklists.POST("", checklistController.CreateChecklist)          // POST /checklists
		checklists.POST("/", checklistController.CreateChecklist)         // POST /checklists/
		checklists.GET("", checklistController.ListChecklists)            // GET /checklists
		checklists.GET("/", checklistController.ListChecklists)           // GET /checklists/
		checklists.GET("/:id", checklistController.GetChecklist)          // GET /checklists/:id
		checklists.PUT("/:id", checklistController.UpdateChecklist)       // PUT /checklists/:id
		checklists.DELETE("/:id", checklistController.DeleteChecklist)    // DELETE /checklists/:id
		checklists.POST("/:id/clone", checklistController.CloneChecklist) // POST /checklists/:id/clone?new_name=
	}
}
