package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rag-chat-platform/internal/config"
	"rag-chat-platform/internal/logger"
	"rag-chat-platform/middleware"
	"rag-chat-platform/models"
	"rag-chat-platform/services"
	"rag-chat-platform/utils"
)

func SetupChatRoutes(
	router *gin.Engine,
	cfg *config.Config,
	orchestrator *services.ChatOrchestrator,
	history *services.HistoryService,
	store services.SessionStore,
	pinned *services.PinnedQueryService,
	authMiddleware *middleware.AuthMiddleware,
) {
	chat := router.Group("/chat")
	chat.Use(authMiddleware.RequireAuth())

	chat.POST("", func(c *gin.Context) {
		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		userID := middleware.GetUserID(c)

		response, err := orchestrator.ReplyAsync(c.Request.Context(), req.History, req.Overrides)
		if err != nil {
			logger.Error("chat pipeline failed", "user", userID, "error", err)
			utils.RespondWithPipelineError(c, err)
			return
		}

		sessionID := req.SessionID
		if history != nil {
			question := ""
			for i := len(req.History) - 1; i >= 0; i-- {
				if req.History[i].IsUser() {
					question = req.History[i].Content
					break
				}
			}
			session, err := history.RecordTurn(c.Request.Context(), userID, req.SessionID, question, &response)
			if err != nil {
				// The answer is already computed; losing the history entry is
				// not worth failing the request over.
				logger.Error("failed to record chat turn", "user", userID, "error", err)
			} else {
				sessionID = session.ID
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"choices":   response.Choices,
			"sessionId": sessionID,
		})
	})

	chat.GET("/sessions", func(c *gin.Context) {
		sessions, err := store.List(c.Request.Context(), middleware.GetUserID(c))
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list sessions", nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sessions": sessions})
	})

	chat.GET("/sessions/:id", func(c *gin.Context) {
		session, err := store.Get(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
		if err != nil {
			utils.RespondWithPipelineError(c, err)
			return
		}
		c.JSON(http.StatusOK, session)
	})

	chat.DELETE("/sessions/:id", func(c *gin.Context) {
		if err := store.Delete(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
			utils.RespondWithPipelineError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Session deleted"})
	})

	chat.POST("/pinned", func(c *gin.Context) {
		var req struct {
			Question string `json:"question" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		pin, err := pinned.Pin(c.Request.Context(), middleware.GetUserID(c), req.Question)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to pin query", nil)
			return
		}
		c.JSON(http.StatusCreated, pin)
	})

	chat.GET("/pinned", func(c *gin.Context) {
		pins, err := pinned.List(c.Request.Context(), middleware.GetUserID(c))
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list pinned queries", nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{"pinned": pins})
	})

	chat.DELETE("/pinned/:id", func(c *gin.Context) {
		if err := pinned.Unpin(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
			utils.RespondWithPipelineError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Pinned query removed"})
	})
}
