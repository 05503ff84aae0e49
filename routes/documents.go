package routes

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"rag-chat-platform/internal/config"
	"rag-chat-platform/internal/logger"
	"rag-chat-platform/internal/queue"
	"rag-chat-platform/internal/storage"
	"rag-chat-platform/middleware"
	"rag-chat-platform/models"
	"rag-chat-platform/utils"
)

// maxUploadBytes caps document uploads at 32 MB.
const maxUploadBytes = 32 << 20

func SetupDocumentRoutes(
	router *gin.Engine,
	cfg *config.Config,
	corpus storage.BlobStore,
	asynqClient *asynq.Client,
	authMiddleware *middleware.AuthMiddleware,
) {
	docs := router.Group("/documents")
	docs.Use(authMiddleware.RequireAuth())

	docs.POST("/upload", func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "No file provided", gin.H{"error": err.Error()})
			return
		}
		if fileHeader.Size > maxUploadBytes {
			utils.RespondWithError(c, http.StatusRequestEntityTooLarge, "file_too_large", "File exceeds the upload limit", nil)
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to read upload", nil)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to read upload", nil)
			return
		}

		name := filepath.Base(fileHeader.Filename)
		contentType := fileHeader.Header.Get("Content-Type")
		if contentType == "" {
			contentType = http.DetectContentType(data)
		}

		if err := corpus.Upload(c.Request.Context(), name, data, contentType); err != nil {
			utils.RespondWithInternalError(c, "Failed to store document", nil)
			return
		}
		if err := corpus.SetMetadata(c.Request.Context(), name, map[string]string{
			models.MetadataKeyStatus: string(models.StatusNotProcessed),
		}); err != nil {
			logger.Warn("failed to mark document as pending", "file", name, "error", err)
		}

		task, err := queue.NewIngestTask(name)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to queue document", nil)
			return
		}
		info, err := asynqClient.Enqueue(task)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to queue document", nil)
			return
		}

		logger.Info("document queued for ingestion", "file", name, "task", info.ID)
		c.JSON(http.StatusAccepted, gin.H{
			"file":   name,
			"taskId": info.ID,
			"status": models.StatusNotProcessed,
		})
	})

	docs.GET("", func(c *gin.Context) {
		blobs, err := corpus.List(c.Request.Context(), "")
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list documents", nil)
			return
		}

		infos := make([]models.DocumentInfo, 0, len(blobs))
		for _, blob := range blobs {
			// Page artifacts share the store with source documents; callers
			// only care about the sources.
			if strings.HasSuffix(blob.Name, ".txt") && blob.Metadata == nil {
				continue
			}
			status := models.DocumentProcessingStatus(blob.Metadata[models.MetadataKeyStatus])
			if status == "" {
				status = models.StatusNotProcessed
			}
			infos = append(infos, models.DocumentInfo{
				Name:        blob.Name,
				ContentType: blob.ContentType,
				Size:        blob.Size,
				Status:      status,
			})
		}
		c.JSON(http.StatusOK, gin.H{"documents": infos})
	})

	docs.GET("/content/:name", func(c *gin.Context) {
		name := filepath.Base(c.Param("name"))
		data, err := corpus.Read(c.Request.Context(), name)
		if err != nil {
			utils.RespondWithNotFound(c, "Document not found")
			return
		}

		contentType := "application/octet-stream"
		if strings.HasSuffix(name, ".txt") {
			contentType = "text/plain"
		}
		c.Data(http.StatusOK, contentType, data)
	})

	docs.DELETE("/:name", func(c *gin.Context) {
		name := filepath.Base(c.Param("name"))

		task, err := queue.NewRemoveTask(name)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to queue removal", nil)
			return
		}
		info, err := asynqClient.Enqueue(task)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to queue removal", nil)
			return
		}

		logger.Info("document queued for removal", "file", name, "task", info.ID)
		c.JSON(http.StatusAccepted, gin.H{"file": name, "taskId": info.ID})
	})
}
