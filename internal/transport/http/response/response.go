package response

import "github.com/gin-gonic/gin"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Success writes {"status":"success"} merged with extra fields.
func Success(c *gin.Context, extra gin.H) {
	body := gin.H{"status": StatusSuccess}
	for key, value := range extra {
		body[key] = value
	}
	c.JSON(200, body)
}

// Error writes {"status":"error","message":...}.
func Error(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, gin.H{
		"status":  StatusError,
		"message": message,
	})
}

// ChatError writes {"status":"error","error":...}, the shape the chat
// endpoint uses for failures.
func ChatError(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, gin.H{
		"status": StatusError,
		"error":  message,
	})
}
