package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/amolab/amorate-backend/internal/http/response"
)

func Healthcheck(c *gin.Context) {
	response.RespondOK(c, gin.H{"status": "ok"})
}
