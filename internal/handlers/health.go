package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/freedmens-bureau/bureau/db"
)

func HealthCheck(c *gin.Context) {
	status, code := "ok", http.StatusOK

	if sqlDB, err := db.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    status,
		"message":   "Freedmen's Bureau records are being served",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
