package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/freedmens-bureau/bureau/db"
	"github.com/freedmens-bureau/bureau/internal/auth"
	"github.com/freedmens-bureau/bureau/internal/models"
	"github.com/freedmens-bureau/bureau/internal/types"
	"github.com/freedmens-bureau/bureau/internal/utils"
)

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func setTokenCookie(ctx *gin.Context, token string, maxAge int) {
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		Domain:   Domain,
		MaxAge:   maxAge,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
}

func LoginUser(ctx *gin.Context) {
	var user LoginUserRequest

	if err := ctx.ShouldBindJSON(&user); err != nil {
		badRequest(ctx, "Invalid request")
		return
	}

	var existingUser models.User

	err := db.DB.WithContext(ctx.Request.Context()).
		Where("email = ?", strings.ToLower(strings.TrimSpace(user.Email))).
		First(&existingUser).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			badRequest(ctx, "Invalid email or password")
			return
		}
		respondError(ctx, "User", err)
		return
	}

	if !auth.CheckPassword(existingUser.PasswordHash, user.Password) {
		badRequest(ctx, "Invalid email or password")
		return
	}

	token, err := auth.GenerateJWT(existingUser.ID, existingUser.Email)

	if err != nil {
		logger.Error("Failed to generate JWT", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	setTokenCookie(ctx, token, 60*60*24*7)

	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": types.UserResponse{
			ID:    existingUser.ID,
			Name:  existingUser.Name,
			Email: existingUser.Email,
		},
	})
}

func Me(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user": types.UserResponse{
			ID:    currentUser.ID,
			Name:  currentUser.Name,
			Email: currentUser.Email,
		},
	})
}

func LogoutUser(ctx *gin.Context) {
	setTokenCookie(ctx, "", -1)
	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// CreateAdmin stores a new administrator. Used by the create-admin command.
func CreateAdmin(tx *gorm.DB, name, email, password string) (*models.User, error) {
	if len(password) < 8 {
		return nil, &models.ValidationError{Field: "password", Message: "must be at least 8 characters"}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
	}
	if err := tx.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
