package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/Yatesh03/Fintract-lite/models"
	"github.com/Yatesh03/Fintract-lite/pkg/money"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Stable error codes so clients can branch on the failure category.
const (
	codeValidation          = "validation_error"
	codeUnauthorized        = "unauthorized"
	codeForbidden           = "forbidden"
	codeNotFound            = "not_found"
	codeConflict            = "conflict"
	codeInsufficientFunds   = "insufficient_funds"
	codeInsufficientSavings = "insufficient_savings"
	codeServerError         = "server_error"
)

func jsonError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, gin.H{"error": msg, "code": code})
}

func setupRoutes(r *gin.Engine) {
	api := r.Group("/api")
	api.POST("/auth/register", registerHandler)
	api.POST("/auth/login", loginHandler)
	api.POST("/auth/logout", logoutHandler)
	api.POST("/auth/refresh", refreshHandler)
	api.POST("/auth/revoke_refresh", revokeRefreshHandler)

	authGroup := api.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/auth/me", meHandler)
	authGroup.PUT("/auth/profile", updateProfileHandler)
	authGroup.PUT("/auth/change-password", changePasswordHandler)
	authGroup.POST("/auth/profile-picture", uploadProfilePictureHandler)

	authGroup.POST("/transactions", createTransactionHandler)
	authGroup.GET("/transactions", listTransactionsHandler)
	authGroup.PUT("/transactions/:id", updateTransactionHandler)
	authGroup.DELETE("/transactions/:id", deleteTransactionHandler)
	authGroup.GET("/transactions/summary/:year/:month", monthlySummaryHandler)
	authGroup.GET("/transactions/monthly-summary", monthlyIncomeExpenseHandler)

	authGroup.GET("/savings", getSavingsHandler)
	authGroup.POST("/savings/roundup", addRoundUpHandler)
	authGroup.PUT("/savings/goal", updateGoalHandler)
	authGroup.POST("/savings/withdraw", withdrawSavingsHandler)

	authGroup.GET("/wallet", getWalletHandler)
	authGroup.POST("/wallet/add", addToWalletHandler)

	authGroup.POST("/payments", processPaymentHandler)
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			jsonError(c, http.StatusUnauthorized, codeUnauthorized, "missing or invalid Authorization header")
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			jsonError(c, http.StatusUnauthorized, codeUnauthorized, "invalid token")
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			jsonError(c, http.StatusUnauthorized, codeUnauthorized, "invalid claims")
			c.Abort()
			return
		}
		email, _ := claims["email"].(string)
		c.Set("email", email)
		c.Next()
	}
}

// getUserFromContext fetches the currently authenticated user using the email set by jwtAuthMiddleware
func getUserFromContext(c *gin.Context) (*models.User, bool) {
	emailVal, _ := c.Get("email")
	if emailVal == nil {
		return nil, false
	}
	email := emailVal.(string)
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, false
	}
	return &user, true
}

type userResp struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	BalancePaise   int64     `json:"balance_paise"`
	Balance        string    `json:"balance"`
	UpiID          *string   `json:"upiId,omitempty"`
	Age            *int      `json:"age,omitempty"`
	Occupation     string    `json:"occupation,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Address        string    `json:"address,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func toUserResp(u *models.User) userResp {
	return userResp{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		BalancePaise:   u.BalancePaise,
		Balance:        money.Format(u.BalancePaise),
		UpiID:          u.UpiID,
		Age:            u.Age,
		Occupation:     u.Occupation,
		Phone:          u.Phone,
		Address:        u.Address,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func registerHandler(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	user, err := RegisterUser(req.Name, req.Email, req.Password)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			jsonError(c, http.StatusConflict, codeConflict, err.Error())
			return
		}
		jsonError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "name": user.Name, "email": user.Email})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	user, err := Authenticate(req.Email, req.Password)
	if err != nil {
		jsonError(c, http.StatusUnauthorized, codeUnauthorized, err.Error())
		return
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":   user.ID,
		"email": user.Email,
		"exp":   time.Now().Add(time.Hour * 24).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, codeServerError, "failed to generate token")
		return
	}
	refreshToken, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, codeServerError, "failed to create refresh token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString, "refresh_token": refreshToken, "user": toUserResp(&user)})
}

// logoutHandler revokes the supplied refresh token when one is provided.
// Access tokens are stateless and simply expire.
func logoutHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.RefreshToken != "" {
		if rt, err := findRefreshTokenByRaw(req.RefreshToken); err == nil {
			rt.Revoked = true
			db.Save(rt)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

func meHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, codeUnauthorized, "user not found")
		return
	}
	c.JSON(http.StatusOK, toUserResp(user))
}

// updateProfileHandler applies partial updates; absent fields are left untouched.
// Balance is deliberately not settable here: only the payment path moves money.
func updateProfileHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, codeUnauthorized, "user not found")
		return
	}
	var req struct {
		Name       *string `json:"name"`
		Age        *int    `json:"age"`
		Occupation *string `json:"occupation"`
		Phone      *string `json:"phone"`
		Address    *string `json:"address"`
		Bio        *string `json:"bio"`
		UpiID      *string `json:"upiId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			jsonError(c, http.StatusBadRequest, codeValidation, "name cannot be empty")
			return
		}
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Age != nil {
		if *req.Age < 13 || *req.Age > 120 {
			jsonError(c, http.StatusBadRequest, codeValidation, "age must be between 13 and 120")
			return
		}
		user.Age = req.Age
	}
	if req.Occupation != nil {
		user.Occupation = *req.Occupation
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Address != nil {
		user.Address = *req.Address
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.UpiID != nil {
		v := strings.TrimSpace(*req.UpiID)
		if v == "" {
			user.UpiID = nil
		} else {
			user.UpiID = &v
		}
	}
	if err := db.Save(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			jsonError(c, http.StatusConflict, codeConflict, "upiId already in use")
			return
		}
		jsonError(c, http.StatusInternalServerError, codeServerError, "failed to update profile")
		return
	}
	c.JSON(http.StatusOK, toUserResp(user))
}

func changePasswordHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, codeUnauthorized, "user not found")
		return
	}
	var req struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(req.CurrentPassword)); err != nil {
		jsonError(c, http.StatusUnauthorized, codeUnauthorized, "current password is incorrect")
		return
	}
	if len(req.NewPassword) < 6 {
		jsonError(c, http.StatusBadRequest, codeValidation, "password too short (min 6)")
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, codeServerError, "failed to hash password")
		return
	}
	user.HashedPassword = hashed
	if err := db.Save(user).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, codeServerError, "failed to update password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password changed successfully"})
}

// uploadProfilePictureHandler accepts a multipart image, resizes it to a
// square avatar and records its public path on the user.
func uploadProfilePictureHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, codeUnauthorized, "user not found")
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		jsonError(c, http.StatusBadRequest, codeValidation, "file missing")
		return
	}
	if file.Size > 5*1024*1024 {
		jsonError(c, http.StatusBadRequest, codeValidation, "file too large (max 5MB)")
		return
	}
	src, err := file.Open()
	if err != nil {
		jsonError(c, http.StatusBadRequest, codeValidation, "cannot read file")
		return
	}
	defer src.Close()
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		jsonError(c, http.StatusBadRequest, codeValidation, "unsupported image format")
		return
	}
	avatar := imaging.Fill(img, 256, 256, imaging.Center, imaging.Lanczos)

	relPath := fmt.Sprintf("avatars/user_%d.jpg", user.ID)
	fullPath := filepath.Join(uploadBaseDir(), relPath)
	if err := ensureDirFor(fullPath); err != nil {
		jsonError(c, http.StatusInternalServerError, codeServerError, "mkdir failed")
		return
	}
	if err := imaging.Save(avatar, fullPath, imaging.JPEGQuality(85)); err != nil {
		jsonError(c, http.StatusInternalServerError, codeServerError, "save failed")
		return
	}
	user.ProfilePicture = "public/" + relPath
	if err := db.Save(user).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, codeServerError, "db save failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profilePicture": user.ProfilePicture})
}

// createAndStoreRefreshToken generates a random refresh token, stores its hash with expiry and returns the raw token string
func createAndStoreRefreshToken(userID uint) (string, error) {
	// generate random 32-byte token (hex)
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	// hash for storage
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	rt := models.RefreshToken{UserID: userID, TokenHash: th, ExpiresAt: time.Now().Add(30 * 24 * time.Hour)}
	if err := db.Create(&rt).Error; err != nil {
		return "", err
	}
	return token, nil
}

// helper to find refresh token record by raw token string
func findRefreshTokenByRaw(token string) (*models.RefreshToken, error) {
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	var rt models.RefreshToken
	if err := db.Where("token_hash = ?", th).First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

// refreshHandler exchanges a refresh token for a new access token and rotates the refresh token
func refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil || rt.Revoked || time.Now().After(rt.ExpiresAt) {
		jsonError(c, http.StatusUnauthorized, codeUnauthorized, "invalid or expired refresh token")
		return
	}
	var user models.User
	if err := db.First(&user, rt.UserID).Error; err != nil {
		jsonError(c, http.StatusUnauthorized, codeUnauthorized, "user not found")
		return
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":   user.ID,
		"email": user.Email,
		"exp":   time.Now().Add(15 * time.Minute).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, codeServerError, "failed to generate token")
		return
	}
	// rotate refresh token: revoke existing and create new one
	db.Model(&models.RefreshToken{}).Where("id = ?", rt.ID).Update("revoked", true)
	newRT, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, codeServerError, "failed to rotate refresh token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tokenString, "refresh_token": newRT})
}

// revokeRefreshHandler revokes a given refresh token (useful on logout)
func revokeRefreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil {
		jsonError(c, http.StatusNotFound, codeNotFound, "refresh token not found")
		return
	}
	rt.Revoked = true
	if err := db.Save(rt).Error; err != nil {
		jsonError(c, http.StatusInternalServerError, codeServerError, "failed to revoke token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refresh token revoked"})
}
