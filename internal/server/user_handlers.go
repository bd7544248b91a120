package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcopy-dev/gcopy/internal/auth"
	"github.com/gcopy-dev/gcopy/internal/emailcode"
	"github.com/gcopy-dev/gcopy/internal/sharecode"
	"github.com/gcopy-dev/gcopy/internal/tasks"
)

// EmailCodeRequest asks for a verification code to be mailed
type EmailCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// LoginRequest completes an email login
type LoginRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,numeric,len=6"`
}

// ShareCodeLoginRequest logs in with a share code
type ShareCodeLoginRequest struct {
	Code string `json:"code" binding:"required,sharecode"`
}

// UserResponse is the client-visible session summary
type UserResponse struct {
	Email     string `json:"email,omitempty"`
	ShareCode string `json:"shareCode,omitempty"`
	LoggedIn  bool   `json:"loggedIn"`
	LoginType string `json:"loginType,omitempty"`
}

func (s *Server) emailCodeHandler(c *gin.Context) {
	var req EmailCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	code, err := s.challenges.Issue(c.Request.Context(), req.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to issue verification code")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	task, err := tasks.NewSendVerificationCodeTask(tasks.VerificationCodePayload{
		Email:     req.Email,
		Code:      code,
		Language:  c.GetHeader("Accept-Language"),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build mail task")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	if _, err := s.enqueuer.EnqueueContext(c.Request.Context(), task); err != nil {
		s.logger.Error().Err(err).Str("email", req.Email).Msg("Failed to enqueue verification mail")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to send verification code"})
		return
	}

	// requesting a code drops whatever session the client had
	s.clearSession(c)

	c.JSON(http.StatusOK, gin.H{"message": "Success"})
}

func (s *Server) loginHandler(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	if current, err := s.loadSession(c); err == nil && current.LoginType == auth.LoginTypeEmail && current.Email == req.Email {
		c.JSON(http.StatusOK, UserResponse{Email: req.Email, LoggedIn: true})
		return
	}

	if err := s.challenges.Verify(c.Request.Context(), req.Email, req.Code); err != nil {
		if errors.Is(err, emailcode.ErrInvalidCode) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to verify code")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	data := auth.SessionData{LoggedIn: true, LoginType: auth.LoginTypeEmail, Email: req.Email}
	if err := s.saveSession(c, data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to save session")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	s.logger.Info().Str("subject", data.Subject()).Msg("User logged in")
	c.JSON(http.StatusOK, UserResponse{Email: req.Email, LoggedIn: true})
}

func (s *Server) logoutHandler(c *gin.Context) {
	s.clearSession(c)
	c.JSON(http.StatusOK, gin.H{"message": "Success"})
}

func (s *Server) getUserHandler(c *gin.Context) {
	data, err := s.loadSession(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}

	// re-issuing keeps active sessions alive
	if err := s.saveSession(c, *data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to save session")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	if data.LoginType == auth.LoginTypeCode {
		c.JSON(http.StatusOK, UserResponse{ShareCode: data.ShareCode, LoggedIn: true, LoginType: auth.LoginTypeCode})
		return
	}
	c.JSON(http.StatusOK, UserResponse{Email: data.Email, LoggedIn: true, LoginType: auth.LoginTypeEmail})
}

func (s *Server) shareCodeLoginHandler(c *gin.Context) {
	var req ShareCodeLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	}

	group, created, err := s.shareCodes.Join(c.Request.Context(), req.Code)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to join share code group")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	data := auth.SessionData{LoggedIn: true, LoginType: auth.LoginTypeCode, ShareCode: req.Code}
	if err := s.saveSession(c, data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to save session")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	s.logger.Info().
		Str("group_id", group.ID).
		Bool("new_group", created).
		Time("expires_at", group.ExpiresAt).
		Msg("Share code login")

	c.JSON(http.StatusOK, UserResponse{ShareCode: req.Code, LoggedIn: true})
}

func (s *Server) refreshShareCodeHandler(c *gin.Context) {
	data, ok := GetSessionData(c)
	if !ok || data.LoginType != auth.LoginTypeCode {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	group, err := s.shareCodes.Refresh(c.Request.Context(), data.ShareCode)
	if err != nil && !errors.Is(err, sharecode.ErrNotFound) {
		s.logger.Error().Err(err).Msg("Failed to refresh share code")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	if group == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Share code not found"})
		return
	}

	s.logger.Debug().
		Str("subject", GetSubject(c)).
		Time("expires_at", group.ExpiresAt).
		Msg("Share code refreshed")

	c.JSON(http.StatusOK, gin.H{
		"shareCode": data.ShareCode,
		"expiresIn": int(sharecode.TTL.Seconds()),
	})
}
