package backend

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/marazul/internal/contract"
	"github.com/vladislavdragonenkov/marazul/internal/domain"
	"github.com/vladislavdragonenkov/marazul/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/marazul/internal/metrics"
)

func (s *Server) handleLogin(c *gin.Context) {
	var creds contract.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, contract.SessionResponse{Message: describeBindError(err)})
		return
	}

	user, err := s.store.Authenticate(creds.Email, creds.Password)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.logger.WithError(err).Error("authenticate failed")
		}
		s.metrics.RecordLogin(metrics.OutcomeHTTPError)
		c.JSON(status, contract.SessionResponse{Message: err.Error()})
		return
	}
	s.respondSession(c, http.StatusOK, user)
}

func (s *Server) handleRegister(c *gin.Context) {
	var reg contract.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		c.JSON(http.StatusBadRequest, contract.SessionResponse{Message: describeBindError(err)})
		return
	}

	user, err := s.store.CreateUser(domain.User{
		FirstName: strings.TrimSpace(reg.FirstName),
		LastName:  strings.TrimSpace(reg.LastName),
		Email:     reg.Email,
	}, reg.Password)
	if err != nil {
		c.JSON(statusFor(err), contract.SessionResponse{Message: err.Error()})
		return
	}

	if err := s.publisher.Publish(kafka.TopicUserEvents, user.ID, kafka.NewUserEvent(kafka.EventTypeUserSignedUp, user)); err != nil {
		s.metrics.RecordPublishFailure()
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("publish user event failed")
	}
	s.respondSession(c, http.StatusCreated, user)
}

func (s *Server) respondSession(c *gin.Context, status int, user domain.User) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.WithError(err).Error("issue token failed")
		c.JSON(http.StatusInternalServerError, contract.SessionResponse{Message: "could not issue token"})
		return
	}
	s.metrics.RecordLogin(metrics.OutcomeSuccess)
	c.JSON(status, contract.SessionResponse{Success: true, Token: token, User: &user})
}

func (s *Server) handleMe(c *gin.Context) {
	ok(c, http.StatusOK, currentUser(c))
}

func (s *Server) handleUpdateProfile(c *gin.Context) {
	var patch domain.User
	if !bindJSON(c, &patch) {
		return
	}

	updated, err := s.store.UpdateProfile(currentUser(c).ID, patch)
	if err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) {
			fail(c, http.StatusUnauthorized, err.Error())
			return
		}
		failWith(c, err)
		return
	}
	ok(c, http.StatusOK, updated)
}
