package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/indexkeeper/pkg/types"
)

func (s *Server) healthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *Server) upsertUser(c *gin.Context) {
	var req types.ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
		return
	}
	rec, err := s.store.Upsert(c.Request.Context(), req)
	if err != nil {
		s.storeError(c, err)
		return
	}
	s.metrics.shares.Inc()
	s.log.Info("user record stored", "owner_id", rec.OwnerID, "request_id", c.GetString(requestIDKey))
	respondOK(c, rec)
}

func (s *Server) getUser(c *gin.Context) {
	rec, err := s.store.GetOne(c.Request.Context(), c.Param("ownerId"))
	if err != nil {
		s.storeError(c, err)
		return
	}
	respondOK(c, rec)
}

func (s *Server) getUsers(c *gin.Context) {
	all, err := s.store.GetAll(c.Request.Context())
	if err != nil {
		s.storeError(c, err)
		return
	}
	respondOK(c, all)
}

type tokenRequest struct {
	Code string `json:"code"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func (s *Server) exchangeToken(c *gin.Context) {
	if s.exchanger == nil {
		respondError(c, http.StatusNotImplemented, CodeTokenExchangeFailed, errors.New("token exchange is not configured"))
		return
	}
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, errors.New("code is required"))
		return
	}
	tok, err := s.exchanger.Exchange(c.Request.Context(), req.Code)
	if err != nil {
		s.log.Error("token exchange failed", "error", err, "request_id", c.GetString(requestIDKey))
		respondError(c, http.StatusBadGateway, CodeTokenExchangeFailed, errors.New("token exchange failed"))
		return
	}
	respondOK(c, tokenResponse{AccessToken: tok})
}

// storeError maps record store errors onto the envelope. A missing owner is
// an ordinary outcome and is not logged.
func (s *Server) storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, types.ErrValidation):
		respondError(c, http.StatusBadRequest, CodeValidationFailed, err)
	case errors.Is(err, types.ErrNotFound):
		respondError(c, http.StatusNotFound, CodeNotFound, err)
	default:
		s.log.Error("record store failure", "error", err, "request_id", c.GetString(requestIDKey))
		respondError(c, http.StatusInternalServerError, CodeInternal, errors.New("internal error"))
	}
}
