package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/accountd/internal/common"
	"github.com/dmitrijs2005/accountd/internal/server/models"
	"github.com/dmitrijs2005/accountd/internal/server/sessions"
)

type registerRequest struct {
	FullName     string `json:"fullname"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Password     string `json:"password"`
	Organization string `json:"organization"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Account      *models.Sanitized `json:"account"`
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type patchMeRequest struct {
	FullName     *string `json:"fullname"`
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
	Organization *string `json:"organization"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "OK"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	acc, err := s.sessions.Register(r.Context(), sessions.RegisterRequest{
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		Password:     req.Password,
		Organization: req.Organization,
	})
	if err != nil {
		s.logger.Warn(r.Context(), "registration failed", "error", err.Error())
		writeError(w, err)
		return
	}

	s.logger.Info(r.Context(), "account registered", "account_id", acc.ID)
	writeJSON(w, http.StatusCreated, acc)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := s.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	s.setTokenCookies(w, res.Tokens)
	s.logger.Info(r.Context(), "login", "account_id", res.Account.ID)
	writeJSON(w, http.StatusOK, loginResponse{
		Account:      res.Account,
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
	})
}

// handleRefresh accepts the refresh token from the JSON body or, for
// browser clients, from the refresh-token cookie.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {

	var req refreshRequest
	if r.Body != nil && r.ContentLength != 0 {
		// An undecodable body is treated as no token presented, so the
		// cookie still gets a chance and the endpoint only ever answers
		// 200 or 401.
		_ = decodeJSON(r, &req)
	}
	if req.RefreshToken == "" {
		if c, err := r.Cookie(common.RefreshTokenCookieName); err == nil {
			req.RefreshToken = c.Value
		}
	}

	pair, err := s.sessions.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}

	s.setTokenCookies(w, *pair)
	writeJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {

	accountID, ok := accountIDFrom(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	if err := s.sessions.Logout(r.Context(), accountID); err != nil {
		writeError(w, err)
		return
	}

	s.clearTokenCookies(w)
	s.logger.Info(r.Context(), "logout", "account_id", accountID)
	writeJSON(w, http.StatusOK, statusResponse{Status: "OK"})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {

	accountID, ok := accountIDFrom(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.sessions.ChangePassword(r.Context(), accountID, req.OldPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info(r.Context(), "password changed", "account_id", accountID)
	writeJSON(w, http.StatusOK, statusResponse{Status: "OK"})
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {

	accountID, ok := accountIDFrom(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	acc, err := s.sessions.GetCurrent(r.Context(), accountID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, acc)
}

func (s *Server) handlePatchMe(w http.ResponseWriter, r *http.Request) {

	accountID, ok := accountIDFrom(r.Context())
	if !ok {
		writeError(w, common.ErrorUnauthorized)
		return
	}

	var req patchMeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	acc, err := s.sessions.UpdateProfile(r.Context(), accountID, &models.ProfilePatch{
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		Organization: req.Organization,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, acc)
}
