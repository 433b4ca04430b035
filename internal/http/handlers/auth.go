package handlers

import (
	"net/http"
	"strings"

	"studio/internal/account"
	"studio/internal/domain"
	"studio/internal/middleware"
)

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	DisplayName     string `json:"display_name"`
	Handle          string `json:"handle"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleLoginRequest struct {
	IDToken string `json:"id_token"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type accountDTO struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Handle      string `json:"handle,omitempty"`
	Credits     int    `json:"credits"`
}

type authResponse struct {
	Token  string     `json:"token"`
	User   accountDTO `json:"user"`
	Status string     `json:"status"`
	Reason string     `json:"reason,omitempty"`
}

func toAccountDTO(acct domain.UserAccount) accountDTO {
	return accountDTO{
		ID:          acct.ID,
		Email:       acct.Email,
		DisplayName: acct.DisplayName,
		Handle:      acct.Handle,
		Credits:     acct.Credits,
	}
}

func (a *App) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		a.error(w, http.StatusBadRequest, "password_mismatch", "Passwords do not match.")
		return
	}
	res, err := a.Accounts.Register(r.Context(), req.Email, req.Password, req.DisplayName, req.Handle)
	if err != nil {
		a.failAuth(w, r, err, account.FlowRegister)
		return
	}
	a.respondAuth(w, r, http.StatusCreated, res)
}

func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !a.decode(w, r, &req) {
		return
	}
	res, err := a.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.failAuth(w, r, err, account.FlowLogin)
		return
	}
	a.respondAuth(w, r, http.StatusOK, res)
}

func (a *App) LoginGoogle(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if !a.decode(w, r, &req) {
		return
	}
	res, err := a.Accounts.LoginWithFederated(r.Context(), req.IDToken)
	if err != nil {
		a.failAuth(w, r, err, account.FlowFederated)
		return
	}
	a.respondAuth(w, r, http.StatusOK, res)
}

func (a *App) respondAuth(w http.ResponseWriter, r *http.Request, status int, res domain.Result[domain.UserAccount]) {
	locale := middleware.LocaleFromContext(r.Context())
	token, err := middleware.SignToken(a.JWTSecret, res.Value.ID, res.Value.Email, locale, a.TokenTTL, a.now())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if res.IsDegraded() {
		a.logger().Warn().Str("user_id", res.Value.ID).Str("reason", res.Reason).Msg("signed in with fallback profile")
	}
	a.json(w, status, authResponse{
		Token:  token,
		User:   toAccountDTO(res.Value),
		Status: string(res.Status),
		Reason: res.Reason,
	})
}

func (a *App) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !a.decode(w, r, &req) {
		return
	}
	if err := a.Accounts.ResetCredential(r.Context(), strings.TrimSpace(req.Email)); err != nil {
		a.failAuth(w, r, err, account.FlowReset)
		return
	}
	a.json(w, http.StatusAccepted, map[string]string{
		"message": account.ResetSentMessage(middleware.LocaleFromContext(r.Context())),
	})
}

// Me returns the stored profile. Without a stored profile, or when the store
// is offline, the fallback balance is shown with its status.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	res := a.Accounts.FetchProfile(r.Context(), userID)
	if res.Value != nil {
		a.json(w, http.StatusOK, map[string]any{"user": toAccountDTO(*res.Value), "status": res.Status})
		return
	}
	fallback := domain.UserAccount{ID: userID, Credits: domain.StartingCredits}
	status := domain.StatusDegraded
	reason := res.Reason
	if reason == "" {
		reason = account.ReasonProfileAbsent
	}
	a.json(w, http.StatusOK, map[string]any{"user": toAccountDTO(fallback), "status": status, "reason": reason})
}
