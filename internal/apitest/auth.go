package apitest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/sourcefinder/sourcefinder/client"
)

type ctxKey struct{}

// IssueToken signs an access token for userID using the server's secret.
func (s *Server) IssueToken(userID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// TokenFor logs email in without a password, for test setup.
func (s *Server) TokenFor(email string) (string, error) {
	s.mu.Lock()
	id, ok := s.byEmail[strings.ToLower(email)]
	s.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("unknown user %q", email)
	}
	return s.IssueToken(id)
}

// userFromRequest returns the active user behind the bearer token, or nil.
func (s *Server) userFromRequest(r *http.Request) (*user, string) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return nil, "Not authenticated"
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || claims.Subject == "" {
		return nil, "Could not validate credentials"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[claims.Subject]
	if !ok {
		return nil, "Could not validate credentials"
	}
	if !u.IsActive {
		return nil, "Inactive user"
	}
	cp := *u
	return &cp, ""
}

func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, reason := s.userFromRequest(r)
		if u == nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeDetail(w, http.StatusUnauthorized, reason)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, u)))
	}
}

func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return s.requireUser(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r).Role != client.RoleAdmin {
			writeDetail(w, http.StatusForbidden, "Admin only")
			return
		}
		next(w, r)
	})
}

func currentUser(r *http.Request) *user {
	u, _ := r.Context().Value(ctxKey{}).(*user)
	return u
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (client.Credentials, bool) {
	var creds client.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return creds, false
	}
	if !strfmt.IsEmail(creds.Email) {
		writeMissingField(w, "body", "email")
		return creds, false
	}
	if creds.Password == "" {
		writeMissingField(w, "body", "password")
		return creds, false
	}
	return creds, true
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	creds, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	var u *user
	if id, found := s.byEmail[strings.ToLower(creds.Email)]; found {
		u = s.users[id]
	}
	s.mu.Unlock()

	if u == nil || !u.IsActive || bcrypt.CompareHashAndPassword(u.hash, []byte(creds.Password)) != nil {
		writeDetail(w, http.StatusBadRequest, "Incorrect email or password")
		return
	}
	s.writeToken(w, u.ID)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	creds, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	rec, err := s.createUser(creds.Email, creds.Password, client.RoleUser)
	if errors.Is(err, errEmailTaken) {
		writeDetail(w, http.StatusBadRequest, detailEmailTaken)
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeToken(w, rec.ID)
}

var errEmailTaken = errors.New("email already registered")

const detailEmailTaken = "Email already registered"

func (s *Server) createUser(email, password, role string) (client.UserRecord, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return client.UserRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[strings.ToLower(email)]; exists {
		return client.UserRecord{}, errEmailTaken
	}
	return s.addUserLocked(email, hash, role, true), nil
}

func (s *Server) writeToken(w http.ResponseWriter, userID string) {
	token, err := s.IssueToken(userID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, client.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r).UserRecord)
}
