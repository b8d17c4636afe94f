package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vidhive/backend/internal/auth"
	"github.com/vidhive/backend/internal/models"
	"github.com/vidhive/backend/internal/repositories"
)

type inMemoryUserStore struct {
	users map[string]models.User
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{users: make(map[string]models.User)}
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	if _, exists := s.users[user.Email]; exists {
		return repositories.ErrConflict
	}
	s.users[user.Email] = user
	return nil
}

func (s *inMemoryUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	user, ok := s.users[email]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func newTestSessions() *auth.Manager {
	signer := auth.NewJWTSigner("test-secret-that-is-long-enough", "vidhive-test")
	return auth.NewManager(signer, time.Minute, time.Hour, auth.NewInMemorySessionStore())
}

func TestAuthHandlerRegister(t *testing.T) {
	store := newInMemoryUserStore()
	sessions := newTestSessions()
	handler := AuthHandler{Users: store, Sessions: sessions, NewID: func() string { return "user-1" }}

	req := jsonRequest(t, http.MethodPost, "/api/v1/users/register", registerRequest{
		Username: "Alice_01",
		Email:    " Alice@Example.com ",
		Password: "supersafe",
	})
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	expectStatus(t, rec, http.StatusCreated)
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("expected success envelope, got %+v", env)
	}

	var resp authResponse
	decodeData(t, env, &resp)
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Fatalf("expected tokens to be issued, got %+v", resp.Tokens)
	}
	if resp.User.ID != "user-1" || resp.User.Username != "alice_01" {
		t.Fatalf("unexpected user %+v", resp.User)
	}

	subject, err := sessions.Verify(resp.Tokens.AccessToken)
	if err != nil || subject != "user-1" {
		t.Fatalf("expected access token for user-1, got %q (%v)", subject, err)
	}

	stored, err := store.FindByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("expected user to be stored: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("supersafe")) != nil {
		t.Fatal("stored password is not hashed")
	}
}

func TestAuthHandlerRegisterValidation(t *testing.T) {
	handler := AuthHandler{Users: newInMemoryUserStore(), Sessions: newTestSessions()}

	cases := map[string]registerRequest{
		"missing username": {Email: "a@example.com", Password: "supersafe"},
		"bad username":     {Username: "a b", Email: "a@example.com", Password: "supersafe"},
		"bad email":        {Username: "alice", Email: "not-an-email", Password: "supersafe"},
		"short password":   {Username: "alice", Email: "a@example.com", Password: "short"},
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.Register(rec, jsonRequest(t, http.MethodPost, "/api/v1/users/register", payload))
			expectStatus(t, rec, http.StatusBadRequest)
			if env := decodeEnvelope(t, rec); env.Success || env.Message == "" {
				t.Fatalf("expected failure envelope with message, got %+v", env)
			}
		})
	}
}

func TestAuthHandlerRegisterConflict(t *testing.T) {
	store := newInMemoryUserStore()
	store.users["taken@example.com"] = models.User{ID: "existing", Email: "taken@example.com"}
	handler := AuthHandler{Users: store, Sessions: newTestSessions()}

	rec := httptest.NewRecorder()
	handler.Register(rec, jsonRequest(t, http.MethodPost, "/api/v1/users/register", registerRequest{
		Username: "someone",
		Email:    "taken@example.com",
		Password: "supersafe",
	}))

	expectStatus(t, rec, http.StatusConflict)
}

func TestAuthHandlerLogin(t *testing.T) {
	store := newInMemoryUserStore()
	handler := AuthHandler{Users: store, Sessions: newTestSessions()}

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	store.users["login@example.com"] = models.User{ID: "user-1", Email: "login@example.com", Password: string(hashed)}

	rec := httptest.NewRecorder()
	handler.Login(rec, jsonRequest(t, http.MethodPost, "/api/v1/users/login", loginRequest{Email: "login@example.com", Password: "password123"}))

	expectStatus(t, rec, http.StatusOK)
	var resp authResponse
	decodeData(t, decodeEnvelope(t, rec), &resp)
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Fatalf("expected tokens to be issued, got %+v", resp.Tokens)
	}

	rec = httptest.NewRecorder()
	handler.Login(rec, jsonRequest(t, http.MethodPost, "/api/v1/users/login", loginRequest{Email: "login@example.com", Password: "wrong-password"}))
	expectStatus(t, rec, http.StatusUnauthorized)

	rec = httptest.NewRecorder()
	handler.Login(rec, jsonRequest(t, http.MethodPost, "/api/v1/users/login", loginRequest{Email: "nobody@example.com", Password: "password123"}))
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestAuthHandlerRefresh(t *testing.T) {
	sessions := newTestSessions()
	tokens, err := sessions.Issue(context.Background(), "user-123")
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}

	handler := AuthHandler{Sessions: sessions}

	rec := httptest.NewRecorder()
	handler.Refresh(rec, jsonRequest(t, http.MethodPost, "/api/v1/users/refresh", refreshRequest{RefreshToken: tokens.RefreshToken}))

	expectStatus(t, rec, http.StatusOK)
	var resp authResponse
	decodeData(t, decodeEnvelope(t, rec), &resp)
	if resp.Tokens.RefreshToken == "" || resp.Tokens.RefreshToken == tokens.RefreshToken {
		t.Fatalf("expected rotated refresh token, got %+v", resp.Tokens)
	}

	rec = httptest.NewRecorder()
	handler.Refresh(rec, jsonRequest(t, http.MethodPost, "/api/v1/users/refresh", refreshRequest{RefreshToken: tokens.RefreshToken}))
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestAuthHandlerRejectsMalformedJSON(t *testing.T) {
	handler := AuthHandler{Users: newInMemoryUserStore(), Sessions: newTestSessions()}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", nil)
	req.Body = http.NoBody
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	expectStatus(t, rec, http.StatusBadRequest)
}
