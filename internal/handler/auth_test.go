package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/feedme-app/feedme/internal/auth"
	"github.com/feedme-app/feedme/internal/database"
	"github.com/feedme-app/feedme/internal/store"
)

const testSecret = "handler-test-secret"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupAuthHandler(t *testing.T) (*AuthHandler, *store.UserStore) {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	return NewAuthHandler(users, testSecret, discardLogger()), users
}

func postJSON(t *testing.T, h http.HandlerFunc, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestRegisterAndLogin(t *testing.T) {
	h, _ := setupAuthHandler(t)

	rec := postJSON(t, h.Register, "/api/auth/register", map[string]string{
		"name":     "Ana",
		"email":    "ana@example.com",
		"password": "correct horse",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body)
	}

	var created struct {
		Token string       `json:"token"`
		User  userResponse `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if created.User.Email != "ana@example.com" || created.User.ID == 0 {
		t.Errorf("unexpected user in response: %+v", created.User)
	}

	claims, err := auth.ValidateToken(testSecret, created.Token)
	if err != nil {
		t.Fatalf("register token did not validate: %v", err)
	}
	if claims.UserID != created.User.ID {
		t.Errorf("token user = %d, want %d", claims.UserID, created.User.ID)
	}

	rec = postJSON(t, h.Login, "/api/auth/login", map[string]string{
		"email":    "ana@example.com",
		"password": "correct horse",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body)
	}

	rec = postJSON(t, h.Login, "/api/auth/login", map[string]string{
		"email":    "ana@example.com",
		"password": "wrong password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = postJSON(t, h.Login, "/api/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "correct horse",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unknown email status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, _ := setupAuthHandler(t)

	body := map[string]string{
		"name":     "Ana",
		"email":    "ana@example.com",
		"password": "correct horse",
	}
	if rec := postJSON(t, h.Register, "/api/auth/register", body); rec.Code != http.StatusCreated {
		t.Fatalf("first register status = %d", rec.Code)
	}
	if rec := postJSON(t, h.Register, "/api/auth/register", body); rec.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestRegisterValidation(t *testing.T) {
	h, _ := setupAuthHandler(t)

	cases := []struct {
		name string
		body map[string]string
	}{
		{"missing name", map[string]string{"email": "a@b.com", "password": "longenough"}},
		{"bad email", map[string]string{"name": "Ana", "email": "not-an-email", "password": "longenough"}},
		{"short password", map[string]string{"name": "Ana", "email": "a@b.com", "password": "short"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := postJSON(t, h.Register, "/api/auth/register", tc.body); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestVerify(t *testing.T) {
	h, users := setupAuthHandler(t)

	user, err := users.Create(1, "Ana", "ana@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/verify", nil)
	req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{UserID: user.ID, Email: user.Email}))
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d: %s", rec.Code, rec.Body)
	}
	var resp struct {
		Valid bool         `json:"valid"`
		User  userResponse `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode verify response: %v", err)
	}
	if !resp.Valid || resp.User.ID != user.ID {
		t.Errorf("unexpected verify response: %+v", resp)
	}
}

func TestVerifyUnknownUser(t *testing.T) {
	h, _ := setupAuthHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/verify", nil)
	req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{UserID: 99, Email: "gone@example.com"}))
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("verify status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
