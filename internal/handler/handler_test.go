package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tourguide/internal/middleware"
	"tourguide/internal/model"
	"tourguide/internal/service"
	"tourguide/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testJWT = utils.NewJWTUtil("handler-secret", 1)

type testEnv struct {
	router  *gin.Engine
	auth    *stubAuthService
	profile *stubProfileService
	admin   *stubAdminService
	logs    *observer.ObservedLogs
}

func newTestEnv() *testEnv {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)
	env := &testEnv{
		auth:    &stubAuthService{},
		profile: &stubProfileService{},
		admin:   &stubAdminService{},
		logs:    logs,
	}

	r := gin.New()
	api := r.Group("/api")
	authMW := middleware.JWTAuthMiddleware(testJWT, env.auth)
	NewAuthHandler(env.auth, logger).RegisterAuthRoutes(api, authMW, middleware.OptionalJWTAuthMiddleware(testJWT, env.auth))
	NewProfileHandler(env.profile, logger).RegisterProfileRoutes(api, authMW)
	NewAdminHandler(env.admin, logger).RegisterAdminRoutes(api, authMW, middleware.AdminMiddleware())
	env.router = r
	return env
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func tokenFor(t *testing.T, id int, email, role string) string {
	t.Helper()
	token, _, err := testJWT.GenerateToken(id, email, role)
	require.NoError(t, err)
	return token
}

func sampleUser() *model.User {
	return &model.User{ID: 1, FullName: "A B", Email: "a@b.com", PasswordHash: "$2a$10$secret", PhoneNumber: "1234567890", Role: model.RoleTourist}
}

func TestSignupHandler(t *testing.T) {
	env := newTestEnv()
	env.auth.signup = func(req model.SignupRequest) (*model.User, error) {
		assert.Equal(t, "a@b.com", req.Email)
		return sampleUser(), nil
	}

	w := env.do(t, http.MethodPost, "/api/signup", "", gin.H{
		"fullName": "A B", "email": "a@b.com", "password": "abcdefgh", "phoneNumber": "1234567890", "role": "Tourist",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.NotContains(t, w.Body.String(), "$2a$")
	var body struct {
		Message string        `json:"message"`
		User    model.Profile `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "User registered successfully", body.Message)
	assert.Equal(t, 1, body.User.ID)
}

func TestSignupHandler_MissingFields(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodPost, "/api/signup", "", gin.H{"email": "a@b.com"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"All fields are required"}`, w.Body.String())
}

func TestSignupHandler_MalformedJSON(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodPost, "/api/signup", "", `{"email":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid request body"}`, w.Body.String())
}

func TestSignupHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		body   string
	}{
		{&service.ValidationError{Message: "Invalid email format"}, http.StatusBadRequest, `{"error":"Invalid email format"}`},
		{service.ErrEmailRegistered, http.StatusBadRequest, `{"error":"Email already registered"}`},
		{service.ErrForbidden, http.StatusForbidden, `{"error":"You do not have permission to access this resource"}`},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, `{"error":"Internal server error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			env := newTestEnv()
			env.auth.signup = func(model.SignupRequest) (*model.User, error) { return nil, tt.err }

			w := env.do(t, http.MethodPost, "/api/signup", "", gin.H{
				"fullName": "A B", "email": "a@b.com", "password": "abcdefgh", "phoneNumber": "1234567890", "role": "Tourist",
			})

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestStorageErrorsAreLogged(t *testing.T) {
	env := newTestEnv()
	env.auth.signup = func(model.SignupRequest) (*model.User, error) { return nil, errors.New("pq: connection refused") }

	env.do(t, http.MethodPost, "/api/signup", "", gin.H{
		"fullName": "A B", "email": "a@b.com", "password": "abcdefgh", "phoneNumber": "1234567890", "role": "Tourist",
	})

	entries := env.logs.FilterMessage("request failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "pq: connection refused", entries[0].ContextMap()["error"])
}

func TestSigninHandler(t *testing.T) {
	env := newTestEnv()
	expires := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	env.auth.signin = func(req model.SigninRequest) (*service.SigninResult, error) {
		if req.Password != "abcdefgh" {
			return nil, service.ErrInvalidCredentials
		}
		return &service.SigninResult{User: sampleUser(), Token: "tok", ExpiresAt: expires}, nil
	}

	w := env.do(t, http.MethodPost, "/api/signin", "", gin.H{"email": "a@b.com", "password": "abcdefgh"})
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "tok", body["token"])
	assert.Equal(t, "2030-01-02T03:04:05Z", body["expires_at"])
	user := body["user"].(map[string]any)
	assert.NotContains(t, user, "password")
	assert.Equal(t, "Tourist", user["role"])

	w = env.do(t, http.MethodPost, "/api/signin", "", gin.H{"email": "nobody@b.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, w.Body.String())
}

func TestSigninHandler_Throttled(t *testing.T) {
	env := newTestEnv()
	env.auth.signin = func(model.SigninRequest) (*service.SigninResult, error) { return nil, service.ErrTooManyAttempts }

	w := env.do(t, http.MethodPost, "/api/signin", "", gin.H{"email": "a@b.com", "password": "abcdefgh"})

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestCheckAndSignout(t *testing.T) {
	env := newTestEnv()
	env.auth.currentUser = func(id int) (*model.User, error) {
		if id != 1 {
			return nil, service.ErrUserNotFound
		}
		return sampleUser(), nil
	}
	token := tokenFor(t, 1, "a@b.com", model.RoleTourist)

	w := env.do(t, http.MethodGet, "/api/auth/check", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"a@b.com"`)

	w = env.do(t, http.MethodPost, "/api/auth/signout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, env.auth.revoked, 1)

	w = env.do(t, http.MethodGet, "/api/auth/check", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/auth/check", tokenFor(t, 9, "gone@b.com", model.RoleGuide), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"User not found"}`, w.Body.String())
}

func TestRouteHandler(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodGet, "/api/auth/route?path=/admin/dashboard", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"allowed":false,"redirect":"/login","message":"Please sign in to access this page"}`, w.Body.String())

	guide := tokenFor(t, 2, "g@b.com", model.RoleGuide)
	w = env.do(t, http.MethodGet, "/api/auth/route?path=/admin/dashboard", guide, nil)
	assert.JSONEq(t, `{"allowed":false,"redirect":"/guide/dashboard"}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/auth/route?path=/guide/tours", guide, nil)
	assert.JSONEq(t, `{"allowed":true}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/auth/route", guide, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateProfileHandler(t *testing.T) {
	env := newTestEnv()
	env.profile.update = func(caller service.Caller, id int, req model.UpdateProfileRequest) (*model.User, error) {
		assert.Equal(t, 1, caller.UserID)
		assert.Equal(t, 1, id)
		u := sampleUser()
		u.FullName, u.Email, u.PhoneNumber = req.FullName, req.Email, req.PhoneNumber
		return u, nil
	}
	token := tokenFor(t, 1, "a@b.com", model.RoleTourist)

	w := env.do(t, http.MethodPut, "/api/profile/update?id=1", token, gin.H{
		"full_name": "New", "email": "new@b.com", "phone_number": "1234567890",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"message":"Profile updated successfully"`)
	assert.Contains(t, w.Body.String(), `"email":"new@b.com"`)
}

func TestUpdateProfileHandler_Errors(t *testing.T) {
	env := newTestEnv()
	token := tokenFor(t, 1, "a@b.com", model.RoleTourist)
	payload := gin.H{"full_name": "New", "email": "taken@b.com", "phone_number": "1234567890"}

	w := env.do(t, http.MethodPut, "/api/profile/update", "", payload)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPut, "/api/profile/update?id=abc", token, payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid user ID format"}`, w.Body.String())

	env.profile.update = func(service.Caller, int, model.UpdateProfileRequest) (*model.User, error) {
		return nil, service.ErrEmailTaken
	}
	w = env.do(t, http.MethodPut, "/api/profile/update?id=1", token, payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Email already taken by another user"}`, w.Body.String())

	env.profile.update = func(service.Caller, int, model.UpdateProfileRequest) (*model.User, error) {
		return nil, service.ErrUserNotFound
	}
	w = env.do(t, http.MethodPut, "/api/profile/update?id=1", token, payload)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"User not found"}`, w.Body.String())
}

func TestGetProfileHandler(t *testing.T) {
	env := newTestEnv()
	env.profile.get = func(caller service.Caller, id int) (*model.User, error) {
		assert.Zero(t, id)
		return sampleUser(), nil
	}

	w := env.do(t, http.MethodGet, "/api/profile/update", tokenFor(t, 1, "a@b.com", model.RoleTourist), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"full_name":"A B"`)
}

func TestChangePasswordHandler(t *testing.T) {
	env := newTestEnv()
	env.profile.changePassword = func(caller service.Caller, req model.ChangePasswordRequest) error {
		if req.CurrentPassword != "old-password" {
			return service.ErrCurrentPasswordIncorrect
		}
		return nil
	}
	token := tokenFor(t, 1, "a@b.com", model.RoleTourist)

	for _, method := range []string{http.MethodPost, http.MethodPut} {
		w := env.do(t, method, "/api/profile/change-password", token, gin.H{"current_password": "old-password", "new_password": "new-password"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"Password changed successfully"}`, w.Body.String())
	}

	w := env.do(t, http.MethodPost, "/api/profile/change-password", token, gin.H{"current_password": "wrong", "new_password": "new-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Current password is incorrect"}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/profile/change-password", token, gin.H{"current_password": "old-password"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"All fields are required"}`, w.Body.String())
}

func TestListUsersHandler(t *testing.T) {
	env := newTestEnv()
	env.admin.list = func(f model.UserListFilters) (*model.UserPage, error) {
		assert.Equal(t, "guide", f.Role)
		assert.Equal(t, "ann", f.Search)
		assert.Equal(t, 2, f.Page)
		assert.Equal(t, service.DefaultPageSize, f.Limit)
		return &model.UserPage{Users: []model.Profile{sampleUser().Profile()}, Total: 11, Page: 2, Limit: 10, TotalPages: 2}, nil
	}

	admin := tokenFor(t, 1, "root@b.com", model.RoleAdmin)
	w := env.do(t, http.MethodGet, "/api/admin/users?role=guide&search=ann&page=2&limit=oops", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalPages":2`)

	tourist := tokenFor(t, 2, "t@b.com", model.RoleTourist)
	w = env.do(t, http.MethodGet, "/api/admin/users", tourist, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
