package handlers

import (
	"net/http"
	"testing"

	"linkcard/backend/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerBody(username, email string) map[string]string {
	return map[string]string{"username": username, "email": email, "password": testPassword}
}

func TestRegisterHandler_MobileClientGetsTokenInBody(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/register", registerBody("alice", "Alice@Example.com"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeBody(t, w)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)

	user := body["user"].(map[string]interface{})
	assert.Equal(t, "alice@example.com", user["email"])
	assert.NotContains(t, user, "password")
	assert.Nil(t, findCookie(w, auth.CookieName))
	assert.Equal(t, 1, env.users.Count())
}

func TestRegisterHandler_BrowserClientGetsCookie(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/register", registerBody("alice", "alice@example.com"), withOrigin(testOrigin))
	require.Equal(t, http.StatusCreated, w.Code)

	cookie := findCookie(w, auth.CookieName)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)
	assert.NotContains(t, decodeBody(t, w), "token")
}

func TestRegisterHandler_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice", "alice@example.com")

	w := env.do(t, http.MethodPost, "/register", registerBody("someone_else", "alice@example.com"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"message":"Email already in use"}`, w.Body.String())
	assert.Equal(t, 1, env.users.Count())
}

func TestRegisterHandler_DuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice", "alice@example.com")

	w := env.do(t, http.MethodPost, "/register", registerBody("alice", "other@example.com"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"message":"Username already taken"}`, w.Body.String())
	assert.Equal(t, 1, env.users.Count())
}

func TestRegisterHandler_Validation(t *testing.T) {
	env := newTestEnv(t)

	cases := map[string]interface{}{
		"bad username":  registerBody("a!", "a@example.com"),
		"bad email":     registerBody("alice", "not-an-email"),
		"weak password": map[string]string{"username": "alice", "email": "a@example.com", "password": "password"},
		"short password": map[string]string{"username": "alice", "email": "a@example.com", "password": "abc"},
		"missing fields": map[string]string{"username": "alice"},
		"reserved name":  registerBody("profile", "p@example.com"),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/register", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeBody(t, w), "message")
		})
	}
	assert.Equal(t, 0, env.users.Count())
}

func TestRegisterHandler_PasswordMessages(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/register", map[string]string{"username": "alice", "email": "a@example.com", "password": "abc"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Password must be at least 8 characters"}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/register", map[string]string{"username": "alice", "email": "a@example.com", "password": "password"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Password is too weak"}`, w.Body.String())
}

func TestLoginHandler(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice", "alice@example.com")

	t.Run("success", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/login", map[string]string{"email": "alice@example.com", "password": testPassword})
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, decodeBody(t, w)["token"])
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		wrong := env.do(t, http.MethodPost, "/login", map[string]string{"email": "alice@example.com", "password": "Wrong-Password-99"})
		unknown := env.do(t, http.MethodPost, "/login", map[string]string{"email": "ghost@example.com", "password": testPassword})

		assert.Equal(t, http.StatusUnauthorized, wrong.Code)
		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.Equal(t, wrong.Body.String(), unknown.Body.String())
		assert.JSONEq(t, `{"message":"Invalid email or password"}`, wrong.Body.String())
	})

	t.Run("malformed payload", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/login", `{"email":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLogoutHandler_ClearsCookie(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookie := findCookie(w, auth.CookieName)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.True(t, cookie.MaxAge < 0)
}
