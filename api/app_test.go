package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := newTestEnv(t)

	for _, path := range []string{"/api/moods", "/api/moods/analytics", "/api/validate"} {
		w, _ := e.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w, _ := e.do(t, http.MethodGet, "/api/validate", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestValidateEndpoint(t *testing.T) {
	e := newTestEnv(t)
	token := e.signup(t, "u@test.com", "pw123456", "Uzma")

	w, _ := e.do(t, http.MethodGet, "/api/validate", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMoodAddAndFetch(t *testing.T) {
	e := newTestEnv(t)
	token := e.signup(t, "u@test.com", "pw123456", "Uzma")

	w, _ := e.do(t, http.MethodPost, "/api/moods", token, gin.H{"mood": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, m := range []string{"happy", "sad", "happy"} {
		w, _ := e.do(t, http.MethodPost, "/api/moods", token, gin.H{"mood": m, "note": "note for " + m})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, resp := e.do(t, http.MethodGet, "/api/moods", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	moods, ok := resp["moods"].([]any)
	require.True(t, ok)
	assert.Len(t, moods, 3)

	// Another user sees none of them
	other := e.signup(t, "other@test.com", "pw123456", "Other")

	w, resp = e.do(t, http.MethodGet, "/api/moods", other, nil)
	require.Equal(t, http.StatusOK, w.Code)

	moods, ok = resp["moods"].([]any)
	require.True(t, ok)
	assert.Empty(t, moods)
}

func TestMoodAnalytics(t *testing.T) {
	e := newTestEnv(t)
	token := e.signup(t, "u@test.com", "pw123456", "Uzma")

	for _, m := range []string{"happy", "happy", "sad"} {
		w, _ := e.do(t, http.MethodPost, "/api/moods", token, gin.H{"mood": m})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, resp := e.do(t, http.MethodGet, "/api/moods/analytics?days=7", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.EqualValues(t, 3, resp["total"])

	byMood, ok := resp["byMood"].([]any)
	require.True(t, ok)
	require.Len(t, byMood, 2)

	top, ok := byMood[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "happy", top["mood"])
	assert.EqualValues(t, 2, top["count"])

	byDay, ok := resp["byDay"].([]any)
	require.True(t, ok)
	assert.Len(t, byDay, 1)

	w, _ = e.do(t, http.MethodGet, "/api/moods/analytics?days=0", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatEndpoint(t *testing.T) {
	e := newTestEnv(t)
	token := e.signup(t, "u@test.com", "pw123456", "Uzma")

	w, _ := e.do(t, http.MethodPost, "/api/ai/chat", token, gin.H{"messages": []any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp := e.do(t, http.MethodPost, "/api/ai/chat", token, gin.H{
		"messages": []gin.H{{"role": "user", "content": "I feel low today"}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	reply, ok := resp["reply"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "assistant", reply["role"])
	assert.Equal(t, "echo: I feel low today", reply["content"])
}

func TestUploadAvatar(t *testing.T) {
	e := newTestEnv(t)
	token := e.signup(t, "u@test.com", "pw123456", "Uzma")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("avatar", "me.png")
	require.NoError(t, err)
	fw.Write([]byte("\x89PNG\r\n\x1a\nfakeimagedata"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/users/upload-avatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	e.api.Router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/uploads/avatars/")

	// Rejects non-image uploads
	buf.Reset()
	mw = multipart.NewWriter(&buf)
	fw, err = mw.CreateFormFile("avatar", "malware.exe")
	require.NoError(t, err)
	fw.Write([]byte("MZ"))
	require.NoError(t, mw.Close())

	req = httptest.NewRequest(http.MethodPost, "/api/users/upload-avatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	w = httptest.NewRecorder()
	e.api.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
