package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/platinummonkey/codehub/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateRenderer_AllPages(t *testing.T) {
	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)

	pages := []string{
		PageHome, PageSignup, PageSignin, PageCodehub,
		PageSource, PageProjects, PageIntegration, PageSetting,
	}
	for _, page := range pages {
		t.Run(page, func(t *testing.T) {
			rec := httptest.NewRecorder()
			err := renderer.Render(rec, http.StatusOK, page, PageData{Username: "alice"})
			require.NoError(t, err)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), "<title>CodeHub</title>")
		})
	}
}

func TestTemplateRenderer_Messages(t *testing.T) {
	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, renderer.Render(rec, http.StatusOK, PageSignup, PageData{
		WrongPass: MsgPasswordMismatch,
		Providers: []auth.Provider{auth.ProviderGoogle, auth.ProviderGitHub},
	}))
	body := rec.Body.String()
	assert.Contains(t, body, "Password do not Match :(")
	assert.Contains(t, body, `href="/auth/google"`)
	assert.Contains(t, body, `href="/auth/github"`)
	assert.NotContains(t, body, `href="/auth/facebook"`)

	rec = httptest.NewRecorder()
	require.NoError(t, renderer.Render(rec, http.StatusOK, PageSetting, PageData{
		Username:       "alice",
		PassDoNotMatch: MsgIncorrectPassword,
	}))
	assert.Contains(t, rec.Body.String(), "Old password is incorrect")
	assert.Contains(t, rec.Body.String(), `value="alice"`)
}

func TestTemplateRenderer_EscapesUsername(t *testing.T) {
	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, renderer.Render(rec, http.StatusOK, PageCodehub, PageData{Username: "<script>alert(1)</script>"}))

	assert.NotContains(t, rec.Body.String(), "<script>alert(1)</script>")
	assert.Contains(t, rec.Body.String(), "&lt;script&gt;")
}

func TestTemplateRenderer_UnknownPage(t *testing.T) {
	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = renderer.Render(rec, http.StatusOK, "missing", PageData{})
	assert.Error(t, err)
	assert.Empty(t, rec.Body.String())
}
