package echoapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnova/learnova/core/toast"
	"github.com/learnova/learnova/core/user"
	appfs "github.com/learnova/learnova/fs"
)

func Test_toastApi(t *testing.T) {
	app := setup(t)
	grace := app.token(t, user.User{ID: "7", Name: "Grace Hopper", Role: "ADMIN"})

	// empty queue renders an empty region
	rec := app.get("/toasts", grace)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = app.do(app.signed(newJSONRequest(http.MethodPost, "/api/toasts", `{"type":"Success","title":" Saved ","message":"Course published."}`), grace))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	rec = app.get("/api/toasts", grace)
	assert.Equal(t, http.StatusOK, rec.Code)
	var listed []toast.Toast
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
	assert.Equal(t, toast.TypeSuccess, listed[0].Type)
	assert.Equal(t, "Saved", listed[0].Title)
	assert.Equal(t, "Course published.", listed[0].Message)

	rec = app.get("/toasts", grace)
	assert.Contains(t, rec.Body.String(), `class="toast toast-success"`)
	assert.Contains(t, rec.Body.String(), "Course published.")
	assert.Contains(t, rec.Body.String(), `action="/toasts/`+created.ID+`/dismiss"`)

	// the toast region is part of every page
	rec = app.get("/about", grace)
	assert.Contains(t, rec.Body.String(), `data-toast-id="`+created.ID+`"`)

	for i := 0; i < 2; i++ { // dismissing twice is a no-op
		rec = app.do(app.signed(newJSONRequest(http.MethodDelete, "/api/toasts/"+created.ID, ""), grace))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
	rec = app.do(app.signed(newJSONRequest(http.MethodDelete, "/api/toasts/never-issued", ""), grace))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Empty(t, app.userToasts("7"))
	rec = app.get("/toasts", grace)
	assert.Empty(t, rec.Body.String())
}

func Test_toastApi_unauthenticated(t *testing.T) {
	app := setup(t)
	tests := []*http.Request{
		newJSONRequest(http.MethodGet, "/api/toasts", ""),
		newJSONRequest(http.MethodPost, "/api/toasts", `{"type":"info","title":"Free coupons"}`),
		newJSONRequest(http.MethodDelete, "/api/toasts/some-id", ""),
	}
	for _, req := range tests {
		t.Run(req.Method, func(t *testing.T) {
			req.Header.Set(echo.HeaderAuthorization, "Bearer forged.token.value")
			rec := app.do(req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "user not authenticated")
		})
	}
	assert.Equal(t, 0, app.srv.toasts.Len())

	// anonymous pages stay clean
	rec := app.get("/about", "")
	assert.NotContains(t, rec.Body.String(), "Free coupons")
}

func Test_toastApi_sessionIsolation(t *testing.T) {
	app := setup(t)
	userA := app.token(t, user.User{ID: "a", Name: "Ada", Role: "INSTRUCTOR"})
	userB := app.token(t, user.User{ID: "b", Name: "Bob", Role: "STUDENT"})

	rec := app.do(app.signed(newJSONRequest(http.MethodPost, "/api/toasts", `{"type":"info","title":"Grades for Ada"}`), userA))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = app.get("/api/toasts", userB)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for _, path := range []string{"/toasts", "/student", "/about"} {
		rec = app.get(path, userB)
		assert.NotContains(t, rec.Body.String(), "Grades for Ada", path)
	}

	// B cannot dismiss A's toast
	rec = app.do(app.signed(newJSONRequest(http.MethodDelete, "/api/toasts/"+created.ID, ""), userB))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	req := app.signed(newFormRequest("/toasts/"+created.ID+"/dismiss", url.Values{}), userB)
	assert.Equal(t, http.StatusSeeOther, app.do(req).Code)
	require.Len(t, app.userToasts("a"), 1)

	rec = app.get("/about", userA)
	assert.Contains(t, rec.Body.String(), "Grades for Ada")
	assert.Len(t, app.userToasts("b"), 0)
}

func Test_toastApi_createInvalid(t *testing.T) {
	app := setup(t)
	grace := app.token(t, user.User{ID: "7", Name: "Grace Hopper", Role: "ADMIN"})

	tests := []struct {
		name       string
		body       string
		wantFields []string
	}{
		{name: "empty", body: `{}`, wantFields: []string{"type", "title"}},
		{name: "unknown type", body: `{"type":"fatal","title":"Oops"}`, wantFields: []string{"type"}},
		{name: "blank title", body: `{"type":"info","title":"   "}`, wantFields: []string{"title"}},
		{name: "long title", body: `{"type":"info","title":"` + strings.Repeat("a", 121) + `"}`, wantFields: []string{"title"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(app.signed(newJSONRequest(http.MethodPost, "/api/toasts", tt.body), grace))
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var fldErrs map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fldErrs))
			for _, f := range tt.wantFields {
				assert.Contains(t, fldErrs, f)
			}
			assert.Len(t, fldErrs, len(tt.wantFields))
		})
	}
	assert.Empty(t, app.userToasts("7"))

	rec := app.do(app.signed(newJSONRequest(http.MethodPost, "/api/toasts", `{"type":"info","title":"`), grace))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_toastApi_dismissForm(t *testing.T) {
	app := setup(t)
	alan := app.token(t, user.User{ID: "3", Name: "Alan Turing", Role: "STUDENT"})

	tests := []struct {
		referer string
		want    string
	}{
		{referer: "http://localhost:8000/pricing?plan=pro", want: "/pricing?plan=pro"},
		{referer: "", want: "/"},
		{referer: "https://evil.test//phish", want: "/"},
		{referer: "::not a url", want: "/"},
	}
	for _, tt := range tests {
		t.Run(tt.referer, func(t *testing.T) {
			id := app.srv.toasts.forUser("3").store.Enqueue(toast.TypeInfo, "Heads up")
			req := app.signed(newFormRequest("/toasts/"+id+"/dismiss", url.Values{}), alan)
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}
			rec := app.do(req)
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get("Location"))
			assert.Empty(t, app.userToasts("3"))
		})
	}
}

func Test_toastRenderer(t *testing.T) {
	tmpl, err := newRenderer(appfs.FS)
	require.NoError(t, err)
	store := toast.NewStore(toast.DefaultDismissDelay)
	tr := newToastRenderer(store, tmpl, nil)
	defer tr.Close()

	assert.Empty(t, tr.HTML())
	assert.Equal(t, 0, tr.Count())

	first := store.Enqueue(toast.TypeWarning, "<b>Careful</b>")
	second := store.Enqueue(toast.TypeError, "Failed", "Try again")
	html := string(tr.HTML())
	assert.Equal(t, 2, tr.Count())
	assert.Contains(t, html, "&lt;b&gt;Careful&lt;/b&gt;")
	assert.NotContains(t, html, "<b>Careful</b>")
	assert.Less(t, strings.Index(html, first), strings.Index(html, second))
	assert.Contains(t, html, `<p class="toast-message">Try again</p>`)

	store.Dismiss(first)
	assert.NotContains(t, string(tr.HTML()), first)
	assert.Equal(t, 1, tr.Count())

	tr.Close()
	store.Dismiss(second)
	assert.Equal(t, 1, tr.Count(), "closed renderer stops following the store")
}
