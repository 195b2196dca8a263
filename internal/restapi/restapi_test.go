package restapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sandbox mimics the posts API: it echoes writes and serves post 1.
func sandbox(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "1" {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, "{}")
			return
		}
		json.NewEncoder(w).Encode(Post{ID: 1, UserID: 1, Title: "sunt aut facere", Body: "quia et suscipit"})
	})
	mux.HandleFunc("POST /posts", func(w http.ResponseWriter, r *http.Request) {
		var p Post
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		p.ID = 101
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(p)
	})
	mux.HandleFunc("PUT /posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json; charset=UTF-8", r.Header.Get("Content-Type"))
		var p Post
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		json.NewEncoder(w).Encode(p)
	})
	mux.HandleFunc("DELETE /posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "{}")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGetPost(t *testing.T) {
	c := New(sandbox(t).URL+"/", 5*time.Second)
	resp, err := c.GetPost(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.EqualValues(t, 1, resp.Get("id").Int())
	assert.True(t, resp.Has("title"))
	assert.True(t, resp.Has("body"))
	assert.False(t, resp.Has("comments"))

	var p Post
	require.NoError(t, resp.Decode(&p))
	assert.Equal(t, "sunt aut facere", p.Title)
}

func TestNotFoundIsNotAnError(t *testing.T) {
	c := New(sandbox(t).URL, 5*time.Second)
	resp, err := c.GetPost(context.Background(), 9999)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.False(t, resp.OK())
}

func TestCreateUpdateDelete(t *testing.T) {
	c := New(sandbox(t).URL, 5*time.Second)
	ctx := context.Background()

	created, err := c.CreatePost(ctx, Post{UserID: 1, Title: "Test Post", Body: "created"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, created.Status)
	assert.True(t, created.Has("id"))
	assert.Equal(t, "Test Post", created.Get("title").String())

	updated, err := c.UpdatePost(ctx, 1, Post{ID: 1, UserID: 1, Title: "Updated Test Post"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, updated.Status)
	assert.Equal(t, "Updated Test Post", updated.Get("title").String())

	deleted, err := c.DeletePost(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, deleted.Status)
}

func TestDecodeRejectsNonJSON(t *testing.T) {
	r := &Response{Status: 502, Body: []byte("<html>bad gateway</html>")}
	assert.Error(t, r.Decode(&Post{}))
}

func TestTransportError(t *testing.T) {
	srv := sandbox(t)
	c := New(srv.URL, time.Second)
	srv.Close()
	_, err := c.GetPost(context.Background(), 1)
	assert.Error(t, err)
}
