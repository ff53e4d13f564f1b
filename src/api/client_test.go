package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"stocknews-client/src/helpers"
	"stocknews-client/src/logger"
	"stocknews-client/src/models"
	"stocknews-client/src/network"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &models.MConfig{Network: models.MNetworkConfig{RequestTimeout: 5, ConcurrentRequests: 4}}
	log := logger.NewLogger(nil, "api-test")
	return NewClient(srv.URL+"/api/", network.NewAsyncNetworkManager(cfg, log), log)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// -----------------------------------------------------------------------------

func TestLogin_SendsFormAndReturnsToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "alice", r.PostForm.Get("username"))
		assert.Equal(t, "s3cret", r.PostForm.Get("password"))
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "T1", "token_type": "bearer"})
	})

	c := newTestClient(t, mux)
	token, err := c.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "T1", token.AccessToken)
}

func TestLogin_UnauthorizedCarriesDetail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect username or password"})
	})

	c := newTestClient(t, mux)
	_, err := c.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.True(t, helpers.IsAuthentication(err))
	assert.Equal(t, "Incorrect username or password", helpers.UserMessage(err, "Login failed"))
}

func TestLogin_EmptyCredentialsSkipNetwork(t *testing.T) {
	called := false
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	_, err := c.Login(context.Background(), "", "pw")
	require.Error(t, err)
	assert.True(t, helpers.IsValidation(err))
	assert.False(t, called)
}

func TestCreateUser_PostsJSON(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
		var body models.MUserCreate
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@x.io", body.Email)
		assert.Equal(t, "alice", body.Username)
		writeJSON(w, http.StatusOK, models.MUser{ID: "u1", Username: body.Username, Email: body.Email})
	})

	c := newTestClient(t, mux)
	user, err := c.CreateUser(context.Background(), "a@x.io", "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
}

func TestCreateUser_ConflictIsPlainAPIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Username already registered"})
	})

	c := newTestClient(t, mux)
	_, err := c.CreateUser(context.Background(), "a@x.io", "alice", "pw")
	require.Error(t, err)
	assert.False(t, helpers.IsAuthentication(err))
	assert.Equal(t, "Username already registered", helpers.UserMessage(err, "Registration failed"))
}

func TestProfile_SendsBearer(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer T1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
			return
		}
		writeJSON(w, http.StatusOK, models.MUser{ID: "u1", Username: "alice", FavoriteStocks: []string{"AAPL"}})
	})

	c := newTestClient(t, mux)
	user, err := c.Profile(context.Background(), "T1")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, user.FavoriteStocks)

	_, err = c.Profile(context.Background(), "bad")
	assert.True(t, helpers.IsAuthentication(err))
}

func TestServerErrorIsNetworkError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "boom"})
	}))

	_, err := c.StockQuote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.True(t, helpers.IsNetwork(err))
}

// -----------------------------------------------------------------------------

func TestTopHeadlines_Formats(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/newsapi/top-headlines", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "business", r.URL.Query().Get("category"))
		assert.Equal(t, "us", r.URL.Query().Get("country"))
		io.WriteString(w, `{"status":"ok","totalResults":2,"articles":[
			{"source":{"id":null,"name":"Reuters"},"title":"Fed holds","description":"Rates unchanged","publishedAt":"2024-01-02T15:04:05Z"},
			{"source":{"name":"CNBC"},"title":"Oil up","description":null,"publishedAt":"2024-01-02T16:00:00Z"}]}`)
	})

	c := newTestClient(t, mux)
	news, err := c.TopHeadlines(context.Background(), "business", "us")
	require.NoError(t, err)
	require.Len(t, news, 2)
	assert.Equal(t, 0, news[0].ID)
	assert.Equal(t, "Fed holds", news[0].Headline)
	assert.Equal(t, "Reuters", news[0].Source)
	assert.Equal(t, 1, news[1].ID)
	assert.Equal(t, "No description available", news[1].Summary)
}

func TestStockQuote_DecodesDecimals(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/stock/AAPL", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"symbol":"AAPL","price":189.25,"change":-1.5}`)
	})

	c := newTestClient(t, mux)
	q, err := c.StockQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "189.25", q.Price.StringFixed(2))
	assert.Equal(t, "-1.50", q.Change.StringFixed(2))
}

func TestListNews_PassesCategory(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/news", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "earnings", r.URL.Query().Get("category"))
		writeJSON(w, http.StatusOK, []models.MNewsItem{{ID: "n1", Title: "Q3"}})
	})

	c := newTestClient(t, mux)
	items, err := c.ListNews(context.Background(), "earnings", 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "n1", items[0].ID)
}

// -----------------------------------------------------------------------------

func TestAuthenticatedCallsRequireToken(t *testing.T) {
	called := false
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	err := c.AddFavorite(context.Background(), "AAPL")
	assert.True(t, helpers.IsValidation(err))

	c.SetTokenProvider(staticToken(""))
	err = c.UpvotePost(context.Background(), "p1")
	assert.True(t, helpers.IsValidation(err))
	assert.False(t, called)
}

func TestFavorites_UseProviderToken(t *testing.T) {
	var methods []string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/me/favorite-stocks/TSLA", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer T9", r.Header.Get("Authorization"))
		methods = append(methods, r.Method)
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})

	c := newTestClient(t, mux)
	c.SetTokenProvider(staticToken("T9"))
	require.NoError(t, c.AddFavorite(context.Background(), "TSLA"))
	require.NoError(t, c.RemoveFavorite(context.Background(), "TSLA"))
	assert.Equal(t, []string{http.MethodPost, http.MethodDelete}, methods)
}

func TestFavoriteStocks_SkipsFailures(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/stocks/AAPL", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.MStock{ID: "s1", Symbol: "AAPL", Name: "Apple Inc."})
	})
	mux.HandleFunc("/api/stocks/ZZZZ", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Stock not found"})
	})

	c := newTestClient(t, mux)
	stocks := c.FavoriteStocks(context.Background(), &models.MUser{FavoriteStocks: []string{"ZZZZ", "AAPL"}})
	require.Len(t, stocks, 1)
	assert.Equal(t, "AAPL", stocks[0].Symbol)
}

// -----------------------------------------------------------------------------

func TestCreatePost_ParsesStocks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/forum/posts", func(w http.ResponseWriter, r *http.Request) {
		var body models.MNewPost
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"AAPL", "MSFT"}, body.Stocks)
		writeJSON(w, http.StatusOK, models.MForumPost{ID: "p1", Title: body.Title, Stocks: body.Stocks})
	})

	c := newTestClient(t, mux)
	c.SetTokenProvider(staticToken("T1"))
	post, err := c.CreatePost(context.Background(), "Earnings", "Thoughts?", " AAPL, ,MSFT ,")
	require.NoError(t, err)
	assert.Equal(t, "p1", post.ID)
}

func TestCreatePost_RequiresTitleAndContent(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())
	c.SetTokenProvider(staticToken("T1"))

	_, err := c.CreatePost(context.Background(), "", "body", "")
	require.Error(t, err)
	assert.Equal(t, "title is required", helpers.UserMessage(err, ""))

	_, err = c.AddComment(context.Background(), "p1", "   ")
	require.Error(t, err)
	assert.Equal(t, "content is required", helpers.UserMessage(err, ""))
}

func TestParseStocks(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"AAPL", []string{"AAPL"}},
		{" AAPL , MSFT,,", []string{"AAPL", "MSFT"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseStocks(tt.in), tt.in)
	}
}
