package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestPostFormSendsValues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "Jane", r.PostForm.Get("name"))
		assert.Equal(t, []string{"red", "blue"}, r.PostForm["colors[]"])
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(DefaultConfig(), testLogger())
	resp, err := client.PostForm(context.Background(), server.URL, url.Values{
		"name":     {"Jane"},
		"colors[]": {"red", "blue"},
	})
	require.NoError(t, err)
	assert.True(t, resp.IsSuccess())
}

func TestPostFormDoesNotFollowRedirects(t *testing.T) {
	followed := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/landing" {
			followed = true
			return
		}
		http.Redirect(w, r, "/landing", http.StatusFound)
	}))
	defer server.Close()

	client := NewClient(DefaultConfig(), testLogger())
	resp, err := client.PostForm(context.Background(), server.URL, url.Values{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.False(t, resp.IsSuccess())
	assert.False(t, followed)
}

func TestPostFormTLSVerification(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	strict := NewClient(DefaultConfig(), testLogger())
	_, err := strict.PostForm(context.Background(), server.URL, url.Values{})
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.InsecureSkipVerify = true
	lenient := NewClient(cfg, testLogger())
	resp, err := lenient.PostForm(context.Background(), server.URL, url.Values{})
	require.NoError(t, err)
	assert.True(t, resp.IsSuccess())
}

func TestEncodeValues(t *testing.T) {
	values := EncodeValues(map[string]any{
		"name":        "Jane",
		"colors":      []string{"red", "blue"},
		"attachments": []int64{5, 7},
		"agree":       true,
		"address":     map[string]any{"city": "Lyon"},
		"age":         42.0,
		"notes":       nil,
	})

	assert.Equal(t, "Jane", values.Get("name"))
	assert.Equal(t, []string{"red", "blue"}, values["colors[]"])
	assert.Equal(t, []string{"5", "7"}, values["attachments[]"])
	assert.Equal(t, "1", values.Get("agree"))
	assert.Equal(t, "Lyon", values.Get("address[city]"))
	assert.Equal(t, "42", values.Get("age"))
	assert.Equal(t, []string{""}, values["notes"])
}
