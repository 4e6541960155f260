package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/prodtests/internal/prodtest"
)

type recorded struct {
	method string
	path   string
	body   string
	ctype  string
}

func newBackend(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *[]recorded) {
	t.Helper()
	var reqs []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		reqs = append(reqs, recorded{r.Method, r.URL.Path, string(body), r.Header.Get("Content-Type")})
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/webds/"), &reqs
}

func TestClient_URL(t *testing.T) {
	c := NewClient("http://host:8888/webds/")
	require.Equal(t, "http://host:8888/webds", c.BaseURL())
	require.Equal(t, "http://host:8888/webds/production-tests/S3908-15", c.URL("production-tests", "S3908-15"))
	require.Equal(t, "http://host:8888/webds/a%20b/c", c.URL("/a b/", "c"))
	require.Equal(t, "http://host:8888/webds/production-tests", c.FeedURL())
	require.Equal(t, DefaultBaseURL, NewClient("").BaseURL())
}

func TestFetchRepository(t *testing.T) {
	c, reqs := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"common":["Attn"],"lib":["Noise"],"sets":[{"id":"s1","name":"Quick","tests":["Noise"]}],"settings":{"reflash":{"enable":false}}}`))
	})

	repo, err := c.FetchRepository(context.Background(), "S3908-15")
	require.NoError(t, err)
	require.Equal(t, []string{"Attn", "Noise"}, repo.Library())
	require.Equal(t, "Quick", repo.Sets[0].Name)
	require.Equal(t, http.MethodGet, (*reqs)[0].method)
	require.Equal(t, "/webds/production-tests/S3908-15", (*reqs)[0].path)
}

func TestFetchRepository_Empty(t *testing.T) {
	c, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.FetchRepository(context.Background(), "S3908-15")
	require.ErrorIs(t, err, ErrNoTests)
	var nt *NoTestsError
	require.True(t, errors.As(err, &nt))
	require.Equal(t, "tests not available for S3908-15", err.Error())
}

func TestFetchRepository_StatusError(t *testing.T) {
	c, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.FetchRepository(context.Background(), "X")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, 500, se.Code)
	require.Equal(t, http.MethodGet, se.Method)
	require.Equal(t, "/webds/production-tests/X", se.Path)
	require.Contains(t, se.Error(), "boom")
}

func TestCommitSets(t *testing.T) {
	c, reqs := newBackend(t, func(w http.ResponseWriter, r *http.Request) {})

	sets := []prodtest.TestSet{{ID: "s1", Name: "Quick", Tests: []string{"a", "b"}}}
	require.NoError(t, c.CommitSets(context.Background(), "S3908-15", sets))

	got := (*reqs)[0]
	require.Equal(t, http.MethodPut, got.method)
	require.Equal(t, "application/json", got.ctype)
	require.JSONEq(t, `[{"id":"s1","name":"Quick","tests":["a","b"]}]`, got.body)

	require.NoError(t, c.CommitSets(context.Background(), "S3908-15", nil))
	require.JSONEq(t, `[]`, (*reqs)[1].body)
}

func TestCommitSets_NewSetSendsEmptyArray(t *testing.T) {
	c, reqs := newBackend(t, func(w http.ResponseWriter, r *http.Request) {})

	sets, set := prodtest.AddSet(nil)
	require.NoError(t, c.CommitSets(context.Background(), "S3908-15", prodtest.CloneSets(sets)))

	require.JSONEq(t, `[{"id":"`+set.ID+`","name":"Test Set","tests":[]}]`, (*reqs)[0].body)
}

func TestCommitSettings(t *testing.T) {
	c, reqs := newBackend(t, func(w http.ResponseWriter, r *http.Request) {})

	repo := &prodtest.Repository{Common: []string{"a"}, Lib: []string{}, Sets: []prodtest.TestSet{}}
	repo.Settings.Reflash = &prodtest.Reflash{Enable: true, File: "fw.hex"}
	require.NoError(t, c.CommitSettings(context.Background(), "P", repo))

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte((*reqs)[0].body), &body))
	require.JSONEq(t, `{"reflash":{"enable":true,"file":"fw.hex"}}`, string(body["settings"]))
}

func TestStartRun(t *testing.T) {
	c, reqs := newBackend(t, func(w http.ResponseWriter, r *http.Request) {})

	require.NoError(t, c.StartRun(context.Background(), "P", prodtest.AllTests()))
	require.NoError(t, c.StartRun(context.Background(), "P", prodtest.ByID("s1")))

	require.Equal(t, http.MethodPost, (*reqs)[0].method)
	require.JSONEq(t, `{"test":"all"}`, (*reqs)[0].body)
	require.JSONEq(t, `{"test":"s1"}`, (*reqs)[1].body)
}

func TestUpload(t *testing.T) {
	var gotName, gotContent, gotLocation string
	c, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotLocation = r.FormValue("location")
		f, hdr, err := r.FormFile("files")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		gotName, gotContent = hdr.Filename, string(data)
	})

	err := c.Upload(context.Background(), "fw.ihex", strings.NewReader(":00000001FF"), "")
	require.NoError(t, err)
	require.Equal(t, "fw.ihex", gotName)
	require.Equal(t, ":00000001FF", gotContent)
	require.Equal(t, "/tmp", gotLocation)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	c, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)
	c.timeout = 20 * time.Millisecond

	err := c.StartRun(context.Background(), "P", prodtest.AllTests())
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
