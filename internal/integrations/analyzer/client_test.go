package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"health-companion/internal/domain"
)

// fakeGetter is a minimal paramstore.Getter stub for use within this package.
type fakeGetter struct {
	val    string
	err    error
	onCall func()
}

func (f *fakeGetter) GetParameter(_ context.Context, _ string) (string, error) {
	if f.onCall != nil {
		f.onCall()
	}
	return f.val, f.err
}

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithHTTPClient(&http.Client{Timeout: 2 * time.Second})}, opts...)
	c, err := NewClient(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

// ---------------------------------------------------------------------------
// NewClient
// ---------------------------------------------------------------------------

func TestNewClient_EmptyBaseURL(t *testing.T) {
	_, err := NewClient("  ")
	require.ErrorContains(t, err, "base URL")
}

func TestNewClient_TrimsBaseURL(t *testing.T) {
	c, err := NewClient("http://localhost:5000/")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:5000", c.baseURL)
	require.Nil(t, c.getter)
}

func TestNewClient_ParamStoreNeedsPrefix(t *testing.T) {
	_, err := NewClient("http://x", WithParamStore(&fakeGetter{}, " / "))
	require.ErrorContains(t, err, "prefix")
}

func TestWithTimeout(t *testing.T) {
	c, err := NewClient("http://x", WithTimeout(5*time.Second))
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, c.httpClient.Timeout)

	c, err = NewClient("http://x", WithTimeout(0))
	require.NoError(t, err)
	require.Equal(t, defaultTimeout, c.httpClient.Timeout)
}

// ---------------------------------------------------------------------------
// SendChat
// ---------------------------------------------------------------------------

func TestSendChat_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, chatPath, r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Empty(t, r.Header.Get("Authorization"))
		var body chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "what does my hemoglobin mean?", body.Message)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"It is within range."}`))
	}))
	defer srv.Close()

	reply, err := newTestClient(t, srv).SendChat(context.Background(), "what does my hemoglobin mean?")
	require.NoError(t, err)
	require.Equal(t, "It is within range.", reply.Text)
	require.Nil(t, reply.Assessment)
}

func TestSendChat_WithAssessment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"see a doctor","risk_level":"High","risk_score":88}`))
	}))
	defer srv.Close()

	reply, err := newTestClient(t, srv).SendChat(context.Background(), "hi")
	require.NoError(t, err)
	require.NotNil(t, reply.Assessment)
	require.Equal(t, domain.RiskHigh, reply.Assessment.Level)
	require.Equal(t, 88, reply.Assessment.Score)
}

func TestSendChat_RemoteErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"model unavailable"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).SendChat(context.Background(), "hi")
	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	require.Equal(t, "model unavailable", remote.Message)
}

func TestSendChat_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).SendChat(context.Background(), "hi")
	require.ErrorContains(t, err, "empty chat response")
}

func TestSendChat_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not-a-json`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).SendChat(context.Background(), "hi")
	require.ErrorContains(t, err, "decode chat response")
}

func TestSendChat_Non200WithErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"message required"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).SendChat(context.Background(), "hi")
	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	require.Equal(t, http.StatusBadRequest, remote.StatusCode)
	require.Equal(t, "message required", remote.Message)
}

func TestSendChat_Non200PlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`upstream down`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).SendChat(context.Background(), "hi")
	var status *HTTPStatusError
	require.True(t, errors.As(err, &status))
	require.Equal(t, http.StatusBadGateway, status.HTTPStatusCode())
	require.Contains(t, err.Error(), "502")
}

func TestSendChat_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"response":"late"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}
	_, err := c.SendChat(context.Background(), "hi")
	require.Error(t, err)
}

func TestSendChat_NetworkError(t *testing.T) {
	c, err := NewClient("http://127.0.0.1:1", WithTimeout(100*time.Millisecond))
	require.NoError(t, err)
	_, err = c.SendChat(context.Background(), "hi")
	require.ErrorContains(t, err, "request failed")
}

// ---------------------------------------------------------------------------
// API token resolution
// ---------------------------------------------------------------------------

func TestSendChat_BearerTokenFetchedOnce(t *testing.T) {
	calls := 0
	g := &fakeGetter{val: `{"token":"sk-from-ssm"}`, onCall: func() { calls++ }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sk-from-ssm", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"response":"ok"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, WithParamStore(g, "/health/"))
	require.Equal(t, "/health/api-token", c.tokenParameterName())
	for i := 0; i < 3; i++ {
		_, err := c.SendChat(context.Background(), "hi")
		require.NoError(t, err)
	}
	require.Equal(t, 1, calls, "SSM must only be called once per process lifetime")
}

func TestSendChat_TokenError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent without a token")
	}))
	defer srv.Close()

	c := newTestClient(t, srv, WithParamStore(&fakeGetter{err: errors.New("ssm unavailable")}, "/health"))
	_, err := c.SendChat(context.Background(), "hi")
	require.ErrorContains(t, err, "ssm unavailable")
}

func TestFetchAPIKey(t *testing.T) {
	cases := []struct {
		name    string
		getter  Getter
		param   string
		want    string
		wantErr string
	}{
		{name: "json token", getter: &fakeGetter{val: `{"token":"sk"}`}, param: "/p/api-token", want: "sk"},
		{name: "missing field", getter: &fakeGetter{val: `{"other":"v"}`}, param: "/p/api-token", wantErr: "API token is empty"},
		{name: "malformed", getter: &fakeGetter{val: `{"broken`}, param: "/p/api-token", wantErr: "unmarshal"},
		{name: "getter error", getter: &fakeGetter{err: errors.New("boom")}, param: "/p/api-token", wantErr: "boom"},
		{name: "nil getter", getter: nil, param: "/p/api-token", wantErr: "nil"},
		{name: "empty name", getter: &fakeGetter{val: `{"token":"sk"}`}, param: " ", wantErr: "empty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := fetchAPIKeyFromParamStore(context.Background(), tc.getter, tc.param)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

// ---------------------------------------------------------------------------
// AnalyzeReports
// ---------------------------------------------------------------------------

func TestAnalyzeReports_SendsMultipartFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, analyzePath, r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File[filesField]
		require.Len(t, files, 2)
		require.Equal(t, "jan.pdf", files[0].Filename)
		require.Equal(t, "feb.pdf", files[1].Filename)
		f, err := files[1].Open()
		require.NoError(t, err)
		content, err := io.ReadAll(f)
		require.NoError(t, err)
		require.Equal(t, "feb-bytes", string(content))

		_, _ = w.Write([]byte(`{
			"reports": [
				{"filename":"jan.pdf","risk_level":"Low","risk_score":20,"values":{"hemoglobin":13.5}},
				{"filename":"feb.pdf","risk_level":"High","risk_score":86,"values":{"hemoglobin":9.1,"blood_sugar":null}}
			],
			"trends": {
				"overall": {"direction":"worsening","first_score":20,"latest_score":86,"change":66},
				"hemoglobin": {"first":13.5,"latest":9.1,"direction":"worsening"}
			}
		}`))
	}))
	defer srv.Close()

	batch, err := newTestClient(t, srv).AnalyzeReports(context.Background(), []domain.ReportFile{
		{Name: "jan.pdf", Content: []byte("jan-bytes")},
		{Name: "feb.pdf", Content: []byte("feb-bytes")},
	})
	require.NoError(t, err)
	require.Len(t, batch.Reports, 2)
	require.Equal(t, "jan.pdf", batch.Reports[0].Filename)
	require.Equal(t, 86, batch.Reports[1].Assessment.Score)
	_, ok := batch.Reports[1].Assessment.Value(domain.BloodSugar)
	require.False(t, ok)
	require.NotNil(t, batch.Trends)
	require.Equal(t, domain.Worsening, batch.Trends.Overall.Direction)
	require.Contains(t, batch.Trends.Metrics, domain.Hemoglobin)
	require.NotContains(t, batch.Trends.Metrics, domain.Cholesterol)
}

func TestAnalyzeReports_NoFiles(t *testing.T) {
	c, err := NewClient("http://127.0.0.1:1")
	require.NoError(t, err)
	_, err = c.AnalyzeReports(context.Background(), nil)
	require.ErrorContains(t, err, "no files")
}

func TestAnalyzeReports_RemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Unsupported file type: notes.txt"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).AnalyzeReports(context.Background(), []domain.ReportFile{{Name: "notes.txt"}})
	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	require.Equal(t, "Unsupported file type: notes.txt", remote.Message)
}

func TestAnalyzeReports_500(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).AnalyzeReports(context.Background(), []domain.ReportFile{{Name: "a.pdf"}})
	require.ErrorContains(t, err, "500")
}

func TestAnalyzeReports_MalformedTrend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"reports":[{"filename":"a","risk_level":"Low","risk_score":1}],"trends":{"overall":"up"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).AnalyzeReports(context.Background(), []domain.ReportFile{{Name: "a"}})
	require.ErrorContains(t, err, "decode overall trend")
}
