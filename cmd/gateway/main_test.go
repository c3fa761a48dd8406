package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fin-agents/internal/app"
	"fin-agents/internal/cache"
	"fin-agents/internal/config"
	"fin-agents/internal/llm"
	"fin-agents/internal/narrative"
	"fin-agents/internal/ratio"
	"fin-agents/internal/secrets"
	"fin-agents/internal/session"
	"fin-agents/internal/statement"
)

const balanceSheetCSV = "Item,Prior,Current\n" +
	"A. SHORT-TERM ASSETS,300,450\n" +
	"B. LONG-TERM ASSETS,700,550\n" +
	"TOTAL ASSETS,1000,1000\n" +
	"I. SHORT-TERM LIABILITIES,150,150\n"

func newTestDeps(client llm.Client, store secrets.Store) app.Deps {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return app.Deps{
		Config: config.Config{
			MaxUploadSize: 1024 * 1024, // 1MB for tests
		},
		Log:        log,
		Cache:      cache.NewNoOpCache(),
		Secrets:    store,
		Sessions:   session.NewManager(session.Options{MaxSessions: 10, TranscriptLimit: 50}, log),
		Statements: statement.NewService(cache.NewNoOpCache(), ratio.DefaultLabels(), 0, log),
		Narrative: &narrative.Adapter{
			Secrets:    store,
			SecretName: "GEMINI_API_KEY",
			NewClient:  llm.MockFactory(client, nil),
			Log:        log,
		},
	}
}

func createMultipartRequest(url, filename string, content []byte) (*http.Request, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	req := httptest.NewRequest(http.MethodPost, url, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req, nil
}

func serve(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func newSession(t *testing.T, h http.Handler) string {
	t.Helper()
	w := serve(t, h, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	require.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.NotEmpty(t, resp["session_id"])
	return resp["session_id"]
}

func TestSessionEndpoints(t *testing.T) {
	h := newRouter(newTestDeps(new(llm.MockClient), secrets.Static{}))
	id := newSession(t, h)

	w := serve(t, h, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var info sessionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&info))
	assert.Equal(t, id, info.SessionID)
	assert.False(t, info.HasStatement)
	assert.False(t, info.ChatReady)

	w = serve(t, h, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+id, nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(t, h, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(t, h, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+id, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadStatementHandler(t *testing.T) {
	tests := []struct {
		name          string
		filename      string
		content       []byte
		wantStatus    int
		checkResponse func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:       "successful upload",
			filename:   "bs.csv",
			content:    []byte(balanceSheetCSV),
			wantStatus: http.StatusOK,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var rep reportResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&rep))
				require.Len(t, rep.Rows, 4)
				assert.Equal(t, "A. SHORT-TERM ASSETS", rep.Rows[0].Label)
				require.NotNil(t, rep.Rows[0].GrowthPercent)
				assert.InDelta(t, 50.0, *rep.Rows[0].GrowthPercent, 1e-9)
				assert.True(t, rep.CurrentRatio.Available)
				assert.Equal(t, "2.00 times", rep.CurrentRatio.Prior.Display)
				assert.Equal(t, "3.00 times", rep.CurrentRatio.Current.Display)
				require.NotNil(t, rep.CurrentRatio.Delta)
				assert.InDelta(t, 1.0, *rep.CurrentRatio.Delta, 1e-9)
			},
		},
		{
			name:       "missing total assets",
			filename:   "bs.csv",
			content:    []byte("Item,Prior,Current\nCash,1,2\n"),
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "wrong column count",
			filename:   "bs.csv",
			content:    []byte("a,b\nc,d\n"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unsupported extension",
			filename:   "bs.pdf",
			content:    []byte("%PDF"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "file too large",
			filename:   "large.csv",
			content:    make([]byte, 2*1024*1024), // 2MB
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "liquidity items missing",
			filename:   "bs.csv",
			content:    []byte("Item,Prior,Current\nCash,100,150\nTOTAL ASSETS,1000,1200\n"),
			wantStatus: http.StatusOK,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var rep reportResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&rep))
				assert.False(t, rep.CurrentRatio.Available)
				assert.Equal(t, "N/A", rep.CurrentRatio.Current.Display)
				assert.Nil(t, rep.CurrentRatio.Current.Value)
				assert.Len(t, rep.Warnings, 1)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRouter(newTestDeps(new(llm.MockClient), secrets.Static{}))
			id := newSession(t, h)

			req, err := createMultipartRequest("/api/sessions/"+id+"/statement", tt.filename, tt.content)
			require.NoError(t, err)
			w := serve(t, h, req)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d. Body: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, w)
			}

			w = serve(t, h, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/statement", nil))
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, http.StatusOK, w.Code)
			} else {
				assert.Equal(t, http.StatusNotFound, w.Code)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		h := newRouter(newTestDeps(new(llm.MockClient), secrets.Static{}))
		id := newSession(t, h)
		req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/statement", nil)
		req.Header.Set("Content-Type", "multipart/form-data")
		w := serve(t, h, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown session", func(t *testing.T) {
		h := newRouter(newTestDeps(new(llm.MockClient), secrets.Static{}))
		req, err := createMultipartRequest("/api/sessions/nope/statement", "bs.csv", []byte(balanceSheetCSV))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, serve(t, h, req).Code)
	})
}

func TestAnalysisHandler(t *testing.T) {
	tests := []struct {
		name       string
		store      secrets.Store
		upload     bool
		setup      func(*llm.MockClient)
		wantStatus int
		wantFailed bool
		wantHTML   string
		wantText   string
	}{
		{
			name:   "successful analysis",
			store:  secrets.Static{"GEMINI_API_KEY": "key"},
			upload: true,
			setup: func(m *llm.MockClient) {
				m.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
					return strings.Contains(p, "| Current ratio (N) | 3.00 times |")
				})).Return("Liquidity **improved**.", nil).Once()
			},
			wantStatus: http.StatusOK,
			wantHTML:   "<strong>improved</strong>",
			wantText:   "Liquidity **improved**.",
		},
		{
			name:       "missing credential is a diagnostic",
			store:      secrets.Static{},
			upload:     true,
			wantStatus: http.StatusOK,
			wantFailed: true,
			wantText:   "Error: API key 'GEMINI_API_KEY' not found",
		},
		{
			name:   "remote failure is a diagnostic",
			store:  secrets.Static{"GEMINI_API_KEY": "bad"},
			upload: true,
			setup: func(m *llm.MockClient) {
				m.On("Generate", mock.Anything, mock.Anything).
					Return("", &llm.Error{Category: llm.CategoryAuthQuota, Status: 403, Err: errors.New("denied")}).Once()
			},
			wantStatus: http.StatusOK,
			wantFailed: true,
			wantText:   "Error calling the AI service",
		},
		{
			name:       "no statement uploaded",
			store:      secrets.Static{"GEMINI_API_KEY": "key"},
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(llm.MockClient)
			if tt.setup != nil {
				tt.setup(m)
			}
			h := newRouter(newTestDeps(m, tt.store))
			id := newSession(t, h)

			if tt.upload {
				req, err := createMultipartRequest("/api/sessions/"+id+"/statement", "bs.csv", []byte(balanceSheetCSV))
				require.NoError(t, err)
				require.Equal(t, http.StatusOK, serve(t, h, req).Code)
			}

			w := serve(t, h, httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/statement/analysis", nil))
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp analysisResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.wantFailed, resp.Failed)
			assert.Contains(t, resp.Narrative, tt.wantText)
			if tt.wantHTML != "" {
				assert.Contains(t, resp.NarrativeHTML, tt.wantHTML)
			} else {
				assert.Empty(t, resp.NarrativeHTML)
			}
			m.AssertExpectations(t)
		})
	}
}

type chatResponse struct {
	Ready      bool           `json:"ready"`
	Reply      string         `json:"reply"`
	Transcript []session.Turn `json:"transcript"`
}

func decodeChat(t *testing.T, w *httptest.ResponseRecorder) chatResponse {
	t.Helper()
	var resp chatResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestChatFlow(t *testing.T) {
	m := new(llm.MockClient)
	m.On("Chat", mock.Anything, narrative.SystemInstruction, mock.Anything, "What is a current ratio?").
		Return("It compares short-term assets to short-term liabilities.", nil).Once()
	m.On("Chat", mock.Anything, narrative.SystemInstruction, mock.Anything, "And a quick ratio?").
		Return("", errors.New("connection reset")).Once()

	h := newRouter(newTestDeps(m, secrets.Static{"GEMINI_API_KEY": "key"}))
	id := newSession(t, h)
	base := "/api/sessions/" + id + "/chat"

	send := func(text string) *httptest.ResponseRecorder {
		body, err := json.Marshal(map[string]string{"text": text})
		require.NoError(t, err)
		return serve(t, h, httptest.NewRequest(http.MethodPost, base+"/messages", bytes.NewReader(body)))
	}

	// sending before the chat is started is rejected without touching the transcript
	assert.Equal(t, http.StatusConflict, send("hello").Code)

	w := serve(t, h, httptest.NewRequest(http.MethodPost, base, nil))
	require.Equal(t, http.StatusOK, w.Code)
	started := decodeChat(t, w)
	assert.True(t, started.Ready)
	require.Len(t, started.Transcript, 1)
	assert.Equal(t, narrative.Greeting, started.Transcript[0].Content)

	// starting again reuses the conversation
	w = serve(t, h, httptest.NewRequest(http.MethodPost, base, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeChat(t, w).Transcript, 1)

	w = send("What is a current ratio?")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeChat(t, w)
	assert.Equal(t, "It compares short-term assets to short-term liabilities.", resp.Reply)
	assert.Len(t, resp.Transcript, 3)

	w = send("And a quick ratio?")
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeChat(t, w)
	require.Len(t, resp.Transcript, 5)
	assert.Equal(t, session.RoleUser, resp.Transcript[3].Role)
	assert.Equal(t, session.RoleAssistant, resp.Transcript[4].Role)
	assert.Contains(t, resp.Transcript[4].Content, "An error occurred during the chat")

	w = serve(t, h, httptest.NewRequest(http.MethodGet, base+"/messages", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeChat(t, w).Transcript, 5)

	m.AssertExpectations(t)
}

func TestSendMessageValidation(t *testing.T) {
	h := newRouter(newTestDeps(new(llm.MockClient), secrets.Static{"GEMINI_API_KEY": "key"}))
	id := newSession(t, h)
	url := "/api/sessions/" + id + "/chat/messages"

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", "{"},
		{"empty text", `{"text": ""}`},
		{"text too long", `{"text": "` + strings.Repeat("x", 4001) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, h, httptest.NewRequest(http.MethodPost, url, strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestStartChatWithoutCredential(t *testing.T) {
	h := newRouter(newTestDeps(new(llm.MockClient), secrets.Static{}))
	id := newSession(t, h)

	w := serve(t, h, httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/chat", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = serve(t, h, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id, nil))
	var info sessionResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&info))
	assert.False(t, info.ChatReady)
	assert.Zero(t, info.Turns)
}

func TestFinite(t *testing.T) {
	assert.Nil(t, finite(math.Inf(1)))
	assert.Nil(t, finite(math.NaN()))
	require.NotNil(t, finite(1.5))
	assert.Equal(t, 1.5, *finite(1.5))
}
