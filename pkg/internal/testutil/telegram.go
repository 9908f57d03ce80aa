package testutil

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"

	telegram "github.com/go-telegram/bot"
)

type RecordedRequest struct {
	Path        string
	Method      string
	ContentType string
	Body        []byte
}

// MockTelegramClient records every request the bot client issues and
// answers with a canned OK payload.
type MockTelegramClient struct {
	Requests []RecordedRequest
	Response string
}

func NewMockTelegramClient() *MockTelegramClient {
	return &MockTelegramClient{
		Response: `{"ok":true,"result":{}}`,
	}
}

func (m *MockTelegramClient) Do(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		if err := req.Body.Close(); err != nil {
			return nil, fmt.Errorf("failed to close request body: %w", err)
		}
		body = data
	}
	m.Requests = append(m.Requests, RecordedRequest{
		Path:        req.URL.Path,
		Method:      req.Method,
		ContentType: req.Header.Get("Content-Type"),
		Body:        body,
	})

	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(m.Response)),
		Header:     make(http.Header),
	}, nil
}

// FormValue extracts a multipart form field from the i-th recorded
// request.
func (m *MockTelegramClient) FormValue(t *testing.T, index int, field string) (string, bool) {
	t.Helper()
	if index < 0 || index >= len(m.Requests) {
		t.Fatalf("request index %d out of range (%d recorded)", index, len(m.Requests))
	}
	req := m.Requests[index]

	mediaType, params, err := mime.ParseMediaType(req.ContentType)
	if err != nil {
		t.Fatalf("failed to parse media type: %v", err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		t.Fatalf("unexpected media type: %s", mediaType)
	}

	reader := multipart.NewReader(bytes.NewReader(req.Body), params["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read multipart part: %v", err)
		}
		if part.FormName() == field {
			data, err := io.ReadAll(part)
			if err != nil {
				t.Fatalf("failed to read %q part: %v", field, err)
			}
			return string(data), true
		}
	}
	return "", false
}

// LastMessageText returns the "text" field of the most recent request.
func (m *MockTelegramClient) LastMessageText(t *testing.T) string {
	t.Helper()
	if len(m.Requests) == 0 {
		t.Fatalf("expected at least one recorded request")
	}
	text, ok := m.FormValue(t, len(m.Requests)-1, "text")
	if !ok {
		t.Fatalf("text field not found in request")
	}
	return text
}

func NewTestBot(t *testing.T, client *MockTelegramClient) *telegram.Bot {
	t.Helper()
	b, err := telegram.New("test-token",
		telegram.WithSkipGetMe(),
		telegram.WithHTTPClient(time.Second, client),
	)
	if err != nil {
		t.Fatalf("failed to create test bot: %v", err)
	}
	return b
}
