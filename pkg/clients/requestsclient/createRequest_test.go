package requestsclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/wfh-portal/pkg/core/model"
	"github.com/jakechorley/wfh-portal/pkg/gqlupload"
)

func TestCreateRequest_SendsMultipartBody(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0644))

	var decoded *gqlupload.Request
	var idempotencyKey string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		decoded, err = gqlupload.Decode(r, 1<<20)
		require.NoError(t, err)
		idempotencyKey = r.Header.Get(IdempotencyHeader)
		w.Write([]byte(`{"data":{"createRequest":{"success":200,"message":"ok"}}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), zap.NewNop())
	result, err := client.CreateRequest(context.Background(), model.Submission{
		StaffID:        140001,
		Type:           model.TypeAM,
		Reason:         "Childcare",
		Dates:          []string{"2024-09-01"},
		Files:          []model.Attachment{model.AttachmentFromPath(path), {Name: "note.txt", Data: []byte("hi")}},
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)

	assert.True(t, result.Truthy())
	assert.Equal(t, "200", result.SuccessString())
	assert.Equal(t, "ok", result.Message)
	assert.Equal(t, "key-1", idempotencyKey)

	require.NotNil(t, decoded)
	assert.Contains(t, decoded.Query, "createRequest(")

	var vars map[string]any
	require.NoError(t, json.Unmarshal(decoded.Variables, &vars))
	assert.Equal(t, float64(140001), vars["staffId"])
	assert.Equal(t, "Childcare", vars["reason"])
	assert.Equal(t, "AM", vars["type"])
	assert.Equal(t, []any{"2024-09-01"}, vars["date"])
	assert.Equal(t, []any{nil, nil}, vars["files"])

	uploads := decoded.Files("files")
	require.Len(t, uploads, 2)
	assert.Equal(t, "mc.pdf", uploads[0].Filename)
	assert.Equal(t, []byte("%PDF-1.4"), uploads[0].Data)
	assert.Equal(t, []byte("hi"), uploads[1].Data)
}

func TestCreateRequest_ApplicationRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"createRequest":{"success":false,"message":"Date already requested"}}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, zap.NewNop())
	result, err := client.CreateRequest(context.Background(), model.Submission{
		StaffID: 1, Type: model.TypePM, Reason: "x", Dates: []string{"2024-09-01"},
	})
	require.NoError(t, err)
	assert.False(t, result.Truthy())
	assert.Equal(t, "Date already requested", result.Message)
}

func TestCreateRequest_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(url, nil, zap.NewNop())
	_, err := client.CreateRequest(context.Background(), model.Submission{
		StaffID: 1, Type: model.TypeAM, Reason: "x", Dates: []string{"2024-09-01"},
	})
	assert.Error(t, err)
}

func TestCreateRequest_UnreadableAttachment(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, zap.NewNop())
	_, err := client.CreateRequest(context.Background(), model.Submission{
		StaffID: 1, Type: model.TypeAM, Reason: "x", Dates: []string{"2024-09-01"},
		Files: []model.Attachment{model.AttachmentFromPath(filepath.Join(t.TempDir(), "gone.pdf"))},
	})
	assert.ErrorContains(t, err, "gone.pdf")
	assert.False(t, called, "nothing is sent when the body cannot be built")
}

func TestSubordinatesRequestAndUpdateStatus(t *testing.T) {
	var lastVars map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		lastVars = body.Variables

		switch {
		case strings.Contains(body.Query, "subordinatesRequest("):
			w.Write([]byte(`{"data":{"subordinatesRequest":{"subordinatesRequest":[
				{"requestId":7,"staffId":2,"requestingStaffName":"Ann","date":"2024-09-01","type":"AM","status":"pending","files":["a.pdf"]}
			]}}}`))
		case strings.Contains(body.Query, "updateRequestStatus("):
			w.Write([]byte(`{"data":{"updateRequestStatus":{"success":true,"message":"updated"}}}`))
		default:
			http.Error(w, "unexpected query", http.StatusBadRequest)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, zap.NewNop())

	requests, err := client.SubordinatesRequest(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, 7, requests[0].RequestID)
	assert.Equal(t, model.StatusPending, requests[0].Status)
	assert.Equal(t, []string{"a.pdf"}, requests[0].Files)

	result, err := client.UpdateRequestStatus(context.Background(), 1, 7, model.StatusApproved, "")
	require.NoError(t, err)
	assert.True(t, result.Truthy())
	assert.Equal(t, "approved", lastVars["status"])
	assert.Nil(t, lastVars["remarks"])
}
