package employeeclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAssignManagerAndTransferRequests(t *testing.T) {
	var vars map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		vars = body.Variables

		if strings.Contains(body.Query, "assignManager(") {
			w.Write([]byte(`{"data":{"assignManager":{"success":true,"message":"Manager assigned"}}}`))
			return
		}
		w.Write([]byte(`{"data":{"transferRequests":{"transferRequests":[
			{"transferId":1,"staffId":11,"staffName":"Ann","fromManagerId":10,"toManagerId":20,"toManagerName":"Zed","status":"completed"}
		]}}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, zap.NewNop())

	result, err := client.AssignManager(context.Background(), 11, 20, 1)
	require.NoError(t, err)
	assert.True(t, result.Truthy())
	assert.Equal(t, float64(20), vars["managerId"])
	assert.Equal(t, float64(1), vars["requestedBy"])

	transfers, err := client.TransferRequests(context.Background(), 11)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, "Zed", transfers[0].ToManagerName)
	assert.Equal(t, 10, transfers[0].FromManagerID)
}
