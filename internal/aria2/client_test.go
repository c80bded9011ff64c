package aria2

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcServer fakes the daemon: it records every decoded request and answers
// from the handler.
func rpcServer(t *testing.T, handler func(req rpcRequest) (any, *RPCError)) (*httptest.Server, *[]rpcRequest) {
	t.Helper()
	var seen []rpcRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		seen = append(seen, req)

		result, rpcErr := handler(req)
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
			w.WriteHeader(http.StatusBadRequest)
		} else {
			resp["result"] = result
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	return server, &seen
}

func newTestClient(url string) *Client {
	return NewClient(Options{RPCURL: url, Secret: "sekret"})
}

func TestCallCarriesSecretAndMethod(t *testing.T) {
	server, seen := rpcServer(t, func(req rpcRequest) (any, *RPCError) {
		return "ok", nil
	})
	defer server.Close()

	_, err := newTestClient(server.URL).Call(context.Background(), "getVersion")
	require.NoError(t, err)

	require.Len(t, *seen, 1)
	req := (*seen)[0]
	assert.Equal(t, "aria2.getVersion", req.Method)
	assert.Equal(t, "2.0", req.JSONRPC)
	assert.NotEmpty(t, req.ID)
	require.NotEmpty(t, req.Params)
	assert.Equal(t, "token:sekret", req.Params[0])
}

func TestAddURI(t *testing.T) {
	server, seen := rpcServer(t, func(req rpcRequest) (any, *RPCError) {
		return "2089b05ecca3d829", nil
	})
	defer server.Close()

	gid, err := newTestClient(server.URL).AddURI(context.Background(),
		[]string{"https://example.com/f.bin"},
		map[string]any{"dir": "/tmp", "out": "f.bin"},
	)
	require.NoError(t, err)
	assert.Equal(t, "2089b05ecca3d829", gid)

	req := (*seen)[0]
	require.Len(t, req.Params, 3)
	uris, ok := req.Params[1].([]any)
	require.True(t, ok, "second param must be the URI list")
	assert.Equal(t, "https://example.com/f.bin", uris[0])
}

func TestAddURIEmptyGID(t *testing.T) {
	server, _ := rpcServer(t, func(req rpcRequest) (any, *RPCError) {
		return "", nil
	})
	defer server.Close()

	_, err := newTestClient(server.URL).AddURI(context.Background(), []string{"u"}, nil)
	require.Error(t, err)
}

func TestTellStatusDecodesStringNumerics(t *testing.T) {
	server, seen := rpcServer(t, func(req rpcRequest) (any, *RPCError) {
		return map[string]any{
			"status":          "active",
			"totalLength":     "1000",
			"completedLength": "250",
			"downloadSpeed":   "50",
			"dir":             "/downloads",
			"files":           []map[string]string{{"path": "/downloads/f.bin"}},
		}, nil
	})
	defer server.Close()

	st, err := newTestClient(server.URL).TellStatus(context.Background(), "gid1")
	require.NoError(t, err)

	assert.Equal(t, "active", st.Status)
	assert.Equal(t, int64(1000), st.Total())
	assert.Equal(t, int64(250), st.Completed())
	assert.Equal(t, int64(50), st.Speed())
	require.Len(t, st.Files, 1)
	assert.Equal(t, "/downloads/f.bin", st.Files[0].Path)

	// Field selector rides along after the GID.
	req := (*seen)[0]
	require.Len(t, req.Params, 3)
	assert.Equal(t, "gid1", req.Params[1])
}

func TestRPCErrorSurfacesAsIs(t *testing.T) {
	server, _ := rpcServer(t, func(req rpcRequest) (any, *RPCError) {
		return nil, &RPCError{Code: 1, Message: "No such download for GID#deadbeef"}
	})
	defer server.Close()

	_, err := newTestClient(server.URL).TellStatus(context.Background(), "deadbeef")
	require.Error(t, err)

	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, 1, rpcErr.Code)
	assert.True(t, rpcErr.NotFound())
}

func TestRPCErrorNotFound(t *testing.T) {
	assert.True(t, (&RPCError{Message: "GID deadbeef is not found"}).NotFound())
	assert.True(t, (&RPCError{Message: "No such download for GID#x"}).NotFound())
	assert.False(t, (&RPCError{Message: "Unauthorized"}).NotFound())
}

func TestCallTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url).Call(context.Background(), "getVersion")
	require.Error(t, err)
	var rpcErr *RPCError
	assert.False(t, errors.As(err, &rpcErr), "transport failures must not look like daemon errors")
}

func TestVersion(t *testing.T) {
	server, _ := rpcServer(t, func(req rpcRequest) (any, *RPCError) {
		return map[string]any{"version": "1.37.0", "enabledFeatures": []string{"HTTPS"}}, nil
	})
	defer server.Close()

	v, err := newTestClient(server.URL).Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.37.0", v.Version)
}
