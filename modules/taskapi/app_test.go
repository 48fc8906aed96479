package taskapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/example/task-tracker/modules/audit"
	"github.com/example/task-tracker/modules/task"
	"github.com/example/task-tracker/token"
	"github.com/go-monolith/mono"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testNATSPort = 18223

// startService runs the task service modules inside a mono application so
// requests cross the service container the way they do in production.
func startService(t *testing.T) *fixture {
	t.Helper()

	app, err := mono.NewMonoApplication(
		mono.WithLogLevel(mono.LogLevelError),
		mono.WithNATSPort(testNATSPort),
	)
	require.NoError(t, err)

	codec := token.NewCodec(token.Config{SecretKey: "test-secret", Issuer: "test", TTL: time.Hour})
	api := NewModule(Config{Addr: "127.0.0.1:0", RequestTimeout: 5 * time.Second}, codec)

	app.Register(audit.NewModule(100))
	app.Register(task.NewModule(task.Config{StoreDriver: task.DriverSQLite, DBPath: ":memory:"}))
	app.Register(api)

	require.NoError(t, app.Start(context.Background()))
	t.Cleanup(func() {
		_ = app.Stop(context.Background())
	})
	require.NotNil(t, api.app)

	return &fixture{app: api.app, codec: codec}
}

func TestService_OwnershipAcrossContainer(t *testing.T) {
	f := startService(t)
	ann := f.tokenFor(t, "ann-id")
	bob := f.tokenFor(t, "bob-id")

	status, body := f.do(t, http.MethodPost, "/tasks", `{"title":"Write report","userId":"bob-id"}`, ann)
	require.Equal(t, http.StatusCreated, status, string(body))
	created := decodeTask(t, body)
	assert.Equal(t, "ann-id", created.UserID)
	assert.Equal(t, "TODO", created.Status)

	status, body = f.do(t, http.MethodGet, "/tasks/"+created.ID, "", bob)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, string(body), `"not_found"`)

	status, _ = f.do(t, http.MethodPut, "/tasks/"+created.ID, `{"status":"DONE"}`, bob)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = f.do(t, http.MethodGet, "/tasks", "", bob)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))

	status, body = f.do(t, http.MethodPut, "/tasks/"+created.ID, `{"status":"DONE"}`, ann)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "DONE", decodeTask(t, body).Status)

	status, _ = f.do(t, http.MethodDelete, "/tasks/"+created.ID, "", ann)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = f.do(t, http.MethodDelete, "/tasks/"+created.ID, "", ann)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestService_ActivityIsPerUser(t *testing.T) {
	f := startService(t)
	ann := f.tokenFor(t, "ann-id")
	bob := f.tokenFor(t, "bob-id")

	status, body := f.do(t, http.MethodPost, "/tasks", `{"title":"Ann's task"}`, ann)
	require.Equal(t, http.StatusCreated, status, string(body))
	created := decodeTask(t, body)

	status, _ = f.do(t, http.MethodDelete, "/tasks/"+created.ID, "", ann)
	require.Equal(t, http.StatusNoContent, status)

	var entries []ActivityResponse
	require.Eventually(t, func() bool {
		status, body := f.do(t, http.MethodGet, "/activity", "", ann)
		if status != http.StatusOK {
			return false
		}
		entries = decodeActivity(t, body)
		return len(entries) == 2
	}, 5*time.Second, 50*time.Millisecond)

	assert.Equal(t, "created", entries[0].Action)
	assert.Equal(t, "deleted", entries[1].Action)
	assert.Equal(t, created.ID, entries[0].TaskID)

	status, body = f.do(t, http.MethodGet, "/activity", "", bob)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))
}
