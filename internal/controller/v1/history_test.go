package v1

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endfieldpass/backend/internal/constant"
	"github.com/endfieldpass/backend/internal/model"
	"github.com/endfieldpass/backend/internal/repo"
	"github.com/endfieldpass/backend/internal/server/svr"
	"github.com/endfieldpass/backend/internal/service"
)

func TestHistoryExportDownload(t *testing.T) {
	sessions := repo.NewMemorySession()
	_, err := sessions.Create(context.Background(), &model.ImportSession{
		ServerID: constant.DefaultServerID,
		Lang:     constant.DefaultLang,
		Status:   constant.SessionStatusDone,
		Pulls: []*model.Pull{
			{PoolID: "standard", CharName: "Bob", Rarity: 5, SeqID: 2},
		},
	})
	require.NoError(t, err)

	app := fiber.New()
	v1, _ := svr.CreateEndpointGroups(app)
	RegisterHistory(v1, service.NewCodecService(sessions))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/history/export", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	disposition := resp.Header.Get(fiber.HeaderContentDisposition)
	assert.Contains(t, disposition, "attachment")
	assert.Contains(t, disposition, "endfieldpass-history-")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	// the attachment is meant to be readable in an editor, so it has to be
	// indented rather than a single compact line
	assert.Contains(t, string(body), "\n  \"schema_version\": 1")
	assert.Greater(t, strings.Count(string(body), "\n"), 1)

	var payload model.ExportPayload
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, 1, payload.SessionCount)
	assert.Equal(t, 1, payload.PullCount)
}
