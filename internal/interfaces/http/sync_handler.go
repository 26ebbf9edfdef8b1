package http

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	infra "github.com/pot-code/learn-progress/internal/infrastructure"
	"github.com/pot-code/learn-progress/internal/infrastructure/validate"
	"github.com/pot-code/learn-progress/internal/usecase"
)

// SyncHandler offline sync control and connectivity reports
type SyncHandler struct {
	Sync   *usecase.SyncController
	Prober *usecase.ConnectivityProber
}

// NewSyncHandler ...
func NewSyncHandler(Sync *usecase.SyncController, Prober *usecase.ConnectivityProber) *SyncHandler {
	return &SyncHandler{Sync: Sync, Prober: Prober}
}

type connectivityBody struct {
	Online *bool `json:"online"`
}

// HandleGetSync ...
func (sh *SyncHandler) HandleGetSync(c echo.Context) error {
	sh.Sync.HasPendingUpdates(c.Request().Context())
	return c.JSON(http.StatusOK, sh.Sync.State())
}

// HandleSync flush the pending queue now
func (sh *SyncHandler) HandleSync(c echo.Context) error {
	if err := sh.Sync.SyncPendingProgress(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sh.Sync.State())
}

// HandleConnectivity connectivity observed by the UI, going online triggers a sync
func (sh *SyncHandler) HandleConnectivity(c echo.Context) error {
	body := new(connectivityBody)
	if err := c.Bind(body); err != nil || body.Online == nil {
		return c.JSON(http.StatusBadRequest, NewRESTValidationError(http.StatusBadRequest, "Failed to validate params",
			[]*validate.FieldError{validate.NewFieldError("online", "online is required")}))
	}
	sh.Prober.Report(*body.Online)
	return c.NoContent(http.StatusAccepted)
}

// HandleSyncStream push sync state to the client on every change
func (sh *SyncHandler) HandleSyncStream(ctx context.Context, conn *websocket.Conn) error {
	updates, unsubscribe := sh.Sync.Subscribe()
	defer unsubscribe()

	if err := infra.WriteJSON(conn, sh.Sync.State()); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case state := <-updates:
			if err := infra.WriteJSON(conn, state); err != nil {
				return err
			}
		}
	}
}
