package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/xxh3"

	"github.com/totegamma/lobbywatch"
	"github.com/totegamma/lobbywatch/internal/domain"
	"github.com/totegamma/lobbywatch/internal/present/rest/presenter"
	"github.com/totegamma/lobbywatch/internal/service"
	"github.com/totegamma/lobbywatch/internal/usecase"
)

// RealtimeSource streams player events for the websocket endpoint.
type RealtimeSource interface {
	Realtime(ctx context.Context, filters <-chan []lobbywatch.SteamID, output chan<- lobbywatch.Event)
}

var _ RealtimeSource = (*service.SignalService)(nil)

type Handler struct {
	player *usecase.PlayerUsecase
	record *usecase.RecordUsecase
	signal RealtimeSource
}

func NewHandler(
	player *usecase.PlayerUsecase,
	record *usecase.RecordUsecase,
	signal RealtimeSource,
) *Handler {
	return &Handler{
		player: player,
		record: record,
		signal: signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/mac/game/v1", h.handleGame)
	e.GET("/mac/game/v1/players/:steamid", h.handlePlayer)
	e.PUT("/mac/user/v1/:steamid", h.handleUpdateUser)
	e.POST("/mac/ingest/v1/status", h.handleIngestStatus)
	e.POST("/mac/ingest/v1/g15", h.handleIngestG15)
	e.GET("/mac/records/v1", h.handleRecords)
	e.GET("/mac/records/v1/:steamid", h.handleRecord)
	e.PUT("/mac/records/v1/:steamid", h.handleImportRecord)
	e.GET("/realtime", h.handleRealtime)
}

type gameResponse struct {
	User    *lobbywatch.SteamID `json:"user"`
	Players []domain.Player     `json:"players"`
}

func (h *Handler) handleGame(c echo.Context) error {
	body, err := json.Marshal(gameResponse{
		User:    h.player.User(),
		Players: h.player.Snapshot(),
	})
	if err != nil {
		return presenter.InternalError(c, err)
	}

	etag := fmt.Sprintf(`"%016x"`, xxh3.Hash(body))
	c.Response().Header().Set("ETag", etag)
	if c.Request().Header.Get("If-None-Match") == etag {
		return c.NoContent(http.StatusNotModified)
	}
	return c.JSONBlob(http.StatusOK, body)
}

func parseSteamIDParam(c echo.Context) (lobbywatch.SteamID, error) {
	return lobbywatch.ParseSteamID(c.Param("steamid"))
}

func (h *Handler) handlePlayer(c echo.Context) error {
	steamID, err := parseSteamIDParam(c)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	player, err := h.player.Get(steamID)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, player)
}

func (h *Handler) handleUpdateUser(c echo.Context) error {
	ctx := c.Request().Context()

	steamID, err := parseSteamIDParam(c)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	var update usecase.PlayerUpdate
	if err := c.Bind(&update); err != nil {
		return presenter.BadRequest(c, err)
	}

	player, err := h.player.UpdatePlayer(ctx, steamID, update)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, player)
}

func (h *Handler) handleIngestStatus(c echo.Context) error {
	ctx := c.Request().Context()

	var status domain.StatusLine
	if err := c.Bind(&status); err != nil {
		return presenter.BadRequest(c, err)
	}
	if status.SteamID == 0 {
		return presenter.BadRequestMessage(c, "steamID64 is required")
	}

	if err := h.player.HandleStatusLine(ctx, status); err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleIngestG15(c echo.Context) error {
	ctx := c.Request().Context()

	var slots []json.RawMessage
	if err := c.Bind(&slots); err != nil {
		return presenter.BadRequest(c, err)
	}

	// a slot that fails to decode is dropped on its own
	dump := make([]domain.G15Player, 0, len(slots))
	skipped := 0
	for i, raw := range slots {
		var slot domain.G15Player
		if err := json.Unmarshal(raw, &slot); err != nil {
			log.Warn().Str("module", "rest").Int("slot", i).Err(err).Msg("Dropping g15 slot")
			skipped++
			continue
		}
		dump = append(dump, slot)
	}

	n, err := h.player.HandleG15(ctx, dump)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok", "players": n, "skipped": skipped})
}

func (h *Handler) handleRecords(c echo.Context) error {
	ctx := c.Request().Context()

	var verdict *domain.Verdict
	if q := c.QueryParam("verdict"); q != "" {
		v, err := domain.ParseVerdict(q)
		if err != nil {
			return presenter.BadRequest(c, err)
		}
		verdict = &v
	}

	records, err := h.record.List(ctx, verdict)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, records)
}

func (h *Handler) handleRecord(c echo.Context) error {
	ctx := c.Request().Context()

	steamID, err := parseSteamIDParam(c)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	record, err := h.record.Get(ctx, steamID)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, record)
}

func (h *Handler) handleImportRecord(c echo.Context) error {
	ctx := c.Request().Context()

	steamID, err := parseSteamIDParam(c)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	var record domain.PlayerRecord
	if err := c.Bind(&record); err != nil {
		return presenter.BadRequest(c, err)
	}
	if record.SteamID != 0 && record.SteamID != steamID {
		return presenter.BadRequestMessage(c, "steamID64 does not match path")
	}
	record.SteamID = steamID

	if err := h.record.Save(ctx, record); err != nil {
		return presenter.InternalError(c, err)
	}

	live, err := h.player.ApplyRecord(ctx, record)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok", "live": live})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Request struct {
	Type     string               `json:"type"`
	SteamIDs []lobbywatch.SteamID `json:"steamIDs"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Str("module", "socket").Msg("Failed to upgrade WebSocket")
		return err
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	filters := make(chan []lobbywatch.SteamID)
	output := make(chan lobbywatch.Event)
	done := make(chan struct{})

	go func() {
		defer close(done)
		h.signal.Realtime(ctx, filters, output)
	}()
	defer func() {
		cancel()
		<-done
	}()

	quit := make(chan struct{})

	go func() {
		defer close(quit)
		for {
			var req Request
			err := ws.ReadJSON(&req)
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Debug().Err(err).Str("module", "socket").Msg("WebSocket closed")
				}
				return
			}

			switch req.Type {
			case "listen":
				select {
				case filters <- req.SteamIDs:
				case <-ctx.Done():
					return
				}
				log.Debug().Str("module", "socket").Int("steamIDs", len(req.SteamIDs)).Msg("Socket subscribe")
			case "h": // heartbeat
			default:
				log.Info().Str("module", "socket").Str("type", req.Type).Msg("Unknown request type")
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case <-done:
			return nil
		case event := <-output:
			if err := ws.WriteJSON(event); err != nil {
				log.Error().Err(err).Str("module", "socket").Msg("Error writing message")
				return nil
			}
		}
	}
}
