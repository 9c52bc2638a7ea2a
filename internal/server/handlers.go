package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"wordrush/internal/game"
	"wordrush/internal/history"
	"wordrush/internal/rooms"
	"wordrush/internal/wshub"
)

type Server struct {
	Rooms   *rooms.Store
	History *history.Store // nil if no database configured
}

type createRoomRequest struct {
	Mode     string        `json:"mode"`
	HostID   string        `json:"host_id"`
	Settings game.Settings `json:"settings"`
}

type roomResponse struct {
	RoomCode    string        `json:"room_code"`
	Mode        game.Mode     `json:"mode"`
	Status      game.Status   `json:"status"`
	HostID      string        `json:"host_id,omitempty"`
	Teams       []teamInfo    `json:"teams"`
	Settings    game.Settings `json:"settings"`
	Connections int           `json:"connections"`
	CreatedAt   time.Time     `json:"created_at"`
}

type teamInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encoding response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	mode := game.Mode(req.Mode)
	switch mode {
	case "":
		mode = game.ModeAlias
	case game.ModeAlias, game.ModeTaboo:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown mode: %q", req.Mode))
		return
	}

	hostID := req.HostID
	if hostID == "" {
		hostID = uuid.NewString()
	}

	room, err := s.Rooms.Create(mode, hostID, normalizeSettings(req.Settings))
	if err != nil {
		log.Error().Err(err).Msg("creating room")
		writeError(w, http.StatusInternalServerError, "failed to create room")
		return
	}

	writeJSON(w, http.StatusCreated, roomInfo(room, true))
}

func (s *Server) handleRoomInfo(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(r.PathValue("code"))
	room := s.Rooms.Get(code)
	if room == nil {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	writeJSON(w, http.StatusOK, roomInfo(room, false))
}

func roomInfo(room *rooms.Room, withHost bool) roomResponse {
	sess := room.Session
	teams := make([]teamInfo, 0, len(sess.Teams()))
	for _, t := range sess.Teams() {
		teams = append(teams, teamInfo{ID: t.ID, Name: t.Name})
	}
	resp := roomResponse{
		RoomCode:    room.Code,
		Mode:        sess.Mode(),
		Status:      sess.CurrentStatus(),
		Teams:       teams,
		Settings:    sess.Settings(),
		Connections: room.Hub.Count(),
		CreatedAt:   room.CreatedAt,
	}
	if withHost {
		resp.HostID = room.HostID
	}
	return resp
}

// normalizeSettings fills gaps a sparse create request leaves open.
func normalizeSettings(s game.Settings) game.Settings {
	if s.TeamCount < 2 {
		s.TeamCount = 2
	}
	if s.TeamCount > 4 {
		s.TeamCount = 4
	}
	if s.Language == "" {
		s.Language = "en"
	}
	if s.Difficulty == "" {
		s.Difficulty = "mixed"
	}
	if s.Timed && s.RoundSeconds == 0 {
		s.RoundSeconds = 60
	}
	if s.ScoreToWin == 0 {
		s.ScoreToWin = 30
	}
	return s
}

// handleGameSocket attaches a websocket to a room. The socket immediately
// receives the current game_state snapshot; afterwards every inbound message
// is fed to the room's session.
func (s *Server) handleGameSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Debug().Err(err).Msg("websocket accept failed")
		return
	}

	ctx := r.Context()
	code := strings.ToUpper(r.PathValue("code"))
	room := s.Rooms.Get(code)
	if room == nil {
		msg, _ := json.Marshal(game.ErrorMessage{
			Type: game.TypeError, Message: "room not found", Fatal: true,
		})
		conn.Write(ctx, websocket.MessageText, msg)
		conn.Close(websocket.StatusPolicyViolation, "room not found")
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = uuid.NewString()
	}
	username := r.URL.Query().Get("username")
	if username == "" {
		username = "Player"
	}

	client := &wshub.Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 64),
	}
	room.Hub.Register(client)
	go client.WritePump(ctx)

	log.Debug().Str("room", code).Str("user", userID).Msg("websocket attached")
	room.Session.RequestSnapshot(userID)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		var msg game.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			room.Hub.SendTo(userID, game.ErrorMessage{
				Type: game.TypeError, Message: "invalid message",
			})
			continue
		}
		if msg.UserID == "" {
			msg.UserID = userID
		}
		if msg.Username == "" {
			msg.Username = username
		}
		room.Session.Dispatch(userID, msg)
	}

	room.Hub.Unregister(client)
	conn.Close(websocket.StatusNormalClosure, "")
	log.Debug().Str("room", code).Str("user", userID).Msg("websocket detached")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.History != nil {
		if err := s.History.Ping(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "db_error",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
