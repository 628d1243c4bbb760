package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"sciquiz-service/internal/domain"
	"sciquiz-service/internal/game"
	"sciquiz-service/internal/questions"
)

// WSHandler exposes the match orchestrator over a websocket: inbound frames
// are player actions, outbound frames are state snapshots.
type WSHandler struct {
	orch     *game.Orchestrator
	sets     questions.SetLoader
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler wires a handler to the orchestrator. sets may be nil when no
// curated-set backend is configured.
func NewWSHandler(orch *game.Orchestrator, sets questions.SetLoader, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		orch:   orch,
		sets:   sets,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectLevelPayload struct {
	Level int `json:"level"`
}

type teamPayload struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type startPayload struct {
	Mode               string      `json:"mode"`
	Topics             []string    `json:"topics"`
	Difficulties       []string    `json:"difficulties"`
	Formats            []string    `json:"formats"`
	QuestionCount      int         `json:"questionCount"`
	SecondsPerQuestion int         `json:"secondsPerQuestion"`
	PlayerName         string      `json:"playerName"`
	Player1            string      `json:"player1"`
	Player2            string      `json:"player2"`
	Team1              teamPayload `json:"team1"`
	Team2              teamPayload `json:"team2"`
	SetID              string      `json:"setId"`
}

type answerSubmission struct {
	Participant string `json:"participant"`
	Selected    int    `json:"selected"`
}

type nextRunnerPayload struct {
	Name string `json:"name"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs the action/snapshot loop until the
// client disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	snapshots, cancel := h.orch.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	snapshotsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(snapshotsDone)
		for {
			select {
			case snap, ok := <-snapshots:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: snap}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(r, inbound); err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		}
	}

	close(closeSignals)
	<-snapshotsDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, inbound inboundMessage) error {
	switch inbound.Type {
	case "selectLevel":
		var payload selectLevelPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		return h.orch.SelectLevel(payload.Level)
	case "start":
		var payload startPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		cfg := game.MatchConfig{
			Mode:               domain.Mode(payload.Mode),
			Topics:             payload.Topics,
			Difficulties:       payload.Difficulties,
			Formats:            payload.Formats,
			QuestionCount:      payload.QuestionCount,
			SecondsPerQuestion: payload.SecondsPerQuestion,
			PlayerName:         payload.PlayerName,
			Player1:            payload.Player1,
			Player2:            payload.Player2,
			Team1:              domain.TeamConfig{Name: payload.Team1.Name, Members: payload.Team1.Members},
			Team2:              domain.TeamConfig{Name: payload.Team2.Name, Members: payload.Team2.Members},
		}
		if payload.SetID != "" {
			if h.sets == nil {
				return domain.ErrSetNotFound
			}
			set, err := h.sets.LoadSet(r.Context(), payload.SetID)
			if err != nil {
				return err
			}
			cfg.Imported = set
		}
		return h.orch.StartMatch(r.Context(), cfg)
	case "answer":
		var payload answerSubmission
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		return h.orch.RecordAnswer(payload.Participant, payload.Selected)
	case "review":
		return h.orch.ReviewResults()
	case "backToResults":
		return h.orch.BackToResults()
	case "playAgain":
		return h.orch.PlayAgain()
	case "continue":
		return h.orch.Continue(r.Context())
	case "nextRunner":
		var payload nextRunnerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errInvalidPayload
		}
		return h.orch.NextRunner(r.Context(), payload.Name)
	case "rematch":
		return h.orch.Rematch(r.Context())
	case "newSeries":
		return h.orch.NewSeries()
	case "nextMatch":
		return h.orch.NextMatch()
	case "end":
		h.orch.EndMatch()
		return nil
	default:
		return errUnsupportedType
	}
}
