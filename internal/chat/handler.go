package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/Encore7/codebase-explainer-agent/internal/agent"
	"github.com/Encore7/codebase-explainer-agent/internal/jobs"
	"github.com/Encore7/codebase-explainer-agent/internal/llm"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// askRequest is the incoming WebSocket message format.
type askRequest struct {
	Question string `json:"question"`
}

// Answerer runs one answer pipeline per question. *agent.Agent implements it.
type Answerer interface {
	Answer(ctx context.Context, q agent.Question) (llm.Stream, error)
}

// Handler serves streaming chat over WebSocket. One connection maps to one
// chat session; each question on it runs a fresh answer pipeline.
type Handler struct {
	agent    Answerer
	jobs     *jobs.Store
	sessions *SessionStore
	logger   *slog.Logger
}

// NewHandler creates a chat handler.
func NewHandler(ag Answerer, jobStore *jobs.Store, sessions *SessionStore, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{agent: ag, jobs: jobStore, sessions: sessions, logger: logger}
}

// RegisterRoutes mounts the WebSocket chat endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{repo_id}", h.handleWebSocket)
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	repoID := chi.URLParam(r, "repo_id")

	job, err := h.jobs.Get(r.Context(), repoID)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if job == nil {
		http.Error(w, `{"error":"unknown repository"}`, http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "repo", repoID, "error", err)
		return
	}
	defer conn.Close()

	// Chat is only available once ingestion has finished successfully.
	if job.Status != jobs.StatusDone {
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation,
			"ingestion not complete: "+string(job.Status))
		_ = conn.WriteControl(websocket.CloseMessage, msg, closeDeadline())
		return
	}

	sess, err := h.sessions.Create(r.Context(), repoID)
	if err != nil {
		h.logger.Error("creating chat session", "repo", repoID, "error", err)
		return
	}
	defer func() {
		// The request context is gone once the connection drops.
		if err := h.sessions.Close(context.Background(), sess.ID); err != nil {
			h.logger.Error("closing chat session", "session", sess.ID, "error", err)
		}
	}()

	h.logger.Info("chat session opened", "session", sess.ID, "repo", repoID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The read pump delivers questions and cancels in-flight answers the
	// moment the client disconnects.
	questions := make(chan string)
	go h.readPump(conn, questions, cancel)

	for question := range questions {
		h.answer(ctx, conn, repoID, question)
	}

	h.logger.Info("chat session closed", "session", sess.ID, "repo", repoID)
}

func (h *Handler) readPump(conn *websocket.Conn, questions chan<- string, cancel context.CancelFunc) {
	defer cancel()
	defer close(questions)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", "error", err)
			}
			return
		}

		var req askRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			// A bare text frame is treated as the question itself.
			req.Question = string(msg)
		}
		if strings.TrimSpace(req.Question) == "" {
			continue
		}
		questions <- req.Question
	}
}

// answer runs one fresh pipeline for one question and relays the result.
func (h *Handler) answer(ctx context.Context, conn *websocket.Conn, repoID, question string) {
	stream, err := h.agent.Answer(ctx, agent.Question{RepoID: repoID, Text: question})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		h.logger.Warn("answer pipeline failed", "repo", repoID, "error", err)
		h.writeFrame(conn, Frame{IsFinal: true, Error: err.Error()})
		return
	}

	if err := Relay(stream, &wsSink{conn: conn}); err != nil {
		h.logger.Warn("answer relay interrupted", "repo", repoID, "error", err)
	}
}

func (h *Handler) writeFrame(conn *websocket.Conn, frame Frame) {
	if err := conn.WriteJSON(frame); err != nil {
		h.logger.Warn("websocket write failed", "error", err)
	}
}

func closeDeadline() time.Time {
	return time.Now().Add(time.Second)
}

// wsSink adapts a websocket connection to the relay Sink.
type wsSink struct {
	conn *websocket.Conn
}

func (s *wsSink) WriteFrame(frame Frame) error {
	return s.conn.WriteJSON(frame)
}
