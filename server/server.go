package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"brief-copilot/llm"
	"brief-copilot/utils"
)

const maxRequestBytes = 64 << 10

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Options configures a Server
type Options struct {
	Responder Responder
	Token     string
	MaxTurns  int
	Logger    *utils.Logger
	Metrics   *Metrics
}

// Server is the brief chat relay: POST /chat/{id} answers with "data: " frames
type Server struct {
	responder Responder
	token     string
	logger    *utils.Logger
	metrics   *Metrics
	history   *historyStore
	mux       *http.ServeMux
}

// New creates a Server
func New(opts Options) *Server {
	s := &Server{
		responder: opts.Responder,
		token:     opts.Token,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		history:   newHistoryStore(opts.MaxTurns),
		mux:       http.NewServeMux(),
	}
	if s.responder == nil {
		s.responder = &CannedResponder{}
	}
	if s.logger == nil {
		s.logger = utils.NewLoggerWithWriter(io.Discard)
	}

	s.mux.HandleFunc("POST /chat/{id}", s.handleChat)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Chat relay listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

type chatRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := r.PathValue("id")
	log := s.logger.WithField("conversation", id)

	if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
		s.count("unauthorized")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(&req); err != nil {
		s.count("bad_request")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		s.count("bad_request")
		http.Error(w, "content is required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.count("error")
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	history := s.history.withUserMessage(id, content)

	// Headers go out with the first fragment so a failure before any output is still a non-2xx
	started := false
	var reply strings.Builder
	emit := func(fragment string) error {
		fragment = lineBreaks.Replace(fragment)
		if fragment == "" {
			return nil
		}
		if !started {
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			w.Header().Set("X-Accel-Buffering", "no")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if _, err := fmt.Fprintf(w, "%s%s\n", llm.DataPrefix, fragment); err != nil {
			return err
		}
		flusher.Flush()
		reply.WriteString(fragment)
		if s.metrics != nil {
			s.metrics.fragments.Inc()
		}
		return nil
	}

	err := s.responder.Respond(r.Context(), history, emit)
	s.observe(start)
	if err != nil {
		log.WithError(err).Error("chat stream failed")
		if !started {
			s.count("upstream_error")
			http.Error(w, "assistant unavailable", http.StatusBadGateway)
			return
		}
		// Mid-stream failure: the client keeps what it got, the relay keeps nothing
		s.count("interrupted")
		return
	}

	if !started {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
	}
	_, _ = fmt.Fprintf(w, "%s%s\n", llm.DataPrefix, llm.DoneSentinel)
	flusher.Flush()

	s.history.commit(id, content, reply.String())
	s.count("ok")
	log.WithField("duration", time.Since(start)).Debug("chat stream complete")
}

func (s *Server) count(outcome string) {
	if s.metrics != nil {
		s.metrics.requests.WithLabelValues(outcome).Inc()
	}
}

func (s *Server) observe(start time.Time) {
	if s.metrics != nil {
		s.metrics.duration.Observe(time.Since(start).Seconds())
	}
}

// historyStore keeps the turns of each conversation for the model context.
// The temporary id is shared by every unsaved brief, so it is never kept.
type historyStore struct {
	mu       sync.Mutex
	maxTurns int
	convs    map[string][]llm.Message
}

func newHistoryStore(maxTurns int) *historyStore {
	if maxTurns <= 0 {
		maxTurns = 50
	}
	return &historyStore{maxTurns: maxTurns, convs: make(map[string][]llm.Message)}
}

// withUserMessage returns the model context for a new user message without
// recording it
func (h *historyStore) withUserMessage(id, content string) []llm.Message {
	msg := llm.Message{Role: "user", Content: content}
	if id == llm.TempConversationID {
		return []llm.Message{msg}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bounded(append(append([]llm.Message(nil), h.convs[id]...), msg))
}

// commit records a completed exchange
func (h *historyStore) commit(id, userContent, reply string) {
	if id == llm.TempConversationID || reply == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.convs[id] = h.bounded(append(h.convs[id],
		llm.Message{Role: "user", Content: userContent},
		llm.Message{Role: "assistant", Content: reply},
	))
}

func (h *historyStore) bounded(turns []llm.Message) []llm.Message {
	if len(turns) > h.maxTurns {
		turns = turns[len(turns)-h.maxTurns:]
	}
	return turns
}

func (h *historyStore) turns(id string) []llm.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]llm.Message(nil), h.convs[id]...)
}
