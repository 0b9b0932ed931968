package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/jorge-barreto/colossus/internal/contextgather"
	"github.com/jorge-barreto/colossus/internal/dispatch"
	"github.com/jorge-barreto/colossus/internal/mode"
	"github.com/jorge-barreto/colossus/internal/state"
)

// Server is the local HTTP API used by the conversational front-end.
type Server struct {
	ProjectDir string
	Transcript string // relative to ProjectDir
	Model      string
	Mode       *mode.State
	Agent      dispatch.CodeAgent // serves /change-code and /ask-question; nil disables them
	Log        *slog.Logger
}

type errorResponse struct {
	Error      string `json:"error"`
	ProjectDir string `json:"project_dir"`
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type transcriptRequest struct {
	Content string `json:"content"`
}

type changeRequest struct {
	Change  string `json:"change"`
	Context string `json:"context"`
}

type questionRequest struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /current-mode", s.handleCurrentMode)
	mux.HandleFunc("POST /toggle-mode", s.handleToggleMode)
	mux.HandleFunc("POST /update-transcript", s.handleUpdateTranscript)
	mux.HandleFunc("GET /contexts", s.handleContexts)
	mux.HandleFunc("POST /change-code", s.handleChangeCode)
	mux.HandleFunc("POST /ask-question", s.handleAskQuestion)
	return mux
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:     s.Handler(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleCurrentMode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Mode.Get().String())
}

func (s *Server) handleToggleMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	prev, err := s.Mode.Set(req.Mode)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "Invalid mode specified")
		return
	}
	s.logger().Info("mode changed", "from", prev.String(), "to", req.Mode, "source", "http")
	writeJSON(w, http.StatusOK, "Mode changed to "+req.Mode)
}

func (s *Server) handleUpdateTranscript(w http.ResponseWriter, r *http.Request) {
	var req transcriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	path := filepath.Join(s.ProjectDir, s.Transcript)
	if err := state.WriteFileAtomic(path, []byte(req.Content), 0644); err != nil {
		s.fail(w, http.StatusInternalServerError, fmt.Sprintf("Failed to write transcript: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, "Transcript updated successfully")
}

func (s *Server) handleContexts(w http.ResponseWriter, r *http.Request) {
	contexts, err := contextgather.List(s.ProjectDir)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, contexts)
}

func (s *Server) handleChangeCode(w http.ResponseWriter, r *http.Request) {
	if s.Agent == nil {
		s.fail(w, http.StatusNotFound, "code changes are disabled")
		return
	}
	var req changeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if req.Change == "" {
		s.fail(w, http.StatusBadRequest, "change is required")
		return
	}
	load, ok := contextFile(req.Context)
	if !ok {
		s.fail(w, http.StatusBadRequest, "context must be a file name in the project directory")
		return
	}

	res, err := s.invoke(r, "change-code", req.Change, load)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, fmt.Sprintf("Failed to execute code agent: %v", err))
		return
	}
	if !res.Success() {
		s.fail(w, http.StatusInternalServerError, "Code agent failed: "+res.Stderr)
		return
	}
	writeJSON(w, http.StatusOK, res.Stdout)
}

// handleAskQuestion answers with the agent's output. An agent that exits
// non-zero still yields 200, with the failure in the message.
func (s *Server) handleAskQuestion(w http.ResponseWriter, r *http.Request) {
	if s.Agent == nil {
		s.fail(w, http.StatusNotFound, "questions are disabled")
		return
	}
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if req.Question == "" {
		s.fail(w, http.StatusBadRequest, "question is required")
		return
	}
	load, ok := contextFile(req.Context)
	if !ok {
		s.fail(w, http.StatusBadRequest, "context must be a file name in the project directory")
		return
	}

	res, err := s.invoke(r, "ask-question", req.Question, load)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, fmt.Sprintf("Failed to execute code agent: %v", err))
		return
	}
	if !res.Success() {
		writeJSON(w, http.StatusOK, "Failed to get response from aider: "+res.Stderr)
		return
	}
	writeJSON(w, http.StatusOK, res.Stdout)
}

// invoke runs the agent for a request. A client that disconnects does not
// stop the agent.
func (s *Server) invoke(r *http.Request, label, instruction, load string) (*dispatch.Result, error) {
	return s.Agent.Invoke(context.WithoutCancel(r.Context()), dispatch.Invocation{
		Label:       label,
		Dir:         s.ProjectDir,
		Instruction: instruction,
		Load:        load,
		Model:       s.Model,
	})
}

// contextFile maps a requested context to the file passed with --load.
// "None" and "" mean no context; anything else must be a bare file name.
func contextFile(name string) (string, bool) {
	if name == "" || name == contextgather.NoContext {
		return "", true
	}
	if name == "." || name == ".." || filepath.Base(name) != name {
		return "", false
	}
	return name, true
}

func (s *Server) fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, ProjectDir: s.ProjectDir})
}

func (s *Server) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
