// Package server exposes an editing session over HTTP with a WebSocket
// change feed.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/mgpai22/kashi/internal/editor"
	"github.com/mgpai22/kashi/internal/logging"
	"github.com/mgpai22/kashi/internal/lyric"
	"github.com/mgpai22/kashi/internal/subtitle"
)

// request bodies larger than this are rejected
const maxBodyBytes = 10 << 20

type Server struct {
	session *editor.Session
	logger  *logging.Logger
	hub     *Hub
	router  *mux.Router

	upgrader websocket.Upgrader

	// serialises every access to the session and its store
	mu sync.Mutex

	unsubscribe func()
}

func New(session *editor.Session, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}

	s := &Server{
		session: session,
		logger:  logger,
		hub:     NewHub(logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	// listeners run inside the mutation, so the store is already locked
	s.unsubscribe = session.Store().Subscribe(func(ev lyric.Event) {
		s.hub.Broadcast(changeMessage(string(ev.Op), session.Store()))
	})

	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	router.HandleFunc("/api/lyrics", s.handleList).Methods(http.MethodGet)
	router.HandleFunc("/api/lyrics", s.handleAdd).Methods(http.MethodPost)
	router.HandleFunc("/api/lyrics", s.handleClear).Methods(http.MethodDelete)
	router.HandleFunc("/api/lyrics/bulk", s.handleBulk).Methods(http.MethodPost)
	router.HandleFunc("/api/lyrics/at", s.handleAt).Methods(http.MethodGet)
	router.HandleFunc("/api/lyrics/{id:[0-9]+}", s.handleUpdate).Methods(http.MethodPatch)
	router.HandleFunc("/api/lyrics/{id:[0-9]+}", s.handleDelete).Methods(http.MethodDelete)

	router.HandleFunc("/api/undo", s.handleUndo).Methods(http.MethodPost)
	router.HandleFunc("/api/redo", s.handleRedo).Methods(http.MethodPost)

	router.HandleFunc("/api/export/{format}", s.handleExport).Methods(http.MethodGet)
	router.HandleFunc("/api/import/{format}", s.handleImport).Methods(http.MethodPost)

	router.HandleFunc("/api/stats", s.handleStats).Methods(http.MethodGet)
	router.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)

	return router
}

func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down and
// disconnects every WebSocket client.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("Server listening", "addr", addr, "session", s.session.ID)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	s.logger.Infow("Server stopped")
	return nil
}

// Close detaches from the store and disconnects every client.
func (s *Server) Close() {
	s.mu.Lock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.mu.Unlock()
	s.hub.Close()
}

// locked runs fn with exclusive access to the session.
func (s *Server) locked(fn func(sess *editor.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.session)
}

type addRequest struct {
	StartTime *float64 `json:"startTime"`
	Text      string   `json:"text"`
}

type updateRequest struct {
	StartTime *float64 `json:"startTime"`
	EndTime   *float64 `json:"endTime"`
	Text      *string  `json:"text"`
}

type lyricsResponse struct {
	Lyrics []lyric.Entry `json:"lyrics"`
}

type importResponse struct {
	Added  int           `json:"added"`
	Lyrics []lyric.Entry `json:"lyrics"`
}

type statsResponse struct {
	Session       string  `json:"session"`
	Count         int     `json:"count"`
	FirstTime     float64 `json:"firstTime"`
	LastTime      float64 `json:"lastTime"`
	Language      string  `json:"language,omitempty"`
	AudioDuration float64 `json:"audioDuration,omitempty"`
	Position      float64 `json:"position"`
	CanUndo       bool    `json:"canUndo"`
	CanRedo       bool    `json:"canRedo"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	var entries []lyric.Entry
	s.locked(func(sess *editor.Session) {
		entries = sess.Store().All()
	})
	writeJSON(w, http.StatusOK, lyricsResponse{Lyrics: entries})
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.StartTime == nil {
		writeError(w, http.StatusUnprocessableEntity, "startTime is required")
		return
	}

	var (
		entry lyric.Entry
		ok    bool
	)
	s.locked(func(sess *editor.Session) {
		entry, ok = sess.Store().Add(*req.StartTime, req.Text)
	})
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "text must not be empty and startTime must be a non-negative number")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := subtitle.Unmarshal(subtitle.FormatJSON, data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var resp importResponse
	s.locked(func(sess *editor.Session) {
		resp.Added = sess.Store().AddBulk(subtitle.ToRaw(entries))
		resp.Lyrics = sess.Store().All()
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req updateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		entry        lyric.Entry
		found, saved bool
	)
	s.locked(func(sess *editor.Session) {
		if _, found = sess.Store().Get(id); !found {
			return
		}
		saved = sess.Store().Update(id, lyric.Patch{
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
			Text:      req.Text,
		})
		entry, _ = sess.Store().Get(id)
	})

	switch {
	case !found:
		writeError(w, http.StatusNotFound, fmt.Sprintf("no lyric with id %d", id))
	case !saved:
		writeError(w, http.StatusUnprocessableEntity, "update is invalid or changes nothing")
	default:
		writeJSON(w, http.StatusOK, entry)
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var ok bool
	s.locked(func(sess *editor.Session) {
		ok = sess.Store().Delete(id)
	})
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no lyric with id %d", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.locked(func(sess *editor.Session) {
		sess.Store().Clear()
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAt(w http.ResponseWriter, r *http.Request) {
	t, err := strconv.ParseFloat(r.URL.Query().Get("t"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "query parameter t must be a number")
		return
	}

	var (
		entry lyric.Entry
		ok    bool
	)
	s.locked(func(sess *editor.Session) {
		entry, ok = sess.Store().AtTime(t)
	})
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no lyric at %gs", t))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.history(w, "undo", (*lyric.Store).Undo)
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.history(w, "redo", (*lyric.Store).Redo)
}

func (s *Server) history(w http.ResponseWriter, name string, step func(*lyric.Store) bool) {
	var (
		ok      bool
		entries []lyric.Entry
	)
	s.locked(func(sess *editor.Session) {
		ok = step(sess.Store())
		entries = sess.Store().All()
	})
	if !ok {
		writeError(w, http.StatusConflict, "nothing to "+name)
		return
	}
	writeJSON(w, http.StatusOK, lyricsResponse{Lyrics: entries})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := subtitle.ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		data []byte
		name string
	)
	s.locked(func(sess *editor.Session) {
		data, err = sess.Export(format)
		name = sess.OutputName()
	})
	if err != nil {
		s.logger.Errorw("Export failed", "format", format, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", contentType(format))
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", name+subtitle.ExtensionFor(format)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	format, err := subtitle.ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	replace := false
	if v := r.URL.Query().Get("replace"); v != "" {
		replace, err = strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "query parameter replace must be a boolean")
			return
		}
	}

	data, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var resp importResponse
	s.locked(func(sess *editor.Session) {
		resp.Added, err = sess.Import(data, format, replace)
		resp.Lyrics = sess.Store().All()
	})

	switch {
	case errors.Is(err, subtitle.ErrParse):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, editor.ErrNoEntries):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var resp statsResponse
	s.locked(func(sess *editor.Session) {
		st := sess.Stats()
		resp = statsResponse{
			Session:       sess.ID,
			Count:         st.Count,
			FirstTime:     st.FirstTime,
			LastTime:      st.LastTime,
			AudioDuration: st.AudioDuration,
			Position:      sess.Position(),
			CanUndo:       st.CanUndo,
			CanRedo:       st.CanRedo,
		}
		if st.Detected {
			resp.Language = st.Language.Code
		}
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("WebSocket upgrade failed", "error", err)
		return
	}

	client := newClient(s.hub, conn)

	// register and queue the current state together so no event slips in
	// between
	var ok bool
	s.locked(func(sess *editor.Session) {
		ok = s.hub.Register(client, changeMessage(opSync, sess.Store()))
	})
	if !ok {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return data, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func contentType(format subtitle.Format) string {
	switch format {
	case subtitle.FormatJSON:
		return "application/json"
	case subtitle.FormatVTT:
		return "text/vtt; charset=utf-8"
	case subtitle.FormatSRT:
		return "application/x-subrip; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}
