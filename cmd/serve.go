package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dealfinder-cli/internal/agent"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP chat API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initAgent(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env.Agent, cfg.Server.AllowedOrigins),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter builds the chat API routes.
func newRouter(a *agent.Agent, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/chat", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ThreadID string `json:"thread_id"`
			Message  string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Message == "" {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}

		result, err := a.Chat(r.Context(), req.ThreadID, req.Message)
		if err != nil {
			zap.L().Error("chat request failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "chat failed")
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	r.Get("/sessions/{threadID}/history", func(w http.ResponseWriter, r *http.Request) {
		threadID := chi.URLParam(r, "threadID")
		turns, err := a.History(r.Context(), threadID)
		if err != nil {
			zap.L().Error("history request failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "history failed")
			return
		}
		if turns == nil {
			writeError(w, http.StatusNotFound, "thread not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"thread_id": threadID,
			"turns":     turns,
		})
	})

	r.Delete("/sessions/{threadID}", func(w http.ResponseWriter, r *http.Request) {
		threadID := chi.URLParam(r, "threadID")
		if err := a.ClearThread(r.Context(), threadID); err != nil {
			zap.L().Error("clear request failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "clear failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
