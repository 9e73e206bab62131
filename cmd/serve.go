package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tapdeck/groupgen/internal/grouping"
	"github.com/tapdeck/groupgen/internal/model"
	"github.com/tapdeck/groupgen/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the group generation HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx, "serve")
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
			Handler: newRouter(env.store, env.orch),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func newRouter(st store.Store, orch *grouping.Orchestrator) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/contacts/groups/auto-generate", handleAutoGenerate(st, orch))

	return r
}

type generateRequest struct {
	Contacts []model.Contact         `json:"contacts"`
	Options  model.GenerationOptions `json:"options"`
}

type generateResponse struct {
	Success       bool                   `json:"success"`
	GroupsCreated int                    `json:"groups_created"`
	NewGroups     []model.GroupCandidate `json:"new_groups"`
	Analytics     grouping.Snapshot      `json:"analytics"`
	Message       string                 `json:"message"`
}

func handleAutoGenerate(st store.Store, orch *grouping.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing or malformed bearer token")
			return
		}

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		groups, snapshot, err := orch.Generate(r.Context(), req.Contacts, req.Options)
		if err != nil {
			if eris.Is(err, model.ErrInvalidOptions) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			zap.L().Error("group generation failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "group generation failed")
			return
		}

		existing, err := st.ListGroups(r.Context(), user)
		if err != nil {
			zap.L().Error("list groups failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "loading existing groups failed")
			return
		}

		newGroups, skipped := dropExistingNames(groups, existing)

		var saved []model.GroupCandidate
		if len(newGroups) > 0 {
			saved, err = st.SaveGroups(r.Context(), user, newGroups)
			if err != nil {
				zap.L().Error("save groups failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "persisting groups failed")
				return
			}
		}

		writeJSON(w, http.StatusOK, generateResponse{
			Success:       true,
			GroupsCreated: len(saved),
			NewGroups:     saved,
			Analytics:     snapshot,
			Message:       generateMessage(len(saved), skipped),
		})
	}
}

// userFromRequest resolves the calling user from the bearer token. Token
// validation happens at the platform gateway; here the token is the opaque
// per-user key that scopes stored groups.
func userFromRequest(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// dropExistingNames filters out candidates whose name matches a saved group
// case-insensitively. Regenerating groups must not duplicate them.
func dropExistingNames(candidates, existing []model.GroupCandidate) (kept []model.GroupCandidate, skipped int) {
	names := make(map[string]bool, len(existing))
	for _, g := range existing {
		names[strings.ToLower(g.Name)] = true
	}
	for _, g := range candidates {
		if names[strings.ToLower(g.Name)] {
			skipped++
			continue
		}
		kept = append(kept, g)
	}
	return kept, skipped
}

func generateMessage(created, skipped int) string {
	if skipped == 0 {
		return fmt.Sprintf("Created %d new groups", created)
	}
	return fmt.Sprintf("Created %d new groups (%d already existed)", created, skipped)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
