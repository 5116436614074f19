package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/slooze/marketpulse/internal/store"
)

var servePort int

// shutdownGrace bounds how long in-flight requests may drain on shutdown.
const shutdownGrace = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve analysis results over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var st *store.Store
		if cfg.Store.Enabled {
			s, err := store.Open(cfg.Store.Path)
			if err != nil {
				zap.L().Warn("run ledger unavailable", zap.Error(err))
			} else {
				defer s.Close()
				if err := s.Migrate(ctx); err != nil {
					zap.L().Warn("run ledger migrate failed", zap.Error(err))
				} else {
					st = s
				}
			}
		}

		dir := cfg.Analysis.OutputDir

		mux := http.NewServeMux()

		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		mux.HandleFunc("GET /report", func(w http.ResponseWriter, r *http.Request) {
			b, err := os.ReadFile(filepath.Join(dir, "insights_report.json"))
			if err != nil {
				http.Error(w, `{"error":"no report available, run the analyze stage first"}`, http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write(b)
		})

		mux.HandleFunc("GET /runs", func(w http.ResponseWriter, r *http.Request) {
			if st == nil {
				http.Error(w, `{"error":"run ledger disabled"}`, http.StatusNotFound)
				return
			}
			runs, err := st.LatestRuns(r.Context(), 20)
			if err != nil {
				zap.L().Error("list runs failed", zap.Error(err))
				http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(runs)
		})

		mux.Handle("GET /analysis/", http.StripPrefix("/analysis/", http.FileServer(http.Dir(dir))))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			return eris.Wrapf(err, "listen on port %d", port)
		}

		zap.L().Info("starting server", zap.Int("port", port), zap.String("dir", dir))
		return serveHTTP(ctx, &http.Server{Handler: mux}, ln)
	},
}

// serveHTTP serves until ctx is canceled, then drains in-flight requests
// under a fresh timeout context. The signal context is already canceled at
// shutdown time, so it cannot be the Shutdown deadline.
func serveHTTP(ctx context.Context, srv *http.Server, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
