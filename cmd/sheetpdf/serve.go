package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	sheetpdf "github.com/porticus-lab/go-sheet-pdf"
	"github.com/porticus-lab/go-sheet-pdf/assemble"
	"github.com/porticus-lab/go-sheet-pdf/blobstore"
)

// maxPayloadBytes bounds request bodies of POST /exports.
const maxPayloadBytes = 4 << 20

type serveArgs struct {
	surfaceFlags
	addr  string
	redis string
	ttl   time.Duration
}

func parseServeArgs(args []string) (serveArgs, error) {
	a := serveArgs{addr: ":8080", ttl: blobstore.DefaultTTL}
	for i := 0; i < len(args); i++ {
		ok, err := a.surfaceFlags.parse(args, &i)
		if err != nil {
			return a, err
		}
		if ok {
			continue
		}
		switch args[i] {
		case "-addr":
			i++
			if i >= len(args) {
				return a, fmt.Errorf("-addr requires an argument")
			}
			a.addr = args[i]
		case "-redis":
			i++
			if i >= len(args) {
				return a, fmt.Errorf("-redis requires an argument")
			}
			a.redis = args[i]
		case "-ttl":
			i++
			if i >= len(args) {
				return a, fmt.Errorf("-ttl requires an argument")
			}
			d, err := time.ParseDuration(args[i])
			if err != nil {
				return a, fmt.Errorf("invalid -ttl: %w", err)
			}
			a.ttl = d
		default:
			return a, fmt.Errorf("unknown option: %s", args[i])
		}
	}
	return a, nil
}

// runServe implements the "serve" command.
func runServe(ctx context.Context, args []string) error {
	a, err := parseServeArgs(args)
	if err != nil {
		return err
	}
	log := a.logger()

	store, closeStore, err := openStore(ctx, a.redis, blobstore.Options{TTL: a.ttl})
	if err != nil {
		return err
	}
	defer closeStore()

	opts, err := a.exporterOptions()
	if err != nil {
		return err
	}
	e, err := sheetpdf.NewExporter(append(opts, sheetpdf.WithLogger(log), sheetpdf.WithBlobStore(store))...)
	if err != nil {
		return err
	}
	defer e.Close()

	srv := &http.Server{
		Addr:              a.addr,
		Handler:           newServer(e, log),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("listening", "addr", a.addr, "redis", a.redis != "")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func openStore(ctx context.Context, addr string, opts blobstore.Options) (blobstore.Store, func(), error) {
	if addr == "" {
		return blobstore.NewMemory(opts), func() {}, nil
	}
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid -redis address: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid -redis port: %w", err)
	}
	r, err := blobstore.NewRedis(ctx, blobstore.RedisConf{Host: host, Port: port}, opts)
	if err != nil {
		return nil, nil, err
	}
	return r, func() { r.Close() }, nil
}

// server exposes exports and their previews over HTTP.
type server struct {
	exporter *sheetpdf.Exporter
	log      *slog.Logger
}

func newServer(e *sheetpdf.Exporter, log *slog.Logger) http.Handler {
	s := &server{exporter: e, log: log}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /exports", s.handleExport)
	mux.HandleFunc("GET /blobs/{id}", s.handleBlob)
	return mux
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	payload, err := assemble.Decode(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorMessage{Type: "error", Message: err.Error()})
		return
	}

	res, err := s.exporter.Export(r.Context(), payload, sheetpdf.ExportOptions{Mode: sheetpdf.ModeBlob})
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case isClientError(err):
			status = http.StatusBadRequest
		case errors.Is(err, sheetpdf.ErrMeasurementTimeout):
			status = http.StatusGatewayTimeout
		}
		s.writeJSON(w, status, errorMessage{Type: "error", Message: err.Error()})
		return
	}

	w.Header().Set("Location", res.Blob().URL)
	s.writeJSON(w, http.StatusCreated, struct {
		*blobstore.Ref
		Pages int `json:"pages"`
	}{res.Blob(), res.Pages()})
}

func (s *server) handleBlob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	blob, ok, err := s.exporter.BlobStore().Get(r.Context(), id)
	if err != nil {
		s.log.Error("loading blob", "id", id, "err", err)
		s.writeJSON(w, http.StatusInternalServerError, errorMessage{Type: "error", Message: "blob store unavailable"})
		return
	}
	if !ok {
		s.writeJSON(w, http.StatusNotFound, errorMessage{Type: "error", Message: "blob not found or expired"})
		return
	}

	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", id+".pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(blob.Data); err != nil {
		s.log.Error("writing PDF to response", "err", err)
	}
}

func (s *server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("writing JSON to response", "err", err)
	}
}
