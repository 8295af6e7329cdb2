package main

import (
	"context"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/teris-io/shortid"
)

// Server 瓦片服务
type Server struct {
	registry    *Registry
	allowOrigin string
}

// NewServer serves tiles from reg. allowOrigin is sent as
// Access-Control-Allow-Origin; empty disables the header.
func NewServer(reg *Registry, allowOrigin string) *Server {
	return &Server{registry: reg, allowOrigin: allowOrigin}
}

// Handler returns the full handler chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(tileRoute, s.serveTile)
	// any other path or method is an address the client should not have built
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		s.fail(w, r, errors.Wrapf(ErrMalformedAddress, "%s %s", r.Method, r.URL.Path))
	})
	return s.cors(s.logRequests(s.rejectUnclean(mux)))
}

// rejectUnclean answers non-canonical paths itself, before ServeMux can
// redirect them to a cleaned address.
func (s *Server) rejectUnclean(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := r.URL.Path; p == "" || path.Clean(p) != p {
			s.fail(w, r, errors.Wrapf(ErrMalformedAddress, "non-canonical path %q", p))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// serveTile runs one request through parse, resolve, translate, fetch and
// respond, in that order and with a single archive lookup.
func (s *Server) serveTile(w http.ResponseWriter, r *http.Request) {
	addr, err := addressFromRequest(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	store, err := s.registry.Resolve(addr.Alias)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	row, ok := toStoredRow(addr.Tile.Z, addr.Tile.Y)
	if !ok {
		s.fail(w, r, errors.Wrapf(ErrTileNotFound, "%s: zoom above %d", addr, ZoomMax))
		return
	}
	data, err := store.Fetch(r.Context(), addr.Tile.Z, addr.Tile.X, row)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeTile(w, FramingFor(store.Kind), data)
}

// writeTile forwards the payload byte for byte.
func writeTile(w http.ResponseWriter, f Framing, data []byte) {
	h := w.Header()
	h.Set("Content-Type", f.ContentType)
	if f.ContentEncoding != "" {
		h.Set("Content-Encoding", f.ContentEncoding)
	}
	h.Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// fail answers with an empty body. Absence, client mistakes and clients
// that went away are routine and only logged at debug.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		log.Errorf("%s: %v", r.URL.Path, err)
	} else {
		log.Debugf("%s: %v", r.URL.Path, err)
	}
	w.WriteHeader(code)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrMalformedAddress), errors.Is(err, ErrUnknownStore):
		return http.StatusBadRequest
	case errors.Is(err, ErrTileNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id, _ := shortid.Generate()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		log.WithFields(logrus.Fields{"req": id}).Infof("%s %s %d %.2f kb %dms",
			r.Method, r.URL.Path, wrapped.statusCode,
			float32(wrapped.bytesWritten)/1024.0, time.Since(start).Milliseconds())
	})
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.allowOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", s.allowOrigin)
		}
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}
