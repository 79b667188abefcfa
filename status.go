package bandctl

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

// StatusServer 通过 HTTP 暴露最新的显示帧和指标
type StatusServer struct {
	mu      sync.RWMutex
	latest  *Frame
	metrics *Metrics
}

// NewStatusServer metrics 可以为 nil
func NewStatusServer(m *Metrics) *StatusServer {
	return &StatusServer{metrics: m}
}

// Publish 实现 FrameSink
func (s *StatusServer) Publish(f *Frame) {
	s.mu.Lock()
	s.latest = f
	s.mu.Unlock()
}

// Latest 最新的帧，可能为 nil
func (s *StatusServer) Latest() *Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Router 路由
func (s *StatusServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods("GET")
	r.HandleFunc("/status", s.status).Methods("GET")
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}
	return r
}

// ListenAndServe 阻塞运行，ctx 取消时关闭
func (s *StatusServer) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *StatusServer) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *StatusServer) status(w http.ResponseWriter, _ *http.Request) {
	f := s.Latest()
	if f == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(f)
}
