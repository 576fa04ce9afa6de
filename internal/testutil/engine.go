package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// EngineCall is one request the stub engine received
type EngineCall struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	RequestID     string
}

// EngineResponse is what the stub engine answers for a path
type EngineResponse struct {
	Status int
	Body   string
	Delay  time.Duration
}

// StubEngine is an httptest server standing in for the game-state engine.
// Unknown paths answer 404.
type StubEngine struct {
	*httptest.Server

	mu        sync.Mutex
	calls     []EngineCall
	responses map[string]EngineResponse
}

// NewStubEngine starts a stub engine; callers must Close it
func NewStubEngine() *StubEngine {
	e := &StubEngine{responses: make(map[string]EngineResponse)}
	e.Server = httptest.NewServer(http.HandlerFunc(e.serve))
	return e
}

// Respond sets the answer for path
func (e *StubEngine) Respond(path string, resp EngineResponse) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.responses[path] = resp
}

// Calls returns a copy of the recorded calls
func (e *StubEngine) Calls() []EngineCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]EngineCall(nil), e.calls...)
}

// CallCount returns how many requests reached the engine
func (e *StubEngine) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

func (e *StubEngine) serve(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	e.calls = append(e.calls, EngineCall{
		Method:        r.Method,
		Path:          r.URL.Path,
		RawQuery:      r.URL.RawQuery,
		Authorization: r.Header.Get("Authorization"),
		RequestID:     r.Header.Get("X-Request-ID"),
	})
	resp, ok := e.responses[r.URL.Path]
	e.mu.Unlock()

	if !ok {
		http.Error(w, `{"detail":"not found"}`, http.StatusNotFound)
		return
	}

	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-r.Context().Done():
			return
		}
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(resp.Body))
}
