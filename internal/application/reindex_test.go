package application

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-eventhub/internal/infrastructure/memory"
)

// fakeES records document writes and answers like a v8 node.
type fakeES struct {
	mu   sync.Mutex
	docs []string
	fail string
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	id, ok := strings.CutPrefix(r.URL.Path, "/events/_doc/")
	if r.Method != http.MethodPut || !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{}`))
		return
	}
	if id == f.fail {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"mapper_parsing_exception"}`))
		return
	}
	f.mu.Lock()
	f.docs = append(f.docs, id)
	f.mu.Unlock()
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte(`{"result":"created"}`))
}

func newFakeES(t *testing.T) (*fakeES, *elasticsearch.Client) {
	t.Helper()
	f := &fakeES{}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return f, es
}

func TestEventService_Reindex(t *testing.T) {
	jazz := storedEvent(alice)
	tech := storedEvent(bob)
	f, es := newFakeES(t)
	svc := NewEventService(memory.NewEventRepository(jazz, tech), nil, nil, es, "events", nil, 0)

	n, err := svc.Reindex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.ElementsMatch(t, []string{jazz.ID, tech.ID}, f.docs)
}

func TestEventService_Reindex_CountsOnlyAccepted(t *testing.T) {
	jazz := storedEvent(alice)
	tech := storedEvent(bob)
	f, es := newFakeES(t)
	f.fail = tech.ID
	svc := NewEventService(memory.NewEventRepository(jazz, tech), nil, nil, es, "events", nil, 0)

	n, err := svc.Reindex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{jazz.ID}, f.docs)
}

func TestEventService_Reindex_WithoutIndexIsNoop(t *testing.T) {
	svc := NewEventService(memory.NewEventRepository(storedEvent(alice)), nil, nil, nil, "", nil, 0)

	n, err := svc.Reindex(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
