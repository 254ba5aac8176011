package main

import "sync"

// memDocStore is the text-document buffer store behind the server:
// it holds whatever full text the
// client last sent for each open URI. The core never reads it except
// through lsp.DocumentStore's narrow interface (completion's partial
// token lookup) — everything else works off already-parsed
// confparse.Entry ranges instead of live buffer text.
type memDocStore struct {
	mu   sync.Mutex
	docs map[string]string
}

func newMemDocStore() *memDocStore {
	return &memDocStore{docs: make(map[string]string)}
}

func (s *memDocStore) Open(uri string, _ string, _ int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[uri] = text
}

// Change replaces the buffer wholesale. Real incremental sync (partial
// range replace) is textdoc.Document's job; this store only needs to
// answer "what does the buffer look like now" for completion, so it
// is not exercised here.
func (s *memDocStore) Change(uri string, _ int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[uri] = text
}

func (s *memDocStore) Close(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}

func (s *memDocStore) Text(uri string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.docs[uri]
	return t, ok
}
