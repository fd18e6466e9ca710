// Copyright © 2024 The ELPS authors

package lsp

import (
	"sync"
)

// Document is an open text document. Its text lives in the workspace
// module of File.
type Document struct {
	URI     string
	File    string
	Version int32
}

// DocumentStore manages open documents with thread-safe access.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewDocumentStore creates an empty document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]*Document)}
}

// Open adds a document to the store.
func (s *DocumentStore) Open(uri string, version int32) *Document {
	doc := &Document{URI: uri, File: uriToPath(uri), Version: version}
	s.mu.Lock()
	s.docs[uri] = doc
	s.mu.Unlock()
	return doc
}

// SetVersion records the version of the latest change to uri.
func (s *DocumentStore) SetVersion(uri string, version int32) {
	s.mu.Lock()
	if doc, ok := s.docs[uri]; ok {
		doc.Version = version
	}
	s.mu.Unlock()
}

// Close removes a document from the store.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()
}

// Get retrieves a document by URI. Returns nil if not found.
func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[uri]
}

// All returns a copy of every open document.
func (s *DocumentStore) All() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Document, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, *d)
	}
	return out
}
