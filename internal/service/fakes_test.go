package service

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/repository/contract"
	"doc-chat-be/internal/repository/specification"
	"doc-chat-be/internal/repository/unitofwork"
)

// In-memory repository fakes backing the service tests. Only the
// specifications the services actually use are interpreted.

type fakeStore struct {
	mu        sync.Mutex
	documents map[uuid.UUID]entity.Document
	chunks    map[uuid.UUID]entity.DocumentChunk
	sessions  map[uuid.UUID]entity.ChatSession
	messages  map[uuid.UUID]entity.ChatMessage
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		documents: make(map[uuid.UUID]entity.Document),
		chunks:    make(map[uuid.UUID]entity.DocumentChunk),
		sessions:  make(map[uuid.UUID]entity.ChatSession),
		messages:  make(map[uuid.UUID]entity.ChatMessage),
	}
}

type fakeFactory struct {
	store *fakeStore
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{store: f.store}
}

type fakeUow struct {
	store *fakeStore
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) DocumentRepository() contract.DocumentRepository {
	return &fakeDocumentRepo{store: u.store}
}

func (u *fakeUow) DocumentChunkRepository() contract.DocumentChunkRepository {
	return &fakeChunkRepo{store: u.store}
}

func (u *fakeUow) ChatSessionRepository() contract.ChatSessionRepository {
	return &fakeSessionRepo{store: u.store}
}

func (u *fakeUow) ChatMessageRepository() contract.ChatMessageRepository {
	return &fakeMessageRepo{store: u.store}
}

func matchID(specs []specification.Specification) (uuid.UUID, bool) {
	for _, s := range specs {
		if byID, ok := s.(specification.ByID); ok {
			return byID.ID, true
		}
	}
	return uuid.Nil, false
}

func wantsDesc(specs []specification.Specification) bool {
	for _, s := range specs {
		if order, ok := s.(specification.OrderBy); ok {
			return order.Desc
		}
	}
	return false
}

type fakeDocumentRepo struct {
	store *fakeStore
}

func (r *fakeDocumentRepo) Create(ctx context.Context, d *entity.Document) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.documents[d.Id] = *d
	return nil
}

func (r *fakeDocumentRepo) Update(ctx context.Context, d *entity.Document) error {
	return r.Create(ctx, d)
}

func (r *fakeDocumentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.documents, id)
	return nil
}

func (r *fakeDocumentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if id, ok := matchID(specs); ok {
		if d, found := r.store.documents[id]; found {
			return &d, nil
		}
		return nil, nil
	}
	for _, d := range r.store.documents {
		doc := d
		return &doc, nil
	}
	return nil, nil
}

func (r *fakeDocumentRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]*entity.Document, 0, len(r.store.documents))
	for _, d := range r.store.documents {
		doc := d
		out = append(out, &doc)
	}
	desc := wantsDesc(specs)
	sort.Slice(out, func(i, j int) bool {
		if desc {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeDocumentRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.documents)), nil
}

type fakeChunkRepo struct {
	store *fakeStore
}

func (r *fakeChunkRepo) CreateBatch(ctx context.Context, chunks []*entity.DocumentChunk) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range chunks {
		r.store.chunks[c.Id] = *c
	}
	return nil
}

func (r *fakeChunkRepo) DeleteAllByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, c := range r.store.chunks {
		if c.DocumentId == documentId {
			delete(r.store.chunks, id)
		}
	}
	return nil
}

func (r *fakeChunkRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DocumentChunk, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]*entity.DocumentChunk, 0, len(r.store.chunks))
	for _, c := range r.store.chunks {
		chunk := c
		out = append(out, &chunk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out, nil
}

func (r *fakeChunkRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.chunks)), nil
}

type fakeSessionRepo struct {
	store *fakeStore
}

func (r *fakeSessionRepo) Create(ctx context.Context, s *entity.ChatSession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.sessions[s.Id] = *s
	return nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, s *entity.ChatSession) error {
	return r.Create(ctx, s)
}

func (r *fakeSessionRepo) DeleteAllByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, s := range r.store.sessions {
		if s.DocumentId == documentId {
			delete(r.store.sessions, id)
		}
	}
	return nil
}

func (r *fakeSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if id, ok := matchID(specs); ok {
		if s, found := r.store.sessions[id]; found {
			return &s, nil
		}
		return nil, nil
	}
	for _, spec := range specs {
		if byDoc, ok := spec.(specification.ByDocumentID); ok {
			for _, s := range r.store.sessions {
				if s.DocumentId == byDoc.DocumentID {
					sess := s
					return &sess, nil
				}
			}
			return nil, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]*entity.ChatSession, 0, len(r.store.sessions))
	for _, s := range r.store.sessions {
		sess := s
		out = append(out, &sess)
	}
	return out, nil
}

type fakeMessageRepo struct {
	store *fakeStore
}

func (r *fakeMessageRepo) Create(ctx context.Context, m *entity.ChatMessage) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.messages[m.Id] = *m
	return nil
}

func (r *fakeMessageRepo) DeleteAllBySessionIds(ctx context.Context, sessionIds []uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, m := range r.store.messages {
		for _, sid := range sessionIds {
			if m.ChatSessionId == sid {
				delete(r.store.messages, id)
			}
		}
	}
	return nil
}

func (r *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var sessionId uuid.UUID
	for _, spec := range specs {
		if bySession, ok := spec.(specification.ByChatSessionID); ok {
			sessionId = bySession.ChatSessionID
		}
	}
	out := make([]*entity.ChatMessage, 0, len(r.store.messages))
	for _, m := range r.store.messages {
		if sessionId != uuid.Nil && m.ChatSessionId != sessionId {
			continue
		}
		msg := m
		out = append(out, &msg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.messages)), nil
}
