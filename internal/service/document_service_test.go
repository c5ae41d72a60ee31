package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doc-chat-be/internal/constant"
	"doc-chat-be/internal/dto"
	"doc-chat-be/internal/pkg/logger"
	"doc-chat-be/pkg/chunker"
	"doc-chat-be/pkg/embedding"
	"doc-chat-be/pkg/events"
	"doc-chat-be/pkg/extract"
	"doc-chat-be/pkg/filestore"
	"doc-chat-be/pkg/llm"
	"doc-chat-be/pkg/rag/engine"
	"doc-chat-be/pkg/rag/pipeline"
	"doc-chat-be/pkg/rag/retrieval"
	"doc-chat-be/pkg/vectorindex"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []dto.DocumentEventMessage
}

func (p *capturePublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var event dto.DocumentEventMessage
	if err := json.Unmarshal(payload, &event); err != nil {
		return err
	}
	p.events = append(p.events, event)
	return nil
}

type stubEmbedder struct{}

func (stubEmbedder) GenerateBatch(ctx context.Context, texts []string, inputType embedding.InputType) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

type stubLLM struct {
	reply string
	err   error
}

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.Chat(ctx, nil, options...)
}

type fixture struct {
	documents IDocumentService
	chats     IChatService
	files     *filestore.MemoryStore
	index     *vectorindex.MemoryIndex
	store     *fakeStore
	publisher *capturePublisher
	model     *stubLLM
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newFakeStore()
	files := filestore.NewMemoryStore()
	index := vectorindex.NewMemoryIndex()
	publisher := &capturePublisher{}
	model := &stubLLM{reply: "grounded answer"}
	log := logger.NewNop()

	ch, err := chunker.New(5, 1)
	require.NoError(t, err)

	pl := pipeline.NewPipeline(extract.NewExtractor(), ch, stubEmbedder{}, index, log)
	retriever := retrieval.NewService(stubEmbedder{}, index, 3)
	eng := engine.NewEngine(retriever, model, log)

	factory := &fakeFactory{store: store}

	return &fixture{
		documents: NewDocumentService(factory, pl, files, index, publisher, log, 1024*1024),
		chats:     NewChatService(factory, eng, log),
		files:     files,
		index:     index,
		store:     store,
		publisher: publisher,
		model:     model,
	}
}

func uploadText(t *testing.T, f *fixture, name, text string) *dto.DocumentResponse {
	t.Helper()
	res, err := f.documents.Upload(context.Background(), name, []byte(text))
	require.NoError(t, err)
	return res
}

func longText(words int) string {
	parts := make([]string, words)
	for i := range parts {
		parts[i] = "lorem"
	}
	return strings.Join(parts, " ")
}

func TestUploadIndexesAndPersists(t *testing.T) {
	f := newFixture(t)

	res := uploadText(t, f, "notes.txt", longText(12))

	assert.True(t, res.Processed)
	assert.NotNil(t, res.ProcessedAt)
	// 12 words, window 5, step 4: offsets 0, 4, 8.
	assert.Equal(t, 3, res.ChunkCount)
	assert.Equal(t, "txt", res.FileType)

	assert.Equal(t, 1, f.files.Len())
	assert.Len(t, f.store.documents, 1)
	assert.Len(t, f.store.chunks, 3)

	doc := f.store.documents[res.Id]
	assert.Equal(t, res.Id.String(), doc.Namespace)

	matches, err := f.index.Query(context.Background(), doc.Namespace, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
	assert.Equal(t, doc.Namespace+"_chunk_0", matches[0].ID)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.DocumentProcessed, f.publisher.events[0].EventType)
	assert.Equal(t, 3, f.publisher.events[0].ChunkCount)
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	f := newFixture(t)

	_, err := f.documents.Upload(context.Background(), "report.xlsx", []byte("data"))
	assert.ErrorIs(t, err, constant.ErrUnsupportedFileType)
	assert.Equal(t, 0, f.files.Len())
}

func TestUploadRejectsOversizeAndEmpty(t *testing.T) {
	f := newFixture(t)

	_, err := f.documents.Upload(context.Background(), "notes.txt", nil)
	assert.ErrorIs(t, err, constant.ErrEmptyFile)

	big := make([]byte, 2*1024*1024)
	_, err = f.documents.Upload(context.Background(), "notes.txt", big)
	assert.ErrorIs(t, err, constant.ErrFileTooLarge)
}

func TestUploadInsufficientContentCompensates(t *testing.T) {
	f := newFixture(t)

	_, err := f.documents.Upload(context.Background(), "tiny.txt", []byte("tiny"))
	var stepErr *pipeline.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.ErrorIs(t, err, pipeline.ErrInsufficientContent)

	// Compensation removes the stored file; nothing is left behind.
	assert.Equal(t, 0, f.files.Len())
	assert.Empty(t, f.store.chunks)
	require.Empty(t, f.publisher.events)
}

func TestDetailCreatesFirstSessionOnce(t *testing.T) {
	f := newFixture(t)
	res := uploadText(t, f, "notes.txt", longText(12))

	detail, err := f.documents.Detail(context.Background(), res.Id)
	require.NoError(t, err)
	assert.Equal(t, res.Id, detail.Session.DocumentId)
	assert.Empty(t, detail.Messages)

	again, err := f.documents.Detail(context.Background(), res.Id)
	require.NoError(t, err)
	assert.Equal(t, detail.Session.Id, again.Session.Id)
	assert.Len(t, f.store.sessions, 1)
}

func TestDetailUnknownDocument(t *testing.T) {
	f := newFixture(t)

	_, err := f.documents.Detail(context.Background(), uuid.New())
	assert.ErrorIs(t, err, constant.ErrDocumentNotFound)
}

func TestDeleteRemovesAllThreeStores(t *testing.T) {
	f := newFixture(t)
	res := uploadText(t, f, "notes.txt", longText(12))

	detail, err := f.documents.Detail(context.Background(), res.Id)
	require.NoError(t, err)

	_, err = f.chats.SendMessage(context.Background(), detail.Session.Id, &dto.SendMessageRequest{Message: "what is this?"})
	require.NoError(t, err)

	report, err := f.documents.Delete(context.Background(), res.Id)
	require.NoError(t, err)

	assert.True(t, report.RecordsDeleted)
	assert.True(t, report.VectorsDeleted)
	assert.True(t, report.FileDeleted)
	assert.Empty(t, report.Warnings)

	assert.Equal(t, 0, f.files.Len())
	assert.Empty(t, f.store.documents)
	assert.Empty(t, f.store.chunks)
	assert.Empty(t, f.store.sessions)
	assert.Empty(t, f.store.messages)

	matches, err := f.index.Query(context.Background(), res.Id.String(), []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Empty(t, matches)

	last := f.publisher.events[len(f.publisher.events)-1]
	assert.Equal(t, events.DocumentDeleted, last.EventType)
}

func TestDeleteUnknownDocument(t *testing.T) {
	f := newFixture(t)

	_, err := f.documents.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, constant.ErrDocumentNotFound)
}

func TestListNewestFirst(t *testing.T) {
	f := newFixture(t)
	first := uploadText(t, f, "first.txt", longText(12))
	second := uploadText(t, f, "second.txt", longText(12))

	list, err := f.documents.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.Id, list[0].Id)
	assert.Equal(t, first.Id, list[1].Id)
}
