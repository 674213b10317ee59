package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	indexmem "github.com/custodia-labs/lectern/internal/adapters/driven/index/memory"
	storemem "github.com/custodia-labs/lectern/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

type assistantFixture struct {
	svc   *AssistantService
	index *indexmem.Index
	store *storemem.Store
	llm   *fakeLLM
}

func newAssistantFixture(t *testing.T) *assistantFixture {
	t.Helper()
	f := &assistantFixture{
		index: indexmem.New(domain.MetricCosine),
		store: storemem.New(),
		llm:   &fakeLLM{},
	}
	retriever := NewRetrieveService(f.index, &queryEmbedder{vec: []float32{1, 0, 0}})
	f.svc = NewAssistantService(retriever, f.index, f.store, f.llm)
	return f
}

func (f *assistantFixture) seedDocument(t *testing.T, docID, filename string, contents ...string) {
	t.Helper()
	ctx := context.Background()

	doc := domain.NewDocument("cs101", filename, "full text", "")
	doc.ID = docID
	require.NoError(t, f.store.Save(ctx, doc))

	var recs []driven.Record
	for i, content := range contents {
		recs = append(recs, seedRecord(docID, i, []float32{1, float32(i) / 10, 0}, content))
	}
	require.NoError(t, f.index.UpsertDocument(ctx, "cs101", docID, recs))
}

func TestAskGroundsAnswerInPassages(t *testing.T) {
	f := newAssistantFixture(t)
	f.seedDocument(t, "doc1", "sorting.md", "Quicksort picks a pivot and partitions the slice.")
	f.llm.response = "Quicksort partitions around a pivot."

	answer, err := f.svc.Ask(context.Background(), "cs101", "How does quicksort work?")
	require.NoError(t, err)
	assert.Equal(t, "Quicksort partitions around a pivot.", answer.Text)
	assert.Equal(t, []string{"sorting.md"}, answer.Sources)
	require.NotEmpty(t, answer.Passages)

	// The retrieved passage must appear in the prompt.
	assert.Contains(t, f.llm.lastPrompt, "Quicksort picks a pivot")
	assert.Contains(t, f.llm.lastPrompt, "How does quicksort work?")
}

func TestAskEmptyCollection(t *testing.T) {
	f := newAssistantFixture(t)

	answer, err := f.svc.Ask(context.Background(), "cs101", "anything?")
	require.NoError(t, err)
	assert.Contains(t, answer.Text, "could not find")
	assert.Empty(t, answer.Sources)
}

func TestAskDeduplicatesSources(t *testing.T) {
	f := newAssistantFixture(t)
	f.seedDocument(t, "doc1", "notes.md",
		"First chunk about the topic.",
		"Second chunk about the topic.")
	f.llm.response = "answer"

	answer, err := f.svc.Ask(context.Background(), "cs101", "question")
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.md"}, answer.Sources)
}

func TestGenerateAssignmentParsesJSON(t *testing.T) {
	f := newAssistantFixture(t)
	f.seedDocument(t, "doc1", "notes.md", "Trees are acyclic connected graphs.")
	f.llm.response = `[
		{"question_number": 1, "question": "Define a tree.", "type": "short_answer", "marks": 5},
		{"question_number": 2, "question": "Prove a tree with n vertices has n-1 edges.", "type": "long_answer", "marks": 10}
	]`

	questions, err := f.svc.GenerateAssignment(
		context.Background(), "cs101", []string{"doc1"}, 2, "medium")
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "Define a tree.", questions[0].Question)
	assert.Equal(t, 10, questions[1].Marks)
	assert.NotEmpty(t, questions[0].ID)
	assert.NotEqual(t, questions[0].ID, questions[1].ID)
	assert.Contains(t, f.llm.lastPrompt, "Trees are acyclic connected graphs.")
}

func TestGenerateMCQsRecoversFencedJSON(t *testing.T) {
	f := newAssistantFixture(t)
	f.seedDocument(t, "doc1", "notes.md", "Binary search needs a sorted input.")
	f.llm.response = "Here are the questions:\n```json\n" +
		`[{"question_number": 1, "question": "What does binary search require?",
		"options": ["Sorted input", "A hash table", "Recursion", "A balanced tree"],
		"correct_answer": "Sorted input", "explanation": "It halves a sorted range."}]` +
		"\n```"

	questions, err := f.svc.GenerateMCQs(
		context.Background(), "cs101", []string{"doc1"}, 1, "easy")
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "Sorted input", questions[0].CorrectOption)
	assert.Len(t, questions[0].Options, 4)
}

func TestGenerateFallsBackToLineParsing(t *testing.T) {
	f := newAssistantFixture(t)
	f.seedDocument(t, "doc1", "notes.md", "Stacks are last in, first out.")
	f.llm.response = "What is a stack?\nName one use of a stack."

	questions, err := f.svc.GenerateAssignment(
		context.Background(), "cs101", []string{"doc1"}, 2, "easy")
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, 1, questions[0].Number)
	assert.Equal(t, "Name one use of a stack.", questions[1].Question)
}

func TestGenerateRequiresIndexedContent(t *testing.T) {
	f := newAssistantFixture(t)

	_, err := f.svc.GenerateAssignment(
		context.Background(), "cs101", []string{"ghost"}, 3, "medium")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGenerateValidatesCount(t *testing.T) {
	f := newAssistantFixture(t)

	_, err := f.svc.GenerateMCQs(context.Background(), "cs101", []string{"doc1"}, 0, "")
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}
