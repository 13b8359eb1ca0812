package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndFetchFailure(t *testing.T) {
	corpus, err := OpenCorpus(t.TempDir())
	require.NoError(t, err)
	defer corpus.Close()

	record := &FailureRecord{
		Seed: 42,
		Calls: []RecordedCall{
			{HandlerID: "deposit", Seed: 1},
			{HandlerID: "timeJump", Seed: 2},
			{HandlerID: "rebase", Seed: 3},
		},
		PropertyIDs: []string{"VAULT-SOLVENCY"},
	}
	id, err := corpus.SaveFailure(record)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NotZero(t, record.CreatedAt)

	fetched, err := corpus.Failure(id)
	require.NoError(t, err)
	assert.Equal(t, record, fetched)

	all, err := corpus.Failures()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDuplicateSequencesShareRecord(t *testing.T) {
	corpus, err := OpenCorpus(t.TempDir())
	require.NoError(t, err)
	defer corpus.Close()

	calls := []RecordedCall{{HandlerID: "deposit", Seed: 9}}
	firstID, err := corpus.SaveFailure(&FailureRecord{Seed: 1, Calls: calls, PropertyIDs: []string{"QUEUE-ORDERING"}})
	require.NoError(t, err)
	secondID, err := corpus.SaveFailure(&FailureRecord{Seed: 1, Calls: calls, PropertyIDs: []string{"QUEUE-ORDERING"}})
	require.NoError(t, err)
	assert.Equal(t, firstID, secondID)

	all, err := corpus.Failures()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFetchUnknownFailure(t *testing.T) {
	corpus, err := OpenCorpus(t.TempDir())
	require.NoError(t, err)
	defer corpus.Close()

	_, err = corpus.Failure("4cb542fa-0000-0000-0000-000000000000")
	assert.Error(t, err)
}

func TestCorpusReopens(t *testing.T) {
	directory := t.TempDir()

	corpus, err := OpenCorpus(directory)
	require.NoError(t, err)
	id, err := corpus.SaveFailure(&FailureRecord{Seed: 7, PropertyIDs: []string{"QUEUE-BOUNDS"}})
	require.NoError(t, err)
	require.NoError(t, corpus.Close())

	reopened, err := OpenCorpus(directory)
	require.NoError(t, err)
	defer reopened.Close()
	fetched, err := reopened.Failure(id)
	require.NoError(t, err)
	assert.Equal(t, int64(7), fetched.Seed)
}
