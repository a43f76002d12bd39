package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tokenMirror/internal/model"
)

func TestJsonlDeadLetterAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dead.jsonl")
	sink := NewJsonlDeadLetter(path)

	require.NoError(t, sink.Put(model.DecodeError{Category: model.CategoryMint, Stage: "decode", Error: "bad amount"}))
	require.NoError(t, sink.Put(model.DecodeError{Category: model.CategoryBurn, Stage: "insert", Error: "conn reset"}))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var records []model.DecodeError
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec model.DecodeError
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, records, 2)
	require.Equal(t, model.CategoryMint, records[0].Category)
	require.Equal(t, "insert", records[1].Stage)
	require.NotEmpty(t, records[0].RecordedAt)
}

func TestJsonlDeadLetterDisabled(t *testing.T) {
	var sink *JsonlDeadLetter
	require.NoError(t, sink.Put(model.DecodeError{}))
	require.NoError(t, NewJsonlDeadLetter("").Put(model.DecodeError{}))
}
