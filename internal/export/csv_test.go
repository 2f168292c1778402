package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdata/internal/model"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

func sample(t *testing.T) *model.Table {
	t.Helper()
	tb := model.NewTable("stock_code", "dividend_plan", "close")
	require.NoError(t, tb.Append(model.String("000001"), model.String("10派2元"), model.ParseNumber("18.60")))
	require.NoError(t, tb.Append(model.String("000001"), model.String("a,\"b\""), model.Null()))
	return tb
}

func TestSaveCSV_WritesBOMAndHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "000001_dividend.csv")
	require.NoError(t, SaveCSV(context.Background(), sample(t), path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(content, bom))

	records, err := csv.NewReader(bytes.NewReader(content[len(bom):])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"stock_code", "dividend_plan", "close"},
		{"000001", "10派2元", "18.6"},
		{"000001", "a,\"b\"", ""},
	}, records)
}

func TestSaveCSV_EmptyTableWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	path := filepath.Join(dir, "x.csv")

	require.NoError(t, SaveCSV(context.Background(), model.NewTable("a"), path))
	require.NoError(t, SaveCSV(context.Background(), nil, path))

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestSaveCSV_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.csv")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("z"), 4096), 0o644))
	require.NoError(t, SaveCSV(context.Background(), sample(t), path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "zzz")
}

func TestSaveCSV_DirectoryError(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := SaveCSV(context.Background(), sample(t), filepath.Join(blocker, "sub", "x.csv"))
	assert.Error(t, err)
}

func TestWriteCSV_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, WriteCSV(&a, sample(t)))
	require.NoError(t, WriteCSV(&b, sample(t)))
	assert.Equal(t, a.Bytes(), b.Bytes())
	assert.Equal(t, 1, bytes.Count(a.Bytes(), bom))
}
