package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartikbazzad/bunbase/bunquery"
	"github.com/kartikbazzad/bunbase/bunquery/internal/logger"
	"github.com/kartikbazzad/bunbase/bunquery/internal/rules"
)

const usersJSON = `[
  {"id":1,"name":"John","age":25,"city":"NY","qty":2,"price":10},
  {"id":2,"name":"Jane","age":30,"city":"LDN","qty":20,"price":10},
  {"id":3,"name":"Bob","age":35,"city":"NY","qty":1,"price":500}
]`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

type envelope struct {
	Source  string           `json:"source"`
	Count   int              `json:"count"`
	Results []map[string]any `json:"results"`
}

func decodeEnvelopes(t *testing.T, out []byte) []envelope {
	t.Helper()
	var envs []envelope
	dec := json.NewDecoder(bytes.NewReader(out))
	for dec.More() {
		var e envelope
		require.NoError(t, dec.Decode(&e))
		envs = append(envs, e)
	}
	return envs
}

func resultIDs(e envelope) []float64 {
	out := make([]float64, 0, len(e.Results))
	for _, r := range e.Results {
		out = append(out, r["id"].(float64))
	}
	return out
}

func TestFilterJobPreservesSourceOrder(t *testing.T) {
	users := writeFile(t, "users.json", usersJSON)
	lines := writeFile(t, "users.jsonl", "{\"id\":9,\"city\":\"NY\"}\n{\"id\":10,\"city\":\"SF\"}\n")

	job := &filterJob{query: bunquery.Query{"city": "NY"}}
	outs, err := job.runAll([]string{lines, users, lines}, 2)
	require.NoError(t, err)
	require.Len(t, outs, 3)

	var all bytes.Buffer
	for _, o := range outs {
		all.Write(o)
	}
	envs := decodeEnvelopes(t, all.Bytes())
	require.Len(t, envs, 3)

	assert.Equal(t, lines, envs[0].Source)
	assert.Equal(t, []float64{9}, resultIDs(envs[0]))
	assert.Equal(t, users, envs[1].Source)
	assert.Equal(t, 2, envs[1].Count)
	assert.Equal(t, []float64{1, 3}, resultIDs(envs[1]))
	assert.Equal(t, []float64{9}, resultIDs(envs[2]))
}

func TestFilterJobGuard(t *testing.T) {
	users := writeFile(t, "users.json", usersJSON)
	engine, err := rules.NewRulesEngine()
	require.NoError(t, err)

	job := &filterJob{
		query: bunquery.Query{"age": bunquery.Query{"$gte": 30}},
		where: "record.qty * record.price > 150.0",
		guard: engine,
	}
	out, err := job.run(users)
	require.NoError(t, err)

	envs := decodeEnvelopes(t, out)
	require.Len(t, envs, 1)
	assert.Equal(t, []float64{2, 3}, resultIDs(envs[0]))
}

func TestFilterJobLogsRunID(t *testing.T) {
	users := writeFile(t, "users.json", usersJSON)

	var buf bytes.Buffer
	base := logger.New(logger.Config{Level: "DEBUG", Format: "json", Output: &buf})
	ctx := logger.ContextWithTraceID(context.Background(), "run-42")

	job := &filterJob{query: bunquery.Query{"city": "NY"}, log: logger.WithTraceID(ctx, base)}
	_, err := job.runAll([]string{users}, 1)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"msg":"filtered source"`)
	assert.Contains(t, buf.String(), `"trace_id":"run-42"`)
}

func TestWithRunIDIsUnique(t *testing.T) {
	var buf bytes.Buffer
	base := logger.New(logger.Config{Format: "json", Output: &buf})

	logger.WithTraceID(withRunID(context.Background()), base).Info("first")
	logger.WithTraceID(withRunID(context.TODO()), base).Info("second")

	var ids []string
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var line map[string]any
		require.NoError(t, dec.Decode(&line))
		id, ok := line["trace_id"].(string)
		require.True(t, ok)
		ids = append(ids, id)
	}
	require.Len(t, ids, 2)
	assert.Len(t, ids[0], 36)
	assert.NotEqual(t, ids[0], ids[1])
}

func TestFilterJobRejectsNonSequence(t *testing.T) {
	obj := writeFile(t, "obj.json", `{"id":1}`)

	job := &filterJob{query: bunquery.Query{}}
	_, err := job.runAll([]string{obj}, 1)
	assert.ErrorIs(t, err, bunquery.ErrInvalidInput)
}

func TestFilterJobMissingFile(t *testing.T) {
	job := &filterJob{query: bunquery.Query{}}
	_, err := job.runAll([]string{filepath.Join(t.TempDir(), "missing.json")}, 1)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestQueryFlagsLoad(t *testing.T) {
	yamlQuery := writeFile(t, "q.yaml", "city: NY\nage:\n  $gt: 30\n")

	qf := queryFlags{file: yamlQuery}
	doc, err := qf.load()
	require.NoError(t, err)
	assert.Equal(t, "NY", doc["city"])

	qf = queryFlags{inline: `{"age":{"$near":1}}`}
	_, err = qf.load()
	assert.Error(t, err)

	qf = queryFlags{}
	_, err = qf.load()
	assert.Error(t, err)
}

func TestQueryFlagsOptions(t *testing.T) {
	qf := queryFlags{ignoreCase: true}
	assert.False(t, bunquery.ResolveOptions(qf.options()...).CaseSensitive)

	qf = queryFlags{}
	assert.Equal(t, cfg.Query.CaseSensitive, bunquery.ResolveOptions(qf.options()...).CaseSensitive)
}

func TestShellSession(t *testing.T) {
	records, err := loadRecords(writeFile(t, "users.json", usersJSON))
	require.NoError(t, err)
	s := newShellSession("users.json", records, true)

	var out bytes.Buffer
	assert.False(t, s.exec(".count", &out))
	assert.Equal(t, "3\n", out.String())

	out.Reset()
	s.exec(`{"name":{"$regex":"^j"}}`, &out)
	assert.Equal(t, 0, decodeEnvelopes(t, out.Bytes())[0].Count)

	out.Reset()
	s.exec(".ignorecase on", &out)
	assert.Contains(t, out.String(), "case sensitive: false")

	out.Reset()
	s.exec(`{"name":{"$regex":"^j"}}`, &out)
	assert.Equal(t, []float64{1, 2}, resultIDs(decodeEnvelopes(t, out.Bytes())[0]))

	out.Reset()
	s.exec(`{"age":`, &out)
	assert.True(t, strings.HasPrefix(out.String(), "ERROR\n"))

	out.Reset()
	s.exec(".bogus", &out)
	assert.True(t, strings.HasPrefix(out.String(), "ERROR\n"))

	assert.True(t, s.exec(".exit", &out))
}

// syncBuffer guards a bytes.Buffer written from the debounce timer.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}

func TestWatchFile(t *testing.T) {
	path := writeFile(t, "users.json", usersJSON)
	ctx, cancel := context.WithCancel(context.Background())

	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, bunquery.Query{"city": "NY"}, nil, 20*time.Millisecond, false, &out)
	}()

	require.Eventually(t, func() bool { return len(decodeEnvelopes(t, out.Bytes())) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, decodeEnvelopes(t, out.Bytes())[0].Count)

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":7,"city":"NY"}]`), 0o644))

	require.Eventually(t, func() bool {
		envs := decodeEnvelopes(t, out.Bytes())
		return len(envs) >= 2 && envs[len(envs)-1].Count == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestValidateCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"validate", "-i", "--query", `{"age":{"$gte":18},"city":"NY"}`})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "ok (case sensitive: false)\n$and(age: {$gte: 18}, city: NY)\n", out.String())
}
