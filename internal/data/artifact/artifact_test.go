package artifact

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"codeshape/internal/core/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type payload struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

func TestEncode(t *testing.T) {
	data, err := Encode(FormatJSON, payload{Name: "a<b", Count: 2})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"a<b\",\n  \"count\": 2\n}\n", string(data))

	data, err = Encode(FormatYAML, payload{Name: "x", Count: 3})
	require.NoError(t, err)
	var back payload
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, payload{Name: "x", Count: 3}, back)

	_, err = Encode("xml", payload{})
	assert.Error(t, err)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "ast_analysis_summary.json", FileName("ast_analysis_summary.json", FormatJSON))
	assert.Equal(t, "ast_analysis_summary.yaml", FileName("ast_analysis_summary.json", FormatYAML))
}

func TestLocalSink(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	sink := NewLocalSink(dir, false)
	require.NoError(t, sink.Put(ctx, "run-1", "flask_2.0.0/ast_analysis_summary.json", []byte("{}")))
	data, err := os.ReadFile(filepath.Join(dir, "flask_2.0.0", "ast_analysis_summary.json"))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	got, err := sink.Get(ctx, "ignored", "flask_2.0.0/ast_analysis_summary.json")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(got))

	_, err = sink.Get(ctx, "run-1", "missing.json")
	assert.ErrorIs(t, err, ErrNotFound)

	err = sink.Put(ctx, "run-1", "../escape.json", []byte("x"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodePermissionDenied))
}

func TestLocalSink_PerRun(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	sink := NewLocalSink(dir, true)

	require.NoError(t, sink.Put(ctx, "run-7", "evolution_report.json", []byte("r")))
	_, err := os.Stat(filepath.Join(dir, "run-7", "evolution_report.json"))
	require.NoError(t, err)

	assert.Error(t, sink.Put(ctx, " ", "evolution_report.json", []byte("r")))
}

func TestMemorySink(t *testing.T) {
	ctx := context.Background()
	sink := NewMemorySink()

	buf := []byte("abc")
	require.NoError(t, sink.Put(ctx, "run", "/b.json", buf))
	require.NoError(t, sink.Put(ctx, "run", "a.json", []byte("1")))
	require.NoError(t, sink.Put(ctx, "other", "c.json", []byte("2")))
	buf[0] = 'z'

	got, err := sink.Get(ctx, "run", "b.json")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	paths, err := sink.List(ctx, "run")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.json"}, paths)

	_, err = sink.Get(ctx, "run", "nope.json")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Error(t, sink.Put(ctx, "", "x", nil))
}

type failingSink struct{}

func (failingSink) Name() string { return "failing" }
func (failingSink) Put(context.Context, string, string, []byte) error {
	return stderrors.New("disk full")
}

func TestMultiSink_ContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	mem := NewMemorySink()
	multi := NewMultiSink(failingSink{}, nil, mem)
	assert.Equal(t, 2, multi.Len())

	err := multi.Put(ctx, "run", "x.json", []byte("ok"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing: disk full")

	got, err := mem.Get(ctx, "run", "x.json")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(got))

	assert.NoError(t, NewMultiSink(mem).Put(ctx, "run", "y.json", nil))
}

func TestNewS3Sink_Validation(t *testing.T) {
	_, err := NewS3Sink(S3Config{})
	assert.Error(t, err)
	_, err = NewS3Sink(S3Config{Endpoint: "localhost:9000", Bucket: "b"})
	assert.Error(t, err)
	_, err = NewS3Sink(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"})
	assert.Error(t, err)

	sink, err := NewS3Sink(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s", Bucket: "b", Prefix: "/team/"})
	require.NoError(t, err)
	assert.Equal(t, "s3", sink.Name())
	assert.Equal(t, "us-east-1", sink.region)

	key, err := sink.key("run", "/flask_2.0.0/ast_analysis_summary.json")
	require.NoError(t, err)
	assert.Equal(t, "team/run/flask_2.0.0/ast_analysis_summary.json", key)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", contentType("a/b.json"))
	assert.Equal(t, "application/yaml", contentType("b.yaml"))
	assert.Equal(t, "application/octet-stream", contentType("noext"))
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}
