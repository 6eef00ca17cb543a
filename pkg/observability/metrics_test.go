package observability_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/selector"
	"github.com/aretw0/selector/pkg/adapters/memory"
	"github.com/aretw0/selector/pkg/domain"
	"github.com/aretw0/selector/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStore struct{ *memory.Store }

func (brokenStore) Save(context.Context, string, *domain.State) error {
	return errors.New("read-only")
}

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics()
	eng := selector.New(selector.WithLifecycleHooks(m.Hooks()))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := eng.Select(ctx, domain.Request{Key: "a", Text: "x|y", Delimiter: "|", Behavior: domain.BehaviorIncrement})
		require.NoError(t, err)
	}
	_, err := eng.Select(ctx, domain.Request{Key: "a", Text: "x|y|z", Delimiter: "|", Behavior: domain.BehaviorFix})
	require.NoError(t, err)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Selections.WithLabelValues("increment")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Selections.WithLabelValues("fix")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Resets))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.PersistErrors))

	failing := selector.New(
		selector.WithStore(brokenStore{memory.NewStore()}),
		selector.WithLifecycleHooks(m.Hooks()),
	)
	_, err = failing.Select(ctx, domain.Request{Key: "b", Text: "x", Delimiter: "|"})
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistErrors))
}

func TestMetrics_Handler(t *testing.T) {
	m := observability.NewMetrics()
	m.Resets.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), "selector_resets_total 1")
}

func TestMetrics_Registry(t *testing.T) {
	m := observability.NewMetrics()
	eng := selector.New(selector.WithLifecycleHooks(m.Hooks()))

	_, err := eng.Select(context.Background(), domain.Request{Key: "a", Text: "x|y", Delimiter: "|", Behavior: domain.BehaviorRandom})
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(m.Registry(),
		"selector_selections_total",
		"selector_resets_total",
		"selector_persist_errors_total",
		"selector_collection_size",
	)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	count, err = testutil.GatherAndCount(m.Registry(), "go_goroutines")
	require.NoError(t, err)
	assert.Zero(t, count, "the registry only holds selector collectors")
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	hooks := observability.LoggingHooks(logger).Merge(observability.NewMetrics().Hooks())
	eng := selector.New(selector.WithLifecycleHooks(hooks))

	_, err := eng.Select(context.Background(), domain.Request{Key: "logged", Text: "a|b", Delimiter: "|", Behavior: domain.BehaviorIncrement})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"msg":"select"`)
	assert.Contains(t, buf.String(), `"key":"logged"`)
}
