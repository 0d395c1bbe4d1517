package instrumentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSpanAttributeBuilder(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithTool("create_task").
		WithOperation("create").
		WithProject("p1").
		WithTask("t1").
		WithReadOnly(false).
		Build()

	want := map[attribute.Key]bool{
		SpanAttrTool:      true,
		SpanAttrOperation: true,
		SpanAttrProjectID: true,
		SpanAttrTaskID:    true,
		SpanAttrReadOnly:  true,
	}
	assert.Len(t, attrs, len(want))
	for _, a := range attrs {
		assert.True(t, want[a.Key], "unexpected attribute %s", a.Key)
	}
}

func TestSpanAttributeBuilderSkipsEmptyIDs(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithTool("list_projects").
		WithProject("").
		WithTask("").
		Build()

	assert.Len(t, attrs, 1)
}

func TestTraceContextWithoutSpan(t *testing.T) {
	ctx := t.Context()

	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSpanID(ctx))
	assert.Empty(t, SpanContextString(ctx))
}

func TestStartToolSpanWithoutProvider(t *testing.T) {
	ctx, span := StartToolSpan(t.Context(), "get_task")
	defer span.End()

	assert.NotNil(t, ctx)
	assert.NotNil(t, span)
}
