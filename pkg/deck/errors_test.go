package deck

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/go-deck/pkg/deck/fetch"
	"github.com/benjaminschreck/go-deck/pkg/deck/opc"
)

func TestDocumentError(t *testing.T) {
	cause := errors.New("disk full")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"path and cause", NewDocumentError("render", "ppt/theme/theme1.xml", cause), "document error during render of 'ppt/theme/theme1.xml': disk full"},
		{"path only", NewDocumentError("render", "ppt/theme/theme1.xml", nil), "document error during render of 'ppt/theme/theme1.xml'"},
		{"cause only", NewDocumentError("serialize", "", cause), "document error during serialize: disk full"},
		{"bare", NewDocumentError("serialize", "", nil), "document error during serialize"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.True(t, IsDocumentError(tt.err))
		})
	}
	assert.ErrorIs(t, NewDocumentError("serialize", "", cause), cause)
}

func TestValidationError(t *testing.T) {
	assert.Equal(t, "validation error", (&ValidationError{}).Error())

	one := &ValidationError{Issues: []ValidationIssue{{Field: "style", Message: "unknown"}}}
	assert.Equal(t, "validation error: style - unknown", one.Error())

	two := &ValidationError{}
	two.add("units", "too many")
	two.add("fileName", "contains %q", "/")
	assert.Equal(t, "2 validation issues:\n  units: too many\n  fileName: contains \"/\"", two.Error())

	assert.Nil(t, (&ValidationError{}).err())
	assert.True(t, IsValidationError(fmt.Errorf("wrapped: %w", two)))
	assert.False(t, IsValidationError(errors.New("plain")))
}

func TestMultiError(t *testing.T) {
	m := NewMultiError()
	assert.NoError(t, m.Err())
	assert.Equal(t, "no errors", m.Error())

	m.Add(nil)
	assert.Equal(t, 0, m.Len())

	first := &opc.InvariantError{Rule: opc.RuleDanglingTarget, Detail: "x"}
	m.Add(first)
	assert.Same(t, first, m.Err(), "a single error is returned as is")

	m.Add(errors.New("second"))
	require.Equal(t, 2, m.Len())
	assert.Contains(t, m.Error(), "2 errors occurred:")
	assert.Contains(t, m.Error(), "[2] second")
	assert.True(t, IsInvariantError(m.Err()), "errors.As sees collected errors")
}

func TestContextError(t *testing.T) {
	cause := errors.New("context canceled")
	err := WithContext(cause, "assemble", map[string]any{"slide": 3, "stage": "append"})
	assert.Equal(t, "assemble [slide=3, stage=append]: context canceled", err.Error())
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, "fetch: context canceled", WithContext(cause, "fetch", nil).Error())
	assert.NoError(t, WithContext(nil, "noop", nil))
}

func TestRecoverError(t *testing.T) {
	base := errors.New("boom")
	assert.ErrorIs(t, RecoverError(base), base)
	assert.Equal(t, "panic recovered: text", RecoverError("text").Error())
	assert.Equal(t, "panic recovered: 42", RecoverError(42).Error())
}

func TestErrorClassification(t *testing.T) {
	conflict := &opc.ConflictError{Kind: "part", Key: "ppt/slides/slide1.xml"}
	assert.True(t, IsInvariantError(WithContext(conflict, "assemble", nil)))

	violations := opc.Violations{{Rule: opc.RuleMissingContentType, Part: "a.bin"}}
	assert.True(t, IsInvariantError(invariantErrors(violations)))

	fetchErr := &fetch.Error{Locator: "https://x/a.png", Cause: fetch.ErrNotFound}
	assert.True(t, IsFetchError(fmt.Errorf("slide 1: %w", fetchErr)))
	assert.False(t, IsFetchError(conflict))
}
