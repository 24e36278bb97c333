package rooferrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorUnwrapsToSentinel(t *testing.T) {
	err := FitterNumeric("singular design matrix", nil)
	assert.True(t, errors.Is(err, ErrFitterNumeric))
}

func TestAppErrorWithDetails(t *testing.T) {
	err := GeometryDegenerate("medial axis collapsed", nil).
		WithDetails("building_id", "b-1").
		WithDetails("plane_id", "p-2")

	require.Contains(t, err.Details, "building_id")
	assert.Equal(t, "b-1", err.Details["building_id"])
}

func TestCodeOfAppError(t *testing.T) {
	err := MergerInvariant("dangling edge", nil)
	code, ok := CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, CodeMergerInvariant, code)
}

func TestCodeOfBareSentinel(t *testing.T) {
	code, ok := CodeOf(ErrInputInvalid)
	require.True(t, ok)
	assert.Equal(t, CodeInputInvalid, code)
}

func TestIsFatalOnlyForMergerInvariant(t *testing.T) {
	assert.True(t, IsFatal(MergerInvariant("x", nil)))
	assert.False(t, IsFatal(GeometryDegenerate("x", nil)))
	assert.False(t, IsFatal(errors.New("unrelated")))
}

func TestAppErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("boom")
	err := InputInvalid("bad footprint", cause)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "INPUT_INVALID")
}
