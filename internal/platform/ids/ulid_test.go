package ids

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_NewAt_DeveCarimbarInstanteEManterOrdem(t *testing.T) {
	gen := NewGenerator()
	instante := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)

	primeiro := gen.NewAt(instante)
	segundo := gen.NewAt(instante)

	id, err := ulid.Parse(primeiro)
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(instante), id.Time())
	assert.Less(t, primeiro, segundo)
}

func TestDefaultGenerator_DeveSerSingleton(t *testing.T) {
	assert.Same(t, DefaultGenerator(), DefaultGenerator())
	assert.Len(t, DefaultGenerator().New(), 26)
}
