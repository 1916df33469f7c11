package textgen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/collegeapi/internal/adapters/textgen/gemini"
	"github.com/okian/collegeapi/internal/adapters/textgen/openai"
	"github.com/okian/collegeapi/pkg/logger"
)

func TestNew(t *testing.T) {
	ctx := context.Background()

	g, err := New(ctx, Settings{OpenAIModel: "gpt-x"}, logger.Nop())
	require.NoError(t, err)
	oa, ok := g.(*openai.Generator)
	require.True(t, ok, "default provider should be openai, got %T", g)
	assert.Equal(t, "gpt-x", oa.Model())

	g, err = New(ctx, Settings{Provider: ProviderGemini}, logger.Nop())
	require.NoError(t, err)
	gm, ok := g.(*gemini.Generator)
	require.True(t, ok, "got %T", g)
	assert.Equal(t, gemini.DefaultModel, gm.Model())

	_, err = New(ctx, Settings{Provider: "llama"}, logger.Nop())
	assert.Error(t, err)
}
