package strategies

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustAGhosT/codeflow-engine/internal/analysis"
	"github.com/JustAGhosT/codeflow-engine/internal/config"
	"github.com/JustAGhosT/codeflow-engine/internal/decision"
)

const manyFunctionsSource = `package ops

import "strings"

const prefix = "op:"

func First(s string) string  { return prefix + s }
func Second(s string) string { return strings.ToUpper(s) }
func Third(s string) string  { return strings.ToLower(s) }
func Fourth(s string) string { return strings.TrimSpace(s) }
func Fifth(s string) string  { return s + s }
`

func TestFunctionBasedSplit(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MaxFunctionsPerFile = 2

	src := analysis.NewSourceFile("ops.go", manyFunctionsSource)
	splitter := &FunctionBasedSplitter{cfg: cfg}

	components, err := splitter.Split(src, nil, splitDecision(decision.StrategyFunctionBased))
	require.NoError(t, err)
	require.Len(t, components, 3, "5 functions at 2 per file")

	assert.Equal(t, "ops_part1.go", components[0].Name)
	assert.Equal(t, "ops_part2.go", components[1].Name)
	assert.Equal(t, "ops_part3.go", components[2].Name)

	for _, c := range components {
		mustParse(t, c.Name, c.Content)
	}

	// The const rides along in the first component
	assert.Contains(t, components[0].Content, "const prefix")
	assert.Equal(t, []string{"prefix", "First", "Second"}, components[0].Entities)
	assert.Equal(t, []string{"Third", "Fourth"}, components[1].Entities)
	assert.Equal(t, []string{"Fifth"}, components[2].Entities)

	// Only the parts that call strings carry the import
	assert.Contains(t, components[0].Content, `"strings"`, "Second uses strings")
	assert.Contains(t, components[1].Content, `"strings"`)
	assert.NotContains(t, components[2].Content, `"strings"`, "Fifth does not")
}

func TestFunctionBasedSingleGroupFallsBack(t *testing.T) {
	src := analysis.NewSourceFile("ops.go", manyFunctionsSource)
	splitter := &FunctionBasedSplitter{cfg: config.DefaultConfig()}

	components, err := splitter.Split(src, nil, splitDecision(decision.StrategyFunctionBased))
	require.NoError(t, err)
	require.Len(t, components, 1, "everything fits in one group under the default limit")
	assert.Equal(t, manyFunctionsSource, components[0].Content)
}

func TestFunctionBasedLateDeclFallsBack(t *testing.T) {
	source := strings.Replace(manyFunctionsSource,
		"func Fifth(s string) string  { return s + s }",
		"var suffix = \":end\"\n\nfunc Fifth(s string) string { return s + suffix }", 1)

	cfg := config.DefaultConfig()
	cfg.MaxFunctionsPerFile = 2

	src := analysis.NewSourceFile("ops.go", source)
	splitter := &FunctionBasedSplitter{cfg: cfg}

	components, err := splitter.Split(src, nil, splitDecision(decision.StrategyFunctionBased))
	require.NoError(t, err)
	require.Len(t, components, 1, "a var after the first group would be reordered; pass through instead")
	assert.Equal(t, source, components[0].Content)
}

func TestModuleBasedIdentity(t *testing.T) {
	src := analysis.NewSourceFile("dir/ops.go", manyFunctionsSource)
	splitter := &ModuleBasedSplitter{}

	components, err := splitter.Split(src, nil, splitDecision(decision.StrategyModuleBased))
	require.NoError(t, err)
	require.Len(t, components, 1)
	assert.Equal(t, "ops.go", components[0].Name)
	assert.Equal(t, manyFunctionsSource, components[0].Content)
}
