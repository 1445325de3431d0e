package studio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-photo-studio/internal/imageproc"
	"ai-photo-studio/internal/prompt"
)

func TestDefaults(t *testing.T) {
	w := Defaults(prompt.ModeWedding)
	assert.Equal(t, 4, w.Variations)
	assert.Equal(t, imageproc.AspectOriginal, w.Aspect)
	assert.Equal(t, 50, w.Brightness)
	assert.Equal(t, 20, w.Blur)
	assert.Equal(t, 4, w.OutputK)

	assert.Equal(t, 1, Defaults(prompt.ModeRestore).Variations)
	assert.Equal(t, "4:5", Defaults(prompt.ModeStreet).StreetAspect)
	assert.Equal(t, "2:3", Defaults(prompt.ModeReference).ReferenceAspect)
}

func TestNormalize(t *testing.T) {
	s := Defaults(prompt.ModeWedding)
	s.Themes = []string{" a ", "a", "", "b", "c", "d", "e", "f", "g"}
	s.Variations = 42
	s.Effects = []prompt.Weighted{
		{Name: prompt.GlitchVHS, Influence: 80},
		{Name: prompt.GlitchVHS, Influence: 10},
		{Name: "Bokeh", Influence: 140},
	}
	s.Accessories = []prompt.Weighted{{Name: "Khăn voan", Influence: -3}}
	s.Tone = "sepia"
	s.Grain = 300
	s.Aspect = "4:5"
	s.Resolution = "1x1"
	s.OutputK = 8
	s.Notes = "  more light  "

	n := s.Normalize()
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, n.Themes)
	assert.Equal(t, MaxVariations, n.Variations)
	assert.Equal(t, []prompt.Weighted{
		{Name: prompt.GlitchVHS, Influence: prompt.MaxGlitchInfluence},
		{Name: "Bokeh", Influence: 100},
	}, n.Effects)
	assert.Equal(t, 0, n.Accessories[0].Influence)
	assert.Equal(t, prompt.ToneNeutral, n.Tone)
	assert.Equal(t, 100, n.Grain)
	assert.Equal(t, imageproc.DefaultResolution("4:5"), n.Resolution)
	assert.Equal(t, 4, n.OutputK)
	assert.Equal(t, "more light", n.Notes)

	// the input is left untouched
	assert.Len(t, s.Themes, 9)
}

func TestNormalizeModeSpecific(t *testing.T) {
	s := Defaults(prompt.ModeStreet)
	s.KeepOriginal = true
	s.Variations = 0
	s.StreetAspect = "16:9"
	n := s.Normalize()
	assert.False(t, n.KeepOriginal)
	assert.Equal(t, 4, n.Variations)
	assert.Equal(t, "4:5", n.StreetAspect)

	r := Defaults(prompt.ModeRestore)
	r.Variations = -1
	assert.Equal(t, 1, r.Normalize().Variations)
}

func TestResolveThemesAndDescription(t *testing.T) {
	s := Defaults(prompt.ModeWedding)
	assert.Equal(t, []string{prompt.DefaultTheme}, s.ResolveThemes())

	s.Themes = []string{"A", "B"}
	assert.Equal(t, []string{"A", "B"}, s.ResolveThemes())
	assert.Equal(t, "A, B", s.Description())

	s.Effects = []prompt.Weighted{{Name: "Bokeh", Influence: 60}, {Name: prompt.GlitchArt, Influence: 30}}
	assert.Equal(t, "A, B + Bokeh (60%), "+prompt.GlitchArt+" (30%)", s.Description())

	s.KeepOriginal = true
	assert.Equal(t, []string{prompt.KeepOriginalTheme}, s.ResolveThemes())
}

func TestPromptDispatchesByMode(t *testing.T) {
	s := Defaults(prompt.ModeRestore)
	s.Themes = []string{"Khử màu ố vàng (cân bằng lại màu)"}
	got := Prompts(s)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "TASK: "+prompt.RestoreTask(s.Themes[0]))

	st := Defaults(prompt.ModeStreet)
	st.Themes = []string{"unlisted scene"}
	assert.Contains(t, Prompts(st)[0], "unlisted scene")
}

func TestToggleTheme(t *testing.T) {
	s := Defaults(prompt.ModeWedding)
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		require.NoError(t, s.ToggleTheme(name))
	}
	assert.ErrorIs(t, s.ToggleTheme("g"), ErrTooManyThemes)

	require.NoError(t, s.ToggleTheme("c"))
	assert.Equal(t, []string{"a", "b", "d", "e", "f"}, s.Themes)

	require.NoError(t, s.ToggleTheme(prompt.KeepOriginalTheme))
	assert.True(t, s.KeepOriginal)
	assert.Empty(t, s.Themes)

	require.NoError(t, s.ToggleTheme("a"))
	assert.False(t, s.KeepOriginal)
	assert.Equal(t, []string{"a"}, s.Themes)
}

func TestToggleWeighted(t *testing.T) {
	s := Defaults(prompt.ModeWedding)
	s.ToggleEffect(prompt.GlitchArt)
	s.ToggleEffect("Bokeh")
	s.ToggleAccessory("Khăn voan")
	assert.Equal(t, prompt.MaxGlitchInfluence, s.Effects[0].Influence)
	assert.Equal(t, prompt.DefaultEffectInfluence, s.Effects[1].Influence)
	assert.Equal(t, prompt.DefaultAccessoryInfluence, s.Accessories[0].Influence)

	assert.True(t, s.SetWeight("Bokeh", 75))
	assert.Equal(t, 75, s.Effects[1].Influence)
	assert.False(t, s.SetWeight("missing", 10))

	s.ToggleEffect("Bokeh")
	assert.Len(t, s.Effects, 1)
}

func TestSet(t *testing.T) {
	s := Defaults(prompt.ModeWedding)
	require.NoError(t, s.Set("variations", "2"))
	require.NoError(t, s.Set("Tone", "WARM"))
	require.NoError(t, s.Set("wedding", "true"))
	require.NoError(t, s.Set("aspect", "16:9"))
	require.NoError(t, s.Set("output", "2k"))
	require.NoError(t, s.Set("notes", " soft light "))

	assert.Equal(t, 2, s.Variations)
	assert.Equal(t, prompt.ToneWarm, s.Tone)
	assert.True(t, s.WeddingActive)
	assert.Equal(t, "16:9", s.Aspect)
	assert.Equal(t, imageproc.DefaultResolution("16:9"), s.Resolution)
	assert.Equal(t, 2, s.OutputK)
	assert.Equal(t, "soft light", s.Notes)

	assert.Error(t, s.Set("variations", "9"))
	assert.Error(t, s.Set("grain", "101"))
	assert.Error(t, s.Set("tone", "sepia"))
	assert.Error(t, s.Set("colour", "red"))

	st := Defaults(prompt.ModeStreet)
	require.NoError(t, st.Set("aspect", "3:2"))
	assert.Equal(t, "3:2", st.StreetAspect)
	assert.Error(t, st.Set("aspect", "1:1"))
}
