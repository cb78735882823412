package normalize

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/creatorstation/editorial/internal/engine"
	"github.com/creatorstation/editorial/internal/models"
	"github.com/creatorstation/editorial/internal/policy"
	"github.com/creatorstation/editorial/internal/textnorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCandidate() models.Candidate {
	return models.Candidate{
		ID:           "c1",
		Name:         "Ana María Pérez",
		Office:       "Gobernación de Antioquia",
		Scope:        models.ScopeRegional,
		Region:       "Antioquia",
		BallotNumber: "7",
		Platform: `# Seguridad en los barrios con presencia institucional
- Agua potable para las veredas del oriente
- Empleo joven y formación técnica
Creemos en una Antioquia que cuida a su gente.`,
	}
}

// paragraph builds a Spanish paragraph of n sentences, 12 words each.
func paragraph(n int) string {
	s := make([]string, n)
	for i := range s {
		s[i] = fmt.Sprintf("La comunidad del municipio número %d pide soluciones claras y sostenidas ya.", i+10)
	}
	return strings.Join(s, " ")
}

func TestPickIsDeterministic(t *testing.T) {
	assert.Equal(t, Pick("abc", 7), Pick("abc", 7))
	assert.Equal(t, 0, Pick("abc", 0))
	for i := 0; i < 50; i++ {
		v := Pick(fmt.Sprintf("seed-%d", i), 3)
		assert.True(t, v >= 0 && v < 3)
	}
	day := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "c1|https://x.test|2026-03-01", RunSeed("c1", "https://x.test", day))
}

func TestSanitizeHeadlineStripsNameAndBallot(t *testing.T) {
	pol := policy.Default()
	c := testCandidate()

	cases := []string{
		"Ana María Pérez (número 7) propone un plan contra la inseguridad en el oriente antioqueño",
		"La propuesta de Pérez, #7, frente a la crisis del agua en los municipios del oriente",
		"ANA MARIA PEREZ responde a la emergencia vial en la autopista Medellín-Bogotá",
	}
	for _, in := range cases {
		got := SanitizeHeadline(in, c, "seed", pol)
		assert.False(t, textnorm.ContainsTerm(got, "Pérez"), got)
		assert.False(t, textnorm.ContainsTerm(got, "Ana"), got)
		assert.False(t, textnorm.ContainsTerm(got, "7"), got)
		assert.GreaterOrEqual(t, len([]rune(got)), pol.MinHeadlineRunes, got)
	}
}

func TestSanitizeHeadlineStripsShortSurnames(t *testing.T) {
	pol := policy.Default()
	c := testCandidate()
	c.Name = "Luis de la Paz Gil"

	got := SanitizeHeadline("Gil promete la ampliación del metro de la ciudad hasta el oriente", c, "seed", pol)
	assert.False(t, textnorm.ContainsTerm(got, "Gil"), got)
	assert.Contains(t, got, "promete la ampliación del metro de la ciudad")

	got = SanitizeHeadline("Luis Paz anuncia un plan de vivienda para las familias del Valle de Aburrá", c, "seed", pol)
	assert.False(t, textnorm.ContainsTerm(got, "Paz"), got)
	assert.False(t, textnorm.ContainsTerm(got, "Luis"), got)
	assert.Contains(t, got, "de vivienda")

	assert.Equal(t, []string{"Luis de la Paz Gil", "Luis", "Paz", "Gil"}, nameTerms(c.Name))
}

func TestSanitizeHeadlineFallsBackToGeneric(t *testing.T) {
	pol := policy.Default()
	got := SanitizeHeadline("Ana María Pérez, número 7", testCandidate(), "seed", pol)
	assert.Contains(t, got, "Antioquia")
	assert.Equal(t, got, GenericHeadline(testCandidate(), "seed", pol))
}

func TestPlatformAxes(t *testing.T) {
	axes := PlatformAxes(testCandidate().Platform, 2)
	require.Len(t, axes, 2)
	assert.Equal(t, "seguridad en los barrios con presencia institucional", axes[0])
	assert.Equal(t, "agua potable para las veredas del oriente", axes[1])

	axes = PlatformAxes("Nuestro compromiso es una educación pública de calidad para todos. Corto.", 1)
	require.Len(t, axes, 1)
	assert.Equal(t, "nuestro compromiso es una educación pública de calidad para todos", axes[0])
}

func TestBuildSubtitleIsReproducible(t *testing.T) {
	pol := policy.Default()
	c := testCandidate()
	a := BuildSubtitle(c, "seed-1", pol)
	assert.Equal(t, a, BuildSubtitle(c, "seed-1", pol))
	assert.Contains(t, a, "Ana María Pérez")
	assert.Contains(t, a, "7")
	assert.Contains(t, a, "seguridad en los barrios")
}

func TestInjectAlignmentBothMissing(t *testing.T) {
	pol := policy.Default()
	text := paragraph(2) + "\n\n## Cómo encaja\n\n" + paragraph(2) + "\n\n## Contexto\n\n" + paragraph(1) + "\n\nFuente: https://diario.test/nota"
	got := InjectAlignment(text, testCandidate(), "la crisis del agua", "seed", pol)
	require.True(t, got.Injected)
	assert.Contains(t, got.Paragraph, "**Ana María Pérez (número 7)**")

	paras := splitParagraphs(got.Text)
	// inserted right after the "Cómo encaja" section, before the next heading
	assert.Equal(t, got.Paragraph, paras[3])
	assert.Equal(t, "## Contexto", paras[4])
}

func TestInjectAlignmentOnlyAddsMissingPart(t *testing.T) {
	pol := policy.Default()
	c := testCandidate()

	withBold := paragraph(2) + "\n\nLo dijo **Ana María Pérez (número 7)** en Rionegro.\n\nFuente: https://diario.test"
	got := InjectAlignment(withBold, c, "el agua", "seed", pol)
	require.True(t, got.Injected)
	assert.NotContains(t, got.Paragraph, "**")
	assert.True(t, hasTieCue(got.Paragraph, pol))
	paras := splitParagraphs(got.Text)
	assert.Equal(t, "Fuente: https://diario.test", paras[len(paras)-1])

	withTie := paragraph(2) + "\n\nEl hecho se conecta con la seguridad en los barrios."
	got = InjectAlignment(withTie, c, "el agua", "seed", pol)
	require.True(t, got.Injected)
	assert.Contains(t, got.Paragraph, "**Ana María Pérez (número 7)**")
	assert.False(t, hasTieCue(got.Paragraph, pol))

	both := withBold + "\n\nEsto se relaciona con su propuesta de agua potable."
	got = InjectAlignment(both, c, "el agua", "seed", pol)
	assert.False(t, got.Injected)
	assert.Equal(t, both, got.Text)
}

func TestCompleteVariantsFillsAndClamps(t *testing.T) {
	pol := policy.Default()
	long := "## Título\n\n" + paragraph(40)
	v := CompleteVariants(map[string]string{models.ChannelMicroBlog: paragraph(5)}, long, pol)
	for _, ch := range models.Channels {
		require.NotEmpty(t, v[ch], ch)
		if b := pol.Budget(ch); b > 0 {
			assert.LessOrEqual(t, len([]rune(v[ch])), b, ch)
		}
	}
	assert.Equal(t, long, v[models.ChannelLongForm])
	assert.NotContains(t, v[models.ChannelBroadcast], "##")
}

func TestBackfillKeywords(t *testing.T) {
	pol := policy.Default()
	got := BackfillKeywords(nil, testCandidate(), pol)
	assert.Equal(t, "Ana María Pérez", got[0])
	assert.Contains(t, got, "número 7")
	assert.Contains(t, got, "Antioquia")
	assert.LessOrEqual(t, len(got), maxKeywords)

	got = BackfillKeywords([]string{"Agua", "agua", " #seguridad "}, testCandidate(), pol)
	assert.Equal(t, []string{"Agua", "seguridad"}, got)
}

func TestFitWordWindowTrimsBody(t *testing.T) {
	pol := policy.Default()
	first := paragraph(5)
	protected := "Este hecho se conecta con el programa de **Ana María Pérez (número 7)**."
	text := strings.Join([]string{first, paragraph(30), protected, paragraph(40), "Fuente: https://diario.test"}, "\n\n")
	require.Greater(t, textnorm.WordCount(text), 800)

	out, words, err := FitWordWindow(text, protected, pol)
	require.NoError(t, err)
	assert.LessOrEqual(t, words, 800)
	assert.GreaterOrEqual(t, words, 500)
	assert.True(t, strings.HasPrefix(out, first))
	assert.Contains(t, out, protected)
	assert.True(t, strings.HasSuffix(out, "Fuente: https://diario.test"))
}

func TestFitWordWindowTooShort(t *testing.T) {
	_, _, err := FitWordWindow(paragraph(10), "", policy.Default())
	assert.True(t, errors.Is(err, ErrTooShort))
}

func TestNormalizeEndToEnd(t *testing.T) {
	pol := policy.Default()
	long := paragraph(3) + "\n\n## Cómo encaja\n\n" + paragraph(45)
	art, err := New(pol).Normalize(Input{
		Candidate: testCandidate(),
		Output: engine.Output{
			Headline:         "Ana María Pérez advierte por la crisis del agua en el oriente antioqueño",
			PlatformVariants: map[string]string{models.ChannelLongForm: long},
		},
		Topic:     "la crisis del agua",
		SourceURL: "https://diario.test/agua",
		Seed:      "seed",
	})
	require.NoError(t, err)
	assert.False(t, textnorm.ContainsTerm(art.Headline, "Pérez"))
	assert.Contains(t, art.Subtitle, "Ana María Pérez")
	assert.True(t, art.AlignmentInjected)
	assert.Contains(t, art.LongForm, "Fuente: https://diario.test/agua")
	assert.True(t, art.WordCount >= 500 && art.WordCount <= 800)
	assert.Len(t, art.Variants, len(models.Channels))
	assert.NotEmpty(t, art.SEOKeywords)
	assert.Equal(t, art.LongForm, art.Variants[models.ChannelLongForm])
}

func TestNormalizeTooShortFails(t *testing.T) {
	_, err := New(policy.Default()).Normalize(Input{
		Candidate: testCandidate(),
		Output:    engine.Output{MasterEditorial: paragraph(5)},
		Seed:      "s",
	})
	assert.ErrorIs(t, err, ErrOutOfBounds)
}
