package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicyLoads(t *testing.T) {
	p := Default()
	assert.Equal(t, 500, p.WordWindow.Min)
	assert.Equal(t, 800, p.WordWindow.Max)
	assert.Equal(t, 280, p.Budget("micro_blog"))
	assert.Equal(t, 1500, p.Budget("broadcast"))
	assert.NotEmpty(t, p.Severity.Keywords)
}

func TestSafetyViolation(t *testing.T) {
	p := Default()
	assert.NotEmpty(t, p.SafetyViolation("Hay que tomar las armas contra el gobierno"))
	assert.NotEmpty(t, p.SafetyViolation("Pidió limpieza social en el barrio"))
	assert.Empty(t, p.SafetyViolation("La fiscalía investiga el atentado contra la sede de la alcaldía"))
}

func TestImageDenied(t *testing.T) {
	p := Default()
	assert.True(t, p.ImageDenied("File:Escudo de Antioquia.svg"))
	assert.True(t, p.ImageDenied("https://upload.wikimedia.org/x/Company_logo.png"))
	assert.False(t, p.ImageDenied("File:Plaza de Bolívar, Bogotá.jpg"))
}

func TestDomainDenied(t *testing.T) {
	p := Default()
	assert.True(t, p.DomainDenied("www.facebook.com"))
	assert.True(t, p.DomainDenied("m.youtube.com"))
	assert.False(t, p.DomainDenied("eltiempo.com"))
}

func TestParseRejectsBadPattern(t *testing.T) {
	_, err := Parse([]byte("safety_patterns: ['(']\nword_window: {min: 1, max: 2}\n"))
	require.Error(t, err)
}
