package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talahq/docintake/constants"
)

const sampleCV = `Carlos Eduardo Ruiz
carlos.ruiz@example.com
+57 310 555 9876

Perfil Profesional
Backend engineer focused on payment systems.

Experiencia Laboral
2020 - Present Staff Engineer
Pagos Andinos S.A.S.
Led the settlement pipeline rewrite.

2016 - 2020 Backend Developer
Banco Central
Core ledger maintenance.

Educación
2011 - 2015 Ingeniería de Sistemas
Universidad Nacional

Habilidades
Go, PostgreSQL, Kafka

Idiomas
Español, Inglés
`

func TestCVExtractSpanishSections(t *testing.T) {
	e := NewCVExtractor(nil)
	rec, err := e.Extract(sampleCV)
	require.NoError(t, err)
	require.NotNil(t, rec.CV)
	cv := rec.CV

	assert.Equal(t, constants.TypeCV, rec.Type)
	assert.Equal(t, "Carlos Eduardo Ruiz", cv.FullName)
	assert.Equal(t, "carlos.ruiz@example.com", cv.Email)
	assert.NotEmpty(t, cv.Phone)
	assert.Contains(t, cv.Summary, "payment systems")

	require.Len(t, cv.Experience, 2)
	assert.Equal(t, "Staff Engineer", cv.Experience[0].JobTitle)
	assert.Equal(t, "2020", cv.Experience[0].StartDate)
	assert.Equal(t, "Present", cv.Experience[0].EndDate)
	assert.Equal(t, "Pagos Andinos S.A.S.", cv.Experience[0].Company)
	assert.Equal(t, "2016", cv.Experience[1].StartDate)
	assert.Equal(t, "2020", cv.Experience[1].EndDate)

	require.Len(t, cv.Education, 1)
	assert.Equal(t, "Universidad Nacional", cv.Education[0].Institution)

	assert.Equal(t, []string{"Go", "PostgreSQL", "Kafka"}, cv.Skills)
	assert.Equal(t, []string{"Español", "Inglés"}, cv.Languages)
	assert.Greater(t, rec.Confidence, float32(0.6))
}

func TestCVExtractNameHeuristics(t *testing.T) {
	e := NewCVExtractor(nil)

	rec, err := e.Extract("Ana Gómez\nsomething else")
	require.NoError(t, err)
	assert.Equal(t, "Ana Gómez", rec.CV.FullName)

	// A first line with digits is a header, not a name.
	rec, err = e.Extract("Page 1 of 3\nAna Gómez")
	require.NoError(t, err)
	assert.Empty(t, rec.CV.FullName)

	// Too many tokens is prose, not a name.
	rec, err = e.Extract("this opening line clearly has far too many words to be a name")
	require.NoError(t, err)
	assert.Empty(t, rec.CV.FullName)
}

func TestCVExtractEmptyText(t *testing.T) {
	e := NewCVExtractor(nil)
	rec, err := e.Extract("")
	require.NoError(t, err)
	require.NotNil(t, rec.CV)
	assert.Empty(t, rec.CV.FullName)
	assert.Empty(t, rec.CV.Experience)
	assert.Less(t, rec.Confidence, float32(0.4))
}
