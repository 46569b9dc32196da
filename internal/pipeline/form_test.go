package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/extraction"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/inbound"
)

func TestApplyForm_FormAnswersWin(t *testing.T) {
	// Arrange
	res := &extraction.Result{
		Venue:     extraction.StrPtr("Oak Barn car park"),
		EventType: extraction.StrPtr("party"),
		EventDate: extraction.StrPtr("2026-06-13"),
	}
	form := inbound.FormData{
		Name:      "Jane Doe",
		Venue:     "The Oak Barn",
		DateText:  "12 June 2026",
		TimeText:  "7pm - 11pm",
		EventType: "wedding",
	}

	// Act
	applyForm(res, form, fixedNow())

	// Assert
	assert.Equal(t, "Jane Doe", extraction.Str(res.ClientName))
	assert.Equal(t, "The Oak Barn", extraction.Str(res.Venue))
	assert.Equal(t, "wedding", extraction.Str(res.EventType))
	assert.Equal(t, "2026-06-12", extraction.Str(res.EventDate))
	assert.Equal(t, "19:00", extraction.Str(res.EventTime))
	assert.Equal(t, "23:00", extraction.Str(res.EventEndTime))
	require.Contains(t, res.Metadata, "form_overrides")
	assert.Contains(t, res.Metadata["form_overrides"], "venue")
}

func TestApplyForm_VagueDateKeepsExtraction(t *testing.T) {
	res := &extraction.Result{EventDate: extraction.StrPtr("2026-06-13")}

	applyForm(res, inbound.FormData{DateText: "TBC"}, fixedNow())

	assert.Equal(t, "2026-06-13", extraction.Str(res.EventDate))
	assert.NotContains(t, res.Metadata, "form_overrides")
}

func TestApplyForm_EmptyFormIsNoop(t *testing.T) {
	res := &extraction.Result{}

	applyForm(res, inbound.FormData{}, fixedNow())

	assert.Nil(t, res.Metadata)
}
