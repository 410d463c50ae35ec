package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionKeyboardHidesReviewerRows(t *testing.T) {
	plain := actionKeyboard(false)
	require.Len(t, plain.ReplyKeyboard, 1)
	assert.Equal(t, btnVacation, plain.ReplyKeyboard[0][0].Text)

	reviewer := actionKeyboard(true)
	require.Len(t, reviewer.ReplyKeyboard, 3)
	assert.Equal(t, btnReview, reviewer.ReplyKeyboard[1][0].Text)
	assert.Equal(t, btnLogs, reviewer.ReplyKeyboard[2][1].Text)
}

func TestVacationCategoriesCoverTypeButtons(t *testing.T) {
	markup := vacationTypeKeyboard()
	for i, row := range markup.ReplyKeyboard {
		label := row[0].Text
		if label == btnMainMenu {
			continue
		}
		_, ok := vacationCategories[label]
		assert.True(t, ok, "row %d %q has no category", i, label)
	}
}
