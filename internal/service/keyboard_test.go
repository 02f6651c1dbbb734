package service

import (
	"testing"

	"kb-assistant-be/internal/constant"

	"github.com/stretchr/testify/assert"
)

func TestMainKeyboard(t *testing.T) {
	kb := mainKeyboard([]string{"А", "Б"})
	assert.Equal(t, [][]string{
		{"А"},
		{"Б"},
		{constant.TokenSearch, constant.TokenManage, constant.TokenIntelligent},
	}, kb)

	// No topics still yields the command row.
	kb = mainKeyboard(nil)
	assert.Equal(t, [][]string{{constant.TokenSearch, constant.TokenManage, constant.TokenIntelligent}}, kb)
}

func TestSubtopicKeyboardEndsWithBack(t *testing.T) {
	kb := subtopicKeyboard([]string{"раз", "два"})
	assert.Equal(t, [][]string{{"раз"}, {"два"}, {constant.TokenBack}}, kb)
}

func TestManageKeyboardLayout(t *testing.T) {
	kb := manageKeyboard()
	assert.Len(t, kb, 3)
	assert.Equal(t, []string{constant.TokenDelete, constant.TokenBack}, kb[2])
}
