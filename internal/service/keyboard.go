package service

import "kb-assistant-be/internal/constant"

// Keyboards are plain token grids attached to text replies: the rows of
// valid next inputs for the state the user landed in. They are computed
// from the reply, never stored in the session.

func mainKeyboard(topics []string) [][]string {
	keyboard := make([][]string, 0, len(topics)+1)
	for _, topic := range topics {
		keyboard = append(keyboard, []string{topic})
	}
	keyboard = append(keyboard, []string{constant.TokenSearch, constant.TokenManage, constant.TokenIntelligent})
	return keyboard
}

func subtopicKeyboard(subtopics []string) [][]string {
	keyboard := make([][]string, 0, len(subtopics)+1)
	for _, subtopic := range subtopics {
		keyboard = append(keyboard, []string{subtopic})
	}
	keyboard = append(keyboard, []string{constant.TokenBack})
	return keyboard
}

func manageKeyboard() [][]string {
	return [][]string{
		{constant.TokenAddText, constant.TokenAddImage, constant.TokenUploadFile},
		{constant.TokenAddTopic, constant.TokenAddSubtopic, constant.TokenEdit},
		{constant.TokenDelete, constant.TokenBack},
	}
}

func yesNoKeyboard() [][]string {
	return [][]string{
		{constant.TokenYes, constant.TokenNo},
		{constant.TokenCancel},
	}
}

func cancelKeyboard() [][]string {
	return [][]string{{constant.TokenCancel}}
}

func instructionKeyboard() [][]string {
	return [][]string{
		{constant.TokenShowInstruction},
		{constant.TokenCancel},
	}
}
