package service

import (
	"context"
	"testing"

	"lesson-smart-go/internal/model"

	"github.com/stretchr/testify/require"
)

func seededQuizService(t *testing.T, client *stubLLM) (QuizService, *stubQuizRepo) {
	t.Helper()
	lessonRepo := newStubLessonRepo()
	require.NoError(t, lessonRepo.Create(&model.LessonPlan{
		UserID:     5,
		Grade:      "Grade 6",
		Difficulty: model.DifficultyHard,
		Language:   "French",
		Content:    "# Plan\n\nPhotosynthesis basics.",
	}))
	quizRepo := newStubQuizRepo()
	return NewQuizService(client, lessonRepo, quizRepo), quizRepo
}

func TestGenerateQuiz_PromptEmbedsStoredPlanContent(t *testing.T) {
	client := &stubLLM{response: "## Quiz"}
	svc, _ := seededQuizService(t, client)

	quiz, err := svc.GenerateQuiz(context.Background(), 1, model.QuizRequest{NumQuestions: 5}, &model.User{ID: 5})
	require.NoError(t, err)
	require.Len(t, client.prompts, 1)
	require.Contains(t, client.prompts[0], "LESSON PLAN START")
	require.Contains(t, client.prompts[0], "Photosynthesis basics.")
	require.Contains(t, client.prompts[0], "LESSON PLAN END")
	require.Equal(t, "## Quiz", quiz.Content)
}

func TestGenerateQuiz_NumQuestionsClamped(t *testing.T) {
	cases := []struct {
		name      string
		requested int
		want      int
	}{
		{"default when unset", 0, 7},
		{"below minimum", 1, 3},
		{"above maximum", 50, 15},
		{"within range", 10, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &stubLLM{response: "quiz"}
			svc, _ := seededQuizService(t, client)

			quiz, err := svc.GenerateQuiz(context.Background(), 1, model.QuizRequest{NumQuestions: tc.requested}, &model.User{ID: 5})
			require.NoError(t, err)
			require.Equal(t, tc.want, quiz.NumQuestions)
		})
	}
}

func TestGenerateQuiz_DefaultsFollowPlan(t *testing.T) {
	client := &stubLLM{response: "quiz"}
	svc, _ := seededQuizService(t, client)

	quiz, err := svc.GenerateQuiz(context.Background(), 1, model.QuizRequest{}, &model.User{ID: 5})
	require.NoError(t, err)
	require.Equal(t, model.DifficultyHard, quiz.Difficulty)
	require.Equal(t, "French", quiz.Language)
}

func TestGenerateQuiz_ForbiddenForOtherUser(t *testing.T) {
	client := &stubLLM{response: "quiz"}
	svc, quizRepo := seededQuizService(t, client)

	_, err := svc.GenerateQuiz(context.Background(), 1, model.QuizRequest{}, &model.User{ID: 99, Role: "USER"})
	require.ErrorIs(t, err, ErrForbidden)
	require.Zero(t, client.calls)
	require.Empty(t, quizRepo.quizzes)
}

func TestListQuizzes_OwnerOnly(t *testing.T) {
	client := &stubLLM{response: "quiz"}
	svc, _ := seededQuizService(t, client)

	_, err := svc.GenerateQuiz(context.Background(), 1, model.QuizRequest{}, &model.User{ID: 5})
	require.NoError(t, err)

	quizzes, err := svc.ListQuizzes(context.Background(), 1, &model.User{ID: 5})
	require.NoError(t, err)
	require.Len(t, quizzes, 1)

	_, err = svc.ListQuizzes(context.Background(), 1, &model.User{ID: 2, Role: "USER"})
	require.ErrorIs(t, err, ErrForbidden)
}
