package game

import (
	"context"

	"github.com/rs/zerolog/log"

	"InvestArena/internal/calculator"
	"InvestArena/internal/model"
	"InvestArena/internal/notifier"
)

const (
	quizIntro       = "The quiz begins! Answer each question with a single word.\n"
	answersAccepted = "Answers accepted"
)

// QuizSummary reports a scored quiz.
type QuizSummary struct {
	Scored              int
	FailedNotifications int
}

// StartQuiz opens the quiz and broadcasts the first question.
func (c *Controller) StartQuiz(ctx context.Context) error {
	c.mu.Lock()
	if c.game.Started || c.game.AwaitingCoefficient {
		c.mu.Unlock()
		return ErrRoundOpen
	}
	if c.game.QuizActive {
		c.mu.Unlock()
		return ErrQuizActive
	}
	questions := c.catalog.Quiz.Questions
	if len(questions) == 0 {
		c.mu.Unlock()
		return ErrNoQuestions
	}
	c.game.QuizActive = true
	c.saveGame(ctx)
	text := quizIntro + questions[0].Text
	msgs := c.toAll(func(*model.Team) model.Message { return model.Message{Text: text} })
	c.mu.Unlock()

	log.Info().Int("questions", len(questions)).Msg("quiz started")
	c.dispatch.Dispatch(ctx, msgs)
	return nil
}

// EndQuiz stops accepting answers.
func (c *Controller) EndQuiz(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.game.QuizActive {
		return ErrQuizNotActive
	}
	c.game.QuizActive = false
	c.saveGame(ctx)
	log.Info().Msg("quiz ended")
	return nil
}

// SubmitAnswer records free text from ownerID as the next quiz answer.
// accepted is false when the text is not a quiz answer at all: the sender
// has no team, the quiz is not running, or every question was answered.
// reply is the next question or a confirmation after the last one.
func (c *Controller) SubmitAnswer(ctx context.Context, ownerID int64, text string) (reply string, accepted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	team, ok := c.registry.ByOwner(ownerID)
	if !ok || !c.game.QuizActive {
		return "", false
	}
	questions := c.catalog.Quiz.Questions
	if len(team.QuizAnswers) >= len(questions) {
		return "", false
	}
	team.QuizAnswers = append(team.QuizAnswers, text)
	c.saveTeam(ctx, team)

	if n := len(team.QuizAnswers); n < len(questions) {
		return questions[n].Text, true
	}
	return answersAccepted, true
}

// ScoreQuiz pays the quiz bonus to every team that answered, notifies them
// and clears their answers. Only teams with at least one correct answer are
// written back to storage.
func (c *Controller) ScoreQuiz(ctx context.Context) (*QuizSummary, error) {
	c.mu.Lock()
	if c.game.QuizActive {
		c.mu.Unlock()
		return nil, ErrQuizActive
	}

	quiz := c.catalog.Quiz
	res := &QuizSummary{}
	var msgs []model.Message
	for _, t := range c.registry.All() {
		if len(t.QuizAnswers) == 0 {
			continue
		}
		correct := 0
		for i, answer := range t.QuizAnswers {
			if i < len(quiz.Questions) && quiz.Questions[i].Accepts(answer) {
				correct++
			}
		}
		coef := quiz.Bonus(correct)
		before := [2]float64{t.Asset1, t.Asset2}
		t.Asset1 = calculator.Apply(t.Asset1, coef)
		t.Asset2 = calculator.Apply(t.Asset2, coef)
		after := [2]float64{t.Asset1, t.Asset2}
		t.QuizAnswers = []string{}
		if correct > 0 {
			c.saveTeam(ctx, t)
		}
		res.Scored++
		msgs = append(msgs, model.Message{
			ChatID: t.OwnerID,
			Text:   notifier.FormatQuizResult(correct, len(quiz.Questions), coef, before, after),
		})
	}
	rows := calculator.Rank(c.registry.All())
	c.mu.Unlock()

	res.FailedNotifications = c.dispatch.Dispatch(ctx, msgs)
	c.syncLeaderboard(ctx, rows)
	log.Info().Int("teams", res.Scored).Msg("quiz scored")
	return res, nil
}
