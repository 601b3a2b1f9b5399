package game

import "errors"

// Precondition and input errors. The bot layer turns them into replies.
var (
	ErrRoundOpen                 = errors.New("current round is not finished")
	ErrQuizActive                = errors.New("quiz is in progress")
	ErrQuizNotActive             = errors.New("quiz has not started")
	ErrNoQuestions               = errors.New("quiz has no questions")
	ErrNoRoundsLeft              = errors.New("that was the last round")
	ErrNothingToClose            = errors.New("current round is already finished")
	ErrCustomCoefficientRequired = errors.New("custom coefficient required")
	ErrRoundClosed               = errors.New("trading is over")
	ErrUnknownPosition           = errors.New("unknown position")
	ErrInvalidSlot               = errors.New("asset must be 1 or 2")
	ErrInvalidNumber             = errors.New("invalid number")
	ErrNotRegistered             = errors.New("team not registered")
	ErrUnknownTeam               = errors.New("unknown team id")
	ErrEmptyName                 = errors.New("team name is empty")
	ErrAlreadyRegistered         = errors.New("already registered")
	ErrGameStarted               = errors.New("game has already started")
	ErrInvalidToken              = errors.New("invalid join code")
	ErrTokenUsed                 = errors.New("join code already activated")
)
