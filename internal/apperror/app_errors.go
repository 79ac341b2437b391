package apperror

import "errors"

var (
	ErrRoomAlreadyExists = errors.New("room already exists")
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomFull          = errors.New("room is full")
	ErrInvalidRoomName   = errors.New("invalid room name")
	ErrInvalidBoardSize  = errors.New("unsupported board size")
	ErrNotInRoom         = errors.New("you are not in a room")
	ErrAlreadyInRoom     = errors.New("you are already in a room")

	ErrGameAbandoned = errors.New("game was abandoned")
	ErrInvalidMove   = errors.New("invalid move")

	ErrUnknownCommand   = errors.New("unknown command")
	ErrMalformedCommand = errors.New("malformed command")
	ErrInvalidNickname  = errors.New("invalid nickname")
)
