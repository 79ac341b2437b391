package protocol

import (
	"strconv"
	"strings"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const (
	EventRoomList           = "ROOM_LIST"
	EventGameStart          = "GAME_START"
	EventWaitingForOpponent = "WAITING_FOR_OPPONENT"
	EventYourTurn           = "YOUR_TURN"
	EventOpponentTurn       = "OPPONENT_TURN"
	EventMove               = "MOVE"
	EventGameOver           = "GAME_OVER"
	EventWinLine            = "WIN_LINE"
	EventOpponentLeft       = "OPPONENT_LEFT"
	EventReturnHome         = "RETURN_HOME"
	EventChat               = "CHAT"
	EventError              = "ERROR"
	EventLeaderboard        = "LEADERBOARD"
	EventNameOK             = "NAME_OK"
	EventPong               = "PONG"

	ResultDraw = "DRAW"
)

var fieldReplacer = strings.NewReplacer(Separator, "/", "\r", " ", "\n", " ")

// Field makes free text safe to embed as a single field.
func Field(text string) string {
	return fieldReplacer.Replace(text)
}

func RoomList(names []string) string {
	return EventRoomList + Separator + strings.Join(names, Separator)
}

// GameStart announces the assigned mark; the board size is appended only for non-classic boards.
func GameStart(mark string, size int) string {
	if size == entity.DefaultBoardSize {
		return EventGameStart + Separator + mark
	}

	return EventGameStart + Separator + mark + Separator + strconv.Itoa(size)
}

func Move(position int, mark string) string {
	return EventMove + Separator + strconv.Itoa(position) + Separator + mark
}

// GameOver - result is the winning mark or ResultDraw.
func GameOver(result string) string {
	return EventGameOver + Separator + result
}

func WinLine(cells []int) string {
	parts := make([]string, 0, len(cells))
	for _, cell := range cells {
		parts = append(parts, strconv.Itoa(cell))
	}

	return EventWinLine + Separator + strings.Join(parts, ",")
}

// Chat - the text keeps any separators it carries; clients split the sender off with a limit of 3.
func Chat(sender, text string) string {
	return EventChat + Separator + Field(sender) + Separator + strings.NewReplacer("\r", " ", "\n", " ").Replace(text)
}

func Error(message string) string {
	return EventError + Separator + Field(message)
}

func Leaderboard(entries []entity.LeaderboardEntry) string {
	var sb strings.Builder

	sb.WriteString(EventLeaderboard)
	for _, entry := range entries {
		sb.WriteString(Separator)
		sb.WriteString(Field(entry.Name))
		sb.WriteString(Separator)
		sb.WriteString(strconv.Itoa(entry.Wins))
		sb.WriteString(Separator)
		sb.WriteString(strconv.Itoa(entry.Losses))
		sb.WriteString(Separator)
		sb.WriteString(strconv.Itoa(entry.Draws))
	}

	return sb.String()
}

func NameOK(name string) string {
	return EventNameOK + Separator + Field(name)
}
