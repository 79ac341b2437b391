// Package protocol implements the line-delimited, pipe-separated wire format spoken by game clients.
package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const Separator = "|"

type CommandType string

const (
	CmdCreateRoom     CommandType = "CREATE_ROOM"
	CmdJoinRoom       CommandType = "JOIN_ROOM"
	CmdLeaveRoom      CommandType = "LEAVE_ROOM"
	CmdListRooms      CommandType = "LIST_ROOMS"
	CmdMove           CommandType = "MOVE"
	CmdChat           CommandType = "CHAT"
	CmdRematch        CommandType = "REMATCH"
	CmdGetLeaderboard CommandType = "GET_LEADERBOARD"
	CmdSetName        CommandType = "SET_NAME"
	CmdPing           CommandType = "PING"
)

// Command is a parsed client request. Only the fields relevant to Type are set.
type Command struct {
	Type     CommandType
	Room     string
	Size     int
	Position int
	Text     string
}

// Parse turns one wire line into a Command. Errors wrap apperror.ErrUnknownCommand or
// apperror.ErrMalformedCommand.
func Parse(line string) (Command, error) {
	line = strings.TrimRight(line, "\r\n")

	keyword, rest, hasArgs := strings.Cut(line, Separator)
	cmdType := CommandType(strings.TrimSpace(keyword))

	switch cmdType {
	case CmdCreateRoom:
		return parseCreateRoom(rest, hasArgs)
	case CmdJoinRoom:
		name, err := requireRoomName(cmdType, rest, hasArgs)
		if err != nil {
			return Command{}, err
		}
		return Command{Type: cmdType, Room: name}, nil
	case CmdMove:
		if !hasArgs {
			return Command{}, malformed(cmdType, "missing position")
		}
		position, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			return Command{}, malformed(cmdType, "position must be an integer")
		}
		return Command{Type: cmdType, Position: position}, nil
	case CmdChat:
		if !hasArgs || strings.TrimSpace(rest) == "" {
			return Command{}, malformed(cmdType, "empty message")
		}
		return Command{Type: cmdType, Text: rest}, nil
	case CmdSetName:
		if !hasArgs {
			return Command{}, malformed(cmdType, "missing nickname")
		}
		return Command{Type: cmdType, Text: strings.TrimSpace(rest)}, nil
	case CmdListRooms, CmdRematch, CmdGetLeaderboard, CmdLeaveRoom, CmdPing:
		if hasArgs && strings.TrimSpace(rest) != "" {
			return Command{}, malformed(cmdType, "takes no arguments")
		}
		return Command{Type: cmdType}, nil
	default:
		return Command{}, fmt.Errorf("%w: %q", apperror.ErrUnknownCommand, keyword)
	}
}

func parseCreateRoom(rest string, hasArgs bool) (Command, error) {
	nameField, sizeField, hasSize := strings.Cut(rest, Separator)

	name, err := requireRoomName(CmdCreateRoom, nameField, hasArgs)
	if err != nil {
		return Command{}, err
	}

	cmd := Command{Type: CmdCreateRoom, Room: name, Size: entity.DefaultBoardSize}
	if !hasSize {
		return cmd, nil
	}

	size, err := strconv.Atoi(strings.TrimSpace(sizeField))
	if err != nil {
		return Command{}, malformed(CmdCreateRoom, "board size must be an integer")
	}
	cmd.Size = size

	return cmd, nil
}

func requireRoomName(cmdType CommandType, field string, hasArgs bool) (string, error) {
	if !hasArgs {
		return "", malformed(cmdType, "missing room name")
	}

	if strings.Contains(field, Separator) {
		return "", malformed(cmdType, "too many fields")
	}

	name := strings.TrimSpace(field)
	if name == "" {
		return "", malformed(cmdType, "missing room name")
	}

	return name, nil
}

func malformed(cmdType CommandType, reason string) error {
	return fmt.Errorf("%w: %s %s", apperror.ErrMalformedCommand, cmdType, reason)
}
