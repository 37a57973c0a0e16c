package game

import "errors"

var ErrUnknownType = errors.New("unrecognized game type")
var ErrBadParams = errors.New("invalid game parameters")
var ErrGameStarted = errors.New("game already started")
var ErrGameFull = errors.New("game is full")
var ErrNotHost = errors.New("only the host may do that")
