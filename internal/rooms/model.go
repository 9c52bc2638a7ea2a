package rooms

import (
	"context"
	"time"

	"wordrush/internal/game"
	"wordrush/internal/wshub"
)

type Room struct {
	Code      string
	Session   *game.Session
	Hub       *wshub.Hub
	CreatedAt time.Time
	HostID    string

	cancel context.CancelFunc
}
