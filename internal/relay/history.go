package relay

import (
	"context"
	"log"
)

// replayHistory sends the room's recent messages, oldest first, to connID only.
// A read failure is reported to that connection and does not undo the join.
func (r *Router) replayHistory(ctx context.Context, connID, roomID string) {
	msgs, err := r.messages.Recent(ctx, roomID, r.historyLimit)
	if err != nil {
		log.Printf("[Relay] history for %s: %v", roomID, err)
		r.fanout.ToSelf(connID, errorEvent(msgHistoryFailed))
		return
	}
	for i := range msgs {
		r.fanout.ToSelf(connID, chatMessageEvent(&msgs[i]))
	}
}
