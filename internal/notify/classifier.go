// Package notify holds the session notification core: classification of
// inbound events, the deduplicated session store, action routing, and the
// subscription manager that ties them to the live stream.
package notify

import (
	"encoding/json"
	"log"

	"weddinghub/internal/common"
)

// Accepts decides whether a raw inbound event is addressed to the given
// identity. It returns the parsed notification, or nil when the payload does
// not parse as the notification wire shape or the recipient does not match.
//
// Pure, no side effects beyond a parse-failure log: several recipients share
// one broadcast channel, so most traffic seen here belongs to someone else
// and is discarded silently.
func Accepts(id common.Identity, raw []byte) *common.Notification {
	var n common.Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		log.Printf("notify: dropping unparseable event: %v", err)
		return nil
	}
	if n.ID == 0 {
		log.Printf("notify: dropping event without id")
		return nil
	}

	if !n.AddressedTo(id) {
		// expected high-frequency traffic, not an error
		return nil
	}

	return &n
}
