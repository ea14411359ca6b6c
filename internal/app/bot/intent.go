package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vipgate/vipgate/pkg/types"
)

// Callback payloads are decoded once, at this boundary, into a closed intent
// enum; the raw string never travels further.

type IntentKind string

const (
	IntentKindSelectGroup IntentKind = "select_group"
	IntentKindBuy         IntentKind = "buy"
)

type Intent struct {
	Kind     IntentKind
	GroupID  int64
	Duration types.Duration // set for buy intents only
}

var ErrUnknownIntent = errors.New("bot: unknown callback intent")

// EncodeSelectGroup builds the callback payload for picking a group.
func EncodeSelectGroup(groupID int64) string {
	return fmt.Sprintf("group_%d", groupID)
}

// EncodeBuy builds the callback payload for buying a package.
func EncodeBuy(groupID int64, d types.Duration) string {
	return fmt.Sprintf("buy_%d_%s", groupID, d)
}

// DecodeIntent parses a callback payload ("group_<id>" or "buy_<id>_<dur>").
func DecodeIntent(data string) (Intent, error) {
	switch {
	case strings.HasPrefix(data, "group_"):
		groupID, err := strconv.ParseInt(strings.TrimPrefix(data, "group_"), 10, 64)
		if err != nil {
			return Intent{}, fmt.Errorf("%w: %q", ErrUnknownIntent, data)
		}
		return Intent{Kind: IntentKindSelectGroup, GroupID: groupID}, nil

	case strings.HasPrefix(data, "buy_"):
		parts := strings.Split(strings.TrimPrefix(data, "buy_"), "_")
		if len(parts) != 2 {
			return Intent{}, fmt.Errorf("%w: %q", ErrUnknownIntent, data)
		}
		groupID, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return Intent{}, fmt.Errorf("%w: %q", ErrUnknownIntent, data)
		}
		d := types.Duration(parts[1])
		if !d.Valid() {
			return Intent{}, fmt.Errorf("%w: %q", ErrUnknownIntent, data)
		}
		return Intent{Kind: IntentKindBuy, GroupID: groupID, Duration: d}, nil
	}
	return Intent{}, fmt.Errorf("%w: %q", ErrUnknownIntent, data)
}
