package register

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/buger/jsonparser"
	"github.com/gabrielcapilla/focusguard/internal/domain"
)

var ErrEmptyRecord = errors.New("register: empty record")

type claimRecord struct {
	Sender    string `json:"sender"`
	Action    string `json:"action"`
	Timestamp int64  `json:"timestamp"`
}

type focusRecord struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
}

func EncodeClaim(c domain.ClaimMessage) ([]byte, error) {
	return json.Marshal(claimRecord{
		Sender:    c.Sender,
		Action:    c.Action,
		Timestamp: c.Timestamp.UnixMilli(),
	})
}

// DecodeClaim extracts a claim record. Extra fields are ignored; a missing
// timestamp decodes as the zero time, which every staleness check treats as
// stale.
func DecodeClaim(data []byte) (domain.ClaimMessage, error) {
	var c domain.ClaimMessage
	if len(data) == 0 {
		return c, ErrEmptyRecord
	}

	sender, err := jsonparser.GetString(data, "sender")
	if err != nil {
		return c, fmt.Errorf("register: claim sender: %w", err)
	}
	action, err := jsonparser.GetString(data, "action")
	if err != nil {
		return c, fmt.Errorf("register: claim action: %w", err)
	}

	c.Sender = sender
	c.Action = action
	c.Timestamp = decodeMillis(data)
	return c, nil
}

func EncodeFocusClaim(f domain.FocusClaim) ([]byte, error) {
	return json.Marshal(focusRecord{
		ID:        f.InstanceID,
		Timestamp: f.Timestamp.UnixMilli(),
	})
}

func DecodeFocusClaim(data []byte) (domain.FocusClaim, error) {
	var f domain.FocusClaim
	if len(data) == 0 {
		return f, ErrEmptyRecord
	}

	id, err := jsonparser.GetString(data, "id")
	if err != nil {
		return f, fmt.Errorf("register: focus claim id: %w", err)
	}

	f.InstanceID = id
	f.Timestamp = decodeMillis(data)
	return f, nil
}

func decodeMillis(data []byte) time.Time {
	ms, err := jsonparser.GetInt(data, "timestamp")
	if err == nil {
		return time.UnixMilli(ms)
	}
	// Date.now() style writers may emit fractional milliseconds.
	f, err := jsonparser.GetFloat(data, "timestamp")
	if err != nil || f <= 0 || f > 1<<53 {
		return time.Time{}
	}
	return time.UnixMilli(int64(f))
}
