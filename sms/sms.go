// Package sms implements SMS send/read/remove operations. Grounded on
// original_source/src/sms.rs.
package sms

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/amken3d/sim868/broker"
	"github.com/amken3d/sim868/modemerr"
)

// Storage selects which stored messages an operation targets.
type Storage int

const (
	Unread Storage = iota
	Read
	All
)

func (s Storage) listArg() string {
	switch s {
	case Unread:
		return "REC UNREAD"
	case All:
		return "ALL"
	default:
		return "REC READ"
	}
}

func (s Storage) deleteArg() string {
	switch s {
	case Unread:
		return "DEL UNREAD"
	case All:
		return "DEL ALL"
	default:
		return "DEL READ"
	}
}

// Message is one stored SMS.
type Message struct {
	Index    int
	Sender   string
	DateTime time.Time
	Text     string
}

var (
	sentRegexp = regexp.MustCompile(`\+CMGS: \d`)
	listRowRegexp = regexp.MustCompile(`\+CMGL: (\d+),"[^"]*","([^"]*)",[^,]*,"([^"]*)"\r\n([^\r\n]*)`)
)

// SMS drives message send/read/remove operations.
type SMS struct {
	broker *broker.Broker
}

func New(b *broker.Broker) *SMS {
	return &SMS{broker: b}
}

func setTextMode(b *broker.Broker, id broker.TaskId) error {
	resolver := func(text string) (struct{}, error) {
		return struct{}{}, broker.Generic(text, modemerr.New(modemerr.KindSmsTextModeFailed))
	}
	_, err := broker.Process(b, id, "AT+CMGF=1\n", resolver, broker.DefaultTimeout)
	return err
}

// Send sets text mode then submits number/text for delivery.
func (s *SMS) Send(number, text string) *broker.TaskHandle[struct{}] {
	args := sendArgs{number: number, text: text}
	return broker.SpawnTask(s.broker, broker.Normal, "", send, args)
}

type sendArgs struct{ number, text string }

func send(b *broker.Broker, id broker.TaskId, args sendArgs) (struct{}, error) {
	if err := setTextMode(b, id); err != nil {
		return struct{}{}, err
	}

	cmd := fmt.Sprintf("AT+CMGS=%q\n%s\x1A\n", args.number, args.text)
	resolver := func(text string) (struct{}, error) {
		if broker.ErrorMatch(text) {
			return struct{}{}, modemerr.New(modemerr.KindSmsNotSent)
		}
		if sentRegexp.MatchString(text) {
			return struct{}{}, nil
		}
		return struct{}{}, modemerr.NotResolved
	}
	return broker.Process(b, id, cmd, resolver, 20*time.Second)
}

// GetMessages lists stored messages from the given storage.
func (s *SMS) GetMessages(storage Storage) *broker.TaskHandle[[]Message] {
	return broker.SpawnTask(s.broker, broker.Normal, "", getMessages, storage)
}

func getMessages(b *broker.Broker, id broker.TaskId, storage Storage) ([]Message, error) {
	if err := setTextMode(b, id); err != nil {
		return nil, err
	}

	cmd := fmt.Sprintf("AT+CMGL=%q\n", storage.listArg())
	resolver := func(text string) ([]Message, error) {
		if broker.ErrorMatch(text) {
			return nil, modemerr.New(modemerr.KindSmsReadFailed)
		}
		if !broker.AckMatch(text) {
			return nil, modemerr.NotResolved
		}
		return parseMessages(text), nil
	}
	return broker.Process(b, id, cmd, resolver, 20*time.Second)
}

func parseMessages(text string) []Message {
	var out []Message
	for _, m := range listRowRegexp.FindAllStringSubmatch(text, -1) {
		idx, _ := strconv.Atoi(m[1])
		out = append(out, Message{
			Index:    idx,
			Sender:   m[2],
			DateTime: parseSCTS(m[3]),
			Text:     strings.TrimSpace(m[4]),
		})
	}
	return out
}

// parseSCTS parses a +CMGL service-centre timestamp such as
// "24/03/12,09:15:42+08". The trailing timezone quarter-hour offset is
// dropped rather than parsed, matching original_source/src/sms.rs's
// own [0..8] slice of the time field.
func parseSCTS(scts string) time.Time {
	datePart, timePart, ok := strings.Cut(scts, ",")
	if !ok || len(timePart) < 8 {
		return time.Time{}
	}
	dt, err := time.Parse("06/01/02,15:04:05", datePart+","+timePart[:8])
	if err != nil {
		return time.Time{}
	}
	return dt
}

// RemoveAll deletes every message in the given storage.
func (s *SMS) RemoveAll(storage Storage) *broker.TaskHandle[struct{}] {
	return broker.SpawnTask(s.broker, broker.Normal, "", removeAll, storage)
}

func removeAll(b *broker.Broker, id broker.TaskId, storage Storage) (struct{}, error) {
	cmd := fmt.Sprintf("AT+CMGDA=%q\n", storage.deleteArg())
	resolver := func(text string) (struct{}, error) {
		return struct{}{}, broker.Generic(text, modemerr.New(modemerr.KindSmsRemoveFailed))
	}
	return broker.Process(b, id, cmd, resolver, 30*time.Second)
}

// Remove deletes a single message by index.
func (s *SMS) Remove(index int) *broker.TaskHandle[struct{}] {
	return broker.SpawnTask(s.broker, broker.Normal, "", remove, index)
}

func remove(b *broker.Broker, id broker.TaskId, index int) (struct{}, error) {
	cmd := fmt.Sprintf("AT+CMGD=%d\n", index)
	resolver := func(text string) (struct{}, error) {
		return struct{}{}, broker.Generic(text, modemerr.New(modemerr.KindSmsRemoveFailed))
	}
	return broker.Process(b, id, cmd, resolver, 10*time.Second)
}
