// Package phone implements voice-call answer/call/hangup and passive
// incoming-call detection. Grounded on original_source/src/phone.rs.
package phone

import (
	"fmt"
	"regexp"
	"time"

	"github.com/amken3d/sim868/broker"
	"github.com/amken3d/sim868/modemerr"
)

var incomingCallRegexp = regexp.MustCompile(`\+CLIP: "([^"]*)"`)

const incomingCallTimeout = 4 * time.Second

// IncomingCall carries the caller id reported by +CLIP.
type IncomingCall struct {
	CallerID string
}

// Phone drives answer/call/hangup and passive call detection.
type Phone struct {
	broker *broker.Broker
}

func New(b *broker.Broker) *Phone {
	return &Phone{broker: b}
}

// Answer is HIGH priority: a ringing call is latency-sensitive.
func (p *Phone) Answer() *broker.TaskHandle[struct{}] {
	return broker.SpawnTask(p.broker, broker.High, "", answer, struct{}{})
}

func answer(b *broker.Broker, id broker.TaskId, _ struct{}) (struct{}, error) {
	resolver := func(text string) (struct{}, error) {
		return struct{}{}, broker.Generic(text, modemerr.New(modemerr.KindPhoneCallNotAnswered))
	}
	return broker.Process(b, id, "ATA\n", resolver, broker.DefaultTimeout)
}

// Call dials number at NORMAL priority.
func (p *Phone) Call(number string) *broker.TaskHandle[struct{}] {
	return broker.SpawnTask(p.broker, broker.Normal, "", call, number)
}

func call(b *broker.Broker, id broker.TaskId, number string) (struct{}, error) {
	cmd := fmt.Sprintf("ATD%s;\n", number)
	resolver := func(text string) (struct{}, error) {
		return struct{}{}, broker.Generic(text, modemerr.New(modemerr.KindPhoneCallNotCalled))
	}
	return broker.Process(b, id, cmd, resolver, broker.DefaultTimeout)
}

// EndCall is HIGH priority: hanging up should preempt queued work.
func (p *Phone) EndCall() *broker.TaskHandle[struct{}] {
	return broker.SpawnTask(p.broker, broker.High, "", endCall, struct{}{})
}

func endCall(b *broker.Broker, id broker.TaskId, _ struct{}) (struct{}, error) {
	resolver := func(text string) (struct{}, error) {
		return struct{}{}, broker.Generic(text, modemerr.New(modemerr.KindPhoneCallNotEnded))
	}
	return broker.Process(b, id, "ATH\n", resolver, broker.DefaultTimeout)
}

// GetIncomingCall listens passively for an unsolicited +CLIP line,
// using broker.Read (not Process) because no command is sent.
func (p *Phone) GetIncomingCall() *broker.TaskHandle[IncomingCall] {
	return broker.SpawnTask(p.broker, broker.Normal, "", getIncomingCall, struct{}{})
}

func getIncomingCall(b *broker.Broker, id broker.TaskId, _ struct{}) (IncomingCall, error) {
	resolver := func(text string) (IncomingCall, error) {
		m := incomingCallRegexp.FindStringSubmatch(text)
		if m == nil {
			return IncomingCall{}, modemerr.NotResolved
		}
		return IncomingCall{CallerID: m[1]}, nil
	}
	return broker.Read(b, id, resolver, incomingCallTimeout)
}
