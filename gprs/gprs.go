// Package gprs implements GPRS bearer management and HTTP request flow
// atop it. Grounded on original_source/src/gprs.rs and
// original_source/src/http.rs.
package gprs

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/amken3d/sim868/broker"
	"github.com/amken3d/sim868/modemerr"
)

var connStatusRegexp = regexp.MustCompile(`\+SAPBR: (.+)`)

// ApnConfig configures the GPRS bearer.
type ApnConfig struct {
	APN      string
	User     string
	Password string
}

// RequestMethod is the HTTP verb the SIM868 HTTP stack supports.
type RequestMethod int

const (
	Get RequestMethod = iota
	Post
	Head
)

func (m RequestMethod) atValue() int {
	switch m {
	case Post:
		return 1
	case Head:
		return 2
	default:
		return 0
	}
}

// ContentType selects how Request.Data is serialized.
type ContentType int

const (
	FormURLEncoded ContentType = iota
	JSON
)

// Request describes one HTTP call over the GPRS bearer. Data is
// serialized as a query string (GET) or a request body (POST)
// according to ContentType.
type Request[T any] struct {
	Method      RequestMethod
	URL         string
	ContentType ContentType
	Data        T
	Headers     map[string]string
}

// GPRS drives bearer lifecycle and HTTP requests.
type GPRS struct {
	broker *broker.Broker
}

func New(b *broker.Broker) *GPRS {
	return &GPRS{broker: b}
}

// ConnStatus reports the bearer status code (3 means connected).
func (g *GPRS) ConnStatus() *broker.TaskHandle[int] {
	return broker.SpawnTask(g.broker, broker.Normal, "", connStatus, struct{}{})
}

func connStatus(b *broker.Broker, id broker.TaskId, _ struct{}) (int, error) {
	resolver := func(text string) (int, error) {
		if broker.ErrorMatch(text) {
			return 0, modemerr.New(modemerr.KindGprsNoConnection)
		}
		m := connStatusRegexp.FindStringSubmatch(text)
		if m == nil {
			return 0, modemerr.NotResolved
		}
		// +SAPBR: <cid>,<status>,<ip>
		fields := splitFirstTwo(m[1])
		status, err := strconv.Atoi(fields)
		if err != nil {
			return 0, modemerr.NotResolved
		}
		return status, nil
	}
	return broker.Process(b, id, "AT+SAPBR=2,1\n", resolver, broker.DefaultTimeout)
}

// splitFirstTwo extracts the status field (second comma-separated
// value) from a +SAPBR payload like "1,3,\"0.0.0.0\"".
func splitFirstTwo(payload string) string {
	inField := 0
	start := -1
	for i, c := range payload {
		if c == ',' {
			inField++
			if inField == 1 {
				start = i + 1
			} else if inField == 2 {
				return payload[start:i]
			}
		}
	}
	if start >= 0 && start <= len(payload) {
		return payload[start:]
	}
	return ""
}

func (g *GPRS) ConnOpen() *broker.TaskHandle[struct{}] {
	return broker.SpawnTask(g.broker, broker.Normal, "", connOpen, struct{}{})
}

func connOpen(b *broker.Broker, id broker.TaskId, _ struct{}) (struct{}, error) {
	resolver := func(text string) (struct{}, error) {
		return struct{}{}, broker.Generic(text, modemerr.New(modemerr.KindGprsConnectionOpenFailed))
	}
	return broker.Process(b, id, "AT+SAPBR=1,1\n", resolver, 20*time.Second)
}

func (g *GPRS) ConnClose() *broker.TaskHandle[struct{}] {
	return broker.SpawnTask(g.broker, broker.Normal, "", connClose, struct{}{})
}

func connClose(b *broker.Broker, id broker.TaskId, _ struct{}) (struct{}, error) {
	resolver := func(text string) (struct{}, error) {
		return struct{}{}, broker.Generic(text, modemerr.New(modemerr.KindGprsConnectionCloseFailed))
	}
	return broker.Process(b, id, "AT+CGATT=0\n", resolver, 10*time.Second)
}

// Init configures the bearer's APN, user, and password, four
// sequential commands within one task so no other task interleaves.
func (g *GPRS) Init(cfg ApnConfig) *broker.TaskHandle[struct{}] {
	return broker.SpawnTask(g.broker, broker.Normal, "", initBearer, cfg)
}

func initBearer(b *broker.Broker, id broker.TaskId, cfg ApnConfig) (struct{}, error) {
	steps := []string{
		`AT+SAPBR=3,1,"Contype","GPRS"` + "\n",
		fmt.Sprintf(`AT+SAPBR=3,1,"APN","%s"`+"\n", cfg.APN),
		fmt.Sprintf(`AT+SAPBR=3,1,"USER","%s"`+"\n", cfg.User),
		fmt.Sprintf(`AT+SAPBR=3,1,"PWD","%s"`+"\n", cfg.Password),
	}

	for _, cmd := range steps {
		resolver := func(text string) (struct{}, error) {
			return struct{}{}, broker.Generic(text, modemerr.New(modemerr.KindGprsApnConfigSetFailed))
		}
		if _, err := broker.Process(b, id, cmd, resolver, broker.DefaultTimeout); err != nil {
			return struct{}{}, err
		}
	}
	return struct{}{}, nil
}
