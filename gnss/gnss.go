// Package gnss implements GNSS power control and fix retrieval.
// Grounded on original_source/src/gnss.rs.
package gnss

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/amken3d/sim868/broker"
	"github.com/amken3d/sim868/modemerr"
)

var dataRegexp = regexp.MustCompile(`\+CGNSINF: (.+)`)

// Data is a structured GNSS fix.
type Data struct {
	Lat           float64
	Lon           float64
	Alt           float64
	GroundSpeed   float64
	GroundCourse  float64
	SatsInView    int
	SatsInUse     int
	UTCDateTime   time.Time
}

// GNSS drives the GNSS power toggle and fix queries.
type GNSS struct {
	broker *broker.Broker
}

func New(b *broker.Broker) *GNSS {
	return &GNSS{broker: b}
}

func (g *GNSS) IsOn() *broker.TaskHandle[bool] {
	return broker.SpawnTask(g.broker, broker.Normal, "", isOn, struct{}{})
}

func isOn(b *broker.Broker, id broker.TaskId, _ struct{}) (bool, error) {
	resolver := func(text string) (bool, error) {
		if broker.ErrorMatch(text) {
			return false, modemerr.New(modemerr.KindUart)
		}
		if strings.Contains(text, "+CGNSPWR: 1") {
			return true, nil
		}
		if strings.Contains(text, "+CGNSPWR: 0") {
			return false, nil
		}
		return false, modemerr.NotResolved
	}
	return broker.Process(b, id, "AT+CGNSPWR?\n", resolver, broker.DefaultTimeout)
}

func (g *GNSS) TurnOn() *broker.TaskHandle[struct{}] {
	return broker.SpawnTask(g.broker, broker.Normal, "turning gnss on", power(true), struct{}{})
}

func (g *GNSS) TurnOff() *broker.TaskHandle[struct{}] {
	return broker.SpawnTask(g.broker, broker.Normal, "turning gnss off", power(false), struct{}{})
}

func power(on bool) broker.TaskFn[struct{}, struct{}] {
	cmd := "AT+CGNSPWR=0\n"
	if on {
		cmd = "AT+CGNSPWR=1\n"
	}
	return func(b *broker.Broker, id broker.TaskId, _ struct{}) (struct{}, error) {
		resolver := func(text string) (struct{}, error) {
			return struct{}{}, broker.Generic(text, modemerr.New(modemerr.KindGnssProblem))
		}
		return broker.Process(b, id, cmd, resolver, broker.DefaultTimeout)
	}
}

// GetData reads the current GNSS fix.
func (g *GNSS) GetData() *broker.TaskHandle[Data] {
	return broker.SpawnTask(g.broker, broker.Normal, "", getData, struct{}{})
}

func getData(b *broker.Broker, id broker.TaskId, _ struct{}) (Data, error) {
	resolver := func(text string) (Data, error) {
		if broker.ErrorMatch(text) {
			return Data{}, modemerr.New(modemerr.KindGnssProblem)
		}
		m := dataRegexp.FindStringSubmatch(text)
		if m == nil {
			return Data{}, modemerr.NotResolved
		}
		return parseFix(m[1])
	}
	return broker.Process(b, id, "AT+CGNSINF\n", resolver, broker.DefaultTimeout)
}

// parseFix parses the comma-separated +CGNSINF payload. Field indices
// follow the SIM868 AT command manual: 0=run status, 1=fix status,
// 2=UTC datetime, 3=lat, 4=lon, 5=alt, 6=ground speed, 7=ground course,
// ... 17=satellites in view, 18=satellites in use.
func parseFix(payload string) (Data, error) {
	fields := strings.Split(payload, ",")
	if len(fields) < 19 {
		return Data{}, modemerr.NotResolved
	}

	if fields[0] == "0" {
		return Data{}, modemerr.New(modemerr.KindGnssModuleOff)
	}
	if fields[1] == "0" {
		return Data{}, modemerr.New(modemerr.KindGnssNotFixed)
	}

	utc, err := parseUTC(fields[2])
	if err != nil {
		return Data{}, modemerr.New(modemerr.KindGnssProblem)
	}

	return Data{
		UTCDateTime:  utc,
		Lat:          parseFloat(fields[3]),
		Lon:          parseFloat(fields[4]),
		Alt:          parseFloat(fields[5]),
		GroundSpeed:  parseFloat(fields[6]),
		GroundCourse: parseFloat(fields[7]),
		SatsInView:   parseInt(fields[17]),
		SatsInUse:    parseInt(fields[18]),
	}, nil
}

// parseUTC parses the fixed-width YYYYMMDDHHMMSS.sss timestamp emitted
// by +CGNSINF into a UTC time.Time.
func parseUTC(s string) (time.Time, error) {
	if len(s) < 14 {
		return time.Time{}, fmt.Errorf("gnss: malformed utc datetime %q", s)
	}
	layout := "20060102150405.000"
	if !strings.Contains(s, ".") {
		layout = "20060102150405"
	}
	return time.Parse(layout, s)
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}
