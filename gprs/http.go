package gprs

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	"github.com/amken3d/sim868/broker"
	"github.com/amken3d/sim868/modemerr"
)

var httpActionRegexp = regexp.MustCompile(`\+HTTPACTION:.*`)

// DoRequest runs one HTTP request over the bearer: terminate
// (idempotent) -> connection-status probe -> connection-open if not
// already connected -> HTTPINIT -> HTTPPARA* -> HTTPDATA (POST only)
// -> HTTPACTION -> HTTPREAD -> HTTPTERM, all within one spawned task
// so no other task's bytes interleave on the UART.
func DoRequest[T any](g *GPRS, req Request[T]) *broker.TaskHandle[string] {
	return broker.SpawnTask(g.broker, broker.Normal, "", doRequestTask[T], req)
}

func doRequestTask[T any](b *broker.Broker, id broker.TaskId, req Request[T]) (string, error) {
	_, _ = httpTerminate(b, id) // idempotent, errors ignored

	status, err := connStatus(b, id, struct{}{})
	if err != nil {
		return "", err
	}
	if status != 3 {
		if _, err := connOpen(b, id, struct{}{}); err != nil {
			return "", err
		}
	}

	if err := httpInit(b, id, req); err != nil {
		return "", err
	}

	if req.Method == Post {
		body, err := encodeBody(req.ContentType, req.Data)
		if err != nil {
			return "", modemerr.Wrap(modemerr.KindBodySerialisation, err)
		}
		if err := httpData(b, id, body); err != nil {
			return "", err
		}
	}

	if err := httpAction(b, id, req.Method); err != nil {
		return "", err
	}

	text, err := httpRead(b, id)
	if err != nil {
		return "", err
	}

	_, _ = httpTerminate(b, id)
	return text, nil
}

// DoRequestWrapper runs DoRequest then always closes the bearer
// afterward, regardless of the inner outcome. The close error replaces
// the inner outcome only if the inner request succeeded.
func DoRequestWrapper[T any](g *GPRS, req Request[T]) *broker.TaskHandle[string] {
	return broker.SpawnTask(g.broker, broker.Normal, "", doRequestWrapperTask[T], req)
}

func doRequestWrapperTask[T any](b *broker.Broker, id broker.TaskId, req Request[T]) (string, error) {
	result, innerErr := doRequestTask(b, id, req)
	_, closeErr := connClose(b, id, struct{}{})
	if innerErr != nil {
		return "", innerErr
	}
	if closeErr != nil {
		return "", closeErr
	}
	return result, nil
}

func httpInit[T any](b *broker.Broker, id broker.TaskId, req Request[T]) error {
	ok := func(text string) (struct{}, error) {
		return struct{}{}, broker.Generic(text, modemerr.New(modemerr.KindGprsHTTPRequestFailed))
	}

	if _, err := broker.Process(b, id, "AT+HTTPINIT\n", ok, broker.DefaultTimeout); err != nil {
		return err
	}
	if _, err := broker.Process(b, id, `AT+HTTPPARA="CID",1`+"\n", ok, broker.DefaultTimeout); err != nil {
		return err
	}

	targetURL := req.URL
	if req.Method == Get {
		withQuery, err := appendQuery(req.URL, req.ContentType, req.Data)
		if err != nil {
			return modemerr.Wrap(modemerr.KindURLParse, err)
		}
		targetURL = withQuery
	}
	urlCmd := fmt.Sprintf(`AT+HTTPPARA="URL","%s"`+"\n", targetURL)
	if _, err := broker.Process(b, id, urlCmd, ok, broker.DefaultTimeout); err != nil {
		return err
	}

	for key, value := range req.Headers {
		headerCmd := fmt.Sprintf(`AT+HTTPPARA="USERDATA","%s: %s"`+"\n", key, value)
		if _, err := broker.Process(b, id, headerCmd, ok, broker.DefaultTimeout); err != nil {
			return err
		}
	}

	if req.Method == Post {
		contentCmd := fmt.Sprintf(`AT+HTTPPARA="CONTENT","%s"`+"\n", contentTypeHeader(req.ContentType))
		if _, err := broker.Process(b, id, contentCmd, ok, broker.DefaultTimeout); err != nil {
			return err
		}
	}

	return nil
}

func httpData(b *broker.Broker, id broker.TaskId, body string) error {
	cmd := fmt.Sprintf("AT+HTTPDATA=%d,6000\n", len(body))
	waitDownload := func(text string) (struct{}, error) {
		if broker.ErrorMatch(text) {
			return struct{}{}, modemerr.New(modemerr.KindGprsHTTPRequestFailed)
		}
		if strings.Contains(text, "\r\nDOWNLOAD\r\n") {
			return struct{}{}, nil
		}
		return struct{}{}, modemerr.NotResolved
	}
	if _, err := broker.Process(b, id, cmd, waitDownload, broker.DefaultTimeout); err != nil {
		return err
	}

	if err := broker.Write(b, id, body); err != nil {
		return err
	}

	ok := func(text string) (struct{}, error) {
		return struct{}{}, broker.Generic(text, modemerr.New(modemerr.KindGprsHTTPRequestFailed))
	}
	_, err := broker.Read(b, id, ok, 6*time.Second)
	return err
}

func httpAction(b *broker.Broker, id broker.TaskId, method RequestMethod) error {
	cmd := fmt.Sprintf("AT+HTTPACTION=%d\n", method.atValue())
	resolver := func(text string) (struct{}, error) {
		if broker.ErrorMatch(text) {
			return struct{}{}, modemerr.New(modemerr.KindGprsHTTPRequestFailed)
		}
		if httpActionRegexp.MatchString(text) {
			return struct{}{}, nil
		}
		return struct{}{}, modemerr.NotResolved
	}
	_, err := broker.Process(b, id, cmd, resolver, 10*time.Second)
	return err
}

func httpRead(b *broker.Broker, id broker.TaskId) (string, error) {
	resolver := func(text string) (string, error) {
		if broker.ErrorMatch(text) {
			return "", modemerr.New(modemerr.KindGprsHTTPRequestFailed)
		}
		if broker.AckMatch(text) {
			return text, nil
		}
		return "", modemerr.NotResolved
	}
	return broker.Process(b, id, "AT+HTTPREAD\n", resolver, 10*time.Second)
}

// httpTerminate is safe to call even without an open session.
func httpTerminate(b *broker.Broker, id broker.TaskId) (struct{}, error) {
	resolver := func(text string) (struct{}, error) {
		return struct{}{}, broker.Generic(text, modemerr.New(modemerr.KindGprsHTTPRequestFailed))
	}
	return broker.Process(b, id, "AT+HTTPTERM\n", resolver, broker.DefaultTimeout)
}

func contentTypeHeader(ct ContentType) string {
	if ct == JSON {
		return "application/json"
	}
	return "application/x-www-form-urlencoded"
}

// encodeBody serializes data as a JSON body or a form-urlencoded body
// depending on ct.
func encodeBody(ct ContentType, data any) (string, error) {
	if ct == JSON {
		b, err := json.Marshal(data)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	values, err := query.Values(data)
	if err != nil {
		return "", err
	}
	return values.Encode(), nil
}

// appendQuery encodes data as a query string and appends it to
// rawURL.
func appendQuery(rawURL string, ct ContentType, data any) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	values, err := query.Values(data)
	if err != nil {
		return "", err
	}
	u.RawQuery = values.Encode()
	return u.String(), nil
}
