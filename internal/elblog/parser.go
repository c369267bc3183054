// Package elblog parses Application Load Balancer access-log lines into
// transform records.
package elblog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"lbship/internal/transform"
)

// minFields is the number of leading space separated fields every ALB log
// line carries. Newer log versions append more fields; those are ignored.
const minFields = 18

var ErrShortLine = errors.New("elblog: line has too few fields")

// Fields lists the record keys produced for every line, in log order.
var Fields = []string{
	"type", "timestamp", "elb_id",
	"client_ip", "client_port", "target_ip", "target_port",
	"request_processing_time", "target_processing_time", "response_processing_time",
	"elb_status_code", "target_status_code", "received_bytes", "sent_bytes",
	"method", "url", "http_version", "user_agent",
	"ssl_cipher", "ssl_protocol", "target_group_arn", "trace_id",
}

// Parser reads a stream of access-log lines. It is not safe for concurrent
// use; create one per object.
type Parser struct {
	r    *csv.Reader
	line int
}

func NewParser(r io.Reader) *Parser {
	cr := csv.NewReader(r)
	cr.Comma = ' '
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return &Parser{r: cr}
}

// Next returns the next record, or io.EOF when the stream is exhausted.
func (p *Parser) Next() (transform.Record, error) {
	fields, err := p.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			p.line = pe.StartLine
		} else {
			p.line++
		}
		return nil, fmt.Errorf("elblog: line %d: %w", p.line, err)
	}
	p.line, _ = p.r.FieldPos(0)
	rec, err := fromFields(fields)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", p.line, err)
	}
	return rec, nil
}

// Line is the 1-based input line of the last record or error returned by
// Next. Blank lines are counted.
func (p *Parser) Line() int { return p.line }

// ParseLine parses a single access-log line.
func ParseLine(line string) (transform.Record, error) {
	rec, err := NewParser(strings.NewReader(line)).Next()
	if errors.Is(err, io.EOF) {
		return nil, ErrShortLine
	}
	return rec, err
}

func fromFields(f []string) (transform.Record, error) {
	if len(f) < minFields {
		return nil, fmt.Errorf("%w: got %d, want at least %d", ErrShortLine, len(f), minFields)
	}
	clientIP, clientPort := splitEndpoint(f[3])
	targetIP, targetPort := splitEndpoint(f[4])
	method, url, version := splitRequest(f[12])

	return transform.Record{
		"type":                     f[0],
		"timestamp":                f[1],
		"elb_id":                   f[2],
		"client_ip":                clientIP,
		"client_port":              clientPort,
		"target_ip":                targetIP,
		"target_port":              targetPort,
		"request_processing_time":  f[5],
		"target_processing_time":   f[6],
		"response_processing_time": f[7],
		"elb_status_code":          f[8],
		"target_status_code":       f[9],
		"received_bytes":           f[10],
		"sent_bytes":               f[11],
		"method":                   method,
		"url":                      url,
		"http_version":             version,
		"user_agent":               f[13],
		"ssl_cipher":               f[14],
		"ssl_protocol":             f[15],
		"target_group_arn":         f[16],
		"trace_id":                 f[17],
	}, nil
}

// splitEndpoint splits "ip:port" on the last colon. A "-" endpoint (request
// never reached a target) yields "-" for both parts.
func splitEndpoint(s string) (ip, port string) {
	if s == "-" {
		return "-", "-"
	}
	i := strings.LastIndexByte(s, ':')
	if i < 0 {
		return s, "-"
	}
	return s[:i], s[i+1:]
}

// splitRequest splits `METHOD URL VERSION`. Missing parts are "-".
func splitRequest(s string) (method, url, version string) {
	parts := strings.SplitN(s, " ", 3)
	for len(parts) < 3 {
		parts = append(parts, "-")
	}
	return parts[0], parts[1], parts[2]
}

// IsLineError reports whether err affects a single line only, so reading may
// continue with the next one. Any other error from Next ends the stream.
func IsLineError(err error) bool {
	var pe *csv.ParseError
	return errors.Is(err, ErrShortLine) || errors.As(err, &pe)
}
