package elblog

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lbship/internal/transform"
)

const sampleLine = `https 2017-09-12T18:49:38.910213Z app/22ff55229966cc00aa9911eeaa226677/9999cceedd225588 ` +
	`254.254.254.5:8750 10.0.3.100:32831 0.001 0.002 0.000 200 200 40 1166 ` +
	`"GET https://254.254.254.211:443/ HTTP/1.1" "-" ECDHE-RSA-AES128-GCM-SHA256 TLSv1.2 ` +
	`arn:aws:elasticloadbalancing:eu-west-1:1234567890:targetgroup/bb2299006677ffccaabb22bb33221100/dd441133ccdd7744 ` +
	`"Root=1-aabbccdd-33330000444422334444ffff"`

func TestParseLine(t *testing.T) {
	rec, err := ParseLine(sampleLine)
	require.NoError(t, err)

	assert.Equal(t, transform.Record{
		"type":                     "https",
		"timestamp":                "2017-09-12T18:49:38.910213Z",
		"elb_id":                   "app/22ff55229966cc00aa9911eeaa226677/9999cceedd225588",
		"client_ip":                "254.254.254.5",
		"client_port":              "8750",
		"target_ip":                "10.0.3.100",
		"target_port":              "32831",
		"request_processing_time":  "0.001",
		"target_processing_time":   "0.002",
		"response_processing_time": "0.000",
		"elb_status_code":          "200",
		"target_status_code":       "200",
		"received_bytes":           "40",
		"sent_bytes":               "1166",
		"method":                   "GET",
		"url":                      "https://254.254.254.211:443/",
		"http_version":             "HTTP/1.1",
		"user_agent":               "-",
		"ssl_cipher":               "ECDHE-RSA-AES128-GCM-SHA256",
		"ssl_protocol":             "TLSv1.2",
		"target_group_arn":         "arn:aws:elasticloadbalancing:eu-west-1:1234567890:targetgroup/bb2299006677ffccaabb22bb33221100/dd441133ccdd7744",
		"trace_id":                 "Root=1-aabbccdd-33330000444422334444ffff",
	}, rec)
	assert.Len(t, rec, len(Fields))
}

func TestParseLine_UnknownTarget(t *testing.T) {
	line := strings.Replace(sampleLine, "10.0.3.100:32831", "-", 1)
	rec, err := ParseLine(line)
	require.NoError(t, err)
	assert.Equal(t, "-", rec["target_ip"])
	assert.Equal(t, "-", rec["target_port"])
}

func TestParseLine_ExtraFieldsIgnored(t *testing.T) {
	rec, err := ParseLine(sampleLine + ` "example.com" "arn:aws:acm:cert" 0 2017-09-12T18:49:38.900000Z "forward" "-" "-"`)
	require.NoError(t, err)
	assert.Len(t, rec, len(Fields))
	assert.Equal(t, "Root=1-aabbccdd-33330000444422334444ffff", rec["trace_id"])
}

func TestParseLine_Short(t *testing.T) {
	_, err := ParseLine("https 2017-09-12T18:49:38.910213Z app/x")
	assert.ErrorIs(t, err, ErrShortLine)

	_, err = ParseLine("")
	assert.ErrorIs(t, err, ErrShortLine)
}

func TestParser_Stream(t *testing.T) {
	in := sampleLine + "\n" + strings.Replace(sampleLine, `"GET `, `"POST `, 1) + "\n"
	p := NewParser(strings.NewReader(in))

	var methods []string
	for {
		rec, err := p.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		methods = append(methods, rec["method"].(string))
	}
	assert.Equal(t, []string{"GET", "POST"}, methods)
	assert.Equal(t, 2, p.Line())
}

func TestParser_ReportsLineNumber(t *testing.T) {
	p := NewParser(strings.NewReader(sampleLine + "\nbroken line\n"))
	_, err := p.Next()
	require.NoError(t, err)

	_, err = p.Next()
	require.ErrorIs(t, err, ErrShortLine)
	assert.Contains(t, err.Error(), "line 2")
}

func TestSplitRequest_Malformed(t *testing.T) {
	m, u, v := splitRequest("- - - ")
	assert.Equal(t, []string{"-", "-", "- "}, []string{m, u, v})

	m, u, v = splitRequest("GET")
	assert.Equal(t, []string{"GET", "-", "-"}, []string{m, u, v})
}

func TestIsLineError(t *testing.T) {
	_, err := ParseLine("http 2017")
	assert.True(t, IsLineError(err))
	assert.False(t, IsLineError(io.ErrUnexpectedEOF))
	assert.False(t, IsLineError(nil))
}

func TestParser_LineNumbersFollowInput(t *testing.T) {
	multiline := strings.Replace(sampleLine, `"-"`, "\"multi\nline agent\"", 1)
	in := sampleLine + "\n\nshort line\n" + multiline + "\n" + sampleLine + "\n"
	p := NewParser(strings.NewReader(in))

	_, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, p.Line())

	_, err = p.Next()
	require.ErrorIs(t, err, ErrShortLine)
	assert.True(t, IsLineError(err))
	assert.Equal(t, 3, p.Line())
	assert.Contains(t, err.Error(), "line 3")

	rec, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, 4, p.Line())
	assert.Equal(t, "multi\nline agent", rec["user_agent"])

	_, err = p.Next()
	require.NoError(t, err)
	assert.Equal(t, 6, p.Line())

	_, err = p.Next()
	assert.ErrorIs(t, err, io.EOF)
}
