package builtin

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lbship/internal/config"
	"lbship/internal/transform"
)

type keyEvent string

func (k keyEvent) ObjectKey() string { return string(k) }

var elbLogSample = transform.Record{
	"sent_bytes":               "473",
	"ssl_protocol":             "TLSv1.2",
	"target_processing_time":   "4.675",
	"request_processing_time":  "0.001",
	"target_ip":                "10.2.6.153",
	"target_group_arn":         "arn:aws:elasticloadbalancing:eu-west-1:1234567890:targetgroup/aaaaffffbbbbeee3333444467890/99990000aabbccdd",
	"elb_status_code":          "200",
	"http_version":             "HTTP/1.1",
	"ssl_cipher":               "ECDHE-RSA-AES128-GCM-SHA256",
	"received_bytes":           "395",
	"type":                     "https",
	"method":                   "GET",
	"response_processing_time": "0.000",
	"client_ip":                "192.168.1.237",
	"timestamp":                "2017-09-12T09:24:10.041931Z",
	"target_status_code":       "200",
	"target_port":              "45407",
	"client_port":              "42830",
	"elb_id":                   "app/aaaaffffbbbbeee3333444467890/aaaabbbbddddffff",
	"url":                      "https://a.hostname.domain.net:443/get/details?test=1&timestamp=1505209399",
	"trace_id":                 "Root=1-55bbaaff-445577883322aabbccddeeee",
	"user_agent":               "Ruby",
}

func TestJSON_Serializes(t *testing.T) {
	out, err := JSON{}.Transform(nil, transform.Record{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)
}

func TestJSON_RoundTrip(t *testing.T) {
	in := transform.Record{
		"s":    "a <b> & \"c\"",
		"n":    float64(12.5),
		"b":    true,
		"null": nil,
	}
	out, err := JSON{}.Transform(nil, in)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out.(string)), &decoded))
	assert.Equal(t, map[string]any(in), decoded)
}

func TestJSON_RejectsText(t *testing.T) {
	_, err := JSON{}.Transform(nil, "already serialized")
	assert.ErrorIs(t, err, transform.ErrUnexpectedInput)
}

func TestKeyValuePairs(t *testing.T) {
	out, err := KeyValuePairs{}.Transform(nil, transform.Record{
		"a": 1,
		"b": `A"C`,
		"c": "GET",
		"Z": "hello world",
	})
	require.NoError(t, err)
	assert.Equal(t, `Z="hello world" a="1" b="A\"C" c="GET"`, out)
}

func TestKeyValuePairs_EmptyAndNil(t *testing.T) {
	out, err := KeyValuePairs{}.Transform(nil, transform.Record{})
	require.NoError(t, err)
	assert.Equal(t, "", out)

	out, err = KeyValuePairs{}.Transform(nil, transform.Record{"missing": nil, "ok": true})
	require.NoError(t, err)
	assert.Equal(t, `missing="None" ok="True"`, out)

	out, err = KeyValuePairs{}.Transform(nil, transform.Record{"b": false, "f": 1.0, "g": 0.25, "i": 7})
	require.NoError(t, err)
	assert.Equal(t, `b="False" f="1.0" g="0.25" i="7"`, out)
}

func TestURLParser(t *testing.T) {
	out, err := URLParser{}.Transform(nil, elbLogSample.Clone())
	require.NoError(t, err)

	rec := out.(transform.Record)
	assert.NotContains(t, rec, "url")
	assert.Equal(t, "a.hostname.domain.net", rec["host"])
	assert.Equal(t, "443", rec["port"])
	assert.Equal(t, "/get/details", rec["path"])
	assert.Equal(t, "test=1&timestamp=1505209399", rec["query_string"])
	assert.Equal(t, "Ruby", rec["user_agent"])
	assert.Len(t, rec, len(elbLogSample)+3)
}

func TestURLParser_DoesNotTouchInput(t *testing.T) {
	in := transform.Record{"url": "http://h:80/"}
	_, err := URLParser{}.Transform(nil, in)
	require.NoError(t, err)
	assert.Equal(t, transform.Record{"url": "http://h:80/"}, in)
}

func TestURLParser_Fallbacks(t *testing.T) {
	cases := []struct {
		name string
		in   transform.Record
		want transform.Record
	}{
		{
			name: "no port",
			in:   transform.Record{"url": "https://example.com/x?y=1"},
			want: transform.Record{"host": "example.com", "port": "", "path": "/x", "query_string": "y=1"},
		},
		{
			name: "missing url",
			in:   transform.Record{"k": "v"},
			want: transform.Record{"k": "v", "host": "", "port": "", "path": "", "query_string": ""},
		},
		{
			name: "bad percent escape",
			in:   transform.Record{"url": "http://h:80/%%32%65%%32%65/etc/passwd"},
			want: transform.Record{"host": "h", "port": "80", "path": "/%%32%65%%32%65/etc/passwd", "query_string": ""},
		},
		{
			name: "non numeric port",
			in:   transform.Record{"url": "http://h:abc/x"},
			want: transform.Record{"host": "h", "port": "abc", "path": "/x", "query_string": ""},
		},
		{
			name: "control character",
			in:   transform.Record{"url": "http://h:80/a\x01b"},
			want: transform.Record{"host": "h", "port": "80", "path": "/a\x01b", "query_string": ""},
		},
		{
			name: "path kept verbatim",
			in:   transform.Record{"url": "http://h:80/a{b}?q=1#frag"},
			want: transform.Record{"host": "h", "port": "80", "path": "/a{b}", "query_string": "q=1"},
		},
		{
			name: "userinfo stays in netloc",
			in:   transform.Record{"url": "http://user:pw@h/x"},
			want: transform.Record{"host": "user", "port": "pw@h", "path": "/x", "query_string": ""},
		},
		{
			name: "params dropped from last segment",
			in:   transform.Record{"url": "https://h:443/a;x/b;y?z"},
			want: transform.Record{"host": "h", "port": "443", "path": "/a;x/b", "query_string": "z"},
		},
		{
			name: "relative request target",
			in:   transform.Record{"url": "/health?full=1"},
			want: transform.Record{"host": "", "port": "", "path": "/health", "query_string": "full=1"},
		},
		{
			name: "nil url",
			in:   transform.Record{"url": nil},
			want: transform.Record{"host": "", "port": "", "path": "", "query_string": ""},
		},
		{
			name: "ipv6 host",
			in:   transform.Record{"url": "http://[::1]:8080/"},
			want: transform.Record{"host": "[::1]", "port": "8080", "path": "/", "query_string": ""},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := URLParser{}.Transform(nil, tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestS3KeyFieldExtractor(t *testing.T) {
	mapping, err := ParseKeyFieldMapping(`[
		{"field": "myfield", "value": "key[1]"},
		{"field": "myfield2", "value": "key[3]"}
	]`)
	require.NoError(t, err)

	out, err := NewS3KeyFieldExtractor(mapping).Transform(keyEvent("/a/b/c/d"), transform.Record{})
	require.NoError(t, err)
	assert.Equal(t, transform.Record{"myfield": "b", "myfield2": "d"}, out)
}

func TestS3KeyFieldExtractor_OutOfRangeIsNil(t *testing.T) {
	mapping, err := ParseKeyFieldMapping(`[{"field": "far", "expression": "key[42]"}, {"field": "last", "value": "key[-1]"}]`)
	require.NoError(t, err)

	out, err := NewS3KeyFieldExtractor(mapping).Transform(keyEvent("a/b"), transform.Record{"x": "y"})
	require.NoError(t, err)

	rec := out.(transform.Record)
	require.Contains(t, rec, "far")
	assert.Nil(t, rec["far"])
	assert.Equal(t, "b", rec["last"])
	assert.Equal(t, "y", rec["x"])
}

func TestS3KeyFieldExtractor_LaterAssignmentsWin(t *testing.T) {
	mapping, err := ParseKeyFieldMapping(`[{"field": "f", "value": "key[0]"}, {"field": "f", "value": "key[1]"}]`)
	require.NoError(t, err)

	out, err := NewS3KeyFieldExtractor(mapping).Transform(keyEvent("one/two"), transform.Record{})
	require.NoError(t, err)
	assert.Equal(t, transform.Record{"f": "two"}, out)
}

func TestS3KeyFieldExtractor_DecodesKey(t *testing.T) {
	mapping, err := ParseKeyFieldMapping(`[{"field": "env", "value": "key[0]"}, {"field": "region", "value": "key[4]"}]`)
	require.NoError(t, err)

	key := "my+env/AWSLogs/1234567890/elasticloadbalancing/eu%2Dwest%2D1/2017/09/12/x.log.gz"
	out, err := NewS3KeyFieldExtractor(mapping).Transform(keyEvent(key), transform.Record{})
	require.NoError(t, err)
	assert.Equal(t, transform.Record{"env": "my env", "region": "eu-west-1"}, out)
}

func TestS3KeyFieldExtractor_UnsetIsIdentity(t *testing.T) {
	for _, raw := range []string{"", "null", " ", "[]"} {
		mapping, err := ParseKeyFieldMapping(raw)
		require.NoError(t, err)

		in := transform.Record{"a": "1", "b": 2}
		out, err := NewS3KeyFieldExtractor(mapping).Transform(nil, in)
		require.NoError(t, err)
		assert.Equal(t, in, out, "mapping %q", raw)
	}
}

func TestS3KeyFieldExtractor_NeedsEventWhenConfigured(t *testing.T) {
	mapping, err := ParseKeyFieldMapping(`[{"field": "f", "value": "key[0]"}]`)
	require.NoError(t, err)

	_, err = NewS3KeyFieldExtractor(mapping).Transform(nil, transform.Record{})
	assert.Error(t, err)
}

func TestParseKeyFieldMapping_Invalid(t *testing.T) {
	for _, raw := range []string{
		`{"field": "f"}`,
		`not json`,
		`[{"field": "f"}]`,
		`[{"value": "key[0]"}]`,
		`[{"field": "f", "value": "key["}]`,
	} {
		_, err := ParseKeyFieldMapping(raw)
		assert.ErrorIs(t, err, transform.ErrInvalidConfiguration, "mapping %q", raw)
	}
}

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry(config.TransformSettings{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"JSONTransformer", "KeyValuePairFormatTransformer", "S3KeyFieldExtractorTransformer", "URLParserTransformer",
		"json", "kvp", "s3_key_field_extractor", "url_parser",
	}, reg.Names())

	_, err = NewRegistry(config.TransformSettings{S3KeyFieldMapping: "{"})
	assert.ErrorIs(t, err, transform.ErrInvalidConfiguration)
}

func TestBuiltinPipeline(t *testing.T) {
	reg, err := NewRegistry(config.TransformSettings{
		S3KeyFieldMapping: `[{"field": "account", "value": "key[2]"}]`,
	})
	require.NoError(t, err)

	p, err := transform.Build(reg, []string{URLParserName, S3KeyFieldExtractName, KeyValuePairsName})
	require.NoError(t, err)

	out, err := p.Apply(keyEvent("prefix/AWSLogs/1234567890/x.log.gz"), transform.Record{
		"url":    "http://h:81/p?q",
		"method": "GET",
	})
	require.NoError(t, err)
	assert.Equal(t, `account="1234567890" host="h" method="GET" path="/p" port="81" query_string="q"`, out)
}

func TestBuiltinPipeline_SerializerMustBeLast(t *testing.T) {
	reg, err := NewRegistry(config.TransformSettings{})
	require.NoError(t, err)

	_, err = transform.Build(reg, []string{JSONName, URLParserName})
	assert.ErrorIs(t, err, transform.ErrIncompatibleStages)

	_, err = transform.Build(reg, []string{"JSONTransformer", "URLParserTransformer"})
	assert.ErrorIs(t, err, transform.ErrIncompatibleStages)
}

func TestBuiltinPipeline_ClassNameAliases(t *testing.T) {
	reg, err := NewRegistry(config.TransformSettings{
		S3KeyFieldMapping: `[{"field": "account", "value": "key[2]"}]`,
	})
	require.NoError(t, err)

	p, err := transform.Build(reg, []string{"URLParserTransformer", "S3KeyFieldExtractorTransformer", "JSONTransformer"})
	require.NoError(t, err)
	assert.Equal(t, []string{"URLParserTransformer", "S3KeyFieldExtractorTransformer", "JSONTransformer"}, p.Names())

	out, err := p.Apply(keyEvent("prefix/AWSLogs/1234567890/x.log.gz"), transform.Record{"url": "http://h:81/p?q"})
	require.NoError(t, err)
	assert.Equal(t, `{"account":"1234567890","host":"h","path":"/p","port":"81","query_string":"q"}`, out)

	p, err = transform.Build(reg, []string{"KeyValuePairFormatTransformer"})
	require.NoError(t, err)
	out, err = p.Apply(nil, transform.Record{"a": "1"})
	require.NoError(t, err)
	assert.Equal(t, `a="1"`, out)

	for alias, name := range Aliases {
		f, err := reg.Resolve(alias)
		require.NoError(t, err, alias)
		g, err := reg.Resolve(name)
		require.NoError(t, err)
		assert.IsType(t, g(), f(), alias)
	}
}
