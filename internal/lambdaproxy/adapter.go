// Package lambdaproxy serves API Gateway proxy events (REST v1 and HTTP API v2
// payloads) through an ordinary http.Handler.
package lambdaproxy

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/Vovarama1992/nexcast/internal/delivery"
	"github.com/aws/aws-lambda-go/events"
	"github.com/tidwall/gjson"
)

type Adapter struct {
	handler http.Handler
}

func New(handler http.Handler) *Adapter {
	return &Adapter{handler: handler}
}

// Handle is the lambda.Start entrypoint. The event's requestContext travels to the
// handler untouched so the identity middleware sees the authorizer as the gateway sent it.
func (a *Adapter) Handle(ctx context.Context, event json.RawMessage) (any, error) {
	requestContext := []byte(gjson.GetBytes(event, "requestContext").Raw)
	ctx = delivery.WithRequestContext(ctx, requestContext)

	if gjson.GetBytes(event, "version").String() == "2.0" {
		var in events.APIGatewayV2HTTPRequest
		if err := json.Unmarshal(event, &in); err != nil {
			return nil, fmt.Errorf("decode v2 event: %w", err)
		}
		req, err := requestV2(ctx, in)
		if err != nil {
			return nil, err
		}
		rec := a.serve(req)
		body, isB64 := rec.encodedBody()
		return events.APIGatewayV2HTTPResponse{
			StatusCode:      rec.status,
			Headers:         rec.flatHeaders(),
			Body:            body,
			IsBase64Encoded: isB64,
		}, nil
	}

	var in events.APIGatewayProxyRequest
	if err := json.Unmarshal(event, &in); err != nil {
		return nil, fmt.Errorf("decode v1 event: %w", err)
	}
	req, err := requestV1(ctx, in)
	if err != nil {
		return nil, err
	}
	rec := a.serve(req)
	body, isB64 := rec.encodedBody()
	return events.APIGatewayProxyResponse{
		StatusCode:        rec.status,
		Headers:           rec.flatHeaders(),
		MultiValueHeaders: map[string][]string(rec.header),
		Body:              body,
		IsBase64Encoded:   isB64,
	}, nil
}

func (a *Adapter) serve(req *http.Request) *recorder {
	rec := newRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func requestV2(ctx context.Context, in events.APIGatewayV2HTTPRequest) (*http.Request, error) {
	body, err := eventBody(in.Body, in.IsBase64Encoded)
	if err != nil {
		return nil, err
	}
	rawPath := in.RawPath
	if rawPath == "" {
		rawPath = in.RequestContext.HTTP.Path
	}
	// rawPath arrives percent-encoded already
	u, err := url.Parse(rawPath)
	if err != nil {
		return nil, fmt.Errorf("parse v2 path: %w", err)
	}
	u.RawQuery = in.RawQueryString
	req, err := http.NewRequestWithContext(ctx, in.RequestContext.HTTP.Method, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build v2 request: %w", err)
	}
	for k, v := range in.Headers {
		req.Header.Set(k, v)
	}
	if len(in.Cookies) > 0 {
		req.Header.Set("Cookie", strings.Join(in.Cookies, "; "))
	}
	req.RemoteAddr = in.RequestContext.HTTP.SourceIP
	return req, nil
}

func requestV1(ctx context.Context, in events.APIGatewayProxyRequest) (*http.Request, error) {
	body, err := eventBody(in.Body, in.IsBase64Encoded)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	if len(in.MultiValueQueryStringParameters) > 0 {
		for k, vs := range in.MultiValueQueryStringParameters {
			query[k] = append(query[k], vs...)
		}
	} else {
		for k, v := range in.QueryStringParameters {
			query.Set(k, v)
		}
	}

	u := url.URL{Path: in.Path, RawQuery: query.Encode()}
	req, err := http.NewRequestWithContext(ctx, in.HTTPMethod, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build v1 request: %w", err)
	}
	if len(in.MultiValueHeaders) > 0 {
		for k, vs := range in.MultiValueHeaders {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
	} else {
		for k, v := range in.Headers {
			req.Header.Set(k, v)
		}
	}
	req.RemoteAddr = in.RequestContext.Identity.SourceIP
	return req, nil
}

func eventBody(body string, isBase64 bool) ([]byte, error) {
	if !isBase64 {
		return []byte(body), nil
	}
	raw, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("decode event body: %w", err)
	}
	return raw, nil
}

// recorder buffers one response for the Lambda runtime.
type recorder struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newRecorder() *recorder {
	return &recorder{header: http.Header{}}
}

func (r *recorder) Header() http.Header { return r.header }

func (r *recorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
}

func (r *recorder) Write(b []byte) (int, error) {
	r.WriteHeader(http.StatusOK)
	return r.body.Write(b)
}

func (r *recorder) flatHeaders() map[string]string {
	out := make(map[string]string, len(r.header))
	for k, vs := range r.header {
		out[k] = strings.Join(vs, ",")
	}
	return out
}

func (r *recorder) encodedBody() (string, bool) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	b := r.body.Bytes()
	if utf8.Valid(b) {
		return string(b), false
	}
	return base64.StdEncoding.EncodeToString(b), true
}
