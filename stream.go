package agentui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
)

// LineStream is a pull-based iterator over an incrementally delivered log
// body. Each read chunk is appended to an internal buffer and split on
// newlines; the trailing incomplete segment is retained for the next read
// and never emitted partially. Chunks are processed strictly in arrival
// order.
//
// LineStream is not safe for concurrent use; it belongs to one logical
// consumer.
type LineStream struct {
	body    io.ReadCloser
	cancel  context.CancelCauseFunc
	metrics *MetricsCollector

	buf     []byte
	partial []byte
	queue   []LogLine
	raw     strings.Builder
	err     error
}

// NewLineStream wraps an arbitrary reader in a line stream. Used directly
// for pre-recorded logs; live streams come from Client.Stream.
func NewLineStream(r io.Reader) *LineStream {
	rc, ok := r.(io.ReadCloser)
	if !ok {
		rc = io.NopCloser(r)
	}
	return &LineStream{
		body: rc,
		buf:  make([]byte, 4096),
	}
}

// Next returns the next classified log line. It returns io.EOF after the
// final line (an unterminated trailing line is flushed at end of stream).
// A cancelled stream surfaces the cancellation error.
func (s *LineStream) Next() (*LogLine, error) {
	for {
		if len(s.queue) > 0 {
			line := s.queue[0]
			s.queue = s.queue[1:]
			if s.metrics != nil {
				s.metrics.RecordStreamLine()
			}
			return &line, nil
		}
		if s.err != nil {
			return nil, s.err
		}

		n, err := s.body.Read(s.buf)
		if n > 0 {
			s.raw.Write(s.buf[:n])
			s.feed(s.buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.flushPartial()
				s.err = io.EOF
			} else {
				s.err = err
			}
		}
	}
}

// feed appends a chunk and emits every complete line.
func (s *LineStream) feed(chunk []byte) {
	s.partial = append(s.partial, chunk...)
	for {
		i := bytes.IndexByte(s.partial, '\n')
		if i < 0 {
			return
		}
		line := string(s.partial[:i])
		s.partial = s.partial[i+1:]
		s.emit(line)
	}
}

func (s *LineStream) flushPartial() {
	if len(s.partial) == 0 {
		return
	}
	line := string(s.partial)
	s.partial = nil
	s.emit(line)
}

func (s *LineStream) emit(line string) {
	parsed := ParseLogLine(line)
	if parsed == nil {
		return
	}
	if s.metrics != nil && parsed.Event == nil && eventLineShape(line) {
		s.metrics.RecordMalformedEvent()
	}
	s.queue = append(s.queue, *parsed)
}

// Drain consumes the stream to the end and returns every remaining line.
func (s *LineStream) Drain() ([]LogLine, error) {
	var lines []LogLine
	for {
		line, err := s.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return lines, nil
			}
			return lines, err
		}
		lines = append(lines, *line)
	}
}

// Text returns the raw log text accumulated so far.
func (s *LineStream) Text() string {
	return s.raw.String()
}

// Execution re-derives the execution aggregate from the accumulated text.
// It is a pure function of the text: calling it repeatedly while the
// stream grows is safe and idempotent.
func (s *LineStream) Execution() *WorkflowExecution {
	return ParseExecution(s.Text())
}

// Close aborts the underlying call, failing any in-progress read fast with
// a cancellation error, and releases the body.
func (s *LineStream) Close() error {
	if s.cancel != nil {
		s.cancel(ErrRequestCancelled)
	}
	return s.body.Close()
}

// Stream issues a streaming call and returns a LineStream over the
// response body. Connection establishment follows the client's retry
// classification; coalescing does not apply to streams. The caller owns
// the stream and must Close it.
func (c *Client) Stream(ctx context.Context, rawURL string, cfg *RequestConfig) (*LineStream, error) {
	c.counters.total.Add(1)

	method := cfg.method()
	endpoint := endpointFromURL(rawURL)
	maxRetries := c.maxRetries
	initial := c.initialBackoff
	maxDelay := c.maxBackoff
	multiplier := c.backoffMultiplier
	if cfg != nil && cfg.Retry != nil {
		maxRetries = cfg.Retry.MaxRetries
		if cfg.Retry.InitialDelay > 0 {
			initial = cfg.Retry.InitialDelay
		}
		if cfg.Retry.MaxDelay > 0 {
			maxDelay = cfg.Retry.MaxDelay
		}
		if cfg.Retry.Multiplier > 0 {
			multiplier = cfg.Retry.Multiplier
		}
	}

	reqCtx, cancel := context.WithCancelCause(ctx)

	var lastErr error
	for attempt := 0; ; attempt++ {
		var bodyReader io.Reader
		if len(cfg.body()) > 0 {
			bodyReader = bytes.NewReader(cfg.body())
		}
		req, err := http.NewRequestWithContext(reqCtx, method, rawURL, bodyReader)
		if err != nil {
			cancel(nil)
			return nil, err
		}
		if cfg != nil {
			for k, v := range cfg.Headers {
				req.Header.Set(k, v)
			}
		}

		resp, err := c.httpClient.Do(req)
		switch {
		case err != nil && errors.Is(reqCtx.Err(), context.Canceled):
			cancel(nil)
			c.counters.cancelled.Add(1)
			return nil, &ClientError{
				Type: ErrorTypeCancelled, Message: "stream cancelled",
				Cause: context.Cause(reqCtx), Method: method, URL: rawURL,
				Timestamp: time.Now(),
			}
		case err != nil:
			lastErr = &ClientError{
				Type: ErrorTypeNetwork, Message: "stream connection failed",
				Cause: err, Method: method, URL: rawURL,
				Attempt: attempt, MaxRetries: maxRetries, Timestamp: time.Now(),
			}
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			stream := NewLineStream(resp.Body)
			stream.cancel = cancel
			stream.metrics = c.metrics
			if c.debugEnabled() && c.debug.LogStream && c.logger != nil {
				c.logger.Debug("stream opened", "method", method, "url", rawURL)
			}
			return stream, nil
		default:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
			resp.Body.Close()
			lastErr = &ClientError{
				Type: ErrorTypeHTTP, Message: errorMessageFromBody(resp.StatusCode, body),
				StatusCode: resp.StatusCode, Body: body, Method: method, URL: rawURL,
				Attempt: attempt, MaxRetries: maxRetries, Timestamp: time.Now(),
			}
			if !retryableStatus(resp.StatusCode) {
				cancel(nil)
				c.counters.failed.Add(1)
				return nil, lastErr
			}
		}

		if attempt >= maxRetries {
			cancel(nil)
			c.counters.failed.Add(1)
			return nil, lastErr
		}
		c.counters.retried.Add(1)
		if c.metrics != nil {
			c.metrics.RecordRetry(method, endpoint, attempt+1)
		}

		delay := c.backoff.Calculate(attempt, initial, maxDelay, multiplier, c.jitterCap)
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-reqCtx.Done():
			timer.Stop()
			cancel(nil)
			return nil, lastErr
		}
	}
}
