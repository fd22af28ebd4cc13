package cache

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrDaemonError is returned when the cache daemon answers a query with
// an ERR response.
var ErrDaemonError = errors.New("cache daemon error")

// Client queries a write-back cache daemon over TCP.
//
// The protocol is newline-delimited text: the client sends
// "QUERY <metric>\n" and the daemon answers either "ERR <message>\n" or
// "OK <count>\n" followed by count lines of "<timestamp> <value>".
//
// Concurrent queries for the same metric key are coalesced into a single
// round trip; the render path frequently asks for one hot metric from
// many requests at once.
type Client struct {
	addr    string
	timeout time.Duration

	group singleflight.Group
}

// NewClient creates a client for the daemon at addr. timeout bounds the
// whole query round trip; zero means no deadline.
func NewClient(addr string, timeout time.Duration) *Client {
	return &Client{addr: addr, timeout: timeout}
}

// Query implements Querier.
func (c *Client) Query(ctx context.Context, metric string) ([]Point, error) {
	v, err, _ := c.group.Do(metric, func() (any, error) {
		return c.query(ctx, metric)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Point), nil
}

func (c *Client) query(ctx context.Context, metric string) ([]Point, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("dial cache daemon: %w", err)
	}
	defer conn.Close()

	if c.timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, fmt.Errorf("set deadline: %w", err)
		}
	}

	if _, err := fmt.Fprintf(conn, "QUERY %s\n", metric); err != nil {
		return nil, fmt.Errorf("send query: %w", err)
	}

	r := bufio.NewReader(conn)
	status, err := r.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read status: %w", err)
	}
	status = strings.TrimSpace(status)

	switch {
	case strings.HasPrefix(status, "ERR "):
		return nil, fmt.Errorf("%w: %s", ErrDaemonError, strings.TrimPrefix(status, "ERR "))
	case strings.HasPrefix(status, "OK "):
		// fall through to the point lines
	default:
		return nil, fmt.Errorf("%w: unexpected response %q", ErrDaemonError, status)
	}

	count, err := strconv.Atoi(strings.TrimPrefix(status, "OK "))
	if err != nil || count < 0 {
		return nil, fmt.Errorf("%w: bad count in %q", ErrDaemonError, status)
	}

	points := make([]Point, 0, count)
	for i := 0; i < count; i++ {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("read point %d: %w", i, err)
		}
		p, err := parsePoint(strings.TrimSpace(line))
		if err != nil {
			// A single bad line does not invalidate the rest.
			continue
		}
		points = append(points, p)
	}

	return points, nil
}

func parsePoint(line string) (Point, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return Point{}, fmt.Errorf("malformed point line %q", line)
	}
	ts, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return Point{}, fmt.Errorf("bad timestamp %q: %w", fields[0], err)
	}
	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Point{}, fmt.Errorf("bad value %q: %w", fields[1], err)
	}
	return Point{Timestamp: ts, Value: v}, nil
}
