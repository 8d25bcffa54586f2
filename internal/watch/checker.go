package watch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// Checker probes a single camera and reports the outcome.
type Checker interface {
	Check(ctx context.Context, camera Camera) CheckResult
}

// ICMPChecker probes cameras by ping. Privileged mode uses raw sockets and
// requires CAP_NET_RAW; unprivileged mode uses UDP ping, which most Linux
// distributions allow via the ping_group_range sysctl.
type ICMPChecker struct {
	Count      int
	Timeout    time.Duration
	Privileged bool
}

// Check implements Checker.
func (c *ICMPChecker) Check(ctx context.Context, camera Camera) CheckResult {
	result := CheckResult{CameraID: camera.ID, CheckedAt: time.Now().UTC()}

	pinger, err := probing.NewPinger(camera.Address)
	if err != nil {
		result.Detail = fmt.Sprintf("resolve %s: %v", camera.Address, err)
		return result
	}
	pinger.Count = c.Count
	pinger.Timeout = c.Timeout
	pinger.SetPrivileged(c.Privileged)

	if err := pinger.RunWithContext(ctx); err != nil {
		result.Detail = fmt.Sprintf("ping %s: %v", camera.Address, err)
		return result
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		result.Detail = fmt.Sprintf("no reply from %s (%d sent)", camera.Address, stats.PacketsSent)
		return result
	}

	result.OK = true
	result.Latency = stats.AvgRtt
	if stats.PacketLoss > 0 {
		result.Detail = fmt.Sprintf("%.0f%% packet loss", stats.PacketLoss)
	}
	return result
}

// HTTPChecker probes cameras whose Address is an HTTP(S) endpoint, such as
// an NVR status page or MJPEG snapshot URL. Any 2xx/3xx counts as up.
type HTTPChecker struct {
	Timeout time.Duration

	client *http.Client
}

// Check implements Checker.
func (c *HTTPChecker) Check(ctx context.Context, camera Camera) CheckResult {
	result := CheckResult{CameraID: camera.ID, CheckedAt: time.Now().UTC()}

	if c.client == nil {
		c.client = &http.Client{
			Timeout: c.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, camera.Address, nil)
	if err != nil {
		result.Detail = fmt.Sprintf("bad endpoint %s: %v", camera.Address, err)
		return result
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		result.Detail = fmt.Sprintf("request %s: %v", camera.Address, err)
		return result
	}
	defer resp.Body.Close()
	result.Latency = time.Since(start)

	if resp.StatusCode >= 400 {
		result.Detail = fmt.Sprintf("status %d", resp.StatusCode)
		return result
	}
	result.OK = true
	return result
}

// checkerFor selects the checker for a camera's configured method.
// Unrecognized methods fall back to ICMP.
func checkerFor(camera Camera, cfg Config) Checker {
	switch camera.Method {
	case CheckHTTP:
		return &HTTPChecker{Timeout: cfg.CheckTimeout}
	default:
		return &ICMPChecker{
			Count:      cfg.PingCount,
			Timeout:    cfg.CheckTimeout,
			Privileged: cfg.Privileged,
		}
	}
}
