package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"httpwire/pkg/banner"
	"httpwire/pkg/client"
	"httpwire/pkg/config"
	"httpwire/pkg/logger"
	"httpwire/pkg/protocol"
)

// build metadata - set via ldflags during release
var (
	version = "dev"
	commit  = "none"
)

func main() {
	_ = godotenv.Load(".env")
	flags := config.ParseCommandFlags()

	cfgPath := config.ResolveConfigPath(flags.Config, flags.Set["config"])
	cfg, source, err := config.LoadEffective(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.InitWithLevel(cfg.Logging.Level)

	url := cfg.Client.URL
	if flags.Set["url"] {
		url = flags.URL
	}
	if url == "" {
		verStr := version
		if commit != "none" {
			verStr += " (" + commit + ")"
		}
		banner.Print("(not set)", source, verStr)
		fmt.Fprintln(os.Stderr, "no target: pass -url or set client.url in the config")
		os.Exit(2)
	}

	if cfg.Metrics.Addr != "" {
		go serveMetrics(cfg.Metrics.Addr)
	}

	c, err := client.New(url,
		client.WithDialTimeout(cfg.Client.DialTimeout.Std()),
		client.WithMaxResponseSize(int(cfg.Client.MaxResponseSize)),
		client.WithReadChunkSize(int(cfg.Client.ReadChunkSize)),
		client.WithRateLimit(cfg.Client.RateLimit.RPS, cfg.Client.RateLimit.Burst),
	)
	if err != nil {
		logger.Error("client_init_failed", "url", url, "error", err)
		os.Exit(1)
	}
	defer c.Close()

	req, post, err := buildRequest(flags, url)
	if err != nil {
		logger.Error("invalid_request", "error", err)
		os.Exit(1)
	}

	repeat := flags.Repeat
	if repeat < 1 {
		repeat = 1
	}
	for i := 0; i < repeat; i++ {
		if err := performOnce(c, req, post, flags.Unsafe); err != nil {
			logger.Error("request_failed", "url", url, "error", err)
			os.Exit(1)
		}
	}
}

// buildRequest assembles the protocol request from flags. A Host header is
// added for TCP targets when the caller did not supply one, and POST bodies
// get a matching Content-Length the same way.
func buildRequest(flags config.Flags, url string) (*protocol.Request, bool, error) {
	req := &protocol.Request{}

	for _, raw := range flags.Headers {
		key, value, ok := strings.Cut(raw, ":")
		if !ok {
			return nil, false, fmt.Errorf("malformed header %q, want 'Key: Value'", raw)
		}
		req.Headers = append(req.Headers, protocol.Header{
			Key:   strings.TrimSpace(key),
			Value: strings.TrimSpace(value),
		})
	}

	if strings.HasPrefix(url, "http://") && !hasHeader(req.Headers, "Host") {
		host := url[len("http://"):]
		if i := strings.IndexByte(host, '/'); i >= 0 {
			host = host[:i]
		}
		req.Headers = append([]protocol.Header{{Key: "Host", Value: host}}, req.Headers...)
	}

	method := strings.ToUpper(flags.Method)
	switch method {
	case "GET":
		if flags.Data != "" {
			return nil, false, fmt.Errorf("GET does not take -data")
		}
		return req, false, nil
	case "POST":
		req.Body = []byte(flags.Data)
		if !hasHeader(req.Headers, "Content-Length") {
			req.Headers = append(req.Headers, protocol.Header{
				Key:   "Content-Length",
				Value: strconv.Itoa(len(req.Body)),
			})
		}
		return req, true, nil
	}
	return nil, false, fmt.Errorf("unsupported method %q", flags.Method)
}

func hasHeader(headers []protocol.Header, key string) bool {
	for _, h := range headers {
		if strings.EqualFold(h.Key, key) {
			return true
		}
	}
	return false
}

// performOnce runs a single request and dumps the response to stdout. The
// unsafe path prints before any further engine call can reuse the buffer.
func performOnce(c *client.HttpClient, req *protocol.Request, post, unsafe bool) error {
	switch {
	case post && unsafe:
		resp, err := c.PostUnsafe(req)
		if err != nil {
			return err
		}
		printUnsafe(resp)
	case post:
		resp, err := c.PostSafe(req)
		if err != nil {
			return err
		}
		printSafe(resp)
	case unsafe:
		resp, err := c.GetUnsafe(req)
		if err != nil {
			return err
		}
		printUnsafe(resp)
	default:
		resp, err := c.GetSafe(req)
		if err != nil {
			return err
		}
		printSafe(resp)
	}
	return nil
}

func printSafe(resp *protocol.Response) {
	fmt.Printf("%d %s\n", resp.StatusCode, resp.StatusMessage)
	for _, h := range resp.Headers {
		fmt.Printf("%s: %s\n", h.Key, h.Value)
	}
	fmt.Println()
	os.Stdout.Write(resp.Body)
	fmt.Println()
}

func printUnsafe(resp *protocol.UnsafeResponse) {
	fmt.Printf("%d %s\n", resp.StatusCode, resp.StatusMessage)
	for _, h := range resp.Headers {
		fmt.Printf("%s: %s\n", h.Key, h.Value)
	}
	fmt.Println()
	os.Stdout.Write(resp.Body)
	fmt.Println()
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics_server_failed", "addr", addr, "error", err)
	}
}
