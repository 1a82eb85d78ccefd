package client

import (
	"strconv"
	"strings"

	"httpwire/pkg/httperr"
)

// endpoint is a resolved target: a TCP host/port or a Unix socket path,
// plus the default request path taken from the URL.
type endpoint struct {
	scheme string // "http" or "unix"
	host   string // hostname for http, socket path for unix
	port   uint16
	path   string
}

const defaultHTTPPort = 80

// resolveURL splits a URL of the form http://host[:port]/path or
// unix:///absolute/path into an endpoint. Everything after unix:// is the
// socket path verbatim.
func resolveURL(raw string) (endpoint, error) {
	switch {
	case strings.HasPrefix(raw, "unix://"):
		path := raw[len("unix://"):]
		if path == "" {
			return endpoint{}, httperr.New(httperr.ErrURLParse, "empty unix socket path")
		}
		return endpoint{scheme: "unix", host: path, path: "/"}, nil

	case strings.HasPrefix(raw, "http://"):
		rest := raw[len("http://"):]
		hostport := rest
		path := "/"
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			hostport = rest[:i]
			path = rest[i:]
		}
		if hostport == "" {
			return endpoint{}, httperr.New(httperr.ErrURLParse, "missing host in "+raw)
		}

		host := hostport
		port := uint16(defaultHTTPPort)
		if i := strings.LastIndexByte(hostport, ':'); i >= 0 {
			host = hostport[:i]
			p, err := strconv.ParseUint(hostport[i+1:], 10, 16)
			if err != nil {
				return endpoint{}, httperr.Wrap(httperr.ErrURLParse, "port in "+raw, err)
			}
			port = uint16(p)
		}
		if host == "" {
			return endpoint{}, httperr.New(httperr.ErrURLParse, "missing host in "+raw)
		}
		return endpoint{scheme: "http", host: host, port: port, path: path}, nil
	}

	return endpoint{}, httperr.New(httperr.ErrURLParse, "unsupported url "+raw)
}
