package config

import (
	"flag"
	"strings"
)

// Flags holds parsed command-line flag values and which were set.
type Flags struct {
	URL     string
	Method  string
	Data    string
	Headers headerList
	Config  string
	Unsafe  bool
	Repeat  int
	Set     map[string]bool
}

// headerList collects repeated -H flags.
type headerList []string

func (h *headerList) String() string { return strings.Join(*h, ", ") }

func (h *headerList) Set(v string) error {
	*h = append(*h, v)
	return nil
}

// ParseCommandFlags parses command-line flags and returns them as a Flags
// struct, recording which were explicitly set.
func ParseCommandFlags() Flags {
	var f Flags
	flag.StringVar(&f.URL, "url", "", "target URL (http://host[:port]/path or unix:///socket/path)")
	flag.StringVar(&f.Method, "method", "GET", "request method (GET or POST)")
	flag.StringVar(&f.Data, "data", "", "request body (POST)")
	flag.Var(&f.Headers, "H", "request header 'Key: Value' (repeatable)")
	flag.StringVar(&f.Config, "config", "./httpwire.yaml", "path to config file")
	flag.BoolVar(&f.Unsafe, "unsafe", false, "use the zero-copy response path")
	flag.IntVar(&f.Repeat, "n", 1, "number of times to repeat the request")
	flag.Parse()

	f.Set = make(map[string]bool)
	flag.Visit(func(fl *flag.Flag) { f.Set[fl.Name] = true })
	return f
}
