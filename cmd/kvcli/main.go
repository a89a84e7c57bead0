// Command kvcli is a one-shot command-line client for the key/value
// server.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/coregx/kvstore/client"
	"github.com/coregx/kvstore/internal/config"
)

const (
	defaultHostname = "127.0.0.1"
	defaultPort     = 6379
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("kvcli", flag.ContinueOnError)
	host := fs.String("hostname", defaultHostname, "server hostname")
	port := fs.Int("port", defaultPort, "server port")
	configPath := fs.String("config", "", "optional YAML config file")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg := &config.Config{}
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		cfg = loaded
	}
	cfg.ApplyDefaults(defaultHostname, defaultPort)
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "hostname":
			cfg.Hostname = *host
		case "port":
			cfg.Port = *port
		}
	})

	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprintln(os.Stderr, "usage: kvcli [--hostname H] [--port P] <ping|get|set|publish|subscribe> ...")
		return 1
	}

	addr := fmt.Sprintf("%s:%d", cfg.Hostname, cfg.Port)
	c, err := client.Dial(addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer c.Close()

	switch rest[0] {
	case "ping":
		return cmdPing(c, rest[1:])
	case "get":
		return cmdGet(c, rest[1:])
	case "set":
		return cmdSet(c, rest[1:])
	case "publish":
		return cmdPublish(c, rest[1:])
	case "subscribe":
		return cmdSubscribe(c, rest[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", rest[0])
		return 1
	}
}

// printBytes prints b as a quoted UTF-8 string when valid, else as its Go
// byte-debug form.
func printBytes(b []byte) {
	if utf8.Valid(b) {
		fmt.Println(strconv.Quote(string(b)))
	} else {
		fmt.Printf("%+q\n", b)
	}
}

func cmdPing(c *client.Client, args []string) int {
	var msg []byte
	if len(args) > 0 {
		msg = []byte(args[0])
	}
	reply, err := c.Ping(msg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printBytes(reply)
	return 0
}

func cmdGet(c *client.Client, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: kvcli get <key>")
		return 1
	}
	value, ok, err := c.Get(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if !ok {
		return 0
	}
	printBytes(value)
	return 0
}

func cmdSet(c *client.Client, args []string) int {
	if len(args) < 2 || len(args) > 3 {
		fmt.Fprintln(os.Stderr, "usage: kvcli set <key> <value> [ms]")
		return 1
	}
	key, value := args[0], []byte(args[1])

	var err error
	if len(args) == 3 {
		ms, perr := strconv.Atoi(args[2])
		if perr != nil {
			fmt.Fprintf(os.Stderr, "invalid ttl %q: %v\n", args[2], perr)
			return 1
		}
		err = c.SetExpires(key, value, time.Duration(ms)*time.Millisecond)
	} else {
		err = c.Set(key, value)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("OK")
	return 0
}

func cmdPublish(c *client.Client, args []string) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: kvcli publish <channel> <message>")
		return 1
	}
	if _, err := c.Publish(args[0], []byte(args[1])); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("Publish OK")
	return 0
}

func cmdSubscribe(c *client.Client, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: kvcli subscribe <ch1> [ch2 ...]")
		return 1
	}
	sub, err := c.Subscribe(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for {
		ch, payload, err := sub.NextMessage()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("got message from the channel: %s; message = %+q\n", ch, payload)
	}
}
