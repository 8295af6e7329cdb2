package main

import (
	"flag"
	"fmt"
	"os"
)

var (
	hf         bool
	verify     bool
	configPath string
	logLevel   string
	port       int
)

func InitFlag() {
	flag.BoolVar(&hf, "h", false, "this help")
	flag.BoolVar(&verify, "verify", false, "check every configured archive and exit")
	flag.StringVar(&configPath, "c", "./conf/conf.toml", "set config `file`")
	flag.StringVar(&logLevel, "l", "info", "set log level (default: info)")
	flag.IntVar(&port, "p", 0, "listen `port`, overrides server.port")
	flag.Usage = usage
	flag.Parse()

	if hf {
		flag.Usage()
		os.Exit(0)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `tileserver version: tileserver/v0.1.0
Usage: tileserver [-h] [-verify] [-c filename] [-l logLevel] [-p port]
`)
	flag.PrintDefaults()
}
