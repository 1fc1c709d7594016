package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/enetx/g"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	pixeldust "github.com/HKHOP/Project-PixelDust-sub000"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/policy"
	"github.com/HKHOP/Project-PixelDust-sub000/pkg/tlspolicy"
)

var (
	// CLI flags
	maxRedirectsFlag int
	timeoutFlag      time.Duration
	osRootsFlag      bool
	noOCSPFlag       bool
	dnsFlag          string
	proxyFlag        string
	policyFlag       string
	logFileFlag      string
	headersFlag      bool
	verboseFlag      bool

	// set at link time
	version string
)

func init() {
	flag.IntVar(&maxRedirectsFlag, "max-redirects", 10, "Maximum redirects to follow")
	flag.DurationVar(&timeoutFlag, "timeout", 10*time.Second, "Connect and I/O timeout")
	flag.BoolVar(&osRootsFlag, "os-roots", false, "Trust operating-system roots in addition to the embedded set")
	flag.BoolVar(&noOCSPFlag, "no-ocsp", false, "Do not require a stapled OCSP response")
	flag.StringVar(&dnsFlag, "dns", "", "DNS server to query (host:port)")
	flag.StringVar(&proxyFlag, "proxy", "", "SOCKS proxy URL (socks4, socks4a, socks5, socks5h)")
	flag.StringVar(&policyFlag, "policy", "", "YAML privacy and security policy file")
	flag.StringVar(&logFileFlag, "log-file", "", "Rotated JSON log file (in addition to stderr)")
	flag.BoolVar(&headersFlag, "i", false, "Print the status line and response headers")
	flag.BoolVar(&verboseFlag, "v", false, "Verbosity: debug logging")

	if version == "" {
		version = "DEV"
	}

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: pdfetch [flags] URL\n")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	logLevel := zerolog.InfoLevel
	if verboseFlag {
		logLevel = zerolog.DebugLevel
	}

	logOutputs := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}}
	if logFileFlag != "" {
		logOutputs = append(logOutputs, &lumberjack.Logger{
			Filename:   logFileFlag,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		})
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(logOutputs...)).
		Level(logLevel).
		With().Timestamp().Str("version", version).Logger()

	cfg := policy.Default()
	if policyFlag != "" {
		var err error
		if cfg, err = policy.Load(policyFlag); err != nil {
			log.Fatal().Err(err).Str("path", policyFlag).Msg("Cannot load policy")
		}
	}

	trust := tlspolicy.WebPKIOnly
	if osRootsFlag {
		trust = tlspolicy.WebPKIAndOS
	}

	b := pixeldust.NewBuilder().
		Logger(log.Logger).
		Policy(cfg).
		TrustStore(trust).
		ConnectTimeout(timeoutFlag).
		MaxRedirects(maxRedirectsFlag, maxRedirectsFlag).
		Proxy(g.String(proxyFlag))

	if noOCSPFlag {
		b.OCSP(false)
	}

	if dnsFlag != "" {
		b.DNS(g.String(dnsFlag))
	}

	res := b.Build()
	if res.IsErr() {
		log.Fatal().Err(res.Err()).Msg("Invalid configuration")
	}

	fetcher := res.Ok()
	defer fetcher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	url := flag.Arg(0)

	resp, err := fetcher.Navigate(ctx, url)
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("Fetch failed")
		os.Exit(1)
	}

	log.Info().
		Str("url", resp.FinalURL).
		Int("status", resp.Status).
		Str("content_type", resp.ContentType).
		Int("bytes", len(resp.Body)).
		Msg("Fetched")

	if headersFlag {
		fmt.Printf("%s %d\n", resp.Version, resp.Status)
		for _, h := range resp.Headers {
			fmt.Printf("%s: %s\n", h.Name, h.Value)
		}
		fmt.Println()
	}

	fmt.Print(resp.Text())
}
