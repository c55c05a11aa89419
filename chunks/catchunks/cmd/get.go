// Package cmd implements the ndndget command-line tool: a segmented-content
// fetch client built on the catchunks fetch engine.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/Tankmaster48/ndnd-catchunks/chunks/catchunks"
	"github.com/Tankmaster48/ndnd-catchunks/chunks/catchunks/segcache"
	enc "github.com/Tankmaster48/ndnd-catchunks/std/encoding"
	"github.com/Tankmaster48/ndnd-catchunks/std/engine"
	"github.com/Tankmaster48/ndnd-catchunks/std/log"
	"github.com/Tankmaster48/ndnd-catchunks/std/ndn"
	"github.com/spf13/cobra"
)

// Exit codes per the CLI surface this tool implements.
const (
	exitOK                = 0
	exitGeneric           = 1
	exitBadCommandLine    = 2
	exitApplicationNack   = 3
	exitLogFileOpenFailed = 4
	exitValidationFailure = 5
)

type getCmd struct {
	opts catchunks.Options

	configFile string
	transport  string

	pipelineTypeStr string
	conventionStr   string
	lifetimeMs      int
	minRtoMs        int
	maxRtoMs        int

	quiet   bool
	verbose bool

	logCwndPath string
	logRttPath  string

	cacheDir string
}

// CmdGet builds the `get` subcommand: fetch a segmented object and write
// its content to stdout.
func CmdGet() *cobra.Command {
	g := &getCmd{opts: catchunks.DefaultOptions()}

	cmd := &cobra.Command{
		Use:     "get NDN-NAME",
		Short:   "Fetch a segmented object by name",
		Args:    cobra.ExactArgs(1),
		Example: `  ndndget get /example/data`,
		Run:     g.run,
	}

	f := cmd.Flags()
	f.BoolVar(&g.opts.MustBeFresh, "fresh", false, "set MustBeFresh on Interests")
	f.IntVar(&g.lifetimeMs, "lifetime", 4000, "Interest lifetime, in milliseconds")
	f.IntVar(&g.opts.MaxRetriesOnTimeoutOrNack, "retries", 3, "per-Interest retry ceiling on timeout or NACK (-1 = unlimited)")
	f.StringVar(&g.pipelineTypeStr, "pipeline-type", "cubic", "pipeline strategy: fixed, aimd, cubic")
	f.BoolVar(&g.opts.DisableVersionDiscovery, "no-version-discovery", false, "skip discovery even if the name has no version component")
	f.StringVar(&g.conventionStr, "naming-convention", "typed", "segment/version component encoding: marker, typed")
	f.IntVar(&g.opts.PipelineSize, "pipeline-size", 1, "fixed pipeline only: concurrent outstanding segments (1..1024)")

	f.BoolVar(&g.opts.IgnoreMarks, "ignore-marks", false, "adaptive pipelines: ignore congestion marks (no effect: Data congestion marks are not read)")
	f.BoolVar(&g.opts.DisableCwa, "disable-cwa", false, "adaptive pipelines: disable conservative window adaptation")
	f.Float64Var(&g.opts.InitCwnd, "init-cwnd", 1, "adaptive pipelines: initial congestion window")
	f.Float64Var(&g.opts.InitSsthresh, "init-ssthresh", 8, "adaptive pipelines: initial slow-start threshold")
	f.Float64Var(&g.opts.Rtt.Alpha, "rto-alpha", catchunks.DefaultRttEstimatorOptions().Alpha, "RTT estimator alpha gain")
	f.Float64Var(&g.opts.Rtt.Beta, "rto-beta", catchunks.DefaultRttEstimatorOptions().Beta, "RTT estimator beta gain")
	f.Float64Var(&g.opts.Rtt.K, "rto-k", catchunks.DefaultRttEstimatorOptions().K, "RTT variance multiplier folded into RTO")
	f.IntVar(&g.minRtoMs, "min-rto", 200, "minimum RTO, in milliseconds")
	f.IntVar(&g.maxRtoMs, "max-rto", 60000, "maximum RTO, in milliseconds")

	f.Float64Var(&g.opts.AimdStep, "aimd-step", 1, "AIMD: additive-increase step")
	f.Float64Var(&g.opts.AimdBeta, "aimd-beta", 0.5, "AIMD: multiplicative-decrease factor")
	f.BoolVar(&g.opts.ResetCwndToInit, "reset-cwnd-to-init", false, "AIMD: reset cwnd to initCwnd (instead of ssthresh) on loss")

	f.Float64Var(&g.opts.CubicBeta, "cubic-beta", 0.7, "CUBIC: multiplicative-decrease factor")
	f.Float64Var(&g.opts.CubicC, "cubic-c", 0.4, "CUBIC: window-growth scaling constant")
	f.BoolVar(&g.opts.FastConv, "fast-conv", false, "CUBIC: enable fast convergence")

	f.BoolVar(&g.quiet, "quiet", false, "only print fatal errors")
	f.BoolVar(&g.verbose, "verbose", false, "print a per-segment trace and a completion summary")

	f.StringVar(&g.logCwndPath, "log-cwnd", "", "write cwnd/ssthresh and RTT/RTO traces to this sqlite file")
	f.StringVar(&g.logRttPath, "log-rtt", "", "write cwnd/ssthresh and RTT/RTO traces to this sqlite file (ignored when --log-cwnd is set)")

	f.StringVar(&g.cacheDir, "cache-dir", "", "resume-capable on-disk segment cache directory")

	f.StringVar(&g.configFile, "config", "", "YAML file overriding these flags")
	f.StringVar(&g.transport, "transport", "unix", "face transport: ws or quic (both dial --face); any other value uses the default face from the client configuration")
	f.String("face", "", "face address for --transport ws (ws://host:port) or quic (host:port); not used by other transports")

	return cmd
}

func (g *getCmd) run(cmd *cobra.Command, args []string) {
	if g.quiet && g.verbose {
		fmt.Fprintln(os.Stderr, "--quiet and --verbose are mutually exclusive")
		os.Exit(exitBadCommandLine)
	}

	if g.configFile != "" {
		if err := loadConfigOverrides(g.configFile, g); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitBadCommandLine)
		}
	}

	name, err := enc.NameFromStr(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid name %q: %v\n", args[0], err)
		os.Exit(exitBadCommandLine)
	}

	pk, err := parsePipelineKind(g.pipelineTypeStr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitBadCommandLine)
	}
	g.opts.PipelineKind = pk

	conv, err := catchunks.ParseNamingConvention(g.conventionStr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitBadCommandLine)
	}
	g.opts.Convention = conv

	g.opts.Lifetime = time.Duration(g.lifetimeMs) * time.Millisecond
	g.opts.Rtt.MinRto = time.Duration(g.minRtoMs) * time.Millisecond
	g.opts.Rtt.MaxRto = time.Duration(g.maxRtoMs) * time.Millisecond
	if g.opts.RtoCheckInterval == 0 {
		g.opts.RtoCheckInterval = 10 * time.Millisecond
	}

	var traceLog *catchunks.TraceLog
	if g.logCwndPath != "" || g.logRttPath != "" {
		path := g.logCwndPath
		if path == "" {
			path = g.logRttPath
		}
		traceLog, err = catchunks.OpenTraceLog(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitLogFileOpenFailed)
		}
		defer traceLog.Close()
	}

	if g.cacheDir != "" {
		cache, err := segcache.Open(g.cacheDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitLogFileOpenFailed)
		}
		defer cache.Close()
		g.opts.Cache = cache
	}

	app := newFaceForTransport(g.transport, faceAddr(cmd))
	eng := engine.NewBasicEngine(app)
	if err := eng.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start engine: %v\n", err)
		os.Exit(exitGeneric)
	}
	defer eng.Stop()

	session := catchunks.NewFetchSession(eng, g.opts)
	if traceLog != nil {
		session.SetTraceLog(traceLog)
	}

	done := make(chan int, 1)
	session.Run(name, os.Stdout, catchunks.NopValidator{},
		func(stats *catchunks.Stats) {
			if g.verbose {
				fmt.Fprintln(os.Stderr, stats.Summary())
			}
			done <- exitOK
		},
		func(err error) {
			if !g.quiet {
				fmt.Fprintln(os.Stderr, err)
			}
			done <- classifyExitCode(err)
		},
	)

	os.Exit(<-done)
}

func parsePipelineKind(s string) (catchunks.PipelineKind, error) {
	switch s {
	case "fixed":
		return catchunks.PipelineFixed, nil
	case "aimd":
		return catchunks.PipelineAIMD, nil
	case "cubic", "":
		return catchunks.PipelineCUBIC, nil
	default:
		return 0, fmt.Errorf("unknown pipeline type %q", s)
	}
}

func classifyExitCode(err error) int {
	switch err.(type) {
	case catchunks.ErrApplicationNack:
		return exitApplicationNack
	case catchunks.ErrValidationFailure:
		return exitValidationFailure
	default:
		return exitGeneric
	}
}

func faceAddr(cmd *cobra.Command) string {
	addr, _ := cmd.Flags().GetString("face")
	return addr
}

func newFaceForTransport(transport, addr string) ndn.Face {
	switch transport {
	case "ws":
		if addr == "" {
			log.Fatal(nil, "ws transport requires --face ws://host:port")
		}
		return engine.NewWebSocketFace(addr)
	case "quic":
		if addr == "" {
			log.Fatal(nil, "quic transport requires --face host:port")
		}
		return engine.NewQuicFace(addr)
	default:
		return engine.NewDefaultFace()
	}
}
