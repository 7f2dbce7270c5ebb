package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/betbot/bithumbkit/bithumb/client"
	"github.com/betbot/bithumbkit/bithumb/types"
	"github.com/betbot/bithumbkit/internal/metrics"
	"github.com/betbot/bithumbkit/internal/services"
	"github.com/betbot/bithumbkit/pkg/config"
	"github.com/betbot/bithumbkit/pkg/logger"
	"github.com/betbot/bithumbkit/pkg/shutdown"
)

const usage = `bithumb - Bithumb 交易命令行

Usage:
  bithumb [global flags] <group> <command> [args]

Groups:
  market codes [-limit N]
  market price <MARKET>
  market candle <MARKET> [-period minutes|daily|weekly|monthly] [-unit N] [-count N]
  market watch <MARKET>... [-interval 2s] [-stream]
  account balance
  trade buy <MARKET> <VOLUME> <PRICE>
  trade market-buy <MARKET> <FUNDS>
  trade sell <MARKET> <VOLUME> [-price P]
  trade cancel <UUID>
  trade status <UUID>
  trade orders [-market M] [-state wait|watch|done|cancel] [-page-size N] [-pages N]
  trade chance <MARKET>

Global flags:
`

// errUsage 参数错误，打印用法
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// app 命令共享的依赖
type app struct {
	cfg     *config.Config
	client  *client.Client
	market  *services.MarketDataService
	account *services.AccountService
	orders  *services.OrderService
	out     io.Writer
	errOut  io.Writer
	closer  *shutdown.Manager
}

func newApp(cfg *config.Config, out, errOut io.Writer) *app {
	opts := []client.Option{}
	if cfg.Credentials.Valid() {
		opts = append(opts, client.WithCredentials(cfg.Credentials))
	}
	c := client.New(cfg.ClientConfig(), opts...)

	a := &app{
		cfg:     cfg,
		client:  c,
		market:  services.NewMarketDataService(c),
		account: services.NewAccountService(c),
		out:     out,
		errOut:  errOut,
		closer:  shutdown.NewManager(),
	}

	var constraints services.ConstraintsProvider = services.StaticConstraints{MinTotal: cfg.Trading.MinOrderValue}
	if cfg.Trading.UseExchangeConstraints && cfg.Credentials.Valid() {
		ec := services.NewExchangeConstraints(c, cfg.Trading.ConstraintsTTL, cfg.Trading.MinOrderValue)
		a.closer.OnShutdown("order constraints cache", func(context.Context) error {
			ec.Close()
			return nil
		})
		constraints = ec
	}
	a.orders = services.NewOrderService(c,
		services.WithConstraints(constraints),
		services.WithPriceEstimator(a.market),
	)
	return a
}

func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.closer.Shutdown(ctx)
}

// requireCredentials 私有命令的前置检查
func (a *app) requireCredentials() error {
	if err := a.cfg.RequireCredentials(); err != nil {
		return fmt.Errorf("%w\n使用环境变量 %s / %s 或 -access-key / -secret-key 参数",
			err, config.EnvAccessKey, config.EnvSecretKey)
	}
	return nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("bithumb", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath  = fs.String("config", "", "配置文件路径（.yaml/.yml/.json）")
		accessKey   = fs.String("access-key", "", "API access key（默认读取 "+config.EnvAccessKey+"）")
		secretKey   = fs.String("secret-key", "", "API secret key（默认读取 "+config.EnvSecretKey+"）")
		logLevel    = fs.String("log-level", "", "日志级别: debug, info, warn, error")
		metricsAddr = fs.String("metrics-addr", "", "debug 服务监听地址，例如 127.0.0.1:6060")
	)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	rest := fs.Args()
	if len(rest) < 2 {
		fs.Usage()
		return 2
	}
	group, command, cmdArgs := rest[0], rest[1], rest[2:]

	config.LoadDotEnv()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "错误: %v\n", err)
		return 1
	}
	if *accessKey != "" {
		cfg.Credentials.AccessKey = *accessKey
	}
	if *secretKey != "" {
		cfg.Credentials.SecretKey = *secretKey
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "错误: %v\n", err)
		return 1
	}

	logCfg := cfg.LoggerConfig()
	logCfg.Console = stderr
	if group == "market" && command == "watch" {
		// 全屏界面下日志只写文件
		logCfg.Console = io.Discard
	}
	if err := logger.Init(logCfg); err != nil {
		fmt.Fprintf(stderr, "初始化日志失败: %v\n", err)
		return 1
	}
	logger.Redact(cfg.Credentials.AccessKey, cfg.Credentials.SecretKey)

	if *metricsAddr != "" {
		addr, err := metrics.StartAsync(ctx, *metricsAddr)
		if err != nil {
			fmt.Fprintf(stderr, "启动 metrics 服务失败: %v\n", err)
			return 1
		}
		logger.Infof("metrics listening on http://%s/debug/vars", addr)
	}

	a := newApp(cfg, stdout, stderr)
	defer a.Close()

	switch group {
	case "market":
		err = a.runMarket(ctx, command, cmdArgs)
	case "account":
		err = a.runAccount(ctx, command, cmdArgs)
	case "trade":
		err = a.runTrade(ctx, command, cmdArgs)
	default:
		err = errUsage
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fs.Usage()
		return 2
	case errors.Is(err, flag.ErrHelp):
		return 0
	}
	fmt.Fprintf(stderr, "错误: %v\n", err)
	if kind := types.KindOf(err); kind != "" {
		logger.WithField("kind", kind).Debugf("command %s %s failed", group, command)
	}
	return 1
}

// parseArgs 允许参数与 flag 交错：sell KRW-BTC 0.1 -price 100
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func newFlagSet(name string, errOut io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(errOut)
	return fs
}

func normalizeMarket(m string) string {
	return strings.ToUpper(strings.TrimSpace(m))
}
