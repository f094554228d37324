package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/benjaminschreck/go-deck/pkg/deck"
	"github.com/benjaminschreck/go-deck/pkg/deck/api"
	"github.com/benjaminschreck/go-deck/pkg/deck/opc"
	"github.com/benjaminschreck/go-deck/pkg/deck/pml"
)

const version = "0.1.0"

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr            string        `env:"DECK_ADDR" env-default:":8080"`
	MaxRequestBytes int64         `env:"DECK_MAX_REQUEST_BYTES" env-default:"1048576"`
	RequestTimeout  time.Duration `env:"DECK_REQUEST_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `env:"DECK_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "go-deck - PowerPoint presentations from structured content")
	fmt.Fprintln(w, "\nUsage: deck <command> [arguments]")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  serve                        Serve the HTTP API (configured by DECK_* variables)")
	fmt.Fprintln(w, "  build <units.json> <out>     Build a .pptx from a JSON file (\"-\" reads stdin)")
	fmt.Fprintln(w, "  inspect <file.pptx>          List the parts of a package and check its structure")
	fmt.Fprintln(w, "  styles                       List the style presets")
	fmt.Fprintln(w, "  version                      Show version information")
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "go-deck version %s\n", version)
	case "styles":
		for _, name := range pml.StyleNames() {
			fmt.Fprintln(stdout, name)
		}
	case "serve":
		err = serve(ctx)
	case "build":
		if len(args) != 3 {
			usage(stderr)
			return 2
		}
		err = build(ctx, args[1], args[2], stdout)
	case "inspect":
		if len(args) != 2 {
			usage(stderr)
			return 2
		}
		err = inspect(args[1], stdout)
	case "help", "-h", "--help":
		usage(stdout)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		usage(stderr)
		return 2
	}

	if err != nil {
		fmt.Fprintf(stderr, "deck %s: %v\n", args[0], err)
		return 1
	}
	return 0
}

func loadConfig() (*deck.Config, error) {
	config, err := deck.ConfigFromEnvironment()
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	deck.SetGlobalConfig(config)
	return config, nil
}

func serve(ctx context.Context) error {
	var serverConfig ServerConfig
	if err := cleanenv.ReadEnv(&serverConfig); err != nil {
		return fmt.Errorf("read server config: %w", err)
	}
	config, err := loadConfig()
	if err != nil {
		return err
	}

	logger := deck.GetLogger()
	// route third-party slog output through the same handler
	slog.SetDefault(logger.Slog())

	engine, err := deck.New(ctx, config, deck.WithLogger(logger))
	if err != nil {
		return err
	}
	handler := api.NewHandler(engine, logger, serverConfig.MaxRequestBytes)

	srv := &http.Server{
		Addr:              serverConfig.Addr,
		Handler:           api.NewRouter(handler, serverConfig.RequestTimeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening on %s", serverConfig.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func build(ctx context.Context, input, output string, stdout io.Writer) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	req, err := deck.DecodeUnits(in)
	if err != nil {
		return err
	}

	engine, err := deck.New(ctx, config)
	if err != nil {
		return err
	}
	res, err := engine.GenerateRequest(ctx, req)
	if err != nil {
		return err
	}

	if !strings.HasSuffix(strings.ToLower(output), ".pptx") {
		output += ".pptx"
	}
	if err := os.WriteFile(output, res.Data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s: %d slides, %d bytes\n", output, res.Slides, len(res.Data))
	if len(res.MissingMedia) > 0 {
		fmt.Fprintf(stdout, "slides without their image: %v\n", res.MissingMedia)
	}
	return nil
}

func inspect(path string, stdout io.Writer) error {
	r, err := opc.ReaderFromFile(path)
	if err != nil {
		return err
	}
	types, err := r.ContentTypes()
	if err != nil {
		return err
	}

	parts := r.ListParts()
	fmt.Fprintf(stdout, "%s: %d parts\n", path, len(parts))
	for _, name := range parts {
		ct, _ := types.Resolve(name)
		if name == opc.ContentTypesPartName {
			ct = "(manifest)"
		}
		fmt.Fprintf(stdout, "  %-48s %s\n", name, ct)
	}

	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid package:\n%w", err)
	}
	fmt.Fprintln(stdout, "ok")
	return nil
}
