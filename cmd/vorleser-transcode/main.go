// Command vorleser-transcode exercises the transcoder package's full
// Read/Seek contract against a real media file: it is not the audiobook
// server (no HTTP, no library, no accounts), just a harness to drive the
// stream end to end the way ffprobe/ffplay drive gopus's own examples.
//
// Usage:
//
//	vorleser-transcode -in book.mp3 -out book.opus
//	vorleser-transcode -in book.mp3 -out book.opus -seek-ms 0
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/hatzel/vorleser-go"
	"go.uber.org/zap"
)

func main() {
	inFile := flag.String("in", "", "input media file to transcode")
	outFile := flag.String("out", "output.opus", "output Ogg Opus file path")
	configPath := flag.String("config", "", "optional TOML config file overriding defaults")
	seekMs := flag.Int("seek-ms", -1, "if >= 0, read an 8 KiB prefix, then seek to the byte right after it before copying the rest (the value does not choose the seek position)")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	if *inFile == "" {
		fmt.Fprintln(os.Stderr, "vorleser-transcode: -in is required")
		os.Exit(2)
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vorleser-transcode: building logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	runID := uuid.New()
	logger = logger.With(zap.String("run_id", runID.String()))

	cfg := transcoder.DefaultConfig()
	if *configPath != "" {
		cfg, err = transcoder.LoadConfig(*configPath)
		if err != nil {
			logger.Fatal("loading config", zap.Error(err))
		}
	}

	if err := run(*inFile, *outFile, cfg, logger, *seekMs); err != nil {
		logger.Fatal("transcode failed", zap.Error(err))
	}
}

func run(inFile, outFile string, cfg transcoder.Config, logger *zap.Logger, seekMs int) error {
	stream := transcoder.NewStream(inFile, cfg, logger)
	defer stream.Close() //nolint:errcheck

	out, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer out.Close()

	if seekMs >= 0 {
		// Seeking requires a byte offset, so pull a small prefix first and
		// seek to the byte right after it. The seekMs value only switches
		// this on; it does not select the target position.
		probe := make([]byte, 8192)
		n, rerr := stream.Read(probe)
		if rerr != nil && rerr != io.EOF {
			return fmt.Errorf("probing stream before seek: %w", rerr)
		}
		if _, err := out.Write(probe[:n]); err != nil {
			return fmt.Errorf("writing probed prefix: %w", err)
		}

		target := int64(n)
		if _, err := stream.Seek(target, io.SeekStart); err != nil {
			return fmt.Errorf("seeking to byte %d: %w", target, err)
		}
		logger.Info("seeked stream", zap.Int64("byte_offset", target))
	}

	written, err := io.Copy(out, stream)
	if err != nil {
		return fmt.Errorf("copying transcoded bytes: %w", err)
	}

	logger.Info("transcode complete",
		zap.String("in", inFile),
		zap.String("out", outFile),
		zap.Int64("bytes_written", written),
	)
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}
