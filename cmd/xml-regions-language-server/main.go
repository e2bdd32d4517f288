package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"bennypowers.dev/xmlls/internal/log"
	"bennypowers.dev/xmlls/internal/regions"
	"bennypowers.dev/xmlls/internal/version"
	"bennypowers.dev/xmlls/lsp"
	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
)

// CLI is the command line of the server binary
type CLI struct {
	LogLevel string           `help:"Minimum level written to stderr (${enum})." default:"info" enum:"debug,info,warn,warning,error"`
	Stdio    bool             `help:"Use stdio transport. Accepted for client compatibility; stdio is the only transport."`
	Version  kong.VersionFlag `help:"Print version information and exit."`

	Serve   ServeCmd   `cmd:"" default:"1" help:"Run the language server (default)."`
	Regions RegionsCmd `cmd:"" help:"Print the regions of XML files."`
}

// ServeCmd runs the language server over stdio
type ServeCmd struct{}

// Run starts the server and blocks until the client disconnects
func (c *ServeCmd) Run(cli *CLI) error {
	server, err := lsp.NewServer()
	if err != nil {
		return fmt.Errorf("failed to create LSP server: %w", err)
	}
	defer func() { _ = server.Close() }()

	config := server.GetConfig()
	config.LogLevel = cli.LogLevel
	server.SetConfig(config)

	log.Info("Starting %s %s", version.ServerName, version.GetVersion())
	return server.RunStdio()
}

// RegionsCmd prints one line per region of each file
type RegionsCmd struct {
	Files []string `arg:"" type:"existingfile" help:"Files to analyze."`
}

// Run analyzes the files in order
func (c *RegionsCmd) Run(cli *CLI) error {
	for _, name := range c.Files {
		data, err := os.ReadFile(name)
		if err != nil {
			return err
		}
		printRegions(os.Stdout, name, string(data))
	}
	return nil
}

// maxExcerpt is the number of bytes of region text printed
const maxExcerpt = 40

func printRegions(w io.Writer, name, content string) {
	rs := regions.Analyze(content)
	fmt.Fprintf(w, "%s: %s, %d regions\n", name, humanize.Bytes(uint64(len(content))), len(rs))
	for _, r := range rs {
		text := r.Text(content)
		if len(text) > maxExcerpt {
			text = text[:maxExcerpt] + "..."
		}
		marker := ""
		if !regions.Terminated(content, r) {
			marker = " (unterminated)"
		}
		fmt.Fprintf(w, "%6d %6d  %-15s %s%s\n", r.Start, r.End, r.Kind, strconv.Quote(text), marker)
	}
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name(version.ServerName),
		kong.Description("Language server that splits XML documents into typed regions."),
		kong.UsageOnError(),
		kong.Vars{"version": version.GetFullVersion()},
	)

	level, err := log.ParseLevel(cli.LogLevel)
	if err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
	log.SetLevel(level)

	if err := ctx.Run(&cli); err != nil {
		log.Error("Server error: %v", err)
		os.Exit(1)
	}
}
