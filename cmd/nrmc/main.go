// nrmc is the NRM protocol client: one subcommand per wire verb, plus
// an interactive read-eval loop that sends raw protocol lines directly.
package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lightpath-network/nrm/pkg/bootstrap"
	"github.com/lightpath-network/nrm/pkg/cli"
	"github.com/lightpath-network/nrm/pkg/config"
	"github.com/lightpath-network/nrm/pkg/protocol"
	"github.com/lightpath-network/nrm/pkg/version"
)

var (
	paramPath string
	addrFlag  string
)

func main() {
	root := &cobra.Command{
		Use:           "nrmc",
		Short:         "NRM protocol client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&paramPath, "param", "param.json", "path to param.json (for the default server address)")
	root.PersistentFlags().StringVar(&addrFlag, "addr", "", "server address, overrides param.json's nrm_host:nrm_Port")

	root.AddCommand(
		pathfindCmd(),
		reserveCmd(),
		queryCmd(),
		terminateCmd(),
		terminateAllCmd(),
		writeDBCmd(),
		interactiveCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "print version information",
			Run: func(cmd *cobra.Command, args []string) {
				if version.Version == "dev" {
					fmt.Println("nrmc dev build")
				} else {
					fmt.Printf("nrmc %s (%s)\n", version.Version, version.GitCommit)
				}
			},
		},
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.Red(err.Error()))
		os.Exit(1)
	}
}

func serverAddr() (string, error) {
	if addrFlag != "" {
		return addrFlag, nil
	}
	cfg, err := config.Load(paramPath)
	if err != nil {
		return "", err
	}
	return bootstrap.Addr(cfg), nil
}

// sendLine opens a fresh connection, writes one request line, and
// returns the response lines up to the sentinel empty line.
func sendLine(line string) ([]string, error) {
	addr, err := serverAddr()
	if err != nil {
		return nil, err
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if _, err := fmt.Fprintln(conn, line); err != nil {
		return nil, err
	}
	return protocol.ReadResponse(bufio.NewScanner(conn))
}

func printLines(lines []string, err error) error {
	if err != nil {
		return err
	}
	for _, l := range lines {
		fmt.Println(l)
	}
	return nil
}

// printRouteLines renders a pathfind/reserve/query response. In table
// mode the leading status line is bolded and any "COMP IN x -> NEXT OUT
// y" hop lines are collected into a HOP/IN/NEXT/OUT table; anything
// that doesn't parse as a hop line (including error lines) is printed
// as-is so the fallback never swallows output.
func printRouteLines(lines []string, err error, table bool) error {
	if err != nil {
		return err
	}
	if !table {
		return printLines(lines, nil)
	}

	t := cli.NewTable("HOP", "IN", "NEXT", "OUT")
	for i, l := range lines {
		comp, inCh, next, outCh, ok := parseHopLine(l)
		if !ok {
			if i == 0 {
				fmt.Println(cli.Bold(l))
			} else {
				fmt.Println(l)
			}
			continue
		}
		t.Row(comp, inCh, next, outCh)
	}
	t.Flush()
	return nil
}

// parseHopLine splits a "COMP IN inCh -> next OUT outCh" line rendered
// by the engine's route formatter.
func parseHopLine(line string) (comp, inCh, next, outCh string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) != 7 || fields[1] != "IN" || fields[3] != "->" || fields[5] != "OUT" {
		return "", "", "", "", false
	}
	return fields[0], fields[2], fields[4], fields[6], true
}

func pathfindCmd() *cobra.Command {
	var src, dst string
	var ero, channels []string
	var bidi, wdmsa, table bool

	cmd := &cobra.Command{
		Use:   "pathfind",
		Short: "dry-run a route without reserving it",
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := sendLine(buildRequestLine(protocol.CmdPathfind, src, dst, ero, channels, bidi, wdmsa, 0))
			return printRouteLines(lines, err, table)
		},
	}
	addRouteFlags(cmd, &src, &dst, &ero, &channels, &bidi, &wdmsa)
	cmd.Flags().BoolVar(&table, "table", false, "render the route as a table instead of raw lines")
	return cmd
}

func reserveCmd() *cobra.Command {
	var src, dst string
	var ero, channels []string
	var bidi, wdmsa, table bool
	var numThreads int

	cmd := &cobra.Command{
		Use:   "reserve",
		Short: "reserve a route",
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := sendLine(buildRequestLine(protocol.CmdReserve, src, dst, ero, channels, bidi, wdmsa, numThreads))
			return printRouteLines(lines, err, table)
		},
	}
	addRouteFlags(cmd, &src, &dst, &ero, &channels, &bidi, &wdmsa)
	cmd.Flags().IntVarP(&numThreads, "threads", "p", 0, "solvec fan-out width")
	cmd.Flags().BoolVar(&table, "table", false, "render the route as a table instead of raw lines")
	return cmd
}

func addRouteFlags(cmd *cobra.Command, src, dst *string, ero, channels *[]string, bidi, wdmsa *bool) {
	cmd.Flags().StringVarP(src, "src", "s", "", "source port (required)")
	cmd.Flags().StringVarP(dst, "dst", "d", "", "destination port (required)")
	cmd.Flags().StringSliceVar(ero, "ero", nil, "explicit route object ports")
	cmd.Flags().StringSliceVar(channels, "ch", nil, "channel trial set")
	cmd.Flags().BoolVar(bidi, "bi", false, "bidirectional")
	cmd.Flags().BoolVar(wdmsa, "wdmsa", false, "single wavelength-selective-switch trial")
	cmd.MarkFlagRequired("src")
	cmd.MarkFlagRequired("dst")
}

func buildRequestLine(command, src, dst string, ero, channels []string, bidi, wdmsa bool, numThreads int) string {
	var b strings.Builder
	b.WriteString(command)
	fmt.Fprintf(&b, " -s %s -d %s", src, dst)
	if len(ero) > 0 {
		b.WriteString(" -ero " + strings.Join(ero, " "))
	}
	if len(channels) > 0 {
		b.WriteString(" -ch " + strings.Join(channels, " "))
	}
	if bidi {
		b.WriteString(" -bi")
	}
	if wdmsa {
		b.WriteString(" --wdmsa")
	}
	if numThreads > 0 {
		fmt.Fprintf(&b, " -p %d", numThreads)
	}
	return b.String()
}

func queryCmd() *cobra.Command {
	var table bool
	cmd := &cobra.Command{
		Use:   "query <id>",
		Short: "look up a reservation by globalId or shortId",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := sendLine("query -g " + args[0])
			return printRouteLines(lines, err, table)
		},
	}
	cmd.Flags().BoolVar(&table, "table", false, "render the route as a table instead of raw lines")
	return cmd
}

func terminateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "terminate <id>",
		Short: "terminate a reservation by globalId or shortId",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printLines(sendLine("terminate -g " + args[0]))
		},
	}
	return cmd
}

func terminateAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "terminate-all",
		Short: "terminate every live reservation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printLines(sendLine(protocol.CmdTerminateAll))
		},
	}
}

func writeDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "write-db",
		Short: "persist the live reservation set to disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printLines(sendLine(protocol.CmdWriteDB))
		},
	}
}

// interactiveCmd is a minimal read-eval loop: each line typed is sent
// verbatim as a protocol request over one shared connection, with no
// history file.
func interactiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "read-eval loop sending raw protocol lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := serverAddr()
			if err != nil {
				return err
			}
			conn, err := net.Dial("tcp", addr)
			if err != nil {
				return err
			}
			defer conn.Close()

			serverScanner := bufio.NewScanner(conn)
			stdin := bufio.NewScanner(os.Stdin)
			fmt.Fprintf(os.Stdout, "nrmc connected to %s\n", addr)
			for {
				fmt.Fprint(os.Stdout, "nrm> ")
				if !stdin.Scan() {
					return nil
				}
				line := strings.TrimSpace(stdin.Text())
				if line == "" {
					continue
				}
				if line == "quit" || line == "exit" {
					return nil
				}
				if _, err := fmt.Fprintln(conn, line); err != nil {
					return err
				}
				lines, err := protocol.ReadResponse(serverScanner)
				if err != nil {
					return err
				}
				for _, l := range lines {
					fmt.Println(l)
				}
			}
		},
	}
}
