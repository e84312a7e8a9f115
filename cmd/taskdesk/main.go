package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/taskdesk/taskdesk/internal/ipc"
	"github.com/taskdesk/taskdesk/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "state":
		os.Exit(runState(os.Args[2:]))
	case "snap":
		os.Exit(runSnap(os.Args[2:]))
	case "move":
		os.Exit(runMove(os.Args[2:]))
	case "reset":
		os.Exit(runReset(os.Args[2:]))
	case "displays":
		os.Exit(runDisplays(os.Args[2:]))
	case "stats":
		os.Exit(runStats(os.Args[2:]))
	case "health":
		os.Exit(runHealth(os.Args[2:]))
	case "components":
		os.Exit(runComponents(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: taskdesk <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the taskdesk daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  displays            List attached displays")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  state <role>        Show a window role's persisted geometry")
	fmt.Fprintln(w, "  snap <role> <edge>  Snap a role's window to a display edge")
	fmt.Fprintln(w, "  move <role> <id>    Move a role's window to another display")
	fmt.Fprintln(w, "  reset <role>        Reset a role to its default placement")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  stats               Show reliability statistics")
	fmt.Fprintln(w, "  health              Show reliability health report")
	fmt.Fprintln(w, "  components          Show component registry status")
	fmt.Fprintln(w, "  reload              Reload daemon configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tui                 Open the interactive dashboard")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'taskdesk <command> --help' for command-specific options.")
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: taskdesk status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running:    %v\n", status.DaemonRunning)
	fmt.Printf("display_count:     %d\n", status.DisplayCount)
	fmt.Printf("components_loaded: %d\n", status.ComponentsLoaded)
	fmt.Printf("uptime_seconds:    %d\n", status.UptimeSeconds)
	for _, role := range status.Roles {
		fmt.Printf("- %s\n", role)
	}
	return 0
}

func runState(args []string) int {
	fs := flag.NewFlagSet("state", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	jsonOut := fs.Bool("json", false, "Output geometry as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: taskdesk state [--json] <role>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show the persisted geometry for a window role.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "state requires <role>")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	state, err := client.GetState(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *jsonOut {
		return printJSON(state)
	}
	g := state.Geometry
	fmt.Printf("role:       %s\n", state.Role)
	fmt.Printf("geometry:   %dx%d+%d+%d\n", g.Width, g.Height, g.X, g.Y)
	fmt.Printf("display_id: %d\n", g.DisplayID)
	fmt.Printf("maximized:  %v\n", g.IsMaximized)
	return 0
}

func runSnap(args []string) int {
	fs := flag.NewFlagSet("snap", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: taskdesk snap <role> <edge>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Snap a role's window to a display edge.")
		fmt.Fprintln(os.Stderr, "Edges: left, right, top, bottom, top-left, top-right, bottom-left, bottom-right, maximize")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "snap requires <role> and <edge>")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	state, err := client.Snap(fs.Arg(0), fs.Arg(1))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	g := state.Geometry
	fmt.Printf("%s: %dx%d+%d+%d on display %d\n",
		state.Role, g.Width, g.Height, g.X, g.Y, g.DisplayID)
	return 0
}

func runMove(args []string) int {
	fs := flag.NewFlagSet("move", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: taskdesk move <role> <display-id>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Move a role's window to another display, preserving relative position.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "move requires <role> and <display-id>")
		fs.Usage()
		return 2
	}
	var displayID int
	if _, err := fmt.Sscanf(fs.Arg(1), "%d", &displayID); err != nil {
		fmt.Fprintf(os.Stderr, "invalid display id %q\n", fs.Arg(1))
		return 2
	}

	client := ipc.NewClient()
	state, err := client.MoveToDisplay(fs.Arg(0), displayID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	g := state.Geometry
	fmt.Printf("%s: %dx%d+%d+%d on display %d\n",
		state.Role, g.Width, g.Height, g.X, g.Y, g.DisplayID)
	return 0
}

func runReset(args []string) int {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: taskdesk reset <role>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Discard a role's saved geometry and recenter on the primary display.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "reset requires <role>")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	if err := client.ResetState(fs.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runDisplays(args []string) int {
	fs := flag.NewFlagSet("displays", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	jsonOut := fs.Bool("json", false, "Output displays as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: taskdesk displays [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List attached displays as the daemon sees them.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	client := ipc.NewClient()
	data, err := client.GetDisplays()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *jsonOut {
		return printJSON(data)
	}
	for _, d := range data.Displays {
		mark := " "
		if d.Primary {
			mark = "*"
		}
		fmt.Printf("%s %d  %-12s %dx%d+%d+%d  work %dx%d+%d+%d\n",
			mark, d.ID, d.Name,
			d.Width, d.Height, d.X, d.Y,
			d.WorkW, d.WorkH, d.WorkX, d.WorkY)
	}
	return 0
}

func runStats(args []string) int {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: taskdesk stats")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show reliability wrapper statistics as JSON.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	client := ipc.NewClient()
	data, err := client.GetStats()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return printJSON(data.Stats)
}

func runHealth(args []string) int {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: taskdesk health")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show the reliability health report. Exit code 1 when unhealthy.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	client := ipc.NewClient()
	data, err := client.Health()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	h := data.Health
	fmt.Printf("healthy:      %v\n", h.Healthy)
	fmt.Printf("success_rate: %.3f\n", h.SuccessRate)
	fmt.Printf("total_errors: %d\n", h.TotalErrors)
	for _, rec := range h.Recommendations {
		fmt.Printf("- %s\n", rec)
	}
	if !h.Healthy {
		return 1
	}
	return 0
}

func runComponents(args []string) int {
	fs := flag.NewFlagSet("components", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	loadName := fs.String("load", "", "Request an on-demand load of the named component")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: taskdesk components [--load NAME]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show the component registry, or trigger a component load.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	client := ipc.NewClient()
	if *loadName != "" {
		if err := client.LoadComponent(*loadName); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("%s: loaded\n", *loadName)
		return 0
	}

	data, err := client.Components()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return printJSON(data.Status)
}

func runReload(args []string) int {
	fs := flag.NewFlagSet("reload", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: taskdesk reload")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Ask the daemon to reload its configuration file.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	client := ipc.NewClient()
	if err := client.Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("config reloaded")
	return 0
}

func runTUI(args []string) int {
	if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		fmt.Fprintln(os.Stderr, "Usage: taskdesk tui")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Interactive dashboard for the running daemon.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  Tab, 1/2/3  Switch panes")
		fmt.Fprintln(os.Stderr, "  r           Refresh now")
		fmt.Fprintln(os.Stderr, "  q, Esc      Quit")
		return 0
	}

	if err := tui.Run(ipc.NewClient()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
